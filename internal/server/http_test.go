package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supportdesk/internal/audit"
	auditrepo "supportdesk/internal/audit/repository"
	identityrepo "supportdesk/internal/identity/repository"
	identityservice "supportdesk/internal/identity/service"
	"supportdesk/internal/notify"
	"supportdesk/internal/push"
	"supportdesk/internal/role"
	"supportdesk/internal/security"
	sessionrepo "supportdesk/internal/session/repository"
	sessionservice "supportdesk/internal/session/service"
	tokenrepo "supportdesk/internal/token/repository"
	tokenservice "supportdesk/internal/token/service"
)

type fixture struct {
	router    http.Handler
	directory *identityservice.Directory
	sessions  *sessionservice.Service
	tokens    *tokenservice.Issuer
	registry  *push.Registry
	audits    *auditrepo.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher := security.NewHasher(4) // minimum bcrypt cost, tests only
	directory := identityservice.NewDirectory(identityrepo.NewMemoryRepository(), hasher)
	sessions := sessionservice.NewService(sessionrepo.NewMemoryRepository(), directory, 4*time.Hour)
	tokens := tokenservice.NewIssuer(tokenrepo.NewMemoryRepository())
	registry := push.NewRegistry(nil)
	notifier := notify.NewService(registry)
	audits := auditrepo.NewMemoryRepository()

	router := NewRouter(Deps{
		Directory:  directory,
		Sessions:   sessions,
		Tokens:     tokens,
		Registry:   registry,
		Notifier:   notifier,
		Audit:      audit.NewLogger(audits, nil),
		PushBuffer: 8,
	})
	return &fixture{router: router, directory: directory, sessions: sessions, tokens: tokens, registry: registry, audits: audits}
}

func (f *fixture) register(t *testing.T, email string, r role.Role) string {
	t.Helper()
	p, err := f.directory.Register(context.Background(), email, "Test User", "hunter22", r)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return p.ID
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	rec := f.do(t, "POST", "/api/v1/auth/login", map[string]string{
		"email": email, "password": "hunter22",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.SessionID
}

func (f *fixture) do(t *testing.T, method, path string, body any, session string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestLogin_SetsCookieAndReturnsSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "admin@sd.test", role.RoleAdmin)

	rec := f.do(t, "POST", "/api/v1/auth/login", map[string]string{
		"email": "admin@sd.test", "password": "hunter22",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID string `json:"sessionId"`
		ExpiresIn int64  `json:"expiresIn"`
		Principal struct {
			Role string `json:"role"`
		} `json:"principal"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("sessionId should be set")
	}
	if resp.ExpiresIn != int64((4 * time.Hour).Seconds()) {
		t.Errorf("expiresIn = %d", resp.ExpiresIn)
	}
	if resp.Principal.Role != "admin" {
		t.Errorf("principal role = %q", resp.Principal.Role)
	}

	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "sd_session="+resp.SessionID) {
		t.Errorf("Set-Cookie = %q, should carry the session id", cookie)
	}
	if !strings.Contains(cookie, "HttpOnly") {
		t.Errorf("Set-Cookie = %q, should be HttpOnly", cookie)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.register(t, "admin@sd.test", role.RoleAdmin)

	rec := f.do(t, "POST", "/api/v1/auth/login", map[string]string{
		"email": "admin@sd.test", "password": "wrong",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@sd.test", role.RoleAgent)
	session := f.login(t, "a@sd.test")

	if rec := f.do(t, "POST", "/api/v1/auth/logout", nil, session); rec.Code != http.StatusNoContent {
		t.Fatalf("first logout: %d", rec.Code)
	}
	// Session is gone now.
	if rec := f.do(t, "POST", "/api/v1/admin/notify", map[string]string{"target": "agent", "text": "x"}, session); rec.Code != http.StatusUnauthorized {
		t.Errorf("request with revoked session = %d, want 401", rec.Code)
	}
	// Logging out again is still a 204.
	if rec := f.do(t, "POST", "/api/v1/auth/logout", nil, session); rec.Code != http.StatusNoContent {
		t.Errorf("second logout: %d", rec.Code)
	}
}

func TestOnboard_ConsumesTokenOnce(t *testing.T) {
	f := newFixture(t)
	tok, err := f.tokens.Issue(context.Background(), role.RoleAgent, "seed", "first hire", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := f.do(t, "POST", "/api/v1/auth/onboard", map[string]string{
		"token": tok.Value, "email": "new@sd.test", "name": "New Agent", "password": "hunter22",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("onboard: %d body %s", rec.Code, rec.Body.String())
	}
	var p struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Role != "agent" {
		t.Errorf("onboarded role = %q, want the token's role", p.Role)
	}

	// The invited principal can log in.
	f.login(t, "new@sd.test")

	// Token is single-use.
	rec = f.do(t, "POST", "/api/v1/auth/onboard", map[string]string{
		"token": tok.Value, "email": "other@sd.test", "password": "hunter22",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("reused token = %d, want 401", rec.Code)
	}
}

func TestOnboard_UnknownToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "POST", "/api/v1/auth/onboard", map[string]string{
		"token": "nope", "email": "x@sd.test", "password": "hunter22",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAdminRoutes_RoleGated(t *testing.T) {
	f := newFixture(t)
	f.register(t, "admin@sd.test", role.RoleAdmin)
	f.register(t, "agent@sd.test", role.RoleAgent)
	adminSession := f.login(t, "admin@sd.test")
	agentSession := f.login(t, "agent@sd.test")

	issueBody := map[string]any{"role": "agent", "description": "hire"}

	if rec := f.do(t, "POST", "/api/v1/admin/tokens", issueBody, agentSession); rec.Code != http.StatusForbidden {
		t.Errorf("agent issuing token = %d, want 403", rec.Code)
	}
	if rec := f.do(t, "POST", "/api/v1/admin/tokens", issueBody, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous issuing token = %d, want 401", rec.Code)
	}

	rec := f.do(t, "POST", "/api/v1/admin/tokens", issueBody, adminSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin issuing token = %d body %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &issued); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(issued.Value) != 64 {
		t.Errorf("issued value length = %d, want the full 64-char value", len(issued.Value))
	}

	// Listing never shows the full value again.
	rec = f.do(t, "GET", "/api/v1/admin/tokens", nil, adminSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tokens: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), issued.Value) {
		t.Error("token listing must not contain the full value")
	}
	if !strings.Contains(rec.Body.String(), issued.Value[:8]) {
		t.Error("token listing should contain the redacted prefix")
	}

	if rec := f.do(t, "POST", "/api/v1/admin/tokens/"+issued.ID+"/disable", nil, adminSession); rec.Code != http.StatusNoContent {
		t.Errorf("disable = %d", rec.Code)
	}
	if rec := f.do(t, "POST", "/api/v1/admin/tokens/missing/disable", nil, adminSession); rec.Code != http.StatusNotFound {
		t.Errorf("disable missing = %d, want 404", rec.Code)
	}
}

func TestNotify_RoleTableGating(t *testing.T) {
	f := newFixture(t)
	f.register(t, "sup@sd.test", role.RoleSupervisor)
	f.register(t, "agent@sd.test", role.RoleAgent)
	supSession := f.login(t, "sup@sd.test")
	agentSession := f.login(t, "agent@sd.test")

	// Supervisors may notify agents without being admins.
	rec := f.do(t, "POST", "/api/v1/admin/notify", map[string]string{"target": "agent", "text": "stand-up"}, supSession)
	if rec.Code != http.StatusCreated {
		t.Errorf("supervisor notify agents = %d body %s", rec.Code, rec.Body.String())
	}
	// But not everyone.
	rec = f.do(t, "POST", "/api/v1/admin/notify", map[string]string{"target": "all", "text": "x"}, supSession)
	if rec.Code != http.StatusForbidden {
		t.Errorf("supervisor notify all = %d, want 403", rec.Code)
	}
	// Agents are receive-only.
	rec = f.do(t, "POST", "/api/v1/admin/notify", map[string]string{"target": "agent", "text": "x"}, agentSession)
	if rec.Code != http.StatusForbidden {
		t.Errorf("agent notify = %d, want 403", rec.Code)
	}
}

func TestRevokePrincipalSessions(t *testing.T) {
	f := newFixture(t)
	f.register(t, "admin@sd.test", role.RoleAdmin)
	agentID := f.register(t, "agent@sd.test", role.RoleAgent)
	adminSession := f.login(t, "admin@sd.test")
	agentSession := f.login(t, "agent@sd.test")

	rec := f.do(t, "DELETE", "/api/v1/admin/principals/"+agentID+"/sessions?deactivate=true", nil, adminSession)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("revoke = %d", rec.Code)
	}

	// The agent's session stopped working immediately.
	rec = f.do(t, "POST", "/api/v1/auth/logout", nil, agentSession)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout after revoke: %d", rec.Code)
	}
	if _, err := f.sessions.Validate(context.Background(), agentSession); err == nil {
		t.Error("revoked session should not validate")
	}
	// Deactivation also blocks new logins.
	lrec := f.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": "agent@sd.test", "password": "hunter22"}, "")
	if lrec.Code != http.StatusUnauthorized {
		t.Errorf("login after deactivate = %d, want 401", lrec.Code)
	}
}

func TestEventsStream_RequiresSession(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "GET", "/api/v1/events", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous events stream = %d, want 401", rec.Code)
	}
}

func TestEventsStream_DeliversBroadcast(t *testing.T) {
	f := newFixture(t)
	f.register(t, "agent@sd.test", role.RoleAgent)
	f.register(t, "sup@sd.test", role.RoleSupervisor)
	agentSession := f.login(t, "agent@sd.test")
	supSession := f.login(t, "sup@sd.test")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+agentSession)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		f.router.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscription to land before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for len(f.registry.Subscribers(role.RoleAgent)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	nrec := f.do(t, "POST", "/api/v1/admin/notify", map[string]string{"target": "agent", "text": "hello agents"}, supSession)
	if nrec.Code != http.StatusCreated {
		t.Fatalf("notify: %d", nrec.Code)
	}
	// Give the writer loop a moment to flush, then disconnect.
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not return after disconnect")
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: notice") {
		t.Errorf("stream body = %q, want a notice event", body)
	}
	if !strings.Contains(body, "hello agents") {
		t.Errorf("stream body = %q, want the notice text", body)
	}
}
