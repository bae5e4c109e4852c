// Package handler exposes the authentication endpoints: login, logout, and
// token onboarding.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"supportdesk/internal/audit"
	identitydomain "supportdesk/internal/identity/domain"
	identityservice "supportdesk/internal/identity/service"
	"supportdesk/internal/role"
	"supportdesk/internal/server/httpx"
	"supportdesk/internal/server/middleware"
	sessionservice "supportdesk/internal/session/service"
	"supportdesk/internal/telemetry"
	tokendomain "supportdesk/internal/token/domain"
	tokenservice "supportdesk/internal/token/service"
)

// TokenConsumer is the slice of the token issuer the onboarding flow needs.
type TokenConsumer interface {
	Consume(ctx context.Context, value string) (*tokendomain.Token, error)
}

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	directory    *identityservice.Directory
	sessions     *sessionservice.Service
	tokens       TokenConsumer
	audit        audit.AuditLogger
	emitter      telemetry.EventEmitter
	cookieSecure bool
}

// NewAuthHandler wires the authentication endpoints. audit and emitter may
// be nil.
func NewAuthHandler(directory *identityservice.Directory, sessions *sessionservice.Service, tokens TokenConsumer, auditLogger audit.AuditLogger, emitter telemetry.EventEmitter, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		directory:    directory,
		sessions:     sessions,
		tokens:       tokens,
		audit:        auditLogger,
		emitter:      emitter,
		cookieSecure: cookieSecure,
	}
}

// Register mounts the endpoints on the public (unauthenticated) router.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/onboard", h.Onboard).Methods(http.MethodPost)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type principalResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type loginResponse struct {
	SessionID string            `json:"sessionId"`
	ExpiresIn int64             `json:"expiresIn"` // seconds
	Principal principalResponse `json:"principal"`
}

// Login verifies credentials, creates a session, and hands the opaque id
// back both in the body and as the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	p, err := h.directory.VerifyPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identityservice.ErrInvalidCredentials) {
			h.logEvent(r.Context(), "", audit.ActionLoginFailure, audit.ResourceSession, req.Email)
			httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	sessionID, err := h.sessions.Create(r.Context(), p.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logEvent(r.Context(), p.ID, audit.ActionLogin, audit.ResourceSession, "")
	h.emit(r.Context(), p, sessionID, "session_created")

	http.SetCookie(w, h.sessionCookie(sessionID, h.sessions.TTL()))
	httpx.JSON(w, http.StatusOK, loginResponse{
		SessionID: sessionID,
		ExpiresIn: int64(h.sessions.TTL().Seconds()),
		Principal: toPrincipalResponse(p),
	})
}

// Logout invalidates the presented session. Idempotent: an absent or
// already-dead session still yields 204, and the cookie is cleared either
// way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.ExtractSessionID(r)
	if sessionID != "" {
		if err := h.sessions.Invalidate(r.Context(), sessionID); err != nil {
			log.Printf("auth: logout invalidate: %v", err)
		}
		h.logEvent(r.Context(), "", audit.ActionLogout, audit.ResourceSession, "")
	}
	http.SetCookie(w, h.sessionCookie("", -time.Second))
	w.WriteHeader(http.StatusNoContent)
}

type onboardRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Onboard consumes a credential token, the single act it authorizes, and
// creates the invited principal with the token's role. The token is burned
// on the first successful consume; onboarding failures after that point do
// not resurrect it.
func (h *AuthHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	tok, err := h.tokens.Consume(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, tokenservice.ErrTokenNotFound),
			errors.Is(err, tokenservice.ErrTokenAlreadyConsumed),
			errors.Is(err, tokenservice.ErrTokenExpired):
			httpx.Error(w, http.StatusUnauthorized, "invalid token")
		default:
			httpx.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	tokenRole, err := role.Parse(tok.Role)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logEvent(r.Context(), "", audit.ActionConsume, audit.ResourceToken, tok.ID)

	p, err := h.directory.Register(r.Context(), req.Email, req.Name, req.Password, tokenRole)
	if err != nil {
		switch {
		case errors.Is(err, identityservice.ErrEmailRegistered):
			httpx.Error(w, http.StatusConflict, "email already registered")
		case errors.Is(err, identityservice.ErrInvalidCredentials):
			httpx.Error(w, http.StatusBadRequest, "email and password are required")
		default:
			httpx.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	h.emit(r.Context(), p, "", "principal_onboarded")
	httpx.JSON(w, http.StatusCreated, toPrincipalResponse(p))
}

func (h *AuthHandler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) logEvent(ctx context.Context, actorID, action, resource, metadata string) {
	if h.audit != nil {
		h.audit.LogEvent(ctx, actorID, action, resource, metadata)
	}
}

func (h *AuthHandler) emit(ctx context.Context, p *identitydomain.Principal, sessionID, eventType string) {
	ev := telemetry.NewEvent(eventType, "api")
	ev.PrincipalID = p.ID
	ev.SessionID = sessionID
	ev.Role = p.Role.String()
	telemetry.EmitAsync(h.emitter, ctx, ev)
}

func toPrincipalResponse(p *identitydomain.Principal) principalResponse {
	return principalResponse{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.Name,
		Role:  p.Role.String(),
	}
}
