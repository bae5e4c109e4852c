package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"supportdesk/internal/role"
	tokenrepo "supportdesk/internal/token/repository"
)

func newTestIssuer() *Issuer {
	return NewIssuer(tokenrepo.NewMemoryRepository())
}

func TestIssuer_IssueAndValidate(t *testing.T) {
	iss := newTestIssuer()
	ctx := context.Background()

	tok, err := iss.Issue(ctx, role.RoleAdmin, "root", "bootstrap admin", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(tok.Value) != 64 {
		t.Errorf("token value length = %d, want 64", len(tok.Value))
	}
	if !tok.Active {
		t.Error("issued token should be active")
	}
	if tok.Role != "admin" {
		t.Errorf("role = %q, want admin", tok.Role)
	}

	got, err := iss.Validate(ctx, tok.Value)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != tok.ID {
		t.Errorf("Validate returned token %q, want %q", got.ID, tok.ID)
	}
}

func TestIssuer_IssueRejectsUnknownRole(t *testing.T) {
	iss := newTestIssuer()
	if _, err := iss.Issue(context.Background(), role.Role("root"), "x", "", 0); err == nil {
		t.Error("Issue should reject unknown roles")
	}
}

func TestIssuer_ValidateNotFound(t *testing.T) {
	iss := newTestIssuer()
	if _, err := iss.Validate(context.Background(), "nope"); err != ErrTokenNotFound {
		t.Errorf("want ErrTokenNotFound, got %v", err)
	}
}

func TestIssuer_Expiry(t *testing.T) {
	iss := newTestIssuer()
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return t0 }

	tok, err := iss.Issue(ctx, role.RoleAgent, "admin-1", "invite", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = func() time.Time { return t0.Add(2 * time.Hour) }
	if _, err := iss.Validate(ctx, tok.Value); err != ErrTokenExpired {
		t.Errorf("Validate after expiry: want ErrTokenExpired, got %v", err)
	}
	if _, err := iss.Consume(ctx, tok.Value); err != ErrTokenExpired {
		t.Errorf("Consume after expiry: want ErrTokenExpired, got %v", err)
	}
}

// Admin token lifecycle: issue, validate active, consume once, second
// consume rejected, validate after consumption not found.
func TestIssuer_SingleUseLifecycle(t *testing.T) {
	iss := newTestIssuer()
	ctx := context.Background()

	tok, err := iss.Issue(ctx, role.RoleAdmin, "root", "", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := iss.Validate(ctx, tok.Value); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	consumed, err := iss.Consume(ctx, tok.Value)
	if err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	if consumed.Active {
		t.Error("consumed token should be inactive")
	}
	if _, err := iss.Consume(ctx, tok.Value); err != ErrTokenAlreadyConsumed {
		t.Errorf("second Consume: want ErrTokenAlreadyConsumed, got %v", err)
	}
	if _, err := iss.Validate(ctx, tok.Value); err != ErrTokenNotFound {
		t.Errorf("Validate after consumption: want ErrTokenNotFound, got %v", err)
	}
}

func TestIssuer_ConcurrentConsume(t *testing.T) {
	iss := newTestIssuer()
	ctx := context.Background()
	tok, err := iss.Issue(ctx, role.RoleSupervisor, "root", "", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	const callers = 16
	results := make(chan error, callers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		go func() {
			start.Wait()
			_, err := iss.Consume(ctx, tok.Value)
			results <- err
		}()
	}
	start.Done()

	succeeded, alreadyConsumed := 0, 0
	for i := 0; i < callers; i++ {
		switch err := <-results; err {
		case nil:
			succeeded++
		case ErrTokenAlreadyConsumed:
			alreadyConsumed++
		default:
			t.Errorf("unexpected consume error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one concurrent Consume must succeed, got %d", succeeded)
	}
	if alreadyConsumed != callers-1 {
		t.Errorf("remaining callers should observe ErrTokenAlreadyConsumed, got %d", alreadyConsumed)
	}
}

func TestIssuer_Disable(t *testing.T) {
	iss := newTestIssuer()
	ctx := context.Background()
	tok, _ := iss.Issue(ctx, role.RoleAgent, "root", "", 0)

	if err := iss.Disable(ctx, tok.ID); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if err := iss.Disable(ctx, tok.ID); err != nil {
		t.Errorf("Disable should be idempotent, got %v", err)
	}
	if _, err := iss.Validate(ctx, tok.Value); err != ErrTokenNotFound {
		t.Errorf("Validate of disabled token: want ErrTokenNotFound, got %v", err)
	}
	if err := iss.Disable(ctx, "no-such-id"); err != ErrTokenNotFound {
		t.Errorf("Disable of missing token: want ErrTokenNotFound, got %v", err)
	}
}

func TestIssuer_Regenerate(t *testing.T) {
	iss := newTestIssuer()
	ctx := context.Background()
	old, _ := iss.Issue(ctx, role.RoleSupervisor, "root", "shift lead invite", 0)

	fresh, err := iss.Regenerate(ctx, old.ID, "admin-2")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if fresh.Role != old.Role {
		t.Errorf("regenerated role = %q, want %q", fresh.Role, old.Role)
	}
	if fresh.Description != old.Description {
		t.Errorf("regenerated description = %q, want %q", fresh.Description, old.Description)
	}
	if fresh.CreatedBy != "admin-2" {
		t.Errorf("regenerated creator = %q, want admin-2", fresh.CreatedBy)
	}
	if fresh.Value == old.Value {
		t.Error("regenerated token must carry a fresh value")
	}
	if _, err := iss.Validate(ctx, old.Value); err != ErrTokenNotFound {
		t.Errorf("old token should be disabled after regenerate, got %v", err)
	}
	if _, err := iss.Validate(ctx, fresh.Value); err != nil {
		t.Errorf("fresh token should validate, got %v", err)
	}
}

func TestIssuer_ListKeepsConsumedForAudit(t *testing.T) {
	iss := newTestIssuer()
	ctx := context.Background()
	tok, _ := iss.Issue(ctx, role.RoleAgent, "root", "", 0)
	if _, err := iss.Consume(ctx, tok.Value); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	list, err := iss.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List returned %d tokens, want 1 (records are kept for audit)", len(list))
	}
	if list[0].Active {
		t.Error("listed token should be inactive after consumption")
	}
}

func TestToken_Redacted(t *testing.T) {
	iss := newTestIssuer()
	tok, _ := iss.Issue(context.Background(), role.RoleAdmin, "root", "", 0)
	red := tok.Redacted()
	if !strings.HasPrefix(red, tok.Value[:8]) || !strings.HasSuffix(red, "…") {
		t.Errorf("Redacted() = %q, want 8-char prefix plus ellipsis", red)
	}
	if len([]rune(red)) != 9 {
		t.Errorf("Redacted() rune length = %d, want 9", len([]rune(red)))
	}
}
