package service

import (
	"context"
	"sync"
	"testing"
	"time"

	identitydomain "supportdesk/internal/identity/domain"
	"supportdesk/internal/role"
	sessionrepo "supportdesk/internal/session/repository"
)

type fakeDirectory struct {
	mu         sync.Mutex
	principals map[string]*identitydomain.Principal
}

func newFakeDirectory(ids ...string) *fakeDirectory {
	d := &fakeDirectory{principals: make(map[string]*identitydomain.Principal)}
	for _, id := range ids {
		d.principals[id] = &identitydomain.Principal{ID: id, Role: role.RoleAgent, Active: true}
	}
	return d
}

func (d *fakeDirectory) GetPrincipal(ctx context.Context, id string) (*identitydomain.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.principals[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (d *fakeDirectory) deactivate(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.principals[id]; ok {
		p.Active = false
	}
}

func TestService_CreateAndValidate(t *testing.T) {
	svc := NewService(sessionrepo.NewMemoryRepository(), newFakeDirectory("u1"), 4*time.Hour)
	ctx := context.Background()

	id, err := svc.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty id")
	}
	principal, err := svc.Validate(ctx, id)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if principal != "u1" {
		t.Errorf("Validate = %q, want u1", principal)
	}
}

func TestService_ValidateAbsentAndMalformed(t *testing.T) {
	svc := NewService(sessionrepo.NewMemoryRepository(), nil, time.Hour)
	ctx := context.Background()
	if _, err := svc.Validate(ctx, ""); err != ErrInvalidSession {
		t.Errorf("empty id: want ErrInvalidSession, got %v", err)
	}
	if _, err := svc.Validate(ctx, "no-such-session"); err != ErrInvalidSession {
		t.Errorf("absent id: want ErrInvalidSession, got %v", err)
	}
}

// Concrete TTL scenario: created at t0 with 4h TTL, valid at t0+3h59m,
// invalid and lazily deleted at t0+4h01m, invalidation afterwards a no-op.
func TestService_TTLScenario(t *testing.T) {
	repo := sessionrepo.NewMemoryRepository()
	svc := NewService(repo, newFakeDirectory("u1"), 4*time.Hour)
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }

	id, err := svc.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc.now = func() time.Time { return t0.Add(3*time.Hour + 59*time.Minute) }
	principal, err := svc.Validate(ctx, id)
	if err != nil {
		t.Fatalf("Validate before expiry: %v", err)
	}
	if principal != "u1" {
		t.Errorf("Validate = %q, want u1", principal)
	}

	svc.now = func() time.Time { return t0.Add(4*time.Hour + time.Minute) }
	if _, err := svc.Validate(ctx, id); err != ErrInvalidSession {
		t.Fatalf("Validate after expiry: want ErrInvalidSession, got %v", err)
	}

	// Lazy expiry removed the entry from the table.
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("expired session should have been deleted by Validate")
	}

	if err := svc.Invalidate(ctx, id); err != nil {
		t.Errorf("Invalidate of a gone session should be a silent no-op, got %v", err)
	}
}

func TestService_ExpiryBoundaryIsInclusive(t *testing.T) {
	svc := NewService(sessionrepo.NewMemoryRepository(), nil, time.Hour)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }
	id, _ := svc.Create(ctx, "u1")

	// A session is valid only while now < expiresAt.
	svc.now = func() time.Time { return t0.Add(time.Hour) }
	if _, err := svc.Validate(ctx, id); err != ErrInvalidSession {
		t.Errorf("at exact expiry instant: want ErrInvalidSession, got %v", err)
	}
}

func TestService_InvalidateIdempotent(t *testing.T) {
	svc := NewService(sessionrepo.NewMemoryRepository(), nil, time.Hour)
	ctx := context.Background()
	id, _ := svc.Create(ctx, "u1")

	if err := svc.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := svc.Invalidate(ctx, id); err != nil {
		t.Errorf("second Invalidate should be a no-op, got %v", err)
	}
	if _, err := svc.Validate(ctx, id); err != ErrInvalidSession {
		t.Errorf("Validate after Invalidate: want ErrInvalidSession, got %v", err)
	}
}

func TestService_InvalidateAllForPrincipal(t *testing.T) {
	svc := NewService(sessionrepo.NewMemoryRepository(), newFakeDirectory("u1", "u2"), time.Hour)
	ctx := context.Background()

	var u1Sessions []string
	for i := 0; i < 3; i++ {
		id, err := svc.Create(ctx, "u1")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		u1Sessions = append(u1Sessions, id)
	}
	other, _ := svc.Create(ctx, "u2")

	if err := svc.InvalidateAllForPrincipal(ctx, "u1"); err != nil {
		t.Fatalf("InvalidateAllForPrincipal: %v", err)
	}
	for _, id := range u1Sessions {
		if _, err := svc.Validate(ctx, id); err != ErrInvalidSession {
			t.Errorf("session %q should be invalid after revoke-all, got %v", id, err)
		}
	}
	if _, err := svc.Validate(ctx, other); err != nil {
		t.Errorf("unrelated principal's session should survive, got %v", err)
	}
}

func TestService_PrincipalIneligible(t *testing.T) {
	dir := newFakeDirectory("u1")
	svc := NewService(sessionrepo.NewMemoryRepository(), dir, time.Hour)
	ctx := context.Background()
	id, _ := svc.Create(ctx, "u1")

	dir.deactivate("u1")
	if _, err := svc.Validate(ctx, id); err != ErrPrincipalIneligible {
		t.Errorf("deactivated principal: want ErrPrincipalIneligible, got %v", err)
	}
}

func TestService_SweepExpired(t *testing.T) {
	svc := NewService(sessionrepo.NewMemoryRepository(), nil, time.Hour)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }

	expired1, _ := svc.Create(ctx, "u1")
	expired2, _ := svc.Create(ctx, "u2")

	svc.now = func() time.Time { return t0.Add(30 * time.Minute) }
	live, _ := svc.Create(ctx, "u3")

	svc.now = func() time.Time { return t0.Add(70 * time.Minute) }
	removed, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	for _, id := range []string{expired1, expired2} {
		if _, err := svc.Validate(ctx, id); err != ErrInvalidSession {
			t.Errorf("swept session should be invalid, got %v", err)
		}
	}
	if principal, err := svc.Validate(ctx, live); err != nil || principal != "u3" {
		t.Errorf("live session should survive sweep: %q, %v", principal, err)
	}
}

func TestService_ConcurrentValidateAndChurn(t *testing.T) {
	svc := NewService(sessionrepo.NewMemoryRepository(), nil, time.Hour)
	ctx := context.Background()

	id, err := svc.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := svc.Validate(ctx, id); err != nil {
					t.Errorf("Validate: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				other, err := svc.Create(ctx, "uX")
				if err != nil {
					t.Errorf("Create: %v", err)
					return
				}
				if err := svc.Invalidate(ctx, other); err != nil {
					t.Errorf("Invalidate: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
