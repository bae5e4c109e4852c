package service

import (
	"context"
	"testing"

	identityrepo "supportdesk/internal/identity/repository"
	"supportdesk/internal/role"
	"supportdesk/internal/security"
)

func newTestDirectory() *Directory {
	return NewDirectory(identityrepo.NewMemoryRepository(), security.NewHasher(4))
}

func TestDirectory_RegisterAndVerify(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()

	p, err := d.Register(ctx, "Agent@Example.com", "Agent One", "secret123", role.RoleAgent)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Email != "agent@example.com" {
		t.Errorf("email should be normalized, got %q", p.Email)
	}
	if !p.Active {
		t.Error("registered principal should be active")
	}

	got, err := d.VerifyPassword(ctx, "agent@example.com", "secret123")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("VerifyPassword returned principal %q, want %q", got.ID, p.ID)
	}
}

func TestDirectory_VerifyWrongPassword(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()
	if _, err := d.Register(ctx, "a@example.com", "", "secret123", role.RoleAgent); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := d.VerifyPassword(ctx, "a@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := d.VerifyPassword(ctx, "missing@example.com", "secret123"); err != ErrInvalidCredentials {
		t.Errorf("unknown email: want ErrInvalidCredentials, got %v", err)
	}
}

func TestDirectory_DuplicateEmail(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()
	if _, err := d.Register(ctx, "a@example.com", "", "secret123", role.RoleAgent); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := d.Register(ctx, "a@example.com", "", "other456", role.RoleAdmin); err != ErrEmailRegistered {
		t.Errorf("duplicate email: want ErrEmailRegistered, got %v", err)
	}
}

func TestDirectory_DeactivateBlocksLogin(t *testing.T) {
	d := newTestDirectory()
	ctx := context.Background()
	p, err := d.Register(ctx, "a@example.com", "", "secret123", role.RoleSupervisor)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := d.Deactivate(ctx, p.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := d.VerifyPassword(ctx, "a@example.com", "secret123"); err != ErrInvalidCredentials {
		t.Errorf("deactivated principal: want ErrInvalidCredentials, got %v", err)
	}
	got, err := d.GetPrincipal(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPrincipal: %v", err)
	}
	if got == nil || got.Active {
		t.Error("principal should exist and be inactive")
	}
}
