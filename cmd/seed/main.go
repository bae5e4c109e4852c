// seed bootstraps a deployment: it creates the first admin principal and
// prints onboarding tokens for one supervisor and one agent. The admin
// password and the token values are printed exactly once; store them.
// Idempotent: exits without changes if the admin email already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"supportdesk/internal/config"
	"supportdesk/internal/db"
	identityrepo "supportdesk/internal/identity/repository"
	identityservice "supportdesk/internal/identity/service"
	"supportdesk/internal/role"
	"supportdesk/internal/security"
	tokenrepo "supportdesk/internal/token/repository"
	tokenservice "supportdesk/internal/token/service"
)

const (
	adminEmail = "admin@example.com"
	adminName  = "Bootstrap Admin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; seed needs a database to write to")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	principals := identityrepo.NewPostgresRepository(database)
	directory := identityservice.NewDirectory(principals, security.NewHasher(cfg.BcryptCost))
	issuer := tokenservice.NewIssuer(tokenrepo.NewPostgresRepository(database))

	if existing, err := principals.GetByEmail(ctx, adminEmail); err != nil {
		log.Fatalf("seed: lookup: %v", err)
	} else if existing != nil {
		log.Printf("seed: admin already present, nothing to do")
		return
	}

	password := security.NewTokenValue()
	admin, err := directory.Register(ctx, adminEmail, adminName, password, role.RoleAdmin)
	if err != nil {
		log.Fatalf("seed: admin: %v", err)
	}

	supTok, err := issuer.Issue(ctx, role.RoleSupervisor, admin.ID, "initial supervisor onboarding", 0)
	if err != nil {
		log.Fatalf("seed: supervisor token: %v", err)
	}
	agentTok, err := issuer.Issue(ctx, role.RoleAgent, admin.ID, "initial agent onboarding", 0)
	if err != nil {
		log.Fatalf("seed: agent token: %v", err)
	}

	fmt.Println("Bootstrap credentials (shown once, not recoverable):")
	fmt.Printf("  admin email:     %s\n", adminEmail)
	fmt.Printf("  admin password:  %s\n", password)
	fmt.Printf("  supervisor token: %s\n", supTok.Value)
	fmt.Printf("  agent token:      %s\n", agentTok.Value)
}
