// Server entrypoint: loads config, wires storage, sessions, tokens, the push
// registry, and telemetry, then serves the HTTP API until SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"supportdesk/internal/audit"
	auditrepo "supportdesk/internal/audit/repository"
	"supportdesk/internal/config"
	"supportdesk/internal/db"
	identityrepo "supportdesk/internal/identity/repository"
	identityservice "supportdesk/internal/identity/service"
	"supportdesk/internal/notify"
	"supportdesk/internal/push"
	"supportdesk/internal/role"
	"supportdesk/internal/security"
	"supportdesk/internal/server"
	"supportdesk/internal/server/middleware"
	sessionrepo "supportdesk/internal/session/repository"
	sessionservice "supportdesk/internal/session/service"
	"supportdesk/internal/telemetry"
	"supportdesk/internal/telemetry/otel"
	"supportdesk/internal/telemetry/producer"
	tokenrepo "supportdesk/internal/token/repository"
	tokenservice "supportdesk/internal/token/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "supportdesk", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	var database *sql.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer database.Close()
	}

	var sessRepo sessionrepo.Repository
	switch cfg.SessionBackend {
	case "postgres":
		if database == nil {
			log.Fatal("SESSION_BACKEND=postgres requires DATABASE_URL")
		}
		sessRepo = sessionrepo.NewPostgresRepository(database)
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		sessRepo = sessionrepo.NewRedisRepository(client)
	default:
		sessRepo = sessionrepo.NewMemoryRepository()
	}

	var (
		identRepo identityrepo.Repository
		tokRepo   tokenrepo.Repository
		audRepo   auditrepo.Repository
	)
	if database != nil {
		identRepo = identityrepo.NewPostgresRepository(database)
		tokRepo = tokenrepo.NewPostgresRepository(database)
		audRepo = auditrepo.NewPostgresRepository(database)
	} else {
		// Dev mode: everything in memory, gone on restart.
		identRepo = identityrepo.NewMemoryRepository()
		tokRepo = tokenrepo.NewMemoryRepository()
		audRepo = auditrepo.NewMemoryRepository()
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	directory := identityservice.NewDirectory(identRepo, hasher)
	sessions := sessionservice.NewService(sessRepo, directory, cfg.SessionTTLDuration())
	tokens := tokenservice.NewIssuer(tokRepo)

	auditLogger := audit.NewLogger(audRepo, func(ctx context.Context) string {
		ip, _ := middleware.GetClientIP(ctx)
		return ip
	})

	// The registry needs the notifier's notices for catch-up replay, and the
	// notifier broadcasts through the registry. Late-bind the snapshot side.
	var notifier *notify.Service
	registry := push.NewRegistry(func(r role.Role, subscriberID string) []push.Event {
		return notifier.Snapshot(r, subscriberID)
	})
	notifier = notify.NewService(registry)

	emitters := telemetry.Fanout{otel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
	}

	go sessionservice.NewSweeper(sessions, cfg.SweepInterval()).Run(ctx)
	go push.NewHeartbeater(registry, cfg.HeartbeatPeriod()).Run(ctx)

	deps := server.Deps{
		Directory:    directory,
		Sessions:     sessions,
		Tokens:       tokens,
		Registry:     registry,
		Notifier:     notifier,
		Audit:        auditLogger,
		Emitter:      emitters,
		CookieSecure: cfg.CookieSecure,
		PushBuffer:   cfg.PushBufferSize,
	}
	if database != nil {
		deps.Pinger = database
	}
	handler := server.NewRouter(deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	cancel()

	// Give in-flight async telemetry emits a chance to land before the
	// exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("http server stopped")
}
