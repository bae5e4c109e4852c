// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; required for the postgres session
	// backend and for durable token/audit storage.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis URI; required for the redis session backend.
	RedisURL string `mapstructure:"REDIS_URL"`
	// SessionBackend selects the session store: memory, postgres, or redis.
	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	// SessionTTL is the fixed session lifetime (e.g. "4h"). Sessions never slide.
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// SessionSweepInterval is the period of the background expiry sweep (e.g. "2h").
	SessionSweepInterval string `mapstructure:"SESSION_SWEEP_INTERVAL"`
	// HeartbeatInterval is the period of the push-channel liveness ping (e.g. "30s").
	HeartbeatInterval string `mapstructure:"HEARTBEAT_INTERVAL"`
	// PushBufferSize is the per-channel outbound event queue length; a full
	// queue counts as a failed send and the channel is pruned.
	PushBufferSize int `mapstructure:"PUSH_BUFFER_SIZE"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// CookieSecure sets the Secure attribute on the session cookie. Enable
	// for any deployment served over TLS.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint for traces, metrics,
	// and logs (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Telemetry (optional). When Kafka brokers are set, the server emits
	// ops events to Kafka for the worker to forward.
	// TelemetryKafkaBrokers is a comma-separated broker list (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for ops events (default sd-telemetry).
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL the telemetry worker pushes logs to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("SESSION_TTL", "4h")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "2h")
	v.SetDefault("HEARTBEAT_INTERVAL", "30s")
	v.SetDefault("PUSH_BUFFER_SIZE", 64)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "sd-telemetry")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "sd-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	switch cfg.SessionBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: SESSION_BACKEND=postgres requires DATABASE_URL")
		}
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("config: SESSION_BACKEND=redis requires REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("config: unknown SESSION_BACKEND %q (memory, postgres, redis)", cfg.SessionBackend)
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.PushBufferSize <= 0 {
		cfg.PushBufferSize = 64
	}

	return &cfg, nil
}

// SessionTTLDuration parses SessionTTL as a time.Duration. Returns 4h if unset or invalid.
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 4 * time.Hour
	}
	return d
}

// SweepInterval parses SessionSweepInterval. Returns 2h if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.SessionSweepInterval)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// HeartbeatPeriod parses HeartbeatInterval. Returns 30s if unset or invalid.
func (c *Config) HeartbeatPeriod() time.Duration {
	d, err := time.ParseDuration(c.HeartbeatInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
