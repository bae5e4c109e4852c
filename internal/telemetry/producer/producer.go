// Package producer defines the interface for publishing telemetry events
// to the message broker.
package producer

import (
	"context"

	"supportdesk/internal/telemetry"
)

// Producer publishes telemetry events. Callers use it best-effort: log and
// ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call
	// from a goroutine if needed.
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close releases resources (e.g. the Kafka writer). Safe to call if
	// already closed.
	Close() error
}
