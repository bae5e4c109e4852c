package push

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the registry's OTel counters. Instrument constructors return
// usable no-op instruments on error, so a partial failure only costs data.
type metrics struct {
	delivered  metric.Int64Counter
	failed     metric.Int64Counter
	pruned     metric.Int64Counter
	heartbeats metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter("supportdesk/push")
	m := &metrics{}
	var err error
	if m.delivered, err = meter.Int64Counter("push.events.delivered",
		metric.WithDescription("Events accepted by a channel transport")); err != nil {
		log.Printf("push: metric init: %v", err)
	}
	if m.failed, err = meter.Int64Counter("push.events.failed",
		metric.WithDescription("Event sends rejected by a channel transport")); err != nil {
		log.Printf("push: metric init: %v", err)
	}
	if m.pruned, err = meter.Int64Counter("push.channels.pruned",
		metric.WithDescription("Channels removed after a failed send")); err != nil {
		log.Printf("push: metric init: %v", err)
	}
	if m.heartbeats, err = meter.Int64Counter("push.heartbeats",
		metric.WithDescription("Heartbeat passes over all partitions")); err != nil {
		log.Printf("push: metric init: %v", err)
	}
	return m
}

func roleAttr(roleName string) metric.AddOption {
	return metric.WithAttributes(attribute.String("role", roleName))
}

func (m *metrics) addDelivered(ctx context.Context, roleName string) {
	m.delivered.Add(ctx, 1, roleAttr(roleName))
}

func (m *metrics) addFailed(ctx context.Context, roleName string) {
	m.failed.Add(ctx, 1, roleAttr(roleName))
}

func (m *metrics) addPruned(ctx context.Context, roleName string) {
	m.pruned.Add(ctx, 1, roleAttr(roleName))
}

func (m *metrics) addHeartbeat(ctx context.Context) {
	m.heartbeats.Add(ctx, 1)
}
