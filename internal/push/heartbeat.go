package push

import (
	"context"
	"time"
)

// Heartbeater pings every registered channel on a fixed short period. One of
// the two background loops the server owns (the other is the session sweep).
type Heartbeater struct {
	registry *Registry
	interval time.Duration
}

// NewHeartbeater returns a heartbeater over registry firing every interval.
func NewHeartbeater(registry *Registry, interval time.Duration) *Heartbeater {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeater{registry: registry, interval: interval}
}

// Run blocks, pinging on every tick, until ctx is cancelled. A channel
// unregistered between ticks is skipped on the next pass; prune-on-failure
// inside Heartbeat handles the rest.
func (h *Heartbeater) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.registry.Heartbeat(ctx)
		}
	}
}
