package service

import (
	"context"
	"log"
	"time"
)

// Sweeper runs SweepExpired on a fixed period until its context is
// cancelled. One of the two background loops the server owns (the other is
// the push heartbeat).
type Sweeper struct {
	service  *Service
	interval time.Duration
}

// NewSweeper returns a sweeper for service firing every interval.
func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 2 * time.Hour
	}
	return &Sweeper{service: service, interval: interval}
}

// Run blocks, sweeping on every tick, until ctx is cancelled. Sweep errors
// are logged and the loop keeps going; a failed pass just defers cleanup to
// the next tick or to lazy expiry.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := w.service.SweepExpired(ctx)
			if err != nil {
				log.Printf("session: sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("session: swept %d expired sessions", removed)
			}
		}
	}
}
