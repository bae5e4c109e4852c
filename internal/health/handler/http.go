// Package handler exposes liveness and readiness probes for Kubernetes,
// load balancers, and CI.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"supportdesk/internal/server/httpx"
)

// Pinger is the storage liveness seam; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves /healthz (process is up) and /readyz (storage reachable).
type Handler struct {
	pinger Pinger
}

// New returns a health handler. pinger may be nil when the server runs on
// in-memory storage; readiness then reduces to liveness.
func New(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

// Register mounts the probe routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.Live).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.Ready).Methods(http.MethodGet)
}

// Live reports that the process is serving requests.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the server can do useful work. With a storage
// backend configured it pings it; 503 tells the balancer to hold traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			httpx.Error(w, http.StatusServiceUnavailable, "storage unreachable")
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
