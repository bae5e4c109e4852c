// Package handler serves the long-lived event stream endpoints.
package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"supportdesk/internal/push"
	"supportdesk/internal/push/sse"
	"supportdesk/internal/push/ws"
	"supportdesk/internal/server/middleware"
)

// EventsHandler registers subscriber channels for the authenticated
// principal's role and holds the connection until a terminal signal.
type EventsHandler struct {
	registry *push.Registry
	buffer   int
}

// NewEventsHandler wires the stream endpoints. buffer is the per-connection
// pending event queue size.
func NewEventsHandler(registry *push.Registry, buffer int) *EventsHandler {
	return &EventsHandler{registry: registry, buffer: buffer}
}

// Register mounts the endpoints on the authenticated router.
func (h *EventsHandler) Register(r *mux.Router) {
	r.HandleFunc("/events", h.StreamSSE).Methods(http.MethodGet)
	r.HandleFunc("/events/ws", h.StreamWS).Methods(http.MethodGet)
}

// StreamSSE serves the Server-Sent Events stream. The channel lives in the
// registry for exactly the duration of this request; any terminal signal
// converges on the same unregister path.
func (h *EventsHandler) StreamSSE(w http.ResponseWriter, r *http.Request) {
	principalID, _ := middleware.GetPrincipalID(r.Context())
	principalRole, ok := middleware.GetRole(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ch := sse.NewChannel(h.buffer)
	h.registry.Register(principalRole, principalID, ch)
	reason := ch.Serve(w, r)
	h.registry.Unregister(principalRole, principalID)
	log.Printf("push: sse stream for %s/%s ended: %s", principalRole, principalID, reason)
}

// StreamWS serves the websocket stream with the same lifecycle as SSE.
func (h *EventsHandler) StreamWS(w http.ResponseWriter, r *http.Request) {
	principalID, _ := middleware.GetPrincipalID(r.Context())
	principalRole, ok := middleware.GetRole(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		log.Printf("push: ws upgrade for %s failed: %v", principalID, err)
		return
	}
	ch := ws.NewChannel(conn, h.buffer)
	h.registry.Register(principalRole, principalID, ch)
	reason := ch.Serve(r.Context())
	h.registry.Unregister(principalRole, principalID)
	log.Printf("push: ws stream for %s/%s ended: %s", principalRole, principalID, reason)
}
