// Package handler exposes the operator broadcast endpoint. Authorization
// follows the role notification table, not a single admin gate: supervisors
// may notify agents, only admins may notify everyone.
package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"supportdesk/internal/audit"
	"supportdesk/internal/notify"
	"supportdesk/internal/server/httpx"
	"supportdesk/internal/server/middleware"
)

// NotifyHandler serves the broadcast endpoint.
type NotifyHandler struct {
	notifier *notify.Service
	audit    audit.AuditLogger
}

// NewNotifyHandler wires the broadcast endpoint. auditLogger may be nil.
func NewNotifyHandler(notifier *notify.Service, auditLogger audit.AuditLogger) *NotifyHandler {
	return &NotifyHandler{notifier: notifier, audit: auditLogger}
}

// Register mounts the endpoint on the authenticated router.
func (h *NotifyHandler) Register(r *mux.Router) {
	r.HandleFunc("/admin/notify", h.Announce).Methods(http.MethodPost)
}

type announceRequest struct {
	Target string `json:"target"` // role name or "all"
	Text   string `json:"text"`
}

// Announce broadcasts a notice to the target partition(s). The response
// reports acceptance of the broadcast, never per-subscriber delivery.
func (h *NotifyHandler) Announce(w http.ResponseWriter, r *http.Request) {
	var req announceRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		httpx.Error(w, http.StatusBadRequest, "text is required")
		return
	}
	senderID, _ := middleware.GetPrincipalID(r.Context())
	senderRole, ok := middleware.GetRole(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing or invalid session")
		return
	}

	notice, err := h.notifier.Announce(r.Context(), senderRole, senderID, req.Target, req.Text)
	if err != nil {
		if errors.Is(err, notify.ErrNotAuthorized) {
			httpx.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		httpx.Error(w, http.StatusBadRequest, "unknown target")
		return
	}
	if h.audit != nil {
		h.audit.LogEvent(r.Context(), senderID, audit.ActionBroadcast, audit.ResourceNotice, req.Target)
	}
	httpx.JSON(w, http.StatusCreated, notice)
}
