// Package handler exposes the admin session revocation endpoint.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"supportdesk/internal/audit"
	identityservice "supportdesk/internal/identity/service"
	"supportdesk/internal/server/httpx"
	"supportdesk/internal/server/middleware"
	sessionservice "supportdesk/internal/session/service"
)

// SessionAdminHandler revokes principals' sessions.
type SessionAdminHandler struct {
	sessions  *sessionservice.Service
	directory *identityservice.Directory
	audit     audit.AuditLogger
}

// NewSessionAdminHandler wires the revocation endpoint. auditLogger may be
// nil.
func NewSessionAdminHandler(sessions *sessionservice.Service, directory *identityservice.Directory, auditLogger audit.AuditLogger) *SessionAdminHandler {
	return &SessionAdminHandler{sessions: sessions, directory: directory, audit: auditLogger}
}

// Register mounts the endpoint on the admin router.
func (h *SessionAdminHandler) Register(r *mux.Router) {
	r.HandleFunc("/principals/{id}/sessions", h.RevokeAll).Methods(http.MethodDelete)
}

// RevokeAll invalidates every session of the principal, taking effect on
// their next validation. With ?deactivate=true the principal is also marked
// inactive, which blocks new logins.
func (h *SessionAdminHandler) RevokeAll(w http.ResponseWriter, r *http.Request) {
	principalID := mux.Vars(r)["id"]

	if r.URL.Query().Get("deactivate") == "true" {
		if err := h.directory.Deactivate(r.Context(), principalID); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	if err := h.sessions.InvalidateAllForPrincipal(r.Context(), principalID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	actor, _ := middleware.GetPrincipalID(r.Context())
	if h.audit != nil {
		h.audit.LogEvent(r.Context(), actor, audit.ActionRevokeAll, audit.ResourceSession, principalID)
	}
	w.WriteHeader(http.StatusNoContent)
}
