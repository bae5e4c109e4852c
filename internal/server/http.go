// Package server assembles the HTTP surface: router, middleware chain, and
// the feature handlers.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"supportdesk/internal/audit"
	healthhandler "supportdesk/internal/health/handler"
	identityhandler "supportdesk/internal/identity/handler"
	identityservice "supportdesk/internal/identity/service"
	"supportdesk/internal/notify"
	notifyhandler "supportdesk/internal/notify/handler"
	"supportdesk/internal/push"
	pushhandler "supportdesk/internal/push/handler"
	"supportdesk/internal/role"
	"supportdesk/internal/server/middleware"
	sessionhandler "supportdesk/internal/session/handler"
	sessionservice "supportdesk/internal/session/service"
	"supportdesk/internal/telemetry"
	tokenhandler "supportdesk/internal/token/handler"
	tokenservice "supportdesk/internal/token/service"
)

// Deps holds the services the HTTP surface is built from. Audit and Emitter
// may be nil; the handlers then skip those side channels.
type Deps struct {
	Directory *identityservice.Directory
	Sessions  *sessionservice.Service
	Tokens    *tokenservice.Issuer
	Registry  *push.Registry
	Notifier  *notify.Service
	Audit     audit.AuditLogger
	Emitter   telemetry.EventEmitter
	// Pinger backs the readiness probe; nil when storage is in-memory.
	Pinger healthhandler.Pinger

	// CookieSecure marks the session cookie Secure; on behind TLS.
	CookieSecure bool
	// PushBuffer is the per-connection pending event queue size.
	PushBuffer int
}

// NewRouter builds the full route table:
//
//	POST   /api/v1/auth/login
//	POST   /api/v1/auth/logout
//	POST   /api/v1/auth/onboard
//	GET    /api/v1/events                          (session)
//	GET    /api/v1/events/ws                       (session)
//	POST   /api/v1/admin/notify                    (session, role table)
//	POST   /api/v1/admin/tokens                    (session, admin)
//	GET    /api/v1/admin/tokens                    (session, admin)
//	POST   /api/v1/admin/tokens/{id}/disable       (session, admin)
//	POST   /api/v1/admin/tokens/{id}/regenerate    (session, admin)
//	DELETE /api/v1/admin/principals/{id}/sessions  (session, admin)
//	GET    /healthz
//	GET    /readyz
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recover, middleware.ClientIP)

	healthhandler.New(deps.Pinger).Register(r)

	api := r.PathPrefix("/api/v1").Subrouter()
	identityhandler.NewAuthHandler(deps.Directory, deps.Sessions, deps.Tokens, deps.Audit, deps.Emitter, deps.CookieSecure).Register(api)

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Auth(deps.Sessions, deps.Directory))
	pushhandler.NewEventsHandler(deps.Registry, deps.PushBuffer).Register(authed)
	notifyhandler.NewNotifyHandler(deps.Notifier, deps.Audit).Register(authed)

	admin := authed.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(role.RoleAdmin))
	tokenhandler.NewTokenHandler(deps.Tokens, deps.Audit).Register(admin)
	sessionhandler.NewSessionAdminHandler(deps.Sessions, deps.Directory, deps.Audit).Register(admin)

	return r
}
