// Package middleware holds the HTTP session filter and its context plumbing.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	identitydomain "supportdesk/internal/identity/domain"
	sessionservice "supportdesk/internal/session/service"
)

// SessionCookie is the cookie carrying the opaque session id.
const SessionCookie = "sd_session"

const bearerPrefix = "bearer "

// SessionValidator is the slice of the session service the filter needs.
type SessionValidator interface {
	Validate(ctx context.Context, id string) (string, error)
}

// PrincipalSource resolves a principal id to its record, (nil, nil) when
// absent.
type PrincipalSource interface {
	GetPrincipal(ctx context.Context, id string) (*identitydomain.Principal, error)
}

// Auth returns the session filter: it accepts a session id from the
// Authorization header (Bearer) or the session cookie, validates it, and
// injects the principal's identity into the request context. Requests
// without a valid live session get 401; the response never distinguishes
// absent, expired, and revoked ids.
func Auth(sessions SessionValidator, principals PrincipalSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ExtractSessionID(r)
			if sessionID == "" {
				unauthorized(w)
				return
			}
			principalID, err := sessions.Validate(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, sessionservice.ErrInvalidSession) || errors.Is(err, sessionservice.ErrPrincipalIneligible) {
					unauthorized(w)
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			p, err := principals.GetPrincipal(r.Context(), principalID)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if p == nil || !p.Active {
				unauthorized(w)
				return
			}
			ctx := WithIdentity(r.Context(), p.ID, p.Role, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractSessionID returns the session id from the Authorization header or
// the session cookie, or "" when neither carries one. The header wins when
// both are present.
func ExtractSessionID(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		if token := strings.TrimSpace(v[len(bearerPrefix):]); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "missing or invalid session"})
}
