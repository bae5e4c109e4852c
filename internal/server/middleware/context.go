package middleware

import (
	"context"

	"supportdesk/internal/role"
)

type contextKey struct{ name string }

var (
	principalIDKey = contextKey{"principal_id"}
	roleKey        = contextKey{"role"}
	sessionIDKey   = contextKey{"session_id"}
)

// WithIdentity returns a context carrying the authenticated principal's id,
// role, and session id. Handlers read these via GetPrincipalID, GetRole,
// GetSessionID.
func WithIdentity(ctx context.Context, principalID string, r role.Role, sessionID string) context.Context {
	ctx = context.WithValue(ctx, principalIDKey, principalID)
	ctx = context.WithValue(ctx, roleKey, r)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetPrincipalID returns the principal id from context and true if set.
func GetPrincipalID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(principalIDKey).(string)
	return v, ok
}

// GetRole returns the principal's role from context and true if set.
func GetRole(ctx context.Context) (role.Role, bool) {
	v, ok := ctx.Value(roleKey).(role.Role)
	return v, ok
}

// GetSessionID returns the session id from context and true if set.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}
