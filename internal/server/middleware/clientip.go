package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

var clientIPKey = contextKey{"client_ip"}

// GetClientIP returns the client IP stashed by ClientIP and true if set.
func GetClientIP(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(clientIPKey).(string)
	return v, ok
}

// ClientIP records the requester's IP on the context so audit entries can
// carry it. The first X-Forwarded-For hop wins when a proxy set one;
// otherwise the peer address is used.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ""
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ip = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey, ip)))
	})
}
