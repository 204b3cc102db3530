// Package middleware provides HTTP middleware for the lmod-proxy API.
package middleware

import (
	"context"
	"net/http"

	"github.com/mitodl/lmod-proxy/internal/logger"
	"github.com/mitodl/lmod-proxy/pkg/htpasswd"
	"github.com/mitodl/lmod-proxy/pkg/metrics"
)

// Context key type for storing the authenticated principal
type contextKey string

const principalContextKey contextKey = "principal"

// unauthorizedBody is the fixed body sent with every 401 challenge.
const unauthorizedBody = "Could not verify your access level for that URL.\n" +
	"You have to login with proper credentials"

// PrincipalFromContext retrieves the authenticated username from the
// request context. Returns "" if the request did not pass through
// BasicAuth, which only happens on unprotected routes.
func PrincipalFromContext(ctx context.Context) string {
	principal, _ := ctx.Value(principalContextKey).(string)
	return principal
}

// ContextWithPrincipal returns a context carrying the given principal.
// Exposed for handler tests.
func ContextWithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// BasicAuth gates every request behind HTTP Basic authentication against
// the credential store. Requests without a valid credential pair are
// short-circuited with a 401 challenge; the downstream handler is never
// invoked. On success the principal is stored in the request context.
func BasicAuth(store *htpasswd.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				authFailed(w)
				return
			}

			if !store.CheckPassword(username, password) {
				// The attempted username is logged; the password never is.
				logger.Warn("invalid login", "user", username)
				metrics.IncAuthFailure()
				authFailed(w)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authFailed sends the 401 response that enables basic auth.
func authFailed(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Login Required"`)
	http.Error(w, unauthorizedBody, http.StatusUnauthorized)
}
