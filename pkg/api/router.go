// Package api provides the lmod-proxy HTTP server.
//
// The server exposes the gradebook proxy endpoints behind HTTP basic
// authentication, plus unauthenticated health probes.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mitodl/lmod-proxy/internal/logger"
	"github.com/mitodl/lmod-proxy/pkg/api/handlers"
	"github.com/mitodl/lmod-proxy/pkg/api/middleware"
	"github.com/mitodl/lmod-proxy/pkg/edxgrades"
	"github.com/mitodl/lmod-proxy/pkg/htpasswd"
)

// defaultRequestTimeout bounds request handling. Grade imports can be slow
// on the remote side, so this is deliberately generous.
const defaultRequestTimeout = 5 * time.Minute

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe (unauthenticated)
//   - GET /health/ready - Readiness probe (unauthenticated)
//   - GET / - Redirect to /edx_grades (basic auth)
//   - GET /edx_grades - Action index page (basic auth)
//   - POST /edx_grades - Gradebook action dispatch (basic auth)
func NewRouter(store *htpasswd.Store, grades *edxgrades.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(defaultRequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.NotFound(w, "no such endpoint: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.MethodNotAllowed(w, r.Method+" is not supported here")
	})

	// Health routes - unauthenticated
	healthHandler := handlers.NewHealthHandler(store)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Everything else requires basic auth, including the root redirect:
	// unauthenticated clients get the 401 challenge before the redirect.
	r.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuth(store))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/edx_grades", http.StatusFound)
		})

		r.Get("/edx_grades", grades.Index)
		r.Post("/edx_grades", grades.Grades)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		logger.Debug("request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
