package handlers

import (
	"net/http"

	"github.com/mitodl/lmod-proxy/pkg/htpasswd"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the server ready to authenticate requests?
type HealthHandler struct {
	store *htpasswd.Store
}

// NewHealthHandler creates a new health handler.
//
// The store parameter may be nil, in which case the readiness check
// reports unhealthy status.
func NewHealthHandler(store *htpasswd.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "lmod-proxy",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK if the server is ready to authenticate requests. This checks:
//   - Credential store is initialized
//   - At least one user is loaded
//
// Returns 503 Service Unavailable if the server is not ready. With an empty
// credential store every request is rejected, so the instance should not
// receive traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("credential store not initialized"))
		return
	}

	users := h.store.Users()
	if len(users) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no users configured"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"users": len(users),
	}))
}
