package server

import "net/http"

// OpsHandler serves the operational endpoints.
type OpsHandler struct{}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler() *OpsHandler {
	return &OpsHandler{}
}

// Root handles GET / with the service banner.
func (h *OpsHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "System Engine Control API"})
}

// Health handles GET /healthz as a liveness probe.
func (h *OpsHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
