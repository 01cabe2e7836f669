package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spacewh/spacewh/engine"
	"github.com/spacewh/spacewh/internal/util"
)

// ProcessHandler serves the engine request endpoints: submitting work,
// inspecting in-flight runs and cancelling them.
type ProcessHandler struct {
	control *engine.Control
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(control *engine.Control) *ProcessHandler {
	return &ProcessHandler{control: control}
}

// Process handles POST /process. Pipeline failures stay inside the response
// envelope; only malformed input is rejected at the transport layer.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.control.ProcessRequest(r.Context(), req))
}

// validateRequest rejects requests the pipeline would only fail on later.
func validateRequest(req engine.Request) error {
	if strings.TrimSpace(req.UserID) == "" {
		return &util.ValidationError{Field: "user_id", Value: req.UserID, Message: "must not be empty"}
	}
	if strings.TrimSpace(req.Message) == "" {
		return &util.ValidationError{Field: "message", Value: req.Message, Message: "must not be empty"}
	}
	return nil
}

// Status handles GET /status with the full system snapshot.
func (h *ProcessHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.control.Status())
}

// ActiveRequests handles GET /active-requests.
func (h *ProcessHandler) ActiveRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active_requests": h.control.ActiveRequests()})
}

// Cancel handles DELETE /requests/{requestID}. Cancellation is advisory, so
// a 200 here means the request was marked, not that processing stopped.
func (h *ProcessHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	if !h.control.CancelRequest(requestID) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Request %s not found or not active", requestID))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Request %s cancelled", requestID)})
}
