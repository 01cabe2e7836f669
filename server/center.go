package server

import (
	"fmt"
	"net/http"

	"github.com/spacewh/spacewh/center"
	"github.com/spacewh/spacewh/core"
)

// CenterHandler serves read-only control-center snapshots.
type CenterHandler struct {
	center *center.Center
}

// NewCenterHandler creates a new CenterHandler.
func NewCenterHandler(c *center.Center) *CenterHandler {
	return &CenterHandler{center: c}
}

// Components handles GET /components with the registered component ledger.
func (h *CenterHandler) Components(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"components": h.center.Components()})
}

// Alerts handles GET /alerts. The component and level query parameters are
// optional filters; an empty filter matches everything.
func (h *CenterHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	var level core.AlertLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		parsed, ok := core.ParseAlertLevel(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown alert level: %s", raw))
			return
		}
		level = parsed
	}

	alerts := h.center.ActiveAlerts(r.URL.Query().Get("component"), level)
	if alerts == nil {
		alerts = []*core.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
