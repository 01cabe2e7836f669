package server

import (
	"fmt"
	"net/http"

	"github.com/spacewh/spacewh/core"
)

// ToolsHandler serves tool discovery for permission modes.
type ToolsHandler struct {
	source core.ToolSource
}

// NewToolsHandler creates a new ToolsHandler.
func NewToolsHandler(source core.ToolSource) *ToolsHandler {
	return &ToolsHandler{source: source}
}

// List handles GET /tools. The mode query parameter selects the permission
// mode and defaults to archivist; unknown modes are rejected rather than
// silently downgraded, since discovery answers "what would this mode get".
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	mode := core.ModeArchivist
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, ok := core.ParseMode(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode: %s", raw))
			return
		}
		mode = parsed
	}

	tools := h.source.ToolsForMode(mode)
	if tools == nil {
		tools = []core.ToolSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":  string(mode),
		"tools": tools,
		"count": len(tools),
	})
}
