package engine

import "github.com/spacewh/spacewh/core"

// Request is a user request submitted for processing. Mode defaults to the
// archivist tier when empty.
type Request struct {
	UserID   string         `json:"user_id"`
	Message  string         `json:"message"`
	Mode     string         `json:"mode,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Response is the processed result returned to the caller. Err carries
// request-level failures as text so the payload stays serializable end to
// end; a non-empty Err still comes with a human-readable Response.
type Response struct {
	Response         string         `json:"response"`
	UserID           string         `json:"user_id"`
	ToolsUsed        []string       `json:"tools_used,omitempty"`
	ProcessingTimeMS float64        `json:"processing_time_ms"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Err              string         `json:"error,omitempty"`
}

// State threads one request through the processing pipeline. Stages mutate
// it in place; whatever the last stage leaves behind becomes the response.
//
// Mode stays the raw request string until a stage needs it parsed, so the
// routing fallback and permission messages can echo exactly what the caller
// sent.
type State struct {
	UserID        string
	Mode          string
	Query         string
	Context       map[string]any
	ToolsUsed     []string
	ToolResults   []any
	CurrentEngine string
	Response      string
	Err           string
	Metadata      map[string]any
}

// newState seeds the pipeline state from a request. Context and Metadata are
// copied so stages never mutate caller-owned maps.
func newState(req Request) *State {
	return &State{
		UserID:   req.UserID,
		Mode:     req.Mode,
		Query:    req.Message,
		Context:  cloneMap(req.Context),
		Metadata: cloneMap(req.Metadata),
	}
}

// setMetadata records a metadata entry, allocating the map on first use.
func (s *State) setMetadata(key string, value any) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}

	s.Metadata[key] = value
}

// parsedMode returns the state's mode as a typed value, defaulting to the
// lowest tier for unknown input.
func (s *State) parsedMode() core.Mode {
	mode, _ := core.ParseMode(s.Mode)
	return mode
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
