package core

import "context"

// RetrievalDepth selects how aggressively the knowledge collaborator digs for
// context. The top processing tier uses deep retrieval.
type RetrievalDepth string

const (
	// DepthStandard is the default retrieval depth.
	DepthStandard RetrievalDepth = "standard"
	// DepthDeep widens the search for the top tier.
	DepthDeep RetrievalDepth = "deep"
)

// CouncilConfig carries the tier-specific coordination parameters handed to
// the agent council: how many agents participate and which workflow tier
// they run.
type CouncilConfig struct {
	Agents   int    `json:"agents"`
	Workflow string `json:"workflow"`
}

// CouncilRequest is the engine-to-council delegation payload.
type CouncilRequest struct {
	Query            string         `json:"query"`
	Config           CouncilConfig  `json:"config"`
	Tools            []ToolSummary  `json:"tools,omitempty"`
	Context          map[string]any `json:"context,omitempty"`
	PersistentMemory bool           `json:"persistent_memory,omitempty"`
}

// CouncilResponse is what the council returns for a processed request.
type CouncilResponse struct {
	Response  string         `json:"response"`
	ToolsUsed []string       `json:"tools_used,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Council is the agent-coordinator collaborator consumed by the engine
// control layer. A nil Council degrades engines to simulated responses.
type Council interface {
	ProcessRequest(ctx context.Context, req CouncilRequest) (*CouncilResponse, error)
}

// RetrievalQuery is the engine-to-retrieval collaborator payload.
type RetrievalQuery struct {
	Query  string         `json:"query"`
	UserID string         `json:"user_id"`
	Depth  RetrievalDepth `json:"depth,omitempty"`
}

// RetrievalResult is the knowledge collaborator's answer. NeedsEnhancement
// signals that the retrieval response should be refined by the council
// rather than returned directly.
type RetrievalResult struct {
	Response         string         `json:"response"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	ToolsUsed        []string       `json:"tools_used,omitempty"`
	NeedsEnhancement bool           `json:"needs_enhancement,omitempty"`
}

// Retriever is the knowledge-retrieval collaborator consumed by the upper
// processing tiers. A nil Retriever skips the retrieval step.
type Retriever interface {
	Query(ctx context.Context, q RetrievalQuery) (*RetrievalResult, error)
}

// ToolSummary is the simplified tool description surfaced to engines and
// councils: enough to advertise a tool without exposing registry internals.
type ToolSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolSource lists the tools a permission mode may execute. The tools system
// implements it; engines consult it when assembling council requests.
type ToolSource interface {
	ToolsForMode(mode Mode) []ToolSummary
}
