package engine

import (
	"fmt"

	"github.com/spacewh/spacewh/core"
)

// Tier identifies one of the four processing engines, from the basic
// archivist tier up to the unrestricted entity tier.
type Tier int

const (
	// Tier1 handles basic requests with a small council and no retrieval.
	Tier1 Tier = iota + 1
	// Tier2 adds retrieval-first processing with council enhancement.
	Tier2
	// Tier3 runs an advanced council workflow with retrieval context.
	Tier3
	// Tier4 runs the complete workflow with deep retrieval and persistent
	// memory. Still reported as in development by Control.Status.
	Tier4
)

// String returns the engine identifier recorded in request state, for
// example "engine_1".
func (t Tier) String() string { return fmt.Sprintf("engine_%d", int(t)) }

// TierConfig describes how one processing tier operates. The dispatcher is a
// single code path; everything that distinguishes the four engines lives in
// this record.
type TierConfig struct {
	// Tier is the engine this configuration belongs to.
	Tier Tier

	// Mode is the canonical permission mode of the tier. Tool lookups use
	// this mode rather than whatever string arrived on the request, so a
	// tier always advertises its own tool set.
	Mode core.Mode

	// Agents is the council panel size for the tier.
	Agents int

	// Workflow names the council workflow tier: basic, standard, advanced
	// or complete.
	Workflow string

	// UseRetrieval enables the knowledge-retrieval step when a retriever
	// is connected.
	UseRetrieval bool

	// RetrievalPrimary makes retrieval the first responder: its answer is
	// returned directly unless it asks for council enhancement. Only the
	// second tier works this way.
	RetrievalPrimary bool

	// RetrievalDepth selects how deep the retriever digs.
	RetrievalDepth core.RetrievalDepth

	// RetrievalMarker, when non-empty, is prepended to the tools-used list
	// whenever retrieval contributed to the response.
	RetrievalMarker string

	// PersistentMemory asks the council to recall and store exchanges
	// across requests. Top tier only.
	PersistentMemory bool

	// CarryContext forwards the request context into the council request.
	CarryContext bool

	// SimulatedTools is the canned tools-used list reported when no
	// council is connected and the tier falls back to a simulated response.
	SimulatedTools []string
}

// Council returns the coordination parameters handed to the agent council.
func (c TierConfig) Council() core.CouncilConfig {
	return core.CouncilConfig{Agents: c.Agents, Workflow: c.Workflow}
}

// tierByMode is the single routing table. Each mode resolves to exactly one
// tier; there is no other dispatch logic.
var tierByMode = map[core.Mode]TierConfig{
	core.ModeArchivist: {
		Tier:           Tier1,
		Mode:           core.ModeArchivist,
		Agents:         2,
		Workflow:       "basic",
		SimulatedTools: []string{"basic_search"},
	},
	core.ModeOrchestrator: {
		Tier:             Tier2,
		Mode:             core.ModeOrchestrator,
		Agents:           5,
		Workflow:         "standard",
		UseRetrieval:     true,
		RetrievalPrimary: true,
		RetrievalDepth:   core.DepthStandard,
		SimulatedTools:   []string{"advanced_search", "data_analysis"},
	},
	core.ModeGodfather: {
		Tier:            Tier3,
		Mode:            core.ModeGodfather,
		Agents:          7,
		Workflow:        "advanced",
		UseRetrieval:    true,
		RetrievalDepth:  core.DepthStandard,
		RetrievalMarker: "rag_query",
		CarryContext:    true,
		SimulatedTools:  []string{"comprehensive_search", "code_development", "data_visualization"},
	},
	core.ModeEntity: {
		Tier:             Tier4,
		Mode:             core.ModeEntity,
		Agents:           9,
		Workflow:         "complete",
		UseRetrieval:     true,
		RetrievalDepth:   core.DepthDeep,
		RetrievalMarker:  "rag_deep_query",
		PersistentMemory: true,
		CarryContext:     true,
		SimulatedTools:   []string{"unrestricted_search", "agent_inception", "autonomous_system"},
	},
}

// TierForMode resolves the tier configuration for a raw mode string. The
// match is case-insensitive. Unrecognized input, including the empty string,
// returns the lowest tier and false so callers can log the fallback.
func TierForMode(mode string) (TierConfig, bool) {
	parsed, ok := core.ParseMode(mode)
	if !ok {
		return tierByMode[core.ModeArchivist], false
	}

	return tierByMode[parsed], true
}
