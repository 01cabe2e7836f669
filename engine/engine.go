package engine

import (
	"context"
	"fmt"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/logging"
)

// Options configures a Dispatcher. All collaborators are optional; missing
// ones degrade the affected tiers instead of failing them.
type Options struct {
	// Logger receives structured dispatch logs. Defaults to a no-op logger.
	Logger logging.Logger

	// Council coordinates agent panels for council-backed responses. When
	// nil, every tier falls back to simulated responses.
	Council core.Council

	// Retriever answers knowledge queries for the retrieval-enabled tiers.
	// When nil, the retrieval step is skipped.
	Retriever core.Retriever

	// Tools lists the tools available to each permission mode. When nil,
	// tiers advertise an empty tool set.
	Tools core.ToolSource
}

// Dispatcher executes the processing tier selected for a request. One code
// path serves all four tiers; the TierConfig record decides which steps run.
type Dispatcher struct {
	logger    logging.Logger
	council   core.Council
	retriever core.Retriever
	tools     core.ToolSource
}

var _ Stage = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with the given collaborators.
func NewDispatcher(optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{
		logger:    opts.Logger,
		council:   opts.Council,
		retriever: opts.Retriever,
		tools:     opts.Tools,
	}
}

// Name returns the stage's identifier.
func (d *Dispatcher) Name() string { return "engine" }

// Process dispatches the state to its tier. Tier failures become an apology
// response with the error recorded in the state; the error return stays nil
// so one bad request never aborts the pipeline.
func (d *Dispatcher) Process(ctx context.Context, state *State) error {
	cfg, _ := TierForMode(state.Mode)
	d.dispatch(ctx, state, cfg)

	return nil
}

// dispatch runs one tier. The tool set is always resolved against the
// tier's canonical mode and advertised in the metadata, even when the tier
// later degrades to a simulated response.
func (d *Dispatcher) dispatch(ctx context.Context, state *State, cfg TierConfig) {
	state.CurrentEngine = cfg.Tier.String()

	tools := d.modeTools(cfg.Mode)
	state.setMetadata("available_tools", toolNames(tools))

	d.logger.Debug("engine.dispatch.start", "engine", state.CurrentEngine, "user_id", state.UserID, "tools", len(tools))

	var err error

	switch {
	case cfg.RetrievalPrimary && d.retriever != nil:
		err = d.retrievalFirst(ctx, state, cfg, tools)
	case d.council != nil:
		err = d.councilFlow(ctx, state, cfg, tools)
	default:
		d.simulate(state, cfg)
	}

	if err != nil {
		d.fail(state, cfg, err)
	}
}

// retrievalFirst serves the retrieval-primary tier: the retriever answers
// directly unless it flags its result for council enhancement. The council
// enhancement path keeps the retrieval tools first in the tools-used list.
func (d *Dispatcher) retrievalFirst(ctx context.Context, state *State, cfg TierConfig, tools []core.ToolSummary) error {
	result, err := d.retriever.Query(ctx, core.RetrievalQuery{
		Query:  state.Query,
		UserID: state.UserID,
		Depth:  cfg.RetrievalDepth,
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	state.setMetadata("rag_used", true)
	state.setMetadata("rag_result", result.Metadata)

	if result.NeedsEnhancement && d.council != nil {
		resp, err := d.council.ProcessRequest(ctx, core.CouncilRequest{
			Query:   state.Query,
			Config:  cfg.Council(),
			Tools:   tools,
			Context: map[string]any{"rag_result": result.Response},
		})
		if err != nil {
			return fmt.Errorf("council enhancement failed: %w", err)
		}

		state.Response = resp.Response
		state.ToolsUsed = append(append([]string(nil), result.ToolsUsed...), resp.ToolsUsed...)

		return nil
	}

	state.Response = result.Response
	state.ToolsUsed = append([]string(nil), result.ToolsUsed...)

	return nil
}

// councilFlow serves the council-backed tiers. Retrieval, when enabled and
// connected, contributes context for the council rather than a response of
// its own: standard depth feeds a single rag_result entry, deep depth feeds
// both the knowledge and its metadata.
func (d *Dispatcher) councilFlow(ctx context.Context, state *State, cfg TierConfig, tools []core.ToolSummary) error {
	var reqContext map[string]any
	if cfg.CarryContext && len(state.Context) > 0 {
		reqContext = cloneMap(state.Context)
	}

	retrieved := false

	if cfg.UseRetrieval && d.retriever != nil {
		result, err := d.retriever.Query(ctx, core.RetrievalQuery{
			Query:  state.Query,
			UserID: state.UserID,
			Depth:  cfg.RetrievalDepth,
		})
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}

		retrieved = true

		if reqContext == nil {
			reqContext = make(map[string]any)
		}

		if cfg.RetrievalDepth == core.DepthDeep {
			reqContext["rag_knowledge"] = result.Response
			reqContext["rag_metadata"] = result.Metadata
		} else {
			reqContext["rag_result"] = result.Response
		}

		state.setMetadata("rag_used", true)
	}

	if cfg.PersistentMemory {
		state.setMetadata("persistent_memory", true)

		// Scopes the council's memory recall to the requesting user.
		if state.UserID != "" {
			if reqContext == nil {
				reqContext = make(map[string]any)
			}

			reqContext["user_id"] = state.UserID
		}
	}

	resp, err := d.council.ProcessRequest(ctx, core.CouncilRequest{
		Query:            state.Query,
		Config:           cfg.Council(),
		Tools:            tools,
		Context:          reqContext,
		PersistentMemory: cfg.PersistentMemory,
	})
	if err != nil {
		return fmt.Errorf("council processing failed: %w", err)
	}

	state.Response = resp.Response
	state.ToolsUsed = append([]string(nil), resp.ToolsUsed...)

	if retrieved && cfg.RetrievalMarker != "" {
		state.ToolsUsed = append([]string{cfg.RetrievalMarker}, state.ToolsUsed...)
	}

	state.setMetadata("ai_council", true)

	return nil
}

// simulate produces the canned response used when no council is connected.
func (d *Dispatcher) simulate(state *State, cfg TierConfig) {
	state.Response = fmt.Sprintf("[Engine %d] Response to: %s", int(cfg.Tier), state.Query)
	state.ToolsUsed = append([]string(nil), cfg.SimulatedTools...)
}

// fail records a tier failure in the state. The caller still gets a
// readable response; the raw error is preserved in State.Err.
func (d *Dispatcher) fail(state *State, cfg TierConfig, err error) {
	d.logger.Error("engine.dispatch.error", "engine", cfg.Tier.String(), "user_id", state.UserID, "error", err)

	state.Err = fmt.Sprintf("Error in Engine %d: %s", int(cfg.Tier), err)
	state.Response = "I'm sorry, but I encountered an error while processing your request."
}

func (d *Dispatcher) modeTools(mode core.Mode) []core.ToolSummary {
	if d.tools == nil {
		return nil
	}

	return d.tools.ToolsForMode(mode)
}

func toolNames(tools []core.ToolSummary) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}

	return names
}
