package crew

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/logging"
	"github.com/spacewh/spacewh/model"
)

const (
	// maxPanelSize caps the number of deliberating members regardless of
	// the requested tier configuration.
	maxPanelSize = 9

	// memoryRecallLimit bounds how many stored memories are surfaced into
	// a deliberation prompt.
	memoryRecallLimit = 5

	// defaultMemoryScope is the memory user scope when a request carries
	// no user identity in its context.
	defaultMemoryScope = "council"
)

// CouncilOptions configures a Council.
type CouncilOptions struct {
	Logger logging.Logger

	// Memory is consulted and updated for requests that ask for
	// persistent memory. Nil disables recall and persistence.
	Memory core.MemoryStore

	// MaxModelCalls caps the model calls spent on a single request across
	// deliberation and synthesis. Zero means unlimited.
	MaxModelCalls int
}

// Council coordinates a panel of deliberation agents to answer engine
// requests. The request's CouncilConfig decides the panel size and the
// workflow label; members draft answers concurrently, then a chair agent
// synthesizes the drafts into a single response. Requests flagged with
// PersistentMemory recall prior exchanges from the memory store and persist
// the new one.
type Council struct {
	model    model.Model
	memory   core.MemoryStore
	logger   logging.Logger
	maxCalls int
}

var _ core.Council = (*Council)(nil)

// NewCouncil creates a council on top of the given model backend. A nil
// model returns nil so callers can degrade to simulated engine responses.
func NewCouncil(m model.Model, optFns ...func(*CouncilOptions)) *Council {
	if m == nil {
		return nil
	}

	opts := CouncilOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Council{
		model:    m,
		memory:   opts.Memory,
		logger:   opts.Logger,
		maxCalls: opts.MaxModelCalls,
	}
}

// ProcessRequest implements core.Council.
func (c *Council) ProcessRequest(ctx context.Context, req core.CouncilRequest) (*core.CouncilResponse, error) {
	members, chair := councilPanel(req.Config)

	c.logger.Info(
		"council.request.start",
		"agents", len(members),
		"workflow", req.Config.Workflow,
		"persistent_memory", req.PersistentMemory,
	)

	recalled := c.recallMemories(req)

	// Each request gets its own call budget.
	var limiter *core.ModelLimiter
	if c.maxCalls > 0 {
		limiter = core.NewModelLimiter(c.maxCalls)
	}

	agents := append(append([]*Agent{}, members...), chair)
	panel := New("Council", c.model, agents, func(o *Options) {
		o.Logger = c.logger
		o.Limiter = limiter
	})

	// Deliberation: every member drafts an answer concurrently.
	for _, member := range members {
		panel.AddTask(newDeliberationTask(member.Name, req, recalled))
	}

	drafts, err := panel.RunParallel(ctx)
	if err != nil {
		return nil, fmt.Errorf("council deliberation failed: %w", err)
	}

	// Synthesis: the chair merges the drafts into the final response.
	panel.ResetTasks()
	panel.AddTask(newSynthesisTask(chair.Name, req, drafts.Findings()))

	final, err := panel.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("council synthesis failed: %w", err)
	}

	response := final.Outputs[0].Output

	c.persistMemory(req, response)

	c.logger.Info("council.request.complete", "agents", len(members), "workflow", req.Config.Workflow)

	return &core.CouncilResponse{
		Response:  response,
		ToolsUsed: toolNames(req.Tools),
		Metadata: map[string]any{
			"agents":   len(members),
			"workflow": req.Config.Workflow,
			"drafts":   len(drafts.Outputs),
		},
	}, nil
}

// recallMemories surfaces prior exchanges matching the query. Recall
// failures degrade to an empty result.
func (c *Council) recallMemories(req core.CouncilRequest) []core.SearchResult {
	if !req.PersistentMemory || c.memory == nil {
		return nil
	}

	results, err := c.memory.Search(memoryScope(req), req.Query, memoryRecallLimit)
	if err != nil {
		c.logger.Warn("council.memory.search_failed", "error", err)
		return nil
	}

	return results
}

// persistMemory stores the finished exchange for future recall. Store
// failures are logged, never propagated.
func (c *Council) persistMemory(req core.CouncilRequest, response string) {
	if !req.PersistentMemory || c.memory == nil {
		return
	}

	entry := fmt.Sprintf("Q: %s\nA: %s", req.Query, response)
	err := c.memory.Store(memoryScope(req), entry, map[string]any{
		"workflow": req.Config.Workflow,
	})
	if err != nil {
		c.logger.Warn("council.memory.store_failed", "error", err)
	}
}

// memoryScope picks the memory user scope for a request: the user identity
// from the request context when present, a shared council scope otherwise.
func memoryScope(req core.CouncilRequest) string {
	if id, ok := req.Context["user_id"].(string); ok && id != "" {
		return id
	}
	return defaultMemoryScope
}

// councilPanel builds the member profiles and the chair for a tier
// configuration. Panel size is clamped to [1, maxPanelSize].
func councilPanel(cfg core.CouncilConfig) ([]*Agent, *Agent) {
	n := cfg.Agents
	if n < 1 {
		n = 1
	}
	if n > maxPanelSize {
		n = maxPanelSize
	}

	workflow := cfg.Workflow
	if workflow == "" {
		workflow = "basic"
	}

	members := make([]*Agent, 0, n)
	for i := 1; i <= n; i++ {
		members = append(members, &Agent{
			Name: fmt.Sprintf("CouncilMember%d", i),
			Role: "Council Deliberator",
			Goal: "Draft a well-reasoned answer to the council query",
			Backstory: fmt.Sprintf(
				"You are member %d of a %d-agent deliberation council running the %s workflow. "+
					"You draft an independent answer that a chair later merges with your peers' drafts.",
				i, n, workflow,
			),
			Temperature: 0.3,
		})
	}

	chair := &Agent{
		Name: "CouncilChair",
		Role: "Council Chair",
		Goal: "Synthesize member drafts into a single authoritative answer",
		Backstory: "You chair the deliberation council. You weigh the drafts produced by the " +
			"members, reconcile disagreements, and produce the final response returned to the user.",
		Temperature: 0.1,
	}

	return members, chair
}

// newDeliberationTask renders a member's drafting prompt from the request
// and any recalled memories.
func newDeliberationTask(agentName string, req core.CouncilRequest, recalled []core.SearchResult) Task {
	var sb strings.Builder
	sb.WriteString("Draft an answer to the following query:\n\n")
	sb.WriteString(req.Query)

	if section := renderContext(req.Context); section != "" {
		sb.WriteString("\n\nContext:\n")
		sb.WriteString(section)
	}

	if len(req.Tools) > 0 {
		sb.WriteString("\n\nAvailable tools: ")
		sb.WriteString(strings.Join(toolNames(req.Tools), ", "))
	}

	if len(recalled) > 0 {
		sb.WriteString("\n\nRelevant prior exchanges:\n")
		for _, mem := range recalled {
			sb.WriteString("- ")
			sb.WriteString(mem.Content)
			sb.WriteString("\n")
		}
	}

	return Task{
		Description:    sb.String(),
		ExpectedOutput: "A focused draft answer with your reasoning.",
		AgentName:      agentName,
	}
}

// newSynthesisTask renders the chair's merge prompt from the member drafts.
func newSynthesisTask(agentName string, req core.CouncilRequest, drafts string) Task {
	var sb strings.Builder
	sb.WriteString("Merge the following member drafts into the final answer for the query ")
	fmt.Fprintf(&sb, "%q:\n\n", req.Query)
	sb.WriteString(drafts)

	return Task{
		Description:    sb.String(),
		ExpectedOutput: "The single final answer, with disagreements between drafts resolved.",
		AgentName:      agentName,
	}
}

// renderContext flattens a context map into sorted key: value lines.
func renderContext(context map[string]any) string {
	if len(context) == 0 {
		return ""
	}

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, context[k]))
	}
	return strings.Join(lines, "\n")
}

func toolNames(tools []core.ToolSummary) []string {
	if len(tools) == 0 {
		return nil
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}
