package tool

import (
	"context"

	"github.com/google/uuid"
	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/logging"
)

// SystemOptions configures a tools System.
type SystemOptions struct {
	// Logger receives registration and execution telemetry. Defaults to a
	// no-op logger.
	Logger logging.Logger
}

// System is the entry point for the Tools/Packages subsystem. It owns the
// registry, the access controller and the executor, and registers the core
// tools that are always available.
type System struct {
	registry *Registry
	access   *AccessController
	executor *Executor
	logger   logging.Logger
}

// NewSystem creates a fully wired tools system with the core tools
// registered.
func NewSystem(optFns ...func(*SystemOptions)) *System {
	opts := SystemOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &System{
		registry: NewRegistry(),
		access:   NewAccessController(),
		logger:   opts.Logger,
	}
	s.executor = NewExecutor(s.registry, s.access, func(o *ExecutorOptions) { o.Logger = opts.Logger })
	s.registerCoreTools()

	return s
}

type echoParams struct {
	Message string `json:"message" description:"Message to echo back"`
}

// registerCoreTools installs the tools every deployment ships with.
func (s *System) registerCoreTools() {
	_, err := s.registry.RegisterFunc("system_info", "Get information about the tools system", nil,
		func(ctx context.Context, params map[string]any) (any, error) {
			modes := s.access.Modes()
			names := make([]string, 0, len(modes))
			for _, m := range modes {
				names = append(names, m.String())
			}

			return map[string]any{
				"available_tools": len(s.registry.List(Filter{})),
				"available_modes": names,
				"status":          "operational",
			}, nil
		},
		func(c *FuncConfig) { c.RequiredPermissions = []string{PermBasicTools} },
	)
	if err != nil {
		s.logger.Error("tool.register_core_failed", "tool", "system_info", "error", err.Error())
	}

	_, err = s.registry.RegisterFunc("echo", "Echo back the input", echoParams{},
		func(ctx context.Context, params map[string]any) (any, error) {
			return params["message"], nil
		},
		func(c *FuncConfig) { c.RequiredPermissions = []string{PermBasicTools} },
	)
	if err != nil {
		s.logger.Error("tool.register_core_failed", "tool", "echo", "error", err.Error())
	}
}

// Registry exposes the underlying tool registry.
func (s *System) Registry() *Registry { return s.registry }

// Access exposes the underlying access controller.
func (s *System) Access() *AccessController { return s.access }

// Execute runs a tool through the executor, generating a request id when
// the caller did not supply one.
func (s *System) Execute(ctx context.Context, req ExecutionRequest) ExecutionResponse {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	s.logger.Info("tool.execute", "tool_id", req.ToolID, "request_id", req.RequestID)

	return s.executor.Execute(ctx, req)
}

// RegisterExternal registers an externally supplied manifest and
// implementation.
func (s *System) RegisterExternal(manifest Manifest, fn Func) (string, error) {
	return s.registry.Register(manifest, fn)
}

// ToolsForMode returns the enabled tools the given mode may run, reduced to
// the summary shape engines hand to the agent council. Implements
// core.ToolSource.
func (s *System) ToolsForMode(mode core.Mode) []core.ToolSummary {
	manifests := s.registry.List(Filter{Permissions: s.access.Permissions(mode)})

	summaries := make([]core.ToolSummary, 0, len(manifests))
	for _, m := range manifests {
		params := make(map[string]any, len(m.Parameters))
		for name, schema := range m.Parameters {
			entry := map[string]any{
				"type":        string(schema.Type),
				"description": schema.Description,
				"required":    schema.Required,
			}
			if schema.Default != nil {
				entry["default"] = schema.Default
			}
			params[name] = entry
		}
		summaries = append(summaries, core.ToolSummary{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Parameters:  params,
		})
	}

	return summaries
}

// Modes returns the full grant details for every registered mode.
func (s *System) Modes() []ModeGrant {
	modes := s.access.Modes()

	grants := make([]ModeGrant, 0, len(modes))
	for _, m := range modes {
		if grant, ok := s.access.ModeDetails(m); ok {
			grants = append(grants, grant)
		}
	}

	return grants
}
