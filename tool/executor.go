package tool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spacewh/spacewh/internal/util"
	"github.com/spacewh/spacewh/logging"
)

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Logger receives execution telemetry. Defaults to a no-op logger.
	Logger logging.Logger
}

// Executor runs registered tools behind a fixed gate order: existence,
// permission check, required parameter presence, implementation lookup,
// then the call itself. Every failure lands in the response error string
// rather than a returned error, so callers always get a timed response.
type Executor struct {
	registry *Registry
	access   *AccessController
	logger   logging.Logger
}

// NewExecutor creates an executor over the given registry and access
// controller.
func NewExecutor(registry *Registry, access *AccessController, optFns ...func(*ExecutorOptions)) *Executor {
	opts := ExecutorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		registry: registry,
		access:   access,
		logger:   opts.Logger,
	}
}

// Execute runs the tool named by req. The permission gate reports the first
// missing permission only, and parameter validation checks presence of
// required parameters without inspecting value types. DurationMS is set on
// every path.
func (e *Executor) Execute(ctx context.Context, req ExecutionRequest) ExecutionResponse {
	start := time.Now()

	resp := ExecutionResponse{
		ToolID:    req.ToolID,
		RequestID: req.RequestID,
		Metadata:  map[string]any{},
	}

	e.logger.Debug("tool.execute.start", "tool_id", req.ToolID, "request_id", req.RequestID)

	inst, ok := e.registry.Get(req.ToolID)
	if !ok {
		resp.Error = fmt.Sprintf("Tool not found: %s", req.ToolID)
		e.logger.Warn("tool.execute.not_found", "tool_id", req.ToolID)

		return e.finish(resp, start)
	}

	if req.Mode != "" {
		for _, permission := range inst.Manifest.RequiredPermissions {
			if !e.access.HasPermission(req.Mode, permission) {
				resp.Error = fmt.Sprintf("Access denied: mode '%s' lacks permission '%s'", req.Mode, permission)
				resp.Metadata["missing_permission"] = permission
				e.logger.Warn("tool.execute.denied", "tool_id", req.ToolID, "mode", req.Mode.String(), "permission", permission)

				return e.finish(resp, start)
			}
		}
	}

	if name, ok := util.MissingRequired(req.Parameters, requiredNames(inst.Manifest.Parameters)); !ok {
		resp.Error = fmt.Sprintf("Parameter validation failed: Missing required parameter: %s", name)
		e.logger.Warn("tool.execute.invalid_params", "tool_id", req.ToolID, "parameter", name)

		return e.finish(resp, start)
	}

	fn, ok := e.registry.Implementation(req.ToolID)
	if !ok {
		resp.Error = "Tool implementation not found"

		return e.finish(resp, start)
	}

	resp.Metadata["tool_name"] = inst.Manifest.Name
	if req.UserID != "" {
		resp.Metadata["user_id"] = req.UserID
	}

	result, err := safeCall(ctx, fn, req.Parameters)
	if err != nil {
		resp.Error = fmt.Sprintf("Tool execution error: %s", err)
		e.logger.Error("tool.execute.error", "tool_id", req.ToolID, "error", err.Error())

		return e.finish(resp, start)
	}

	resp.Success = true
	resp.Result = result
	e.logger.Info("tool.execute.success", "tool_id", req.ToolID, "duration_ms", time.Since(start).Milliseconds())

	return e.finish(resp, start)
}

func (e *Executor) finish(resp ExecutionResponse, start time.Time) ExecutionResponse {
	resp.DurationMS = float64(time.Since(start).Microseconds()) / 1000.0

	return resp
}

// requiredNames collects the required parameter names in sorted order so the
// first missing parameter reported is deterministic.
func requiredNames(params map[string]ParameterSchema) []string {
	names := make([]string, 0, len(params))
	for name, schema := range params {
		if schema.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// safeCall invokes fn with panic recovery so a misbehaving tool cannot take
// down the executor.
func safeCall(ctx context.Context, fn Func, params map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("error in tool execution: %v", r)
		}
	}()

	result, err = fn(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("error in tool execution: %w", err)
	}

	return result, nil
}
