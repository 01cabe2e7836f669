// Package tool implements the Tools/Packages subsystem: declarative tool
// manifests with parameter schemas, a registry binding manifests to Go
// implementations, permission gated execution and mode based discovery.
package tool

import (
	"context"

	"github.com/spacewh/spacewh/core"
)

// ParameterType enumerates the value types a tool parameter may declare.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeObject  ParameterType = "object"
	TypeArray   ParameterType = "array"
	TypeNull    ParameterType = "null"
	TypeAny     ParameterType = "any"
)

// ParameterSchema describes a single tool parameter. Only Required is
// enforced before execution; the remaining constraint fields document the
// expected shape for callers and models.
type ParameterSchema struct {
	Type        ParameterType              `json:"type"`
	Description string                     `json:"description,omitempty"`
	Default     any                        `json:"default,omitempty"`
	Required    bool                       `json:"required"`
	Enum        []any                      `json:"enum,omitempty"`
	Minimum     *float64                   `json:"minimum,omitempty"`
	Maximum     *float64                   `json:"maximum,omitempty"`
	MinLength   *int                       `json:"min_length,omitempty"`
	MaxLength   *int                       `json:"max_length,omitempty"`
	Pattern     string                     `json:"pattern,omitempty"`
	Format      string                     `json:"format,omitempty"`
	Items       *ParameterSchema           `json:"items,omitempty"`
	Properties  map[string]ParameterSchema `json:"properties,omitempty"`
}

// ResponseSchema describes the shape of a tool's result.
type ResponseSchema struct {
	Type        ParameterType              `json:"type"`
	Description string                     `json:"description,omitempty"`
	Properties  map[string]ParameterSchema `json:"properties,omitempty"`
}

// Manifest declares a tool: identity, versioning, parameter and response
// schemas and the permissions a caller's mode must hold to run it.
type Manifest struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	Version             string                     `json:"version"`
	Description         string                     `json:"description"`
	Parameters          map[string]ParameterSchema `json:"parameters,omitempty"`
	Response            ResponseSchema             `json:"response"`
	RequiredPermissions []string                   `json:"required_permissions,omitempty"`
	Author              string                     `json:"author,omitempty"`
	Homepage            string                     `json:"homepage,omitempty"`
	Repository          string                     `json:"repository,omitempty"`
	Tags                []string                   `json:"tags,omitempty"`
	Examples            []map[string]any           `json:"examples,omitempty"`
}

// Instance pairs a manifest with its runtime state in the registry. The
// bound implementation is held only in memory and is lost on restart.
type Instance struct {
	Manifest Manifest       `json:"manifest"`
	Enabled  bool           `json:"enabled"`
	Config   map[string]any `json:"config"`
}

// Func is the implementation bound to a registered tool. Parameters arrive
// exactly as supplied by the caller; only the presence of required
// parameters is checked before invocation, never value types.
type Func func(ctx context.Context, params map[string]any) (any, error)

// ExecutionRequest asks the executor to run a tool. Mode is optional; when
// empty the permission gate is skipped entirely.
type ExecutionRequest struct {
	ToolID     string         `json:"tool_id"`
	Parameters map[string]any `json:"parameters"`
	Mode       core.Mode      `json:"mode,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	RequestID  string         `json:"request_id"`
}

// ExecutionResponse reports the outcome of a tool run. DurationMS is
// recorded regardless of outcome, including every failure path.
type ExecutionResponse struct {
	ToolID     string         `json:"tool_id"`
	RequestID  string         `json:"request_id"`
	Success    bool           `json:"success"`
	Result     any            `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata"`
}
