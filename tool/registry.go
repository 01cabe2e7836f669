package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/spacewh/spacewh/internal/util"
)

// Filter narrows Registry.List results. The zero value matches every
// enabled tool.
type Filter struct {
	// IncludeDisabled also returns tools that have been disabled.
	IncludeDisabled bool
	// Tags keeps only tools carrying at least one of the given tags.
	Tags []string
	// Permissions, when non-empty, keeps only tools whose required
	// permissions are a subset of the given set. Tools requiring no
	// permissions always pass.
	Permissions []string
}

// FuncConfig customizes RegisterFunc registrations.
type FuncConfig struct {
	Version             string
	RequiredPermissions []string
	Tags                []string
}

// Registry stores tool instances and their bound implementations keyed by
// tool id. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Instance
	impls map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Instance),
		impls: make(map[string]Func),
	}
}

// Register stores a manifest with its implementation and returns the tool
// id. A missing manifest id is filled with a generated UUID; duplicate ids
// are rejected.
func (r *Registry) Register(manifest Manifest, fn Func) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("tool implementation must not be nil")
	}
	if manifest.ID == "" {
		manifest.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[manifest.ID]; exists {
		return "", fmt.Errorf("tool with ID %s already exists", manifest.ID)
	}

	r.tools[manifest.ID] = &Instance{
		Manifest: manifest,
		Enabled:  true,
		Config:   map[string]any{},
	}
	r.impls[manifest.ID] = fn

	return manifest.ID, nil
}

// RegisterFunc registers fn under name, deriving the parameter schema from
// the fields of the params struct. Pointer fields, omitempty fields and
// fields carrying a default tag register as optional; every other exported
// field is required. Pass nil params for a tool without arguments.
//
// Example:
//
//	type echoParams struct {
//		Message string `json:"message" description:"Message to echo back"`
//	}
//
//	id, err := registry.RegisterFunc("echo", "Echo back the input", echoParams{},
//		func(ctx context.Context, params map[string]any) (any, error) {
//			return params["message"], nil
//		},
//		func(c *FuncConfig) { c.RequiredPermissions = []string{PermBasicTools} },
//	)
func (r *Registry) RegisterFunc(name, description string, params any, fn Func, optFns ...func(*FuncConfig)) (string, error) {
	cfg := FuncConfig{Version: "0.1.0"}
	for _, f := range optFns {
		f(&cfg)
	}

	schema := map[string]ParameterSchema{}
	if params != nil {
		for _, spec := range util.SpecsFromStruct(params) {
			ps := ParameterSchema{
				Type:        ParameterType(spec.Type),
				Description: spec.Description,
				Required:    spec.Required,
			}
			if spec.Default != "" {
				ps.Default = spec.Default
			}
			schema[spec.Name] = ps
		}
	}

	manifest := Manifest{
		Name:                name,
		Version:             cfg.Version,
		Description:         description,
		Parameters:          schema,
		Response:            ResponseSchema{Type: TypeAny, Description: "Tool response"},
		RequiredPermissions: cfg.RequiredPermissions,
		Tags:                cfg.Tags,
	}

	return r.Register(manifest, fn)
}

// Get returns a copy of the stored instance, or false when unknown. The
// manifest is shared and must be treated as read-only.
func (r *Registry) Get(id string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.tools[id]
	if !ok {
		return Instance{}, false
	}

	clone := *inst
	clone.Config = make(map[string]any, len(inst.Config))
	for k, v := range inst.Config {
		clone.Config[k] = v
	}

	return clone, true
}

// Implementation returns the bound function for a tool id.
func (r *Registry) Implementation(id string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.impls[id]

	return fn, ok
}

// List returns the manifests matching the filter, sorted by name.
func (r *Registry) List(filter Filter) []Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provided := make(map[string]struct{}, len(filter.Permissions))
	for _, p := range filter.Permissions {
		provided[p] = struct{}{}
	}

	result := make([]Manifest, 0, len(r.tools))

	for _, inst := range r.tools {
		if !filter.IncludeDisabled && !inst.Enabled {
			continue
		}
		if len(filter.Tags) > 0 && !anyTagMatch(inst.Manifest.Tags, filter.Tags) {
			continue
		}
		if len(filter.Permissions) > 0 && !permissionsSubset(inst.Manifest.RequiredPermissions, provided) {
			continue
		}
		result = append(result, inst.Manifest)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result
}

// Enable toggles a tool's enabled flag. Returns false for unknown ids.
func (r *Registry) Enable(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.tools[id]
	if !ok {
		return false
	}
	inst.Enabled = enabled

	return true
}

// UpdateConfig merges config into a tool's stored configuration. Returns
// false for unknown ids.
func (r *Registry) UpdateConfig(id string, config map[string]any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.tools[id]
	if !ok {
		return false
	}
	for k, v := range config {
		inst.Config[k] = v
	}

	return true
}

// Remove deletes a tool and its implementation. Returns false for unknown
// ids.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[id]; !ok {
		return false
	}
	delete(r.tools, id)
	delete(r.impls, id)

	return true
}

func anyTagMatch(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func permissionsSubset(required []string, provided map[string]struct{}) bool {
	for _, req := range required {
		if _, ok := provided[req]; !ok {
			return false
		}
	}
	return true
}
