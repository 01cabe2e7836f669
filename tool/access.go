package tool

import (
	"sort"
	"sync"

	"github.com/spacewh/spacewh/core"
)

// Permission names used by the default mode lattice. Tools declare these in
// their manifests; external registrations may introduce arbitrary names.
const (
	PermBasicTools     = "basic_tools"
	PermReadKnowledge  = "read_knowledge"
	PermWriteKnowledge = "write_knowledge"
	PermAdvancedTools  = "advanced_tools"
	PermAdminTools     = "admin_tools"
	PermUnrestricted   = "unrestricted"
)

// ModeGrant is the externally visible description of a registered mode.
type ModeGrant struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type modeGrant struct {
	description string
	permissions map[string]struct{}
}

// AccessController maps permission modes to their granted permission sets.
// The four default modes form an increasing lattice: every tier carries the
// permissions of the tier below it. Safe for concurrent use.
type AccessController struct {
	mu    sync.RWMutex
	modes map[core.Mode]*modeGrant
}

// NewAccessController creates a controller pre-populated with the default
// mode lattice.
func NewAccessController() *AccessController {
	ac := &AccessController{modes: make(map[core.Mode]*modeGrant)}

	ac.RegisterMode(core.ModeArchivist, "Basic access mode with limited permissions",
		[]string{PermBasicTools, PermReadKnowledge})
	ac.RegisterMode(core.ModeOrchestrator, "Standard access mode with moderate permissions",
		[]string{PermBasicTools, PermReadKnowledge, PermWriteKnowledge, PermAdvancedTools})
	ac.RegisterMode(core.ModeGodfather, "Advanced access mode with extended permissions",
		[]string{PermBasicTools, PermReadKnowledge, PermWriteKnowledge, PermAdvancedTools, PermAdminTools})
	ac.RegisterMode(core.ModeEntity, "Full access mode with all permissions",
		[]string{PermBasicTools, PermReadKnowledge, PermWriteKnowledge, PermAdvancedTools, PermAdminTools, PermUnrestricted})

	return ac
}

// RegisterMode registers or replaces a mode with the given permission set.
func (ac *AccessController) RegisterMode(mode core.Mode, description string, permissions []string) {
	grant := &modeGrant{description: description, permissions: make(map[string]struct{}, len(permissions))}
	for _, p := range permissions {
		grant.permissions[p] = struct{}{}
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.modes[mode] = grant
}

// Permissions returns the sorted permission names granted to mode. Unknown
// modes yield an empty set, never an error.
func (ac *AccessController) Permissions(mode core.Mode) []string {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	grant, ok := ac.modes[mode]
	if !ok {
		return nil
	}

	perms := make([]string, 0, len(grant.permissions))
	for p := range grant.permissions {
		perms = append(perms, p)
	}
	sort.Strings(perms)

	return perms
}

// HasPermission reports whether mode holds the given permission.
func (ac *AccessController) HasPermission(mode core.Mode, permission string) bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	grant, ok := ac.modes[mode]
	if !ok {
		return false
	}
	_, has := grant.permissions[permission]

	return has
}

// Modes lists the registered modes in the canonical lattice order, with any
// custom modes sorted after the defaults.
func (ac *AccessController) Modes() []core.Mode {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	known := make(map[core.Mode]bool, len(ac.modes))
	for m := range ac.modes {
		known[m] = true
	}

	modes := make([]core.Mode, 0, len(ac.modes))
	for _, m := range core.AllModes() {
		if known[m] {
			modes = append(modes, m)
			delete(known, m)
		}
	}

	extra := make([]core.Mode, 0, len(known))
	for m := range known {
		extra = append(extra, m)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(modes, extra...)
}

// ModeDetails returns the full grant for a mode, or false when unknown.
func (ac *AccessController) ModeDetails(mode core.Mode) (ModeGrant, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	grant, ok := ac.modes[mode]
	if !ok {
		return ModeGrant{}, false
	}

	perms := make([]string, 0, len(grant.permissions))
	for p := range grant.permissions {
		perms = append(perms, p)
	}
	sort.Strings(perms)

	return ModeGrant{
		Name:        mode.String(),
		Description: grant.description,
		Permissions: perms,
	}, true
}

// AddPermissions extends an existing mode. Returns false for unknown modes.
func (ac *AccessController) AddPermissions(mode core.Mode, permissions ...string) bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	grant, ok := ac.modes[mode]
	if !ok {
		return false
	}
	for _, p := range permissions {
		grant.permissions[p] = struct{}{}
	}

	return true
}

// RemovePermissions strips permissions from an existing mode. Returns false
// for unknown modes.
func (ac *AccessController) RemovePermissions(mode core.Mode, permissions ...string) bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	grant, ok := ac.modes[mode]
	if !ok {
		return false
	}
	for _, p := range permissions {
		delete(grant.permissions, p)
	}

	return true
}
