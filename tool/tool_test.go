package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/spacewh/spacewh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopFunc(ctx context.Context, params map[string]any) (any, error) { return nil, nil }

// -------------------- Registry Tests --------------------

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	id, err := r.Register(Manifest{Name: "first"}, nopFunc)
	require.NoError(t, err)
	assert.NotEmpty(t, id, "missing manifest id should be filled with a UUID")

	_, err = r.Register(Manifest{ID: id, Name: "dup"}, nopFunc)
	assert.ErrorContains(t, err, "already exists")

	_, err = r.Register(Manifest{Name: "nil-fn"}, nil)
	assert.Error(t, err)
}

type searchParams struct {
	Query string  `json:"query" description:"Search query"`
	Limit int     `json:"limit,omitempty" description:"Max results"`
	Boost *string `json:"boost" description:"Optional boost expression"`
	Depth string  `json:"depth" description:"Search depth" default:"standard"`
}

func TestRegistryRegisterFunc(t *testing.T) {
	r := NewRegistry()

	id, err := r.RegisterFunc("search", "Search the index", searchParams{}, nopFunc,
		func(c *FuncConfig) {
			c.Version = "1.2.0"
			c.RequiredPermissions = []string{PermReadKnowledge}
			c.Tags = []string{"knowledge"}
		},
	)
	require.NoError(t, err)

	inst, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, "search", inst.Manifest.Name)
	assert.Equal(t, "1.2.0", inst.Manifest.Version)
	assert.Equal(t, []string{PermReadKnowledge}, inst.Manifest.RequiredPermissions)

	params := inst.Manifest.Parameters
	require.Len(t, params, 4)
	assert.True(t, params["query"].Required)
	assert.False(t, params["limit"].Required, "omitempty fields are optional")
	assert.False(t, params["boost"].Required, "pointer fields are optional")
	assert.False(t, params["depth"].Required, "fields with a default are optional")
	assert.Equal(t, "standard", params["depth"].Default)
	assert.Equal(t, TypeInteger, params["limit"].Type)
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()

	basicID, err := r.RegisterFunc("b_tool", "basic", nil, nopFunc,
		func(c *FuncConfig) {
			c.RequiredPermissions = []string{PermBasicTools}
			c.Tags = []string{"util"}
		})
	require.NoError(t, err)
	_, err = r.RegisterFunc("a_tool", "admin", nil, nopFunc,
		func(c *FuncConfig) { c.RequiredPermissions = []string{PermAdminTools} })
	require.NoError(t, err)
	_, err = r.RegisterFunc("open_tool", "no perms", nil, nopFunc)
	require.NoError(t, err)

	all := r.List(Filter{})
	assert.Len(t, all, 3)
	// Sorted by name for stable output.
	assert.Equal(t, "a_tool", all[0].Name)
	assert.Equal(t, "open_tool", all[2].Name)

	byTag := r.List(Filter{Tags: []string{"util"}})
	require.Len(t, byTag, 1)
	assert.Equal(t, "b_tool", byTag[0].Name)

	// Permission filter keeps tools whose requirements are covered; tools
	// requiring nothing always pass.
	byPerm := r.List(Filter{Permissions: []string{PermBasicTools, PermReadKnowledge}})
	names := []string{}
	for _, m := range byPerm {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"b_tool", "open_tool"}, names)

	require.True(t, r.Enable(basicID, false))
	assert.Len(t, r.List(Filter{}), 2)
	assert.Len(t, r.List(Filter{IncludeDisabled: true}), 3)
}

func TestRegistryMutations(t *testing.T) {
	r := NewRegistry()

	id, err := r.RegisterFunc("cfg_tool", "configurable", nil, nopFunc)
	require.NoError(t, err)

	require.True(t, r.UpdateConfig(id, map[string]any{"endpoint": "http://localhost"}))
	require.True(t, r.UpdateConfig(id, map[string]any{"retries": 3}))

	inst, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, "http://localhost", inst.Config["endpoint"])
	assert.Equal(t, 3, inst.Config["retries"])

	// Clones returned by Get do not leak writes back into the registry.
	inst.Config["endpoint"] = "mutated"
	fresh, _ := r.Get(id)
	assert.Equal(t, "http://localhost", fresh.Config["endpoint"])

	assert.False(t, r.Enable("missing", true))
	assert.False(t, r.UpdateConfig("missing", nil))
	assert.False(t, r.Remove("missing"))
	assert.True(t, r.Remove(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
	_, ok = r.Implementation(id)
	assert.False(t, ok)
}

// -------------------- AccessController Tests --------------------

func TestAccessControllerDefaults(t *testing.T) {
	ac := NewAccessController()

	assert.Equal(t, core.AllModes(), ac.Modes())

	assert.ElementsMatch(t, []string{PermBasicTools, PermReadKnowledge}, ac.Permissions(core.ModeArchivist))
	assert.True(t, ac.HasPermission(core.ModeEntity, PermUnrestricted))
	assert.False(t, ac.HasPermission(core.ModeGodfather, PermUnrestricted))
	assert.False(t, ac.HasPermission(core.ModeArchivist, PermWriteKnowledge))

	// Every tier carries the permissions of the tier below it.
	lower := ac.Permissions(core.ModeArchivist)
	for _, mode := range []core.Mode{core.ModeOrchestrator, core.ModeGodfather, core.ModeEntity} {
		for _, p := range lower {
			assert.True(t, ac.HasPermission(mode, p), "mode %s should keep %s", mode, p)
		}
		lower = ac.Permissions(mode)
	}

	assert.Empty(t, ac.Permissions(core.Mode("visitor")))
	_, ok := ac.ModeDetails(core.Mode("visitor"))
	assert.False(t, ok)
}

func TestAccessControllerMutation(t *testing.T) {
	ac := NewAccessController()

	ac.RegisterMode(core.Mode("auditor"), "Read-only audit mode", []string{PermReadKnowledge})
	grant, ok := ac.ModeDetails(core.Mode("auditor"))
	require.True(t, ok)
	assert.Equal(t, "auditor", grant.Name)
	assert.Equal(t, []string{PermReadKnowledge}, grant.Permissions)

	require.True(t, ac.AddPermissions(core.Mode("auditor"), PermBasicTools))
	assert.True(t, ac.HasPermission(core.Mode("auditor"), PermBasicTools))

	require.True(t, ac.RemovePermissions(core.Mode("auditor"), PermBasicTools))
	assert.False(t, ac.HasPermission(core.Mode("auditor"), PermBasicTools))

	assert.False(t, ac.AddPermissions(core.Mode("ghost"), PermBasicTools))
	assert.False(t, ac.RemovePermissions(core.Mode("ghost"), PermBasicTools))

	// Custom modes list after the canonical four.
	modes := ac.Modes()
	assert.Equal(t, core.Mode("auditor"), modes[len(modes)-1])
}

// -------------------- Executor Tests --------------------

func newExecutorForTest(t *testing.T) (*Executor, *Registry) {
	t.Helper()
	r := NewRegistry()
	return NewExecutor(r, NewAccessController()), r
}

func TestExecutorToolNotFound(t *testing.T) {
	e, _ := newExecutorForTest(t)

	resp := e.Execute(context.Background(), ExecutionRequest{ToolID: "missing", RequestID: "req-1"})
	assert.False(t, resp.Success)
	assert.Equal(t, "Tool not found: missing", resp.Error)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.GreaterOrEqual(t, resp.DurationMS, 0.0)
}

func TestExecutorAccessDenied(t *testing.T) {
	e, r := newExecutorForTest(t)

	id, err := r.RegisterFunc("wipe", "Dangerous admin tool", nil, nopFunc,
		func(c *FuncConfig) { c.RequiredPermissions = []string{PermAdminTools, PermUnrestricted} })
	require.NoError(t, err)

	resp := e.Execute(context.Background(), ExecutionRequest{ToolID: id, Mode: core.ModeArchivist})
	assert.False(t, resp.Success)
	assert.Equal(t, "Access denied: mode 'archivist' lacks permission 'admin_tools'", resp.Error)
	assert.Equal(t, PermAdminTools, resp.Metadata["missing_permission"], "first missing permission only")

	// Without a mode the permission gate is skipped.
	resp = e.Execute(context.Background(), ExecutionRequest{ToolID: id})
	assert.True(t, resp.Success)
}

func TestExecutorMissingParameter(t *testing.T) {
	e, r := newExecutorForTest(t)

	id, err := r.RegisterFunc("echo", "Echo back the input", echoParams{},
		func(ctx context.Context, params map[string]any) (any, error) {
			return params["message"], nil
		})
	require.NoError(t, err)

	resp := e.Execute(context.Background(), ExecutionRequest{ToolID: id, Parameters: map[string]any{}})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Missing required parameter: message")
	assert.GreaterOrEqual(t, resp.DurationMS, 0.0)

	// Presence is enough; values are never type-checked.
	resp = e.Execute(context.Background(), ExecutionRequest{ToolID: id, Parameters: map[string]any{"message": 42}})
	assert.True(t, resp.Success)
	assert.Equal(t, 42, resp.Result)
}

func TestExecutorSuccessMetadata(t *testing.T) {
	e, r := newExecutorForTest(t)

	id, err := r.RegisterFunc("greet", "Greet a user", nil,
		func(ctx context.Context, params map[string]any) (any, error) {
			return "hello", nil
		})
	require.NoError(t, err)

	resp := e.Execute(context.Background(), ExecutionRequest{ToolID: id, Mode: core.ModeEntity, UserID: "user-7"})
	assert.True(t, resp.Success)
	assert.Equal(t, "hello", resp.Result)
	assert.Equal(t, "greet", resp.Metadata["tool_name"])
	assert.Equal(t, "user-7", resp.Metadata["user_id"])
}

func TestExecutorFailureWrapping(t *testing.T) {
	e, r := newExecutorForTest(t)

	failID, err := r.RegisterFunc("fail", "Always errors", nil,
		func(ctx context.Context, params map[string]any) (any, error) {
			return nil, errors.New("backend unavailable")
		})
	require.NoError(t, err)

	resp := e.Execute(context.Background(), ExecutionRequest{ToolID: failID})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Tool execution error")
	assert.Contains(t, resp.Error, "backend unavailable")

	panicID, err := r.RegisterFunc("panic", "Always panics", nil,
		func(ctx context.Context, params map[string]any) (any, error) {
			panic("boom")
		})
	require.NoError(t, err)

	resp = e.Execute(context.Background(), ExecutionRequest{ToolID: panicID})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Tool execution error")
	assert.Contains(t, resp.Error, "boom")
	assert.GreaterOrEqual(t, resp.DurationMS, 0.0)
}

// -------------------- System Tests --------------------

func TestSystemCoreTools(t *testing.T) {
	s := NewSystem()

	manifests := s.Registry().List(Filter{})
	names := []string{}
	ids := map[string]string{}
	for _, m := range manifests {
		names = append(names, m.Name)
		ids[m.Name] = m.ID
	}
	assert.ElementsMatch(t, []string{"system_info", "echo"}, names)

	resp := s.Execute(context.Background(), ExecutionRequest{
		ToolID:     ids["echo"],
		Parameters: map[string]any{"message": "ping"},
		Mode:       core.ModeArchivist,
	})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "ping", resp.Result)
	assert.NotEmpty(t, resp.RequestID, "request id is generated when absent")

	resp = s.Execute(context.Background(), ExecutionRequest{ToolID: ids["system_info"], Mode: core.ModeEntity})
	require.True(t, resp.Success, resp.Error)
	info, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, info["available_tools"])
	assert.Equal(t, "operational", info["status"])
}

func TestSystemToolsForMode(t *testing.T) {
	s := NewSystem()

	_, err := s.RegisterExternal(Manifest{
		Name:                "prune_users",
		Version:             "0.1.0",
		Description:         "Remove inactive users",
		Response:            ResponseSchema{Type: TypeAny},
		RequiredPermissions: []string{PermAdminTools},
	}, nopFunc)
	require.NoError(t, err)

	archivist := s.ToolsForMode(core.ModeArchivist)
	archNames := []string{}
	for _, summary := range archivist {
		archNames = append(archNames, summary.Name)
	}
	assert.ElementsMatch(t, []string{"system_info", "echo"}, archNames)

	entity := s.ToolsForMode(core.ModeEntity)
	assert.Len(t, entity, 3)

	for _, summary := range entity {
		if summary.Name == "echo" {
			entry, ok := summary.Parameters["message"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "string", entry["type"])
			assert.Equal(t, true, entry["required"])
		}
	}
}

func TestSystemModes(t *testing.T) {
	s := NewSystem()

	grants := s.Modes()
	require.Len(t, grants, 4)
	assert.Equal(t, "archivist", grants[0].Name)
	assert.Equal(t, "entity", grants[3].Name)
	assert.Contains(t, grants[3].Permissions, PermUnrestricted)
}
