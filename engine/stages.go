package engine

import (
	"context"
	"fmt"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/logging"
)

// Stage is one step of the request processing pipeline. Stages record
// request-level outcomes (denials, engine errors) in the state itself and
// reserve the error return for infrastructure faults that should abort the
// run.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Process advances the state by one pipeline step.
	Process(ctx context.Context, state *State) error
}

// ModeAuthorizer decides whether a user may operate in a permission mode. A
// nil authorizer grants every request, which matches deployments that manage
// access upstream of this layer.
type ModeAuthorizer interface {
	Authorize(userID string, mode core.Mode) bool
}

// AuthorizerFunc adapts a plain function to ModeAuthorizer.
type AuthorizerFunc func(userID string, mode core.Mode) bool

// Authorize calls fn(userID, mode).
func (fn AuthorizerFunc) Authorize(userID string, mode core.Mode) bool { return fn(userID, mode) }

// PermissionStage guards mode access before routing. Denials are recorded in
// the state and the request is downgraded to the archivist tier rather than
// rejected, so every request still produces a response.
type PermissionStage struct {
	authorizer ModeAuthorizer
	logger     logging.Logger
}

// NewPermissionStage creates the permission-check stage.
func NewPermissionStage(authorizer ModeAuthorizer, logger logging.Logger) *PermissionStage {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &PermissionStage{authorizer: authorizer, logger: logger}
}

// Name returns the stage's identifier.
func (s *PermissionStage) Name() string { return "permissions" }

// Process checks mode access for the requesting user.
func (s *PermissionStage) Process(_ context.Context, state *State) error {
	if s.authorizer == nil || s.authorizer.Authorize(state.UserID, state.parsedMode()) {
		return nil
	}

	s.logger.Warn("engine.permission.denied", "user_id", state.UserID, "mode", state.Mode)

	state.Err = fmt.Sprintf("Permission denied: User %s does not have access to %s mode", state.UserID, state.Mode)
	state.Mode = core.ModeArchivist.String()

	return nil
}

// RouteStage resolves the request's mode to a processing engine. Unknown
// modes route to the first engine with a warning instead of failing.
type RouteStage struct {
	logger logging.Logger
}

// NewRouteStage creates the mode-routing stage.
func NewRouteStage(logger logging.Logger) *RouteStage {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &RouteStage{logger: logger}
}

// Name returns the stage's identifier.
func (s *RouteStage) Name() string { return "router" }

// Process selects the engine for the state's mode.
func (s *RouteStage) Process(_ context.Context, state *State) error {
	cfg, known := TierForMode(state.Mode)
	if !known {
		s.logger.Warn("engine.route.unknown_mode", "mode", state.Mode, "fallback", cfg.Tier.String())
	}

	state.CurrentEngine = cfg.Tier.String()
	s.logger.Debug("engine.route.selected", "user_id", state.UserID, "engine", state.CurrentEngine)

	return nil
}
