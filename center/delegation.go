package center

import (
	"context"
	"errors"
	"fmt"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/crew"
)

// ErrCrewNotInitialized is returned by delegation operations whose crew was
// not wired into the center.
var ErrCrewNotInitialized = errors.New("crew not initialized")

// Delegation is the successful outcome of a crew-delegated operation.
type Delegation struct {
	TaskID   string         `json:"task_id"`
	Findings string         `json:"findings"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DelegationError reports a failed crew-delegated operation together with
// the ledger task that tracked it. TaskID is empty when the failure occurred
// before a tracking task was created.
type DelegationError struct {
	TaskID string
	Err    error
}

// Error implements the error interface.
func (e *DelegationError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("delegation failed: %s", e.Err)
	}
	return fmt.Sprintf("delegation failed (task %s): %s", e.TaskID, e.Err)
}

// Unwrap exposes the underlying failure for errors.Is / errors.As.
func (e *DelegationError) Unwrap() error { return e.Err }

// delegate wraps a crew call in a tracking task: completed with the crew
// findings on success, failed with the error string otherwise. Crew
// failures surface as *DelegationError and never escape the boundary.
func (c *Center) delegate(
	ctx context.Context,
	title, description, assignee, priority string,
	details map[string]any,
	run func(context.Context) (*crew.Result, error),
) (*Delegation, error) {
	task := c.CreateTask(title, description, priority, assignee, details)

	result, err := run(ctx)
	if err != nil {
		c.UpdateTaskStatus(task.ID, core.TaskFailed, map[string]any{"error": err.Error()})
		c.logger.Error("center.delegation.failed", "task_id", task.ID, "title", title, "error", err)
		return nil, &DelegationError{TaskID: task.ID, Err: err}
	}

	findings := result.Findings()
	c.UpdateTaskStatus(task.ID, core.TaskCompleted, findings)
	c.archiveReport(task.ID, findings)

	return &Delegation{
		TaskID:   task.ID,
		Findings: findings,
		Metadata: map[string]any{
			"crew":    result.Crew,
			"outputs": len(result.Outputs),
		},
	}, nil
}

// archiveReport persists delegation findings to the report store. Archive
// failures are logged, never propagated.
func (c *Center) archiveReport(taskID, findings string) {
	if c.reports == nil || findings == "" {
		return
	}
	if err := c.reports.Save(taskID, []byte(findings)); err != nil {
		c.logger.Warn("center.report.archive_failed", "task_id", taskID, "error", err)
	}
}

// Report returns the archived findings for a delegated task.
func (c *Center) Report(taskID string) ([]byte, error) {
	if c.reports == nil {
		return nil, errors.New("report store not configured")
	}
	return c.reports.Get(taskID)
}

// HandleCriticalAlert delegates incident response for a critical alert to
// the admin crew. CreateAlert invokes it synchronously when autonomous mode
// is enabled; operators can also invoke it directly.
func (c *Center) HandleCriticalAlert(ctx context.Context, alert *core.Alert) (*Delegation, error) {
	if c.admin == nil {
		c.logger.Warn("center.alert.autonomous_skipped", "alert_id", alert.ID, "reason", "admin crew not initialized")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	c.logger.Info("center.alert.autonomous_response", "alert_id", alert.ID)

	incident := crew.IncidentDetails{
		Title:       alert.Title,
		Component:   alert.Component,
		Description: alert.Description,
		AlertID:     alert.ID,
		Details:     alert.Details,
	}

	return c.delegate(ctx,
		fmt.Sprintf("Critical Alert Response: %s", alert.Title),
		fmt.Sprintf("Automatically respond to critical alert in component %s", alert.Component),
		"AdminCrew", core.PriorityHigh,
		map[string]any{"alert_id": alert.ID},
		func(ctx context.Context) (*crew.Result, error) {
			return c.admin.HandleSystemIncident(ctx, incident)
		},
	)
}

// PerformSystemHealthCheck delegates a comprehensive health check to the
// admin crew.
func (c *Center) PerformSystemHealthCheck(ctx context.Context) (*Delegation, error) {
	if c.admin == nil {
		c.logger.Warn("center.delegation.no_crew", "operation", "health_check")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	return c.delegate(ctx,
		"System Health Check",
		"Comprehensive check of all system components",
		"AdminCrew", "", nil,
		func(ctx context.Context) (*crew.Result, error) {
			return c.admin.PerformSystemHealthCheck(ctx)
		},
	)
}

// ReviewUserPermissions delegates a review of a user's permissions to the
// admin crew.
func (c *Center) ReviewUserPermissions(ctx context.Context, userID string) (*Delegation, error) {
	if c.admin == nil {
		c.logger.Warn("center.delegation.no_crew", "operation", "permission_review")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	return c.delegate(ctx,
		fmt.Sprintf("Permission Review: %s", userID),
		fmt.Sprintf("Review permissions and access level for user %s", userID),
		"AdminCrew", "",
		map[string]any{"user_id": userID},
		func(ctx context.Context) (*crew.Result, error) {
			return c.admin.ReviewUserPermissions(ctx, userID)
		},
	)
}

// ReviewModeElevationRequest delegates review of a mode elevation request
// to the admin crew.
func (c *Center) ReviewModeElevationRequest(ctx context.Context, req crew.ElevationRequest) (*Delegation, error) {
	if c.admin == nil {
		c.logger.Warn("center.delegation.no_crew", "operation", "mode_elevation_review")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	return c.delegate(ctx,
		fmt.Sprintf("Mode Elevation Request: %s -> %s", req.CurrentMode, req.RequestedMode),
		fmt.Sprintf("Review mode elevation request from user %s", req.UserID),
		"AdminCrew", core.PriorityHigh,
		map[string]any{
			"user_id":        req.UserID,
			"current_mode":   string(req.CurrentMode),
			"requested_mode": string(req.RequestedMode),
		},
		func(ctx context.Context) (*crew.Result, error) {
			return c.admin.ReviewModeElevation(ctx, req)
		},
	)
}

// CheckSecurityStatus delegates a security posture assessment to the admin
// crew.
func (c *Center) CheckSecurityStatus(ctx context.Context) (*Delegation, error) {
	if c.admin == nil {
		c.logger.Warn("center.delegation.no_crew", "operation", "security_status")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	return c.delegate(ctx,
		"Security Status Assessment",
		"Assess the current security posture of the system",
		"AdminCrew", core.PriorityHigh, nil,
		func(ctx context.Context) (*crew.Result, error) {
			return c.admin.CheckSecurityStatus(ctx)
		},
	)
}

// CoordinateAICouncil delegates a review of agent council coordination to
// the monitoring crew.
func (c *Center) CoordinateAICouncil(ctx context.Context) (*Delegation, error) {
	if c.monitor == nil {
		c.logger.Warn("center.delegation.no_crew", "operation", "council_coordination")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	return c.delegate(ctx,
		"AI Council Coordination",
		"Review agent council activity and coordination",
		"MonitoringCrew", "", nil,
		func(ctx context.Context) (*crew.Result, error) {
			return c.monitor.CoordinateAICouncil(ctx)
		},
	)
}

// AnalyzeAIBehavior delegates analysis of AI behavior data to the
// monitoring crew.
func (c *Center) AnalyzeAIBehavior(ctx context.Context, behaviorData map[string]any) (*Delegation, error) {
	if c.monitor == nil {
		c.logger.Warn("center.delegation.no_crew", "operation", "behavior_analysis")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	return c.delegate(ctx,
		"AI Behavior Analysis",
		"Analysis of AI agent behavior patterns",
		"MonitoringCrew", "",
		map[string]any{"data_summary": fmt.Sprintf("Analyzing %d behavior records", len(behaviorData))},
		func(ctx context.Context) (*crew.Result, error) {
			return c.monitor.AnalyzeAIBehavior(ctx, behaviorData)
		},
	)
}

// OptimizeOperationMode delegates optimization of an operation mode to the
// monitoring crew.
func (c *Center) OptimizeOperationMode(ctx context.Context, mode core.Mode, usageData map[string]any) (*Delegation, error) {
	if c.monitor == nil {
		c.logger.Warn("center.delegation.no_crew", "operation", "mode_optimization")
		return nil, &DelegationError{Err: ErrCrewNotInitialized}
	}

	return c.delegate(ctx,
		fmt.Sprintf("Optimize '%s' Operation Mode", mode),
		fmt.Sprintf("Optimize the configuration and behavior of the '%s' operation mode", mode),
		"MonitoringCrew", core.PriorityHigh,
		map[string]any{"mode": string(mode)},
		func(ctx context.Context) (*crew.Result, error) {
			return c.monitor.OptimizeOperationMode(ctx, mode, usageData)
		},
	)
}
