package center

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/crew"
	"github.com/spacewh/spacewh/logging"
)

// Config controls center behavior.
type Config struct {
	// EnableAutonomousMode lets critical alerts trigger incident handling
	// without operator involvement.
	EnableAutonomousMode bool `json:"enable_autonomous_mode"`

	// AlertRetentionDays bounds how long alerts are kept by
	// PruneResolvedAlerts. Zero disables pruning.
	AlertRetentionDays int `json:"alert_retention_days"`

	// MetricsRetentionDays bounds how long metric snapshots are kept.
	// Zero disables pruning.
	MetricsRetentionDays int `json:"metrics_retention_days"`

	// DefaultTaskPriority is assigned to tasks created without one.
	DefaultTaskPriority string `json:"default_task_priority"`

	// DefaultModel names the model backend crews should run on.
	DefaultModel string `json:"default_model"`

	// AutomatedTasks toggles recurring automation by name.
	AutomatedTasks map[string]bool `json:"automated_tasks,omitempty"`

	// Custom holds free-form deployment settings.
	Custom map[string]any `json:"custom_settings,omitempty"`
}

// DefaultConfig returns the stock center configuration.
func DefaultConfig() Config {
	return Config{
		AlertRetentionDays:   30,
		MetricsRetentionDays: 7,
		DefaultTaskPriority:  core.PriorityMedium,
		DefaultModel:         "gpt-4",
	}
}

// AdminCrew is the administrative delegation surface consumed by the
// center. *crew.AdminCrew satisfies it.
type AdminCrew interface {
	HandleSystemIncident(ctx context.Context, incident crew.IncidentDetails) (*crew.Result, error)
	PerformSystemHealthCheck(ctx context.Context) (*crew.Result, error)
	ReviewUserPermissions(ctx context.Context, userID string) (*crew.Result, error)
	ReviewModeElevation(ctx context.Context, req crew.ElevationRequest) (*crew.Result, error)
	CheckSecurityStatus(ctx context.Context) (*crew.Result, error)
}

// MonitoringCrew is the monitoring delegation surface consumed by the
// center. *crew.MonitoringCrew satisfies it.
type MonitoringCrew interface {
	CoordinateAICouncil(ctx context.Context) (*crew.Result, error)
	AnalyzeAIBehavior(ctx context.Context, behaviorData map[string]any) (*crew.Result, error)
	OptimizeOperationMode(ctx context.Context, mode core.Mode, usageData map[string]any) (*crew.Result, error)
}

// Options configures a Center instance.
type Options struct {
	Config     Config
	Logger     logging.Logger
	Admin      AdminCrew
	Monitoring MonitoringCrew

	// Reports archives delegation findings keyed by tracking task id.
	// Nil disables archiving.
	Reports core.ReportStore
}

// Center coordinates system monitoring and management: it owns the
// component, alert, task and metrics ledgers and delegates investigative
// work to the agent crews. All methods are safe for concurrent use.
type Center struct {
	config  Config
	logger  logging.Logger
	admin   AdminCrew
	monitor MonitoringCrew
	reports core.ReportStore

	mu         sync.RWMutex
	components map[string]*core.Component
	alerts     []*core.Alert
	metrics    []core.Metrics
	tasks      map[string]*core.Task
}

// New creates a Center. Crews are optional: without one the matching
// delegation operations return ErrCrewNotInitialized.
func New(optFns ...func(*Options)) *Center {
	opts := Options{
		Config: DefaultConfig(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Center{
		config:     opts.Config,
		logger:     opts.Logger,
		admin:      opts.Admin,
		monitor:    opts.Monitoring,
		reports:    opts.Reports,
		components: make(map[string]*core.Component),
		tasks:      make(map[string]*core.Task),
	}

	if c.admin == nil || c.monitor == nil {
		c.logger.Warn("center.crews.missing", "detail", "crew functionality will be limited")
	}

	c.logger.Info("center.initialized", "autonomous_mode", c.config.EnableAutonomousMode)

	return c
}

// Config returns the center configuration.
func (c *Center) Config() Config { return c.config }

// RegisterComponent registers a component, overwriting any previous record
// with the same name.
func (c *Center) RegisterComponent(name string, status core.SystemStatus, description string) {
	c.mu.Lock()
	c.components[name] = &core.Component{
		Name:        name,
		Status:      status,
		Description: description,
		LastUpdated: time.Now(),
	}
	c.mu.Unlock()

	c.logger.Info("center.component.registered", "component", name, "status", status)
}

// UpdateComponentStatus updates a component's status and merges details into
// its record. Unknown components are silently registered first.
func (c *Center) UpdateComponentStatus(name string, status core.SystemStatus, details map[string]any) {
	c.mu.Lock()
	comp, ok := c.components[name]
	if !ok {
		c.logger.Warn("center.component.unregistered_update", "component", name)
		comp = &core.Component{Name: name}
		c.components[name] = comp
	}

	comp.Status = status
	comp.LastUpdated = time.Now()

	if len(details) > 0 {
		if comp.Details == nil {
			comp.Details = make(map[string]any, len(details))
		}
		for k, v := range details {
			comp.Details[k] = v
		}
	}
	c.mu.Unlock()

	c.logger.Info("center.component.updated", "component", name, "status", status)
}

// Component returns a copy of the named component record.
func (c *Center) Component(name string) (*core.Component, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	comp, ok := c.components[name]
	if !ok {
		return nil, false
	}
	return comp.Clone(), true
}

// Components returns a snapshot of all component records keyed by name.
func (c *Center) Components() map[string]*core.Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]*core.Component, len(c.components))
	for name, comp := range c.components {
		snapshot[name] = comp.Clone()
	}
	return snapshot
}

// CreateAlert raises a new alert. Critical alerts trigger autonomous
// incident handling when the center is configured for it; the delegation
// outcome is logged, not returned, so alert creation itself never fails.
func (c *Center) CreateAlert(ctx context.Context, level core.AlertLevel, title, description, component string, details map[string]any) *core.Alert {
	alert := &core.Alert{
		ID:          uuid.NewString(),
		Level:       level,
		Title:       title,
		Description: description,
		Component:   component,
		Timestamp:   time.Now(),
		Details:     details,
	}

	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	c.mu.Unlock()

	c.logger.Info("center.alert.created", "alert_id", alert.ID, "title", title, "level", level)

	if level == core.AlertCritical && c.config.EnableAutonomousMode {
		if _, err := c.HandleCriticalAlert(ctx, alert.Clone()); err != nil {
			c.logger.Error("center.alert.autonomous_failed", "alert_id", alert.ID, "error", err)
		}
	}

	return alert.Clone()
}

// ResolveAlert marks an alert resolved. The resolution fields are set
// exactly once: resolving an unknown or already-resolved alert returns nil
// with a warning log.
func (c *Center) ResolveAlert(alertID, resolution string) *core.Alert {
	c.mu.Lock()
	for _, alert := range c.alerts {
		if alert.ID == alertID && !alert.Resolved {
			now := time.Now()
			alert.Resolved = true
			alert.ResolvedAt = &now
			alert.Resolution = &resolution
			clone := alert.Clone()
			c.mu.Unlock()

			c.logger.Info("center.alert.resolved", "alert_id", alertID)
			return clone
		}
	}
	c.mu.Unlock()

	c.logger.Warn("center.alert.resolve_unknown", "alert_id", alertID)
	return nil
}

// ActiveAlerts returns unresolved alerts, optionally filtered by component
// and level. Empty filter values match everything.
func (c *Center) ActiveAlerts(component string, level core.AlertLevel) []*core.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var active []*core.Alert
	for _, alert := range c.alerts {
		if alert.Resolved {
			continue
		}
		if component != "" && alert.Component != component {
			continue
		}
		if level != "" && alert.Level != level {
			continue
		}
		active = append(active, alert.Clone())
	}
	return active
}

// RecordMetrics appends a metrics snapshot and prunes snapshots older than
// the retention window. A zero timestamp is stamped with the current time.
func (c *Center) RecordMetrics(m core.Metrics) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.metrics = append(c.metrics, m)
	c.pruneMetricsLocked()
	c.mu.Unlock()

	c.logger.Debug("center.metrics.recorded")
}

func (c *Center) pruneMetricsLocked() {
	if c.config.MetricsRetentionDays == 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -c.config.MetricsRetentionDays)
	kept := c.metrics[:0]
	for _, m := range c.metrics {
		if m.Timestamp.After(cutoff) {
			kept = append(kept, m)
		}
	}
	c.metrics = kept
}

// RecentMetrics returns snapshots recorded within the last given hours.
func (c *Center) RecentMetrics(hours int) []core.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var recent []core.Metrics
	for _, m := range c.metrics {
		if m.Timestamp.After(cutoff) {
			recent = append(recent, m)
		}
	}
	return recent
}

// PruneResolvedAlerts drops alerts older than the alert retention window:
// resolved alerts by resolution time, unresolved alerts by creation time.
// It returns the number of alerts removed. Nothing schedules this
// internally; deployments that need bounded alert history must call it
// themselves.
func (c *Center) PruneResolvedAlerts() int {
	if c.config.AlertRetentionDays == 0 {
		return 0
	}

	cutoff := time.Now().AddDate(0, 0, -c.config.AlertRetentionDays)

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.alerts[:0]
	for _, alert := range c.alerts {
		fresh := alert.Timestamp.After(cutoff)
		if alert.Resolved {
			fresh = alert.ResolvedAt != nil && alert.ResolvedAt.After(cutoff)
		}
		if fresh {
			kept = append(kept, alert)
		}
	}

	removed := len(c.alerts) - len(kept)
	c.alerts = kept

	if removed > 0 {
		c.logger.Info("center.alerts.pruned", "removed", removed)
	}
	return removed
}

// CreateTask creates a tracking task in pending status. An empty priority
// falls back to the configured default.
func (c *Center) CreateTask(title, description, priority, assignedTo string, details map[string]any) *core.Task {
	if priority == "" {
		priority = c.config.DefaultTaskPriority
	}

	now := time.Now()
	task := &core.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      core.TaskPending,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		AssignedTo:  assignedTo,
		Details:     details,
	}

	c.mu.Lock()
	c.tasks[task.ID] = task
	c.mu.Unlock()

	c.logger.Info("center.task.created", "task_id", task.ID, "title", title)
	return task.Clone()
}

// UpdateTaskStatus moves a task to the given status. Transitions are
// unchecked; only the move to completed records the completion timestamp
// and result payload. Unknown ids return nil with a warning log.
func (c *Center) UpdateTaskStatus(taskID string, status core.TaskStatus, result any) *core.Task {
	c.mu.Lock()
	task, ok := c.tasks[taskID]
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("center.task.update_unknown", "task_id", taskID)
		return nil
	}

	task.Status = status
	task.UpdatedAt = time.Now()

	if status == core.TaskCompleted {
		now := time.Now()
		task.CompletedAt = &now
		task.Result = result
	}

	clone := task.Clone()
	c.mu.Unlock()

	c.logger.Info("center.task.updated", "task_id", taskID, "status", status)
	return clone
}

// Task returns a copy of the task with the given id.
func (c *Center) Task(taskID string) (*core.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

// TasksByStatus returns all tasks currently in the given status.
func (c *Center) TasksByStatus(status core.TaskStatus) []*core.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []*core.Task
	for _, task := range c.tasks {
		if task.Status == status {
			matched = append(matched, task.Clone())
		}
	}
	return matched
}
