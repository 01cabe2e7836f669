package core

import (
	"strings"
	"time"
)

// TaskStatus enumerates the lifecycle states of a tracked task. Transitions
// are deliberately unchecked: any status may follow any other.
type TaskStatus string

const (
	// TaskPending is the initial status of every created task.
	TaskPending TaskStatus = "pending"
	// TaskInProgress marks a task being worked on.
	TaskInProgress TaskStatus = "in_progress"
	// TaskCompleted is the successful terminal status; reaching it sets the
	// completion timestamp and result payload.
	TaskCompleted TaskStatus = "completed"
	// TaskFailed is the unsuccessful terminal status.
	TaskFailed TaskStatus = "failed"
	// TaskCancelled marks a task abandoned before completion.
	TaskCancelled TaskStatus = "cancelled"
)

// ParseTaskStatus matches s case-insensitively against the known statuses.
// Unknown input returns (TaskPending, false).
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case TaskPending:
		return TaskPending, true
	case TaskInProgress:
		return TaskInProgress, true
	case TaskCompleted:
		return TaskCompleted, true
	case TaskFailed:
		return TaskFailed, true
	case TaskCancelled:
		return TaskCancelled, true
	default:
		return TaskPending, false
	}
}

// Task priorities used across the platform. Priority is an open string; these
// are the conventional values.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Task is the ledger record for one unit of tracked work, typically wrapping
// a delegated crew operation.
type Task struct {
	ID          string         `json:"task_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      TaskStatus     `json:"status"`
	Priority    string         `json:"priority"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	AssignedTo  string         `json:"assigned_to,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      any            `json:"result,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// Clone returns a copy with independent Details and pointer fields. Result is
// shared: payloads are treated as immutable once recorded.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Details = cloneDetails(t.Details)
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		cp.CompletedAt = &ts
	}
	return &cp
}
