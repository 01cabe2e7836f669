package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// -------------------- Parse Tests --------------------

func TestParseMode(t *testing.T) {
	for _, in := range []string{"archivist", "ARCHIVIST", " Archivist "} {
		m, ok := ParseMode(in)
		assert.True(t, ok, in)
		assert.Equal(t, ModeArchivist, m)
	}

	m, ok := ParseMode("Entity")
	assert.True(t, ok)
	assert.Equal(t, ModeEntity, m)

	// Unknown input falls back to the lowest tier.
	m, ok = ParseMode("superuser")
	assert.False(t, ok)
	assert.Equal(t, ModeArchivist, m)

	m, ok = ParseMode("")
	assert.False(t, ok)
	assert.Equal(t, ModeArchivist, m)
}

func TestParseSystemStatus(t *testing.T) {
	s, ok := ParseSystemStatus("Operational")
	assert.True(t, ok)
	assert.Equal(t, StatusOperational, s)

	s, ok = ParseSystemStatus("DEGRADED")
	assert.True(t, ok)
	assert.Equal(t, StatusDegraded, s)

	s, ok = ParseSystemStatus("bogus")
	assert.False(t, ok)
	assert.Equal(t, StatusUnknown, s)
}

func TestParseAlertLevel(t *testing.T) {
	lv, ok := ParseAlertLevel("critical")
	assert.True(t, ok)
	assert.Equal(t, AlertCritical, lv)

	lv, ok = ParseAlertLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, AlertWarning, lv)

	lv, ok = ParseAlertLevel("nope")
	assert.False(t, ok)
	assert.Equal(t, AlertInfo, lv)
}

func TestParseTaskStatus(t *testing.T) {
	st, ok := ParseTaskStatus("In_Progress")
	assert.True(t, ok)
	assert.Equal(t, TaskInProgress, st)

	st, ok = ParseTaskStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, TaskCompleted, st)

	st, ok = ParseTaskStatus("")
	assert.False(t, ok)
	assert.Equal(t, TaskPending, st)
}

func TestAllModesOrdered(t *testing.T) {
	modes := AllModes()
	assert.Equal(t, []Mode{ModeArchivist, ModeOrchestrator, ModeGodfather, ModeEntity}, modes)
}

// -------------------- Clone Tests --------------------

func TestComponentCloneIsolation(t *testing.T) {
	c := Component{
		Name:        "database",
		Status:      StatusOperational,
		Description: "primary store",
		LastUpdated: time.Now().UTC(),
		Details:     map[string]any{"replicas": 3},
	}
	clone := c.Clone()
	clone.Details["replicas"] = 5
	clone.Status = StatusDown

	assert.Equal(t, 3, c.Details["replicas"])
	assert.Equal(t, StatusOperational, c.Status)
}

func TestAlertCloneIsolation(t *testing.T) {
	resolvedAt := time.Now().UTC()
	resolution := "restarted"
	a := Alert{
		ID:         "a-1",
		Level:      AlertError,
		Title:      "db down",
		Component:  "database",
		Timestamp:  time.Now().UTC(),
		Resolved:   true,
		ResolvedAt: &resolvedAt,
		Resolution: &resolution,
		Details:    map[string]any{"attempts": 2},
	}
	clone := a.Clone()
	*clone.ResolvedAt = clone.ResolvedAt.Add(time.Hour)
	*clone.Resolution = "rebuilt"
	clone.Details["attempts"] = 9

	assert.Equal(t, resolvedAt, *a.ResolvedAt)
	assert.Equal(t, "restarted", *a.Resolution)
	assert.Equal(t, 2, a.Details["attempts"])
}

func TestTaskCloneIsolation(t *testing.T) {
	completedAt := time.Now().UTC()
	tk := Task{
		ID:          "t-1",
		Title:       "health check",
		Status:      TaskCompleted,
		Priority:    PriorityHigh,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		AssignedTo:  "admin_crew",
		CompletedAt: &completedAt,
		Result:      "all clear",
		Details:     map[string]any{"checks": 12},
	}
	clone := tk.Clone()
	*clone.CompletedAt = clone.CompletedAt.Add(time.Minute)
	clone.Details["checks"] = 0

	assert.Equal(t, completedAt, *tk.CompletedAt)
	assert.Equal(t, 12, tk.Details["checks"])
	assert.Equal(t, "all clear", clone.Result)
}

// -------------------- ModelLimiter Tests --------------------

func TestModelLimiter(t *testing.T) {
	ml := NewModelLimiter(2)
	assert.NoError(t, ml.Increment())
	assert.NoError(t, ml.Increment())
	assert.Error(t, ml.Increment())
	assert.Equal(t, 3, ml.Count())

	unlimited := NewModelLimiter(0)
	for i := 0; i < 10; i++ {
		assert.NoError(t, unlimited.Increment())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}
