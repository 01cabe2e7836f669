package core

import (
	"strings"
	"time"
)

// AlertLevel enumerates alert severities in increasing order of urgency.
type AlertLevel string

const (
	// AlertInfo is an informational notice.
	AlertInfo AlertLevel = "info"
	// AlertWarning flags a condition that needs attention but not action.
	AlertWarning AlertLevel = "warning"
	// AlertError flags a failure in a component.
	AlertError AlertLevel = "error"
	// AlertCritical flags a failure requiring immediate response; critical
	// alerts can trigger autonomous incident handling.
	AlertCritical AlertLevel = "critical"
)

// ParseAlertLevel matches s case-insensitively against the known levels.
// Unknown input returns (AlertInfo, false).
func ParseAlertLevel(s string) (AlertLevel, bool) {
	switch AlertLevel(strings.ToLower(strings.TrimSpace(s))) {
	case AlertInfo:
		return AlertInfo, true
	case AlertWarning:
		return AlertWarning, true
	case AlertError:
		return AlertError, true
	case AlertCritical:
		return AlertCritical, true
	default:
		return AlertInfo, false
	}
}

// Alert is the ledger record for one raised alert. Resolution is a monotonic
// transition: ResolvedAt and Resolution are set exactly once, on first
// resolution, and never change afterwards.
type Alert struct {
	ID          string         `json:"alert_id"`
	Level       AlertLevel     `json:"level"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Component   string         `json:"component,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Resolved    bool           `json:"resolved"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	Resolution  *string        `json:"resolution,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// Clone returns a copy with independent Details and pointer fields.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Details = cloneDetails(a.Details)
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		cp.ResolvedAt = &t
	}
	if a.Resolution != nil {
		r := *a.Resolution
		cp.Resolution = &r
	}
	return &cp
}
