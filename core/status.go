package core

import (
	"strings"
	"time"
)

// SystemStatus enumerates the health states a platform component can report.
type SystemStatus string

const (
	// StatusOperational indicates the component is fully functional.
	StatusOperational SystemStatus = "operational"
	// StatusDegraded indicates the component works with reduced capability.
	StatusDegraded SystemStatus = "degraded"
	// StatusDown indicates the component is not functioning.
	StatusDown SystemStatus = "down"
	// StatusMaintenance indicates a planned unavailability window.
	StatusMaintenance SystemStatus = "maintenance"
	// StatusUnknown is the fallback when a component has never reported.
	StatusUnknown SystemStatus = "unknown"
)

// ParseSystemStatus matches s case-insensitively against the known statuses.
// Unknown input returns (StatusUnknown, false).
func ParseSystemStatus(s string) (SystemStatus, bool) {
	switch SystemStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOperational:
		return StatusOperational, true
	case StatusDegraded:
		return StatusDegraded, true
	case StatusDown:
		return StatusDown, true
	case StatusMaintenance:
		return StatusMaintenance, true
	case StatusUnknown:
		return StatusUnknown, true
	default:
		return StatusUnknown, false
	}
}

// Component is the ledger record for one registered platform component.
// Records are mutated in place on status updates and never deleted.
type Component struct {
	Name        string         `json:"name"`
	Status      SystemStatus   `json:"status"`
	Description string         `json:"description,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
	Details     map[string]any `json:"details,omitempty"`
}

// Clone returns a copy with an independent Details map.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Details = cloneDetails(c.Details)
	return &cp
}

func cloneDetails(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
