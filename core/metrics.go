package core

import "time"

// Metrics is a point-in-time snapshot of platform resource usage and request
// throughput. Snapshots are append-only and pruned by a retention window.
type Metrics struct {
	Timestamp         time.Time                     `json:"timestamp"`
	CPUUsage          float64                       `json:"cpu_usage"`
	MemoryUsage       float64                       `json:"memory_usage"`
	DiskUsage         float64                       `json:"disk_usage"`
	ResponseTimeMS    float64                       `json:"response_time_ms"`
	ActiveUsers       int                           `json:"active_users"`
	RequestsPerMinute int                           `json:"requests_per_minute"`
	ErrorsPerMinute   int                           `json:"errors_per_minute"`
	ComponentMetrics  map[string]map[string]float64 `json:"component_metrics,omitempty"`
	Custom            map[string]any                `json:"custom_metrics,omitempty"`
}
