package crew

import (
	"context"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/model"
)

// MonitoringCrew handles system monitoring and AI coordination work. It
// wires the monitoring and ai_coordinator profiles into a crew and exposes
// one method per monitoring operation. Each operation replaces the previous
// task queue before running.
type MonitoringCrew struct {
	crew        *Crew
	monitor     *Agent
	coordinator *Agent
}

// NewMonitoringCrew creates the monitoring crew on top of the given model
// backend.
func NewMonitoringCrew(m model.Model, optFns ...func(*Options)) (*MonitoringCrew, error) {
	monitor, err := NewAgent(KindMonitoring)
	if err != nil {
		return nil, err
	}

	coordinator, err := NewAgent(KindAICoordinator)
	if err != nil {
		return nil, err
	}

	return &MonitoringCrew{
		crew:        New("MonitoringCrew", m, []*Agent{monitor, coordinator}, optFns...),
		monitor:     monitor,
		coordinator: coordinator,
	}, nil
}

// Crew exposes the underlying crew for custom task queues.
func (m *MonitoringCrew) Crew() *Crew { return m.crew }

// CoordinateAICouncil reviews and steers the agent council's coordination.
func (m *MonitoringCrew) CoordinateAICouncil(ctx context.Context) (*Result, error) {
	m.crew.ResetTasks()
	m.crew.AddTask(NewCouncilCoordinationTask(m.coordinator.Name))
	return m.crew.Run(ctx)
}

// AnalyzeAIBehavior analyzes AI behavior patterns from the given data.
func (m *MonitoringCrew) AnalyzeAIBehavior(ctx context.Context, behaviorData map[string]any) (*Result, error) {
	m.crew.ResetTasks()
	m.crew.AddTask(NewBehaviorAnalysisTask(m.coordinator.Name, behaviorData))
	return m.crew.Run(ctx)
}

// OptimizeOperationMode analyzes usage data for one of the operation modes
// and proposes configuration improvements.
func (m *MonitoringCrew) OptimizeOperationMode(ctx context.Context, mode core.Mode, usageData map[string]any) (*Result, error) {
	m.crew.ResetTasks()
	m.crew.AddTask(NewModeOptimizationTask(m.coordinator.Name, mode, usageData))
	return m.crew.Run(ctx)
}

// AnalyzeComponentPerformance analyzes and optimizes a component based on
// its performance metrics.
func (m *MonitoringCrew) AnalyzeComponentPerformance(ctx context.Context, componentName string, metrics map[string]any) (*Result, error) {
	m.crew.ResetTasks()
	m.crew.AddTask(NewPerformanceOptimizationTask(m.monitor.Name, componentName, metrics))
	return m.crew.Run(ctx)
}

// AnalyzeAIErrors analyzes AI system error data for root causes and
// patterns.
func (m *MonitoringCrew) AnalyzeAIErrors(ctx context.Context, errorData map[string]any) (*Result, error) {
	m.crew.ResetTasks()
	m.crew.AddTask(NewErrorAnalysisTask(m.coordinator.Name, errorData))
	return m.crew.Run(ctx)
}

// SurveySystem probes both crew members concurrently: the monitor checks
// component health while the coordinator reviews council coordination. The
// probes are independent, so they fan out in parallel.
func (m *MonitoringCrew) SurveySystem(ctx context.Context) (*Result, error) {
	m.crew.ResetTasks()
	m.crew.AddTask(NewSystemHealthCheckTask(m.monitor.Name))
	m.crew.AddTask(NewCouncilCoordinationTask(m.coordinator.Name))
	return m.crew.RunParallel(ctx)
}
