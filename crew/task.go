package crew

import (
	"fmt"
	"strings"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/internal/util"
)

// Task is a unit of crew work: a description of what to do, the shape of the
// expected output and the name of the agent responsible for it. Dynamic
// details are substituted into Description through template markers rendered
// against Details.
type Task struct {
	Description    string         `json:"description"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
	AgentName      string         `json:"agent"`
	Details        map[string]any `json:"details,omitempty"`
}

// Prompt renders the task into the user prompt sent to the model.
func (t Task) Prompt() (string, error) {
	desc, err := util.RenderTemplate(t.Description, t.Details)
	if err != nil {
		return "", fmt.Errorf("render task description: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(desc)
	if t.ExpectedOutput != "" {
		sb.WriteString("\n\nExpected output: ")
		sb.WriteString(t.ExpectedOutput)
	}
	return sb.String(), nil
}

// IncidentDetails describes a system incident handed to the admin crew,
// typically derived from a critical alert.
type IncidentDetails struct {
	Title       string         `json:"title"`
	Component   string         `json:"component"`
	Description string         `json:"description"`
	AlertID     string         `json:"alert_id,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// ElevationRequest describes a user's request to move to a higher
// permission mode.
type ElevationRequest struct {
	UserID        string    `json:"user_id"`
	CurrentMode   core.Mode `json:"current_mode"`
	RequestedMode core.Mode `json:"requested_mode"`
	Justification string    `json:"justification"`
}

// NewSystemHealthCheckTask creates a task to check overall system health.
func NewSystemHealthCheckTask(agentName string) Task {
	return Task{
		Description: "Perform a comprehensive health check of all system components. " +
			"Analyze their current status, performance metrics, and identify any issues. " +
			"Create a detailed report with your findings including any recommendations.",
		ExpectedOutput: "A detailed health report with status of all components, identified issues, " +
			"performance analysis, and specific recommendations for improvements or fixes.",
		AgentName: agentName,
	}
}

// NewIncidentResponseTask creates a task to respond to a system incident.
func NewIncidentResponseTask(agentName string, incident IncidentDetails) Task {
	return Task{
		Description: `Investigate and respond to the following incident: {{default "Unknown incident" .title}}. ` +
			`The incident was detected in component: {{default "unknown" .component}}. ` +
			`Details: {{default "No details provided" .description}}. ` +
			"Analyze the incident, determine its impact, propose a solution, and take appropriate actions.",
		ExpectedOutput: "A comprehensive incident report including analysis of the incident, steps taken to address it, " +
			"current status, and recommendations to prevent similar incidents in the future.",
		AgentName: agentName,
		Details: map[string]any{
			"title":       incident.Title,
			"component":   incident.Component,
			"description": incident.Description,
			"alert_id":    incident.AlertID,
		},
	}
}

// NewPerformanceOptimizationTask creates a task to analyze and optimize a
// component based on recorded metrics.
func NewPerformanceOptimizationTask(agentName, componentName string, metrics map[string]any) Task {
	return Task{
		Description: "Analyze the performance of {{.component_name}} based on the provided metrics. " +
			"Identify bottlenecks, inefficiencies, or areas for improvement. " +
			"Create an optimization plan to enhance the component's performance.",
		ExpectedOutput: "A detailed optimization plan including specific issues identified, " +
			"recommended changes, expected improvements, and implementation steps.",
		AgentName: agentName,
		Details: map[string]any{
			"component_name": componentName,
			"metrics":        metrics,
		},
	}
}

// NewCouncilCoordinationTask creates a task to review and steer the agent
// council's coordination.
func NewCouncilCoordinationTask(agentName string) Task {
	return Task{
		Description: "Coordinate with the AI Council to ensure optimal agent performance. " +
			"Review recent AI Council activities, analyze their decision patterns, and " +
			"provide guidance on improving multi-agent coordination and efficiency.",
		ExpectedOutput: "A coordination report detailing AI Council performance analysis, identified " +
			"improvement areas, recommended adjustments to agent behaviors, and " +
			"specific guidance for enhancing multi-agent coordination.",
		AgentName: agentName,
	}
}

// NewBehaviorAnalysisTask creates a task to analyze AI behavior patterns.
func NewBehaviorAnalysisTask(agentName string, behaviorData map[string]any) Task {
	return Task{
		Description: "Analyze the provided AI behavior data to identify patterns, anomalies, or potential issues. " +
			"Focus on decision consistency, reasoning patterns, potential biases, and alignment with " +
			"system objectives. Provide recommendations for behavior optimization.",
		ExpectedOutput: "A comprehensive behavior analysis report with identified patterns, anomalies, " +
			"evaluation of alignment with objectives, and specific recommendations for " +
			"adjustments to improve AI decision-making quality and consistency.",
		AgentName: agentName,
		Details: map[string]any{
			"behavior_data": behaviorData,
		},
	}
}

// NewModeOptimizationTask creates a task to optimize one of the operation
// modes based on usage data.
func NewModeOptimizationTask(agentName string, mode core.Mode, usageData map[string]any) Task {
	return Task{
		Description: "Analyze and optimize the '{{.mode}}' operational mode based on the provided usage data. " +
			"Evaluate the effectiveness, efficiency, and user satisfaction of this mode. " +
			"Identify specific areas for improvement in agent configuration, tool usage, and response quality.",
		ExpectedOutput: "A detailed optimization plan for the mode including specific configuration changes, " +
			"tool access adjustments, agent behavior modifications, and expected improvements in " +
			"performance metrics and user satisfaction.",
		AgentName: agentName,
		Details: map[string]any{
			"mode":       string(mode),
			"usage_data": usageData,
		},
	}
}

// NewErrorAnalysisTask creates a task to analyze AI system errors.
func NewErrorAnalysisTask(agentName string, errorData map[string]any) Task {
	return Task{
		Description: "Analyze the provided AI system error data to identify root causes, patterns, and systemic issues. " +
			"Focus on understanding why these errors occurred, their impact on system performance, " +
			"and how they can be prevented in the future.",
		ExpectedOutput: "A comprehensive error analysis report with categorized error types, identified root causes, " +
			"impact assessment, error patterns, and specific recommendations for addressing each " +
			"error category and preventing similar issues in the future.",
		AgentName: agentName,
		Details: map[string]any{
			"error_data": errorData,
		},
	}
}

// NewUserPermissionReviewTask creates a task to review a user's permissions
// and access level.
func NewUserPermissionReviewTask(agentName, userID string) Task {
	return Task{
		Description: "Review the permissions and access levels for user {{.user_id}}. " +
			"Analyze their current permissions, usage patterns, and any recent access requests. " +
			"Determine if their current access level is appropriate, and recommend any changes.",
		ExpectedOutput: "A detailed permission review report including current permissions, usage analysis, " +
			"identified issues or anomalies, and specific recommendations for permission adjustments.",
		AgentName: agentName,
		Details: map[string]any{
			"user_id": userID,
		},
	}
}

// NewModeElevationReviewTask creates a task to review a mode elevation
// request.
func NewModeElevationReviewTask(agentName string, req ElevationRequest) Task {
	return Task{
		Description: "Review user {{.user_id}}'s request to elevate from {{.current_mode}} mode to {{.requested_mode}} mode. " +
			"Their justification is: '{{default \"none given\" .justification}}'. " +
			"Analyze the user's history, permissions, and the validity of their justification. " +
			"Determine whether this mode elevation should be approved or denied.",
		ExpectedOutput: "A comprehensive review decision including analysis of the user's history, the validity " +
			"of their justification, security considerations, any recommended restrictions or " +
			"conditions, and a clear approval or denial recommendation with rationale.",
		AgentName: agentName,
		Details: map[string]any{
			"user_id":        req.UserID,
			"current_mode":   string(req.CurrentMode),
			"requested_mode": string(req.RequestedMode),
			"justification":  req.Justification,
		},
	}
}

// NewSecurityAssessmentTask creates a task to assess the overall security
// posture of the system.
func NewSecurityAssessmentTask(agentName string) Task {
	return Task{
		Description: "Perform a comprehensive security assessment of the Space WH system. " +
			"Check for unauthorized access attempts, suspicious activities, " +
			"potential vulnerabilities, and overall security posture.",
		ExpectedOutput: "A detailed security report including current threats, " +
			"vulnerabilities, suspicious activities detected, and " +
			"specific security recommendations.",
		AgentName: agentName,
	}
}
