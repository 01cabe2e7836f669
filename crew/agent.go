package crew

import (
	"fmt"
	"sort"
	"strings"
)

// Agent is a role profile for a crew member. Profiles carry no execution
// state: each assigned task becomes a single model call whose system prompt
// is rendered from the profile via Instructions.
type Agent struct {
	Name            string  // Unique name used to assign tasks within a crew
	Role            string  // Short role title
	Goal            string  // What the agent works toward
	Backstory       string  // Persona framing appended to the system prompt
	Temperature     float64 // Sampling temperature hint for model calls
	AllowDelegation bool    // Whether the agent may hand work to crew mates
}

// Instructions renders the profile into the system prompt used for every
// task assigned to this agent.
func (a *Agent) Instructions() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, working as %s.\n\n", a.Name, a.Role)
	fmt.Fprintf(&sb, "Goal: %s\n\n", a.Goal)
	sb.WriteString(a.Backstory)
	return sb.String()
}

// Built-in agent kinds accepted by NewAgent.
const (
	KindSystemAdmin   = "system_admin"
	KindMonitoring    = "monitoring"
	KindAICoordinator = "ai_coordinator"
	KindUserManager   = "user_manager"
	KindSecurity      = "security"
)

var creators = map[string]func() *Agent{
	KindSystemAdmin:   newSystemAdminAgent,
	KindMonitoring:    newMonitoringAgent,
	KindAICoordinator: newAICoordinatorAgent,
	KindUserManager:   newUserManagerAgent,
	KindSecurity:      newSecurityAgent,
}

// NewAgent builds one of the built-in agent profiles by kind.
func NewAgent(kind string) (*Agent, error) {
	creator, ok := creators[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported agent type: %s", kind)
	}
	return creator(), nil
}

// AgentKinds returns the sorted list of built-in agent kinds.
func AgentKinds() []string {
	kinds := make([]string, 0, len(creators))
	for kind := range creators {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func newSystemAdminAgent() *Agent {
	return &Agent{
		Name: "SystemAdministrator",
		Role: "System Administrator",
		Goal: "Ensure the proper operation and maintenance of the Space WH system",
		Backstory: "You are an experienced system administrator with deep knowledge of AI systems. " +
			"You're responsible for ensuring all components of the Space WH system are running " +
			"properly, making administrative decisions, and coordinating responses to system issues.",
		Temperature:     0.2,
		AllowDelegation: true,
	}
}

func newMonitoringAgent() *Agent {
	return &Agent{
		Name: "SystemMonitor",
		Role: "System Monitoring Specialist",
		Goal: "Monitor and analyze system health, performance, and detect anomalies",
		Backstory: "You are a vigilant system monitor with expertise in performance analysis and anomaly detection. " +
			"You continuously watch over the Space WH system to identify and report potential issues, " +
			"bottlenecks, or unusual patterns that might affect system performance or reliability.",
		Temperature: 0.1,
	}
}

func newAICoordinatorAgent() *Agent {
	return &Agent{
		Name: "AICoordinator",
		Role: "AI Systems Coordinator",
		Goal: "Manage AI components, coordinate responses, and ensure optimal AI behavior",
		Backstory: "You are an expert in AI systems management with specialized knowledge in multi-agent architectures. " +
			"Your role is to coordinate the AI components of the Space WH system, analyze AI-related issues, " +
			"and ensure all AI systems are functioning optimally and ethically.",
		Temperature:     0.2,
		AllowDelegation: true,
	}
}

func newUserManagerAgent() *Agent {
	return &Agent{
		Name: "UserManager",
		Role: "User Management Specialist",
		Goal: "Manage user accounts, permissions, and ensure proper access controls",
		Backstory: "You are a meticulous user management specialist with expertise in access control systems. " +
			"Your role is to manage user accounts, handle permissions, mode changes, and ensure " +
			"users have the appropriate level of access to the system based on their needs and authorization.",
		Temperature: 0.1,
	}
}

func newSecurityAgent() *Agent {
	return &Agent{
		Name: "SecuritySpecialist",
		Role: "Security and Threat Protection Specialist",
		Goal: "Secure the system from threats, monitor for security issues, and respond to incidents",
		Backstory: "You are a security expert with a background in AI systems protection. " +
			"You constantly monitor for potential security threats, unauthorized access attempts, " +
			"and suspicious behaviors. Your role is to ensure the system remains secure and to " +
			"respond appropriately to any security incidents.",
		Temperature:     0.1,
		AllowDelegation: true,
	}
}
