package crew

import (
	"context"

	"github.com/spacewh/spacewh/model"
)

// AdminCrew handles system administration work: incident response, health
// checks, permission reviews and security assessments. It wires the
// system_admin, user_manager and security profiles into a sequential crew
// and exposes one method per administrative operation. Each operation
// replaces the previous task queue before running.
type AdminCrew struct {
	crew        *Crew
	systemAdmin *Agent
	userManager *Agent
	security    *Agent
}

// NewAdminCrew creates the admin crew on top of the given model backend.
func NewAdminCrew(m model.Model, optFns ...func(*Options)) (*AdminCrew, error) {
	systemAdmin, err := NewAgent(KindSystemAdmin)
	if err != nil {
		return nil, err
	}

	userManager, err := NewAgent(KindUserManager)
	if err != nil {
		return nil, err
	}

	security, err := NewAgent(KindSecurity)
	if err != nil {
		return nil, err
	}

	return &AdminCrew{
		crew:        New("AdminCrew", m, []*Agent{systemAdmin, userManager, security}, optFns...),
		systemAdmin: systemAdmin,
		userManager: userManager,
		security:    security,
	}, nil
}

// Crew exposes the underlying crew for custom task queues.
func (a *AdminCrew) Crew() *Crew { return a.crew }

// HandleSystemIncident investigates and responds to a system incident.
func (a *AdminCrew) HandleSystemIncident(ctx context.Context, incident IncidentDetails) (*Result, error) {
	a.crew.ResetTasks()
	a.crew.AddTask(NewIncidentResponseTask(a.systemAdmin.Name, incident))
	return a.crew.Run(ctx)
}

// PerformSystemHealthCheck runs a comprehensive system health check.
func (a *AdminCrew) PerformSystemHealthCheck(ctx context.Context) (*Result, error) {
	a.crew.ResetTasks()
	a.crew.AddTask(NewSystemHealthCheckTask(a.systemAdmin.Name))
	return a.crew.Run(ctx)
}

// ReviewUserPermissions reviews a user's permissions and access level.
func (a *AdminCrew) ReviewUserPermissions(ctx context.Context, userID string) (*Result, error) {
	a.crew.ResetTasks()
	a.crew.AddTask(NewUserPermissionReviewTask(a.userManager.Name, userID))
	return a.crew.Run(ctx)
}

// ReviewModeElevation reviews a user's request for mode elevation.
func (a *AdminCrew) ReviewModeElevation(ctx context.Context, req ElevationRequest) (*Result, error) {
	a.crew.ResetTasks()
	a.crew.AddTask(NewModeElevationReviewTask(a.userManager.Name, req))
	return a.crew.Run(ctx)
}

// CheckSecurityStatus assesses the security posture of the system.
func (a *AdminCrew) CheckSecurityStatus(ctx context.Context) (*Result, error) {
	a.crew.ResetTasks()
	a.crew.AddTask(NewSecurityAssessmentTask(a.security.Name))
	return a.crew.Run(ctx)
}
