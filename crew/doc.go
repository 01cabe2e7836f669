// Package crew contains the role-agent crews that handle administrative and
// monitoring work for the control center. The package focuses on three
// concerns:
//
//  1. Agent profiles (Agent): named personas rendered into system prompts
//  2. Task prompts (Task): templated work descriptions bound to an agent
//  3. Coordination (Crew): sequential and parallel execution of task sets
//
// Design principles:
//   - Stateless execution – a crew run is a series of model calls; all state
//     lives in the run's transcript and the returned Result
//   - Composability – AdminCrew and MonitoringCrew bundle profiles and task
//     builders into ready-made operations; custom crews use New directly
//   - Observability – run, task and failure logging at every step
//
// Execution Model:
//   - Run executes tasks in order, each agent seeing prior findings
//   - RunParallel fans independent tasks out concurrently
//   - Council layers panel deliberation plus a synthesis pass on top of Crew
//
// The package intentionally keeps model specifics and memory persistence in
// their respective packages to avoid cyclic deps.
package crew
