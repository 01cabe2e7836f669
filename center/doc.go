// Package center implements the control center: in-memory ledgers for
// component health, alerts, tasks and metrics, plus delegation of
// investigative and administrative work to the agent crews.
//
// Ledger semantics are deliberately forgiving. Component registration
// upserts, status updates silently register unknown components, unknown ids
// resolve to nil results with a warning log, and task status transitions are
// unchecked. Callers never receive an error from a plain ledger operation.
//
// Delegated operations are different: each wraps a crew call in a tracking
// task whose terminal status mirrors the crew's outcome, and reports the
// outcome as an explicit *Delegation or *DelegationError so failure paths
// stay statically visible. Crew failures never escape as panics.
package center
