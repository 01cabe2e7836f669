// Package engine routes user requests to tiered processing engines and
// tracks their execution.
//
// The package is organized around three concerns:
//
//  1. Tier resolution: every permission mode maps to exactly one processing
//     tier (TierConfig). Higher tiers coordinate more council agents, run
//     richer workflows, and lean harder on knowledge retrieval. Unrecognized
//     modes fall back to the lowest tier instead of erroring.
//
//  2. Pipeline stages: a request flows through a fixed Stage sequence of
//     permission check, mode routing, and tier dispatch. Stages communicate
//     through a shared State rather than return values, so a later stage
//     always sees what an earlier stage decided. Stage failures are recorded
//     in the state where possible; only infrastructure faults surface as
//     errors.
//
//  3. Request control: Control is the public entry point. It runs the
//     pipeline, keeps an in-memory ledger of requests keyed by id, and
//     exposes status reporting, active-request listing, and advisory
//     cancellation on top of that ledger.
//
// Collaborators (agent council, knowledge retriever, tool source) are
// optional. A tier missing its collaborators degrades to a simulated
// response instead of failing, which keeps the surface usable in partial
// deployments where only some subsystems are connected.
package engine
