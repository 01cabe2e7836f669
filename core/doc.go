// Package core provides the foundational domain types and collaborator
// contracts shared by the Space WH subsystems. It defines:
//
//   - Ledger records (Component, Alert, Task, Metrics) and their status enums
//   - Mode, the four-tier permission enumeration driving routing and access
//   - Collaborator interfaces (Council, Retriever, ToolSource) consumed by the
//     engine control layer
//   - Pluggable stores for persistent user memory and archived crew reports
//
// The package intentionally keeps implementation concerns (ledger bookkeeping,
// engine orchestration, concrete crews) out of scope, exposing small
// interfaces so subsystems depend on contracts rather than each other.
package core
