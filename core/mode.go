package core

import "strings"

// Mode is a named permission tier controlling which tools and which
// processing engine a user may access. The four modes form an increasing
// lattice: each tier carries every permission of the tier below it.
type Mode string

const (
	// ModeArchivist is the lowest tier: basic tools and knowledge reads.
	ModeArchivist Mode = "archivist"
	// ModeOrchestrator adds knowledge writes and advanced tools.
	ModeOrchestrator Mode = "orchestrator"
	// ModeGodfather adds administrative tooling.
	ModeGodfather Mode = "godfather"
	// ModeEntity is the unrestricted top tier.
	ModeEntity Mode = "entity"
)

// ParseMode matches s case-insensitively against the four modes. Unknown
// input (including empty) returns (ModeArchivist, false) so callers can
// default to the lowest tier with a warning instead of erroring.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeArchivist:
		return ModeArchivist, true
	case ModeOrchestrator:
		return ModeOrchestrator, true
	case ModeGodfather:
		return ModeGodfather, true
	case ModeEntity:
		return ModeEntity, true
	default:
		return ModeArchivist, false
	}
}

// String returns the mode name.
func (m Mode) String() string { return string(m) }

// AllModes lists the modes from lowest to highest tier.
func AllModes() []Mode {
	return []Mode{ModeArchivist, ModeOrchestrator, ModeGodfather, ModeEntity}
}
