package domain

// RunnerStatus mirrors the upstream exchange's runner lifecycle.
type RunnerStatus string

const (
	RunnerActive  RunnerStatus = "ACTIVE"
	RunnerWinner  RunnerStatus = "WINNER"
	RunnerLoser   RunnerStatus = "LOSER"
	RunnerRemoved RunnerStatus = "REMOVED"
	// RunnerRemovedVacant is a variant of REMOVED used by some settlement
	// feeds — treated identically to RunnerRemoved everywhere in this
	// codebase (§4.10).
	RunnerRemovedVacant RunnerStatus = "REMOVED_VACANT"
)

// IsRemoved reports whether the status is one of the two REMOVED variants.
func (s RunnerStatus) IsRemoved() bool {
	return s == RunnerRemoved || s == RunnerRemovedVacant
}

// Runner is one selection within a Market. Unique per (MarketID, ExternalID).
type Runner struct {
	ExternalID string
	MarketID   string
	Name       string
	Status     RunnerStatus
}
