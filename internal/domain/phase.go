package domain

// Phase is the system's current operating phase (§4.8). PHASE3_LIVE exists
// as a sentinel only — it is never reachable from data; reaching it
// requires a manual configuration change outside this codebase.
type Phase string

const (
	Phase1Collecting Phase = "PHASE1_COLLECTING"
	Phase2Shadow     Phase = "PHASE2_SHADOW"
	Phase3Live       Phase = "PHASE3_LIVE"
)

// PhaseSignals are the four data-readiness counts the Phase Gate checks
// against their activation thresholds (§4.8).
type PhaseSignals struct {
	ClosingDataRows        int
	SettledClosingDataRows int
	HighScoreMarkets       int
	DaysObserved           int
}

// PhaseThresholds are the minimum values each PhaseSignals field must meet
// before Phase 2 can activate (§4.8).
type PhaseThresholds struct {
	ClosingDataRows        int
	SettledClosingDataRows int
	HighScoreMarkets       int
	DaysObserved           int
}

// ComputePhase implements the pure phase(db) function from §4.8: all four
// signals must meet their threshold, and the caller's shadow config must
// have both enabled and auto-activate-phase-2 set, or the system stays in
// PHASE1_COLLECTING. Phase 3 is never returned here.
func ComputePhase(signals PhaseSignals, thresholds PhaseThresholds, shadowEnabled, autoActivatePhase2 bool) Phase {
	if !shadowEnabled || !autoActivatePhase2 {
		return Phase1Collecting
	}
	if signals.ClosingDataRows < thresholds.ClosingDataRows {
		return Phase1Collecting
	}
	if signals.SettledClosingDataRows < thresholds.SettledClosingDataRows {
		return Phase1Collecting
	}
	if signals.HighScoreMarkets < thresholds.HighScoreMarkets {
		return Phase1Collecting
	}
	if signals.DaysObserved < thresholds.DaysObserved {
		return Phase1Collecting
	}
	return Phase2Shadow
}
