package domain

import "time"

// ClosingOdds is the last pre-start back/lay snapshot captured for a market's
// primary runner set, alongside the score referenced at capture time.
type ClosingOdds struct {
	SnapshotCapturedAt time.Time
	ScoreID            string
	MinutesToStart     float64
}

// SettlementOutcome is the settled result pulled from the exchange once a
// market has gone CLOSED (§4.6).
type SettlementOutcome struct {
	WinnerRunnerID string
	Void           bool
	SettledAt      time.Time
}

// MarketClosingData is unique per market: the freshest pre-start capture
// (closer to kickoff always wins — I5 requires it reference a real
// Snapshot), plus the settlement outcome once available.
type MarketClosingData struct {
	MarketID   string
	Odds       ClosingOdds
	Settlement *SettlementOutcome
	SettledAt  *time.Time
}

// IsFresherThan reports whether a candidate capture is closer to kickoff
// than the data already stored — i.e. whether it should replace it (§4.6:
// "if a ClosingData already exists and its minutes_to_start is smaller,
// skip — preserve the freshest pre-start capture").
func (c MarketClosingData) IsFresherThan(candidateMinutesToStart float64) bool {
	return candidateMinutesToStart < c.Odds.MinutesToStart
}
