package domain

import "time"

// Side is the shadow decision's taken side.
type Side string

const (
	SideBack Side = "BACK"
	SideLay  Side = "LAY"
)

// PriceDirection classifies the sign of a runner's recent price movement
// (§4.9): steaming (shortening, negative change) or drifting (lengthening,
// positive change).
type PriceDirection string

const (
	DirectionSteaming PriceDirection = "steaming"
	DirectionDrifting PriceDirection = "drifting"
)

// SelectionLogic is a hypothesis's decision-side override rule (§4.9):
// "momentum" forces BACK on a steaming signal, "contrarian" forces LAY on a
// drifting signal; any other tag leaves the hypothesis's configured Side
// untouched.
type SelectionLogic string

const (
	SelectionLogicMomentum   SelectionLogic = "momentum"
	SelectionLogicContrarian SelectionLogic = "contrarian"
	SelectionLogicNone       SelectionLogic = ""
)

// EntryCriteria describes when a signal matches a hypothesis (§4.9). A zero
// value for an optional field means "no constraint" (pointers are used for
// fields whose zero value — 0 — would otherwise be a meaningful bound).
type EntryCriteria struct {
	MinScore          float64
	MinTotalMatched   float64
	MaxSpreadPct      float64
	MinMinutesToStart float64
	MaxMinutesToStart float64

	MarketTypeFilter   []string // optional whitelist; empty = no constraint
	CompetitionFilter  []string // optional whitelist; empty = no constraint

	MinPriceChangePct      float64
	PriceChangeDirection   *PriceDirection // nil = either direction
	PriceChangeWindowMins  int

	MinPrice        *float64
	MaxPrice        *float64
	MaxTotalMatched *float64
}

// TradingHypothesis is a user-defined, named rule matched against live
// signals by the Hypothesis Engine (C9). Denormalised counters are
// maintained by the Shadow Settler as decisions resolve.
type TradingHypothesis struct {
	Name           string
	DisplayName    string
	Description    string
	Enabled        bool
	Criteria       EntryCriteria
	SelectionLogic SelectionLogic
	Side           Side

	Decisions      int
	Wins           int
	Losses         int
	CumulativeNet  float64
	MeanCLV        float64
	LastDecisionAt *time.Time
}

// Signal is a candidate market/runner observation assembled by the Hypothesis
// Engine's signal-gathering step (§4.9) before it is matched against any
// hypothesis.
type Signal struct {
	MarketID      string
	RunnerID      string
	MarketType    string
	CompetitionID string

	CurrentBack      float64
	CurrentLay       float64
	MinutesToStart   float64
	TotalMatched     float64
	SpreadPct        float64
	Score            *float64

	ChangePct      float64 // (current_back - old_back) / old_back * 100
	Direction      PriceDirection
	WindowMinutes  int
}

// ResolveSide returns the decision side to use for a match between this
// signal and a hypothesis, applying the momentum/contrarian override (§4.9):
// "steaming + selection_logic=momentum forces BACK and drifting +
// selection_logic=contrarian forces LAY".
func (h TradingHypothesis) ResolveSide(signal Signal) Side {
	if signal.Direction == DirectionSteaming && h.SelectionLogic == SelectionLogicMomentum {
		return SideBack
	}
	if signal.Direction == DirectionDrifting && h.SelectionLogic == SelectionLogicContrarian {
		return SideLay
	}
	return h.Side
}

// Matches reports whether a signal satisfies every applicable clause of the
// entry criteria (§4.9: "a signal matches a hypothesis iff all applicable
// clauses hold").
func (c EntryCriteria) Matches(s Signal) bool {
	if c.MinScore > 0 {
		if s.Score == nil || *s.Score < c.MinScore {
			return false
		}
	}
	if s.TotalMatched < c.MinTotalMatched {
		return false
	}
	if c.MaxSpreadPct > 0 && s.SpreadPct > c.MaxSpreadPct {
		return false
	}
	if s.MinutesToStart < c.MinMinutesToStart {
		return false
	}
	if c.MaxMinutesToStart > 0 && s.MinutesToStart > c.MaxMinutesToStart {
		return false
	}
	if len(c.MarketTypeFilter) > 0 && !contains(c.MarketTypeFilter, s.MarketType) {
		return false
	}
	if len(c.CompetitionFilter) > 0 && !contains(c.CompetitionFilter, s.CompetitionID) {
		return false
	}
	if c.MinPriceChangePct > 0 && absFloat(s.ChangePct) < c.MinPriceChangePct {
		return false
	}
	if c.PriceChangeDirection != nil && *c.PriceChangeDirection != s.Direction {
		return false
	}
	if c.PriceChangeWindowMins > 0 && c.PriceChangeWindowMins != s.WindowMinutes {
		return false
	}
	if c.MinPrice != nil && s.CurrentBack < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && s.CurrentBack > *c.MaxPrice {
		return false
	}
	if c.MaxTotalMatched != nil && s.TotalMatched > *c.MaxTotalMatched {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
