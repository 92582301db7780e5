package domain

import "time"

// DecisionOutcome is the lifecycle state of a ShadowDecision. Progresses
// monotonically PENDING → {WIN, LOSE, VOID} and never reverses (I4).
type DecisionOutcome string

const (
	OutcomePending DecisionOutcome = "PENDING"
	OutcomeWin     DecisionOutcome = "WIN"
	OutcomeLose    DecisionOutcome = "LOSE"
	OutcomeVoid    DecisionOutcome = "VOID"
)

// ShadowDecision is a recorded hypothetical trade; never executed on the
// exchange (§3, §6 safety invariant). Exactly one per (market, hypothesis)
// pair (I3).
type ShadowDecision struct {
	ID              string
	MarketID        string
	RunnerID        string
	Side            Side
	ScoreID         string
	HypothesisName  string
	DecidedAt       time.Time
	MinutesToStart  float64

	EntryBack       float64
	EntryLay        float64
	EntrySpread     float64
	AvailableToBack float64
	AvailableToLay  float64
	Stake           float64
	Niche           string // (competition, market-type) tuple used for aggregation
	CompetitionID   string

	ClosingBack *float64
	ClosingLay  *float64
	ClosingMid  *float64
	CLVPercent  *float64

	Outcome   DecisionOutcome
	SettledAt *time.Time

	GrossPnL       *float64
	Commission     *float64
	SpreadCost     *float64
	NetPnL         *float64
	MaxLoss        *float64
	ReturnOnRisk   *float64
}

// EntryPrice returns the price actually taken on entry for this decision's
// side (BACK takes the back price, LAY takes the lay price).
func (d ShadowDecision) EntryPrice() float64 {
	if d.Side == SideLay {
		return d.EntryLay
	}
	return d.EntryBack
}

// CaptureClosingMid records the closing back/lay/mid for this decision and
// computes CLV (§4.10). closingBack/closingLay are the decision runner's
// best back/lay at the closing capture instant.
func (d *ShadowDecision) CaptureClosingMid(closingBack, closingLay float64) {
	mid := (closingBack + closingLay) / 2
	d.ClosingBack = &closingBack
	d.ClosingLay = &closingLay
	d.ClosingMid = &mid

	var clv float64
	switch d.Side {
	case SideBack:
		if mid != 0 {
			clv = (d.EntryBack - mid) / mid * 100
		}
	case SideLay:
		if d.EntryLay != 0 {
			clv = (mid - d.EntryLay) / d.EntryLay * 100
		}
	}
	d.CLVPercent = &clv
}

// ResolveOutcome maps a settled runner status to this decision's outcome,
// per the table in §4.10.
func ResolveOutcome(side Side, runnerStatus RunnerStatus) DecisionOutcome {
	if runnerStatus.IsRemoved() {
		return OutcomeVoid
	}
	switch {
	case runnerStatus == RunnerWinner && side == SideBack:
		return OutcomeWin
	case runnerStatus == RunnerWinner && side == SideLay:
		return OutcomeLose
	case runnerStatus == RunnerLoser && side == SideBack:
		return OutcomeLose
	case runnerStatus == RunnerLoser && side == SideLay:
		return OutcomeWin
	default:
		return OutcomePending
	}
}

// pnlResult bundles the settlement figures computed for a single decision.
type pnlResult struct {
	Gross        float64
	Commission   float64
	Net          float64
	MaxLoss      float64
	ReturnOnRisk float64
}

// SettlePnL computes gross/commission/net P&L, max-loss and return-on-risk
// for stake S at entry price p, commission rate c, given the outcome and
// side (§4.10, properties P7/P8).
//
//	BACK: max_loss = S.
//	  WIN:  gross = S*(p-1), commission = gross*c, net = gross - commission.
//	  LOSE: gross = net = -S.
//	LAY: max_loss = S*(p-1).
//	  WIN (selection lost): gross = S, commission = gross*c, net = gross - commission.
//	  LOSE: gross = net = -S*(p-1).
//	VOID: all zeros.
func SettlePnL(side Side, outcome DecisionOutcome, stake, price, commissionRate float64) pnlResult {
	switch side {
	case SideBack:
		maxLoss := stake
		switch outcome {
		case OutcomeWin:
			gross := stake * (price - 1)
			commission := gross * commissionRate
			net := gross - commission
			return pnlResult{Gross: gross, Commission: commission, Net: net, MaxLoss: maxLoss, ReturnOnRisk: returnOnRisk(net, maxLoss)}
		case OutcomeLose:
			return pnlResult{Gross: -stake, Commission: 0, Net: -stake, MaxLoss: maxLoss, ReturnOnRisk: returnOnRisk(-stake, maxLoss)}
		default: // VOID
			return pnlResult{}
		}
	case SideLay:
		maxLoss := stake * (price - 1)
		switch outcome {
		case OutcomeWin:
			gross := stake
			commission := gross * commissionRate
			net := gross - commission
			return pnlResult{Gross: gross, Commission: commission, Net: net, MaxLoss: maxLoss, ReturnOnRisk: returnOnRisk(net, maxLoss)}
		case OutcomeLose:
			gross := -maxLoss
			return pnlResult{Gross: gross, Commission: 0, Net: gross, MaxLoss: maxLoss, ReturnOnRisk: returnOnRisk(gross, maxLoss)}
		default: // VOID
			return pnlResult{}
		}
	}
	return pnlResult{}
}

// returnOnRisk is net/max_loss, or 0 when max_loss is 0 (P8).
func returnOnRisk(net, maxLoss float64) float64 {
	if maxLoss == 0 {
		return 0
	}
	return net / maxLoss
}

// Settle applies ResolveOutcome + SettlePnL to the decision in place, using
// the stake and entry price recorded on it and the given commission rate. A
// runner status that resolves to PENDING leaves the decision unchanged.
func (d *ShadowDecision) Settle(runnerStatus RunnerStatus, commissionRate float64, now time.Time) {
	outcome := ResolveOutcome(d.Side, runnerStatus)
	if outcome == OutcomePending {
		return
	}
	res := SettlePnL(d.Side, outcome, d.Stake, d.EntryPrice(), commissionRate)
	d.Outcome = outcome
	d.SettledAt = &now
	d.GrossPnL = &res.Gross
	d.Commission = &res.Commission
	d.NetPnL = &res.Net
	d.MaxLoss = &res.MaxLoss
	d.ReturnOnRisk = &res.ReturnOnRisk
}
