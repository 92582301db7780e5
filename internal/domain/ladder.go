package domain

import "time"

// PriceLevel is one price/size pair on a ladder side.
type PriceLevel struct {
	Price float64
	Size  float64
}

// RunnerLadder is the order-book state of a single runner at an instant: last
// traded price, total matched, and up to N back/lay levels sorted best-first
// (back descending implied probability, lay ascending).
type RunnerLadder struct {
	RunnerExternalID string
	LastTradedPrice  float64
	TotalMatched     float64
	Back             []PriceLevel
	Lay              []PriceLevel
}

// BestBack returns the best (highest) available-to-back price level.
func (r RunnerLadder) BestBack() (PriceLevel, bool) {
	if len(r.Back) == 0 {
		return PriceLevel{}, false
	}
	return r.Back[0], true
}

// BestLay returns the best (lowest) available-to-lay price level.
func (r RunnerLadder) BestLay() (PriceLevel, bool) {
	if len(r.Lay) == 0 {
		return PriceLevel{}, false
	}
	return r.Lay[0], true
}

// Mid returns the mid price between best back and best lay, and whether both
// sides were present.
func (r RunnerLadder) Mid() (float64, bool) {
	back, ok1 := r.BestBack()
	lay, ok2 := r.BestLay()
	if !ok1 || !ok2 {
		return 0, false
	}
	return (back.Price + lay.Price) / 2, true
}

// DepthWithinTicks sums back+lay sizes whose price lies within n tick
// increments of that side's best price (§4.3).
func (r RunnerLadder) DepthWithinTicks(n int) float64 {
	var total float64
	if best, ok := r.BestBack(); ok {
		for _, lvl := range r.Back {
			if TicksBetween(lvl.Price, best.Price) <= float64(n) {
				total += lvl.Size
			}
		}
	}
	if best, ok := r.BestLay(); ok {
		for _, lvl := range r.Lay {
			if TicksBetween(best.Price, lvl.Price) <= float64(n) {
				total += lvl.Size
			}
		}
	}
	return total
}

// TotalAvailable sums every size field across both sides of the ladder.
func (r RunnerLadder) TotalAvailable() float64 {
	var total float64
	for _, lvl := range r.Back {
		total += lvl.Size
	}
	for _, lvl := range r.Lay {
		total += lvl.Size
	}
	return total
}

// Ladder is the semantic, strongly-typed record of every runner's book state
// at a captured instant (§9 — the dynamic JSON ladder of the upstream API
// becomes this value type; the DB column persists it as JSON for schema
// flexibility, but in-memory it is fully typed).
type Ladder struct {
	Runners []RunnerLadder
}

// ByExternalID looks up a runner's ladder by its external selection id.
func (l Ladder) ByExternalID(externalID string) (RunnerLadder, bool) {
	for _, r := range l.Runners {
		if r.RunnerExternalID == externalID {
			return r, true
		}
	}
	return RunnerLadder{}, false
}

// MarketSnapshot is an append-only, point-in-time capture of a market's
// order book plus the market-level derived fields computed at capture time
// (§4.3): spread in ticks, overround, total available and depth within 5
// ticks, each averaged/summed across runners.
type MarketSnapshot struct {
	MarketID       string
	CapturedAt     time.Time
	TotalMatched   float64
	TotalAvailable float64
	Overround      float64
	SpreadTicks    float64
	BestDepth      float64
	Depth5Ticks    float64
	Ladder         Ladder
}

// MeanMidPrice averages the back/lay mid price across every runner that has
// both sides populated. Used by the Profiler as the per-snapshot mid-price
// sample feeding the volatility metric (§4.4).
func (s MarketSnapshot) MeanMidPrice() float64 {
	var sum float64
	var n int
	for _, r := range s.Ladder.Runners {
		if mid, ok := r.Mid(); ok {
			sum += mid
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
