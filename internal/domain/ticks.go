package domain

// tickBand is one row of the exchange's non-uniform tick table: prices up to
// (and including) Upper increment in steps of Increment.
type tickBand struct {
	Upper     float64
	Increment float64
}

// tickTable is the exchange's published price-ladder bands (§4.3, §6). Prices
// above the final band's Upper are clamped to the final increment.
var tickTable = []tickBand{
	{Upper: 2, Increment: 0.01},
	{Upper: 3, Increment: 0.02},
	{Upper: 4, Increment: 0.05},
	{Upper: 6, Increment: 0.10},
	{Upper: 10, Increment: 0.20},
	{Upper: 20, Increment: 0.50},
	{Upper: 30, Increment: 1.00},
	{Upper: 50, Increment: 2.00},
	{Upper: 100, Increment: 5.00},
	{Upper: 1000, Increment: 10.00},
}

// tickIncrementAt returns the minimum price increment applicable at price p.
func tickIncrementAt(p float64) float64 {
	for _, band := range tickTable {
		if p <= band.Upper {
			return band.Increment
		}
	}
	return tickTable[len(tickTable)-1].Increment
}

// TicksBetween returns the number of tick increments separating two prices,
// using the increment applicable at the lower of the two prices. Used to
// express a back/lay spread as a tick count rather than a raw price gap.
func TicksBetween(lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	inc := tickIncrementAt(lo)
	if inc <= 0 {
		return 0
	}
	return (hi - lo) / inc
}
