package domain

import "time"

// CompetitionStats is the unique-per-(competition, date) daily roll-up of
// exploitability scores (§4.7).
type CompetitionStats struct {
	CompetitionID string
	Date          time.Time // truncated to day, UTC

	Count       int
	Mean        float64
	Max         float64
	Min         float64
	StdDev      float64
	CountAbove40 int
	CountAbove55 int
	CountAbove70 int

	RollingMean30d float64
}

// scoreThresholds are the fixed count-above buckets reported alongside the
// daily aggregate (§4.7).
var scoreThresholds = [3]float64{40, 55, 70}
