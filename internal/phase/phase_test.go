package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func TestComputePhase_JustBelowAndAtThresholds(t *testing.T) {
	thresholds := domain.PhaseThresholds{
		ClosingDataRows:        500,
		SettledClosingDataRows: 200,
		HighScoreMarkets:       50,
		DaysObserved:           2,
	}

	belowThreshold := domain.PhaseSignals{ClosingDataRows: 499, SettledClosingDataRows: 200, HighScoreMarkets: 50, DaysObserved: 2}
	assert.Equal(t, domain.Phase1Collecting, domain.ComputePhase(belowThreshold, thresholds, true, true))

	atThreshold := domain.PhaseSignals{ClosingDataRows: 500, SettledClosingDataRows: 200, HighScoreMarkets: 50, DaysObserved: 2}
	assert.Equal(t, domain.Phase2Shadow, domain.ComputePhase(atThreshold, thresholds, true, true))
}

func TestComputePhase_RequiresShadowEnabledAndAutoActivate(t *testing.T) {
	thresholds := domain.PhaseThresholds{ClosingDataRows: 500, SettledClosingDataRows: 200, HighScoreMarkets: 50, DaysObserved: 2}
	atThreshold := domain.PhaseSignals{ClosingDataRows: 500, SettledClosingDataRows: 200, HighScoreMarkets: 50, DaysObserved: 2}

	assert.Equal(t, domain.Phase1Collecting, domain.ComputePhase(atThreshold, thresholds, false, true))
	assert.Equal(t, domain.Phase1Collecting, domain.ComputePhase(atThreshold, thresholds, true, false))
}
