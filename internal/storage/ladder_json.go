package storage

import (
	"encoding/json"
	"fmt"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// runnerLadderJSON and priceLevelJSON mirror domain.Ladder for wire/storage
// purposes; the dynamic
// depth ladder is kept as JSON in the DB while every other field stays
// strongly typed Go (§9).
type priceLevelJSON struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

type runnerLadderJSON struct {
	RunnerExternalID string           `json:"runner_external_id"`
	LastTradedPrice  float64          `json:"last_traded_price"`
	TotalMatched     float64          `json:"total_matched"`
	Back             []priceLevelJSON `json:"back"`
	Lay              []priceLevelJSON `json:"lay"`
}

func encodeLadder(l domain.Ladder) (string, error) {
	out := make([]runnerLadderJSON, 0, len(l.Runners))
	for _, r := range l.Runners {
		out = append(out, runnerLadderJSON{
			RunnerExternalID: r.RunnerExternalID,
			LastTradedPrice:  r.LastTradedPrice,
			TotalMatched:     r.TotalMatched,
			Back:             toLevelJSON(r.Back),
			Lay:              toLevelJSON(r.Lay),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("storage: encode ladder: %w", err)
	}
	return string(b), nil
}

func decodeLadder(raw string) (domain.Ladder, error) {
	var in []runnerLadderJSON
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return domain.Ladder{}, fmt.Errorf("storage: decode ladder: %w", err)
	}
	ladder := domain.Ladder{Runners: make([]domain.RunnerLadder, 0, len(in))}
	for _, r := range in {
		ladder.Runners = append(ladder.Runners, domain.RunnerLadder{
			RunnerExternalID: r.RunnerExternalID,
			LastTradedPrice:  r.LastTradedPrice,
			TotalMatched:     r.TotalMatched,
			Back:             fromLevelJSON(r.Back),
			Lay:              fromLevelJSON(r.Lay),
		})
	}
	return ladder, nil
}

func toLevelJSON(levels []domain.PriceLevel) []priceLevelJSON {
	out := make([]priceLevelJSON, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, priceLevelJSON{Price: lvl.Price, Size: lvl.Size})
	}
	return out
}

func fromLevelJSON(levels []priceLevelJSON) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, domain.PriceLevel{Price: lvl.Price, Size: lvl.Size})
	}
	return out
}
