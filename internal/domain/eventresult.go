package domain

import "strings"

// EventResult is the unique-per-event outcome record. Scores and BTTS are
// best-effort, heuristically derived from the Match-Odds winner when no
// richer source is available (§9: "deliberately inexact; treat that code
// path as best-effort and overridable by a downstream Correct-Score
// source").
type EventResult struct {
	EventID      string
	HomeScore    *int
	AwayScore    *int
	TotalGoals   *int
	BTTS         *bool
	Extended     map[string]any
	Source       string
}

// SettledMatchOddsWinner describes one settled Match Odds market whose
// event has no EventResult row yet, used by the standalone Event Results
// task (§4.11) to backfill results the Closing Capturer's inline
// derivation missed — e.g. when the Match Odds market settles later than
// another market on the same event.
type SettledMatchOddsWinner struct {
	EventID        string
	MarketID       string
	WinnerRunnerID string
	Void           bool
}

// GuessFromMatchOddsWinner derives a best-effort EventResult from a Match
// Odds market's runners and its winner (§9, §3). Runners are scanned in
// catalogue order: the one whose name contains "draw" is the draw runner,
// the first remaining runner is treated as home, the next as away — the
// same best-effort identification the upstream heuristic uses, since the
// wire shape carries no explicit home/away role. A draw win is guessed
// 1-1, a home win 2-1, an away win 1-2; if the winner can't be matched to
// any of the three, scores are left nil. TotalGoals/BTTS are derived
// whenever both scores are present.
func GuessFromMatchOddsWinner(eventID string, runners []Runner, winnerRunnerID string) EventResult {
	result := EventResult{
		EventID: eventID,
		Source:  "match_odds_winner_heuristic",
	}

	var homeID, awayID, drawID string
	for _, r := range runners {
		if containsFold(r.Name, "draw") {
			if drawID == "" {
				drawID = r.ExternalID
			}
			continue
		}
		switch {
		case homeID == "":
			homeID = r.ExternalID
		case awayID == "":
			awayID = r.ExternalID
		}
	}

	var home, away int
	switch winnerRunnerID {
	case drawID:
		home, away = 1, 1
	case homeID:
		home, away = 2, 1
	case awayID:
		home, away = 1, 2
	default:
		return result // winner doesn't map to a known role; scores stay nil
	}

	result.HomeScore = &home
	result.AwayScore = &away
	total := home + away
	result.TotalGoals = &total
	btts := home > 0 && away > 0
	result.BTTS = &btts
	return result
}

// containsFold reports whether s contains substr, ASCII case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
