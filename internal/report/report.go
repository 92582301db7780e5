// Package report renders a console summary of a RidgeRadar run: the
// scheduler's recent job audit trail, today's top exploitability scores,
// and shadow-trading performance by hypothesis, rendered with
// github.com/olekukonko/tablewriter.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// PaperTradingDisclaimer is rendered above every shadow-trading surface
// (§6): "every shadow surface must render a disclaimer".
const PaperTradingDisclaimer = "PAPER TRADING: all figures theoretical, no real money at risk."

// reportStore is the subset of storage.Store the console report reads from.
type reportStore interface {
	RecentJobRuns(ctx context.Context, limit int) ([]domain.JobRun, error)
	TopScores(ctx context.Context, limit int) ([]domain.ExploitabilityScore, error)
	RecentShadowDecisions(ctx context.Context, limit int) ([]domain.ShadowDecision, error)
	ListHypotheses(ctx context.Context) ([]domain.TradingHypothesis, error)
}

// Console prints a plain-text summary of recent activity to an io.Writer.
type Console struct {
	out   io.Writer
	store reportStore
}

// NewConsole builds a Console writing to stdout.
func NewConsole(st reportStore) *Console {
	return &Console{out: os.Stdout, store: st}
}

// NewConsoleWriter builds a Console writing to w, for tests.
func NewConsoleWriter(w io.Writer, st reportStore) *Console {
	return &Console{out: w, store: st}
}

// Print renders the full digest: job runs, top scores, and (when any
// trading hypothesis exists) the paper-trading performance tables.
func (c *Console) Print(ctx context.Context) error {
	if err := c.printJobRuns(ctx); err != nil {
		return fmt.Errorf("report.Print: job runs: %w", err)
	}
	if err := c.printTopScores(ctx); err != nil {
		return fmt.Errorf("report.Print: top scores: %w", err)
	}
	if err := c.printShadowSummary(ctx); err != nil {
		return fmt.Errorf("report.Print: shadow summary: %w", err)
	}
	return nil
}

func (c *Console) printJobRuns(ctx context.Context) error {
	runs, err := c.store.RecentJobRuns(ctx, 20)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n=== Recent job runs ===\n")
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "  (none yet)")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Task", "Status", "Started", "Duration", "Records", "Error")
	for _, r := range runs {
		duration := "-"
		if r.CompletedAt != nil {
			duration = r.Duration().Round(10 * time.Millisecond).String()
		}
		table.Append(
			r.TaskName,
			string(r.Status),
			r.StartedAt.Format("15:04:05"),
			duration,
			fmt.Sprintf("%d", r.RecordsProcessed),
			r.Error,
		)
	}
	table.Render()
	return nil
}

func (c *Console) printTopScores(ctx context.Context) error {
	scores, err := c.store.TopScores(ctx, 10)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n=== Top exploitability scores today ===\n")
	if len(scores) == 0 {
		fmt.Fprintln(c.out, "  (none yet)")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Bucket", "Odds band", "Total", "Spread", "Vol", "Update", "Depth", "VolPen", "Guards")
	for _, sc := range scores {
		guards := "-"
		if len(sc.Result.GuardsFailed) > 0 {
			guards = fmt.Sprintf("%v", sc.Result.GuardsFailed)
		}
		table.Append(
			sc.MarketID,
			string(sc.Bucket),
			string(sc.OddsBand),
			fmt.Sprintf("%.1f", sc.Result.TotalScore),
			fmt.Sprintf("%.1f", sc.Result.SpreadScore),
			fmt.Sprintf("%.1f", sc.Result.VolatilityScore),
			fmt.Sprintf("%.1f", sc.Result.UpdateScore),
			fmt.Sprintf("%.1f", sc.Result.DepthScore),
			fmt.Sprintf("%.1f", sc.Result.VolumePenalty),
			guards,
		)
	}
	table.Render()
	return nil
}

func (c *Console) printShadowSummary(ctx context.Context) error {
	hyps, err := c.store.ListHypotheses(ctx)
	if err != nil {
		return err
	}
	if len(hyps) == 0 {
		return nil
	}

	fmt.Fprintf(c.out, "\n=== %s ===\n", PaperTradingDisclaimer)

	table := tablewriter.NewWriter(c.out)
	table.Header("Hypothesis", "Side", "Decisions", "Wins", "Losses", "Net P&L", "Mean CLV%")
	for _, h := range hyps {
		table.Append(
			h.Name,
			string(h.Side),
			fmt.Sprintf("%d", h.Decisions),
			fmt.Sprintf("%d", h.Wins),
			fmt.Sprintf("%d", h.Losses),
			fmt.Sprintf("%.2f", h.CumulativeNet),
			fmt.Sprintf("%.2f", h.MeanCLV),
		)
	}
	table.Render()

	decisions, err := c.store.RecentShadowDecisions(ctx, 15)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n--- Recent shadow decisions ---\n")
	if len(decisions) == 0 {
		fmt.Fprintln(c.out, "  (none yet)")
		return nil
	}

	dt := tablewriter.NewWriter(c.out)
	dt.Header("Market", "Runner", "Side", "Hypothesis", "Entry", "Outcome", "Net P&L", "RoR", "CLV%")
	for _, d := range decisions {
		net, ror, clv := "-", "-", "-"
		if d.NetPnL != nil {
			net = fmt.Sprintf("%.2f", *d.NetPnL)
		}
		if d.ReturnOnRisk != nil {
			ror = fmt.Sprintf("%.2f", *d.ReturnOnRisk)
		}
		if d.CLVPercent != nil {
			clv = fmt.Sprintf("%.2f", *d.CLVPercent)
		}
		dt.Append(
			d.MarketID,
			d.RunnerID,
			string(d.Side),
			d.HypothesisName,
			fmt.Sprintf("%.2f", d.EntryPrice()),
			string(d.Outcome),
			net,
			ror,
			clv,
		)
	}
	dt.Render()
	return nil
}
