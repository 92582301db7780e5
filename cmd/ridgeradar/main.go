// Command ridgeradar wires the Exchange Gateway, storage, and every
// pipeline component (C2-C10) behind the Scheduler (C11) and runs them
// until signalled to stop.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ridgeradar/ridgeradar/internal/closing"
	"github.com/ridgeradar/ridgeradar/internal/competitionstats"
	"github.com/ridgeradar/ridgeradar/internal/config"
	"github.com/ridgeradar/ridgeradar/internal/discovery"
	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/eventresults"
	"github.com/ridgeradar/ridgeradar/internal/gateway"
	"github.com/ridgeradar/ridgeradar/internal/hypothesis"
	"github.com/ridgeradar/ridgeradar/internal/phase"
	"github.com/ridgeradar/ridgeradar/internal/profiling"
	"github.com/ridgeradar/ridgeradar/internal/report"
	"github.com/ridgeradar/ridgeradar/internal/scheduler"
	"github.com/ridgeradar/ridgeradar/internal/scoring"
	"github.com/ridgeradar/ridgeradar/internal/shadow"
	"github.com/ridgeradar/ridgeradar/internal/snapshot"
	"github.com/ridgeradar/ridgeradar/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run every task once and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	reportFlag := flag.Bool("report", false, "print the console digest and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	store, err := storage.Open(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	if *reportFlag {
		if err := report.NewConsole(store).Print(context.Background()); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}

	client, err := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.Gateway.BaseURL,
		LoginURL: cfg.Gateway.LoginURL,
		Credentials: gateway.Credentials{
			Username:    cfg.Gateway.Username,
			Password:    cfg.Gateway.Password,
			AppKey:      cfg.Gateway.AppKey,
			CertPath:    cfg.Gateway.CertPath,
			CertKeyPath: cfg.Gateway.CertKeyPath,
		},
		RedisClient:   redisClient,
		RatePerSecond: cfg.Gateway.RatePerSecond,
		Burst:         cfg.Gateway.Burst,
	})
	if err != nil {
		slog.Error("failed to build exchange gateway", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configVersion := scoring.FromConfig("active", cfg.Scoring, time.Now().UTC())
	scoringJob, err := scoring.NewJob(ctx, configVersion, store, store)
	if err != nil {
		slog.Error("failed to persist scoring config version", "err", err)
		os.Exit(1)
	}

	disc := discovery.New(discovery.Config{
		ExclusionPatterns: cfg.Discovery.ExclusionPatterns,
		EventLookahead:    time.Duration(cfg.Discovery.EventLookaheadHours) * time.Hour,
		MarketTypes:       cfg.Discovery.MarketTypes,
	}, client, store)

	snap := snapshot.New(snapshot.Config{
		BatchSize:  5,
		PriceDepth: cfg.Gateway.PriceDepth,
	}, client, store)

	profiler := profiling.New(store, store)
	closer := closing.New(client, store)
	results := eventresults.New(store)
	stats := competitionstats.New(store)

	thresholds := domain.PhaseThresholds{
		ClosingDataRows:        cfg.Shadow.ActivationClosingDataRows,
		SettledClosingDataRows: cfg.Shadow.ActivationSettledRows,
		HighScoreMarkets:       cfg.Shadow.ActivationHighScoreMarkets,
		DaysObserved:           cfg.Shadow.ActivationDaysObserved,
	}
	gate := phase.New(store, thresholds, cfg.Shadow.Enabled, cfg.Shadow.AutoActivatePhase2)

	engine := hypothesis.New(store, cfg.Shadow.MinChangePct, cfg.Shadow.BaseStake)
	settler := shadow.New(store, cfg.Shadow.CommissionRate)

	phaseGated := func(name string, fn scheduler.TaskFunc) scheduler.TaskFunc {
		return func(ctx context.Context) (int, error) {
			current, err := gate.Evaluate(ctx)
			if err != nil {
				return 0, err
			}
			if current != domain.Phase2Shadow {
				slog.Debug("phase-gated task skipped", "task", name, "phase", current)
				return 0, nil
			}
			return fn(ctx)
		}
	}

	sched := scheduler.New(store,
		scheduler.Task{Name: "discovery", Interval: 900 * time.Second, Soft: 45 * time.Second, Hard: 90 * time.Second, Run: disc.Run},
		scheduler.Task{Name: "snapshot", Interval: 300 * time.Second, Soft: 45 * time.Second, Hard: 60 * time.Second, Run: snap.Run},
		scheduler.Task{Name: "profile", Interval: time.Hour, Soft: 60 * time.Second, Hard: 120 * time.Second, Run: profiler.Run},
		scheduler.Task{Name: "score", Interval: 300 * time.Second, Soft: 30 * time.Second, Hard: 60 * time.Second, Run: scoringJob.Run},
		scheduler.Task{Name: "competition_stats", Interval: time.Hour, Soft: 30 * time.Second, Hard: 60 * time.Second, Run: stats.Run},
		scheduler.Task{Name: "closing_odds", Interval: 120 * time.Second, Soft: 20 * time.Second, Hard: 40 * time.Second, Run: closer.CapturePreStart},
		scheduler.Task{Name: "settlement", Interval: 900 * time.Second, Soft: 60 * time.Second, Hard: 120 * time.Second, Run: closer.CaptureSettlement},
		scheduler.Task{Name: "event_results", Interval: 1800 * time.Second, Soft: 30 * time.Second, Hard: 60 * time.Second, Run: results.Run},
		scheduler.Task{Name: "phase_check", Interval: time.Hour, Soft: 10 * time.Second, Hard: 20 * time.Second, Run: func(ctx context.Context) (int, error) {
			current, err := gate.Evaluate(ctx)
			if err != nil {
				return 0, err
			}
			slog.Info("phase check", "phase", current)
			return 1, nil
		}},
		scheduler.Task{Name: "shadow_decisions", Interval: 120 * time.Second, Soft: 20 * time.Second, Hard: 40 * time.Second, Run: phaseGated("shadow_decisions", engine.Run)},
		scheduler.Task{Name: "closing_mids", Interval: 120 * time.Second, Soft: 20 * time.Second, Hard: 40 * time.Second, Run: phaseGated("closing_mids", settler.CaptureClosingMids)},
		scheduler.Task{Name: "shadow_settlement", Interval: 900 * time.Second, Soft: 30 * time.Second, Hard: 60 * time.Second, Run: phaseGated("shadow_settlement", settler.SettlePending)},
	)

	slog.Info("ridgeradar starting", "config", *configPath, "once", *once)

	if *once {
		runOnce(ctx, disc, snap, profiler, scoringJob, stats, closer, results, gate, engine, settler)
		slog.Info("ridgeradar: single pass complete")
		return
	}

	sched.Run(ctx)
	slog.Info("ridgeradar stopped cleanly")
}

// runOnce runs every component exactly one time, honouring the Phase Gate
// for C9/C10, and is used by -once for smoke-testing a deployment.
func runOnce(
	ctx context.Context,
	disc *discovery.Discovery,
	snap *snapshot.Snapshotter,
	profiler *profiling.Profiler,
	scoringJob *scoring.Job,
	stats *competitionstats.Aggregator,
	closer *closing.Capturer,
	results *eventresults.Backfiller,
	gate *phase.Gate,
	engine *hypothesis.Engine,
	settler *shadow.Settler,
) {
	runStep(ctx, "discovery", disc.Run)
	runStep(ctx, "snapshot", snap.Run)
	runStep(ctx, "profile", profiler.Run)
	runStep(ctx, "score", scoringJob.Run)
	runStep(ctx, "competition_stats", stats.Run)
	runStep(ctx, "closing_odds", closer.CapturePreStart)
	runStep(ctx, "settlement", closer.CaptureSettlement)
	runStep(ctx, "event_results", results.Run)

	current, err := gate.Evaluate(ctx)
	if err != nil {
		slog.Error("phase check failed", "err", err)
		return
	}
	slog.Info("phase check", "phase", current)
	if current != domain.Phase2Shadow {
		return
	}
	runStep(ctx, "shadow_decisions", engine.Run)
	runStep(ctx, "closing_mids", settler.CaptureClosingMids)
	runStep(ctx, "shadow_settlement", settler.SettlePending)
}

func runStep(ctx context.Context, name string, fn func(context.Context) (int, error)) {
	n, err := fn(ctx)
	if err != nil {
		slog.Error("step failed", "step", name, "err", err)
		return
	}
	slog.Info("step complete", "step", name, "records", n)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
