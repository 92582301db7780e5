// Package scheduler implements the Scheduler (C11): a cron-like periodic
// driver for every task in C2-C10, each on its own cadence and its own
// goroutine, writing a JobRun audit row per execution (§4.11, §5, §7).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// jobRunStore is the port the Scheduler uses for per-task audit rows.
type jobRunStore interface {
	InsertJobRun(ctx context.Context, j domain.JobRun) error
	UpdateJobRun(ctx context.Context, j domain.JobRun) error
}

// TaskFunc runs one pass of a component and returns the number of records
// it processed (§7: "always update the JobRun row even on failure").
type TaskFunc func(ctx context.Context) (int, error)

// Task is one periodic job: a name, a cadence, and soft/hard time limits.
// Hard is enforced: when it elapses the run's context is cancelled and the
// JobRun is marked failed. Soft is not passed to the task and nothing acts
// on it; it only supplies the default Hard (twice Soft).
type Task struct {
	Name     string
	Interval time.Duration
	Soft     time.Duration
	Hard     time.Duration
	Run      TaskFunc
}

func (t Task) withDefaults() Task {
	if t.Soft <= 0 {
		t.Soft = t.Interval
	}
	if t.Hard <= 0 {
		t.Hard = 2 * t.Soft
	}
	return t
}

// Scheduler drives a fixed set of Tasks, one goroutine per task, each on
// its own ticker, writing JobRun rows through store. This is the "small
// pool of worker processes drained by a periodic scheduler" of §5: each
// task type is its own worker, executing independently of the others.
type Scheduler struct {
	store jobRunStore
	tasks []Task
}

// New builds a Scheduler over the given tasks.
func New(store jobRunStore, tasks ...Task) *Scheduler {
	withDefaults := make([]Task, len(tasks))
	for i, t := range tasks {
		withDefaults[i] = t.withDefaults()
	}
	return &Scheduler{store: store, tasks: withDefaults}
}

// Run launches every task's loop and blocks until ctx is cancelled. Each
// task runs once immediately, then on its own ticker; task goroutines are
// independent so a hang in one never starves the others.
func (s *Scheduler) Run(ctx context.Context) {
	done := make(chan struct{}, len(s.tasks))
	for _, t := range s.tasks {
		t := t
		go func() {
			s.loop(ctx, t)
			done <- struct{}{}
		}()
	}
	for range s.tasks {
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	s.execute(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, t)
		}
	}
}

// execute runs one invocation of a task under its hard deadline, writing
// the `running` JobRun first and the terminal `success`/`failed` row last
// — even when the task panics or times out (§4.11, §7).
func (s *Scheduler) execute(ctx context.Context, t Task) {
	taskCtx, cancel := context.WithTimeout(ctx, t.Hard)
	defer cancel()

	run := domain.JobRun{
		ID:        uuid.NewString(),
		TaskName:  t.Name,
		StartedAt: time.Now().UTC(),
		Status:    domain.JobRunning,
	}
	if err := s.store.InsertJobRun(taskCtx, run); err != nil {
		slog.Error("scheduler: failed to write running job run", "task", t.Name, "err", err)
		return
	}

	type result struct {
		n   int
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		n, err := t.Run(taskCtx)
		resultCh <- result{n: n, err: err}
	}()

	var res result
	select {
	case res = <-resultCh:
	case <-taskCtx.Done():
		res = result{err: fmt.Errorf("exceeded hard limit %s", t.Hard)}
	}

	now := time.Now().UTC()
	if res.err != nil {
		run.MarkFailed(now, res.err)
		slog.Error("task failed", "task", t.Name, "err", res.err, "duration", now.Sub(run.StartedAt))
	} else {
		run.MarkSuccess(now, res.n)
		slog.Info("task completed", "task", t.Name, "records", res.n, "duration", now.Sub(run.StartedAt))
	}
	if err := s.store.UpdateJobRun(ctx, run); err != nil {
		slog.Error("scheduler: failed to write terminal job run", "task", t.Name, "err", err)
	}
}
