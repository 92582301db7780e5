package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

type fakeJobRunStore struct {
	mu   sync.Mutex
	runs map[string]domain.JobRun
}

func newFakeJobRunStore() *fakeJobRunStore {
	return &fakeJobRunStore{runs: map[string]domain.JobRun{}}
}

func (f *fakeJobRunStore) InsertJobRun(_ context.Context, j domain.JobRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[j.ID] = j
	return nil
}

func (f *fakeJobRunStore) UpdateJobRun(_ context.Context, j domain.JobRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[j.ID] = j
	return nil
}

func (f *fakeJobRunStore) byTaskName(name string) []domain.JobRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.JobRun
	for _, r := range f.runs {
		if r.TaskName == name {
			out = append(out, r)
		}
	}
	return out
}

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	store := newFakeJobRunStore()
	var calls int32
	var mu sync.Mutex

	task := Task{
		Name:     "snapshot",
		Interval: 20 * time.Millisecond,
		Hard:     time.Second,
		Run: func(ctx context.Context) (int, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return 3, nil
		},
	}

	sched := New(store, task)
	ctx, cancel := context.WithTimeout(context.Background(), 65*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	mu.Lock()
	n := calls
	mu.Unlock()
	assert.GreaterOrEqual(t, n, int32(2), "expected at least one immediate run plus a ticked run")

	runs := store.byTaskName("snapshot")
	require.NotEmpty(t, runs)
	for _, r := range runs {
		assert.Equal(t, domain.JobSuccess, r.Status)
		assert.Equal(t, 3, r.RecordsProcessed)
		require.NotNil(t, r.CompletedAt)
		assert.True(t, r.CompletedAt.After(r.StartedAt) || r.CompletedAt.Equal(r.StartedAt))
	}
}

func TestScheduler_TaskErrorMarksJobRunFailed(t *testing.T) {
	store := newFakeJobRunStore()
	task := Task{
		Name:     "discovery",
		Interval: time.Hour,
		Hard:     time.Second,
		Run: func(ctx context.Context) (int, error) {
			return 0, errors.New("boom")
		},
	}

	sched := New(store, task)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	runs := store.byTaskName("discovery")
	require.Len(t, runs, 1)
	assert.Equal(t, domain.JobFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "boom")
}

func TestScheduler_HardLimitAbortsAndMarksFailed(t *testing.T) {
	store := newFakeJobRunStore()
	task := Task{
		Name:     "profile",
		Interval: time.Hour,
		Hard:     20 * time.Millisecond,
		Run: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}

	sched := New(store, task)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	runs := store.byTaskName("profile")
	require.Len(t, runs, 1)
	assert.Equal(t, domain.JobFailed, runs[0].Status)
}

func TestTask_WithDefaultsFillsSoftAndHard(t *testing.T) {
	task := Task{Name: "x", Interval: 10 * time.Second}.withDefaults()
	assert.Equal(t, 10*time.Second, task.Soft)
	assert.Equal(t, 20*time.Second, task.Hard)
}
