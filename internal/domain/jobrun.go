package domain

import "time"

// JobStatus is the lifecycle of a scheduled task execution.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
)

// JobRun is the audit record written by the Scheduler (C11) for every task
// execution (§4.11, §7): a `running` row is written first, then updated to
// `success` or `failed` with duration and records processed.
type JobRun struct {
	ID               string
	TaskName         string
	StartedAt        time.Time
	CompletedAt      *time.Time
	Status           JobStatus
	RecordsProcessed int
	Error            string
	Metadata         map[string]any
}

// Duration returns the run's wall-clock duration, or 0 if it hasn't
// completed yet.
func (j JobRun) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.StartedAt)
}

// MarkSuccess completes the run as successful (P10: CompletedAt > StartedAt).
func (j *JobRun) MarkSuccess(now time.Time, recordsProcessed int) {
	j.Status = JobSuccess
	j.CompletedAt = &now
	j.RecordsProcessed = recordsProcessed
}

// MarkFailed completes the run as failed, recording the error (§7:
// "always update the JobRun row even on failure").
func (j *JobRun) MarkFailed(now time.Time, err error) {
	j.Status = JobFailed
	j.CompletedAt = &now
	if err != nil {
		j.Error = err.Error()
	}
}
