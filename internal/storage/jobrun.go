package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) InsertJobRun(ctx context.Context, j domain.JobRun) error {
	metadata, err := encodeMetadata(j.Metadata)
	if err != nil {
		return fmt.Errorf("storage.InsertJobRun: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_runs (id, task_name, started_at, completed_at, status, records_processed, error, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.TaskName, j.StartedAt.UTC(), nullableTime(j.CompletedAt), string(j.Status), j.RecordsProcessed, j.Error, metadata)
	if err != nil {
		return fmt.Errorf("storage.InsertJobRun: %w", err)
	}
	return nil
}

func (s *Store) UpdateJobRun(ctx context.Context, j domain.JobRun) error {
	metadata, err := encodeMetadata(j.Metadata)
	if err != nil {
		return fmt.Errorf("storage.UpdateJobRun: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE job_runs SET completed_at = ?, status = ?, records_processed = ?, error = ?, metadata_json = ?
		WHERE id = ?
	`, nullableTime(j.CompletedAt), string(j.Status), j.RecordsProcessed, j.Error, metadata, j.ID)
	if err != nil {
		return fmt.Errorf("storage.UpdateJobRun: %w", err)
	}
	return nil
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}
