package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lox/buildcast/internal/models"
)

// StartRun inserts run with status running and sets its ID.
func (s *Store) StartRun(ctx context.Context, run *models.Run) error {
	run.Status = models.RunRunning
	run.StartedAt = run.StartedAt.UTC()

	result, err := s.exec(ctx, `
		INSERT INTO runs (stage, started_at, input_path, output_dir, status)
		VALUES (?, ?, ?, ?, ?)
	`, run.Stage, run.StartedAt, run.InputPath, run.OutputDir, run.Status)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of run.
func (s *Store) FinishRun(ctx context.Context, run *models.Run) error {
	if run == nil {
		return nil
	}
	_, err := s.exec(ctx, `
		UPDATE runs SET
			finished_at = ?,
			processed = ?,
			skipped = ?,
			status = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.Processed, run.Skipped, run.Status, run.ErrorMessage, run.ID)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", run.ID, err)
	}
	return nil
}

// LatestRun returns the most recently started run of stage, or nil if there
// is none.
func (s *Store) LatestRun(ctx context.Context, stage models.Stage) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, stage, started_at, finished_at, input_path, output_dir, processed, skipped, status, error_message
		FROM runs
		WHERE stage = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, stage)

	var r models.Run
	var input sql.NullString
	err := row.Scan(&r.ID, &r.Stage, &r.StartedAt, &r.FinishedAt, &input, &r.OutputDir,
		&r.Processed, &r.Skipped, &r.Status, &r.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s run: %w", stage, err)
	}
	r.InputPath = input.String
	return &r, nil
}
