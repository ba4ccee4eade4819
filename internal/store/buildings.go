package store

import (
	"context"
	"fmt"

	"github.com/lox/buildcast/internal/models"
)

func (s *Store) RecordDataset(ctx context.Context, d models.DatasetSummary) error {
	_, err := s.exec(ctx, `
		INSERT INTO dataset_summaries (run_id, building, rows_joined, rows_kept, area, first_timestamp, last_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, building) DO UPDATE SET
			rows_joined = excluded.rows_joined,
			rows_kept = excluded.rows_kept,
			area = excluded.area,
			first_timestamp = excluded.first_timestamp,
			last_timestamp = excluded.last_timestamp
	`, d.RunID, d.Building, d.RowsJoined, d.RowsKept, d.Area, d.FirstTimestamp, d.LastTimestamp)
	if err != nil {
		return fmt.Errorf("record dataset %s: %w", d.Building, err)
	}
	return nil
}

func (s *Store) ListDatasets(ctx context.Context, runID int64) ([]models.DatasetSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, building, rows_joined, rows_kept, area, first_timestamp, last_timestamp
		FROM dataset_summaries
		WHERE run_id = ?
		ORDER BY building
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DatasetSummary
	for rows.Next() {
		var d models.DatasetSummary
		if err := rows.Scan(&d.RunID, &d.Building, &d.RowsJoined, &d.RowsKept, &d.Area,
			&d.FirstTimestamp, &d.LastTimestamp); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordPerformance appends a building's scores to the run, keeping the
// order in which buildings were recorded.
func (s *Store) RecordPerformance(ctx context.Context, p models.PerformanceRecord) error {
	_, err := s.exec(ctx, `
		INSERT INTO performance (run_id, seq, building, mse, mae, r2, mape, train_rows, validation_rows)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM performance WHERE run_id = ?), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, building) DO UPDATE SET
			mse = excluded.mse,
			mae = excluded.mae,
			r2 = excluded.r2,
			mape = excluded.mape,
			train_rows = excluded.train_rows,
			validation_rows = excluded.validation_rows
	`, p.RunID, p.RunID, p.Building, p.MSE, p.MAE, p.R2, p.MAPE, p.TrainRows, p.ValidationRows)
	if err != nil {
		return fmt.Errorf("record performance %s: %w", p.Building, err)
	}
	return nil
}

func (s *Store) ListPerformance(ctx context.Context, runID int64) ([]models.PerformanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, building, mse, mae, r2, mape, train_rows, validation_rows
		FROM performance
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PerformanceRecord
	for rows.Next() {
		var p models.PerformanceRecord
		if err := rows.Scan(&p.RunID, &p.Building, &p.MSE, &p.MAE, &p.R2, &p.MAPE,
			&p.TrainRows, &p.ValidationRows); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
