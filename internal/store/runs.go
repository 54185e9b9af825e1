package store

import (
	"context"
	"fmt"

	"github.com/ppiankov/edgarflat/internal/model"
)

// RecordRun appends a pipeline run to the history
func (s *Store) RecordRun(ctx context.Context, run model.PipelineRun) error {
	query := s.db.Rebind(`INSERT INTO pipeline_runs
		(id, user_id, cik, entity_name, fact_rows, attribute_rows, skipped, walk_mode, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.UserID, run.CIK, run.EntityName, run.FactRows, run.AttributeRows,
		run.Skipped, run.WalkMode, run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns a user's most recent runs, newest first
func (s *Store) Runs(ctx context.Context, userID string, limit int) ([]model.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := []model.PipelineRun{}
	query := s.db.Rebind(`SELECT id, user_id, cik, entity_name, fact_rows, attribute_rows, skipped, walk_mode, started_at, finished_at
		FROM pipeline_runs WHERE user_id = ? ORDER BY finished_at DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &runs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
