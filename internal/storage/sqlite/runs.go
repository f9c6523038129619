package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakmont/dealscope/internal/types"
)

// CreateRun records a new run in the incomplete state.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *types.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, deal_id, deal_type, state, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.DealID, string(run.DealType), string(run.State), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun records the terminal state and finish time of a run.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *types.Run) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET state = ?, finished_at = ? WHERE id = ?`,
		string(run.State), run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*types.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, deal_id, deal_type, state, started_at, finished_at
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*types.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deal_id, deal_type, state, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*types.Run, error) {
	var run types.Run
	var dealType, state string
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.DealID, &dealType, &state, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	run.DealType = types.DealType(dealType)
	run.State = types.RunState(state)
	if finished.Valid {
		run.FinishedAt = finished.Time.UTC()
	}
	run.StartedAt = run.StartedAt.UTC()
	return &run, nil
}
