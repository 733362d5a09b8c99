package frameindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// BeginRun records a run as running.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (run_id, input_dir, output_dir, amount, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputDir, run.OutputDir, run.Amount, RunRunning, formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores a run's outcome.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, images, frames int, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, images = ?, frames = ?, error = ?, finished_at = ? WHERE run_id = ?`,
		status, images, frames, nullableString(message), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run: %s not found", id)
	}
	return nil
}

// GetRun fetches a run by id. It returns nil when the run does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, runSelect+` WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := runSelect + ` ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const runSelect = `SELECT run_id, input_dir, output_dir, amount, status, images, frames, error, started_at, finished_at FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run      Run
		errText  sql.NullString
		started  sql.NullString
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.InputDir, &run.OutputDir, &run.Amount, &run.Status,
		&run.Images, &run.Frames, &errText, &started, &finished); err != nil {
		return nil, err
	}
	run.Error = errText.String
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return &run, nil
}
