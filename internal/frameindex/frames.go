package frameindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordFrame inserts or replaces the ledger row for f.Name.
func (s *Store) RecordFrame(ctx context.Context, f Frame) error {
	if f.Name == "" || f.Hash == "" {
		return errors.New("frame name and hash required")
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT OR REPLACE INTO frames (
            name, hash, source_name, kind, amount, seq, seed,
            iterations_requested, iterations_used, attempts, bytes, run_id, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Hash, nullableString(f.SourceName), f.Kind, f.Amount, f.Seq, f.Seed,
		f.IterationsRequested, f.IterationsUsed, f.Attempts, f.Bytes, nullableString(f.RunID), formatTime(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record frame %s: %w", f.Name, err)
	}
	return nil
}

// Frame returns the ledger row for name, or nil when absent.
func (s *Store) Frame(ctx context.Context, name string) (*Frame, error) {
	row := s.db.QueryRowContext(ctx, frameSelect+` WHERE name = ?`, name)
	f, err := scanFrame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

// FramesForHash lists ledger rows for one source, clean first then by sequence.
func (s *Store) FramesForHash(ctx context.Context, hash string) ([]Frame, error) {
	rows, err := s.db.QueryContext(ctx, frameSelect+` WHERE hash = ? ORDER BY kind, seq, amount`, hash)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()
	var frames []Frame
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, *f)
	}
	return frames, rows.Err()
}

// ForgetHashes deletes rows for sources whose cache entries were pruned.
func (s *Store) ForgetHashes(ctx context.Context, keep func(hash string) bool) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT hash FROM frames`)
	if err != nil {
		return 0, fmt.Errorf("list hashes: %w", err)
	}
	var gone []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			rows.Close()
			return 0, err
		}
		if !keep(hash) {
			gone = append(gone, hash)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	removed := 0
	for _, hash := range gone {
		res, err := s.exec(ctx, `DELETE FROM frames WHERE hash = ?`, hash)
		if err != nil {
			return removed, fmt.Errorf("forget %s: %w", hash, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}
	return removed, nil
}

// Summary aggregates frame and run counts.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN kind = 'clean' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN kind = 'glitch' THEN 1 ELSE 0 END), 0),
            COUNT(DISTINCT hash),
            COALESCE(SUM(bytes), 0)
        FROM frames`).Scan(&sum.Frames, &sum.CleanFrames, &sum.GlitchFrames, &sum.Sources, &sum.Bytes)
	if err != nil {
		return sum, fmt.Errorf("frame summary: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs`).Scan(&sum.Runs); err != nil {
		return sum, fmt.Errorf("run summary: %w", err)
	}
	return sum, nil
}

const frameSelect = `SELECT name, hash, source_name, kind, amount, seq, seed,
    iterations_requested, iterations_used, attempts, bytes, run_id, created_at FROM frames`

func scanFrame(row rowScanner) (*Frame, error) {
	var (
		f       Frame
		source  sql.NullString
		runID   sql.NullString
		created sql.NullString
	)
	if err := row.Scan(&f.Name, &f.Hash, &source, &f.Kind, &f.Amount, &f.Seq, &f.Seed,
		&f.IterationsRequested, &f.IterationsUsed, &f.Attempts, &f.Bytes, &runID, &created); err != nil {
		return nil, err
	}
	f.SourceName = source.String
	f.RunID = runID.String
	f.CreatedAt = parseTime(created)
	return &f, nil
}
