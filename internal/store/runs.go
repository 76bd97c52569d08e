package store

import (
	"context"
	"fmt"
)

// RecordRun stores the audit record of a merge run
func (s *Store) RecordRun(ctx context.Context, r *RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO merge_runs (run_id, branch, old_tip, new_tip, started_at, finished_at, merged, failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Branch, r.OldTip, r.NewTip,
		toMillis(r.StartedAt), toMillis(r.FinishedAt), r.Merged, r.Failed, r.Err)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.RunID, err)
	}
	return nil
}

// Runs returns the recorded runs for a branch, most recent first
func (s *Store) Runs(ctx context.Context, branch string) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, old_tip, new_tip, started_at, finished_at, merged, failed, error
		 FROM merge_runs WHERE branch = ? ORDER BY started_at DESC, rowid DESC`, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		r := &RunRecord{Branch: branch}
		var started, finished int64
		if err := rows.Scan(&r.RunID, &r.OldTip, &r.NewTip, &started, &finished, &r.Merged, &r.Failed, &r.Err); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = fromMillis(started)
		r.FinishedAt = fromMillis(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
