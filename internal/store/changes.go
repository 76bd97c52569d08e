package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqerrors "submitq.dev/submitq/internal/errors"
)

// CreateChange inserts a new change and fills in its id and version
func (s *Store) CreateChange(ctx context.Context, c *Change) error {
	return s.createChange(ctx, s.db, c)
}

func (s *Store) createChange(ctx context.Context, db execer, c *Change) error {
	if c.Status == "" {
		c.Status = StatusNew
	}
	c.Updated(s.now())
	res, err := db.ExecContext(ctx,
		`INSERT INTO changes (branch, subject, status, current_patch_set, last_updated_on, row_version)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		c.Branch, c.Subject, string(c.Status), c.CurrentPatchSet, toMillis(c.LastUpdatedOn))
	if err != nil {
		return fmt.Errorf("failed to insert change: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read change id: %w", err)
	}
	c.ID = ChangeID(id)
	c.Version = 1
	return nil
}

// AddPatchSet stores a new patch set and makes it the change's current one
func (s *Store) AddPatchSet(ctx context.Context, ps *PatchSet) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.addPatchSet(ctx, tx, ps)
	})
}

func (s *Store) addPatchSet(ctx context.Context, tx *sql.Tx, ps *PatchSet) error {
	if ps.CreatedOn.IsZero() {
		ps.CreatedOn = s.now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO patch_sets (change_id, patch_set_id, revision, created_on) VALUES (?, ?, ?, ?)`,
		int(ps.ChangeID), ps.ID, ps.Revision, toMillis(ps.CreatedOn)); err != nil {
		return fmt.Errorf("failed to insert patch set: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE changes SET current_patch_set = ?, last_updated_on = ?, row_version = row_version + 1 WHERE id = ?`,
		ps.ID, toMillis(s.now()), int(ps.ChangeID))
	if err != nil {
		return fmt.Errorf("failed to update change: %w", err)
	}
	return requireOneRow(res, sqerrors.ErrChangeNotFound)
}

// CreateSubmission creates a change with its first patch set and, when
// submit is set, queues it, all in one transaction. Either the change lands
// complete or nothing is written. On success c and ps carry the stored ids.
func (s *Store) CreateSubmission(ctx context.Context, c *Change, ps *PatchSet, submit bool) error {
	created := *c
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.createChange(ctx, tx, &created); err != nil {
			return err
		}
		ps.ChangeID = created.ID
		if err := s.addPatchSet(ctx, tx, ps); err != nil {
			return err
		}
		created.CurrentPatchSet = ps.ID
		created.Version++
		if !submit {
			return nil
		}
		if err := submitChange(ctx, tx, created.ID, s.now()); err != nil {
			return err
		}
		created.Status = StatusSubmitted
		created.Version++
		return nil
	})
	if err != nil {
		ps.ChangeID = 0
		return err
	}
	*c = created
	return nil
}

// GetPatchSet returns a patch set, or nil when it does not exist
func (s *Store) GetPatchSet(ctx context.Context, changeID ChangeID, patchSetID int) (*PatchSet, error) {
	ps := &PatchSet{ChangeID: changeID, ID: patchSetID}
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, created_on FROM patch_sets WHERE change_id = ? AND patch_set_id = ?`,
		int(changeID), patchSetID).Scan(&ps.Revision, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patch set: %w", err)
	}
	ps.CreatedOn = fromMillis(created)
	return ps, nil
}

// Submit places a change at the end of its branch's submit queue
func (s *Store) Submit(ctx context.Context, id ChangeID) error {
	return submitChange(ctx, s.db, id, s.now())
}

func submitChange(ctx context.Context, db execer, id ChangeID, now time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE changes
		 SET status = ?, submit_order = (SELECT COALESCE(MAX(submit_order), 0) + 1 FROM changes),
		     last_updated_on = ?, row_version = row_version + 1
		 WHERE id = ?`,
		string(StatusSubmitted), toMillis(now), int(id))
	if err != nil {
		return fmt.Errorf("failed to submit change %d: %w", id, err)
	}
	return requireOneRow(res, sqerrors.ErrChangeNotFound)
}

// Submitted returns the submit queue for a branch in submission order,
// together with each change's current revision
func (s *Store) Submitted(ctx context.Context, branch string) ([]SubmittedChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.current_patch_set, COALESCE(p.revision, '')
		 FROM changes c
		 LEFT JOIN patch_sets p ON p.change_id = c.id AND p.patch_set_id = c.current_patch_set
		 WHERE c.branch = ? AND c.status = ?
		 ORDER BY c.submit_order, c.id`,
		branch, string(StatusSubmitted))
	if err != nil {
		return nil, fmt.Errorf("failed to query submitted changes: %w", err)
	}
	defer rows.Close()

	var out []SubmittedChange
	for rows.Next() {
		var sc SubmittedChange
		var id int
		if err := rows.Scan(&id, &sc.PatchSetID, &sc.Revision); err != nil {
			return nil, fmt.Errorf("failed to scan submitted change: %w", err)
		}
		sc.ChangeID = ChangeID(id)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// GetChange reads a change by id
func (s *Store) GetChange(ctx context.Context, id ChangeID) (*Change, error) {
	c := &Change{ID: id}
	var status string
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT branch, subject, status, current_patch_set, last_updated_on, row_version
		 FROM changes WHERE id = ?`, int(id)).
		Scan(&c.Branch, &c.Subject, &status, &c.CurrentPatchSet, &updated, &c.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("change %d: %w", id, sqerrors.ErrChangeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query change %d: %w", id, err)
	}
	c.Status = Status(status)
	c.LastUpdatedOn = fromMillis(updated)
	return c, nil
}

// UpdateChange writes the change, and msg when it is not nil, in one
// transaction. The write only succeeds if nobody else updated the change
// since it was read; otherwise ErrConcurrentUpdate is returned and nothing is
// written. On success c.Version is advanced.
func (s *Store) UpdateChange(ctx context.Context, c *Change, msg *Message) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE changes
			 SET status = ?, current_patch_set = ?, subject = ?, last_updated_on = ?, row_version = row_version + 1
			 WHERE id = ? AND row_version = ?`,
			string(c.Status), c.CurrentPatchSet, c.Subject, toMillis(c.LastUpdatedOn), int(c.ID), c.Version)
		if err != nil {
			return fmt.Errorf("failed to update change %d: %w", c.ID, err)
		}
		if err := requireOneRow(res, sqerrors.ErrConcurrentUpdate); err != nil {
			return fmt.Errorf("change %d: %w", c.ID, err)
		}
		if msg != nil {
			return insertMessage(ctx, tx, msg)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.Version++
	return nil
}

func requireOneRow(res sql.Result, otherwise error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return otherwise
	}
	return nil
}
