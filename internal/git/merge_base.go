package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	sqerrors "submitq.dev/submitq/internal/errors"
)

// commit loads a commit object, mapping a missing object to ErrObjectNotFound
func (s *Store) commit(id plumbing.Hash) (*object.Commit, error) {
	c, err := s.repo.CommitObject(id)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, sqerrors.NewObjectNotFoundError(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", id, err)
	}
	return c, nil
}

// IsAncestor checks if ancestor is descendant or one of its ancestors
func (s *Store) IsAncestor(_ context.Context, ancestor, descendant plumbing.Hash) (bool, error) {
	// If they're the same, ancestor is an ancestor
	if ancestor == descendant {
		return true, nil
	}

	ancestorCommit, err := s.commit(ancestor)
	if err != nil {
		return false, fmt.Errorf("failed to get ancestor commit: %w", err)
	}
	descendantCommit, err := s.commit(descendant)
	if err != nil {
		return false, fmt.Errorf("failed to get descendant commit: %w", err)
	}

	return ancestorCommit.IsAncestor(descendantCommit)
}

// MergeBase returns the best common ancestor of two commits, or nil when the
// histories are unrelated. With several equally good bases the first one
// reported by go-git is used.
func (s *Store) MergeBase(_ context.Context, a, b plumbing.Hash) (*object.Commit, error) {
	commitA, err := s.commit(a)
	if err != nil {
		return nil, err
	}
	commitB, err := s.commit(b)
	if err != nil {
		return nil, err
	}

	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base: %w", err)
	}
	if len(bases) == 0 {
		return nil, nil
	}
	return bases[0], nil
}
