package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"

	sqerrors "submitq.dev/submitq/internal/errors"
)

// RefUpdateResult describes a successful ref update
type RefUpdateResult int

const (
	// RefNoChange means the ref already held the new value
	RefNoChange RefUpdateResult = iota
	// RefCreated means the ref did not exist before
	RefCreated
	// RefFastForward means the ref moved to a descendant of its old value
	RefFastForward
)

func (r RefUpdateResult) String() string {
	switch r {
	case RefNoChange:
		return "NO_CHANGE"
	case RefCreated:
		return "NEW"
	case RefFastForward:
		return "FAST_FORWARD"
	default:
		return fmt.Sprintf("RefUpdateResult(%d)", int(r))
	}
}

// RefUpdate is a compare-and-swap request for a single ref
type RefUpdate struct {
	Name plumbing.ReferenceName
	// Old is the value the ref must still hold; zero means the ref must not exist
	Old plumbing.Hash
	New plumbing.Hash
	// Ident and Message are recorded in the reflog
	Ident   object.Signature
	Message string
}

// UpdateRef moves a ref from Old to New. It never forces: the ref must still
// hold Old and New must be a descendant of Old. A ref that moved underneath
// the caller fails with ErrRefChanged, a history rewrite with
// ErrNonFastForward. Creation is exclusive: a ref that appears before the
// write lands fails with ErrRefChanged too.
func (s *Store) UpdateRef(ctx context.Context, u RefUpdate) (RefUpdateResult, error) {
	current, err := s.directRef(u.Name)
	if err != nil {
		return RefNoChange, err
	}
	if current != u.Old {
		return RefNoChange, refChanged(u, current)
	}
	if u.Old == u.New {
		return RefNoChange, nil
	}

	result := RefCreated
	if !u.Old.IsZero() {
		ff, err := s.IsAncestor(ctx, u.Old, u.New)
		if err != nil {
			return RefNoChange, fmt.Errorf("failed to check fast-forward: %w", err)
		}
		if !ff {
			return RefNoChange, sqerrors.NewRefUpdateError(u.Name.String(), u.Old.String(), "", sqerrors.ErrNonFastForward)
		}
		result = RefFastForward
	}

	if err := s.writeRef(u); err != nil {
		return RefNoChange, err
	}

	entry := RefLogEntry{Old: u.Old, New: u.New, Committer: u.Ident, Message: u.Message}
	if err := s.appendRefLog(u.Name, entry); err != nil {
		return result, fmt.Errorf("ref %s updated but reflog not written: %w", u.Name, err)
	}
	return result, nil
}

// writeRef re-reads the ref under the store's lock and writes New only if it
// still holds Old. Repositories on disk also hold git's <ref>.lock file for
// the duration, and the new value lands by renaming the lock onto the ref.
func (s *Store) writeRef(u RefUpdate) error {
	s.refMu.Lock()
	defer s.refMu.Unlock()

	fsStorage, ok := s.repo.Storer.(*filesystem.Storage)
	if !ok {
		current, err := s.directRef(u.Name)
		if err != nil {
			return err
		}
		if current != u.Old {
			return refChanged(u, current)
		}
		var oldRef *plumbing.Reference
		if !u.Old.IsZero() {
			oldRef = plumbing.NewHashReference(u.Name, u.Old)
		}
		err = s.repo.Storer.CheckAndSetReference(plumbing.NewHashReference(u.Name, u.New), oldRef)
		if errors.Is(err, storage.ErrReferenceHasChanged) {
			return refChanged(u, plumbing.ZeroHash)
		}
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", u.Name, err)
		}
		return nil
	}

	fs := fsStorage.Filesystem()
	refPath := u.Name.String()
	lockPath := refPath + ".lock"
	if err := fs.MkdirAll(path.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("failed to create ref directory: %w", err)
	}
	f, err := fs.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return sqerrors.NewRefUpdateError(u.Name.String(), u.Old.String(), "locked", sqerrors.ErrRefChanged)
	}
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", u.Name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = fs.Remove(lockPath)
		}
	}()

	if _, err := f.Write([]byte(u.New.String() + "\n")); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", lockPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", lockPath, err)
	}

	current, err := s.directRef(u.Name)
	if err != nil {
		return err
	}
	if current != u.Old {
		return refChanged(u, current)
	}
	if err := fs.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("failed to update %s: %w", u.Name, err)
	}
	committed = true
	return nil
}

func refChanged(u RefUpdate, current plumbing.Hash) error {
	found := ""
	if !current.IsZero() {
		found = current.String()
	}
	return sqerrors.NewRefUpdateError(u.Name.String(), u.Old.String(), found, sqerrors.ErrRefChanged)
}

// directRef reads a ref without following symbolic refs
func (s *Store) directRef(name plumbing.ReferenceName) (plumbing.Hash, error) {
	ref, err := s.repo.Storer.Reference(name)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return ref.Hash(), nil
}
