package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"

	sqerrors "submitq.dev/submitq/internal/errors"
)

// CommitNode is a commit identity and its ordered parent identities.
type CommitNode struct {
	ID      plumbing.Hash
	Parents []plumbing.Hash
}

// Store wraps a go-git repository
type Store struct {
	repo *gogit.Repository
	path string
	now  func() time.Time

	mu     sync.Mutex
	reflog map[plumbing.ReferenceName][]RefLogEntry

	// refMu serializes ref updates made through this store
	refMu sync.Mutex
}

// NewStore wraps an already opened go-git repository
func NewStore(repo *gogit.Repository) *Store {
	return &Store{
		repo:   repo,
		now:    time.Now,
		reflog: make(map[plumbing.ReferenceName][]RefLogEntry),
	}
}

// OpenStore opens the git repository at the given path. Both bare
// repositories and work trees are accepted.
func OpenStore(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	s := NewStore(repo)
	s.path = absPath
	return s, nil
}

// NewMemoryStore creates an empty bare repository held in memory
func NewMemoryStore() (*Store, error) {
	repo, err := gogit.Init(memory.NewStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init in-memory repository: %w", err)
	}
	return NewStore(repo), nil
}

// Repository returns the underlying go-git repository
func (s *Store) Repository() *gogit.Repository {
	return s.repo
}

// Path returns the path the store was opened from, empty for in-memory stores
func (s *Store) Path() string {
	return s.path
}

// GitDir returns the git directory of a repository on disk, empty for
// in-memory stores
func (s *Store) GitDir() string {
	fsStorage, ok := s.repo.Storer.(*filesystem.Storage)
	if !ok {
		return ""
	}
	return fsStorage.Filesystem().Root()
}

// SetClock overrides the time source used for reflog entries
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// ResolveCommit reads the commit with the given id. Annotated tags are peeled
// to the commit they point at. A missing object, or one that is not a commit,
// is reported as ErrObjectNotFound.
func (s *Store) ResolveCommit(_ context.Context, id plumbing.Hash) (*CommitNode, error) {
	for {
		obj, err := object.GetObject(s.repo.Storer, id)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, sqerrors.NewObjectNotFoundError(id.String())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read object %s: %w", id, err)
		}

		switch o := obj.(type) {
		case *object.Commit:
			parents := make([]plumbing.Hash, len(o.ParentHashes))
			copy(parents, o.ParentHashes)
			return &CommitNode{ID: o.Hash, Parents: parents}, nil
		case *object.Tag:
			id = o.Target
		default:
			return nil, sqerrors.NewObjectNotFoundError(id.String())
		}
	}
}

// Refs returns every direct ref in the repository and the object it points at.
// Symbolic refs such as HEAD are skipped.
func (s *Store) Refs(_ context.Context) (map[plumbing.ReferenceName]plumbing.Hash, error) {
	iter, err := s.repo.Storer.IterReferences()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}
	defer iter.Close()

	refs := make(map[plumbing.ReferenceName]plumbing.Hash)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference {
			refs[ref.Name()] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}
	return refs, nil
}

// ResolveRef returns the commit a ref points at, following symbolic refs.
// A missing ref resolves to the zero hash.
func (s *Store) ResolveRef(_ context.Context, name plumbing.ReferenceName) (plumbing.Hash, error) {
	ref, err := storer.ResolveReference(s.repo.Storer, name)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	return ref.Hash(), nil
}

// SetRef points a ref at a commit unconditionally. It is meant for publishing
// refs the merge engine only reads, such as patch set refs.
func (s *Store) SetRef(_ context.Context, name plumbing.ReferenceName, id plumbing.Hash) error {
	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(name, id)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
