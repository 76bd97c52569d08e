package submit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/store"
)

// ChangeSource lists the submit queue of a branch. The list must not change
// during a run.
type ChangeSource interface {
	Submitted(ctx context.Context, branch string) ([]store.SubmittedChange, error)
}

// ObjectStore is the repository a run reads commits from and writes merges to
type ObjectStore interface {
	ResolveCommit(ctx context.Context, id plumbing.Hash) (*git.CommitNode, error)
	Refs(ctx context.Context) (map[plumbing.ReferenceName]plumbing.Hash, error)
	ResolveRef(ctx context.Context, name plumbing.ReferenceName) (plumbing.Hash, error)
	Merge(ctx context.Context, ours, theirs plumbing.Hash) (*git.MergeResult, error)
	WriteCommit(ctx context.Context, parents []plumbing.Hash, tree plumbing.Hash, ident object.Signature, message string) (plumbing.Hash, error)
	UpdateRef(ctx context.Context, u git.RefUpdate) (git.RefUpdateResult, error)
}

// ChangeStore persists change outcomes
type ChangeStore interface {
	GetChange(ctx context.Context, id store.ChangeID) (*store.Change, error)
	// UpdateChange writes the change and msg (if not nil) atomically. It
	// fails with ErrConcurrentUpdate when the change was modified since it
	// was read.
	UpdateChange(ctx context.Context, c *store.Change, msg *store.Message) error
	InsertMessage(ctx context.Context, msg *store.Message) error
	Messages(ctx context.Context, id store.ChangeID) ([]*store.Message, error)
	NextMessageID(ctx context.Context) (int32, error)
}

// Policy decides whether a branch only accepts fast-forwards
type Policy interface {
	FastForwardOnly(ctx context.Context, branch string) (bool, error)
}

// PolicyFunc adapts a function to Policy
type PolicyFunc func(ctx context.Context, branch string) (bool, error)

// FastForwardOnly calls f
func (f PolicyFunc) FastForwardOnly(ctx context.Context, branch string) (bool, error) {
	return f(ctx, branch)
}

// AnyPolicy restricts a branch if any of its policies does
type AnyPolicy []Policy

// FastForwardOnly reports true as soon as one policy does
func (p AnyPolicy) FastForwardOnly(ctx context.Context, branch string) (bool, error) {
	for _, policy := range p {
		ok, err := policy.FastForwardOnly(ctx, branch)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// RunLog keeps the audit trail of runs
type RunLog interface {
	RecordRun(ctx context.Context, r *store.RunRecord) error
}
