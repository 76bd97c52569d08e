package submit

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/store"
)

// StatusCode is the outcome assigned to a change by a merge run
type StatusCode int

const (
	// StatusNoPatchSet means the change has no usable current revision
	StatusNoPatchSet StatusCode = iota + 1
	// StatusRevisionGone means the revision is not the tip of any ref
	StatusRevisionGone
	// StatusAlreadyMerged means the revision was already in the branch
	StatusAlreadyMerged
	// StatusPathConflict means the revision could not be merged
	StatusPathConflict
	// StatusMissingDependency means the revision depends on commits that are
	// neither merged nor submitted
	StatusMissingDependency
	// StatusCleanMerge means the revision was integrated by this run
	StatusCleanMerge
)

func (s StatusCode) String() string {
	switch s {
	case StatusNoPatchSet:
		return "NO_PATCH_SET"
	case StatusRevisionGone:
		return "REVISION_GONE"
	case StatusAlreadyMerged:
		return "ALREADY_MERGED"
	case StatusPathConflict:
		return "PATH_CONFLICT"
	case StatusMissingDependency:
		return "MISSING_DEPENDENCY"
	case StatusCleanMerge:
		return "CLEAN_MERGE"
	default:
		return fmt.Sprintf("StatusCode(%d)", int(s))
	}
}

// IsMerged reports whether the change ends up in the branch
func (s StatusCode) IsMerged() bool {
	return s == StatusCleanMerge || s == StatusAlreadyMerged
}

// Submission is the submit queue entry riding alongside a loaded commit
type Submission struct {
	ChangeID   store.ChangeID
	PatchSetID int
	// Order is the zero-based load position, the merge tie-break
	Order int
}

// BranchState is the branch a run integrates into. A zero tip means the
// branch does not exist.
type BranchState struct {
	Name   plumbing.ReferenceName
	OldTip plumbing.Hash
	NewTip plumbing.Hash
}

// Moved reports whether the run produced a new tip
func (b BranchState) Moved() bool {
	return b.NewTip != b.OldTip
}

// Result summarizes a finished run
type Result struct {
	RunID     string
	Branch    BranchState
	RefUpdate git.RefUpdateResult
	// Submitted is the queue the run worked on, in submission order
	Submitted []store.SubmittedChange
	Statuses  map[store.ChangeID]StatusCode
	// ReconcileErr holds failures persisting outcomes. They never fail the
	// run; the affected changes keep their last stored state.
	ReconcileErr error
}

// Status returns the outcome of a change
func (r *Result) Status(id store.ChangeID) (StatusCode, bool) {
	code, ok := r.Statuses[id]
	return code, ok
}

// Count returns how many changes got the given outcome
func (r *Result) Count(code StatusCode) int {
	n := 0
	for _, c := range r.Statuses {
		if c == code {
			n++
		}
	}
	return n
}

// Merged returns how many changes ended up in the branch
func (r *Result) Merged() int {
	return r.Count(StatusCleanMerge) + r.Count(StatusAlreadyMerged)
}
