package submit

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	sqerrors "submitq.dev/submitq/internal/errors"
	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/graph"
	"submitq.dev/submitq/internal/logging"
	"submitq.dev/submitq/internal/store"
)

// run is the state of one merge of one branch. It is owned by a single
// goroutine from start to finish.
type run struct {
	*Engine
	log *logging.Logger

	branch BranchState
	queue  []store.SubmittedChange
	graph  *commitGraph
	refs   map[plumbing.ReferenceName]plumbing.Hash

	// submissions carries the queue entries of every loaded commit. Several
	// changes may share one revision.
	submissions map[plumbing.Hash][]Submission
	// loaded lists the loaded commits once each, in load order
	loaded     []plumbing.Hash
	candidates []plumbing.Hash
	heads      []plumbing.Hash
	mergeTip   plumbing.Hash

	boundaryIDs []plumbing.Hash
	boundarySet graph.Set[plumbing.Hash]

	status    statusMap
	refUpdate git.RefUpdateResult
}

func newRun(e *Engine, log *logging.Logger, branch plumbing.ReferenceName) *run {
	return &run{
		Engine:      e,
		log:         log,
		branch:      BranchState{Name: branch},
		graph:       newCommitGraph(e.objects),
		submissions: make(map[plumbing.Hash][]Submission),
		status:      make(statusMap),
	}
}

// mark assigns code to every change submitted with the commit. Commits
// without submissions are ignored.
func (r *run) mark(id plumbing.Hash, code StatusCode) {
	for _, s := range r.submissions[id] {
		if r.status.set(s.ChangeID, code) {
			r.log.Debug("change %d: %s", s.ChangeID, code)
		}
	}
}

// markMerged records CLEAN_MERGE for every change submitted with a commit
// the new tip contains
func (r *run) markMerged(id plumbing.Hash) {
	for _, s := range r.submissions[id] {
		if r.status.merged(s.ChangeID) {
			r.log.Debug("change %d: %s", s.ChangeID, StatusCleanMerge)
		}
	}
}

// order is the merge priority of a loaded commit
func (r *run) order(id plumbing.Hash) int {
	return r.submissions[id][0].Order
}

// openBranch records the branch's current tip
func (r *run) openBranch(ctx context.Context) error {
	tip, err := r.objects.ResolveRef(ctx, r.branch.Name)
	if err != nil {
		return err
	}
	if !tip.IsZero() {
		n, err := r.graph.node(ctx, tip)
		if err != nil {
			return err
		}
		tip = n.ID
	}
	r.branch.OldTip = tip
	r.branch.NewTip = tip
	return nil
}

// boundary is the history a run treats as already accepted: the old branch
// tip, or for a new branch every head and tag in the repository
func (r *run) boundary(ctx context.Context) ([]plumbing.Hash, graph.Set[plumbing.Hash], error) {
	if r.boundarySet != nil {
		return r.boundaryIDs, r.boundarySet, nil
	}

	var ids []plumbing.Hash
	if !r.branch.OldTip.IsZero() {
		ids = []plumbing.Hash{r.branch.OldTip}
	} else {
		for name, id := range r.refs {
			if !name.IsBranch() && !name.IsTag() {
				continue
			}
			n, err := r.graph.node(ctx, id)
			if errors.Is(err, sqerrors.ErrObjectNotFound) {
				// not a commit
				continue
			}
			if err != nil {
				return nil, nil, err
			}
			ids = append(ids, n.ID)
		}
	}

	set, err := graph.Reachable[plumbing.Hash](ctx, r.graph, ids)
	if err != nil {
		return nil, nil, err
	}
	r.boundaryIDs, r.boundarySet = ids, set
	return ids, set, nil
}

// branchRef expands a short branch name to its full ref name
func branchRef(branch string) plumbing.ReferenceName {
	if strings.HasPrefix(branch, "refs/") {
		return plumbing.ReferenceName(branch)
	}
	return plumbing.NewBranchReferenceName(branch)
}
