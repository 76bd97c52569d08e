package submit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"submitq.dev/submitq/internal/graph"
)

// markCleanMerges attributes every submitted commit the merge tip brings into
// the branch as CLEAN_MERGE. This picks up the ancestors reduce folded into
// their heads, including ones a conflicting head had marked PATH_CONFLICT.
// Other statuses are kept.
func (r *run) markCleanMerges(ctx context.Context) error {
	r.branch.NewTip = r.mergeTip
	if r.mergeTip.IsZero() {
		return nil
	}

	_, accepted, err := r.boundary(ctx)
	if err != nil {
		return err
	}
	added, err := graph.WalkExcluding[plumbing.Hash](ctx, r.graph, []plumbing.Hash{r.mergeTip}, accepted)
	if err != nil {
		return err
	}
	for _, id := range added {
		r.markMerged(id)
	}
	return nil
}
