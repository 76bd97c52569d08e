package submit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"submitq.dev/submitq/internal/graph"
)

// validate drops loaded commits that cannot or need not be merged.
//
// A revision must be the exact tip of some ref. This is a cheap stand-in for
// a reachability walk: every patch set has its own ref, so a revision without
// one points at a broken upload. A revision that is no longer a ref tip but
// is still reachable from one is misreported as REVISION_GONE.
func (r *run) validate(ctx context.Context) error {
	refs, err := r.objects.Refs(ctx)
	if err != nil {
		return err
	}
	r.refs = refs

	tips := make(map[plumbing.Hash]struct{}, len(refs))
	for _, id := range refs {
		tips[id] = struct{}{}
	}

	var history graph.Set[plumbing.Hash]
	if !r.branch.OldTip.IsZero() && len(r.loaded) > 0 {
		_, history, err = r.boundary(ctx)
		if err != nil {
			return err
		}
	}

	for _, id := range r.loaded {
		if _, ok := tips[id]; !ok {
			r.mark(id, StatusRevisionGone)
			continue
		}
		if history.Has(id) {
			r.mark(id, StatusAlreadyMerged)
			continue
		}
		r.candidates = append(r.candidates, id)
	}
	return nil
}
