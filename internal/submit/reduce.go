package submit

import (
	"context"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"

	"submitq.dev/submitq/internal/graph"
)

// reduce collapses the candidates to their heads.
//
// A candidate whose new history contains a commit that is neither accepted
// nor a candidate would drag that commit into the branch, so it is marked
// MISSING_DEPENDENCY instead. Of the rest, only candidates no other
// candidate descends from are kept; the others ride along with their
// descendant and are classified once it merges.
func (r *run) reduce(ctx context.Context) error {
	_, accepted, err := r.boundary(ctx)
	if err != nil {
		return err
	}

	isCandidate := make(graph.Set[plumbing.Hash], len(r.candidates))
	for _, id := range r.candidates {
		isCandidate[id] = struct{}{}
	}

	var ready []plumbing.Hash
	for _, id := range r.candidates {
		line, err := graph.WalkExcluding[plumbing.Hash](ctx, r.graph, []plumbing.Hash{id}, accepted)
		if err != nil {
			return err
		}
		missing := plumbing.ZeroHash
		for _, c := range line {
			if !isCandidate.Has(c) {
				missing = c
				break
			}
		}
		if !missing.IsZero() {
			r.log.Debug("%s depends on unsubmitted commit %s", id, missing)
			r.mark(id, StatusMissingDependency)
			continue
		}
		ready = append(ready, id)
	}

	heads, err := graph.HeadsExcluding[plumbing.Hash](ctx, r.graph, ready, accepted)
	if err != nil {
		return err
	}
	sort.SliceStable(heads, func(i, j int) bool {
		return r.order(heads[i]) < r.order(heads[j])
	})
	r.heads = heads
	return nil
}
