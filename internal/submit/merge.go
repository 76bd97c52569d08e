package submit

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/graph"
)

// mergeMessage is the message of every merge commit a run writes
const mergeMessage = "Merge"

// mergeHeads folds the heads into the merge tip.
//
// The first head that fast-forwards the tip is taken as is. If the branch is
// fast-forward-only, every other head is rejected. Otherwise the remaining
// heads are merged one at a time in submission order. A head that does not
// merge cleanly rejects its whole unmerged line of development, including
// ancestors that would have merged on their own.
func (r *run) mergeHeads(ctx context.Context) error {
	r.mergeTip = r.branch.OldTip
	queue := append([]plumbing.Hash(nil), r.heads...)

	for i, head := range queue {
		ff := r.mergeTip.IsZero()
		if !ff {
			var err error
			ff, err = r.graph.isAncestor(ctx, r.mergeTip, head)
			if err != nil {
				return fmt.Errorf("fast-forward test failed: %w", err)
			}
		}
		if ff {
			r.log.Debug("fast-forward to %s", head)
			r.mergeTip = head
			queue = append(queue[:i], queue[i+1:]...)
			break
		}
	}

	ffOnly, err := r.fastForwardOnly(ctx)
	if err != nil {
		return err
	}
	if ffOnly {
		for _, head := range queue {
			r.log.Debug("%s rejected: branch only accepts fast-forwards", head)
			r.mark(head, StatusPathConflict)
		}
		return nil
	}

	for _, head := range queue {
		if err := r.mergeOne(ctx, head); err != nil {
			return fmt.Errorf("cannot merge %s: %w", head, err)
		}
	}
	return nil
}

func (r *run) mergeOne(ctx context.Context, head plumbing.Hash) error {
	result, err := r.objects.Merge(ctx, r.mergeTip, head)
	if err != nil {
		return err
	}

	if result.Clean() {
		parents := []plumbing.Hash{r.mergeTip, head}
		id, err := r.objects.WriteCommit(ctx, parents, result.Tree, r.signature(), mergeMessage)
		if err != nil {
			return err
		}
		r.graph.add(&git.CommitNode{ID: id, Parents: parents})
		r.log.Debug("merged %s as %s", head, id)
		r.mergeTip = id
		return nil
	}

	r.log.Debug("%s conflicts on %v", head, result.Conflicts)
	failed, err := graph.Walk[plumbing.Hash](ctx, r.graph, []plumbing.Hash{head}, []plumbing.Hash{r.mergeTip})
	if err != nil {
		return err
	}
	for _, id := range failed {
		r.mark(id, StatusPathConflict)
	}
	return nil
}

func (r *run) fastForwardOnly(ctx context.Context) (bool, error) {
	if r.policy == nil {
		return false, nil
	}
	ffOnly, err := r.policy.FastForwardOnly(ctx, r.branch.Name.String())
	if err != nil {
		return false, fmt.Errorf("failed to read merge policy: %w", err)
	}
	return ffOnly, nil
}
