package submit

import (
	"context"

	"submitq.dev/submitq/internal/git"
)

// refLogMessage describes a run's branch update in the reflog
const refLogMessage = "merged"

// updateBranch moves the branch to the merge tip. The update is a
// compare-and-swap against the tip seen when the run started and never
// forces; any rejection aborts the run.
func (r *run) updateBranch(ctx context.Context) error {
	if !r.branch.Moved() {
		r.refUpdate = git.RefNoChange
		return nil
	}

	result, err := r.objects.UpdateRef(ctx, git.RefUpdate{
		Name:    r.branch.Name,
		Old:     r.branch.OldTip,
		New:     r.branch.NewTip,
		Ident:   r.signature(),
		Message: refLogMessage,
	})
	if err != nil && result == git.RefNoChange {
		return err
	}
	if err != nil {
		// the ref moved; only the reflog entry is missing
		r.log.Warn("%v", err)
	}
	r.log.Debug("%s: %s %s..%s", r.branch.Name, result, r.branch.OldTip, r.branch.NewTip)
	r.refUpdate = result
	return nil
}
