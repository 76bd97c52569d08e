package submit

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"

	sqerrors "submitq.dev/submitq/internal/errors"
	"submitq.dev/submitq/internal/store"
)

// load resolves the current revision of every queued change. Changes with
// no usable revision are marked NO_PATCH_SET, ones whose commit is missing
// REVISION_GONE. Any other lookup failure aborts the run.
func (r *run) load(ctx context.Context) error {
	order := 0
	for _, sc := range r.queue {
		id, err := parseRevision(sc)
		if err != nil {
			r.log.Debug("change %d: %v", sc.ChangeID, err)
			r.status.set(sc.ChangeID, StatusNoPatchSet)
			continue
		}

		n, err := r.graph.node(ctx, id)
		if errors.Is(err, sqerrors.ErrObjectNotFound) {
			r.log.Debug("change %d: %v", sc.ChangeID, err)
			r.status.set(sc.ChangeID, StatusRevisionGone)
			continue
		}
		if err != nil {
			return err
		}

		if _, seen := r.submissions[n.ID]; !seen {
			r.loaded = append(r.loaded, n.ID)
		}
		r.submissions[n.ID] = append(r.submissions[n.ID], Submission{
			ChangeID:   sc.ChangeID,
			PatchSetID: sc.PatchSetID,
			Order:      order,
		})
		order++
	}
	return nil
}

func parseRevision(sc store.SubmittedChange) (plumbing.Hash, error) {
	if sc.PatchSetID == 0 || !plumbing.IsHash(sc.Revision) {
		return plumbing.ZeroHash, sqerrors.NewMalformedInputError(sc.Revision)
	}
	return plumbing.NewHash(sc.Revision), nil
}
