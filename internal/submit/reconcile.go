package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	sqerrors "submitq.dev/submitq/internal/errors"
	"submitq.dev/submitq/internal/store"
)

// maxStatusAttempts bounds the writes of one change's status
const maxStatusAttempts = 10

const (
	msgCleanMerge = "Change has been successfully merged into the git repository."

	msgPathConflict = "Your change could not be merged due to a path conflict.\n" +
		"\n" +
		"Please merge (or rebase) the change locally and upload the resolution for review."

	msgMissingDependency = "Change could not be merged because of a missing dependency.  " +
		"As soon as its dependencies are submitted, the change will be submitted."

	msgUnspecifiedFailure = "Unspecified merge failure: "
)

// writeOutcome is how a status write ended
type writeOutcome int

const (
	// outcomeWritten means the status and message were stored
	outcomeWritten writeOutcome = iota
	// outcomeClosedElsewhere means someone else closed the change first
	outcomeClosedElsewhere
	// outcomeExhausted means every attempt lost a concurrent update
	outcomeExhausted
)

// writeStep is a state of the status write loop
type writeStep int

const (
	stepRead writeStep = iota
	stepMutate
	stepCommit
)

// statusWrite is the change update one outcome asks for
type statusWrite struct {
	change store.ChangeID
	status store.Status
	// patchSet is the patch set that was merged; only used for merges
	patchSet int
	message  *store.Message
}

// reconcile persists the outcome of every queued change. Failures are
// collected and returned together; they never abort the loop.
func (r *run) reconcile(ctx context.Context) error {
	var errs *multierror.Error
	for _, sc := range r.queue {
		code, ok := r.status.get(sc.ChangeID)
		if !ok {
			r.log.Warn("change %d has no merge status, leaving it for the next run", sc.ChangeID)
			continue
		}
		r.metrics.ObserveChange(r.branch.Name.String(), code.String())
		if err := r.reconcileChange(ctx, sc, code); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("change %d: %w", sc.ChangeID, err))
		}
	}
	return errs.ErrorOrNil()
}

func (r *run) reconcileChange(ctx context.Context, sc store.SubmittedChange, code StatusCode) error {
	switch code {
	case StatusCleanMerge:
		return r.setStatus(ctx, sc, store.StatusMerged, msgCleanMerge)
	case StatusAlreadyMerged:
		return r.setStatus(ctx, sc, store.StatusMerged, "")
	case StatusPathConflict:
		return r.setStatus(ctx, sc, store.StatusNew, msgPathConflict)
	case StatusMissingDependency:
		return r.noteMissingDependency(ctx, sc.ChangeID)
	default:
		return r.setStatus(ctx, sc, store.StatusNew, msgUnspecifiedFailure+code.String())
	}
}

func (r *run) setStatus(ctx context.Context, sc store.SubmittedChange, status store.Status, text string) error {
	w := statusWrite{change: sc.ChangeID, status: status, patchSet: sc.PatchSetID}
	if text != "" {
		msg, err := r.newMessage(ctx, sc.ChangeID, text)
		if err != nil {
			return err
		}
		w.message = msg
	}

	outcome, err := r.writeStatus(ctx, w)
	if err != nil {
		return err
	}
	switch outcome {
	case outcomeClosedElsewhere:
		r.log.Debug("change %d was closed by someone else, leaving it closed", sc.ChangeID)
	case outcomeExhausted:
		r.log.Warn("change %d: status %s not written after %d attempts", sc.ChangeID, status, maxStatusAttempts)
		return fmt.Errorf("status %s not written after %d attempts: %w", status, maxStatusAttempts, sqerrors.ErrConcurrentUpdate)
	}
	return nil
}

// writeStatus runs read, mutate and commit until the commit succeeds, the
// change turns out closed by someone else, or the attempts run out. A lost
// race goes back to read.
func (r *run) writeStatus(ctx context.Context, w statusWrite) (writeOutcome, error) {
	var c *store.Change
	attempts := 0
	step := stepRead
	for {
		switch step {
		case stepRead:
			var err error
			c, err = r.changes.GetChange(ctx, w.change)
			if err != nil {
				return outcomeExhausted, err
			}
			step = stepMutate

		case stepMutate:
			if w.status == store.StatusNew && c.Status.IsClosed() {
				return outcomeClosedElsewhere, nil
			}
			if w.status == store.StatusMerged && c.CurrentPatchSet != w.patchSet {
				// a new patch set arrived after this one was merged
				r.log.Debug("change %d: current patch set %d, merged %d", c.ID, c.CurrentPatchSet, w.patchSet)
				c.CurrentPatchSet = w.patchSet
			}
			c.Status = w.status
			c.Updated(r.now())
			step = stepCommit

		case stepCommit:
			if attempts == maxStatusAttempts {
				return outcomeExhausted, nil
			}
			attempts++
			err := r.changes.UpdateChange(ctx, c, w.message)
			if err == nil {
				return outcomeWritten, nil
			}
			if !errors.Is(err, sqerrors.ErrConcurrentUpdate) {
				return outcomeExhausted, err
			}
			r.metrics.IncStatusRetry()
			step = stepRead
		}
	}
}

// noteMissingDependency leaves the change open and tells its owner why,
// unless the latest system message already says so
func (r *run) noteMissingDependency(ctx context.Context, id store.ChangeID) error {
	msgs, err := r.changes.Messages(ctx, id)
	if err != nil {
		return err
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsSystem() {
			if msgs[i].Message == msgMissingDependency {
				return nil
			}
			break
		}
	}

	msg, err := r.newMessage(ctx, id, msgMissingDependency)
	if err != nil {
		return err
	}
	return r.changes.InsertMessage(ctx, msg)
}

// newMessage builds a system message with a freshly allocated key
func (r *run) newMessage(ctx context.Context, id store.ChangeID, text string) (*store.Message, error) {
	seq, err := r.changes.NextMessageID(ctx)
	if err != nil {
		return nil, err
	}
	return &store.Message{
		ChangeID:  id,
		UUID:      store.MessageUUID(seq),
		WrittenOn: r.now(),
		Message:   text,
	}, nil
}
