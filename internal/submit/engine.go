package submit

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/uuid"

	sqerrors "submitq.dev/submitq/internal/errors"
	"submitq.dev/submitq/internal/logging"
	"submitq.dev/submitq/internal/metrics"
	"submitq.dev/submitq/internal/store"
)

// Options configures an Engine. Source, Changes and Objects are required.
type Options struct {
	Source  ChangeSource
	Changes ChangeStore
	Objects ObjectStore

	// Policy marks branches as fast-forward-only; nil allows merges everywhere
	Policy Policy
	// Runs records an audit entry per run when set
	Runs RunLog

	// ServiceName and ServiceEmail identify merge commits and reflog entries
	ServiceName  string
	ServiceEmail string

	Metrics metrics.Recorder
	Logger  *logging.Logger
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Engine merges submitted changes into their branch
type Engine struct {
	source  ChangeSource
	changes ChangeStore
	objects ObjectStore
	policy  Policy
	runs    RunLog

	name  string
	email string

	metrics metrics.Recorder
	logger  *logging.Logger
	now     func() time.Time
}

// New creates an engine from options
func New(opts Options) *Engine {
	e := &Engine{
		source:  opts.Source,
		changes: opts.Changes,
		objects: opts.Objects,
		policy:  opts.Policy,
		runs:    opts.Runs,
		name:    opts.ServiceName,
		email:   opts.ServiceEmail,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     opts.Clock,
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop()
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

func (e *Engine) signature() object.Signature {
	return object.Signature{Name: e.name, Email: e.email, When: e.now()}
}

// Merge integrates the changes submitted for branch. branch may be a short
// name or a full ref name.
//
// An error means the run was aborted. If the branch was not updated yet it is
// untouched and no change status was written; the caller should run again.
// Failures persisting individual outcomes do not abort the run and are
// reported in Result.ReconcileErr.
func (e *Engine) Merge(ctx context.Context, branch string) (*Result, error) {
	name := branchRef(branch)
	runID := uuid.New().String()
	log := e.logger.With("run_id", runID, "branch", name.String())
	started := e.now()

	r := newRun(e, log, name)
	log.Debug("merge run %s started", runID)

	err := r.execute(ctx)
	result := &Result{
		RunID:     runID,
		Branch:    r.branch,
		RefUpdate: r.refUpdate,
		Submitted: r.queue,
		Statuses:  r.status,
	}
	if err == nil {
		result.ReconcileErr = r.reconcile(ctx)
		if result.ReconcileErr != nil {
			log.Error("%v", result.ReconcileErr)
		}
	}

	e.finish(ctx, log, result, started, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// execute runs every stage up to and including the branch update
func (r *run) execute(ctx context.Context) error {
	stages := []struct {
		op string
		fn func(context.Context) error
	}{
		{"open branch", r.openBranch},
		{"list submitted changes", r.listSubmitted},
		{"load commits", r.load},
		{"validate commits", r.validate},
		{"reduce", r.reduce},
		{"merge", r.mergeHeads},
		{"mark clean merges", r.markCleanMerges},
		{"update branch", r.updateBranch},
	}
	for _, stage := range stages {
		if err := stage.fn(ctx); err != nil {
			return sqerrors.NewMergeError(r.branch.Name.String(), stage.op, err)
		}
	}
	return nil
}

func (r *run) listSubmitted(ctx context.Context) error {
	queue, err := r.source.Submitted(ctx, r.branch.Name.String())
	if err != nil {
		return err
	}
	r.queue = queue
	r.log.Debug("%d changes submitted", len(queue))
	return nil
}

// finish logs, counts and records a run
func (e *Engine) finish(ctx context.Context, log *logging.Logger, result *Result, started time.Time, runErr error) {
	finished := e.now()

	outcome := "noop"
	switch {
	case runErr != nil:
		outcome = "error"
		log.Error("%v", runErr)
	case result.Branch.Moved():
		outcome = "merged"
		log.Info("%s: %s -> %s, %d merged, %d not merged",
			result.Branch.Name.Short(), shortHash(result.Branch.OldTip.String()), shortHash(result.Branch.NewTip.String()),
			result.Merged(), len(result.Statuses)-result.Merged())
	default:
		log.Info("%s: nothing to merge", result.Branch.Name.Short())
	}
	e.metrics.ObserveRun(result.Branch.Name.String(), outcome, finished.Sub(started))

	if e.runs == nil {
		return
	}
	record := &store.RunRecord{
		RunID:      result.RunID,
		Branch:     result.Branch.Name.String(),
		StartedAt:  started,
		FinishedAt: finished,
		Merged:     result.Merged(),
		Failed:     len(result.Statuses) - result.Merged(),
	}
	if !result.Branch.OldTip.IsZero() {
		record.OldTip = result.Branch.OldTip.String()
	}
	if !result.Branch.NewTip.IsZero() {
		record.NewTip = result.Branch.NewTip.String()
	}
	if runErr != nil {
		record.Err = runErr.Error()
	}
	if err := e.runs.RecordRun(ctx, record); err != nil {
		log.Warn("failed to record run: %v", err)
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
