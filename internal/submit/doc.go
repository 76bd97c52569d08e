// Package submit implements the submit queue merge engine.
//
// A run takes the changes submitted for one branch and integrates them:
//   - load: resolve each change's current revision to a commit
//   - validate: drop revisions without a ref tip and ones already merged
//   - reduce: collapse the candidates to the heads of their lines of development
//   - merge: fast-forward once, then merge every remaining head pairwise
//   - classify: attribute every newly integrated change as merged
//   - update: compare-and-swap the branch ref to the new tip
//   - reconcile: persist each change's outcome with bounded retry
//
// Stages run strictly in that order, once per run.
package submit
