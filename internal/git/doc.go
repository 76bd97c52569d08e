// Package git is the object store accessor for submitq.
//
// It wraps a go-git repository and provides the operations the merge engine
// needs from it:
//   - Commit lookup and ancestry queries
//   - Ref listing, compare-and-swap ref updates and reflog entries
//   - Path-level three-way tree merges and merge commit writing
//   - Repository config for the per-branch fast-forward-only policy
//   - Patch set ref naming (refs/changes/NN/<change>/<patch set>)
//
// This package should be the only place that reads or writes git objects.
package git
