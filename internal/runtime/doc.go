// Package runtime opens the resources a submitq command works with.
//
// It ties together the git repository, configuration, change database,
// logger and metrics recorder, and builds the merge engine from them.
package runtime
