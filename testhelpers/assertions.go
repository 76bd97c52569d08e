// Package testhelpers provides testing utilities for submitq: in-memory
// repositories, scratch change stores and custom assertions.
package testhelpers

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/internal/store"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectBranch asserts that a branch points at the expected commit
func ExpectBranch(t *testing.T, repo *GitRepo, branch string, expected plumbing.Hash) {
	t.Helper()
	require.Equal(t, expected, repo.Branch(branch), "Branch %s does not point at the expected commit", branch)
}

// ExpectStatus asserts the stored status of each change
func ExpectStatus(t *testing.T, scene *Scene, expected store.Status, ids ...store.ChangeID) {
	t.Helper()
	for _, id := range ids {
		require.Equal(t, expected, scene.Change(id).Status, "Change %d has the wrong status", id)
	}
}

// ExpectMessages asserts the full message history of a change
func ExpectMessages(t *testing.T, scene *Scene, id store.ChangeID, expected ...string) {
	t.Helper()
	actual := scene.Messages(id)
	if len(expected) == 0 {
		require.Empty(t, actual, "Change %d should have no messages", id)
		return
	}
	require.Equal(t, expected, actual, "Messages of change %d do not match", id)
}
