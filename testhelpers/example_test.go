package testhelpers_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/internal/store"
	"submitq.dev/submitq/testhelpers"
)

// TestGitRepoBasicOperations shows how commits are built on top of each other
func TestGitRepoBasicOperations(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"a.txt": "a\n", "b.txt": "b\n"})
	c1 := repo.Commit("second", map[string]string{"a.txt": "a2\n", "b.txt": ""}, c0)
	repo.SetBranch("main", c1)

	testhelpers.ExpectBranch(t, repo, "main", c1)
	require.Equal(t, []plumbing.Hash{c0}, repo.Parents(c1))
	require.Equal(t, "second", repo.Message(c1))

	content, ok := repo.ReadFile(c1, "a.txt")
	require.True(t, ok)
	require.Equal(t, "a2\n", content)
	_, ok = repo.ReadFile(c1, "b.txt")
	require.False(t, ok, "empty content deletes the path")

	require.True(t, repo.Branch("missing").IsZero())
}

// TestSceneSubmit shows how a submit queue is set up
func TestSceneSubmit(t *testing.T) {
	scene := testhelpers.NewScene(t)
	c0 := scene.Repo.Commit("initial", map[string]string{"a.txt": "a\n"})
	scene.Repo.SetBranch("main", c0)
	c1 := scene.Repo.Commit("first", map[string]string{"b.txt": "b\n"}, c0)
	c2 := scene.Repo.Commit("second", map[string]string{"c.txt": "c\n"}, c1)

	ids := scene.Submit("main", c1, c2)
	require.Len(t, ids, 2)
	testhelpers.ExpectStatus(t, scene, store.StatusSubmitted, ids...)
	testhelpers.ExpectMessages(t, scene, ids[0])

	c := scene.Change(ids[1])
	require.Equal(t, "refs/heads/main", c.Branch)
	require.Equal(t, "second", c.Subject)
	require.Equal(t, 1, c.CurrentPatchSet)

	refs, err := scene.Repo.Store.Refs(t.Context())
	require.NoError(t, err)
	require.Equal(t, c2, refs["refs/changes/02/2/1"])
}
