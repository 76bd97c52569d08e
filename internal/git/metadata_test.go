package git_test

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/testhelpers"
)

func TestPatchSetRefName(t *testing.T) {
	require.Equal(t, plumbing.ReferenceName("refs/changes/42/42/1"), git.PatchSetRefName(42, 1))
	require.Equal(t, plumbing.ReferenceName("refs/changes/05/105/3"), git.PatchSetRefName(105, 3))
	require.Equal(t, plumbing.ReferenceName("refs/changes/07/7/2"), git.PatchSetRefName(7, 2))
}

func TestParsePatchSetRef(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		change, patchSet, err := git.ParsePatchSetRef(git.PatchSetRefName(1234, 5))
		require.NoError(t, err)
		require.Equal(t, 1234, change)
		require.Equal(t, 5, patchSet)
	})

	t.Run("rejects other refs", func(t *testing.T) {
		_, _, err := git.ParsePatchSetRef("refs/heads/main")
		require.Error(t, err)
		_, _, err = git.ParsePatchSetRef("refs/changes/12/x/1")
		require.Error(t, err)
	})

	require.True(t, git.IsPatchSetRef("refs/changes/34/1234/5"))
	require.False(t, git.IsPatchSetRef("refs/changes/34/1234"))
	require.False(t, git.IsPatchSetRef("refs/heads/changes"))
}

func TestPublishPatchSet(t *testing.T) {
	ctx := context.Background()
	repo := testhelpers.NewGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"a.txt": "a\n"})

	require.NoError(t, repo.Store.PublishPatchSet(ctx, 17, 2, c0))

	refs, err := repo.Store.Refs(ctx)
	require.NoError(t, err)
	require.Equal(t, c0, refs["refs/changes/17/17/2"])
}
