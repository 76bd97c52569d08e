package git_test

import (
	"context"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	sqerrors "submitq.dev/submitq/internal/errors"
	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/testhelpers"
)

func TestResolveCommit(t *testing.T) {
	ctx := context.Background()
	repo := testhelpers.NewGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"a.txt": "a\n"})
	c1 := repo.Commit("second", map[string]string{"b.txt": "b\n"}, c0)

	t.Run("returns parents in order", func(t *testing.T) {
		m := repo.Commit("merge", nil, c1, c0)
		node, err := repo.Store.ResolveCommit(ctx, m)
		require.NoError(t, err)
		require.Equal(t, m, node.ID)
		require.Equal(t, []plumbing.Hash{c1, c0}, node.Parents)
	})

	t.Run("peels annotated tags", func(t *testing.T) {
		tag := &object.Tag{
			Name:       "v1",
			Tagger:     repo.Store.Signature("Test User", "test@example.com"),
			Message:    "release",
			TargetType: plumbing.CommitObject,
			Target:     c1,
		}
		obj := repo.Store.Repository().Storer.NewEncodedObject()
		require.NoError(t, tag.Encode(obj))
		tagID, err := repo.Store.Repository().Storer.SetEncodedObject(obj)
		require.NoError(t, err)

		node, err := repo.Store.ResolveCommit(ctx, tagID)
		require.NoError(t, err)
		require.Equal(t, c1, node.ID)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := repo.Store.ResolveCommit(ctx, plumbing.NewHash("1234567890123456789012345678901234567890"))
		require.ErrorIs(t, err, sqerrors.ErrObjectNotFound)
	})

	t.Run("blob is not a commit", func(t *testing.T) {
		blob, err := repo.Store.WriteBlob(ctx, []byte("data"))
		require.NoError(t, err)
		_, err = repo.Store.ResolveCommit(ctx, blob)
		require.ErrorIs(t, err, sqerrors.ErrObjectNotFound)
	})
}

func TestRefs(t *testing.T) {
	ctx := context.Background()
	repo := testhelpers.NewGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"a.txt": "a\n"})
	repo.SetBranch("main", c0)
	repo.SetBranch("dev", c0)

	refs, err := repo.Store.Refs(ctx)
	require.NoError(t, err)
	require.Equal(t, c0, refs["refs/heads/main"])
	require.Equal(t, c0, refs["refs/heads/dev"])
	// HEAD is symbolic and skipped
	_, ok := refs[plumbing.HEAD]
	require.False(t, ok)

	tip, err := repo.Store.ResolveRef(ctx, "refs/heads/missing")
	require.NoError(t, err)
	require.True(t, tip.IsZero())
}

func TestIsAncestorAndMergeBase(t *testing.T) {
	ctx := context.Background()
	repo := testhelpers.NewGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"a.txt": "a\n"})
	c1 := repo.Commit("c1", map[string]string{"b.txt": "b\n"}, c0)
	d1 := repo.Commit("d1", map[string]string{"c.txt": "c\n"}, c0)
	other := repo.Commit("unrelated", map[string]string{"z.txt": "z\n"})

	ok, err := repo.Store.IsAncestor(ctx, c0, c1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Store.IsAncestor(ctx, c1, d1)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.Store.IsAncestor(ctx, c1, c1)
	require.NoError(t, err)
	require.True(t, ok)

	base, err := repo.Store.MergeBase(ctx, c1, d1)
	require.NoError(t, err)
	require.NotNil(t, base)
	require.Equal(t, c0, base.Hash)

	base, err = repo.Store.MergeBase(ctx, c1, other)
	require.NoError(t, err)
	require.Nil(t, base)
}

func TestGitDir(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	require.Empty(t, repo.Store.GitDir())

	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	s, err := git.OpenStore(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ".git"), s.GitDir())
}

func TestSubject(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	c0 := repo.Commit("Add feature\n\nLonger description.", map[string]string{"a.txt": "a\n"})

	subject, err := repo.Store.Subject(context.Background(), c0)
	require.NoError(t, err)
	require.Equal(t, "Add feature", subject)
}
