package git_test

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/testhelpers"
)

func TestMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("takes each side's changes", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		base := repo.Commit("base", map[string]string{"a.txt": "a\n", "b.txt": "b\n", "gone.txt": "x\n"})
		ours := repo.Commit("ours", map[string]string{"a.txt": "a2\n", "dir/new.txt": "n\n"}, base)
		theirs := repo.Commit("theirs", map[string]string{"b.txt": "b2\n", "gone.txt": ""}, base)

		res, err := repo.Store.Merge(ctx, ours, theirs)
		require.NoError(t, err)
		require.True(t, res.Clean())
		require.False(t, res.Tree.IsZero())

		merged := repo.Store.Repository()
		tree, err := merged.TreeObject(res.Tree)
		require.NoError(t, err)
		f, err := tree.File("a.txt")
		require.NoError(t, err)
		content, err := f.Contents()
		require.NoError(t, err)
		require.Equal(t, "a2\n", content)
		f, err = tree.File("b.txt")
		require.NoError(t, err)
		content, err = f.Contents()
		require.NoError(t, err)
		require.Equal(t, "b2\n", content)
		_, err = tree.File("dir/new.txt")
		require.NoError(t, err)
		_, err = tree.File("gone.txt")
		require.Error(t, err)
	})

	t.Run("identical changes merge", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		base := repo.Commit("base", map[string]string{"a.txt": "a\n"})
		ours := repo.Commit("ours", map[string]string{"a.txt": "same\n"}, base)
		theirs := repo.Commit("theirs", map[string]string{"a.txt": "same\n"}, base)

		res, err := repo.Store.Merge(ctx, ours, theirs)
		require.NoError(t, err)
		require.True(t, res.Clean())
	})

	t.Run("same path changed differently conflicts", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		base := repo.Commit("base", map[string]string{"a.txt": "a\n", "b.txt": "b\n"})
		ours := repo.Commit("ours", map[string]string{"a.txt": "ours\n", "b.txt": ""}, base)
		theirs := repo.Commit("theirs", map[string]string{"a.txt": "theirs\n", "b.txt": "edited\n"}, base)

		res, err := repo.Store.Merge(ctx, ours, theirs)
		require.NoError(t, err)
		require.False(t, res.Clean())
		require.True(t, res.Tree.IsZero())
		require.Equal(t, []string{"a.txt", "b.txt"}, res.Conflicts)
	})

	t.Run("file and directory collide", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		base := repo.Commit("base", map[string]string{"README": "r\n"})
		ours := repo.Commit("ours", map[string]string{"docs": "file\n"}, base)
		theirs := repo.Commit("theirs", map[string]string{"docs/index.md": "dir\n"}, base)

		res, err := repo.Store.Merge(ctx, ours, theirs)
		require.NoError(t, err)
		require.Equal(t, []string{"docs"}, res.Conflicts)
	})

	t.Run("unrelated histories merge against an empty base", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		ours := repo.Commit("ours", map[string]string{"a.txt": "a\n"})
		theirs := repo.Commit("theirs", map[string]string{"b.txt": "b\n"})

		res, err := repo.Store.Merge(ctx, ours, theirs)
		require.NoError(t, err)
		require.True(t, res.Clean())
	})

	t.Run("missing commit is an error", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		ours := repo.Commit("ours", map[string]string{"a.txt": "a\n"})
		_, err := repo.Store.Merge(ctx, ours, plumbing.NewHash("1234567890123456789012345678901234567890"))
		require.Error(t, err)
	})
}

func TestWriteCommit(t *testing.T) {
	ctx := context.Background()
	repo := testhelpers.NewGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"a.txt": "a\n"})
	c1 := repo.Commit("c1", map[string]string{"b.txt": "b\n"}, c0)
	d1 := repo.Commit("d1", map[string]string{"c.txt": "c\n"}, c0)

	res, err := repo.Store.Merge(ctx, c1, d1)
	require.NoError(t, err)
	id, err := repo.Store.WriteCommit(ctx, []plumbing.Hash{c1, d1}, res.Tree, repo.Store.Signature("Submit Queue", "submitq@localhost"), "Merge")
	require.NoError(t, err)

	require.Equal(t, []plumbing.Hash{c1, d1}, repo.Parents(id))
	require.Equal(t, "Merge", repo.Message(id))
	for _, path := range []string{"a.txt", "b.txt", "c.txt"} {
		_, ok := repo.ReadFile(id, path)
		require.True(t, ok, path)
	}
}
