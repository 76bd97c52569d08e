package testhelpers

import (
	"context"
	"io"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/internal/git"
)

// Epoch is the time the test clock starts at
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// GitRepo is an in-memory repository for building commit graphs in tests.
// Its clock advances one second per reading, so identical commits written
// twice still get distinct ids.
type GitRepo struct {
	t     testing.TB
	Store *git.Store
	// Dir is the work tree of a repository on disk, empty in memory
	Dir   string
	ticks int
}

// NewGitRepo creates an empty in-memory repository
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	s, err := git.NewMemoryStore()
	require.NoError(t, err, "Failed to create repository")

	r := &GitRepo{t: t, Store: s}
	s.SetClock(r.Now)
	return r
}

// NewDiskGitRepo creates an empty repository with a work tree under t.TempDir()
func NewDiskGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err, "Failed to init repository")
	s, err := git.OpenStore(dir)
	require.NoError(t, err, "Failed to open repository")

	r := &GitRepo{t: t, Store: s, Dir: dir}
	s.SetClock(r.Now)
	return r
}

// Now returns the next tick of the test clock
func (r *GitRepo) Now() time.Time {
	r.ticks++
	return Epoch.Add(time.Duration(r.ticks) * time.Second)
}

// Commit writes a commit on top of parents. Its tree is the first parent's
// tree with files applied; an empty content deletes the path.
func (r *GitRepo) Commit(message string, files map[string]string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	ctx := context.Background()

	entries := make(map[string]object.TreeEntry)
	if len(parents) > 0 {
		var err error
		entries, err = r.Store.Files(ctx, parents[0])
		require.NoError(r.t, err, "Failed to read parent tree")
	}
	for path, content := range files {
		if content == "" {
			delete(entries, path)
			continue
		}
		blob, err := r.Store.WriteBlob(ctx, []byte(content))
		require.NoError(r.t, err, "Failed to write blob")
		entries[path] = object.TreeEntry{Name: path, Mode: filemode.Regular, Hash: blob}
	}

	tree, err := r.Store.WriteTree(ctx, entries)
	require.NoError(r.t, err, "Failed to write tree")
	id, err := r.Store.WriteCommit(ctx, parents, tree, r.Store.Signature("Test User", "test@example.com"), message)
	require.NoError(r.t, err, "Failed to write commit")
	return id
}

// SetBranch points a branch at a commit
func (r *GitRepo) SetBranch(name string, id plumbing.Hash) {
	r.t.Helper()
	require.NoError(r.t, r.Store.SetRef(context.Background(), plumbing.NewBranchReferenceName(name), id))
}

// Branch returns the tip of a branch, zero if it does not exist
func (r *GitRepo) Branch(name string) plumbing.Hash {
	r.t.Helper()
	id, err := r.Store.ResolveRef(context.Background(), plumbing.NewBranchReferenceName(name))
	require.NoError(r.t, err)
	return id
}

// Parents returns the parents of a commit
func (r *GitRepo) Parents(id plumbing.Hash) []plumbing.Hash {
	r.t.Helper()
	n, err := r.Store.ResolveCommit(context.Background(), id)
	require.NoError(r.t, err)
	return n.Parents
}

// Message returns the message of a commit
func (r *GitRepo) Message(id plumbing.Hash) string {
	r.t.Helper()
	c, err := r.Store.Repository().CommitObject(id)
	require.NoError(r.t, err)
	return c.Message
}

// ReadFile returns the content of a file in a commit, and false if the path
// does not exist
func (r *GitRepo) ReadFile(id plumbing.Hash, path string) (string, bool) {
	r.t.Helper()
	files, err := r.Store.Files(context.Background(), id)
	require.NoError(r.t, err)
	entry, ok := files[path]
	if !ok {
		return "", false
	}

	blob, err := r.Store.Repository().BlobObject(entry.Hash)
	require.NoError(r.t, err)
	rd, err := blob.Reader()
	require.NoError(r.t, err)
	defer rd.Close()
	data, err := io.ReadAll(rd)
	require.NoError(r.t, err)
	return string(data), true
}
