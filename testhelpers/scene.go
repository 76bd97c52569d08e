package testhelpers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/internal/store"
)

// Scene is a repository plus a change store, the two things a merge run
// works against
type Scene struct {
	t       testing.TB
	Repo    *GitRepo
	Changes *store.Store
}

// NewScene creates a scene with an empty repository and a scratch database.
// The database is closed when the test ends.
func NewScene(t testing.TB) *Scene {
	t.Helper()
	return NewSceneAt(t, NewGitRepo(t), filepath.Join(t.TempDir(), "submitq.db"))
}

// NewSceneAt opens the change database at dbPath next to an existing
// repository. The database is closed when the test ends.
func NewSceneAt(t testing.TB, repo *GitRepo, dbPath string) *Scene {
	t.Helper()
	s, err := store.Open(dbPath)
	require.NoError(t, err, "Failed to open change store")
	t.Cleanup(func() { _ = s.Close() })

	s.SetClock(repo.Now)
	return &Scene{t: t, Repo: repo, Changes: s}
}

// CreateChange stores a change for branch with commit as its first patch set
// and publishes the patch set ref
func (s *Scene) CreateChange(branch string, commit plumbing.Hash) store.ChangeID {
	s.t.Helper()
	ctx := context.Background()

	c := &store.Change{Branch: plumbing.NewBranchReferenceName(branch).String(), Subject: s.Repo.Message(commit)}
	require.NoError(s.t, s.Changes.CreateChange(ctx, c))
	s.AddPatchSet(c.ID, 1, commit)
	return c.ID
}

// AddPatchSet uploads a new patch set and publishes its ref
func (s *Scene) AddPatchSet(id store.ChangeID, patchSet int, commit plumbing.Hash) {
	s.t.Helper()
	ctx := context.Background()
	require.NoError(s.t, s.Changes.AddPatchSet(ctx, &store.PatchSet{ChangeID: id, ID: patchSet, Revision: commit.String()}))
	require.NoError(s.t, s.Repo.Store.PublishPatchSet(ctx, int(id), patchSet, commit))
}

// Submit creates a change for each commit and queues them in the given order
func (s *Scene) Submit(branch string, commits ...plumbing.Hash) []store.ChangeID {
	s.t.Helper()
	ids := make([]store.ChangeID, len(commits))
	for i, c := range commits {
		ids[i] = s.CreateChange(branch, c)
		s.SubmitChange(ids[i])
	}
	return ids
}

// SubmitChange puts an existing change at the end of the submit queue
func (s *Scene) SubmitChange(id store.ChangeID) {
	s.t.Helper()
	require.NoError(s.t, s.Changes.Submit(context.Background(), id))
}

// Change reads a change back from the store
func (s *Scene) Change(id store.ChangeID) *store.Change {
	s.t.Helper()
	c, err := s.Changes.GetChange(context.Background(), id)
	require.NoError(s.t, err)
	return c
}

// Messages returns the text of a change's messages, oldest first
func (s *Scene) Messages(id store.ChangeID) []string {
	s.t.Helper()
	msgs, err := s.Changes.Messages(context.Background(), id)
	require.NoError(s.t, err)
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Message
	}
	return out
}
