package submit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqerrors "submitq.dev/submitq/internal/errors"
	"submitq.dev/submitq/internal/store"
	"submitq.dev/submitq/internal/submit"
	"submitq.dev/submitq/testhelpers"
)

// racingStore lets another writer update the change right before each of the
// first races status writes, so those writes lose the optimistic lock
type racingStore struct {
	*store.Store
	races     int
	interfere func(id store.ChangeID)
	updates   int
}

func (s *racingStore) UpdateChange(ctx context.Context, c *store.Change, msg *store.Message) error {
	s.updates++
	if s.races > 0 {
		s.races--
		s.interfere(c.ID)
	}
	return s.Store.UpdateChange(ctx, c, msg)
}

// touch updates a change without changing anything the engine looks at
func touch(t *testing.T, scene *testhelpers.Scene) func(store.ChangeID) {
	return func(id store.ChangeID) {
		c := scene.Change(id)
		c.Subject += "!"
		require.NoError(t, scene.Changes.UpdateChange(context.Background(), c, nil))
	}
}

func TestStatusWriteRetriesAfterConflict(t *testing.T) {
	ctx := context.Background()
	scene, c0 := newMainScene(t)
	c1 := scene.Repo.Commit("c1", map[string]string{"a.txt": "a\n"}, c0)
	ids := scene.Submit("main", c1)

	racing := &racingStore{Store: scene.Changes, races: 2, interfere: touch(t, scene)}
	rec := newCountingRecorder()
	engine := newEngine(scene, func(o *submit.Options) {
		o.Changes = racing
		o.Metrics = rec
	})

	res, err := engine.Merge(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, res.ReconcileErr)

	assert.Equal(t, 3, racing.updates)
	assert.Equal(t, 2, rec.retries)
	testhelpers.ExpectStatus(t, scene, store.StatusMerged, ids...)
	testhelpers.ExpectMessages(t, scene, ids[0], cleanMergeMsg)
	assert.Equal(t, "c1!!", scene.Change(ids[0]).Subject)
}

func TestMergedPatchSetIsRestored(t *testing.T) {
	ctx := context.Background()
	scene, c0 := newMainScene(t)
	c1 := scene.Repo.Commit("c1", map[string]string{"a.txt": "a\n"}, c0)
	amended := scene.Repo.Commit("c1 amended", map[string]string{"a.txt": "b\n"}, c0)
	ids := scene.Submit("main", c1)

	// the owner uploads a new patch set while the merge is running
	racing := &racingStore{Store: scene.Changes, races: 1, interfere: func(id store.ChangeID) {
		scene.AddPatchSet(id, 2, amended)
	}}
	engine := newEngine(scene, func(o *submit.Options) { o.Changes = racing })

	_, err := engine.Merge(ctx, "main")
	require.NoError(t, err)

	c := scene.Change(ids[0])
	assert.Equal(t, store.StatusMerged, c.Status)
	assert.Equal(t, 1, c.CurrentPatchSet)
	testhelpers.ExpectBranch(t, scene.Repo, "main", c1)
}

func TestClosedElsewhereStaysClosed(t *testing.T) {
	ctx := context.Background()
	scene, c0 := newMainScene(t)
	b := scene.Repo.Commit("b", map[string]string{"f.txt": "ours\n"}, c0)
	a := scene.Repo.Commit("a", map[string]string{"f.txt": "theirs\n"}, c0)
	ids := scene.Submit("main", b, a)

	racing := &racingStore{Store: scene.Changes, races: 2}
	racing.interfere = func(id store.ChangeID) {
		if id != ids[1] {
			return
		}
		c := scene.Change(id)
		c.Status = store.StatusAbandoned
		require.NoError(t, scene.Changes.UpdateChange(ctx, c, nil))
	}
	engine := newEngine(scene, func(o *submit.Options) { o.Changes = racing })

	res, err := engine.Merge(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, res.ReconcileErr)

	code, _ := res.Status(ids[1])
	assert.Equal(t, submit.StatusPathConflict, code)
	testhelpers.ExpectStatus(t, scene, store.StatusAbandoned, ids[1])
	testhelpers.ExpectMessages(t, scene, ids[1])
	// one attempt each for both changes, no retry for the abandoned one
	assert.Equal(t, 2, racing.updates)
}

func TestStatusWriteGivesUp(t *testing.T) {
	ctx := context.Background()
	scene, c0 := newMainScene(t)
	c1 := scene.Repo.Commit("c1", map[string]string{"a.txt": "a\n"}, c0)
	ids := scene.Submit("main", c1)

	racing := &racingStore{Store: scene.Changes, races: 100, interfere: touch(t, scene)}
	rec := newCountingRecorder()
	engine := newEngine(scene, func(o *submit.Options) {
		o.Changes = racing
		o.Metrics = rec
	})

	res, err := engine.Merge(ctx, "main")
	require.NoError(t, err, "a lost status write never fails the run")
	require.Error(t, res.ReconcileErr)
	assert.ErrorIs(t, res.ReconcileErr, sqerrors.ErrConcurrentUpdate)

	assert.Equal(t, 10, racing.updates)
	assert.Equal(t, 10, rec.retries)
	// the branch moved; the change keeps its last stored state
	testhelpers.ExpectBranch(t, scene.Repo, "main", c1)
	testhelpers.ExpectStatus(t, scene, store.StatusSubmitted, ids...)
	testhelpers.ExpectMessages(t, scene, ids[0])
}
