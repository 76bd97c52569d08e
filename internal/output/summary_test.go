package output

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/store"
	"submitq.dev/submitq/internal/submit"
)

func TestMain(m *testing.M) {
	DisableColor()
	os.Exit(m.Run())
}

func TestFormatResult(t *testing.T) {
	oldTip := plumbing.NewHash("1111111111111111111111111111111111111111")
	newTip := plumbing.NewHash("2222222222222222222222222222222222222222")

	t.Run("merged run", func(t *testing.T) {
		res := &submit.Result{
			Branch:    submit.BranchState{Name: "refs/heads/main", OldTip: oldTip, NewTip: newTip},
			RefUpdate: git.RefFastForward,
			Submitted: []store.SubmittedChange{
				{ChangeID: 1, PatchSetID: 1},
				{ChangeID: 2, PatchSetID: 3},
				{ChangeID: 3, PatchSetID: 1},
			},
			Statuses: map[store.ChangeID]submit.StatusCode{
				1: submit.StatusCleanMerge,
				2: submit.StatusPathConflict,
			},
		}

		lines := FormatResult(res)
		require.Len(t, lines, 5)
		assert.Contains(t, lines[0], "main")
		assert.Contains(t, lines[0], "11111111")
		assert.Contains(t, lines[0], "22222222")
		assert.Contains(t, lines[0], "FAST_FORWARD")
		assert.Contains(t, lines[1], "change 1 (patch set 1)")
		assert.Contains(t, lines[1], "CLEAN_MERGE")
		assert.Contains(t, lines[2], "change 2 (patch set 3)")
		assert.Contains(t, lines[2], "PATH_CONFLICT")
		assert.Contains(t, lines[3], "no status")
		assert.Contains(t, lines[4], "1")
		assert.Contains(t, lines[4], "not merged")
	})

	t.Run("nothing to merge", func(t *testing.T) {
		res := &submit.Result{
			Branch: submit.BranchState{Name: "refs/heads/main", OldTip: oldTip, NewTip: oldTip},
		}
		lines := FormatResult(res)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "nothing to merge")
	})

	t.Run("reports lost status writes", func(t *testing.T) {
		res := &submit.Result{
			Branch:       submit.BranchState{Name: "refs/heads/main", NewTip: newTip},
			RefUpdate:    git.RefCreated,
			ReconcileErr: errors.New("change 1: concurrent update"),
		}
		lines := FormatResult(res)
		assert.Contains(t, lines[0], "(new)")
		assert.Contains(t, lines[len(lines)-1], "concurrent update")
	})
}

func TestFormatRuns(t *testing.T) {
	runs := []*store.RunRecord{
		{
			RunID:     "0f6c1b2e-4a0b-4b8e-9a39-2b7f3c9d1e11",
			OldTip:    "1111111111111111111111111111111111111111",
			NewTip:    "2222222222222222222222222222222222222222",
			StartedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Merged:    2,
		},
		{
			RunID:     "9d1e4a0b-0f6c-4b8e-9a39-2b7f3c1b2e11",
			OldTip:    "2222222222222222222222222222222222222222",
			StartedAt: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
			Err:       "merge refs/heads/main: update branch: ref changed concurrently",
		},
	}

	lines := FormatRuns(runs)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "0f6c1b2e")
	assert.Contains(t, lines[0], "11111111 → 22222222")
	assert.Contains(t, lines[0], "merged 2, failed 0")
	assert.Contains(t, lines[1], "no update")
	assert.Contains(t, lines[1], "ref changed concurrently")
}
