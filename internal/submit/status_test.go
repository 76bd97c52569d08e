package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqerrors "submitq.dev/submitq/internal/errors"
	"submitq.dev/submitq/internal/store"
)

func TestStatusMapFirstWriteWins(t *testing.T) {
	m := make(statusMap)

	require.True(t, m.set(1, StatusPathConflict))
	require.False(t, m.set(1, StatusCleanMerge))

	code, ok := m.get(1)
	require.True(t, ok)
	assert.Equal(t, StatusPathConflict, code)

	_, ok = m.get(2)
	assert.False(t, ok)
}

func TestStatusMapMergedReplacesConflict(t *testing.T) {
	m := make(statusMap)
	m.set(1, StatusPathConflict)
	m.set(2, StatusAlreadyMerged)
	m.set(3, StatusMissingDependency)

	assert.True(t, m.merged(1))
	assert.False(t, m.merged(2))
	assert.False(t, m.merged(3))
	assert.True(t, m.merged(4))
	assert.False(t, m.merged(4))

	code, _ := m.get(1)
	assert.Equal(t, StatusCleanMerge, code)
	code, _ = m.get(2)
	assert.Equal(t, StatusAlreadyMerged, code)
	code, _ = m.get(3)
	assert.Equal(t, StatusMissingDependency, code)
}

func TestStatusCodeString(t *testing.T) {
	assert.Equal(t, "NO_PATCH_SET", StatusNoPatchSet.String())
	assert.Equal(t, "MISSING_DEPENDENCY", StatusMissingDependency.String())
	assert.Equal(t, "StatusCode(42)", StatusCode(42).String())
	assert.True(t, StatusAlreadyMerged.IsMerged())
	assert.False(t, StatusPathConflict.IsMerged())
}

func TestParseRevision(t *testing.T) {
	tests := []struct {
		name string
		sc   store.SubmittedChange
		ok   bool
	}{
		{"valid", store.SubmittedChange{ChangeID: 1, PatchSetID: 1, Revision: "0123456789abcdef0123456789abcdef01234567"}, true},
		{"no patch set", store.SubmittedChange{ChangeID: 1}, false},
		{"empty revision", store.SubmittedChange{ChangeID: 1, PatchSetID: 1}, false},
		{"short revision", store.SubmittedChange{ChangeID: 1, PatchSetID: 1, Revision: "0123abc"}, false},
		{"not hex", store.SubmittedChange{ChangeID: 1, PatchSetID: 1, Revision: "zz23456789abcdef0123456789abcdef01234567"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseRevision(tt.sc)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.sc.Revision, id.String())
				return
			}
			require.ErrorIs(t, err, sqerrors.ErrMalformedInput)
		})
	}
}

func TestResultCounts(t *testing.T) {
	r := &Result{Statuses: statusMap{
		1: StatusCleanMerge,
		2: StatusAlreadyMerged,
		3: StatusPathConflict,
		4: StatusCleanMerge,
	}}
	assert.Equal(t, 2, r.Count(StatusCleanMerge))
	assert.Equal(t, 3, r.Merged())
}
