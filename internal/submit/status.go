package submit

import "submitq.dev/submitq/internal/store"

// statusMap holds the outcome of every change of one run. The first status
// assigned to a change sticks; later stages cannot overwrite it, except that
// merged replaces PATH_CONFLICT.
type statusMap map[store.ChangeID]StatusCode

// set assigns code unless the change already has a status, and reports
// whether it did
func (m statusMap) set(id store.ChangeID, code StatusCode) bool {
	if _, ok := m[id]; ok {
		return false
	}
	m[id] = code
	return true
}

// merged records CLEAN_MERGE for a change whose commit reached the new tip.
// A shared ancestor of a conflicting head and a merged head is marked
// PATH_CONFLICT first; its commit is in the branch, so that status is
// replaced. Any other status sticks.
func (m statusMap) merged(id store.ChangeID) bool {
	if code, ok := m[id]; ok && code != StatusPathConflict {
		return false
	}
	m[id] = StatusCleanMerge
	return true
}

func (m statusMap) get(id store.ChangeID) (StatusCode, bool) {
	code, ok := m[id]
	return code, ok
}
