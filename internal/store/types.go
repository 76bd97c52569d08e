package store

import (
	"encoding/base64"
	"encoding/binary"
	"time"
)

// ChangeID identifies a change
type ChangeID int

// Status is the lifecycle state of a change
type Status string

const (
	// StatusNew is an open change under review
	StatusNew Status = "NEW"
	// StatusSubmitted is an approved change waiting in the submit queue
	StatusSubmitted Status = "SUBMITTED"
	// StatusMerged is a change integrated into its branch
	StatusMerged Status = "MERGED"
	// StatusAbandoned is a change closed without merging
	StatusAbandoned Status = "ABANDONED"
)

// IsClosed reports whether the change can no longer be merged or reopened by the queue
func (s Status) IsClosed() bool {
	return s == StatusMerged || s == StatusAbandoned
}

// Change is the persisted record the merge engine reads and updates.
// Version is the optimistic concurrency token; UpdateChange bumps it.
type Change struct {
	ID              ChangeID
	Branch          string
	Subject         string
	Status          Status
	CurrentPatchSet int // zero when the change has no patch set
	LastUpdatedOn   time.Time
	Version         int64
}

// Updated stamps the change modification time
func (c *Change) Updated(now time.Time) {
	c.LastUpdatedOn = now
}

// PatchSet is one uploaded revision of a change
type PatchSet struct {
	ChangeID  ChangeID
	ID        int
	Revision  string // commit id as hex; may be empty for a broken upload
	CreatedOn time.Time
}

// SubmittedChange is one entry of the submit queue for a branch
type SubmittedChange struct {
	ChangeID   ChangeID
	PatchSetID int    // zero when the change has no current patch set
	Revision   string // empty when the patch set has no revision
}

// Message is a comment attached to a change. A nil Author means the message
// was written by the system.
type Message struct {
	ChangeID  ChangeID
	UUID      string
	Author    *int64
	WrittenOn time.Time
	Message   string
}

// IsSystem reports whether the message was written by the system
func (m *Message) IsSystem() bool {
	return m.Author == nil
}

// MessageUUID encodes a message sequence number as the 4-byte big-endian
// base64 key used for change messages
func MessageUUID(seq int32) string {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], uint32(seq))
	return base64.StdEncoding.EncodeToString(raw[:])
}

// RunRecord is the audit record of one merge run
type RunRecord struct {
	RunID      string
	Branch     string
	OldTip     string
	NewTip     string
	StartedAt  time.Time
	FinishedAt time.Time
	Merged     int
	Failed     int
	Err        string
}
