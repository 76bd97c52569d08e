package git

import (
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// RefLogEntry records one update of a ref
type RefLogEntry struct {
	Old       plumbing.Hash
	New       plumbing.Hash
	Committer object.Signature
	Message   string
}

// String formats the entry the way git writes it to logs/<ref>
func (e RefLogEntry) String() string {
	return fmt.Sprintf("%s %s %s <%s> %d %s\t%s\n",
		e.Old, e.New,
		e.Committer.Name, e.Committer.Email,
		e.Committer.When.Unix(), e.Committer.When.Format("-0700"),
		e.Message)
}

// RefLog returns the entries recorded by this store for a ref, oldest first
func (s *Store) RefLog(name plumbing.ReferenceName) []RefLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RefLogEntry, len(s.reflog[name]))
	copy(out, s.reflog[name])
	return out
}

// appendRefLog records the entry in memory and, for repositories on disk,
// appends it to the ref's log file
func (s *Store) appendRefLog(name plumbing.ReferenceName, entry RefLogEntry) error {
	s.mu.Lock()
	s.reflog[name] = append(s.reflog[name], entry)
	s.mu.Unlock()

	fsStorage, ok := s.repo.Storer.(*filesystem.Storage)
	if !ok {
		return nil
	}
	return appendRefLogFile(fsStorage.Filesystem(), name, entry)
}

func appendRefLogFile(fs billy.Filesystem, name plumbing.ReferenceName, entry RefLogEntry) error {
	logPath := path.Join("logs", name.String())
	if err := fs.MkdirAll(path.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create reflog directory: %w", err)
	}

	f, err := fs.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open reflog: %w", err)
	}
	if _, err := f.Write([]byte(entry.String())); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write reflog: %w", err)
	}
	return f.Close()
}
