package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature returns an author/committer identity stamped with the store clock
func (s *Store) Signature(name, email string) object.Signature {
	return object.Signature{
		Name:  name,
		Email: email,
		When:  s.now(),
	}
}

// WriteCommit writes a commit object with the given parents and tree. The
// identity is used as both author and committer.
func (s *Store) WriteCommit(_ context.Context, parents []plumbing.Hash, tree plumbing.Hash, ident object.Signature, message string) (plumbing.Hash, error) {
	commit := &object.Commit{
		Author:       ident,
		Committer:    ident,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode commit: %w", err)
	}
	id, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to write commit: %w", err)
	}
	return id, nil
}

// WriteBlob stores content as a blob object
func (s *Store) WriteBlob(_ context.Context, content []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to open blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob: %w", err)
	}
	return s.repo.Storer.SetEncodedObject(obj)
}

// Subject returns the first line of a commit message
func (s *Store) Subject(_ context.Context, id plumbing.Hash) (string, error) {
	c, err := s.commit(id)
	if err != nil {
		return "", err
	}
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return subject, nil
}
