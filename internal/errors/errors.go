// Package errors provides sentinel errors and custom error types for submitq.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrMalformedInput indicates a revision string that is not a commit id
	ErrMalformedInput = errors.New("malformed input")

	// ErrObjectNotFound indicates that an object is missing from the repository
	ErrObjectNotFound = errors.New("object not found")

	// ErrRefChanged indicates that a ref no longer holds the value observed at the start of a run
	ErrRefChanged = errors.New("ref changed concurrently")

	// ErrNonFastForward indicates an update that would rewrite branch history
	ErrNonFastForward = errors.New("non-fast-forward update")

	// ErrConcurrentUpdate indicates an optimistic concurrency conflict in the change store
	ErrConcurrentUpdate = errors.New("concurrent update")

	// ErrChangeNotFound indicates that a change does not exist in the change store
	ErrChangeNotFound = errors.New("change not found")
)

// MalformedInputError is returned when a change revision cannot be parsed
type MalformedInputError struct {
	Input string
}

func (e *MalformedInputError) Error() string {
	if e.Input == "" {
		return "malformed input: empty revision"
	}
	return fmt.Sprintf("malformed input: %q is not a commit id", e.Input)
}

// Is returns true if the target error is ErrMalformedInput
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewMalformedInputError creates a new MalformedInputError
func NewMalformedInputError(input string) *MalformedInputError {
	return &MalformedInputError{Input: input}
}

// ObjectNotFoundError is returned when a commit cannot be read from the object store
type ObjectNotFoundError struct {
	ID string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object %s not found", e.ID)
}

// Is returns true if the target error is ErrObjectNotFound
func (e *ObjectNotFoundError) Is(target error) bool {
	return target == ErrObjectNotFound
}

// NewObjectNotFoundError creates a new ObjectNotFoundError
func NewObjectNotFoundError(id string) *ObjectNotFoundError {
	return &ObjectNotFoundError{ID: id}
}

// RefUpdateError represents a rejected compare-and-swap on a ref
type RefUpdateError struct {
	RefName  string
	Expected string
	Actual   string
	Reason   error
}

func (e *RefUpdateError) Error() string {
	if e.Actual != "" {
		return fmt.Sprintf("cannot update %s: %v (expected %s, found %s)", e.RefName, e.Reason, e.Expected, e.Actual)
	}
	return fmt.Sprintf("cannot update %s: %v", e.RefName, e.Reason)
}

func (e *RefUpdateError) Unwrap() error {
	return e.Reason
}

// NewRefUpdateError creates a new RefUpdateError. reason should be
// ErrRefChanged or ErrNonFastForward.
func NewRefUpdateError(refName, expected, actual string, reason error) *RefUpdateError {
	return &RefUpdateError{
		RefName:  refName,
		Expected: expected,
		Actual:   actual,
		Reason:   reason,
	}
}

// MergeError aborts a whole merge run. Op names the stage that failed.
type MergeError struct {
	Branch string
	Op     string
	Err    error
}

func (e *MergeError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf("merge %s: %s: %v", e.Branch, e.Op, e.Err)
	}
	return fmt.Sprintf("merge: %s: %v", e.Op, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewMergeError creates a new MergeError
func NewMergeError(branch, op string, err error) *MergeError {
	return &MergeError{
		Branch: branch,
		Op:     op,
		Err:    err,
	}
}
