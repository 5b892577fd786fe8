package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrReadOnly         = errors.New("repository is in read-only mode")
	ErrNoteNotFound     = errors.New("note not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// errOrderExhausted signals that floating point precision ran out between two
	// neighbouring orders. The placement engine resolves it by renormalizing.
	errOrderExhausted = errors.New("order interval exhausted")
)

// ValidationError reports a malformed or incomplete snapshot.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid snapshot: " + e.Reason
	}
	return fmt.Sprintf("invalid snapshot: %s: %s", e.Field, e.Reason)
}

// OutOfRangeError reports a reference to a row or column that does not exist.
type OutOfRangeError struct {
	Axis  Axis
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range (have %d)", e.Axis, e.Index, e.Len)
}

// InvariantViolation reports an operation that would break a structural rule of
// the board, such as removing the anchor header.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Reason
}

// IsNotFound reports whether err means a note or snapshot does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoteNotFound) || errors.Is(err, ErrSnapshotNotFound)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
