package btree

import "fmt"

// DuplicateKey is returned by Insert when the key already exists in the
// tree. The storage layer never replaces in place; callers that want
// update semantics must delete then insert.
type DuplicateKey struct {
	Key int32
}

func (e *DuplicateKey) Error() string {
	return fmt.Sprintf("duplicate key %d", e.Key)
}

// NotFound is returned by Find and Delete when the key is absent.
type NotFound struct {
	Key int32
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("key %d not found", e.Key)
}

// InvariantViolation is returned by Validate; it should never occur
// against a correct implementation and exists for debugging and for the
// property tests in the test suite.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Detail)
}

// ErrCursorInvalidated is returned by Cursor.Value/Advance after the
// underlying tree has been structurally mutated since the cursor was
// created.
type ErrCursorInvalidated struct{}

func (e *ErrCursorInvalidated) Error() string {
	return "cursor invalidated by a structural mutation of the tree"
}
