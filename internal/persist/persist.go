package persist

import "fmt"

// Error wraps any storage failure. The in-memory document stays
// authoritative when one of these surfaces; callers retry the flush
// instead of rolling back committed edits.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
