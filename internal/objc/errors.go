package objc

import "fmt"

// InvariantError is raised (as a panic value) when the rewriter finds its own
// bookkeeping in a state that should be impossible: a class struct emitted
// twice, a byref number reused, a delimiter missing from text the front end
// already accepted. It is not a user error; the driver recovers it at the
// translation-unit boundary and discards the whole output.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rewriter invariant violated in %s: %s", e.Op, e.Msg)
}

// Invariant panics with an *InvariantError.
func Invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
