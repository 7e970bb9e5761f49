package editbuf

import (
	"fmt"

	"objrw/internal/source"
)

// StaleReason says why an edit could not be committed.
type StaleReason uint8

const (
	// ReasonConsumed: the target bytes were already claimed by a replacement.
	ReasonConsumed StaleReason = iota
	// ReasonOverlap: the target partially overlaps a committed replacement.
	ReasonOverlap
	// ReasonMacro: the target touches a macro expansion.
	ReasonMacro
	// ReasonOutOfRange: the target lies outside the file.
	ReasonOutOfRange
)

func (r StaleReason) String() string {
	switch r {
	case ReasonConsumed:
		return "consumed"
	case ReasonOverlap:
		return "overlap"
	case ReasonMacro:
		return "macro"
	case ReasonOutOfRange:
		return "out-of-range"
	}
	return "unknown"
}

// StaleEditError is the recoverable failure of Insert/Replace. The buffer is
// left untouched when it is returned.
type StaleEditError struct {
	Span   source.Span
	Kind   Kind
	Reason StaleReason
}

func (e *StaleEditError) Error() string {
	return fmt.Sprintf("editbuf: cannot %s at %s: %s", e.Kind, e.Span, e.Reason)
}
