package rewrite

import (
	"errors"

	"objrw/internal/diag"
	"objrw/internal/editbuf"
	"objrw/internal/objc"
	"objrw/internal/source"
)

// InvariantError is the panic value of a violated rewriter invariant.
type InvariantError = objc.InvariantError

// AsInvariant extracts an invariant violation from a recovered panic value.
func AsInvariant(v any) (*InvariantError, bool) {
	err, ok := v.(*InvariantError)
	return err, ok
}

// check handles the result of a buffer edit. Stale edits are reported as
// W2001 at origin and dropped; the pass goes on.
func (r *Rewriter) check(err error, origin source.Span) bool {
	if err == nil {
		return true
	}
	var stale *editbuf.StaleEditError
	if !errors.As(err, &stale) {
		objc.Invariant("edit", "%v", err)
	}
	r.stale++
	if r.Opts.SilenceMacroWarnings {
		return false
	}
	if origin.Empty() {
		origin = stale.Span
	}
	diag.ReportWarning(r.Reporter, diag.RewriteInMacro, origin, diag.RewriteInMacro.Title()).
		WithNote(stale.Span, "edit "+stale.Reason.String()).
		Emit()
	return false
}
