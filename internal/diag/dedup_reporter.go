package diag

import "objrw/internal/source"

// reportKey is one finding of the rewriter: a code at a place with a text.
// The severity follows from the code and is not part of the key.
type reportKey struct {
	code Code
	span source.Span
	msg  string
}

// DedupReporter passes on the first report of every finding. Edits inside
// one macro expansion and jumps out of one @try body are reported per edit,
// so the same warning arrives several times.
type DedupReporter struct {
	next       Reporter
	seen       map[reportKey]bool
	suppressed int
}

// NewDedupReporter wraps next.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[reportKey]bool)}
}

// Suppressed counts the repeats dropped so far.
func (r *DedupReporter) Suppressed() int {
	if r == nil {
		return 0
	}
	return r.suppressed
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	k := reportKey{code: code, span: primary, msg: msg}
	if r.seen[k] {
		r.suppressed++
		return
	}
	r.seen[k] = true
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}
