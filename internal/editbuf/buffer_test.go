package editbuf

import (
	"errors"
	"strings"
	"testing"

	"objrw/internal/source"
)

func newBuf(t *testing.T, text string, macros ...source.Span) (*Buffer, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.m", []byte(text))
	if len(macros) > 0 {
		fs.SetMacros(id, macros)
	}
	f := fs.Get(id)
	return New(f), f
}

func span(f *source.File, text, sub string) source.Span {
	i := strings.Index(text, sub)
	if i < 0 {
		panic("substring not found: " + sub)
	}
	return source.Span{File: f.ID, Start: uint32(i), End: uint32(i + len(sub))}
}

func reason(t *testing.T, err error) StaleReason {
	t.Helper()
	var se *StaleEditError
	if !errors.As(err, &se) {
		t.Fatalf("expected StaleEditError, got %v", err)
	}
	return se.Reason
}

func TestInsertOrdering(t *testing.T) {
	b, _ := newBuf(t, "abc")
	mustOK(t, b.Insert(1, "1", true))
	mustOK(t, b.Insert(1, "2", true))
	mustOK(t, b.Insert(1, "0", false))
	mustOK(t, b.Insert(1, "-", false))
	if got, want := b.String(), "a-012bc"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReplaceSubsumesInnerEdits(t *testing.T) {
	text := "x = [a foo:[b bar]];"
	b, f := newBuf(t, text)
	inner := span(f, text, "[b bar]")
	outer := span(f, text, "[a foo:[b bar]]")

	mustOK(t, b.Replace(inner, "BAR(b)"))
	rendered := b.Render(outer)
	if rendered != "[a foo:BAR(b)]" {
		t.Fatalf("render = %q", rendered)
	}
	mustOK(t, b.Replace(outer, "FOO(a, "+b.Render(inner)+")"))
	if got := b.String(); got != "x = FOO(a, BAR(b));" {
		t.Fatalf("got %q", got)
	}
	if n := len(b.Edits()); n != 1 {
		t.Fatalf("inner edit must be retired, live=%d", n)
	}

	// the inner range is now consumed
	if r := reason(t, b.Replace(inner, "again")); r != ReasonConsumed {
		t.Fatalf("reason = %v", r)
	}
	if got := b.String(); got != "x = FOO(a, BAR(b));" {
		t.Fatalf("failed edit changed the buffer: %q", got)
	}
}

func TestOverlapAndIdenticalReplaceFail(t *testing.T) {
	text := "0123456789"
	b, f := newBuf(t, text)
	mustOK(t, b.Replace(span(f, text, "2345"), "X"))
	if r := reason(t, b.Replace(span(f, text, "456"), "Y")); r != ReasonOverlap {
		t.Fatalf("partial overlap reason = %v", r)
	}
	if r := reason(t, b.Replace(span(f, text, "2345"), "Z")); r != ReasonConsumed {
		t.Fatalf("identical span reason = %v", r)
	}
	if r := reason(t, b.Insert(3, "!", true)); r != ReasonConsumed {
		t.Fatalf("insert inside replacement reason = %v", r)
	}
	// boundaries stay writable
	mustOK(t, b.Insert(2, "<", true))
	mustOK(t, b.Insert(6, ">", true))
	if got := b.String(); got != "01<X>6789" {
		t.Fatalf("got %q", got)
	}
}

func TestInsertBeforeReplacementAtSameOffset(t *testing.T) {
	text := "@end"
	b, f := newBuf(t, text)
	mustOK(t, b.Replace(span(f, text, "@end"), "/* @end */"))
	mustOK(t, b.Insert(0, "// x\n", true))
	if got := b.String(); got != "// x\n/* @end */" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderExcludesBoundaryInserts(t *testing.T) {
	text := "f(a, b)"
	b, f := newBuf(t, text)
	mustOK(t, b.Insert(0, "/*pre*/", true))
	mustOK(t, b.Insert(2, "(id)", true))
	mustOK(t, b.Insert(uint32(len(text)), ";", true))
	if got := b.Render(span(f, text, "f(a, b)")); got != "f((id)a, b)" {
		t.Fatalf("render = %q", got)
	}
	if got := b.String(); got != "/*pre*/f((id)a, b);" {
		t.Fatalf("string = %q", got)
	}
}

func TestMacroAndRangeRejected(t *testing.T) {
	text := "int x = MAX(a, b);"
	macro := source.Span{Start: 8, End: 17}
	b, f := newBuf(t, text, macro)
	if r := reason(t, b.Replace(span(f, text, "a"), "A")); r != ReasonMacro {
		t.Fatalf("reason = %v", r)
	}
	if r := reason(t, b.Insert(10, "x", true)); r != ReasonMacro {
		t.Fatalf("insert reason = %v", r)
	}
	mustOK(t, b.Insert(8, "(", true))
	if r := reason(t, b.ReplaceRange(17, 10, "")); r != ReasonOutOfRange {
		t.Fatalf("reason = %v", r)
	}
	if b.String() != "int x = (MAX(a, b);" {
		t.Fatalf("got %q", b.String())
	}
}

func TestReplaceNodeFirstWriteWins(t *testing.T) {
	text := "@selector(foo:)"
	b, f := newBuf(t, text)
	key := NodeKey{Space: 3, ID: 7}
	done, err := b.ReplaceNode(key, f.Span(), `sel_registerName("foo:")`)
	if err != nil || !done {
		t.Fatalf("first replace: done=%v err=%v", done, err)
	}
	done, err = b.ReplaceNode(key, f.Span(), "other")
	if err != nil || done {
		t.Fatalf("second replace must be a silent no-op: done=%v err=%v", done, err)
	}
	if got := b.String(); got != `sel_registerName("foo:")` {
		t.Fatalf("got %q", got)
	}
	if !b.NodeReplaced(key) {
		t.Fatalf("NodeReplaced = false")
	}
}

func TestCommittedReplacementsNeverOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 4)
	b, _ := newBuf(t, text)
	tries := []source.Span{{Start: 0, End: 4}, {Start: 2, End: 6}, {Start: 10, End: 20}, {Start: 12, End: 14}, {Start: 4, End: 10}, {Start: 0, End: 10}, {Start: 19, End: 25}}
	for _, sp := range tries {
		_ = b.Replace(sp, "#")
	}
	live := b.Edits()
	for i := range live {
		for j := i + 1; j < len(live); j++ {
			a, c := live[i].Span, live[j].Span
			if a.Start < c.End && c.Start < a.End {
				t.Fatalf("overlapping live edits %v and %v", a, c)
			}
		}
	}
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
