// Package testkit holds helpers shared by package tests: source fixtures
// addressed by substring and span sanity checks for unit documents.
package testkit

import (
	"strings"
	"testing"

	"fortio.org/safecast"

	"objrw/internal/source"
)

// Fixture is a main file registered in its own FileSet.
type Fixture struct {
	t    testing.TB
	Src  string
	FS   *source.FileSet
	File *source.File
}

// NewFixture registers src as a virtual file named name.
func NewFixture(t testing.TB, name, src string) *Fixture {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(src))
	return &Fixture{t: t, Src: src, FS: fs, File: fs.Get(id)}
}

// Span returns the span of the first occurrence of substr.
func (f *Fixture) Span(substr string) source.Span {
	f.t.Helper()
	return f.SpanN(substr, 0)
}

// SpanN returns the span of the n-th (zero-based) occurrence of substr.
func (f *Fixture) SpanN(substr string, n int) source.Span {
	f.t.Helper()
	from := 0
	for i := 0; ; i++ {
		idx := strings.Index(f.Src[from:], substr)
		if idx < 0 {
			f.t.Fatalf("fixture: occurrence %d of %q not found", n, substr)
		}
		if i == n {
			return f.span(from+idx, from+idx+len(substr))
		}
		from += idx + 1
	}
}

// After returns the offset just past the first occurrence of substr.
func (f *Fixture) After(substr string) uint32 {
	f.t.Helper()
	return f.Span(substr).End
}

// Cover spans from the start of the first occurrence of from to the end of
// the first occurrence of to at or after it.
func (f *Fixture) Cover(from, to string) source.Span {
	f.t.Helper()
	a := f.Span(from)
	idx := strings.Index(f.Src[a.Start:], to)
	if idx < 0 {
		f.t.Fatalf("fixture: %q not found after %q", to, from)
	}
	return f.span(int(a.Start), int(a.Start)+idx+len(to))
}

func (f *Fixture) span(start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		f.t.Fatalf("fixture: %v", err)
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		f.t.Fatalf("fixture: %v", err)
	}
	return source.Span{File: f.File.ID, Start: s, End: e}
}
