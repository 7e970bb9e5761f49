package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.m", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	id2 := fs.Add("test.m", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("test.m")
	if !exists || latestID != id2 {
		t.Errorf("Expected latest ID to be %d, got %d (exists=%v)", id2, latestID, exists)
	}
	if string(fs.Get(id1).Content) != "hello world" {
		t.Errorf("old version must stay reachable")
	}
	if fs.Get(42) != nil {
		t.Errorf("unknown id must return nil")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.m", []byte("ab\ncd\n\nef"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{2, LineCol{Line: 1, Col: 3}}, // the '\n' itself
		{3, LineCol{Line: 2, Col: 1}},
		{6, LineCol{Line: 3, Col: 1}},
		{8, LineCol{Line: 4, Col: 2}},
	}
	for _, c := range cases {
		start, _ := fs.Resolve(At(id, c.off))
		if start != c.want {
			t.Errorf("offset %d: got %+v, want %+v", c.off, start, c.want)
		}
	}
	if got := fs.Get(id).GetLine(2); got != "cd" {
		t.Errorf("GetLine(2) = %q", got)
	}
}

func TestLoadKeepsBytesVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.h")
	content := []byte("\xEF\xBB\xBFint x;\r\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != string(content) {
		t.Fatalf("content was modified on load")
	}
	for _, flag := range []FileFlags{FileHadBOM, FileHasCRLF, FileHeader} {
		if f.Flags&flag == 0 {
			t.Errorf("expected flag %d to be set", flag)
		}
	}
}

func TestInMacro(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("m.m", []byte("0123456789abcdef"))
	fs.SetMacros(id, []Span{{File: id, Start: 8, End: 12}, {File: id, Start: 2, End: 4}})
	f := fs.Get(id)

	if f.Macros[0].Start != 2 {
		t.Fatalf("macros must be sorted, got %v", f.Macros)
	}
	if !f.InMacro(Span{File: id, Start: 10, End: 14}) {
		t.Errorf("span overlapping macro must report true")
	}
	if f.InMacro(Span{File: id, Start: 4, End: 8}) {
		t.Errorf("span between macros must report false")
	}
	if !f.InMacro(At(id, 3)) {
		t.Errorf("insertion point inside macro must report true")
	}
	if f.InMacro(At(id, 8)) {
		t.Errorf("insertion point at macro boundary must report false")
	}
}

func TestIsHeaderPath(t *testing.T) {
	for path, want := range map[string]bool{"a.h": true, "a.hh": true, "a.H": true, "a.m": false, "a.mm": false} {
		if got := IsHeaderPath(path); got != want {
			t.Errorf("IsHeaderPath(%q) = %v", path, got)
		}
	}
}
