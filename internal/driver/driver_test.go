package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"objrw/internal/ast"
	"objrw/internal/diag"
	"objrw/internal/rewrite"
	"objrw/internal/source"
)

const forwardSrc = "@class A;\nint x;\n"

// forwardUnit is "@class A;" followed by plain C that stays untouched.
func forwardUnit(path string, inline bool) *ast.Unit {
	b := ast.NewBuilder(path, ast.Hints{})
	b.PushTop(b.NewDecl(ast.Decl{
		Kind:  ast.DeclForwardClass,
		Span:  source.Span{Start: 0, End: 8},
		Names: []string{"A"},
	}))
	if inline {
		b.Unit.Source = []byte(forwardSrc)
	}
	return b.Unit
}

func writeUnit(t *testing.T, path string, u *ast.Unit) {
	t.Helper()
	if err := ast.EncodeFile(path, u, ast.FormatAuto); err != nil {
		t.Fatalf("encode unit: %v", err)
	}
}

func TestPreambleVariants(t *testing.T) {
	plain := Preamble(PreambleOptions{})
	if !strings.HasPrefix(plain, "#ifndef __OBJC2__\n#define __OBJC2__\n#endif\n") {
		t.Errorf("plain preamble must open with the __OBJC2__ guard:\n%s", plain[:80])
	}
	if !strings.Contains(plain, "#define __OBJC_RW_DLLIMPORT extern\n") || !strings.Contains(plain, "#define __block\n") {
		t.Errorf("plain preamble lacks the non-MS definitions")
	}

	hdr := Preamble(PreambleOptions{Header: true, MSExtensions: true})
	if !strings.HasPrefix(hdr, "#pragma once\nstruct objc_selector;") {
		t.Errorf("header preamble must start with #pragma once, got %q", hdr[:40])
	}
	if strings.Contains(hdr, "__OBJC2__") {
		t.Errorf("header preamble keeps the __OBJC2__ guard")
	}
	for _, want := range []string{
		"__rw_objc_super(struct objc_object *o, struct objc_object *s) : object(o), superClass(s) {} };\n",
		"#define __OBJC_RW_DLLIMPORT extern \"C\" __declspec(dllimport)\n",
		"#ifndef KEEP_ATTRIBUTES\n#define __attribute__(X)\n#endif\n",
	} {
		if !strings.Contains(hdr, want) {
			t.Errorf("MS preamble lacks %q", want)
		}
	}
	if !strings.HasSuffix(hdr, "#define __OFFSETOFIVAR__(TYPE, MEMBER) ((long long) &((TYPE *)0)->MEMBER)\n") {
		t.Errorf("preamble must end with __OFFSETOFIVAR__")
	}
}

func TestRewriteFileInlineSource(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "t.astpack")
	writeUnit(t, doc, forwardUnit("t.m", true))

	res, err := RewriteFile(context.Background(), Input{ASTPath: doc}, Options{EnableTimings: true})
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if !strings.HasPrefix(res.Output, Preamble(PreambleOptions{MSExtensions: true})) {
		t.Errorf("output does not start with the MS preamble")
	}
	if !strings.HasSuffix(res.Output, "// @class A;\n#ifndef _REWRITER_typedef_A\n#define _REWRITER_typedef_A\ntypedef struct objc_object A;\n#endif\n\nint x;\n") {
		t.Errorf("unexpected body:\n%s", res.Output)
	}
	if res.Timing == nil || len(res.Timing.Phases) == 0 {
		t.Errorf("timings requested but not recorded")
	}
	if res.Bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %d", res.Bag.Len())
	}
}

func TestRewriteUnitPriorErrors(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.m", []byte(forwardSrc)))
	u := forwardUnit("t.m", false)
	u.PriorErrors = 2

	res, err := RewriteUnit(context.Background(), fs, file, u, Options{})
	if !errors.Is(err, ErrPriorErrors) {
		t.Fatalf("err = %v, want ErrPriorErrors", err)
	}
	if res.Output != "" {
		t.Errorf("prior errors must produce no output")
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.PriorErrors || items[0].Severity != diag.SevInfo {
		t.Errorf("want one I0001 note, got %+v", items)
	}
}

func TestRewriteUnitRecoversInvariant(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.m", []byte("int y;\n")))
	b := ast.NewBuilder("t.m", ast.Hints{})
	// ivar вне класса: драйвер считает это нарушением инварианта
	b.PushTop(b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "y", Type: b.Builtin("int"), Span: source.Span{Start: 0, End: 5}}))

	res, err := RewriteUnit(context.Background(), fs, file, b.Unit, Options{EnableTimings: true})
	var ie *rewrite.InvariantError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *rewrite.InvariantError", err)
	}
	if res.Output != "" {
		t.Errorf("invariant violation must drop the output")
	}
	if !res.Bag.HasErrors() || res.Bag.Items()[0].Code != diag.InternalInvariant {
		t.Errorf("want E3001, got %+v", res.Bag.Items())
	}
	if res.Timing == nil || len(res.Timing.Phases) != 2 {
		t.Fatalf("timings = %+v, want includes and walk", res.Timing)
	}
	if last := res.Timing.Phases[1]; last.Name != "walk" || last.Note != "aborted" {
		t.Errorf("failed pass recorded as %+v", last)
	}
}

func TestRewriteUnitRejectsMalformed(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.m", []byte("x")))
	u := forwardUnit("t.m", false) // span 0..8 does not fit a 1-byte file

	res, err := RewriteUnit(context.Background(), fs, file, u, Options{})
	if !errors.Is(err, ast.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if got := res.Bag.Items()[0].Code; got != diag.UnitMalformed {
		t.Errorf("code = %v, want E1003", got)
	}
}

func TestSessionOptionsPrecedence(t *testing.T) {
	off, on := false, true
	u := forwardUnit("a.h", false)
	u.Lang.MSExtensions = &off

	so := SessionOptions("a.h", u, Options{})
	if so.MSExtensions || !so.Header {
		t.Errorf("unit language must win over defaults: %+v", so)
	}
	so = SessionOptions("a.h", u, Options{MSExtensions: &on, Header: &off})
	if !so.MSExtensions || so.Header {
		t.Errorf("flags must win over the unit: %+v", so)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := OpenCache(t.TempDir(), true, 0)
	if err != nil {
		t.Fatal(err)
	}
	key := CacheKey([]byte("src"), []byte("doc"), "a.m", Options{})
	if _, ok := c.Get(key); ok {
		t.Fatalf("empty cache hit")
	}
	out := strings.Repeat("static int x;\n", 200)
	entry := &CacheEntry{
		Output:      out,
		Diagnostics: []diag.Diagnostic{diag.New(diag.SevWarning, diag.RewriteInMacro, source.Span{Start: 1, End: 2}, "m")},
		Stale:       1,
	}
	if stored, err := c.Put(key, entry); err != nil || !stored {
		t.Fatalf("put: stored=%v err=%v", stored, err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatalf("miss after put")
	}
	if got.Output != out || got.Stale != 1 || len(got.Diagnostics) != 1 || got.Diagnostics[0].Code != diag.RewriteInMacro {
		t.Errorf("entry changed in the round trip: %+v", got)
	}

	// сжатие действительно применено
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		t.Fatal(err)
	}
	if data[4]&flagLZ4 == 0 || len(data) >= len(out) {
		t.Errorf("entry of %d bytes was not compressed (%d on disk)", len(out), len(data))
	}
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	on := true
	a := CacheKey([]byte("s"), []byte("d"), "a.m", Options{})
	b := CacheKey([]byte("s"), []byte("d"), "a.m", Options{MSExtensions: &on})
	c := CacheKey([]byte("s"), []byte("d"), "b.m", Options{})
	if a == b || a == c {
		t.Errorf("keys must differ by options and path")
	}
	if a != CacheKey([]byte("s"), []byte("d"), "a.m", Options{}) {
		t.Errorf("key is not deterministic")
	}
}

func TestCacheMisses(t *testing.T) {
	c, err := OpenCache(t.TempDir(), false, 64)
	if err != nil {
		t.Fatal(err)
	}
	key := CacheKey(nil, nil, "big.m", Options{})
	stored, err := c.Put(key, &CacheEntry{Output: strings.Repeat("x", 1024)})
	if err != nil || stored {
		t.Errorf("oversized entry: stored=%v err=%v", stored, err)
	}

	corrupt := CacheKey(nil, nil, "corrupt.m", Options{})
	if err := writeAtomic(c.pathFor(corrupt), []byte("ORWC garbage")); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(corrupt); ok {
		t.Errorf("corrupt entry must be a miss")
	}

	old := CacheKey(nil, nil, "old.m", Options{})
	raw, err := msgpack.Marshal(&CacheEntry{Schema: cacheSchemaVersion + 1, Output: "x"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := packEntry(raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeAtomic(c.pathFor(old), data); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(old); ok {
		t.Errorf("entry of another schema must be a miss")
	}
}

func TestCollectInputsAndOutputPath(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.m", "b.mm", "c.h", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(forwardSrc), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeUnit(t, filepath.Join(dir, "a.m.astpack"), forwardUnit("a.m", false))
	writeUnit(t, filepath.Join(dir, "c.ast.json"), forwardUnit("c.h", false))

	inputs, missing, err := CollectInputs([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 2 || filepath.Base(inputs[0].ASTPath) != "a.m.astpack" || filepath.Base(inputs[1].ASTPath) != "c.ast.json" {
		t.Errorf("inputs = %+v", inputs)
	}
	if len(missing) != 1 || filepath.Base(missing[0]) != "b.mm" {
		t.Errorf("missing = %v", missing)
	}

	if got := OutputPath("src/a.m", "", ""); got != "src/a.cpp" {
		t.Errorf("OutputPath = %q", got)
	}
	if got := OutputPath("src/a.m", "out", ".c"); got != filepath.Join("out", "a.c") {
		t.Errorf("OutputPath = %q", got)
	}
}

type recordSink struct{ events chan Event }

func (s recordSink) OnEvent(e Event) { s.events <- e }

func TestBatchUsesCache(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.m")
	if err := os.WriteFile(src, []byte(forwardSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	writeUnit(t, src+".astpack", forwardUnit(src, false))
	cache, err := OpenCache(filepath.Join(dir, "cache"), true, 0)
	if err != nil {
		t.Fatal(err)
	}
	inputs, _, err := CollectInputs([]string{src})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	opts := BatchOptions{Jobs: 2, OutDir: out, Cache: cache}

	first, err := Batch(context.Background(), inputs, opts)
	if err != nil || Failed(first) {
		t.Fatalf("first batch: %v %+v", err, first)
	}
	if first[0].Result.Cached {
		t.Errorf("first run cannot be cached")
	}
	written, err := os.ReadFile(filepath.Join(out, "a.cpp"))
	if err != nil {
		t.Fatal(err)
	}

	sink := recordSink{events: make(chan Event, 16)}
	opts.Sink = sink
	second, err := Batch(context.Background(), inputs, opts)
	if err != nil || Failed(second) {
		t.Fatalf("second batch: %v", err)
	}
	if !second[0].Result.Cached || second[0].Result.Output != string(written) {
		t.Errorf("second run must come from the cache with the same output")
	}
	close(sink.events)
	var last Event
	for e := range sink.events {
		last = e
	}
	if last.Status != StatusCached {
		t.Errorf("last event status = %q, want cached", last.Status)
	}
}
