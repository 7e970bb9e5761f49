package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "ERROR", " phase ", "Detail", "debug"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, true},
		{LevelError, ScopePass, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeDecl, false},
		{LevelDetail, ScopeDecl, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, c := range cases {
		if got := c.level.ShouldEmit(c.scope); got != c.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", c.level, c.scope, got, c.want)
		}
	}
}

func TestStreamText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	root := Begin(tr, ScopeDriver, "rewrite_unit", 0).WithExtra("path", "a.m")
	pass := Begin(tr, ScopePass, "walk", root.ID())
	Point(tr, ScopeNode, "message", "filtered out", pass.ID())
	pass.End("")
	root.End("diags=0 stale=0")
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "→ rewrite_unit") {
		t.Errorf("unexpected begin line %q", lines[0])
	}
	if !strings.Contains(lines[1], "  → walk") {
		t.Errorf("pass line not indented: %q", lines[1])
	}
	if !strings.HasSuffix(lines[3], "← rewrite_unit (diags=0 stale=0) {path=a.m}") {
		t.Errorf("unexpected end line %q", lines[3])
	}
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatChrome)
	sp := Begin(tr, ScopeDriver, "batch", 0)
	Point(tr, ScopeNode, "block", "", sp.ID())
	sp.End("")
	_ = tr.Close()
	_ = tr.Close()

	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome trace: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 3 {
		t.Fatalf("events = %d, want 3", len(doc.TraceEvents))
	}
	if doc.TraceEvents[0]["ph"] != "B" || doc.TraceEvents[2]["ph"] != "E" {
		t.Errorf("unexpected phases: %v", doc.TraceEvents)
	}
}

func TestRingWrapAndDump(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for i := range 5 {
		Point(r, ScopeNode, "p", string(rune('a'+i)), 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Detail != "c" || snap[2].Detail != "e" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("dumped %d lines, want 3", n)
	}
}

func TestNewModes(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ring, ok := RingOf(tr)
	if !ok {
		t.Fatal("ModeBoth must keep a ring")
	}
	Begin(tr, ScopeDriver, "x", 0).End("")
	if len(ring.Snapshot()) != 2 || buf.Len() == 0 {
		t.Fatalf("events not fanned out: ring=%d stream=%d", len(ring.Snapshot()), buf.Len())
	}

	off, err := New(Config{Level: LevelOff, Mode: ModeStream})
	if err != nil || off.Enabled() {
		t.Fatalf("LevelOff must give a disabled tracer: %v", err)
	}
	if _, err := New(Config{Level: LevelDebug}); err == nil {
		t.Error("expected error without a mode")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"trace.ndjson": FormatNDJSON,
		"trace.json":   FormatChrome,
		"trace.log":    FormatText,
	}
	for path, want := range cases {
		if got := (Config{OutputPath: path}).EffectiveFormat(); got != want {
			t.Errorf("%s: got %s, want %s", path, got, want)
		}
	}
	if got := (Config{OutputPath: "-"}).EffectiveFormat(); got != FormatText {
		t.Errorf("stderr format = %s", got)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("missing tracer must be Nop")
	}
	r := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 7})
	if FromContext(ctx) != Tracer(r) || CurrentSpan(ctx).SpanID != 7 {
		t.Fatal("context lost tracer or span")
	}
}

func TestInertSpan(t *testing.T) {
	sp := Begin(Nop, ScopeDriver, "x", 0).WithExtra("k", "v")
	if sp.ID() != 0 || sp.End("") != 0 {
		t.Fatal("disabled span must be inert")
	}
	if inert.extra != nil {
		t.Fatal("inert span mutated")
	}
}

func TestHeartbeat(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	if len(r.Snapshot()) == 0 {
		t.Fatal("no heartbeat recorded")
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat on a disabled tracer")
	}
}
