package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"objrw/internal/diag"
	"objrw/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("void f(void) {\n\t[obj ping];\n}\n")
	fileID := fs.AddVirtual("test.m", content)

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevWarning,
		diag.RewriteInMacro,
		source.Span{File: fileID, Start: 16, End: 26},
		"rewriting sub-expression within a macro (may not be correct)",
	))

	var buf bytes.Buffer
	opts := JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
	}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got count=%d len=%d", output.Count, len(output.Diagnostics))
	}

	d := output.Diagnostics[0]
	if d.Severity != "WARNING" {
		t.Errorf("Expected severity=WARNING, got %s", d.Severity)
	}
	if d.Code != "W2001" {
		t.Errorf("Expected code=W2001, got %s", d.Code)
	}
	if d.Title != diag.RewriteInMacro.Title() {
		t.Errorf("unexpected title %q", d.Title)
	}
	if d.Location.File != "test.m" {
		t.Errorf("Expected file=test.m, got %s", d.Location.File)
	}
	if d.Location.StartByte != 16 || d.Location.EndByte != 26 {
		t.Errorf("unexpected bytes %d..%d", d.Location.StartByte, d.Location.EndByte)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 2 {
		t.Errorf("Expected 2:2, got %d:%d", d.Location.StartLine, d.Location.StartCol)
	}
}

func TestJSONNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.m", []byte("@try { return; } @finally { }\n"))

	bag := diag.NewBag(10)
	d := diag.New(diag.SevWarning, diag.TryFinallyJump, source.Span{File: fileID, Start: 7, End: 14}, "jump out of @try").
		WithNote(source.Span{File: fileID, Start: 17, End: 25}, "@finally is here")
	bag.Add(d)

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludeNotes: true}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	notes := output.Diagnostics[0].Notes
	if len(notes) != 1 || notes[0].Message != "@finally is here" || notes[0].Location.StartByte != 17 {
		t.Fatalf("unexpected notes: %+v", notes)
	}

	buf.Reset()
	if err := JSON(&buf, bag, fs, JSONOpts{}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	output = DiagnosticsOutput{}
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if len(output.Diagnostics[0].Notes) != 0 {
		t.Errorf("notes must be omitted without IncludeNotes")
	}
}

// TestJSONWithoutPositions проверяет JSON без позиций строк/колонок
func TestJSONWithoutPositions(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.m", []byte("int x;"))

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevInfo, diag.PriorErrors, source.Span{File: fileID, Start: 4, End: 5}, "info"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	d := output.Diagnostics[0]
	if d.Location.StartLine != 0 {
		t.Errorf("Expected start_line to be omitted (0), got %d", d.Location.StartLine)
	}
	if d.Location.StartByte != 4 {
		t.Errorf("Expected start_byte=4, got %d", d.Location.StartByte)
	}
	if d.Code != "I0001" {
		t.Errorf("Expected I0001, got %s", d.Code)
	}
}

// TestJSONMaxLimit проверяет ограничение количества диагностик
func TestJSONMaxLimit(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.m", []byte("test content"))

	bag := diag.NewBag(10)
	for i := range 5 {
		bag.Add(diag.New(diag.SevWarning, diag.RewriteInMacro,
			source.Span{File: fileID, Start: uint32(i), End: uint32(i + 1)}, "w"))
	}

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 3}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if output.Count != 3 || len(output.Diagnostics) != 3 {
		t.Errorf("Expected 3 diagnostics (limited), got %d", output.Count)
	}
	if output.Omitted != 2 || output.Warnings != 5 || output.Errors != 0 {
		t.Errorf("omitted=%d warnings=%d errors=%d", output.Omitted, output.Warnings, output.Errors)
	}
}

// Диагностика загрузки приходит без файла в FileSet.
func TestJSONMissingFile(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.IOReadFailed, source.Span{}, "read unit: no such file"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	d := output.Diagnostics[0]
	if d.Location.File != "" || d.Location.StartLine != 0 {
		t.Errorf("unexpected location %+v", d.Location)
	}
	if d.Code != "E1001" {
		t.Errorf("Expected E1001, got %s", d.Code)
	}
}

func TestJSONPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/home/user/project")
	fileID := fs.AddVirtual("/home/user/project/src/main.m", []byte("test"))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.UnitMalformed, source.Span{File: fileID, Start: 0, End: 4}, "bad"))

	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAbsolute, "/home/user/project/src/main.m"},
		{PathModeRelative, "src/main.m"},
		{PathModeBasename, "main.m"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			out := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: tt.mode})
			if got := out.Diagnostics[0].Location.File; got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
