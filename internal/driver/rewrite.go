package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fortio.org/safecast"

	"objrw/internal/ast"
	"objrw/internal/diag"
	"objrw/internal/layout"
	"objrw/internal/objc"
	"objrw/internal/observ"
	"objrw/internal/rewrite"
	"objrw/internal/source"
	"objrw/internal/trace"
)

// ErrPriorErrors is returned when the front end already reported hard
// errors for the unit. No output is produced.
var ErrPriorErrors = errors.New("translation unit has prior errors")

// Options управляет переписыванием одной единицы трансляции.
type Options struct {
	// StructReturnThreshold overrides the *_stret limit of the target.
	StructReturnThreshold int
	PointerSize           int
	// MSExtensions and Header override the unit document and the file
	// extension when non-nil.
	MSExtensions         *bool
	Header               *bool
	SilenceMacroWarnings bool
	MaxDiagnostics       int
	ASTFormat            ast.Format
	EnableTimings        bool
}

// Input names the main file and its unit document.
type Input struct {
	// Path of the main file. Empty means the path recorded in the unit.
	Path    string
	ASTPath string
}

// Result is the outcome of one translation unit.
type Result struct {
	Path    string
	FileSet *source.FileSet
	File    *source.File
	Unit    *ast.Unit
	Session *objc.Session
	Bag     *diag.Bag
	Output  string
	// Stale counts edits dropped as unrewritable.
	Stale  int
	Timing *observ.Report
	Cached bool

	repeats int
}

// RewriteFile loads in and rewrites it. Load failures are reported into
// the result bag and returned.
func RewriteFile(ctx context.Context, in Input, opts Options) (*Result, error) {
	return rewriteInput(ctx, in, opts, nil)
}

// RewriteCached is RewriteFile behind an output cache. A nil cache
// disables it.
func RewriteCached(ctx context.Context, in Input, opts Options, cache *Cache) (*Result, error) {
	return rewriteInput(ctx, in, opts, cache)
}

func rewriteInput(ctx context.Context, in Input, opts Options, cache *Cache) (*Result, error) {
	res := &Result{Path: in.Path, FileSet: source.NewFileSet(), Bag: diag.NewBag(maxDiagnostics(opts))}
	timer := newPhaseTimer(opts.EnableTimings)
	defer func() { res.Timing = timer.report() }()

	idx := timer.begin("load")
	doc, err := os.ReadFile(in.ASTPath)
	if err != nil {
		timer.end(idx, "")
		return res, res.fail(diag.IOReadFailed, fmt.Errorf("read unit: %w", err))
	}
	var src []byte
	if in.Path != "" {
		// исходник может быть встроен в документ, ошибку чтения проверим позже
		src, _ = os.ReadFile(in.Path)
	}

	useCache := cache != nil && src != nil
	var key Digest
	if useCache {
		key = CacheKey(src, doc, in.Path, opts)
		if e, ok := cache.Get(key); ok {
			timer.end(idx, "cached")
			res.restore(e, in.Path, src)
			return res, nil
		}
	}

	unit, err := decodeUnit(doc, in.ASTPath, opts.ASTFormat)
	if err != nil {
		timer.end(idx, "")
		return res, res.fail(diag.UnitDecodeFailed, err)
	}
	file, err := registerSource(res.FileSet, in.Path, src, unit)
	timer.end(idx, "")
	if err != nil {
		return res, res.fail(diag.IOReadFailed, err)
	}
	res.Path = file.Path
	if err := rewriteUnit(ctx, res, file, unit, opts, timer); err != nil {
		return res, err
	}
	if useCache {
		entry := &CacheEntry{Output: res.Output, Diagnostics: res.Bag.Items(), Stale: res.Stale}
		if _, err := cache.Put(key, entry); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache_put", err.Error(), 0)
		}
	}
	return res, nil
}

func (r *Result) fail(code diag.Code, err error) error {
	r.Bag.Add(diag.NewError(code, source.Span{}, err.Error()))
	return err
}

// restore fills r from a cache entry.
func (r *Result) restore(e *CacheEntry, path string, src []byte) {
	id := r.FileSet.Add(path, src, source.FlagsFor(path, src))
	r.File = r.FileSet.Get(id)
	r.Path = r.File.Path
	for _, d := range e.Diagnostics {
		r.Bag.Add(d)
	}
	r.Output = e.Output
	r.Stale = e.Stale
	r.Cached = true
}

func decodeUnit(doc []byte, path string, f ast.Format) (*ast.Unit, error) {
	if f == ast.FormatAuto {
		f = ast.FormatFromPath(path)
	}
	u, err := ast.Decode(bytes.NewReader(doc), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// registerSource adds the main file: inline source wins over disk.
func registerSource(fs *source.FileSet, path string, src []byte, unit *ast.Unit) (*source.File, error) {
	if path == "" {
		path = unit.Path
	}
	switch {
	case unit.Source != nil:
		return fs.Get(fs.AddVirtual(path, unit.Source)), nil
	case src != nil:
		return fs.Get(fs.Add(path, src, source.FlagsFor(path, src))), nil
	}
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return fs.Get(id), nil
}

// RewriteUnit rewrites an already loaded unit whose main file is registered
// in fs.
func RewriteUnit(ctx context.Context, fs *source.FileSet, file *source.File, unit *ast.Unit, opts Options) (*Result, error) {
	res := &Result{Path: file.Path, FileSet: fs, Bag: diag.NewBag(maxDiagnostics(opts))}
	timer := newPhaseTimer(opts.EnableTimings)
	err := rewriteUnit(ctx, res, file, unit, opts, timer)
	res.Timing = timer.report()
	return res, err
}

func maxDiagnostics(opts Options) int {
	if opts.MaxDiagnostics <= 0 {
		return 100
	}
	return opts.MaxDiagnostics
}

// SessionOptions derives the unit-wide options from opts, the unit and the
// file name.
func SessionOptions(path string, unit *ast.Unit, opts Options) objc.Options {
	so := objc.Options{
		FileName:              path,
		MSExtensions:          true,
		Header:                source.IsHeaderPath(path),
		StructReturnThreshold: opts.StructReturnThreshold,
		PointerSize:           opts.PointerSize,
	}
	if unit != nil && unit.Lang.MSExtensions != nil {
		so.MSExtensions = *unit.Lang.MSExtensions
	}
	if unit != nil && unit.Lang.Header != nil {
		so.Header = *unit.Lang.Header
	}
	if opts.MSExtensions != nil {
		so.MSExtensions = *opts.MSExtensions
	}
	if opts.Header != nil {
		so.Header = *opts.Header
	}
	return so
}

func rewriteUnit(ctx context.Context, res *Result, file *source.File, unit *ast.Unit, opts Options, timer *phaseTimer) (err error) {
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "rewrite_unit", trace.CurrentSpan(ctx).SpanID).WithExtra("path", file.Path)
	defer func() { root.End(res.summary()) }()

	res.File, res.Unit = file, unit
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fmt.Errorf("%s: %w", file.Path, err)
	}
	if err := unit.Validate(size); err != nil {
		res.Bag.Add(diag.NewError(diag.UnitMalformed, source.Span{File: file.ID}, err.Error()))
		return fmt.Errorf("%s: %w", file.Path, err)
	}
	unit.Bind(file.ID)
	res.FileSet.SetMacros(file.ID, unit.Macros)

	if unit.PriorErrors > 0 {
		msg := fmt.Sprintf("%d error(s) reported by the front end, nothing written", unit.PriorErrors)
		res.Bag.Add(diag.New(diag.SevInfo, diag.PriorErrors, source.Span{File: file.ID}, msg))
		return ErrPriorErrors
	}

	so := SessionOptions(file.Path, unit, opts)
	target := layout.Default64().WithPointerSize(so.PointerSize)
	if opts.StructReturnThreshold > 0 {
		target.StructReturnThreshold = opts.StructReturnThreshold
	}
	sess := objc.NewSession(unit, so)
	res.Session = sess

	dedup := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	defer func() { res.repeats = dedup.Suppressed() }()
	rw := rewrite.New(sess, file, layout.New(target, unit), dedup, rewrite.Options{
		SilenceMacroWarnings: opts.SilenceMacroWarnings,
	})
	rw.Tracer = tracer
	rw.Parent = root.ID()

	// открытый проход закрывается и при панике
	openPhase, openSpan := -1, (*trace.Span)(nil)

	// нарушение инварианта прерывает всю единицу: ни текста, ни метаданных
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		ie, ok := rewrite.AsInvariant(v)
		if !ok {
			panic(v)
		}
		timer.end(openPhase, "aborted")
		openSpan.End("aborted")
		res.Output = ""
		res.Bag.Add(diag.NewError(diag.InternalInvariant, source.Span{File: file.ID}, ie.Error()))
		err = fmt.Errorf("%s: %w", file.Path, ie)
	}()

	pass := func(name string, fn func()) {
		openSpan = trace.Begin(tracer, trace.ScopePass, name, root.ID())
		openPhase = timer.begin(name)
		fn()
		timer.end(openPhase, "")
		openSpan.End("")
		openPhase, openSpan = -1, nil
	}
	pass("includes", rw.Includes)
	pass("walk", rw.Walk)
	pass("interfaces", rw.Interfaces)
	pass("implementations", rw.Implementations)
	var out rewrite.Result
	pass("flush", func() { out = rw.Finish() })

	var sb strings.Builder
	sb.Grow(len(out.Body) + len(out.Metadata) + 8192)
	sb.WriteString(Preamble(PreambleOptions{Header: so.Header, MSExtensions: so.MSExtensions}))
	sb.WriteString(out.Preamble)
	sb.WriteString(out.Body)
	sb.WriteString(out.Metadata)
	res.Output = sb.String()
	res.Stale = rw.Stale()
	return nil
}

func (r *Result) summary() string {
	if r.Bag == nil {
		return ""
	}
	return fmt.Sprintf("diags=%d stale=%d repeats=%d", r.Bag.Len(), r.Stale, r.repeats)
}

// WriteOutput writes the rewritten text to path ("-" is stdout) through a
// temp file in the target directory.
func WriteOutput(path, text string) error {
	if path == "-" || path == "" {
		_, err := os.Stdout.WriteString(text)
		return err
	}
	return writeAtomic(path, []byte(text))
}
