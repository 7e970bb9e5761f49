package rewrite

import (
	"objrw/internal/ast"
	"objrw/internal/diag"
	"objrw/internal/editbuf"
	"objrw/internal/emit"
	"objrw/internal/layout"
	"objrw/internal/lexer"
	"objrw/internal/objc"
	"objrw/internal/source"
	"objrw/internal/synth"
	"objrw/internal/trace"
)

// Node spaces of editbuf.NodeKey.
const (
	spaceExpr uint8 = 1
	spaceStmt uint8 = 2
)

// Options tune diagnostics of a rewrite.
type Options struct {
	// SilenceMacroWarnings drops W2001 for edits that touch macro expansions
	// or text another edit already claimed.
	SilenceMacroWarnings bool
}

// Rewriter holds the state of one translation unit rewrite.
type Rewriter struct {
	Sess     *objc.Session
	Unit     *ast.Unit
	File     *source.File
	Buf      *editbuf.Buffer
	Synth    *synth.Synth
	Emit     *emit.Emitter
	Reporter diag.Reporter
	Tracer   trace.Tracer
	Opts     Options

	// Parent is the trace span declaration spans nest under.
	Parent uint64

	fn     *funcState
	edited map[uint32]bool
	stale  int
}

// Result is the text a finished rewrite contributes to the output file.
type Result struct {
	// Preamble holds unit-specific definitions: constant strings and the
	// records of protocols named by @protocol expressions.
	Preamble string
	// Body is the rewritten main file.
	Body string
	// Metadata is appended after the body when the unit defines classes,
	// categories or references protocols.
	Metadata string
}

// New binds a rewriter to the session of a unit loaded as file.
func New(sess *objc.Session, file *source.File, engine *layout.LayoutEngine, reporter diag.Reporter, opts Options) *Rewriter {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	r := &Rewriter{
		Sess:     sess,
		Unit:     sess.Unit,
		File:     file,
		Buf:      editbuf.New(file),
		Emit:     emit.New(sess, engine),
		Reporter: reporter,
		Tracer:   trace.Nop,
		Opts:     opts,
		edited:   make(map[uint32]bool),
	}
	r.Synth = synth.New(sess, engine, r.text)
	return r
}

// text is the current text of an expression, nested edits applied.
func (r *Rewriter) text(id ast.ExprID) string {
	e := r.Unit.Expr(id)
	if e == nil {
		objc.Invariant("text", "missing expression %d", id)
	}
	return r.Buf.Render(e.Span)
}

// Stale is the number of edits dropped so far.
func (r *Rewriter) Stale() int { return r.stale }

// Run executes every pass in order. The driver calls the passes one by one
// to time them; tests and embedders use Run.
func (r *Rewriter) Run() Result {
	r.Includes()
	r.Walk()
	r.Interfaces()
	r.Implementations()
	return r.Finish()
}

// Finish collects the output. The protocol records are produced before the
// class metadata so that records already emitted are not repeated there.
func (r *Rewriter) Finish() Result {
	protos := r.Emit.ProtocolExprs()
	res := Result{
		Preamble: r.Sess.PreambleExtra() + protos,
		Body:     r.Buf.String(),
	}
	if r.Sess.HasImplementations() || len(r.Sess.ProtocolExprs()) > 0 {
		res.Metadata = r.Emit.Metadata()
	}
	return res
}

// --- edit helpers ---

func (r *Rewriter) span(start, end uint32) source.Span {
	return source.Span{File: r.File.ID, Start: start, End: end}
}

func (r *Rewriter) insert(off uint32, text string) bool {
	return r.check(r.Buf.InsertAfterText(off, text), source.At(r.File.ID, off))
}

func (r *Rewriter) replace(off, n uint32, text string) bool {
	return r.check(r.Buf.ReplaceRange(off, n, text), r.span(off, off+n))
}

func (r *Rewriter) replaceSpan(sp source.Span, text string) bool {
	return r.check(r.Buf.Replace(sp, text), sp)
}

// replaceExpr replaces an expression node at most once.
func (r *Rewriter) replaceExpr(id ast.ExprID, text string) {
	e := r.Unit.Expr(id)
	_, err := r.Buf.ReplaceNode(editbuf.NodeKey{Space: spaceExpr, ID: uint32(id)}, e.Span, text)
	r.check(err, e.Span)
}

func (r *Rewriter) exprDone(id ast.ExprID) bool {
	return r.Buf.NodeReplaced(editbuf.NodeKey{Space: spaceExpr, ID: uint32(id)})
}

// once reports whether off is seen for the first time by the qualifier and
// caret scans, which can reach one declarator through several paths.
func (r *Rewriter) once(off uint32) bool {
	if r.edited[off] {
		return false
	}
	r.edited[off] = true
	return true
}

func (r *Rewriter) decl(id ast.DeclID, op string) *ast.Decl {
	d := r.Unit.Decl(id)
	if d == nil {
		objc.Invariant(op, "missing declaration %d", id)
	}
	return d
}

func (r *Rewriter) stmtOf(id ast.StmtID, op string) *ast.Stmt {
	s := r.Unit.Stmt(id)
	if s == nil {
		objc.Invariant(op, "missing statement %d", id)
	}
	return s
}

func (r *Rewriter) semicolonAfter(off uint32, op string) uint32 {
	semi, ok := lexer.SemicolonAfter(r.File, off)
	if !ok {
		objc.Invariant(op, "no ';' after offset %d", off)
	}
	return semi
}
