package rewrite

import (
	"strings"

	"objrw/internal/ast"
	"objrw/internal/objc"
	"objrw/internal/synth"
	"objrw/internal/trace"
)

// funcState is the rewrite state of one function, method or global
// initializer: the place hoisted text goes and the constructs open around
// the statement being walked.
type funcState struct {
	name   string
	start  uint32
	global bool
	blocks []*synth.Block
	loops  []loop
	ctx    *blockCtx
}

// loop is an entry of the break/continue target stack. Switches count as
// targets too: a break inside them leaves the switch, not the loop.
type loop struct {
	kind  ast.StmtKind
	label int
}

// blockCtx is an open block literal.
type blockCtx struct {
	outer    *blockCtx
	declared map[ast.DeclID]bool
}

func (fs *funcState) innermostLoop() (loop, bool) {
	if len(fs.loops) == 0 {
		return loop{}, false
	}
	return fs.loops[len(fs.loops)-1], true
}

// withFunc walks a body under fs and then hoists its block literals in
// front of the function.
func (r *Rewriter) withFunc(fs *funcState, walk func()) {
	prev := r.fn
	r.fn = fs
	defer func() { r.fn = prev }()
	walk()
	r.hoist(fs)
}

func (r *Rewriter) hoist(fs *funcState) {
	if len(fs.blocks) == 0 {
		return
	}
	var sb strings.Builder
	for _, b := range fs.blocks {
		sb.WriteString(r.Synth.Hoisted(b))
		r.Sess.AddBlock(objc.BlockRecord{
			Func:    b.Func,
			Index:   b.Index,
			Impl:    b.Tag(),
			ByCopy:  r.names(b.ByCopy),
			ByRef:   r.names(b.ByRef),
			Helpers: len(b.Imported) > 0,
			Global:  b.Global,
		})
	}
	r.insert(fs.start, sb.String())
}

func (r *Rewriter) names(ids []ast.DeclID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.decl(id, "names").Name)
	}
	return out
}

// stmt rewrites a statement after its children.
func (r *Rewriter) stmt(id ast.StmtID) {
	s := r.Unit.Stmt(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtWhile, ast.StmtDo, ast.StmtFor, ast.StmtSwitch:
		r.fn.loops = append(r.fn.loops, loop{kind: s.Kind})
		defer r.popLoop()
	case ast.StmtForIn:
		r.fn.loops = append(r.fn.loops, loop{kind: s.Kind, label: r.Sess.NextLabel()})
		defer r.popLoop()
	}

	switch s.Kind {
	case ast.StmtDecl:
		r.declStmt(s)
		return
	case ast.StmtForIn:
		// the element declaration is not walked
		r.expr(s.Expr)
		r.stmt(s.Body)
		r.forIn(s)
		return
	}
	r.Unit.StmtChildren(id, r.stmt, r.expr, nil)

	switch s.Kind {
	case ast.StmtTry:
		r.try(s)
	case ast.StmtSynchronized:
		r.synchronized(s)
	case ast.StmtThrow:
		r.throw(s)
	case ast.StmtAutoreleasePool:
		r.autoreleasePool(s)
	case ast.StmtBreak, ast.StmtContinue:
		r.breakContinue(s)
	case ast.StmtCompound, ast.StmtExpr, ast.StmtIf, ast.StmtWhile, ast.StmtDo, ast.StmtFor,
		ast.StmtSwitch, ast.StmtCase, ast.StmtDefault, ast.StmtReturn, ast.StmtGoto, ast.StmtLabel,
		ast.StmtCatch, ast.StmtFinally, ast.StmtNull:
	}
}

func (r *Rewriter) popLoop() {
	r.fn.loops = r.fn.loops[:len(r.fn.loops)-1]
}

// expr rewrites an expression after its sub-expressions, so synthesized text
// sees the rewritten text of the operands.
func (r *Rewriter) expr(id ast.ExprID) {
	e := r.Unit.Expr(id)
	if e == nil || r.exprDone(id) {
		return
	}
	if e.Kind == ast.ExprBlock {
		r.blockLiteral(id, e)
		return
	}
	r.Unit.ExprChildren(id, r.expr, nil)

	switch e.Kind {
	case ast.ExprMessage:
		r.node(id, e, r.Synth.Message)
	case ast.ExprPropertyRef:
		if e.IsSetter() {
			r.node(id, e, r.Synth.PropertySet)
		} else {
			r.node(id, e, r.Synth.PropertyGet)
		}
	case ast.ExprIvarRef:
		r.node(id, e, r.Synth.IvarRef)
	case ast.ExprObjCString:
		r.node(id, e, r.Synth.String)
	case ast.ExprSelector:
		r.node(id, e, r.Synth.Selector)
	case ast.ExprProtocol:
		r.node(id, e, r.Synth.Protocol)
	case ast.ExprEncode:
		r.node(id, e, r.Synth.Encode)
	case ast.ExprCall:
		if r.isBlockCall(e) {
			r.node(id, e, r.Synth.BlockCall)
		}
	case ast.ExprDeclRef:
		r.declRef(id, e)
	case ast.ExprCast:
		r.cast(e)
	case ast.ExprIntLit, ast.ExprFloatLit, ast.ExprCharLit, ast.ExprStringLit, ast.ExprBlock,
		ast.ExprParen, ast.ExprUnary, ast.ExprBinary, ast.ExprConditional, ast.ExprMember,
		ast.ExprSubscript, ast.ExprSizeof, ast.ExprInitList:
	}
}

// node replaces one construct with synthesized text under a node span.
func (r *Rewriter) node(id ast.ExprID, e *ast.Expr, fn func(ast.ExprID) string) {
	sp := trace.Begin(r.Tracer, trace.ScopeNode, e.Kind.String(), r.Parent)
	r.replaceExpr(id, fn(id))
	sp.End("")
}

func (r *Rewriter) isBlockCall(e *ast.Expr) bool {
	callee := r.Unit.Expr(e.Callee)
	if callee == nil {
		return false
	}
	t := callee.Type
	if callee.Conv.IsValid() {
		t = callee.Conv
	}
	return r.Unit.IsBlockPointer(t)
}

func (r *Rewriter) declRef(id ast.ExprID, e *ast.Expr) {
	d := r.Unit.Decl(e.Decl)
	if d == nil || r.fn == nil {
		return
	}
	inBlock := r.fn.ctx != nil && !r.fn.ctx.declared[e.Decl]
	switch {
	case d.ByRef && d.Kind == ast.DeclVar:
		r.replaceExpr(id, r.Synth.ByrefRef(e.Decl, inBlock))
	case inBlock && d.IsLocalStaticOrExtern():
		r.replaceExpr(id, r.Synth.LocalExternRef(e.Decl))
	}
}

// cast comments out protocol qualifiers and turns carets into stars inside
// the type name of an explicit cast.
func (r *Rewriter) cast(e *ast.Expr) {
	if e.TypeSpan.Empty() {
		return
	}
	r.declarator(e.Arg, e.TypeSpan, true)
}
