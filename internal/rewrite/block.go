package rewrite

import (
	"objrw/internal/ast"
	"objrw/internal/objc"
	"objrw/internal/synth"
	"objrw/internal/trace"
)

// blockLiteral rewrites the body of a block literal, records it for
// hoisting and replaces the literal with the construction of its impl
// struct.
func (r *Rewriter) blockLiteral(id ast.ExprID, e *ast.Expr) {
	fs := r.fn
	if fs == nil {
		objc.Invariant("block", "block literal %d outside a function", id)
	}
	sp := trace.Begin(r.Tracer, trace.ScopeNode, "block", r.Parent)
	defer sp.End("")

	ctx := &blockCtx{outer: fs.ctx, declared: make(map[ast.DeclID]bool)}
	byCopy, byRef := r.captures(id, ctx)

	// break and continue never cross a block boundary
	loops := fs.loops
	fs.ctx, fs.loops = ctx, nil
	r.stmt(e.Body)
	fs.ctx, fs.loops = ctx.outer, loops

	b := &synth.Block{
		Func:   fs.name,
		Index:  len(fs.blocks),
		Expr:   id,
		ByCopy: byCopy,
		ByRef:  byRef,
		Global: fs.global,
	}
	for _, v := range append(append([]ast.DeclID(nil), byCopy...), byRef...) {
		if r.imported(v) {
			b.Imported = append(b.Imported, v)
		}
	}
	for _, v := range byRef {
		if ctx.outer != nil && !ctx.outer.declared[v] {
			if b.Nested == nil {
				b.Nested = make(map[ast.DeclID]bool)
			}
			b.Nested[v] = true
		}
	}
	if body := r.Unit.Stmt(e.Body); body != nil {
		b.Body = r.Buf.Render(body.Span)
	}
	fs.blocks = append(fs.blocks, b)
	r.replaceExpr(id, r.Synth.BlockInit(b))
}

// captures collects the local variables a block literal refers to but does
// not declare, nested literals included, in order of first reference.
// Declarations inside the literal are recorded in ctx.
func (r *Rewriter) captures(id ast.ExprID, ctx *blockCtx) (byCopy, byRef []ast.DeclID) {
	var refs []ast.DeclID
	seen := make(map[ast.DeclID]bool)
	r.Unit.InspectExpr(id, nil, func(x ast.ExprID) bool {
		e := r.Unit.Expr(x)
		if e == nil || e.Kind != ast.ExprDeclRef || seen[e.Decl] {
			return true
		}
		if d := r.Unit.Decl(e.Decl); d != nil && d.Local && (d.Kind == ast.DeclVar || d.Kind == ast.DeclParam) {
			seen[e.Decl] = true
			refs = append(refs, e.Decl)
		}
		return true
	}, func(d ast.DeclID) {
		ctx.declared[d] = true
	})
	for _, v := range refs {
		if ctx.declared[v] {
			continue
		}
		if r.decl(v, "captures").ByRef {
			byRef = append(byRef, v)
		} else {
			byCopy = append(byCopy, v)
		}
	}
	return byCopy, byRef
}

// imported reports a capture the block copy/dispose helpers must retain:
// __block variables, objects and blocks.
func (r *Rewriter) imported(v ast.DeclID) bool {
	d := r.decl(v, "imported")
	if d.ByRef {
		return true
	}
	if d.IsLocalStaticOrExtern() {
		return false
	}
	return r.Unit.IsObjCObjectPointer(d.Type) || r.Unit.IsBlockPointer(d.Type)
}
