package rewrite

import (
	"objrw/internal/ast"
	"objrw/internal/lexer"
	"objrw/internal/objc"
	"objrw/internal/source"
	"objrw/internal/trace"
)

// Walk rewrites the top-level declarations in source order. Interfaces are
// only collected here; their structs are written by Interfaces.
func (r *Rewriter) Walk() {
	for _, id := range r.Unit.TopLevel {
		d := r.decl(id, "walk")
		sp := trace.Begin(r.Tracer, trace.ScopeDecl, d.Kind.String(), r.Parent)
		if d.Name != "" {
			sp.WithExtra("name", d.Name)
		}
		prev := r.Parent
		r.Parent = sp.ID()
		r.topLevel(id, d)
		r.Parent = prev
		sp.End("")
	}
}

func (r *Rewriter) topLevel(id ast.DeclID, d *ast.Decl) {
	if d.Imported {
		if d.Kind == ast.DeclInterface {
			r.Sess.SeeInterface(id)
		}
		return
	}
	switch d.Kind {
	case ast.DeclInterface:
		r.Sess.SeeInterface(id)
	case ast.DeclForwardClass:
		r.forwardClass(d)
	case ast.DeclForwardProtocol:
		r.insert(d.Span.Start, "// ")
	case ast.DeclProtocol:
		r.protocol(d)
	case ast.DeclCategory:
		r.category(d)
	case ast.DeclImplementation:
		r.Sess.AddClassImpl(id)
		r.methodBodies(d)
	case ast.DeclCategoryImpl:
		r.Sess.AddCategoryImpl(id)
		r.methodBodies(d)
	case ast.DeclFunction:
		r.function(d)
	case ast.DeclVar:
		r.globalVar(d)
	case ast.DeclTypedef:
		r.typedef(d)
	case ast.DeclRecord:
		r.record(d)
	case ast.DeclMethod, ast.DeclProperty, ast.DeclPropertyImpl, ast.DeclIvar, ast.DeclParam, ast.DeclField:
		objc.Invariant("walk", "%s declaration at file scope", d.Kind)
	}
}

// --- declarators ---

// declaratorSpan covers the type and declarator of d, up to the initializer
// or the function body.
func (r *Rewriter) declaratorSpan(d *ast.Decl) source.Span {
	sp := d.Span
	if !d.TypeSpan.Empty() {
		sp.Start = d.TypeSpan.Start
	}
	switch {
	case d.Init.IsValid():
		if init := r.Unit.Expr(d.Init); init != nil {
			sp.End = init.Span.Start
		}
	case d.Body.IsValid():
		if body := r.Unit.Stmt(d.Body); body != nil {
			sp.End = body.Span.Start
		}
	}
	if sp.End < sp.Start {
		sp.End = sp.Start
	}
	return sp
}

// declarator rewrites the spelling of type t inside sp: protocol qualifiers
// are commented out and block carets become pointer stars.
func (r *Rewriter) declarator(t ast.TypeID, sp source.Span, qualifiers bool) {
	if sp.Empty() {
		return
	}
	if qualifiers && r.Unit.NeedsQualifierScan(t) {
		r.commentQualifiers(sp)
	}
	if r.Unit.ContainsBlockPointer(t) {
		r.carets(sp)
	}
}

func (r *Rewriter) commentQualifiers(sp source.Span) {
	for _, q := range lexer.ProtocolQualifiers(r.File, sp) {
		if !r.once(q.Start) {
			continue
		}
		r.insert(q.Start, "/*")
		r.insert(q.End, "*/")
	}
}

func (r *Rewriter) carets(sp source.Span) {
	for _, c := range lexer.Carets(r.File, sp) {
		if r.once(c.Start) {
			r.replaceSpan(c, "*")
		}
	}
}

// --- local declarations ---

// declStmt rewrites the declarators of a declaration statement and walks the
// initializers. Protocol qualifiers are scanned once, on the shared type of
// the first declarator.
func (r *Rewriter) declStmt(s *ast.Stmt) {
	for i, id := range s.Decls {
		d := r.decl(id, "declStmt")
		switch d.Kind {
		case ast.DeclVar:
			sp := r.declaratorSpan(d)
			if i == 0 && r.Unit.NeedsQualifierScan(d.Type) {
				r.commentQualifiers(sp)
			}
			if d.ByRef {
				r.byrefVar(id, d, i == len(s.Decls)-1)
			} else if r.Unit.ContainsBlockPointer(d.Type) {
				r.carets(sp)
			}
			if d.Init.IsValid() {
				r.expr(d.Init)
			}
		case ast.DeclTypedef:
			r.typedef(d)
		case ast.DeclRecord:
			r.record(d)
		default:
		}
	}
}

// byrefVar turns a __block variable into its byref struct. The struct type
// and the shared helpers are defined in front of the enclosing function.
func (r *Rewriter) byrefVar(id ast.DeclID, d *ast.Decl, last bool) {
	r.Sess.AssignByref(id)
	if r.fn != nil {
		r.insert(r.fn.start, r.Synth.ByrefStruct(id))
		if r.Synth.ByrefNeedsCopy(id) {
			if flag := r.Synth.ByrefFlag(id); r.Sess.NeedByrefHelpers(flag) {
				r.insert(r.fn.start, r.Synth.ByrefHelpers(flag))
			}
		}
	}

	start := d.Span.Start
	if !d.TypeSpan.Empty() {
		start = d.TypeSpan.Start
	}
	if !d.Init.IsValid() {
		end := max(d.Span.End, d.TypeSpan.End)
		r.replaceSpan(r.span(start, end), r.Synth.ByrefDecl(id, false))
		return
	}
	init := r.Unit.Expr(d.Init)
	if init == nil {
		objc.Invariant("byref", "variable %s has a missing initializer", d.Name)
	}
	r.replaceSpan(r.span(start, init.Span.Start), r.Synth.ByrefDecl(id, true))
	if last {
		r.insert(r.semicolonAfter(init.Span.End, "byref"), "}")
	} else {
		r.insert(init.Span.End, "};\n")
	}
}

// --- file-scope declarations ---

func (r *Rewriter) function(d *ast.Decl) {
	r.declarator(d.Type, r.declaratorSpan(d), true)
	if !d.Body.IsValid() {
		return
	}
	r.withFunc(&funcState{name: d.Name, start: d.Span.Start}, func() {
		r.stmt(d.Body)
	})
}

// globalVar rewrites a file-scope variable. Block literals of its
// initializer are hoisted in front of the declaration.
func (r *Rewriter) globalVar(d *ast.Decl) {
	r.declarator(d.Type, r.declaratorSpan(d), true)
	if rec := r.inlineRecord(d); rec != nil {
		r.record(rec)
	}
	if !d.Init.IsValid() {
		return
	}
	r.withFunc(&funcState{name: d.Name, start: d.Span.Start, global: true}, func() {
		r.expr(d.Init)
	})
}

// inlineRecord returns the struct or union defined inside the declaration of
// d, as in "struct S { ... } s;".
func (r *Rewriter) inlineRecord(d *ast.Decl) *ast.Decl {
	t := r.Unit.Type(r.Unit.Canonical(d.Type))
	if t == nil || t.Kind != ast.TypeRecord || !t.Decl.IsValid() {
		return nil
	}
	rec := r.Unit.Decl(t.Decl)
	if rec == nil || rec.Imported || len(rec.Fields) == 0 || !d.Span.Contains(rec.Span) {
		return nil
	}
	return rec
}

func (r *Rewriter) typedef(d *ast.Decl) {
	if d.Imported {
		return
	}
	r.declarator(r.Unit.Canonical(d.Type), r.declaratorSpan(d), false)
}

// record rewrites block pointer and qualified fields of a struct or union.
func (r *Rewriter) record(d *ast.Decl) {
	if d.Imported {
		return
	}
	for _, f := range d.Fields {
		fd := r.decl(f, "record")
		r.declarator(fd.Type, r.declaratorSpan(fd), true)
		if fd.Record.IsValid() {
			r.record(r.decl(fd.Record, "record"))
		}
	}
}
