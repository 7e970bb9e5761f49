package rewrite

import (
	"strings"

	"objrw/internal/ast"
	"objrw/internal/emit"
	"objrw/internal/lexer"
	"objrw/internal/objc"
	"objrw/internal/token"
	"objrw/internal/trace"
)

// Includes turns every #import of the main file into #include.
func (r *Rewriter) Includes() {
	spans := r.Unit.Includes
	if len(spans) == 0 {
		spans = lexer.ImportDirectives(r.File)
	}
	for _, sp := range spans {
		r.replaceSpan(sp, "include")
	}
}

// Interfaces replaces every @interface seen during Walk by its C struct.
func (r *Rewriter) Interfaces() {
	for _, id := range r.Sess.Interfaces() {
		r.interfaceDecl(id)
	}
}

// interfaceDecl writes the struct of a class after the structs of its super
// classes. Interfaces from headers produce no text but still count as
// synthesized, so subclasses embed their struct.
func (r *Rewriter) interfaceDecl(id ast.DeclID) {
	if r.Sess.IsSynthesized(id) {
		return
	}
	d := r.decl(id, "@interface")
	if d.Super.IsValid() && d.Super != id {
		r.interfaceDecl(d.Super)
	}
	if !r.Sess.MarkWritten(id) {
		return
	}
	if d.Imported {
		if r.Emit.NeedsStruct(id) {
			r.Emit.InternalStruct(id)
		}
		return
	}
	sp := trace.Begin(r.Tracer, trace.ScopeDecl, "@interface", r.Parent).WithExtra("name", d.Name)
	defer sp.End("")

	r.replaceSpan(r.span(d.Span.Start, r.headerEnd(d)), r.Emit.ClassSection(id))
	for _, p := range d.Props {
		r.property(p)
	}
	r.methodDecls(d.Methods)
	r.endDirective(d)
}

// headerEnd is the end of "@interface Name : Super <P> { ivars }", the part
// the class struct replaces.
func (r *Rewriter) headerEnd(d *ast.Decl) uint32 {
	if !d.IvarBlock.Empty() {
		return d.IvarBlock.End
	}
	limit := d.Span.End
	if !d.AtEnd.Empty() {
		limit = d.AtEnd.Start
	}
	toks := lexer.Tokenize(r.File, r.span(d.Span.Start, limit))
	if len(toks) < 2 || !toks[0].IsAt("interface") || !toks[1].IsIdent() {
		objc.Invariant("@interface", "malformed header of %s", d.Name)
	}
	end, i := toks[1].Span.End, 2
	if i+1 < len(toks) && toks[i].Kind == token.Colon && toks[i+1].IsIdent() {
		end, i = toks[i+1].Span.End, i+2
	}
	if i < len(toks) && toks[i].Kind == token.Lt {
		for j := i + 1; j < len(toks); j++ {
			if toks[j].Kind == token.Gt {
				end = toks[j].Span.End
				break
			}
		}
	}
	return end
}

// methodDecls comments out method declarations of an interface, category or
// protocol. Declarations spanning several lines go into "#if 0".
func (r *Rewriter) methodDecls(methods []ast.DeclID) {
	for _, m := range methods {
		md := r.decl(m, "method")
		if md.Implicit || md.Imported {
			continue
		}
		start := md.Span.Start
		semi := r.semicolonAfter(start, "method")
		if r.File.LineOf(semi) > r.File.LineOf(start) {
			r.insert(start, "#if 0\n")
			r.replace(semi, 1, ";\n#endif\n")
			continue
		}
		r.insert(start, "// ")
	}
}

func (r *Rewriter) property(id ast.DeclID) {
	p := r.decl(id, "@property")
	if p.Imported {
		return
	}
	r.insert(p.Span.Start, "// ")
}

func (r *Rewriter) endDirective(d *ast.Decl) {
	if d.AtEnd.Empty() {
		objc.Invariant("@end", "%s %s has no @end", d.Kind, d.Name)
	}
	r.replaceSpan(d.AtEnd, "/* @end */")
}

// ivarBlock comments out the braces and the ivars of a category or an
// implementation; the class struct already holds them.
func (r *Rewriter) ivarBlock(d *ast.Decl) {
	if d.IvarBlock.Empty() {
		return
	}
	r.insert(d.IvarBlock.Start, "// ")
	for _, iv := range d.Ivars {
		r.insert(r.decl(iv, "ivar").Span.Start, "// ")
	}
	r.insert(d.IvarBlock.End-1, "// ")
}

// forwardClass replaces "@class A, B;" by one typedef guard per name.
func (r *Rewriter) forwardClass(d *ast.Decl) {
	if len(d.Names) == 0 {
		objc.Invariant("@class", "forward declaration without names")
	}
	semi := r.semicolonAfter(d.Span.Start, "@class")
	var sb strings.Builder
	sb.WriteString("// @class " + d.Names[0] + ";\n")
	for _, name := range d.Names {
		sb.WriteString(emit.ClassTypedef(name))
	}
	r.replaceSpan(r.span(d.Span.Start, semi+1), sb.String())
}

func (r *Rewriter) category(d *ast.Decl) {
	r.insert(d.Span.Start, "// ")
	r.ivarBlock(d)
	for _, p := range d.Props {
		r.property(p)
	}
	r.methodDecls(d.Methods)
	r.endDirective(d)
}

func (r *Rewriter) protocol(d *ast.Decl) {
	r.insert(d.Span.Start, "// ")
	r.methodDecls(d.Methods)
	for _, p := range d.Props {
		r.property(p)
	}
	if !d.AtEnd.Empty() {
		body := r.span(d.Span.Start, d.AtEnd.Start)
		for _, sp := range lexer.AtKeywords(r.File, body, "optional") {
			r.replaceSpan(sp, "/* @optional */")
		}
		for _, sp := range lexer.AtKeywords(r.File, body, "required") {
			r.replaceSpan(sp, "/* @required */")
		}
	}
	r.endDirective(d)
}

// --- implementations ---

// methodBodies rewrites the bodies of the methods of an implementation in
// source order. Their headers are replaced later by Implementations.
func (r *Rewriter) methodBodies(impl *ast.Decl) {
	for _, m := range impl.Methods {
		md := r.decl(m, "method")
		if md.Implicit || !md.Body.IsValid() {
			continue
		}
		r.Synth.Method = m
		r.withFunc(&funcState{name: r.blockFuncName(md), start: md.Span.Start}, func() {
			r.stmt(md.Body)
		})
		r.Synth.Method = ast.NoDeclID
	}
}

// blockFuncName is the prefix of the symbols of blocks defined in a method:
// the class name and the selector with ':' turned into '_'.
func (r *Rewriter) blockFuncName(md *ast.Decl) string {
	iface := r.Unit.ClassOf(md.Container)
	return r.Unit.ClassName(iface) + "__" + strings.ReplaceAll(md.Selector, ":", "_")
}

// Implementations rewrites @implementation and category implementation
// headers, turns method headers into C functions and writes the accessors
// of synthesized properties.
func (r *Rewriter) Implementations() {
	for _, id := range r.Sess.ClassImpls() {
		r.implementation(id)
	}
	for _, id := range r.Sess.CategoryImpls() {
		r.implementation(id)
	}
}

func (r *Rewriter) implementation(id ast.DeclID) {
	d := r.decl(id, "@implementation")
	sp := trace.Begin(r.Tracer, trace.ScopeDecl, d.Kind.String(), r.Parent).WithExtra("name", r.Unit.ClassName(id))
	defer sp.End("")

	r.insert(d.Span.Start, "// ")
	if d.Kind == ast.DeclImplementation {
		r.ivarBlock(d)
	}
	inst, cls := splitMethods(r.Unit, d.Methods)
	for _, m := range append(inst, cls...) {
		md := r.decl(m, "method")
		if md.Implicit || !md.Body.IsValid() {
			continue
		}
		body := r.stmtOf(md.Body, "method")
		r.replaceSpan(r.span(md.Span.Start, body.Span.Start), r.Emit.MethodHeader(m))
	}
	for _, pi := range d.PropImpls {
		r.propertyImpl(d, pi)
	}
	if d.AtEnd.Empty() {
		objc.Invariant("@end", "%s has no @end", d.Name)
	}
	r.insert(d.AtEnd.Start, "// ")
}

// propertyImpl comments out @synthesize/@dynamic and appends the accessors
// the directive produces after its ';'. Several properties of one directive
// share the comment.
func (r *Rewriter) propertyImpl(impl *ast.Decl, id ast.DeclID) {
	pi := r.decl(id, "@synthesize")
	if r.once(pi.Span.Start) {
		r.insert(pi.Span.Start, "// ")
	}
	semi := r.semicolonAfter(pi.Span.Start, "@synthesize")
	if text := r.Emit.Accessors(impl, id); text != "" {
		r.insert(semi+1, text)
	}
}

func splitMethods(u *ast.Unit, methods []ast.DeclID) (inst, cls []ast.DeclID) {
	for _, m := range methods {
		md := u.Decl(m)
		if md == nil {
			continue
		}
		if md.Instance {
			inst = append(inst, m)
		} else {
			cls = append(cls, m)
		}
	}
	return inst, cls
}
