package rewrite

import (
	"strconv"
	"strings"

	"objrw/internal/ast"
	"objrw/internal/cgen"
	"objrw/internal/diag"
	"objrw/internal/editbuf"
	"objrw/internal/lexer"
	"objrw/internal/objc"
	"objrw/internal/token"
)

const countByEnum = "((unsigned int (*) (id, SEL, struct __objcFastEnumerationState *, id *, unsigned int))(void *)objc_msgSend)" +
	"\n\t\t" +
	"((id)l_collection,\n\t\t" +
	"sel_registerName(\"countByEnumeratingWithState:objects:count:\")," +
	"\n\t\t" +
	"&enumState, (id *)__rw_items, (unsigned int)16)"

const exceptionFrame = "{ struct _objc_exception_data {\n" +
	"int buf[18/*32-bit i386*/];\n" +
	"char *pointers[4];} _stack;\n" +
	"id volatile _rethrow = 0;\n" +
	"objc_exception_try_enter(&_stack);\n" +
	"if (!_setjmp(_stack.buf)) /* @try block continue */\n"

// --- fast enumeration ---

// forIn lowers "for (T x in coll) body" to the countByEnumeratingWithState
// protocol. break and continue inside the body jump to labels numbered by
// the loop.
func (r *Rewriter) forIn(s *ast.Stmt) {
	l, ok := r.fn.innermostLoop()
	if !ok || l.kind != ast.StmtForIn {
		objc.Invariant("for-in", "loop stack out of sync")
	}
	label := strconv.Itoa(l.label)

	var name, elemType string
	var buf strings.Builder
	buf.WriteString("\n{\n\t")
	if s.Elem.IsValid() {
		es := r.stmtOf(s.Elem, "for-in")
		if len(es.Decls) == 0 {
			objc.Invariant("for-in", "element statement declares nothing")
		}
		d := r.decl(es.Decls[0], "for-in")
		name, elemType = d.Name, r.elemType(d.Type)
		buf.WriteString(elemType + " " + name + ";\n\t")
	} else {
		x := r.Unit.Expr(s.ElemExpr)
		if x == nil {
			objc.Invariant("for-in", "loop has no element")
		}
		name = x.Name
		if d := r.Unit.Decl(x.Decl); d != nil {
			name = d.Name
		}
		elemType = r.elemType(x.Type)
	}
	buf.WriteString("struct __objcFastEnumerationState enumState = { 0 };\n\t")
	buf.WriteString("id __rw_items[16];\n\t")
	buf.WriteString("id l_collection = (id)")

	coll := r.Unit.Expr(s.Expr)
	if coll == nil {
		objc.Invariant("for-in", "loop has no collection")
	}
	in, ok := lexer.FindLast(r.File, r.span(s.Span.Start, coll.Span.Start), token.Ident)
	if !ok || !in.IsIdent("in") {
		objc.Invariant("for-in", "no 'in' before the collection")
	}
	r.replaceSpan(r.span(s.Span.Start, in.Span.End), buf.String())

	buf.Reset()
	buf.WriteString(";\n\t")
	buf.WriteString("unsigned long limit =\n\t\t")
	buf.WriteString(countByEnum)
	buf.WriteString(";\n\t")
	buf.WriteString("if (limit) {\n\t")
	buf.WriteString("unsigned long startMutations = *enumState.mutationsPtr;\n\t")
	buf.WriteString("do {\n\t\t")
	buf.WriteString("unsigned long counter = 0;\n\t\t")
	buf.WriteString("do {\n\t\t\t")
	buf.WriteString("if (startMutations != *enumState.mutationsPtr)\n\t\t\t\t")
	buf.WriteString("objc_enumerationMutation(l_collection);\n\t\t\t")
	buf.WriteString(name + " = (" + elemType + ")enumState.itemsPtr[counter++];")
	r.replaceSpan(s.RParen, buf.String())

	buf.Reset()
	buf.WriteString(";\n\t")
	buf.WriteString("__continue_label_" + label + ": ;")
	buf.WriteString("\n\t\t")
	buf.WriteString("} while (counter < limit);\n\t")
	buf.WriteString("} while (limit = " + countByEnum + ");\n\t")
	buf.WriteString(name + " = ((" + elemType + ")0);\n\t")
	buf.WriteString("__break_label_" + label + ": ;\n\t")
	buf.WriteString("}\n\t")
	buf.WriteString("else\n\t\t")
	buf.WriteString(name + " = ((" + elemType + ")0);\n\t")
	buf.WriteString("}\n")

	body := r.stmtOf(s.Body, "for-in")
	end := body.Span.End
	if body.Kind != ast.StmtCompound {
		end = r.semicolonAfter(body.Span.End, "for-in") + 1
	}
	r.insert(end, buf.String())
}

func (r *Rewriter) elemType(t ast.TypeID) string {
	if r.Unit.IsObjCQualifiedID(t) || r.Unit.IsObjCQualifiedInterface(t) {
		return "id"
	}
	return r.Synth.Types.Type(t, cgen.StyleC)
}

// breakContinue turns break/continue of a fast enumeration loop into jumps
// to its labels. Other loops keep them.
func (r *Rewriter) breakContinue(s *ast.Stmt) {
	l, ok := r.fn.innermostLoop()
	if !ok || l.kind != ast.StmtForIn {
		return
	}
	label := strconv.Itoa(l.label)
	if s.Kind == ast.StmtBreak {
		r.replace(s.Span.Start, uint32(len("break")), "goto __break_label_"+label)
		return
	}
	r.replace(s.Span.Start, uint32(len("continue")), "goto __continue_label_"+label)
}

// --- exceptions ---

// try lowers @try/@catch/@finally onto the setjmp based exception frame.
func (r *Rewriter) try(s *ast.Stmt) {
	if len(s.Catches) == 0 && !s.Finally.IsValid() {
		objc.Invariant("@try", "no @catch or @finally clause")
	}
	body := r.compound(s.Body, "@try")
	r.replace(s.Span.Start, uint32(len("@try")), "/* @try scope begin */ "+exceptionFrame)

	lastCurly := body.Span.End - 1
	if len(s.Catches) > 0 {
		r.insert(body.Span.End, " /* @catch begin */ else {\n"+
			" id _caught = objc_exception_extract(&_stack);\n"+
			" objc_exception_try_enter (&_stack);\n"+
			" if (_setjmp(_stack.buf))\n"+
			"   _rethrow = objc_exception_extract(&_stack);\n"+
			" else { /* @catch continue */")
	} else {
		r.replace(lastCurly, 1, "}\nelse {\n"+
			"  _rethrow = objc_exception_extract(&_stack);\n"+
			"}")
	}

	for i, id := range s.Catches {
		lastBody := r.catchClause(i, r.stmtOf(id, "@catch"))
		if i < len(s.Catches)-1 {
			continue
		}
		tail := "} /* last catch end */\n" +
			"else {\n" +
			" _rethrow = _caught;\n" +
			" objc_exception_try_exit(&_stack);\n" +
			"} } /* @catch end */\n"
		if !s.Finally.IsValid() {
			tail += "}\n"
		}
		r.insert(lastBody.Span.End-2, tail)
		lastCurly = lastBody.Span.End - 1
	}

	if s.Finally.IsValid() {
		fin := r.stmtOf(s.Finally, "@finally")
		r.replace(fin.Span.Start, uint32(len("@finally")), "/* @finally */")
		fb := r.compound(fin.Body, "@finally")
		r.insert(fb.Span.Start+1, " if (!_rethrow) objc_exception_try_exit(&_stack);\n")
		r.insert(fb.Span.End-2, " if (_rethrow) objc_exception_throw(_rethrow);\n")
		lastCurly = fb.Span.End - 1
		r.warnJumps(s.Body)
	} else {
		r.replace(lastCurly, 1, "{ /* implicit finally clause */\n"+
			" if (!_rethrow) objc_exception_try_exit(&_stack);\n"+
			" if (_rethrow) objc_exception_throw(_rethrow);\n"+
			"}")
		r.returns(s.Body, "{ objc_exception_try_exit(&_stack); return")
	}
	r.insert(lastCurly+1, " } /* @try scope end */\n")
}

// catchClause rewrites one @catch into a branch of the matching chain and
// returns its body.
func (r *Rewriter) catchClause(i int, c *ast.Stmt) *ast.Stmt {
	buf := "if ("
	if i > 0 {
		buf = "else if ("
	}
	body := r.compound(c.Body, "@catch")
	if c.Ellipsis {
		r.replaceSpan(r.span(c.Span.Start, body.Span.Start+1), buf+"1) { id _tmp = _caught;")
		return body
	}
	if !c.Param.IsValid() {
		objc.Invariant("@catch", "clause without parameter or ellipsis")
	}
	lparen, ok := lexer.Find(r.File, r.span(c.Span.Start, body.Span.Start), token.LParen)
	if !ok {
		objc.Invariant("@catch", "no '(' after @catch")
	}
	head := r.span(c.Span.Start, lparen.Span.End)
	p := r.decl(c.Param, "@catch")
	t := r.Unit.Type(r.Unit.Canonical(p.Type))
	switch {
	case t != nil && t.Kind == ast.TypeObjCObject:
		r.replaceSpan(head, buf+"objc_exception_match((struct objc_class *)objc_getClass(\""+t.Name+
			"\"), (struct objc_object *)_caught)) { ")
	case r.Unit.IsObjCObjectPointer(p.Type):
		r.replaceSpan(head, buf+"1) { ")
	default:
		objc.Invariant("@catch", "parameter %s is not an object", p.Name)
	}
	if c.RParen.Empty() {
		objc.Invariant("@catch", "clause has no ')'")
	}
	r.replaceSpan(r.span(c.RParen.Start, body.Span.Start+1), " = _caught;")
	return body
}

func (r *Rewriter) compound(id ast.StmtID, op string) *ast.Stmt {
	s := r.stmtOf(id, op)
	if s.Kind != ast.StmtCompound || s.Span.Len() < 2 {
		objc.Invariant(op, "body is not a compound statement")
	}
	return s
}

// synchronized lowers @synchronized(expr) body to lock, protected region and
// an implicit finally clause that unlocks.
func (r *Rewriter) synchronized(s *ast.Stmt) {
	body := r.compound(s.Body, "@synchronized")
	lparen, ok := lexer.Find(r.File, r.span(s.Span.Start, body.Span.Start), token.LParen)
	if !ok {
		objc.Invariant("@synchronized", "no '(' after @synchronized")
	}
	x := r.Unit.Expr(s.Expr)
	if x == nil {
		objc.Invariant("@synchronized", "missing lock expression")
	}
	rparen, ok := lexer.FindLast(r.File, r.span(x.Span.End, body.Span.Start), token.RParen)
	if !ok {
		objc.Invariant("@synchronized", "no ')' before the body")
	}
	syncExit := " objc_sync_exit((id)" + r.text(s.Expr) + ");"

	r.replaceSpan(r.span(s.Span.Start, lparen.Span.End), "objc_sync_enter((id)")
	r.replaceSpan(rparen.Span, ");\n/* @try scope begin */ \n"+exceptionFrame)
	r.replace(body.Span.End-1, 1, "}\nelse {\n"+
		"  _rethrow = objc_exception_extract(&_stack);\n"+
		"}\n"+
		"{ /* implicit finally clause */\n"+
		"  if (!_rethrow) objc_exception_try_exit(&_stack);\n"+
		syncExit+
		"\n  if (_rethrow) objc_exception_throw(_rethrow);\n"+
		"}\n"+
		"}")
	r.returns(s.Body, "{ objc_exception_try_exit(&_stack);"+syncExit+" return")
}

// returns rewrites every return inside body to leave the exception frame
// first. A return is rewritten once, by its innermost protected region.
func (r *Rewriter) returns(body ast.StmtID, prefix string) {
	r.Unit.Inspect(body, func(id ast.StmtID) bool {
		s := r.Unit.Stmt(id)
		if s == nil || s.Kind != ast.StmtReturn {
			return true
		}
		semi := r.semicolonAfter(s.Span.End, "return")
		key := editbuf.NodeKey{Space: spaceStmt, ID: uint32(id)}
		done, err := r.Buf.ReplaceNode(key, r.span(s.Span.Start, s.Span.Start+uint32(len("return"))), prefix)
		if r.check(err, s.Span) && done {
			r.insert(semi+1, "}")
		}
		return true
	}, skipBlocks(r.Unit), nil)
}

// warnJumps reports return and goto statements that leave a @try with a
// @finally clause; the lowering does not run the clause for them.
func (r *Rewriter) warnJumps(body ast.StmtID) {
	r.Unit.Inspect(body, func(id ast.StmtID) bool {
		if s := r.Unit.Stmt(id); s != nil && (s.Kind == ast.StmtReturn || s.Kind == ast.StmtGoto) {
			diag.ReportWarning(r.Reporter, diag.TryFinallyJump, s.Span, diag.TryFinallyJump.Title()).Emit()
		}
		return true
	}, skipBlocks(r.Unit), nil)
}

// skipBlocks keeps Inspect out of block literal bodies.
func skipBlocks(u *ast.Unit) func(ast.ExprID) bool {
	return func(id ast.ExprID) bool {
		e := u.Expr(id)
		return e == nil || e.Kind != ast.ExprBlock
	}
}

// throw lowers @throw to the runtime call; a bare @throw rethrows the value
// of the enclosing @catch.
func (r *Rewriter) throw(s *ast.Stmt) {
	kw, ok := lexer.Find(r.File, s.Span, token.AtKeyword)
	if !ok || !kw.IsAt("throw") {
		objc.Invariant("@throw", "statement does not start with @throw")
	}
	buf := "objc_exception_throw("
	if !s.Expr.IsValid() {
		buf = "objc_exception_throw(_caught"
	}
	r.replaceSpan(kw.Span, buf)
	r.replace(r.semicolonAfter(s.Span.End, "@throw"), 1, ");")
}

func (r *Rewriter) autoreleasePool(s *ast.Stmt) {
	kw, ok := lexer.Find(r.File, s.Span, token.AtKeyword)
	if !ok || !kw.IsAt("autoreleasepool") {
		objc.Invariant("@autoreleasepool", "statement does not start with @autoreleasepool")
	}
	r.replaceSpan(kw.Span, "/* @autoreleasepool */")
}
