package ast

// StmtChildren calls the callbacks for each direct child of a statement, in
// source order. Declarations go to decl, their initializers are not visited.
func (u *Unit) StmtChildren(id StmtID, stmt func(StmtID), expr func(ExprID), decl func(DeclID)) {
	s := u.Stmt(id)
	if s == nil {
		return
	}
	st := func(c StmtID) {
		if c.IsValid() && stmt != nil {
			stmt(c)
		}
	}
	ex := func(c ExprID) {
		if c.IsValid() && expr != nil {
			expr(c)
		}
	}
	switch s.Kind {
	case StmtCompound:
		for _, c := range s.List {
			st(c)
		}
	case StmtExpr, StmtReturn, StmtThrow:
		ex(s.Expr)
	case StmtDecl:
		if decl != nil {
			for _, d := range s.Decls {
				decl(d)
			}
		}
	case StmtIf:
		ex(s.Cond)
		st(s.Then)
		st(s.Else)
	case StmtWhile, StmtSwitch:
		ex(s.Cond)
		st(s.Body)
	case StmtDo:
		st(s.Body)
		ex(s.Cond)
	case StmtFor:
		st(s.Init)
		ex(s.Cond)
		ex(s.Inc)
		st(s.Body)
	case StmtForIn:
		st(s.Elem)
		ex(s.ElemExpr)
		ex(s.Expr)
		st(s.Body)
	case StmtCase:
		ex(s.Expr)
		st(s.Body)
	case StmtDefault, StmtLabel, StmtFinally, StmtAutoreleasePool, StmtCatch:
		if s.Kind == StmtCatch && s.Param.IsValid() && decl != nil {
			decl(s.Param)
		}
		st(s.Body)
	case StmtTry:
		st(s.Body)
		for _, c := range s.Catches {
			st(c)
		}
		st(s.Finally)
	case StmtSynchronized:
		ex(s.Expr)
		st(s.Body)
	case StmtBreak, StmtContinue, StmtGoto, StmtNull:
	}
}

// ExprChildren calls fn for each direct sub-expression, in source order. The
// body of a block literal is reported through body.
func (u *Unit) ExprChildren(id ExprID, fn func(ExprID), body func(StmtID)) {
	e := u.Expr(id)
	if e == nil {
		return
	}
	ex := func(c ExprID) {
		if c.IsValid() {
			fn(c)
		}
	}
	switch e.Kind {
	case ExprMessage:
		ex(e.Receiver)
		for _, a := range e.Args {
			ex(a)
		}
	case ExprIvarRef, ExprMember:
		ex(e.Base)
	case ExprPropertyRef:
		ex(e.Base)
		ex(e.Assign)
	case ExprBlock:
		if body != nil && e.Body.IsValid() {
			body(e.Body)
		}
	case ExprCall:
		ex(e.Callee)
		for _, a := range e.Args {
			ex(a)
		}
	case ExprParen, ExprUnary, ExprCast, ExprSizeof:
		ex(e.Operand)
	case ExprBinary:
		ex(e.LHS)
		ex(e.RHS)
	case ExprConditional:
		ex(e.Cond)
		ex(e.LHS)
		ex(e.RHS)
	case ExprSubscript:
		ex(e.Base)
		ex(e.Index)
	case ExprInitList:
		for _, a := range e.Args {
			ex(a)
		}
	case ExprDeclRef, ExprIntLit, ExprFloatLit, ExprCharLit, ExprStringLit, ExprObjCString,
		ExprSelector, ExprProtocol, ExprEncode:
	}
}

// Inspect walks a statement subtree depth-first in source order. Returning
// false from a callback skips that node's children. Block literal bodies are
// entered; variable initializers are visited after the declaration.
func (u *Unit) Inspect(root StmtID, stmt func(StmtID) bool, expr func(ExprID) bool, decl func(DeclID)) {
	in := inspector{u: u, stmt: stmt, expr: expr, decl: decl}
	in.visitStmt(root)
}

// InspectExpr is Inspect rooted at an expression.
func (u *Unit) InspectExpr(root ExprID, stmt func(StmtID) bool, expr func(ExprID) bool, decl func(DeclID)) {
	in := inspector{u: u, stmt: stmt, expr: expr, decl: decl}
	in.visitExpr(root)
}

type inspector struct {
	u    *Unit
	stmt func(StmtID) bool
	expr func(ExprID) bool
	decl func(DeclID)
}

func (in *inspector) visitDecl(d DeclID) {
	if in.decl != nil {
		in.decl(d)
	}
	if dd := in.u.Decl(d); dd != nil && dd.Init.IsValid() {
		in.visitExpr(dd.Init)
	}
}

func (in *inspector) visitStmt(id StmtID) {
	if in.stmt != nil && !in.stmt(id) {
		return
	}
	in.u.StmtChildren(id, in.visitStmt, in.visitExpr, in.visitDecl)
}

func (in *inspector) visitExpr(id ExprID) {
	if in.expr != nil && !in.expr(id) {
		return
	}
	if e := in.u.Expr(id); e != nil && e.Kind == ExprBlock && in.decl != nil {
		for _, p := range e.Params {
			in.decl(p)
		}
	}
	in.u.ExprChildren(id, in.visitExpr, in.visitStmt)
}
