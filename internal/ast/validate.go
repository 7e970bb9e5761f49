package ast

import (
	"errors"
	"fmt"

	"objrw/internal/source"
)

// ErrMalformed wraps every structural problem Validate finds.
var ErrMalformed = errors.New("malformed unit document")

// Validate checks that every reference points into its arena and that the
// spans of main-file nodes fit a source of size bytes. It stops at the first
// problem.
func (u *Unit) Validate(size uint32) error {
	nt, nd, ns, ne := u.Types.Len(), u.Decls.Len(), u.Stmts.Len(), u.Exprs.Len()
	var err error
	fail := func(format string, args ...any) {
		if err == nil {
			err = fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
		}
	}
	ty := func(where string, id TypeID) {
		if uint32(id) > nt {
			fail("%s: type %d out of range", where, id)
		}
	}
	de := func(where string, id DeclID) {
		if uint32(id) > nd {
			fail("%s: decl %d out of range", where, id)
		}
	}
	st := func(where string, id StmtID) {
		if uint32(id) > ns {
			fail("%s: stmt %d out of range", where, id)
		}
	}
	ex := func(where string, id ExprID) {
		if uint32(id) > ne {
			fail("%s: expr %d out of range", where, id)
		}
	}
	sp := func(where string, s source.Span) {
		if s.Start > s.End || s.End > size {
			fail("%s: span %d-%d outside source of %d bytes", where, s.Start, s.End, size)
		}
	}

	for _, id := range u.TopLevel {
		de("top level", id)
	}
	for _, m := range u.Macros {
		sp("macro", m)
	}
	for _, m := range u.Includes {
		sp("include", m)
	}
	for i, t := range u.Types.Slice() {
		where := fmt.Sprintf("type %d", i+1)
		ty(where, t.Elem)
		ty(where, t.Result)
		for _, p := range t.Params {
			ty(where, p)
		}
		de(where, t.Decl)
	}
	for i := range u.Decls.Slice() {
		d := &u.Decls.Slice()[i]
		where := fmt.Sprintf("decl %d (%s %s)", i+1, d.Kind, d.Name)
		if !d.Imported {
			sp(where, d.Span)
			sp(where, d.TypeSpan)
			sp(where, d.IvarBlock)
			sp(where, d.AtEnd)
		}
		ty(where, d.Type)
		ty(where, d.Result)
		for _, id := range [...]DeclID{d.Class, d.Super, d.Container, d.GetterMethod, d.SetterMethod, d.Property, d.Ivar, d.Record} {
			de(where, id)
		}
		for _, list := range [][]DeclID{d.Protocols, d.Ivars, d.Methods, d.Props, d.PropImpls, d.Params, d.Fields} {
			for _, id := range list {
				de(where, id)
			}
		}
		st(where, d.Body)
		ex(where, d.Init)
	}
	for i := range u.Stmts.Slice() {
		s := &u.Stmts.Slice()[i]
		where := fmt.Sprintf("stmt %d (%s)", i+1, s.Kind)
		sp(where, s.Span)
		sp(where, s.RParen)
		for _, id := range s.List {
			st(where, id)
		}
		for _, id := range s.Catches {
			st(where, id)
		}
		for _, id := range [...]StmtID{s.Then, s.Else, s.Init, s.Body, s.Elem, s.Finally} {
			st(where, id)
		}
		for _, id := range [...]ExprID{s.Expr, s.Cond, s.Inc, s.ElemExpr} {
			ex(where, id)
		}
		for _, id := range s.Decls {
			de(where, id)
		}
		de(where, s.Param)
	}
	for i := range u.Exprs.Slice() {
		e := &u.Exprs.Slice()[i]
		where := fmt.Sprintf("expr %d (%s)", i+1, e.Kind)
		sp(where, e.Span)
		sp(where, e.TypeSpan)
		ty(where, e.Type)
		ty(where, e.Conv)
		ty(where, e.Arg)
		for _, id := range [...]DeclID{e.Decl, e.Method, e.Setter} {
			de(where, id)
		}
		for _, id := range e.Params {
			de(where, id)
		}
		for _, id := range e.Args {
			ex(where, id)
		}
		for _, id := range [...]ExprID{e.Receiver, e.Assign, e.Base, e.Callee, e.Operand, e.LHS, e.RHS, e.Cond, e.Index} {
			ex(where, id)
		}
		st(where, e.Body)
		if e.Kind == ExprMessage && e.Recv == RecvInstance && !e.Receiver.IsValid() {
			fail("%s: instance message without receiver", where)
		}
	}
	return err
}
