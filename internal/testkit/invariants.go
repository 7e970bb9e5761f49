package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"objrw/internal/ast"
	"objrw/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a unit document:
// 1) every declaration, statement and expression span lies inside the file
// 2) spans are well-formed (Start <= End)
// 3) a node's span covers the spans of its direct children
func CheckSpanInvariants(u *ast.Unit, sf *source.File) error {
	if u == nil || sf == nil {
		return fmt.Errorf("nil unit or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	inFile := func(what string, sp source.Span) error {
		if sp.Start > sp.End {
			return fmt.Errorf("%s: inverted span %v", what, sp)
		}
		if sp.End > size {
			return fmt.Errorf("%s: span end beyond content: %d > %d", what, sp.End, size)
		}
		return nil
	}

	decls := u.Decls.Slice()
	for i := range decls {
		d := &decls[i]
		what := fmt.Sprintf("decl %d (%s)", i+1, d.Kind)
		if err := inFile(what, d.Span); err != nil {
			return err
		}
		if !d.TypeSpan.Empty() && !d.Imported && !d.Span.Contains(d.TypeSpan) {
			return fmt.Errorf("%s: type span %v outside %v", what, d.TypeSpan, d.Span)
		}
	}

	stmts := u.Stmts.Slice()
	for i := range stmts {
		s := &stmts[i]
		id := ast.StmtID(i + 1) // #nosec G115 -- arena index
		what := fmt.Sprintf("stmt %d (%s)", id, s.Kind)
		if err := inFile(what, s.Span); err != nil {
			return err
		}
		var childErr error
		check := func(child source.Span, kind string) {
			if childErr == nil && !child.Empty() && !s.Span.Contains(child) {
				childErr = fmt.Errorf("%s: child %s %v outside %v", what, kind, child, s.Span)
			}
		}
		u.StmtChildren(id,
			func(c ast.StmtID) { check(u.Stmt(c).Span, "stmt") },
			func(c ast.ExprID) { check(u.Expr(c).Span, "expr") },
			nil)
		if childErr != nil {
			return childErr
		}
	}

	exprs := u.Exprs.Slice()
	for i := range exprs {
		e := &exprs[i]
		id := ast.ExprID(i + 1) // #nosec G115 -- arena index
		what := fmt.Sprintf("expr %d (%s)", id, e.Kind)
		if err := inFile(what, e.Span); err != nil {
			return err
		}
		var childErr error
		u.ExprChildren(id, func(c ast.ExprID) {
			if sp := u.Expr(c).Span; childErr == nil && !sp.Empty() && !e.Span.Contains(sp) {
				childErr = fmt.Errorf("%s: child expr %v outside %v", what, sp, e.Span)
			}
		}, nil)
		if childErr != nil {
			return childErr
		}
	}
	return nil
}
