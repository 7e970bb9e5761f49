package synth

import (
	"strconv"

	"objrw/internal/ast"
	"objrw/internal/cgen"
	"objrw/internal/objc"
)

// Encode returns the type encoding string literal for @encode(T).
func (s *Synth) Encode(id ast.ExprID) string {
	e := s.mustExpr(id, ast.ExprEncode)
	return cgen.Quote(s.Layout.Encoding(e.Arg))
}

// Selector returns sel_registerName("sel") for @selector(sel).
func (s *Synth) Selector(id ast.ExprID) string {
	e := s.mustExpr(id, ast.ExprSelector)
	n := s.Nodes
	return s.print(n.CallName("sel_registerName", n.String(e.Selector)))
}

// Protocol returns the reference to the protocol metadata and records the
// protocol for emission.
func (s *Synth) Protocol(id ast.ExprID) string {
	e := s.mustExpr(id, ast.ExprProtocol)
	name := e.Name
	if d := s.Unit.Decl(e.Decl); d != nil {
		name = d.Name
		s.Sess.RecordProtocolExpr(e.Decl)
	}
	n := s.Nodes
	return s.print(n.Cast("Protocol *", n.AddrOf(n.Ident("_OBJC_PROTOCOL_"+name))))
}

// String defines a constant string object in the preamble and returns a
// reference to it.
func (s *Synth) String(id ast.ExprID) string {
	e := s.mustExpr(id, ast.ExprObjCString)
	sym := s.Sess.NextStringSymbol()
	s.Sess.AppendPreamble("static __NSConstantStringImpl " + sym +
		" __attribute__ ((section (\"__DATA, __cfstring\"))) = {__CFConstantStringClassReference," +
		"0x000007c8," + cgen.Quote(e.Value) + "," + strconv.Itoa(len(e.Value)) + "};\n")
	typ := "NSString *"
	if e.Type.IsValid() {
		typ = s.Types.Type(e.Type, cgen.StyleC)
	}
	n := s.Nodes
	return s.print(n.Cast(typ, n.AddrOf(n.Ident(sym))))
}

// IvarRef returns the offset-based access for an ivar reference and records
// the ivar as referenced by its declaring class.
func (s *Synth) IvarRef(id ast.ExprID) string {
	e := s.mustExpr(id, ast.ExprIvarRef)
	iv := s.Unit.Decl(e.Decl)
	if iv == nil {
		objc.Invariant("ivar", "ivar reference %d has no declaration", id)
	}
	cls := s.Sess.ContainingInterface(e.Decl)
	if !cls.IsValid() {
		objc.Invariant("ivar", "ivar %s has no declaring class", iv.Name)
	}
	s.Sess.ReferenceIvar(e.Decl)

	n := s.Nodes
	base := n.Ident("self")
	if e.Base.IsValid() {
		base = s.sub(e.Base)
	}
	offset := n.Ident("OBJC_IVAR_$_" + s.Unit.ClassName(cls) + "_" + iv.Name)
	addr := n.Paren(n.Binary("+", n.Cast("char *", base), offset))
	return s.print(n.Paren(n.Deref(n.Cast(s.Types.Decl(iv.Type, "*", cgen.StyleC), addr))))
}

func (s *Synth) mustExpr(id ast.ExprID, kind ast.ExprKind) *ast.Expr {
	e := s.Unit.Expr(id)
	if e == nil || e.Kind != kind {
		objc.Invariant(kind.String(), "expression %d is not %s", id, kind)
	}
	return e
}
