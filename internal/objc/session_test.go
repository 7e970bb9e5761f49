package objc

import (
	"errors"
	"strings"
	"testing"

	"objrw/internal/ast"
)

func buildClasses(t *testing.T) (*ast.Builder, ast.DeclID, ast.DeclID) {
	t.Helper()
	b := ast.NewBuilder("t.m", ast.Hints{})
	root := b.NewDecl(ast.Decl{Kind: ast.DeclInterface, Name: "Root"})
	foo := b.NewDecl(ast.Decl{Kind: ast.DeclInterface, Name: "Foo", Super: root})
	b.Unit.Decl(foo).Ivars = []ast.DeclID{
		b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "a", Type: b.Builtin("int"), Container: foo}),
		b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "b", Type: b.Builtin("int"), Container: foo}),
	}
	return b, root, foo
}

func expectInvariant(t *testing.T, op string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic", op)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("%s: panic value %T is not an error", op, r)
		}
		var ie *InvariantError
		if !errors.As(err, &ie) {
			t.Fatalf("%s: panic value %v is not an InvariantError", op, err)
		}
		if ie.Op != op {
			t.Fatalf("Op = %q, want %q", ie.Op, op)
		}
	}()
	fn()
}

func TestLayoutChainsSuper(t *testing.T) {
	b, root, foo := buildClasses(t)
	s := NewSession(b.Unit, Options{FileName: "t.m"})
	cl := s.Layout(foo)
	if cl.Name != "Foo" || cl.StructName() != "Foo_IMPL" {
		t.Fatalf("layout = %+v", cl)
	}
	if cl.Super == nil || cl.Super.Decl != root {
		t.Fatalf("super layout = %+v", cl.Super)
	}
	if len(cl.Ivars) != 2 {
		t.Fatalf("ivars = %v", cl.Ivars)
	}
	if got := len(s.Classes()); got != 2 {
		t.Fatalf("classes = %d, want 2", got)
	}
}

func TestMarkSynthesizedTwicePanics(t *testing.T) {
	b, _, foo := buildClasses(t)
	s := NewSession(b.Unit, Options{})
	s.MarkSynthesized(foo)
	if !s.IsSynthesized(foo) {
		t.Fatalf("Foo must be synthesized")
	}
	expectInvariant(t, "MarkSynthesized", func() { s.MarkSynthesized(foo) })
}

func TestMethodNames(t *testing.T) {
	b, _, foo := buildClasses(t)
	impl := b.NewDecl(ast.Decl{Kind: ast.DeclImplementation, Name: "Foo", Class: foo})
	cat := b.NewDecl(ast.Decl{Kind: ast.DeclCategoryImpl, Name: "Extra", Class: foo})
	m1 := b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Selector: "setX:y:", Container: impl})
	m2 := b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Selector: "make", Container: cat})
	m3 := b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Selector: "setX:y:", Container: impl})

	s := NewSession(b.Unit, Options{})
	if got := s.MethodName(m1); got != "_I_Foo_setX_y_" {
		t.Fatalf("MethodName(m1) = %q", got)
	}
	if got := s.MethodName(m2); got != "_C_Foo_Extra_make" {
		t.Fatalf("MethodName(m2) = %q", got)
	}
	if got := s.MethodName(m1); got != "_I_Foo_setX_y_" {
		t.Fatalf("second MethodName(m1) = %q", got)
	}
	expectInvariant(t, "MethodName", func() { s.MethodName(m3) })
}

func TestIvarReferenceOrder(t *testing.T) {
	b, _, foo := buildClasses(t)
	ivars := b.Unit.Decl(foo).Ivars
	s := NewSession(b.Unit, Options{})
	s.ReferenceIvar(ivars[1])
	s.ReferenceIvar(ivars[0])
	s.ReferenceIvar(ivars[1])
	got := s.ReferencedIvars(foo)
	if len(got) != 2 || got[0] != ivars[1] || got[1] != ivars[0] {
		t.Fatalf("referenced = %v", got)
	}
}

func TestByrefNumbering(t *testing.T) {
	b := ast.NewBuilder("t.m", ast.Hints{})
	x := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "x", ByRef: true, Local: true})
	y := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "y", ByRef: true, Local: true})
	s := NewSession(b.Unit, Options{})
	if n := s.AssignByref(x); n != 0 {
		t.Fatalf("x = %d", n)
	}
	if n := s.AssignByref(y); n != 1 {
		t.Fatalf("y = %d", n)
	}
	if got := s.ByrefTypeName(y); got != "__Block_byref_y_1" {
		t.Fatalf("type name = %q", got)
	}
	expectInvariant(t, "AssignByref", func() { s.AssignByref(x) })

	z := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "z", ByRef: true, Local: true})
	expectInvariant(t, "ByrefNumber", func() { s.ByrefNumber(z) })
	expectInvariant(t, "byref", func() { s.ByrefTypeName(ast.DeclID(1000)) })
}

func TestOneShotFlags(t *testing.T) {
	s := NewSession(ast.NewUnit("t.m", ast.Hints{}), Options{})
	if !s.DeclareGetProperty() || s.DeclareGetProperty() {
		t.Fatalf("getProperty declared more than once")
	}
	if !s.DeclareSetProperty() || s.DeclareSetProperty() {
		t.Fatalf("setProperty declared more than once")
	}
	if !s.WriteMetadataDecls() || s.WriteMetadataDecls() {
		t.Fatalf("metadata decls written more than once")
	}
	if !s.NeedByrefHelpers(131) || s.NeedByrefHelpers(131) || !s.NeedByrefHelpers(3) {
		t.Fatalf("byref helper memo broken")
	}
	if s.NextLabel() != 1 || s.NextLabel() != 2 {
		t.Fatalf("labels must count from 1")
	}
}

func TestProtocolMemo(t *testing.T) {
	b := ast.NewBuilder("t.m", ast.Hints{})
	p := b.NewDecl(ast.Decl{Kind: ast.DeclProtocol, Name: "P"})
	s := NewSession(b.Unit, Options{})
	s.RecordProtocolExpr(p)
	s.RecordProtocolExpr(p)
	if len(s.ProtocolExprs()) != 1 {
		t.Fatalf("protocol exprs = %v", s.ProtocolExprs())
	}
	if !s.MarkProtocolEmitted(p) || s.MarkProtocolEmitted(p) {
		t.Fatalf("protocol metadata emitted twice")
	}
}

func TestStringSymbols(t *testing.T) {
	s := NewSession(ast.NewUnit("x", ast.Hints{}), Options{FileName: "dir/my-file.m"})
	if got := s.NextStringSymbol(); got != "__NSConstantStringImpl_dir_my_file_m_0" {
		t.Fatalf("first symbol = %q", got)
	}
	if got := s.NextStringSymbol(); !strings.HasSuffix(got, "_1") {
		t.Fatalf("second symbol = %q", got)
	}

	// "é" composed and decomposed produce the same symbol.
	a := NewSession(ast.NewUnit("x", ast.Hints{}), Options{FileName: "caf\u00e9.m"}).NextStringSymbol()
	d := NewSession(ast.NewUnit("x", ast.Hints{}), Options{FileName: "cafe\u0301.m"}).NextStringSymbol()
	if a != d {
		t.Fatalf("NFC mismatch: %q vs %q", a, d)
	}
}
