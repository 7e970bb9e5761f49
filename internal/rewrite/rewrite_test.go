package rewrite

import (
	"strings"
	"testing"

	"objrw/internal/ast"
	"objrw/internal/diag"
	"objrw/internal/layout"
	"objrw/internal/objc"
	"objrw/internal/source"
	"objrw/internal/testkit"
)

type unitFixture struct {
	*testkit.Fixture
	b *ast.Builder
}

func newUnit(t *testing.T, src string) *unitFixture {
	t.Helper()
	return &unitFixture{
		Fixture: testkit.NewFixture(t, "t.m", src),
		b:       ast.NewBuilder("t.m", ast.Hints{}),
	}
}

func (u *unitFixture) rewriter(opts Options) (*Rewriter, *diag.Bag) {
	sess := objc.NewSession(u.b.Unit, objc.Options{FileName: "t.m"})
	bag := diag.NewBag(32)
	rw := New(sess, u.File, layout.New(layout.Default64(), u.b.Unit), diag.BagReporter{Bag: bag}, opts)
	return rw, bag
}

func (u *unitFixture) run(t *testing.T) (Result, *diag.Bag) {
	t.Helper()
	if err := testkit.CheckSpanInvariants(u.b.Unit, u.File); err != nil {
		t.Fatalf("fixture spans: %v", err)
	}
	rw, bag := u.rewriter(Options{})
	return rw.Run(), bag
}

// at shifts sp forward by n bytes and gives it length l.
func at(sp source.Span, n, l uint32) source.Span {
	sp.Start += n
	sp.End = sp.Start + l
	return sp
}

func mustContain(t *testing.T, got string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(got, p) {
			t.Errorf("output lacks %q\n--- output ---\n%s", p, got)
		}
	}
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestForwardDeclarationsAndImports(t *testing.T) {
	u := newUnit(t, "#import <Foundation/Foundation.h>\n@class A, B;\n@protocol P;\n")
	b := u.b
	b.PushTop(b.NewDecl(ast.Decl{Kind: ast.DeclForwardClass, Span: u.Cover("@class", "B"), Names: []string{"A", "B"}}))
	b.PushTop(b.NewDecl(ast.Decl{Kind: ast.DeclForwardProtocol, Span: u.Span("@protocol P"), Names: []string{"P"}}))

	res, bag := u.run(t)
	want := "#include <Foundation/Foundation.h>\n" +
		"// @class A;\n" +
		"#ifndef _REWRITER_typedef_A\n#define _REWRITER_typedef_A\ntypedef struct objc_object A;\n#endif\n" +
		"#ifndef _REWRITER_typedef_B\n#define _REWRITER_typedef_B\ntypedef struct objc_object B;\n#endif\n" +
		"\n// @protocol P;\n"
	if res.Body != want {
		t.Fatalf("body:\n%s\nwant:\n%s", res.Body, want)
	}
	if res.Metadata != "" {
		t.Errorf("unexpected metadata for a unit without implementations")
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}

func TestProtocolDirectives(t *testing.T) {
	src := "@protocol P\n@optional\n- (void)a;\n@required\n- (void)b:(int)x\n\tc:(int)y;\n@end\n"
	u := newUnit(t, src)
	b := u.b
	proto := b.NewDecl(ast.Decl{Kind: ast.DeclProtocol, Name: "P", Span: u.Cover("@protocol", "@end"), AtEnd: u.Span("@end")})
	ma := b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Selector: "a", Span: u.Span("- (void)a"), Container: proto, Optional: true})
	mb := b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Selector: "b:c:", Span: u.Cover("- (void)b", "(int)y"), Container: proto})
	b.Unit.Decl(proto).Methods = []ast.DeclID{ma, mb}
	b.PushTop(proto)

	res, _ := u.run(t)
	want := "// @protocol P\n/* @optional */\n// - (void)a;\n/* @required */\n" +
		"#if 0\n- (void)b:(int)x\n\tc:(int)y;\n#endif\n\n/* @end */\n"
	if res.Body != want {
		t.Fatalf("body:\n%q\nwant:\n%q", res.Body, want)
	}
}

func TestFastEnumerationBreak(t *testing.T) {
	src := "void f(id c) {\n\tfor (id x in c) {\n\t\tbreak;\n\t}\n}\n"
	u := newUnit(t, src)
	b := u.b
	idT := b.ID()
	c := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "c", Type: idT, Local: true, Span: u.Span("id c")})
	x := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "x", Type: idT, Local: true, Span: u.Span("id x")})
	elem := b.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: u.Span("id x"), Decls: []ast.DeclID{x}})
	coll := b.DeclRef(at(u.Span("in c"), 3, 1), c)
	brk := b.NewStmt(ast.Stmt{Kind: ast.StmtBreak, Span: u.Span("break")})
	body := b.Compound(u.Cover("{\n\t\tbreak", "}"), brk)
	loop := b.NewStmt(ast.Stmt{
		Kind:   ast.StmtForIn,
		Span:   u.Cover("for (", "\t}"),
		Elem:   elem,
		Expr:   coll,
		RParen: at(u.Span("in c) {"), 4, 1),
		Body:   body,
	})
	fnBody := b.Compound(u.Cover("{\n\tfor", "}\n}"), loop)
	fn := b.NewDecl(ast.Decl{
		Kind:     ast.DeclFunction,
		Name:     "f",
		Span:     u.Cover("void f", "}\n}"),
		TypeSpan: u.Span("void"),
		Type:     b.Func(b.Builtin("void"), false, idT),
		Params:   []ast.DeclID{c},
		Body:     fnBody,
	})
	b.PushTop(fn)

	res, bag := u.run(t)
	mustContain(t, res.Body,
		"void f(id c) {\n\t\n{\n\tid x;\n\tstruct __objcFastEnumerationState enumState = { 0 };\n\tid __rw_items[16];\n\tid l_collection = (id) c;\n\t",
		"x = (id)enumState.itemsPtr[counter++]; {\n\t\tgoto __break_label_1;\n\t};\n\t__continue_label_1: ;",
		"} while (limit = ((unsigned int (*) (id, SEL, struct __objcFastEnumerationState *, id *, unsigned int))(void *)objc_msgSend)",
		"\n\tx = ((id)0);\n\t__break_label_1: ;\n\t}\n\telse\n\t\tx = ((id)0);\n\t}\n",
	)
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}

func TestTryCatchFinally(t *testing.T) {
	src := "int g(int x) {\n\t@try {\n\t\treturn 1;\n\t} @catch (Foo *e) {\n\t\tx = 2;\n\t} @finally {\n\t\tx = 3;\n\t}\n\treturn 0;\n}\n"
	u := newUnit(t, src)
	b := u.b
	intT := b.Builtin("int")
	x := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "x", Type: intT, Local: true, Span: u.Span("int x")})
	e := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "e", Type: b.Object("Foo"), Local: true, Span: u.Span("Foo *e")})

	ret1 := b.NewStmt(ast.Stmt{Kind: ast.StmtReturn, Span: u.Span("return 1")})
	tryBody := b.Compound(u.Cover("{\n\t\treturn 1", "}"), ret1)
	catchBody := b.Compound(u.Cover("{\n\t\tx = 2", "}"))
	catch := b.NewStmt(ast.Stmt{Kind: ast.StmtCatch, Span: u.Cover("@catch", "}"), Param: e, RParen: at(u.Span(") {\n\t\tx = 2"), 0, 1), Body: catchBody})
	finBody := b.Compound(u.Cover("{\n\t\tx = 3", "}"))
	fin := b.NewStmt(ast.Stmt{Kind: ast.StmtFinally, Span: u.Cover("@finally", "}"), Body: finBody})
	try := b.NewStmt(ast.Stmt{Kind: ast.StmtTry, Span: u.Cover("@try", "x = 3;\n\t}"), Body: tryBody, Catches: []ast.StmtID{catch}, Finally: fin})
	ret0 := b.NewStmt(ast.Stmt{Kind: ast.StmtReturn, Span: u.Span("return 0")})
	body := b.Compound(u.Cover("{\n\t@try", "return 0;\n}"), try, ret0)
	b.PushTop(b.NewDecl(ast.Decl{
		Kind: ast.DeclFunction, Name: "g", Span: u.Cover("int g", "return 0;\n}"), TypeSpan: u.Span("int g").WithLen(3),
		Type: b.Func(intT, false, intT), Params: []ast.DeclID{x}, Body: body,
	}))

	res, bag := u.run(t)
	mustContain(t, res.Body,
		"/* @try scope begin */ { struct _objc_exception_data {\nint buf[18/*32-bit i386*/];\n",
		"if (!_setjmp(_stack.buf)) /* @try block continue */\n {\n\t\treturn 1;\n\t} /* @catch begin */ else {\n id _caught = objc_exception_extract(&_stack);",
		"if (objc_exception_match((struct objc_class *)objc_getClass(\"Foo\"), (struct objc_object *)_caught)) { Foo *e = _caught;",
		"} /* last catch end */\nelse {\n _rethrow = _caught;\n objc_exception_try_exit(&_stack);\n} } /* @catch end */\n",
		"/* @finally */ { if (!_rethrow) objc_exception_try_exit(&_stack);\n",
		" if (_rethrow) objc_exception_throw(_rethrow);\n",
		"} } /* @try scope end */\n",
	)
	if strings.Contains(res.Body, "objc_exception_try_exit(&_stack); return") {
		t.Errorf("returns must stay untouched when @finally is present")
	}
	got := codes(bag)
	if len(got) != 1 || got[0] != diag.TryFinallyJump {
		t.Fatalf("want one W2002, got %v", got)
	}
}

func TestSynchronizedReturn(t *testing.T) {
	src := "void h(id o) {\n\t@synchronized (o) {\n\t\treturn;\n\t}\n}\n"
	u := newUnit(t, src)
	b := u.b
	o := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "o", Type: b.ID(), Local: true, Span: u.Span("id o")})
	lock := b.DeclRef(at(u.Span("(o)"), 1, 1), o)
	ret := b.NewStmt(ast.Stmt{Kind: ast.StmtReturn, Span: u.Span("return")})
	body := b.Compound(u.Cover("{\n\t\treturn", "}"), ret)
	sync := b.NewStmt(ast.Stmt{Kind: ast.StmtSynchronized, Span: u.Cover("@synchronized", "}"), Expr: lock, Body: body})
	fnBody := b.Compound(u.Cover("{\n\t@sync", "}\n}"), sync)
	b.PushTop(b.NewDecl(ast.Decl{
		Kind: ast.DeclFunction, Name: "h", Span: u.Cover("void h", "}\n}"), TypeSpan: u.Span("void"),
		Type: b.Func(b.Builtin("void"), false, b.ID()), Params: []ast.DeclID{o}, Body: fnBody,
	}))

	res, _ := u.run(t)
	mustContain(t, res.Body,
		"objc_sync_enter((id)o);\n/* @try scope begin */ \n{ struct _objc_exception_data {\n",
		"{ objc_exception_try_exit(&_stack); objc_sync_exit((id)o); return;}",
		"{ /* implicit finally clause */\n  if (!_rethrow) objc_exception_try_exit(&_stack);\n objc_sync_exit((id)o);\n  if (_rethrow) objc_exception_throw(_rethrow);\n}\n}",
	)
}

func TestBlockLiteralHoisted(t *testing.T) {
	src := "void k(void) {\n\t__block int n = 0;\n\tint m = 1;\n\tvoid (^b)(void) = ^{ n = m; };\n\tb();\n}\n"
	u := newUnit(t, src)
	b := u.b
	intT, voidT := b.Builtin("int"), b.Builtin("void")
	blockT := b.Block(b.Func(voidT, false))

	zero := b.NewExpr(ast.Expr{Kind: ast.ExprIntLit, Span: at(u.Span("= 0"), 2, 1), Type: intT, Text: "0"})
	n := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "n", Type: intT, Local: true, ByRef: true, Span: u.Cover("__block", "0"), Init: zero})
	one := b.NewExpr(ast.Expr{Kind: ast.ExprIntLit, Span: at(u.Span("= 1"), 2, 1), Type: intT, Text: "1"})
	m := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "m", Type: intT, Local: true, Span: u.Cover("int m", "1"), TypeSpan: u.Span("int m").WithLen(3), Init: one})

	lhs := b.DeclRef(u.Span("n = m").WithLen(1), n)
	rhs := b.DeclRef(at(u.Span("= m"), 2, 1), m)
	assign := b.NewExpr(ast.Expr{Kind: ast.ExprBinary, Span: u.Span("n = m"), Type: intT, Op: "=", LHS: lhs, RHS: rhs})
	lit := b.NewExpr(ast.Expr{Kind: ast.ExprBlock, Span: u.Cover("^{", "}"), Type: blockT, Body: b.Compound(u.Cover("{ n", "}"), b.ExprStmt(assign))})
	bv := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "b", Type: blockT, Local: true, Span: u.Cover("void (^b)", "}"), TypeSpan: u.Span("void (^b)(void)").WithLen(4), Init: lit})

	callee := b.DeclRef(u.Span("b()").WithLen(1), bv)
	call := b.NewExpr(ast.Expr{Kind: ast.ExprCall, Span: u.Span("b()"), Type: voidT, Callee: callee})

	body := b.Compound(u.Cover("{\n\t__block", "b();\n}"),
		b.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: u.Cover("__block", "0"), Decls: []ast.DeclID{n}}),
		b.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: u.Cover("int m", "1"), Decls: []ast.DeclID{m}}),
		b.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: u.Cover("void (^b)", "}"), Decls: []ast.DeclID{bv}}),
		b.ExprStmt(call),
	)
	b.PushTop(b.NewDecl(ast.Decl{
		Kind: ast.DeclFunction, Name: "k", Span: u.Cover("void k", "b();\n}"), TypeSpan: u.Span("void"),
		Type: b.Func(voidT, false), Body: body,
	}))

	rw, bag := u.rewriter(Options{})
	res := rw.Run()
	mustContain(t, res.Body,
		"struct __Block_byref_n_0 {\n  void *__isa;\n__Block_byref_n_0 *__forwarding;\n",
		"struct __k_block_impl_0 {\n  struct __block_impl impl;\n",
		"(n->__forwarding->n) = m;",
		"__Block_byref_n_0 n = {(void*)0,(__Block_byref_n_0 *)&n, 0, sizeof(__Block_byref_n_0), 0};",
		"void (*b)(void) = ",
		"__k_block_impl_0((void *)__k_block_func_0, &__k_block_desc_0_DATA, m, (__Block_byref_n_0 *)&n, 570425344)",
		"->FuncPtr)",
		"((__block_impl *)b);",
	)
	if i, j := strings.Index(res.Body, "struct __k_block_impl_0 {"), strings.Index(res.Body, "void k(void) {"); i < 0 || j < i {
		t.Errorf("block struct must be hoisted in front of the function")
	}
	if i, j := strings.Index(res.Body, "struct __Block_byref_n_0 {"), strings.Index(res.Body, "struct __k_block_impl_0 {"); i < 0 || j < i {
		t.Errorf("byref struct must precede the block that captures it")
	}
	blocks := rw.Sess.Blocks()
	if len(blocks) != 1 || blocks[0].Impl != "__k_block_impl_0" || !blocks[0].Helpers {
		t.Fatalf("block records: %+v", blocks)
	}
	if len(blocks[0].ByRef) != 1 || blocks[0].ByRef[0] != "n" || len(blocks[0].ByCopy) != 1 || blocks[0].ByCopy[0] != "m" {
		t.Errorf("captures: %+v", blocks[0])
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}

func TestClassAndImplementation(t *testing.T) {
	src := "@interface Foo : NSObject {\n\tint x;\n}\n- (int)x;\n@end\n@implementation Foo\n- (int)x {\n\treturn 0;\n}\n@end\n"
	u := newUnit(t, src)
	b := u.b
	intT := b.Builtin("int")
	root := b.NewDecl(ast.Decl{Kind: ast.DeclInterface, Name: "NSObject", Imported: true})
	foo := b.NewDecl(ast.Decl{
		Kind: ast.DeclInterface, Name: "Foo", Super: root,
		Span: u.Cover("@interface", "@end"), IvarBlock: u.Cover("{\n\tint x", "}"), AtEnd: u.SpanN("@end", 0),
	})
	ivar := b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "x", Type: intT, Container: foo, Span: u.Span("int x"), Access: ast.AccessProtected})
	getter := b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Selector: "x", Result: intT, Container: foo, Span: u.Span("- (int)x;").WithLen(8)})
	b.Unit.Decl(foo).Ivars = []ast.DeclID{ivar}
	b.Unit.Decl(foo).Methods = []ast.DeclID{getter}

	impl := b.NewDecl(ast.Decl{Kind: ast.DeclImplementation, Name: "Foo", Class: foo, Span: u.Cover("@implementation", "@end"), AtEnd: u.SpanN("@end", 1)})
	ret := b.NewStmt(ast.Stmt{Kind: ast.StmtReturn, Span: u.Span("return 0")})
	def := b.NewDecl(ast.Decl{
		Kind: ast.DeclMethod, Instance: true, Selector: "x", Result: intT, Container: impl,
		Span: u.Cover("- (int)x {", "}"), Body: b.Compound(u.Cover("{\n\treturn", "}"), ret),
	})
	b.Unit.Decl(impl).Methods = []ast.DeclID{def}
	b.PushTop(root)
	b.PushTop(foo)
	b.PushTop(impl)

	res, bag := u.run(t)
	mustContain(t, res.Body,
		"#ifndef _REWRITER_typedef_Foo\n#define _REWRITER_typedef_Foo\ntypedef struct objc_object Foo;\n#endif\n\nstruct Foo_IMPL {\n\tint x;\n};\n\n// - (int)x;\n/* @end */\n",
		"// @implementation Foo\n\nstatic int _I_Foo_x(struct Foo * self, SEL _cmd) {\n\treturn 0;\n}\n// @end\n",
	)
	mustContain(t, res.Metadata, "OBJC_CLASS_$_Foo", "_OBJC_$_INSTANCE_METHODS_Foo")
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}

func TestStaleEditInMacro(t *testing.T) {
	for _, silence := range []bool{false, true} {
		u := newUnit(t, "void s(void) {\n\t@\"hi\";\n}\n")
		b := u.b
		u.FS.SetMacros(u.File.ID, []source.Span{u.Span(`@"hi"`)})
		str := b.NewExpr(ast.Expr{Kind: ast.ExprObjCString, Span: u.Span(`@"hi"`), Value: "hi", Type: b.Object("NSString")})
		body := b.Compound(u.Cover("{\n\t@", "}"), b.ExprStmt(str))
		b.PushTop(b.NewDecl(ast.Decl{
			Kind: ast.DeclFunction, Name: "s", Span: u.Cover("void s", "}"), TypeSpan: u.Span("void"),
			Type: b.Func(b.Builtin("void"), false), Body: body,
		}))

		rw, bag := u.rewriter(Options{SilenceMacroWarnings: silence})
		res := rw.Run()
		if !strings.Contains(res.Body, `@"hi";`) {
			t.Errorf("macro text must stay untouched:\n%s", res.Body)
		}
		if rw.Stale() != 1 {
			t.Errorf("stale edits = %d, want 1", rw.Stale())
		}
		got := codes(bag)
		switch {
		case silence && len(got) != 0:
			t.Errorf("silenced run reported %v", got)
		case !silence && (len(got) != 1 || got[0] != diag.RewriteInMacro):
			t.Errorf("want one W2001, got %v", got)
		}
	}
}

func TestTryWithoutClausesIsInvariant(t *testing.T) {
	u := newUnit(t, "void v(void) {\n\t@try {\n\t}\n}\n")
	b := u.b
	try := b.NewStmt(ast.Stmt{Kind: ast.StmtTry, Span: u.Cover("@try", "}"), Body: b.Compound(u.Cover("{\n\t}", "}"))})
	b.PushTop(b.NewDecl(ast.Decl{
		Kind: ast.DeclFunction, Name: "v", Span: u.Cover("void v", "}\n}"), TypeSpan: u.Span("void"),
		Type: b.Func(b.Builtin("void"), false), Body: b.Compound(u.Cover("{\n\t@try", "}\n}"), try),
	}))
	rw, _ := u.rewriter(Options{})
	defer func() {
		inv, ok := AsInvariant(recover())
		if !ok {
			t.Fatalf("want an invariant violation")
		}
		if inv.Op != "@try" {
			t.Errorf("op = %q", inv.Op)
		}
	}()
	rw.Run()
}

func TestTryCatchChainWithEllipsis(t *testing.T) {
	src := "void g(void) {\n\t@try {\n\t\tf();\n\t} @catch (Foo *e) {\n\t\ta();\n\t} @catch (Bar *r) {\n\t\tb();\n\t} @catch (...) {\n\t\tc();\n\t}\n}\n"
	u := newUnit(t, src)
	b := u.b
	e := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "e", Type: b.Object("Foo"), Local: true, Span: u.Span("Foo *e")})
	rv := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "r", Type: b.Object("Bar"), Local: true, Span: u.Span("Bar *r")})

	tryBody := b.Compound(u.Cover("{\n\t\tf()", "}"))
	first := b.NewStmt(ast.Stmt{
		Kind: ast.StmtCatch, Span: u.Cover("@catch (Foo", "}"), Param: e,
		RParen: at(u.Span("e) {"), 1, 1), Body: b.Compound(u.Cover("{\n\t\ta()", "}")),
	})
	second := b.NewStmt(ast.Stmt{
		Kind: ast.StmtCatch, Span: u.Cover("@catch (Bar", "}"), Param: rv,
		RParen: at(u.Span("r) {"), 1, 1), Body: b.Compound(u.Cover("{\n\t\tb()", "}")),
	})
	catchAll := b.NewStmt(ast.Stmt{
		Kind: ast.StmtCatch, Span: u.Cover("@catch (...)", "}"), Ellipsis: true,
		Body: b.Compound(u.Cover("{\n\t\tc()", "}")),
	})
	try := b.NewStmt(ast.Stmt{Kind: ast.StmtTry, Span: u.Cover("@try", "c();\n\t}"), Body: tryBody, Catches: []ast.StmtID{first, second, catchAll}})
	b.PushTop(b.NewDecl(ast.Decl{
		Kind: ast.DeclFunction, Name: "g", Span: u.Cover("void g", "}\n}"), TypeSpan: u.Span("void"),
		Type: b.Func(b.Builtin("void"), false), Body: b.Compound(u.Cover("{\n\t@try", "}\n}"), try),
	}))

	res, bag := u.run(t)
	foo := "if (objc_exception_match((struct objc_class *)objc_getClass(\"Foo\"), (struct objc_object *)_caught)) { Foo *e = _caught;"
	bar := "} else if (objc_exception_match((struct objc_class *)objc_getClass(\"Bar\"), (struct objc_object *)_caught)) { Bar *r = _caught;"
	ell := "} else if (1) { id _tmp = _caught;"
	last := "\t\tc();\n} /* last catch end */\nelse {\n _rethrow = _caught;\n objc_exception_try_exit(&_stack);\n} } /* @catch end */\n}\n"
	mustContain(t, res.Body,
		"else { /* @catch continue */ "+foo,
		bar, ell, last,
		"{ /* implicit finally clause */\n if (!_rethrow) objc_exception_try_exit(&_stack);\n if (_rethrow) objc_exception_throw(_rethrow);\n}",
		" } /* @try scope end */\n",
	)
	prev := -1
	for _, part := range []string{foo, bar, ell, last} {
		i := strings.Index(res.Body, part)
		if i <= prev {
			t.Fatalf("catch chain out of order at %q\n%s", part, res.Body)
		}
		prev = i
	}
	if strings.Contains(res.Body, "@catch (") {
		t.Errorf("a @catch clause survived:\n%s", res.Body)
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}

func TestFastEnumerationContinueAndInnerSwitch(t *testing.T) {
	src := "void f(id c, int k) {\n\tfor (id x in c) {\n\t\tswitch (k) {\n\t\tcase 1:\n\t\t\tbreak;\n\t\t}\n\t\tcontinue;\n\t}\n}\n"
	u := newUnit(t, src)
	b := u.b
	idT, intT := b.ID(), b.Builtin("int")
	c := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "c", Type: idT, Local: true, Span: u.Span("id c")})
	k := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "k", Type: intT, Local: true, Span: u.Span("int k")})
	x := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "x", Type: idT, Local: true, Span: u.Span("id x")})

	one := b.NewExpr(ast.Expr{Kind: ast.ExprIntLit, Span: at(u.Span("case 1"), 5, 1), Type: intT, Text: "1"})
	brk := b.NewStmt(ast.Stmt{Kind: ast.StmtBreak, Span: u.Span("break")})
	cs := b.NewStmt(ast.Stmt{Kind: ast.StmtCase, Span: u.Cover("case 1", "break;"), Expr: one, Body: brk})
	sw := b.NewStmt(ast.Stmt{
		Kind: ast.StmtSwitch, Span: u.Cover("switch", "}"),
		Cond: b.DeclRef(at(u.Span("(k)"), 1, 1), k),
		Body: b.Compound(u.Cover("{\n\t\tcase", "}"), cs),
	})
	cont := b.NewStmt(ast.Stmt{Kind: ast.StmtContinue, Span: u.Span("continue")})
	loop := b.NewStmt(ast.Stmt{
		Kind:   ast.StmtForIn,
		Span:   u.Cover("for (", "continue;\n\t}"),
		Elem:   b.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: u.Span("id x"), Decls: []ast.DeclID{x}}),
		Expr:   b.DeclRef(at(u.Span("in c"), 3, 1), c),
		RParen: at(u.Span("in c) {"), 4, 1),
		Body:   b.Compound(u.Cover("{\n\t\tswitch", "continue;\n\t}"), sw, cont),
	})
	b.PushTop(b.NewDecl(ast.Decl{
		Kind: ast.DeclFunction, Name: "f", Span: u.Cover("void f", "}\n}"), TypeSpan: u.Span("void"),
		Type: b.Func(b.Builtin("void"), false, idT, intT), Params: []ast.DeclID{c, k},
		Body: b.Compound(u.Cover("{\n\tfor", "}\n}"), loop),
	}))

	res, bag := u.run(t)
	mustContain(t, res.Body,
		"switch (k) {\n\t\tcase 1:\n\t\t\tbreak;\n\t\t}\n\t\tgoto __continue_label_1;\n\t};\n\t__continue_label_1: ;",
		"__break_label_1: ;",
	)
	if strings.Contains(res.Body, "goto __break_label") {
		t.Errorf("break of the inner switch must stay a break:\n%s", res.Body)
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}

func TestClassChainStructsInOrder(t *testing.T) {
	src := "@interface A : NSObject {\n\tint a;\n}\n@end\n" +
		"@interface B : A {\n\tint b;\n}\n@end\n" +
		"@interface C : B {\n\tint c;\n}\n@end\n"
	u := newUnit(t, src)
	b := u.b
	intT := b.Builtin("int")
	root := b.NewDecl(ast.Decl{Kind: ast.DeclInterface, Name: "NSObject", Imported: true})
	b.PushTop(root)
	parent := root
	for i, name := range []string{"A", "B", "C"} {
		field := strings.ToLower(name)
		iface := b.NewDecl(ast.Decl{
			Kind: ast.DeclInterface, Name: name, Super: parent,
			Span:      u.Cover("@interface "+name, "@end"),
			IvarBlock: u.Cover("{\n\tint "+field, "}"),
			AtEnd:     u.SpanN("@end", i),
		})
		b.Unit.Decl(iface).Ivars = []ast.DeclID{b.NewDecl(ast.Decl{
			Kind: ast.DeclIvar, Name: field, Type: intT, Container: iface,
			Span: u.Span("int " + field), Access: ast.AccessProtected,
		})}
		b.PushTop(iface)
		parent = iface
	}

	res, bag := u.run(t)
	structs := []string{
		"\nstruct A_IMPL {\n\tint a;\n};\n",
		"\nstruct B_IMPL {\n\tstruct A_IMPL A_IVARS;\n\tint b;\n};\n",
		"\nstruct C_IMPL {\n\tstruct B_IMPL B_IVARS;\n\tint c;\n};\n",
	}
	mustContain(t, res.Body, structs...)
	prev := -1
	for _, s := range structs {
		i := strings.Index(res.Body, s)
		if i <= prev {
			t.Fatalf("class structs out of order at %q\n%s", s, res.Body)
		}
		prev = i
	}
	for _, name := range []string{"A", "B", "C"} {
		if n := strings.Count(res.Body, "struct "+name+"_IMPL {"); n != 1 {
			t.Errorf("struct %s_IMPL written %d times", name, n)
		}
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}

func TestSiblingBlocksShareByref(t *testing.T) {
	src := "void k(void) {\n\t__block int n = 0;\n\tvoid (^p)(void) = ^{ n = 1; };\n\tvoid (^q)(void) = ^{ n = 2; };\n}\n"
	u := newUnit(t, src)
	b := u.b
	intT, voidT := b.Builtin("int"), b.Builtin("void")
	blockT := b.Block(b.Func(voidT, false))

	zero := b.NewExpr(ast.Expr{Kind: ast.ExprIntLit, Span: at(u.Span("= 0"), 2, 1), Type: intT, Text: "0"})
	n := b.NewDecl(ast.Decl{Kind: ast.DeclVar, Name: "n", Type: intT, Local: true, ByRef: true, Span: u.Cover("__block", "0"), Init: zero})
	stmts := []ast.StmtID{b.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: u.Cover("__block", "0"), Decls: []ast.DeclID{n}})}

	for _, v := range []struct{ name, val string }{{"p", "1"}, {"q", "2"}} {
		assign := "n = " + v.val
		lit := b.NewExpr(ast.Expr{
			Kind: ast.ExprBinary, Span: u.Span(assign), Type: intT, Op: "=",
			LHS: b.DeclRef(u.Span(assign).WithLen(1), n),
			RHS: b.NewExpr(ast.Expr{Kind: ast.ExprIntLit, Span: at(u.Span(assign), 4, 1), Type: intT, Text: v.val}),
		})
		blk := b.NewExpr(ast.Expr{
			Kind: ast.ExprBlock, Span: u.Cover("^{ "+assign, "}"), Type: blockT,
			Body: b.Compound(u.Cover("{ "+assign, "}"), b.ExprStmt(lit)),
		})
		head := "void (^" + v.name + ")"
		bv := b.NewDecl(ast.Decl{
			Kind: ast.DeclVar, Name: v.name, Type: blockT, Local: true,
			Span: u.Cover(head, "}"), TypeSpan: u.Span(head).WithLen(4), Init: blk,
		})
		stmts = append(stmts, b.NewStmt(ast.Stmt{Kind: ast.StmtDecl, Span: u.Cover(head, "}"), Decls: []ast.DeclID{bv}}))
	}
	b.PushTop(b.NewDecl(ast.Decl{
		Kind: ast.DeclFunction, Name: "k", Span: u.Cover("void k", "2; };\n}"), TypeSpan: u.Span("void"),
		Type: b.Func(voidT, false), Body: b.Compound(u.Cover("{\n\t__block", "2; };\n}"), stmts...),
	}))

	rw, bag := u.rewriter(Options{})
	res := rw.Run()
	mustContain(t, res.Body,
		"__k_block_impl_0((void *)__k_block_func_0, &__k_block_desc_0_DATA, (__Block_byref_n_0 *)&n, 570425344)",
		"__k_block_impl_1((void *)__k_block_func_1, &__k_block_desc_1_DATA, (__Block_byref_n_0 *)&n, 570425344)",
		"(n->__forwarding->n) = 1;",
		"(n->__forwarding->n) = 2;",
	)
	if got := strings.Count(res.Body, "struct __Block_byref_n_0 {"); got != 1 {
		t.Errorf("byref struct written %d times, want 1", got)
	}
	if strings.Contains(res.Body, "__Block_byref_n_1") {
		t.Errorf("the shared variable got a second byref number")
	}
	blocks := rw.Sess.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("block records: %+v", blocks)
	}
	for i, blk := range blocks {
		if len(blk.ByRef) != 1 || blk.ByRef[0] != "n" || len(blk.ByCopy) != 0 {
			t.Errorf("block %d captures: %+v", i, blk)
		}
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics: %v", codes(bag))
	}
}
