package emit

import (
	"errors"
	"strings"
	"testing"

	"objrw/internal/ast"
	"objrw/internal/layout"
	"objrw/internal/objc"
)

type classFixture struct {
	b      *ast.Builder
	root   ast.DeclID
	foo    ast.DeclID
	ivar   ast.DeclID
	getter ast.DeclID
	setter ast.DeclID
	prop   ast.DeclID
	impl   ast.DeclID
}

// newClass builds NSObject <- Foo { int x; } with a nonatomic property x
// and an empty @implementation that synthesizes it.
func newClass(t *testing.T) *classFixture {
	t.Helper()
	b := ast.NewBuilder("t.m", ast.Hints{})
	intT := b.Builtin("int")
	f := &classFixture{b: b}
	f.root = b.NewDecl(ast.Decl{Kind: ast.DeclInterface, Name: "NSObject", Imported: true})
	f.foo = b.NewDecl(ast.Decl{Kind: ast.DeclInterface, Name: "Foo", Super: f.root})
	f.ivar = b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "x", Type: intT, Container: f.foo, Access: ast.AccessProtected})
	f.getter = b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Selector: "x", Result: intT, Container: f.foo, Implicit: true})
	param := b.NewDecl(ast.Decl{Kind: ast.DeclParam, Name: "x", Type: intT})
	f.setter = b.NewDecl(ast.Decl{
		Kind: ast.DeclMethod, Instance: true, Selector: "setX:", Result: b.Builtin("void"),
		Params: []ast.DeclID{param}, Container: f.foo, Implicit: true,
	})
	f.prop = b.NewDecl(ast.Decl{
		Kind: ast.DeclProperty, Name: "x", Type: intT, Container: f.foo, Attrs: ast.PropNonatomic,
		GetterMethod: f.getter, SetterMethod: f.setter,
	})
	fd := b.Unit.Decl(f.foo)
	fd.Ivars = []ast.DeclID{f.ivar}
	fd.Methods = []ast.DeclID{f.getter, f.setter}
	fd.Props = []ast.DeclID{f.prop}

	f.impl = b.NewDecl(ast.Decl{Kind: ast.DeclImplementation, Name: "Foo", Class: f.foo})
	pi := b.NewDecl(ast.Decl{Kind: ast.DeclPropertyImpl, Property: f.prop, Ivar: f.ivar, Container: f.impl})
	b.Unit.Decl(f.impl).PropImpls = []ast.DeclID{pi}
	b.PushTop(f.root)
	b.PushTop(f.foo)
	b.PushTop(f.impl)
	return f
}

func (f *classFixture) emitter(opts objc.Options) *Emitter {
	sess := objc.NewSession(f.b.Unit, opts)
	return New(sess, layout.New(layout.Default64(), f.b.Unit))
}

func mustContain(t *testing.T, got string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(got, p) {
			t.Errorf("output lacks %q\n--- output ---\n%s", p, got)
		}
	}
}

func TestClassTypedef(t *testing.T) {
	want := "#ifndef _REWRITER_typedef_Foo\n#define _REWRITER_typedef_Foo\ntypedef struct objc_object Foo;\n#endif\n"
	if got := ClassTypedef("Foo"); got != want {
		t.Fatalf("ClassTypedef = %q, want %q", got, want)
	}
}

func TestMethodHeader(t *testing.T) {
	f := newClass(t)
	e := f.emitter(objc.Options{})

	if got, want := e.MethodHeader(f.getter), "\nstatic int _I_Foo_x(Foo * self, SEL _cmd) "; got != want {
		t.Errorf("getter header = %q, want %q", got, want)
	}
	if got, want := e.MethodHeader(f.setter), "\nstatic void _I_Foo_setX_(Foo * self, SEL _cmd, int x) "; got != want {
		t.Errorf("setter header = %q, want %q", got, want)
	}

	// после синтеза структуры self получает ключевое слово struct
	e.Sess.MarkSynthesized(f.foo)
	if got := e.MethodHeader(f.getter); !strings.Contains(got, "(struct Foo * self, SEL _cmd)") {
		t.Errorf("synthesized header = %q", got)
	}
}

func TestMethodHeaderClassMethod(t *testing.T) {
	f := newClass(t)
	mk := f.b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Selector: "make", Result: f.b.ID(), Container: f.impl})
	e := f.emitter(objc.Options{})
	if got, want := e.MethodHeader(mk), "\nstatic id _C_Foo_make(Class self, SEL _cmd) "; got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
}

func TestIvarOffset(t *testing.T) {
	f := newClass(t)
	if got, want := f.emitter(objc.Options{}).IvarOffset(f.ivar), "__OFFSETOFIVAR__(struct Foo, x)"; got != want {
		t.Errorf("offset = %q, want %q", got, want)
	}
	if got, want := f.emitter(objc.Options{MSExtensions: true}).IvarOffset(f.ivar), "__OFFSETOFIVAR__(struct Foo_IMPL, x)"; got != want {
		t.Errorf("ms offset = %q, want %q", got, want)
	}

	bits := f.b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "flag", Type: f.b.Builtin("unsigned int"), Container: f.foo, HasBitWidth: true, BitWidth: 1})
	if got := f.emitter(objc.Options{}).IvarOffset(bits); got != "0" {
		t.Errorf("bitfield offset = %q, want 0", got)
	}
}

func TestAccessorsNonatomic(t *testing.T) {
	f := newClass(t)
	e := f.emitter(objc.Options{})
	impl := f.b.Unit.Decl(f.impl)
	got := e.Accessors(impl, impl.PropImpls[0])
	want := "\nstatic int _I_Foo_x(Foo * self, SEL _cmd) { return ((struct Foo_IMPL *)self)->x; }" +
		"\nstatic void _I_Foo_setX_(Foo * self, SEL _cmd, int x) { ((struct Foo_IMPL *)self)->x = x; }"
	if got != want {
		t.Fatalf("accessors:\n%q\nwant:\n%q", got, want)
	}
}

func TestAccessorsSkipDefinedAndDynamic(t *testing.T) {
	f := newClass(t)
	def := f.b.NewDecl(ast.Decl{
		Kind: ast.DeclMethod, Instance: true, Selector: "x", Result: f.b.Builtin("int"), Container: f.impl,
		Body: f.b.Compound(f.b.Unit.Decl(f.foo).Span),
	})
	impl := f.b.Unit.Decl(f.impl)
	impl.Methods = []ast.DeclID{def}

	e := f.emitter(objc.Options{})
	got := e.Accessors(impl, impl.PropImpls[0])
	if strings.Contains(got, "_I_Foo_x(") {
		t.Errorf("getter defined by the implementation was synthesized again:\n%s", got)
	}
	mustContain(t, got, "_I_Foo_setX_(")

	f.b.Unit.Decl(impl.PropImpls[0]).Dynamic = true
	if got := e.Accessors(impl, impl.PropImpls[0]); got != "" {
		t.Errorf("@dynamic produced %q", got)
	}
}

func TestAccessorsRuntimeHelpers(t *testing.T) {
	f := newClass(t)
	pd := f.b.Unit.Decl(f.prop)
	pd.Attrs = ast.PropRetain
	idT := f.b.ID()
	pd.Type = idT
	f.b.Unit.Decl(f.ivar).Type = idT
	f.b.Unit.Decl(f.getter).Result = idT
	f.b.Unit.Decl(f.b.Unit.Decl(f.setter).Params[0]).Type = idT

	e := f.emitter(objc.Options{})
	impl := f.b.Unit.Decl(f.impl)
	got := e.Accessors(impl, impl.PropImpls[0])
	mustContain(t, got,
		"extern \"C\" __declspec(dllimport) id objc_getProperty(id, SEL, long, bool);",
		"typedef id _TYPE;\nreturn (_TYPE)objc_getProperty(self, _cmd, __OFFSETOFIVAR__(struct Foo, x), 1); }",
		"extern \"C\" __declspec(dllimport) void objc_setProperty (id, SEL, long, id, bool, bool);",
		"objc_setProperty (self, _cmd, __OFFSETOFIVAR__(struct Foo, x), (id)x, 1, 0); }",
	)

	// хелперы объявляются один раз на единицу
	again := e.Accessors(impl, impl.PropImpls[0])
	if strings.Contains(again, "objc_getProperty(id, SEL") || strings.Contains(again, "objc_setProperty (id, SEL") {
		t.Errorf("runtime helpers declared twice:\n%s", again)
	}
}

func TestClassSection(t *testing.T) {
	f := newClass(t)
	e := f.emitter(objc.Options{})
	if !e.NeedsStruct(f.foo) {
		t.Fatalf("Foo has ivars and needs a struct")
	}
	if e.NeedsStruct(f.root) {
		t.Fatalf("NSObject has no ivars")
	}
	e.Sess.ReferenceIvar(f.ivar)
	got := e.ClassSection(f.foo)
	want := ClassTypedef("Foo") +
		"\nextern unsigned long OBJC_IVAR_$_Foo_x;" +
		"\nstruct Foo_IMPL {\n\tint x;\n};\n"
	if got != want {
		t.Fatalf("section:\n%q\nwant:\n%q", got, want)
	}
	if !e.Sess.IsSynthesized(f.foo) {
		t.Errorf("ClassSection must mark Foo synthesized")
	}
}

func TestInternalStructEmbedsSuper(t *testing.T) {
	f := newClass(t)
	bar := f.b.NewDecl(ast.Decl{Kind: ast.DeclInterface, Name: "Bar", Super: f.foo})
	e := f.emitter(objc.Options{})
	if e.NeedsStruct(bar) {
		t.Fatalf("Bar needs no struct before Foo is synthesized")
	}
	e.InternalStruct(f.foo)
	if !e.NeedsStruct(bar) {
		t.Fatalf("Bar inherits the struct of Foo")
	}
	got := e.InternalStruct(bar)
	if want := "\nstruct Bar_IMPL {\n\tstruct Foo_IMPL Foo_IVARS;\n};\n"; got != want {
		t.Fatalf("struct = %q, want %q", got, want)
	}
}

func TestInternalStructInlineRecord(t *testing.T) {
	f := newClass(t)
	b := f.b
	rec := b.NewDecl(ast.Decl{Kind: ast.DeclRecord, Name: "pt"})
	b.Unit.Decl(rec).Fields = []ast.DeclID{
		b.NewDecl(ast.Decl{Kind: ast.DeclField, Name: "a", Type: b.Builtin("int"), Container: rec}),
	}
	recT := b.Record("pt", rec, false)
	b.Unit.Decl(f.foo).Ivars = append(b.Unit.Decl(f.foo).Ivars,
		b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "p", Type: recT, Container: f.foo}),
		b.NewDecl(ast.Decl{Kind: ast.DeclIvar, Name: "q", Type: b.Array(recT, 2), Container: f.foo}),
	)
	got := f.emitter(objc.Options{}).InternalStruct(f.foo)
	want := "\nstruct Foo_IMPL {\n\tint x;\n" +
		"\n\tstruct pt {\n\tint a;\n\t} p;\n" +
		"\n\tstruct pt q[2];\n};\n"
	if got != want {
		t.Fatalf("struct:\n%q\nwant:\n%q", got, want)
	}
}

func TestProtocolWrittenOnce(t *testing.T) {
	b := ast.NewBuilder("t.m", ast.Hints{})
	base := b.NewDecl(ast.Decl{Kind: ast.DeclProtocol, Name: "Base"})
	p := b.NewDecl(ast.Decl{Kind: ast.DeclProtocol, Name: "P", Protocols: []ast.DeclID{base}})
	b.Unit.Decl(p).Methods = []ast.DeclID{
		b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Selector: "run", Result: b.Builtin("void"), Container: p}),
		b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Instance: true, Optional: true, Selector: "stop", Result: b.Builtin("void"), Container: p}),
	}
	sess := objc.NewSession(b.Unit, objc.Options{})
	e := New(sess, layout.New(layout.Default64(), b.Unit))

	var sb strings.Builder
	e.Protocol(&sb, p)
	got := sb.String()
	mustContain(t, got,
		"struct _protocol_t {",
		"static struct _protocol_t _OBJC_PROTOCOL_Base",
		"_OBJC_PROTOCOL_REFS_P",
		"\t&_OBJC_PROTOCOL_Base\n};\n",
		"_OBJC_PROTOCOL_INSTANCE_METHODS_P",
		"_OBJC_PROTOCOL_OPT_INSTANCE_METHODS_P",
		"(const char **)&_OBJC_PROTOCOL_METHOD_TYPES_P\n};\n",
	)
	if strings.Index(got, "_protocol_t _OBJC_PROTOCOL_Base") > strings.Index(got, "_protocol_t _OBJC_PROTOCOL_P"+coalesced) {
		t.Errorf("super protocol must be written first")
	}
	if !sess.ProtocolEmitted(p) || !sess.ProtocolEmitted(base) {
		t.Errorf("both protocols must be marked emitted")
	}

	sb.Reset()
	e.Protocol(&sb, p)
	if sb.Len() != 0 {
		t.Errorf("second Protocol call wrote %q", sb.String())
	}
}

func TestMetadataClassAndCategory(t *testing.T) {
	f := newClass(t)
	b := f.b
	cat := b.NewDecl(ast.Decl{Kind: ast.DeclCategory, Name: "Extra", Class: f.foo})
	catImpl := b.NewDecl(ast.Decl{Kind: ast.DeclCategoryImpl, Name: "Extra", Class: f.foo})
	b.Unit.Decl(catImpl).Methods = []ast.DeclID{
		b.NewDecl(ast.Decl{Kind: ast.DeclMethod, Selector: "make", Result: b.ID(), Container: catImpl}),
	}
	b.PushTop(cat)
	b.PushTop(catImpl)

	e := f.emitter(objc.Options{})
	e.InternalStruct(f.foo)
	e.Sess.AddClassImpl(f.impl)
	e.Sess.AddCategoryImpl(catImpl)
	got := e.Metadata()

	mustContain(t, got,
		"struct _class_t {",
		"OBJC_IVAR_$_Foo_x __attribute__ ((used, section (\"__DATA,__objc_ivar\"))) = __OFFSETOFIVAR__(struct Foo_IMPL, x);",
		"_OBJC_$_INSTANCE_VARIABLES_Foo",
		"(void *)_I_Foo_x",
		"(void *)_I_Foo_setX_",
		"_OBJC_$_PROP_LIST_Foo",
		"sizeof(struct Foo_IMPL)",
		"extern struct _class_t OBJC_METACLASS_$_NSObject;",
		"__declspec(dllexport) struct _class_t OBJC_CLASS_$_Foo",
		"(void *)_C_Foo_Extra_make",
		"static struct _category_t _OBJC_$_CATEGORY_Foo_$_Extra",
		"static struct _class_t *L_OBJC_LABEL_CLASS_$ [1]",
		"\t&OBJC_CLASS_$_Foo,\n};\n",
		"static struct _category_t *L_OBJC_LABEL_CATEGORY_$ [1]",
		"\t&_OBJC_$_CATEGORY_Foo_$_Extra,\n};\n",
	)
	if n := strings.Count(got, "struct _class_t {"); n != 1 {
		t.Errorf("metadata declarations written %d times", n)
	}
}

func TestCategoryWithoutInterfaceIsInvariant(t *testing.T) {
	f := newClass(t)
	catImpl := f.b.NewDecl(ast.Decl{Kind: ast.DeclCategoryImpl, Name: "Lost", Class: f.foo})
	e := f.emitter(objc.Options{})
	defer func() {
		err, _ := recover().(error)
		var ie *objc.InvariantError
		if !errors.As(err, &ie) {
			t.Fatalf("want an invariant violation, got %v", err)
		}
		if ie.Op != "CategoryMetadata" {
			t.Errorf("op = %q", ie.Op)
		}
	}()
	var sb strings.Builder
	e.CategoryMetadata(&sb, catImpl)
}
