package synth

import (
	"strconv"
	"strings"

	"objrw/internal/ast"
	"objrw/internal/cgen"
	"objrw/internal/objc"
)

// Block runtime flags.
const (
	fieldIsObject = 3
	fieldIsBlock  = 7
	fieldIsByref  = 8
	byrefCaller   = 128

	hasCopyDispose = 1 << 25
	hasDescriptor  = 1 << 29
)

// Block is one block literal ready to be hoisted out of its function.
type Block struct {
	Func  string // name the hoisted symbols are derived from
	Index int
	Expr  ast.ExprID

	ByCopy []ast.DeclID
	ByRef  []ast.DeclID
	// Imported need copy/dispose helpers: byref variables, objects, blocks.
	Imported []ast.DeclID
	// Nested byref captures already held by address in an enclosing block.
	Nested map[ast.DeclID]bool
	// Global is set for literals in the initializer of a global variable.
	Global bool
	// Body is the rewritten body text, braces included.
	Body string
}

func (b *Block) name(kind string) string {
	return "__" + b.Func + "_block_" + kind + "_" + strconv.Itoa(b.Index)
}

func (b *Block) Tag() string      { return b.name("impl") }
func (b *Block) FuncName() string { return b.name("func") }
func (b *Block) Desc() string     { return b.name("desc") }

func (b *Block) hasCopy() bool { return len(b.Imported) > 0 }

func (b *Block) isByref(d ast.DeclID) bool {
	for _, r := range b.ByRef {
		if r == d {
			return true
		}
	}
	return false
}

func (s *Synth) decl(id ast.DeclID) *ast.Decl {
	d := s.Unit.Decl(id)
	if d == nil {
		objc.Invariant("block", "missing declaration %d", id)
	}
	return d
}

// Hoisted returns the file-scope text of b: implementation struct, function,
// copy/dispose helpers when needed and the descriptor.
func (s *Synth) Hoisted(b *Block) string {
	var sb strings.Builder
	sb.WriteString(s.BlockImpl(b))
	sb.WriteString(s.BlockFunc(b))
	if b.hasCopy() {
		sb.WriteString(s.BlockHelpers(b))
	}
	sb.WriteString(s.BlockDescriptor(b))
	return sb.String()
}

// BlockImpl is the struct holding the captured state plus its constructor.
func (s *Synth) BlockImpl(b *Block) string {
	tag, desc := b.Tag(), b.Desc()
	var sb strings.Builder
	sb.WriteString("\nstruct " + tag + " {\n  struct __block_impl impl;\n")
	sb.WriteString("  struct " + desc + "* Desc;\n")

	ctor := "  " + tag + "(void *fp, struct " + desc + " *desc"
	var inits []string
	for _, id := range b.ByCopy {
		d := s.decl(id)
		if s.Unit.IsBlockPointer(d.Type) {
			sb.WriteString("  struct __block_impl *" + d.Name + ";\n")
			ctor += ", void *_" + d.Name
			inits = append(inits, d.Name+"((struct __block_impl *)_"+d.Name+")")
			continue
		}
		field, arg := s.copyDecl(d, d.Name), s.copyDecl(d, "_"+d.Name)
		sb.WriteString("  " + field + ";\n")
		ctor += ", " + arg
		inits = append(inits, d.Name+"(_"+d.Name+")")
	}
	for _, id := range b.ByRef {
		d := s.decl(id)
		typ := s.Sess.ByrefTypeName(id)
		sb.WriteString("  struct " + typ + " *" + d.Name + "; // by ref\n")
		ctor += ", struct " + typ + " *_" + d.Name
		inits = append(inits, d.Name+"(_"+d.Name+"->__forwarding)")
	}
	ctor += ", int flags=0)"
	if len(inits) > 0 {
		ctor += " : " + strings.Join(inits, ", ")
	}
	ctor += " {\n"
	if b.Global {
		ctor += "    impl.isa = &_NSConcreteGlobalBlock;\n"
	} else {
		ctor += "    impl.isa = &_NSConcreteStackBlock;\n"
	}
	ctor += "    impl.Flags = flags;\n    impl.FuncPtr = fp;\n"
	ctor += "    Desc = desc;\n  }\n"
	sb.WriteString(ctor)
	sb.WriteString("};\n")
	return sb.String()
}

// copyDecl declares a by-copy capture; local statics and externs are held
// through a pointer.
func (s *Synth) copyDecl(d *ast.Decl, name string) string {
	if d.IsLocalStaticOrExtern() {
		name = "*" + name
		if t := s.Unit.Type(d.Type); t != nil && (t.Kind == ast.TypeArray || t.Kind == ast.TypeFunction) {
			name = "(" + name + ")"
		}
	}
	return s.Types.Decl(d.Type, name, cgen.StyleSource)
}

// BlockFunc is the static function holding the block body.
func (s *Synth) BlockFunc(b *Block) string {
	e := s.mustExpr(b.Expr, ast.ExprBlock)
	fn := s.Unit.FunctionOf(e.Type)
	if fn == nil {
		objc.Invariant("block", "block literal %d has no function type", b.Expr)
	}
	self := "struct " + b.Tag() + " *__cself"
	params := "(" + self + ")"
	if !fn.NoProto && len(e.Params) > 0 {
		parts := []string{self}
		for _, p := range e.Params {
			d := s.decl(p)
			parts = append(parts, s.Types.Decl(d.Type, d.Name, cgen.FuncPtrBlocks))
		}
		if fn.Variadic {
			parts = append(parts, "...")
		}
		params = "(" + strings.Join(parts, ", ") + ")"
	}

	var sb strings.Builder
	sb.WriteString("static " + s.Types.Decl(fn.Result, b.FuncName()+params, cgen.FuncPtrBlocks) + " {\n")
	for _, id := range b.ByRef {
		d := s.decl(id)
		sb.WriteString("  " + s.Sess.ByrefTypeName(id) + " *" + d.Name + " = __cself->" + d.Name + "; // bound by ref\n")
	}
	for _, id := range b.ByCopy {
		d := s.decl(id)
		if s.Unit.IsBlockPointer(d.Type) {
			sb.WriteString("  " + s.Types.Decl(d.Type, d.Name, cgen.FuncPtrBlocks) +
				" = (" + s.Types.Type(d.Type, cgen.FuncPtrBlocks) + ")__cself->" + d.Name + "; // bound by copy\n")
			continue
		}
		sb.WriteString("  " + s.copyDecl(d, d.Name) + " = __cself->" + d.Name + "; // bound by copy\n")
	}
	body := b.Body
	if i := strings.IndexByte(body, '{'); i >= 0 {
		body = body[i+1:]
	}
	sb.WriteString(body)
	sb.WriteString("\n")
	return sb.String()
}

func (s *Synth) fieldFlag(b *Block, id ast.DeclID) string {
	switch {
	case b.isByref(id):
		return strconv.Itoa(fieldIsByref) + "/*BLOCK_FIELD_IS_BYREF*/"
	case s.Unit.IsBlockPointer(s.decl(id).Type):
		return strconv.Itoa(fieldIsBlock) + "/*BLOCK_FIELD_IS_BLOCK*/"
	}
	return strconv.Itoa(fieldIsObject) + "/*BLOCK_FIELD_IS_OBJECT*/"
}

// BlockHelpers are the copy and dispose functions for captures the runtime
// must retain.
func (s *Synth) BlockHelpers(b *Block) string {
	ref := "struct " + b.Tag()
	var sb strings.Builder
	sb.WriteString("static void " + b.name("copy") + "(" + ref + "*dst, " + ref + "*src) {")
	for _, id := range b.Imported {
		name := s.decl(id).Name
		sb.WriteString("_Block_object_assign((void*)&dst->" + name + ", (void*)src->" + name + ", " + s.fieldFlag(b, id) + ");")
	}
	sb.WriteString("}\n")
	sb.WriteString("\nstatic void " + b.name("dispose") + "(" + ref + "*src) {")
	for _, id := range b.Imported {
		name := s.decl(id).Name
		sb.WriteString("_Block_object_dispose((void*)src->" + name + ", " + s.fieldFlag(b, id) + ");")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// BlockDescriptor is the static descriptor with the struct size and helpers.
func (s *Synth) BlockDescriptor(b *Block) string {
	tag, desc := b.Tag(), b.Desc()
	var sb strings.Builder
	sb.WriteString("\nstatic struct " + desc + " {\n  unsigned long reserved;\n  unsigned long Block_size;\n")
	if b.hasCopy() {
		sb.WriteString("  void (*copy)(struct " + tag + "*, struct " + tag + "*);\n")
		sb.WriteString("  void (*dispose)(struct " + tag + "*);\n")
	}
	sb.WriteString("} " + desc + "_DATA = { 0, sizeof(struct " + tag + ")")
	if b.hasCopy() {
		sb.WriteString(", " + b.name("copy") + ", " + b.name("dispose"))
	}
	sb.WriteString("};\n")
	return sb.String()
}

// BlockInit is the expression replacing the literal: the address of a
// constructed implementation struct cast to a function pointer.
func (s *Synth) BlockInit(b *Block) string {
	e := s.mustExpr(b.Expr, ast.ExprBlock)
	n := s.Nodes
	args := []cgen.NodeID{
		n.Cast("void *", n.Ident(b.FuncName())),
		n.AddrOf(n.Ident(b.Desc() + "_DATA")),
	}
	for _, id := range b.ByCopy {
		d := s.decl(id)
		if s.Unit.IsBlockPointer(d.Type) {
			args = append(args, n.Cast("void *", n.Ident(d.Name)))
			continue
		}
		x := n.Ident(d.Name)
		if d.IsLocalStaticOrExtern() {
			x = n.AddrOf(x)
		}
		args = append(args, x)
	}
	for _, id := range b.ByRef {
		d := s.decl(id)
		x := n.Ident(d.Name)
		if !b.Nested[id] {
			x = n.AddrOf(x)
		}
		args = append(args, n.Cast(s.Sess.ByrefTypeName(id)+" *", x))
	}
	if b.hasCopy() {
		args = append(args, n.Int(strconv.Itoa(hasCopyDispose|hasDescriptor)))
	}
	return s.print(n.Cast(s.Types.Type(e.Type, cgen.StyleC), n.AddrOf(n.CallName(b.Tag(), args...))))
}

// BlockCall rewrites a call through a block pointer into a call of the
// stored function pointer with the block itself as first argument.
func (s *Synth) BlockCall(id ast.ExprID) string {
	e := s.mustExpr(id, ast.ExprCall)
	return s.print(s.blockCall(e, e.Callee))
}

func (s *Synth) blockCall(call *ast.Expr, callee ast.ExprID) cgen.NodeID {
	n := s.Nodes
	c := s.Unit.Expr(callee)
	if c == nil {
		objc.Invariant("block call", "missing callee %d", callee)
	}
	switch c.Kind {
	case ast.ExprParen:
		return s.blockCall(call, c.Operand)
	case ast.ExprConditional:
		return n.Cond(s.sub(c.Cond), s.blockCall(call, c.LHS), s.blockCall(call, c.RHS))
	}
	bt := c.Type
	if c.Conv.IsValid() {
		bt = c.Conv
	}
	fn := s.Unit.FunctionOf(bt)
	if fn == nil || !s.Unit.IsBlockPointer(bt) {
		objc.Invariant("block call", "callee %d is not a block pointer", callee)
	}
	params := []string{"__block_impl *"}
	if !fn.NoProto {
		for _, p := range fn.Params {
			params = append(params, s.Types.Type(p, cgen.StyleC))
		}
	}
	fp := s.Types.Decl(call.Type, "(*)("+strings.Join(params, ", ")+")", cgen.StyleC)

	blk := n.Cast("__block_impl *", s.sub(callee))
	target := n.Paren(n.Cast(fp, n.Member(n.Paren(blk), "FuncPtr", true)))
	args := []cgen.NodeID{blk}
	for _, a := range call.Args {
		args = append(args, s.sub(a))
	}
	return n.Call(target, args...)
}

// ByrefRef is the access to a __block variable through its forwarding
// pointer. Inside a block the variable is a pointer to the byref struct.
func (s *Synth) ByrefRef(v ast.DeclID, inBlock bool) string {
	d := s.decl(v)
	n := s.Nodes
	fwd := n.Member(n.Ident(d.Name), "__forwarding", inBlock)
	return s.print(n.Paren(n.Member(fwd, d.Name, true)))
}

// LocalExternRef dereferences a captured local static or extern.
func (s *Synth) LocalExternRef(v ast.DeclID) string {
	n := s.Nodes
	return s.print(n.Paren(n.Deref(n.Ident(s.decl(v).Name))))
}

// --- __block variables ---

// ByrefNeedsCopy reports whether the runtime must retain the variable held
// by a byref struct: objects and blocks.
func (s *Synth) ByrefNeedsCopy(v ast.DeclID) bool {
	t := s.decl(v).Type
	return s.Unit.IsObjCObjectPointer(t) || s.Unit.IsBlockPointer(t)
}

// ByrefFlag is the object flag passed to the byref copy/dispose helpers.
func (s *Synth) ByrefFlag(v ast.DeclID) int {
	if s.Unit.IsBlockPointer(s.decl(v).Type) {
		return byrefCaller | fieldIsBlock
	}
	return byrefCaller | fieldIsObject
}

// ByrefStruct defines the struct wrapping a __block variable.
func (s *Synth) ByrefStruct(v ast.DeclID) string {
	d := s.decl(v)
	typ := s.Sess.ByrefTypeName(v)
	var sb strings.Builder
	sb.WriteString("struct " + typ + " {\n  void *__isa;\n")
	sb.WriteString(typ + " *__forwarding;\n int __flags;\n int __size;\n")
	if s.ByrefNeedsCopy(v) {
		sb.WriteString(" void (*__Block_byref_id_object_copy)(void*, void*);\n")
		sb.WriteString(" void (*__Block_byref_id_object_dispose)(void*);\n")
	}
	sb.WriteString(" " + s.Types.Decl(d.Type, d.Name, cgen.FuncPtrBlocks) + ";\n};\n")
	return sb.String()
}

// ByrefHelpers are the shared copy/dispose functions for byref structs
// holding a retained value with the given flag.
func (s *Synth) ByrefHelpers(flag int) string {
	ptr := s.Sess.Opts.PointerSize
	off := strconv.Itoa(4*ptr + 2*4)
	f := strconv.Itoa(flag)
	var sb strings.Builder
	sb.WriteString("static void __Block_byref_id_object_copy_" + f + "(void *dst, void *src) {\n")
	sb.WriteString(" _Block_object_assign((char*)dst + " + off + ", *(void * *) ((char*)src + " + off + "), " + f + ");\n}\n")
	sb.WriteString("static void __Block_byref_id_object_dispose_" + f + "(void *src) {\n")
	sb.WriteString(" _Block_object_dispose(*(void * *) ((char*)src + " + off + "), " + f + ");\n}\n")
	return sb.String()
}

// ByrefDecl is the replacement of a __block declaration. Without an
// initializer it is the complete statement; with one it is the prefix up to
// the initializer and the caller closes the brace before the ';'.
func (s *Synth) ByrefDecl(v ast.DeclID, hasInit bool) string {
	d := s.decl(v)
	typ := s.Sess.ByrefTypeName(v)
	flags := 0
	copyFns := ""
	if s.ByrefNeedsCopy(v) {
		flags = hasCopyDispose
		f := strconv.Itoa(s.ByrefFlag(v))
		copyFns = "__Block_byref_id_object_copy_" + f + ", __Block_byref_id_object_dispose_" + f
	}
	out := typ + " " + d.Name + " = {(void*)0,(" + typ + " *)&" + d.Name + ", " +
		strconv.Itoa(flags) + ", sizeof(" + typ + ")"
	if !hasInit {
		if copyFns != "" {
			out += ", " + copyFns
		}
		return out + "};\n"
	}
	out += ", "
	if copyFns != "" {
		out += copyFns + ", "
	}
	return out
}
