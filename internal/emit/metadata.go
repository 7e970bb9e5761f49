package emit

import (
	"math/bits"
	"strconv"
	"strings"

	"objrw/internal/ast"
	"objrw/internal/objc"
)

// Class flags of _class_ro_t.
const (
	clsFlags = 0x0
	clsMeta  = 0x1
	clsRoot  = 0x2
)

const (
	objcConst = ` __attribute__ ((used, section ("__DATA,__objc_const")))`
	objcData  = ` __attribute__ ((used, section ("__DATA,__objc_data")))`
	coalesced = ` __attribute__ ((used, section ("__DATA,__datacoal_nt,coalesced")))`
)

func utostr(n int) string { return strconv.Itoa(n) }

// Declarations writes the metadata struct declarations once per unit.
func (e *Emitter) Declarations(sb *strings.Builder) {
	if !e.Sess.WriteMetadataDecls() {
		return
	}
	sb.WriteString("\nstruct _prop_t {\n")
	sb.WriteString("\tconst char *name;\n")
	sb.WriteString("\tconst char *attributes;\n")
	sb.WriteString("};\n")

	sb.WriteString("\nstruct _protocol_t;\n")

	sb.WriteString("\nstruct _objc_method {\n")
	sb.WriteString("\tstruct objc_selector * _cmd;\n")
	sb.WriteString("\tconst char *method_type;\n")
	sb.WriteString("\tvoid  *_imp;\n")
	sb.WriteString("};\n")

	sb.WriteString("\nstruct _protocol_t {\n")
	sb.WriteString("\tvoid * isa;  // NULL\n")
	sb.WriteString("\tconst char * const protocol_name;\n")
	sb.WriteString("\tconst struct _protocol_list_t * protocol_list; // super protocols\n")
	sb.WriteString("\tconst struct method_list_t * const instance_methods;\n")
	sb.WriteString("\tconst struct method_list_t * const class_methods;\n")
	sb.WriteString("\tconst struct method_list_t *optionalInstanceMethods;\n")
	sb.WriteString("\tconst struct method_list_t *optionalClassMethods;\n")
	sb.WriteString("\tconst struct _prop_list_t * properties;\n")
	sb.WriteString("\tconst unsigned int size;  // sizeof(struct _protocol_t)\n")
	sb.WriteString("\tconst unsigned int flags;  // = 0\n")
	sb.WriteString("\tconst char ** extendedMethodTypes;\n")
	sb.WriteString("};\n")

	sb.WriteString("\nstruct _ivar_t {\n")
	sb.WriteString("\tunsigned long int *offset;  // pointer to ivar offset location\n")
	sb.WriteString("\tconst char *name;\n")
	sb.WriteString("\tconst char *type;\n")
	sb.WriteString("\tunsigned int alignment;\n")
	sb.WriteString("\tunsigned int  size;\n")
	sb.WriteString("};\n")

	sb.WriteString("\nstruct _class_ro_t {\n")
	sb.WriteString("\tunsigned int const flags;\n")
	sb.WriteString("\tunsigned int instanceStart;\n")
	sb.WriteString("\tunsigned int const instanceSize;\n")
	sb.WriteString("\tunsigned int const reserved;  // only when building for 64bit targets\n")
	sb.WriteString("\tconst unsigned char * const ivarLayout;\n")
	sb.WriteString("\tconst char *const name;\n")
	sb.WriteString("\tconst struct _method_list_t * const baseMethods;\n")
	sb.WriteString("\tconst struct _objc_protocol_list *const baseProtocols;\n")
	sb.WriteString("\tconst struct _ivar_list_t *const ivars;\n")
	sb.WriteString("\tconst unsigned char *const weakIvarLayout;\n")
	sb.WriteString("\tconst struct _prop_list_t *const properties;\n")
	sb.WriteString("};\n")

	sb.WriteString("\nstruct _class_t {\n")
	sb.WriteString("\tstruct _class_t *isa;\n")
	sb.WriteString("\tstruct _class_t *const superclass;\n")
	sb.WriteString("\tvoid *cache;\n")
	sb.WriteString("\tvoid *vtable;\n")
	sb.WriteString("\tstruct _class_ro_t *ro;\n")
	sb.WriteString("};\n")

	sb.WriteString("\nstruct _category_t {\n")
	sb.WriteString("\tconst char * const name;\n")
	sb.WriteString("\tstruct _class_t *const cls;\n")
	sb.WriteString("\tconst struct _method_list_t *const instance_methods;\n")
	sb.WriteString("\tconst struct _method_list_t *const class_methods;\n")
	sb.WriteString("\tconst struct _protocol_list_t *const protocols;\n")
	sb.WriteString("\tconst struct _prop_list_t *const properties;\n")
	sb.WriteString("};\n")

	sb.WriteString("extern void *_objc_empty_cache;\n")
	sb.WriteString("extern void *_objc_empty_vtable;\n")
}

// --- list initializers ---

func listHead(sb *strings.Builder, kind, entry, count string) {
	sb.WriteString("struct /*" + kind + "*/ {\n")
	sb.WriteString("\tunsigned int entsize;  // sizeof(struct " + entry + ")\n")
	sb.WriteString(count)
}

func (e *Emitter) protocolList(sb *strings.Builder, protos []ast.DeclID, varName, owner string) {
	if len(protos) == 0 {
		return
	}
	sb.WriteString("\nstatic struct /*_protocol_list_t*/ {\n")
	sb.WriteString("\tlong protocol_count;  // Note, this is 32/64 bit\n")
	sb.WriteString("\tstruct _protocol_t *super_protocols[" + utostr(len(protos)) + "];\n")
	sb.WriteString("} " + varName + owner + objcConst + " = {\n")
	sb.WriteString("\t" + utostr(len(protos)) + ",\n")
	for i, p := range protos {
		sb.WriteString("\t&_OBJC_PROTOCOL_" + e.decl(p, "protocolList").Name)
		if i == len(protos)-1 {
			sb.WriteString("\n};\n")
		} else {
			sb.WriteString(",\n")
		}
	}
}

// methodList writes a _method_list_t. impl selects the internal function
// names as implementations; protocol lists carry 0.
func (e *Emitter) methodList(sb *strings.Builder, methods []ast.DeclID, varName, owner string, impl bool) {
	if len(methods) == 0 {
		return
	}
	sb.WriteString("\nstatic ")
	listHead(sb, "_method_list_t", "_objc_method", "\tunsigned int method_count;\n")
	sb.WriteString("\tstruct _objc_method method_list[" + utostr(len(methods)) + "];\n}")
	sb.WriteString(" " + varName + owner + objcConst + " = {\n")
	sb.WriteString("\tsizeof(_objc_method),\n")
	sb.WriteString("\t" + utostr(len(methods)) + ",\n")
	for i, m := range methods {
		md := e.decl(m, "methodList")
		if i == 0 {
			sb.WriteString("\t{{(struct objc_selector *)\"")
		} else {
			sb.WriteString("\t{(struct objc_selector *)\"")
		}
		sb.WriteString(md.Selector + "\", ")
		sb.WriteString("\"" + e.Layout.MethodEncoding(md, false) + "\", ")
		if impl {
			sb.WriteString("(void *)" + e.Sess.MethodName(m))
		} else {
			sb.WriteString("0")
		}
		if i == len(methods)-1 {
			sb.WriteString("}}\n")
		} else {
			sb.WriteString("},\n")
		}
	}
	sb.WriteString("};\n")
}

func (e *Emitter) propList(sb *strings.Builder, props []ast.DeclID, varName, owner string) {
	if len(props) == 0 {
		return
	}
	sb.WriteString("\nstatic ")
	listHead(sb, "_prop_list_t", "_prop_t", "\tunsigned int count_of_properties;\n")
	sb.WriteString("\tstruct _prop_t prop_list[" + utostr(len(props)) + "];\n}")
	sb.WriteString(" " + varName + owner + objcConst + " = {\n")
	sb.WriteString("\tsizeof(_prop_t),\n")
	sb.WriteString("\t" + utostr(len(props)) + ",\n")
	for i, p := range props {
		pd := e.decl(p, "propList")
		if i == 0 {
			sb.WriteString("\t{{\"")
		} else {
			sb.WriteString("\t{\"")
		}
		sb.WriteString(pd.Name + "\",")
		sb.WriteString("\"" + quoteDoubleQuotes(e.Layout.PropertyAttributes(pd, "", false)) + "\"")
		if i == len(props)-1 {
			sb.WriteString("}}\n")
		} else {
			sb.WriteString("},\n")
		}
	}
	sb.WriteString("};\n")
}

func (e *Emitter) extendedMethodTypes(sb *strings.Builder, methods []ast.DeclID, varName, owner string) {
	if len(methods) == 0 {
		return
	}
	sb.WriteString("\nstatic const char *" + varName + owner + " []" + objcConst + " = \n{\n")
	for i, m := range methods {
		md := e.decl(m, "extendedMethodTypes")
		sb.WriteString("\t\"" + quoteDoubleQuotes(e.Layout.MethodEncoding(md, true)) + "\"")
		if i == len(methods)-1 {
			sb.WriteString("\n};\n")
		} else {
			sb.WriteString(",\n")
		}
	}
}

// --- ivars ---

func (e *Emitter) ivarOffsetVars(sb *strings.Builder, ivars []ast.DeclID, class string) {
	sb.WriteString("\n")
	for _, iv := range ivars {
		d := e.decl(iv, "ivarOffsetVars")
		if d.Access == ast.AccessPrivate || d.Access == ast.AccessPackage {
			sb.WriteString("unsigned long int ")
		} else {
			sb.WriteString("__declspec(dllexport) unsigned long int ")
		}
		sb.WriteString("OBJC_IVAR_$_" + class + "_" + d.Name)
		sb.WriteString(` __attribute__ ((used, section ("__DATA,__objc_ivar")))`)
		sb.WriteString(" = ")
		if d.HasBitWidth {
			// битовые поля всегда по смещению 0
			sb.WriteString("0;\n")
			continue
		}
		sb.WriteString("__OFFSETOFIVAR__(struct " + class + "_IMPL, " + d.Name + ");\n")
	}
}

func (e *Emitter) ivarList(sb *strings.Builder, ivars []ast.DeclID, class string) {
	if len(ivars) == 0 {
		return
	}
	e.ivarOffsetVars(sb, ivars, class)

	sb.WriteString("\nstatic ")
	listHead(sb, "_ivar_list_t", "_prop_t", "\tunsigned int count;\n")
	sb.WriteString("\tstruct _ivar_t ivar_list[" + utostr(len(ivars)) + "];\n}")
	sb.WriteString(" _OBJC_$_INSTANCE_VARIABLES_" + class + objcConst + " = {\n")
	sb.WriteString("\tsizeof(_ivar_t),\n")
	sb.WriteString("\t" + utostr(len(ivars)) + ",\n")
	for i, iv := range ivars {
		d := e.decl(iv, "ivarList")
		if i == 0 {
			sb.WriteString("\t{{")
		} else {
			sb.WriteString("\t {")
		}
		sb.WriteString("(unsigned long int *)&OBJC_IVAR_$_" + class + "_" + d.Name + ", ")
		sb.WriteString("\"" + d.Name + "\", ")
		sb.WriteString("\"" + quoteDoubleQuotes(e.Layout.IvarEncoding(d.Type)) + "\", ")
		sb.WriteString(utostr(e.alignLog2(d.Type)) + ", ")
		sb.WriteString(utostr(e.size(d.Type)))
		if i == len(ivars)-1 {
			sb.WriteString("}}\n")
		} else {
			sb.WriteString("},\n")
		}
	}
	sb.WriteString("};\n")
}

func (e *Emitter) alignLog2(t ast.TypeID) int {
	a, err := e.Layout.AlignOf(t)
	if err != nil || a <= 0 {
		return 0
	}
	return bits.Len(uint(a)) - 1
}

func (e *Emitter) size(t ast.TypeID) int {
	n, err := e.Layout.SizeOf(t)
	if err != nil {
		return 0
	}
	return n
}

// --- protocols ---

// Protocol writes the metadata record of protocol p, after those of its
// super protocols. A protocol is written at most once per unit.
func (e *Emitter) Protocol(sb *strings.Builder, p ast.DeclID) {
	if e.Sess.ProtocolEmitted(p) {
		return
	}
	e.Declarations(sb)
	pd := e.decl(p, "Protocol")
	for _, sup := range pd.Protocols {
		e.Protocol(sb, sup)
	}

	var inst, cls, optInst, optCls []ast.DeclID
	for _, m := range pd.Methods {
		md := e.decl(m, "Protocol")
		switch {
		case md.Instance && md.Optional:
			optInst = append(optInst, m)
		case md.Instance:
			inst = append(inst, m)
		case md.Optional:
			optCls = append(optCls, m)
		default:
			cls = append(cls, m)
		}
	}
	all := make([]ast.DeclID, 0, len(pd.Methods))
	all = append(all, inst...)
	all = append(all, cls...)
	all = append(all, optInst...)
	all = append(all, optCls...)

	name := pd.Name
	e.extendedMethodTypes(sb, all, "_OBJC_PROTOCOL_METHOD_TYPES_", name)
	e.protocolList(sb, pd.Protocols, "_OBJC_PROTOCOL_REFS_", name)
	e.methodList(sb, inst, "_OBJC_PROTOCOL_INSTANCE_METHODS_", name, false)
	e.methodList(sb, cls, "_OBJC_PROTOCOL_CLASS_METHODS_", name, false)
	e.methodList(sb, optInst, "_OBJC_PROTOCOL_OPT_INSTANCE_METHODS_", name, false)
	e.methodList(sb, optCls, "_OBJC_PROTOCOL_OPT_CLASS_METHODS_", name, false)
	e.propList(sb, pd.Props, "_OBJC_PROTOCOL_PROPERTIES_", name)

	sb.WriteString("\nstatic struct _protocol_t _OBJC_PROTOCOL_" + name + coalesced + " = {\n")
	sb.WriteString("\t0,\n")
	sb.WriteString("\t\"" + name + "\",\n")
	ref := func(n int, cast, sym string) {
		if n > 0 {
			sb.WriteString("\t(" + cast + ")&" + sym + name + ",\n")
		} else {
			sb.WriteString("\t0,\n")
		}
	}
	ref(len(pd.Protocols), "const struct _protocol_list_t *", "_OBJC_PROTOCOL_REFS_")
	ref(len(inst), "const struct method_list_t *", "_OBJC_PROTOCOL_INSTANCE_METHODS_")
	ref(len(cls), "const struct method_list_t *", "_OBJC_PROTOCOL_CLASS_METHODS_")
	ref(len(optInst), "const struct method_list_t *", "_OBJC_PROTOCOL_OPT_INSTANCE_METHODS_")
	ref(len(optCls), "const struct method_list_t *", "_OBJC_PROTOCOL_OPT_CLASS_METHODS_")
	ref(len(pd.Props), "const struct _prop_list_t *", "_OBJC_PROTOCOL_PROPERTIES_")
	sb.WriteString("\tsizeof(_protocol_t),\n")
	sb.WriteString("\t0,\n")
	if len(all) > 0 {
		sb.WriteString("\t(const char **)&_OBJC_PROTOCOL_METHOD_TYPES_" + name + "\n};\n")
	} else {
		sb.WriteString("\t0\n};\n")
	}

	if !e.Sess.MarkProtocolEmitted(p) {
		objc.Invariant("Protocol", "protocol %s already synthesized", name)
	}
}

// ProtocolExprs writes the records of protocols named by @protocol(...)
// expressions. The text belongs to the preamble.
func (e *Emitter) ProtocolExprs() string {
	var sb strings.Builder
	for _, p := range e.Sess.ProtocolExprs() {
		e.Protocol(&sb, p)
	}
	return sb.String()
}

// --- classes and categories ---

// accessors returns the getters and setters @synthesize produces for impl.
// skipDefined leaves out accessors the implementation defines itself.
func (e *Emitter) accessors(impl *ast.Decl, skipDefined bool) []ast.DeclID {
	var out []ast.DeclID
	for _, pi := range impl.PropImpls {
		d := e.decl(pi, "accessors")
		if d.Dynamic || !d.Ivar.IsValid() {
			continue
		}
		prop := e.Unit.Decl(d.Property)
		if prop == nil {
			continue
		}
		if prop.GetterMethod.IsValid() && !(skipDefined && e.Defines(impl, prop.GetterMethod)) {
			out = append(out, prop.GetterMethod)
		}
		if prop.Attrs.Has(ast.PropReadonly) {
			continue
		}
		if prop.SetterMethod.IsValid() && !(skipDefined && e.Defines(impl, prop.SetterMethod)) {
			out = append(out, prop.SetterMethod)
		}
	}
	return out
}

// Defines reports whether impl has a body for the selector of method m.
func (e *Emitter) Defines(impl *ast.Decl, m ast.DeclID) bool {
	md := e.Unit.Decl(m)
	if md == nil {
		return false
	}
	for _, id := range impl.Methods {
		if x := e.Unit.Decl(id); x != nil && x.Selector == md.Selector && x.Instance == md.Instance && x.Body.IsValid() {
			return true
		}
	}
	return false
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

func (e *Emitter) namedIvars(iface ast.DeclID) []ast.DeclID {
	var out []ast.DeclID
	for _, iv := range e.Unit.AllIvars(iface) {
		if d := e.Unit.Decl(iv); d != nil && d.Name != "" {
			out = append(out, iv)
		}
	}
	return out
}

type classRO struct {
	flags         int
	start, size   string
	methods       int
	protocols     int
	ivars         int
	props         int
	varName, name string
}

func (e *Emitter) classRO(sb *strings.Builder, ro classRO) {
	sb.WriteString("\nstatic struct _class_ro_t " + ro.varName + ro.name + objcConst + " = {\n")
	sb.WriteString("\t" + utostr(ro.flags) + ", " + ro.start + ", " + ro.size + ", \n")
	sb.WriteString("\t(unsigned int)0, \n\t")
	sb.WriteString("0, \n\t")
	sb.WriteString("\"" + ro.name + "\",\n\t")
	meta := ro.flags&clsMeta != 0
	if ro.methods > 0 {
		sb.WriteString("(const struct _method_list_t *)&")
		if meta {
			sb.WriteString("_OBJC_$_CLASS_METHODS_")
		} else {
			sb.WriteString("_OBJC_$_INSTANCE_METHODS_")
		}
		sb.WriteString(ro.name + ",\n\t")
	} else {
		sb.WriteString("0, \n\t")
	}
	if !meta && ro.protocols > 0 {
		sb.WriteString("(const struct _objc_protocol_list *)&_OBJC_CLASS_PROTOCOLS_$_" + ro.name + ",\n\t")
	} else {
		sb.WriteString("0, \n\t")
	}
	if !meta && ro.ivars > 0 {
		sb.WriteString("(const struct _ivar_list_t *)&_OBJC_$_INSTANCE_VARIABLES_" + ro.name + ",\n\t")
	} else {
		sb.WriteString("0, \n\t")
	}
	sb.WriteString("0, \n\t")
	if !meta && ro.props > 0 {
		sb.WriteString("(const struct _prop_list_t *)&_OBJC_$_PROP_LIST_" + ro.name + ",\n")
	} else {
		sb.WriteString("0, \n")
	}
	sb.WriteString("};\n")
}

func (e *Emitter) classT(sb *strings.Builder, varName string, iface ast.DeclID, meta bool) {
	cd := e.decl(iface, "classT")
	name := cd.Name
	super := ""
	if cd.Super.IsValid() {
		super = e.Unit.ClassName(cd.Super)
	}
	dllexport := func(cls ast.DeclID) string {
		if e.Unit.Implementation(cls).IsValid() {
			return "__declspec(dllexport) "
		}
		return ""
	}
	if meta && super == "" {
		sb.WriteString("\n" + dllexport(iface) + "extern struct _class_t OBJC_CLASS_$_" + name + ";\n")
	}
	if super != "" {
		sb.WriteString("\n" + dllexport(cd.Super) + "extern struct _class_t " + varName + super + ";\n")
	}

	sb.WriteString("\n__declspec(dllexport) struct _class_t " + varName + name + objcData + " = {\n")
	sb.WriteString("\t")
	switch {
	case meta && super != "":
		sb.WriteString("&" + varName + super + ",\n\t")
		sb.WriteString("&" + varName + super + ",\n\t")
	case meta:
		sb.WriteString("&" + varName + name + ",\n\t")
		sb.WriteString("&OBJC_CLASS_$_" + name + ",\n\t")
	default:
		sb.WriteString("&OBJC_METACLASS_$_" + name + ",\n\t")
		if super != "" {
			sb.WriteString("&" + varName + super + ",\n\t")
		} else {
			sb.WriteString("0,\n\t")
		}
	}
	sb.WriteString("(void *)&_objc_empty_cache,\n\t")
	sb.WriteString("(void *)&_objc_empty_vtable,\n\t")
	if meta {
		sb.WriteString("&_OBJC_METACLASS_RO_$_")
	} else {
		sb.WriteString("&_OBJC_CLASS_RO_$_")
	}
	sb.WriteString(name + ",\n};\n")
}

// ClassMetadata writes the records of one class @implementation.
func (e *Emitter) ClassMetadata(sb *strings.Builder, implID ast.DeclID) {
	impl := e.decl(implID, "ClassMetadata")
	iface := impl.Class
	cd := e.decl(iface, "ClassMetadata")
	name := cd.Name

	e.Declarations(sb)
	ivars := e.namedIvars(iface)
	e.ivarList(sb, ivars, name)

	inst, cls := splitMethods(e.Unit, impl.Methods)
	inst = append(inst, e.accessors(impl, true)...)
	e.methodList(sb, inst, "_OBJC_$_INSTANCE_METHODS_", name, true)
	e.methodList(sb, cls, "_OBJC_$_CLASS_METHODS_", name, true)

	for _, p := range cd.Protocols {
		e.Protocol(sb, p)
	}
	e.protocolList(sb, cd.Protocols, "_OBJC_CLASS_PROTOCOLS_$_", name)
	e.propList(sb, cd.Props, "_OBJC_$_PROP_LIST_", name)

	flags := clsMeta
	if !cd.Super.IsValid() {
		flags |= clsRoot
	}
	e.classRO(sb, classRO{
		flags: flags, start: "sizeof(struct _class_t)", size: "sizeof(struct _class_t)",
		methods: len(cls), varName: "_OBJC_METACLASS_RO_$_", name: name,
	})

	flags = clsFlags
	if !cd.Super.IsValid() {
		flags |= clsRoot
	}
	size, start := "0", "0"
	if e.Sess.IsSynthesized(iface) {
		size = "sizeof(struct " + name + "_IMPL)"
		start = size
		if all := e.Unit.AllIvars(iface); len(all) > 0 {
			start = "__OFFSETOFIVAR__(struct " + name + "_IMPL, " + e.decl(all[0], "ClassMetadata").Name + ")"
		}
	}
	e.classRO(sb, classRO{
		flags: flags, start: start, size: size,
		methods: len(inst), protocols: len(cd.Protocols), ivars: len(ivars), props: len(cd.Props),
		varName: "_OBJC_CLASS_RO_$_", name: name,
	})

	e.classT(sb, "OBJC_METACLASS_$_", iface, true)
	e.classT(sb, "OBJC_CLASS_$_", iface, false)
}

// categoryDecl finds the @interface (Cat) a category implementation belongs to.
func (e *Emitter) categoryDecl(impl *ast.Decl) ast.DeclID {
	decls := e.Unit.Decls.Slice()
	for i := range decls {
		d := &decls[i]
		if d.Kind == ast.DeclCategory && d.Class == impl.Class && d.Name == impl.Name {
			return ast.DeclID(i + 1) // #nosec G115 -- arena index
		}
	}
	return ast.NoDeclID
}

// CategoryMetadata writes the records of one category @implementation.
func (e *Emitter) CategoryMetadata(sb *strings.Builder, implID ast.DeclID) {
	e.Declarations(sb)
	impl := e.decl(implID, "CategoryMetadata")
	class := e.Unit.ClassName(implID)
	catID := e.categoryDecl(impl)
	if !catID.IsValid() {
		objc.Invariant("CategoryMetadata", "category %s(%s) has no @interface", class, impl.Name)
	}
	cat := e.decl(catID, "CategoryMetadata")
	full := class + "_$_" + cat.Name

	inst, cls := splitMethods(e.Unit, impl.Methods)
	inst = append(inst, e.accessors(impl, false)...)
	e.methodList(sb, inst, "_OBJC_$_CATEGORY_INSTANCE_METHODS_", full, true)
	e.methodList(sb, cls, "_OBJC_$_CATEGORY_CLASS_METHODS_", full, true)

	for _, p := range cat.Protocols {
		e.Protocol(sb, p)
	}
	e.protocolList(sb, cat.Protocols, "_OBJC_CATEGORY_PROTOCOLS_$_", full)
	e.propList(sb, cat.Props, "_OBJC_$_PROP_LIST_", full)

	sb.WriteString("\nextern struct _class_t OBJC_CLASS_$_" + class + ";\n")
	sb.WriteString("\nstatic struct _category_t _OBJC_$_CATEGORY_" + full + objcConst + " = \n")
	sb.WriteString("{\n")
	sb.WriteString("\t\"" + class + "\",\n")
	sb.WriteString("\t&OBJC_CLASS_$_" + class + ",\n")
	ref := func(n int, cast, sym string) {
		if n > 0 {
			sb.WriteString("\t(" + cast + ")&" + sym + full + ",\n")
		} else {
			sb.WriteString("\t0,\n")
		}
	}
	ref(len(inst), "const struct _method_list_t *", "_OBJC_$_CATEGORY_INSTANCE_METHODS_")
	ref(len(cls), "const struct _method_list_t *", "_OBJC_$_CATEGORY_CLASS_METHODS_")
	ref(len(cat.Protocols), "const struct _protocol_list_t *", "_OBJC_CATEGORY_PROTOCOLS_$_")
	ref(len(cat.Props), "const struct _prop_list_t *", "_OBJC_$_PROP_LIST_")
	sb.WriteString("};\n")
}

// Metadata returns the block appended after the rewritten source: records of
// every implemented class and category, then the label arrays the runtime
// registers them through.
func (e *Emitter) Metadata() string {
	var sb strings.Builder
	classes, cats := e.Sess.ClassImpls(), e.Sess.CategoryImpls()
	for _, c := range classes {
		e.ClassMetadata(&sb, c)
	}
	for _, c := range cats {
		e.CategoryMetadata(&sb, c)
	}
	if len(classes) > 0 {
		sb.WriteString("static struct _class_t *L_OBJC_LABEL_CLASS_$ [" + utostr(len(classes)) + "]")
		sb.WriteString(" __attribute__((used, section (\"__DATA, __objc_classlist,regular,no_dead_strip\")))= {\n")
		for _, c := range classes {
			sb.WriteString("\t&OBJC_CLASS_$_" + e.Unit.ClassName(c) + ",\n")
		}
		sb.WriteString("};\n")
	}
	if len(cats) > 0 {
		sb.WriteString("static struct _category_t *L_OBJC_LABEL_CATEGORY_$ [" + utostr(len(cats)) + "]")
		sb.WriteString(" __attribute__((used, section (\"__DATA, __objc_catlist,regular,no_dead_strip\")))= {\n")
		for _, c := range cats {
			sb.WriteString("\t&_OBJC_$_CATEGORY_" + e.Unit.ClassName(c) + "_$_" + e.Unit.CategoryName(c) + ",\n")
		}
		sb.WriteString("};\n")
	}
	return sb.String()
}
