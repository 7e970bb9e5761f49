package emit

import (
	"strconv"
	"strings"

	"objrw/internal/ast"
	"objrw/internal/cgen"
)

// ClassTypedef is the guard that introduces a class name as an object type.
// Forward @class lists and @interface headers share it.
func ClassTypedef(name string) string {
	return "#ifndef _REWRITER_typedef_" + name + "\n" +
		"#define _REWRITER_typedef_" + name + "\n" +
		"typedef struct objc_object " + name + ";\n#endif\n"
}

// IvarOffsetExterns declares the offset symbol of every ivar of iface that
// was referenced so far, in first-reference order.
func (e *Emitter) IvarOffsetExterns(iface ast.DeclID) string {
	name := e.Unit.ClassName(iface)
	var sb strings.Builder
	for _, iv := range e.Sess.ReferencedIvars(iface) {
		d := e.decl(iv, "IvarOffsetExterns")
		sb.WriteString("\nextern unsigned long OBJC_IVAR_$_" + name + "_" + d.Name + ";")
	}
	return sb.String()
}

// NeedsStruct reports whether iface gets an "<Class>_IMPL" struct: it has
// ivars of its own or its super class already has a struct.
func (e *Emitter) NeedsStruct(iface ast.DeclID) bool {
	d := e.decl(iface, "NeedsStruct")
	if len(e.Unit.AllIvars(iface)) > 0 {
		return true
	}
	return d.Super.IsValid() && e.Sess.IsSynthesized(d.Super)
}

// InternalStruct returns the struct holding the ivars of iface, the struct
// of a synthesized super class embedded first. It marks the class as
// synthesized; callers check NeedsStruct before.
func (e *Emitter) InternalStruct(iface ast.DeclID) string {
	d := e.decl(iface, "InternalStruct")
	cl := e.Sess.Layout(iface)

	var sb strings.Builder
	sb.WriteString("\nstruct " + cl.StructName() + " {\n")
	if d.Super.IsValid() && e.Sess.IsSynthesized(d.Super) {
		super := e.Unit.ClassName(d.Super)
		sb.WriteString("\tstruct " + super + "_IMPL " + super + "_IVARS;\n")
	}
	e.Sess.ResetTags()
	for _, iv := range cl.Ivars {
		e.field(&sb, e.decl(iv, "InternalStruct"))
	}
	sb.WriteString("};\n")
	e.Sess.MarkSynthesized(iface)
	return sb.String()
}

// ClassSection is everything that replaces an @interface header: the typedef
// guard, referenced ivar offsets and the struct when one is needed.
func (e *Emitter) ClassSection(iface ast.DeclID) string {
	var sb strings.Builder
	sb.WriteString(ClassTypedef(e.Unit.ClassName(iface)))
	sb.WriteString(e.IvarOffsetExterns(iface))
	if e.NeedsStruct(iface) {
		sb.WriteString(e.InternalStruct(iface))
	}
	return sb.String()
}

// field writes one member declaration. Complete records are defined inline
// the first time they appear in the struct.
func (e *Emitter) field(sb *strings.Builder, f *ast.Decl) {
	elaborated := e.fieldType(sb, f.Type)
	if elaborated {
		sb.WriteString(f.Name)
	} else {
		sb.WriteString(e.Types.Decl(f.Type, f.Name, cgen.StyleC))
	}
	switch {
	case f.HasBitWidth:
		sb.WriteString(" : " + strconv.FormatUint(uint64(f.BitWidth), 10))
	case elaborated:
		sb.WriteString(e.dims(f.Type))
	}
	sb.WriteString(";\n")
}

func (e *Emitter) fieldType(sb *strings.Builder, t ast.TypeID) bool {
	base := e.Unit.Type(e.baseElement(t))
	if base != nil && base.Kind == ast.TypeRecord {
		if rec := e.Unit.Decl(base.Decl); rec != nil && rec.Kind == ast.DeclRecord && len(rec.Fields) > 0 {
			kw := "struct "
			if rec.Union {
				kw = "union "
			}
			sb.WriteString("\n\t" + kw + base.Name)
			if !e.Sess.DefineTag(base.Decl) {
				sb.WriteString(" ")
				return true
			}
			sb.WriteString(" {\n")
			for _, fid := range rec.Fields {
				e.field(sb, e.decl(fid, "field"))
			}
			sb.WriteString("\t} ")
			return true
		}
	}
	sb.WriteString("\t")
	return false
}

// baseElement strips arrays and typedefs down to the element type.
func (e *Emitter) baseElement(t ast.TypeID) ast.TypeID {
	for range 64 {
		t = e.Unit.Canonical(t)
		tt := e.Unit.Type(t)
		if tt == nil || tt.Kind != ast.TypeArray {
			return t
		}
		t = tt.Elem
	}
	return t
}

func (e *Emitter) dims(t ast.TypeID) string {
	var sb strings.Builder
	for range 64 {
		tt := e.Unit.Type(e.Unit.Canonical(t))
		if tt == nil || tt.Kind != ast.TypeArray {
			break
		}
		if tt.Len >= 0 {
			sb.WriteString("[" + strconv.FormatInt(tt.Len, 10) + "]")
		}
		t = tt.Elem
	}
	return sb.String()
}
