package emit

import (
	"strings"

	"objrw/internal/ast"
	"objrw/internal/cgen"
)

// MethodHeader is the C function header replacing the Objective-C header of
// method m: "\nstatic RET _I_Class_sel_(Class * self, SEL _cmd, ...) ".
// The method gets its internal name registered here.
func (e *Emitter) MethodHeader(m ast.DeclID) string {
	md := e.decl(m, "MethodHeader")
	ret, fpSuffix := e.returnType(md.Result)

	var sb strings.Builder
	sb.WriteString("\nstatic " + ret + " " + e.Sess.MethodName(m) + "(")
	if md.Instance {
		iface := e.Unit.ClassOf(md.Container)
		if !e.Sess.Opts.MSExtensions && e.Sess.IsSynthesized(iface) {
			sb.WriteString("struct ")
		}
		sb.WriteString(e.Unit.ClassName(md.Container) + " *")
	} else {
		sb.WriteString("Class")
	}
	sb.WriteString(" self, SEL _cmd")
	for _, p := range md.Params {
		pd := e.decl(p, "MethodHeader")
		sb.WriteString(", ")
		if e.Unit.IsObjCQualifiedID(pd.Type) {
			sb.WriteString("id " + pd.Name)
			continue
		}
		sb.WriteString(e.Types.Decl(pd.Type, pd.Name, cgen.StyleC))
	}
	if md.Variadic {
		sb.WriteString(", ...")
	}
	sb.WriteString(") ")
	sb.WriteString(fpSuffix)
	return sb.String()
}

// returnType splits the spelling of a method result. Function and block
// pointer results open a "(*" the header closes after the parameter list.
func (e *Emitter) returnType(t ast.TypeID) (ret, suffix string) {
	if e.Unit.IsObjCQualifiedID(t) {
		return "id", ""
	}
	if e.Unit.IsFunctionPointer(t) || e.Unit.IsBlockPointer(t) {
		if fn := e.Unit.FunctionOf(t); fn != nil {
			parts := make([]string, 0, len(fn.Params)+1)
			for _, p := range fn.Params {
				parts = append(parts, e.Types.Type(p, cgen.StyleC))
			}
			if fn.Variadic {
				parts = append(parts, "...")
			}
			return e.Types.Type(fn.Result, cgen.StyleC) + "(*", ")(" + strings.Join(parts, ", ") + ")"
		}
	}
	return e.Types.Type(t, cgen.StyleC), ""
}

// IvarOffset is the offset expression passed to the property runtime
// helpers. Bitfields sit at offset 0.
func (e *Emitter) IvarOffset(ivar ast.DeclID) string {
	d := e.decl(ivar, "IvarOffset")
	if d.HasBitWidth {
		return "0"
	}
	name := e.Unit.ClassName(e.Sess.ContainingInterface(ivar))
	if e.Sess.Opts.MSExtensions {
		name += "_IMPL"
	}
	return "__OFFSETOFIVAR__(struct " + name + ", " + d.Name + ")"
}

func (e *Emitter) ivarAccess(ivar ast.DeclID) string {
	d := e.decl(ivar, "ivarAccess")
	name := e.Unit.ClassName(e.Sess.ContainingInterface(ivar))
	return "((struct " + name + "_IMPL *)self)->" + d.Name
}

// Accessors returns the getter and setter definitions @synthesize pi
// produces inside impl. Accessors the implementation defines itself and
// @dynamic properties produce nothing.
func (e *Emitter) Accessors(impl *ast.Decl, pi ast.DeclID) string {
	d := e.decl(pi, "Accessors")
	if d.Dynamic || !d.Ivar.IsValid() {
		return ""
	}
	prop := e.decl(d.Property, "Accessors")
	var sb strings.Builder
	if prop.GetterMethod.IsValid() && !e.Defines(impl, prop.GetterMethod) {
		e.getter(&sb, prop, d.Ivar)
	}
	if prop.Attrs.Has(ast.PropReadonly) || !prop.SetterMethod.IsValid() || e.Defines(impl, prop.SetterMethod) {
		return sb.String()
	}
	e.setter(&sb, prop, d.Ivar)
	return sb.String()
}

func (e *Emitter) getter(sb *strings.Builder, prop *ast.Decl, ivar ast.DeclID) {
	runtime := !prop.Attrs.Has(ast.PropNonatomic) && (prop.Attrs.Has(ast.PropRetain) || prop.Attrs.Has(ast.PropCopy))
	if runtime && e.Sess.DeclareGetProperty() {
		sb.WriteString("\nextern \"C\" __declspec(dllimport) id objc_getProperty(id, SEL, long, bool);\n")
	}
	getter := e.decl(prop.GetterMethod, "getter")
	sb.WriteString(e.MethodHeader(prop.GetterMethod))
	sb.WriteString("{ ")
	if runtime {
		ret, suffix := e.returnType(getter.Result)
		sb.WriteString("typedef " + ret + " _TYPE" + suffix + ";\n")
		sb.WriteString("return (_TYPE)objc_getProperty(self, _cmd, " + e.IvarOffset(ivar) + ", 1)")
	} else {
		sb.WriteString("return " + e.ivarAccess(ivar))
	}
	sb.WriteString("; }")
}

func (e *Emitter) setter(sb *strings.Builder, prop *ast.Decl, ivar ast.DeclID) {
	runtime := prop.Attrs.Has(ast.PropRetain) || prop.Attrs.Has(ast.PropCopy)
	if runtime && e.Sess.DeclareSetProperty() {
		sb.WriteString("\nextern \"C\" __declspec(dllimport) void objc_setProperty (id, SEL, long, id, bool, bool);\n")
	}
	sb.WriteString(e.MethodHeader(prop.SetterMethod))
	sb.WriteString("{ ")
	if runtime {
		sb.WriteString("objc_setProperty (self, _cmd, " + e.IvarOffset(ivar) + ", (id)" + prop.Name + ", ")
		if prop.Attrs.Has(ast.PropNonatomic) {
			sb.WriteString("0, ")
		} else {
			sb.WriteString("1, ")
		}
		if prop.Attrs.Has(ast.PropCopy) {
			sb.WriteString("1)")
		} else {
			sb.WriteString("0)")
		}
	} else {
		sb.WriteString(e.ivarAccess(ivar) + " = " + prop.Name)
	}
	sb.WriteString("; }")
}
