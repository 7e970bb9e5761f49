package layout

import (
	"strconv"
	"strings"

	"objrw/internal/ast"
)

// encOpts управляет тем, насколько глубоко раскрываются записи и печатаются
// ли имена классов.
type encOpts struct {
	expandStructs   bool
	expandPointedTo bool
	classNames      bool
	outermost       bool
}

// Encoding returns the @encode string of a type: records are expanded at the
// top level and through one pointer, object pointers are a bare '@'.
func (e *LayoutEngine) Encoding(t ast.TypeID) string {
	var sb strings.Builder
	e.encode(&sb, t, encOpts{expandStructs: true, expandPointedTo: true, outermost: true}, 0)
	return sb.String()
}

// IvarEncoding is Encoding with class names on object pointers, the way ivar
// list entries spell their types.
func (e *LayoutEngine) IvarEncoding(t ast.TypeID) string {
	var sb strings.Builder
	e.encode(&sb, t, encOpts{expandStructs: true, expandPointedTo: true, classNames: true, outermost: true}, 0)
	return sb.String()
}

// MethodEncoding builds the method type string:
// return type, total argument frame size, "@0:<ptr>", then each parameter
// followed by its offset. extended adds class names to object pointers.
func (e *LayoutEngine) MethodEncoding(m *ast.Decl, extended bool) string {
	if m == nil {
		return ""
	}
	u := e.Unit
	opts := encOpts{expandStructs: true, expandPointedTo: true, classNames: extended, outermost: true}
	ptr := e.ptrLayout().Size

	var sb strings.Builder
	e.encode(&sb, m.Result, opts, 0)

	params := make([]ast.TypeID, 0, len(m.Params))
	for _, pid := range m.Params {
		if p := u.Decl(pid); p != nil {
			params = append(params, e.decayed(p.Type))
		}
	}
	frame := 2 * ptr
	for _, p := range params {
		frame += e.encodingSize(p)
	}
	sb.WriteString(strconv.Itoa(frame))
	sb.WriteString("@0:")
	sb.WriteString(strconv.Itoa(ptr))

	off := 2 * ptr
	for _, p := range params {
		e.encode(&sb, p, opts, 0)
		sb.WriteString(strconv.Itoa(off))
		off += e.encodingSize(p)
	}
	return sb.String()
}

// PropertyAttributes builds the runtime attribute string of a property:
// T<type>, then R, C, &, W, N, G<getter>, S<setter>, D or V<ivar>.
// ivar is the backing ivar name from @synthesize, dynamic marks @dynamic.
func (e *LayoutEngine) PropertyAttributes(p *ast.Decl, ivar string, dynamic bool) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('T')
	e.encode(&sb, p.Type, encOpts{expandStructs: true, expandPointedTo: true, classNames: true, outermost: true}, 0)

	a := p.Attrs
	if a.Has(ast.PropReadonly) {
		sb.WriteString(",R")
	}
	switch {
	case a.Has(ast.PropCopy):
		sb.WriteString(",C")
	case a.Has(ast.PropRetain), a.Has(ast.PropStrong):
		sb.WriteString(",&")
	case a.Has(ast.PropWeak):
		sb.WriteString(",W")
	}
	if a.Has(ast.PropNonatomic) {
		sb.WriteString(",N")
	}
	if a.Has(ast.PropGetter) && p.Getter != "" {
		sb.WriteString(",G")
		sb.WriteString(p.Getter)
	}
	if a.Has(ast.PropSetter) && p.Setter != "" {
		sb.WriteString(",S")
		sb.WriteString(p.Setter)
	}
	if dynamic {
		sb.WriteString(",D")
	} else if ivar != "" {
		sb.WriteString(",V")
		sb.WriteString(ivar)
	}
	return sb.String()
}

// encodingSize is the frame slot of a parameter: integral types occupy at
// least an int.
func (e *LayoutEngine) encodingSize(t ast.TypeID) int {
	sz, err := e.SizeOf(t)
	if err != nil || sz <= 0 {
		return 0
	}
	if e.isIntegral(t) && sz < 4 {
		sz = 4
	}
	return sz
}

func (e *LayoutEngine) isIntegral(t ast.TypeID) bool {
	ct := e.Unit.Type(e.Unit.Canonical(t))
	if ct == nil {
		return false
	}
	switch ct.Kind {
	case ast.TypeEnum:
		return true
	case ast.TypeBuiltin:
		switch ct.Name {
		case "float", "double", "long double", "void":
			return false
		}
		return true
	}
	return false
}

// decayed turns array and function parameter types into pointers.
func (e *LayoutEngine) decayed(t ast.TypeID) ast.TypeID {
	ct := e.Unit.Type(e.Unit.Canonical(t))
	if ct == nil {
		return t
	}
	switch ct.Kind {
	case ast.TypeArray:
		return e.pointerTo(ct.Elem)
	case ast.TypeFunction:
		return e.pointerTo(e.Unit.Canonical(t))
	}
	return t
}

// pointerTo finds an existing pointer node to elem or appends one. Appending
// to the type arena is safe: type IDs are never renumbered.
func (e *LayoutEngine) pointerTo(elem ast.TypeID) ast.TypeID {
	types := e.Unit.Types.Slice()
	for i := range types {
		if types[i].Kind == ast.TypePointer && types[i].Elem == elem && !types[i].Const {
			return ast.TypeID(i + 1) // #nosec G115 -- arena index
		}
	}
	return ast.TypeID(e.Unit.Types.Allocate(ast.Type{Kind: ast.TypePointer, Elem: elem}))
}

const maxEncodeDepth = 32

func (e *LayoutEngine) encode(sb *strings.Builder, id ast.TypeID, o encOpts, depth int) {
	if depth > maxEncodeDepth {
		sb.WriteByte('?')
		return
	}
	u := e.Unit
	t := u.Type(id)
	if t == nil {
		sb.WriteByte('v')
		return
	}
	if t.Kind == ast.TypeTypedef {
		if t.Name == "BOOL" {
			sb.WriteByte('c')
			return
		}
		e.encode(sb, t.Elem, o, depth+1)
		return
	}
	switch t.Kind {
	case ast.TypeBuiltin:
		sb.WriteString(e.builtinCode(t.Name))
	case ast.TypeEnum:
		sb.WriteByte('i')
	case ast.TypeObjCID:
		sb.WriteByte('@')
		if o.classNames && len(t.Protocols) > 0 {
			sb.WriteString(`"<`)
			sb.WriteString(strings.Join(t.Protocols, "><"))
			sb.WriteString(`>"`)
		}
	case ast.TypeObjCClass:
		sb.WriteByte('#')
	case ast.TypeObjCSel:
		sb.WriteByte(':')
	case ast.TypeObjCObject:
		sb.WriteByte('@')
		if o.classNames {
			sb.WriteByte('"')
			sb.WriteString(t.Name)
			for _, p := range t.Protocols {
				sb.WriteString("<" + p + ">")
			}
			sb.WriteByte('"')
		}
	case ast.TypeBlockPointer:
		sb.WriteString("@?")
	case ast.TypePointer:
		e.encodePointer(sb, t, o, depth)
	case ast.TypeArray:
		if t.Len < 0 {
			// неполный массив кодируется как указатель
			sb.WriteByte('^')
			e.encode(sb, t.Elem, encOpts{classNames: o.classNames}, depth+1)
			return
		}
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatInt(t.Len, 10))
		e.encode(sb, t.Elem, encOpts{expandStructs: o.expandStructs, classNames: o.classNames}, depth+1)
		sb.WriteByte(']')
	case ast.TypeFunction:
		sb.WriteByte('?')
	case ast.TypeRecord:
		e.encodeRecord(sb, t, o, depth)
	default:
		sb.WriteByte('?')
	}
}

func (e *LayoutEngine) encodePointer(sb *strings.Builder, t *ast.Type, o encOpts, depth int) {
	u := e.Unit
	pointee := u.Type(t.Elem)
	if o.outermost {
		// const у самого внутреннего указуемого типа печатается как 'r' до '^'
		p := pointee
		for p != nil && p.Kind == ast.TypePointer {
			p = u.Type(p.Elem)
		}
		if p != nil && p.Const {
			sb.WriteByte('r')
		}
	}
	cp := u.Type(u.Canonical(t.Elem))
	if cp != nil {
		switch cp.Kind {
		case ast.TypeBuiltin:
			if isCharName(cp.Name) && !(pointee != nil && pointee.Kind == ast.TypeTypedef && pointee.Name == "BOOL") {
				sb.WriteByte('*')
				return
			}
		case ast.TypeRecord:
			switch cp.Name {
			case "objc_class":
				sb.WriteByte('#')
				return
			case "objc_object":
				sb.WriteByte('@')
				return
			}
		case ast.TypeFunction:
			sb.WriteString("^?")
			return
		}
	}
	sb.WriteByte('^')
	e.encode(sb, t.Elem, encOpts{expandStructs: o.expandPointedTo, classNames: o.classNames}, depth+1)
}

func (e *LayoutEngine) encodeRecord(sb *strings.Builder, t *ast.Type, o encOpts, depth int) {
	open, close := byte('{'), byte('}')
	if t.Union {
		open, close = '(', ')'
	}
	sb.WriteByte(open)
	name := t.Name
	if name == "" {
		name = "?"
	}
	sb.WriteString(name)
	decl := e.Unit.Decl(t.Decl)
	if o.expandStructs && decl != nil && decl.Kind == ast.DeclRecord {
		sb.WriteByte('=')
		for _, fid := range decl.Fields {
			f := e.Unit.Decl(fid)
			if f == nil {
				continue
			}
			if f.HasBitWidth {
				sb.WriteByte('b')
				sb.WriteString(strconv.FormatUint(uint64(f.BitWidth), 10))
				continue
			}
			e.encode(sb, f.Type, encOpts{expandStructs: true, classNames: o.classNames}, depth+1)
		}
	}
	sb.WriteByte(close)
}

func isCharName(name string) bool {
	switch name {
	case "char", "signed char", "unsigned char":
		return true
	}
	return false
}

func (e *LayoutEngine) builtinCode(name string) string {
	switch name {
	case "void":
		return "v"
	case "char", "signed char":
		return "c"
	case "unsigned char":
		return "C"
	case "short", "short int":
		return "s"
	case "unsigned short", "unsigned short int", "unichar":
		return "S"
	case "int", "signed", "signed int", "wchar_t":
		return "i"
	case "unsigned int", "unsigned":
		return "I"
	case "long", "long int", "signed long":
		if e.Target.LongSize == 4 {
			return "l"
		}
		return "q"
	case "unsigned long", "unsigned long int":
		if e.Target.LongSize == 4 {
			return "L"
		}
		return "Q"
	case "long long", "long long int":
		return "q"
	case "unsigned long long", "unsigned long long int":
		return "Q"
	case "float":
		return "f"
	case "double":
		return "d"
	case "long double":
		return "D"
	case "_Bool", "bool":
		return "B"
	}
	return "?"
}
