package cgen

import (
	"strconv"
	"strings"

	"objrw/internal/ast"
)

// Style selects how Objective-C-only type forms are spelled.
type Style uint8

const (
	// StyleSource keeps "^" block declarators and "<P>" qualifiers, the way
	// the front end would print the type.
	StyleSource Style = 0
	// FuncPtrBlocks spells block pointers as function pointers.
	FuncPtrBlocks Style = 1 << iota
	// NoProtocols drops protocol qualifier lists: id<P> is id, Foo<P> * is Foo *.
	NoProtocols
	// StyleC is the plain C spelling used by synthesized code.
	StyleC = FuncPtrBlocks | NoProtocols
)

// Speller prints types of one unit as C declarators.
type Speller struct {
	Unit *ast.Unit
}

// Type spells t as an abstract declarator ("int *", "void (*)(id, SEL)").
func (s Speller) Type(t ast.TypeID, st Style) string {
	return s.Decl(t, "", st)
}

// Decl spells a declaration of name with type t ("int (*fp)(int)").
func (s Speller) Decl(t ast.TypeID, name string, st Style) string {
	return s.decl(t, name, st, 0)
}

// Params spells the parameter list of a function type, parentheses included.
func (s Speller) Params(fn *ast.Type, st Style) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.Type(p, st))
	}
	if fn.Variadic {
		if len(fn.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	if len(fn.Params) == 0 && !fn.Variadic && !fn.NoProto {
		sb.WriteString("void")
	}
	sb.WriteByte(')')
	return sb.String()
}

func join(base, inner string) string {
	if inner == "" {
		return base
	}
	return base + " " + inner
}

func qual(t *ast.Type) string {
	q := ""
	if t.Const {
		q += "const "
	}
	if t.Volatile {
		q += "volatile "
	}
	return q
}

func protoList(t *ast.Type, st Style) string {
	if st&NoProtocols != 0 || len(t.Protocols) == 0 {
		return ""
	}
	return "<" + strings.Join(t.Protocols, ", ") + ">"
}

func (s Speller) decl(id ast.TypeID, inner string, st Style, depth int) string {
	t := s.Unit.Type(id)
	if t == nil || depth > 64 {
		return join("int", inner)
	}
	switch t.Kind {
	case ast.TypeBuiltin:
		return join(qual(t)+t.Name, inner)
	case ast.TypeTypedef:
		return join(qual(t)+t.Name, inner)
	case ast.TypeObjCID:
		return join(qual(t)+"id"+protoList(t, st), inner)
	case ast.TypeObjCClass:
		return join(qual(t)+"Class", inner)
	case ast.TypeObjCSel:
		return join(qual(t)+"SEL", inner)
	case ast.TypeObjCObject:
		return join(qual(t)+t.Name+protoList(t, st), "*"+inner)
	case ast.TypeRecord:
		kw := "struct "
		if t.Union {
			kw = "union "
		}
		return join(qual(t)+kw+t.Name, inner)
	case ast.TypeEnum:
		return join(qual(t)+"enum "+t.Name, inner)
	case ast.TypePointer, ast.TypeBlockPointer:
		star := "*"
		if t.Kind == ast.TypeBlockPointer && st&FuncPtrBlocks == 0 {
			star = "^"
		}
		if t.Const {
			star += "const "
			if inner == "" {
				star = strings.TrimSuffix(star, " ")
			}
		}
		next := star + inner
		if e := s.Unit.Type(t.Elem); e != nil && (e.Kind == ast.TypeFunction || e.Kind == ast.TypeArray) {
			next = "(" + next + ")"
		}
		return s.decl(t.Elem, next, st, depth+1)
	case ast.TypeFunction:
		return s.decl(t.Result, inner+s.Params(t, st), st, depth+1)
	case ast.TypeArray:
		dim := "[]"
		if t.Len >= 0 {
			dim = "[" + strconv.FormatInt(t.Len, 10) + "]"
		}
		return s.decl(t.Elem, inner+dim, st, depth+1)
	}
	return join("int", inner)
}

// Unqualified returns the spelling of t for the dispatch casts: a qualified id
// is plain id, block pointers become function pointers.
func (s Speller) Unqualified(t ast.TypeID) string {
	return s.Type(t, StyleC)
}
