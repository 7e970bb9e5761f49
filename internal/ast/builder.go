package ast

import (
	"strings"

	"objrw/internal/source"
)

// Builder appends nodes to a Unit. Front ends and tests use it; the rewriter
// itself never builds input nodes.
type Builder struct {
	Unit  *Unit
	types map[string]TypeID
}

func NewBuilder(path string, hints Hints) *Builder {
	return &Builder{
		Unit:  NewUnit(path, hints),
		types: make(map[string]TypeID),
	}
}

func (b *Builder) NewType(t Type) TypeID {
	return TypeID(b.Unit.Types.Allocate(t))
}

func (b *Builder) NewDecl(d Decl) DeclID {
	return DeclID(b.Unit.Decls.Allocate(d))
}

func (b *Builder) NewStmt(s Stmt) StmtID {
	return StmtID(b.Unit.Stmts.Allocate(s))
}

func (b *Builder) NewExpr(e Expr) ExprID {
	return ExprID(b.Unit.Exprs.Allocate(e))
}

// PushTop appends a top-level declaration.
func (b *Builder) PushTop(d DeclID) {
	b.Unit.TopLevel = append(b.Unit.TopLevel, d)
}

func (b *Builder) cached(key string, t Type) TypeID {
	if id, ok := b.types[key]; ok {
		return id
	}
	id := b.NewType(t)
	b.types[key] = id
	return id
}

// Builtin returns the shared node for a builtin type name ("int", "void", ...).
func (b *Builder) Builtin(name string) TypeID {
	return b.cached("b:"+name, Type{Kind: TypeBuiltin, Name: name})
}

func (b *Builder) ID(protocols ...string) TypeID {
	return b.cached("id:"+strings.Join(protocols, ","), Type{Kind: TypeObjCID, Protocols: protocols})
}

func (b *Builder) Class() TypeID {
	return b.cached("Class", Type{Kind: TypeObjCClass})
}

func (b *Builder) SEL() TypeID {
	return b.cached("SEL", Type{Kind: TypeObjCSel})
}

// Object returns "Name<P...> *".
func (b *Builder) Object(name string, protocols ...string) TypeID {
	return b.cached("o:"+name+"<"+strings.Join(protocols, ",")+">", Type{Kind: TypeObjCObject, Name: name, Protocols: protocols})
}

func (b *Builder) Pointer(elem TypeID) TypeID {
	return b.NewType(Type{Kind: TypePointer, Elem: elem})
}

func (b *Builder) Typedef(name string, elem TypeID) TypeID {
	return b.NewType(Type{Kind: TypeTypedef, Name: name, Elem: elem})
}

func (b *Builder) Record(name string, decl DeclID, union bool) TypeID {
	return b.NewType(Type{Kind: TypeRecord, Name: name, Decl: decl, Union: union})
}

func (b *Builder) Func(result TypeID, variadic bool, params ...TypeID) TypeID {
	return b.NewType(Type{Kind: TypeFunction, Result: result, Params: params, Variadic: variadic})
}

func (b *Builder) Block(fn TypeID) TypeID {
	return b.NewType(Type{Kind: TypeBlockPointer, Elem: fn})
}

func (b *Builder) Array(elem TypeID, n int64) TypeID {
	return b.NewType(Type{Kind: TypeArray, Elem: elem, Len: n})
}

// DeclRef builds a reference expression to decl.
func (b *Builder) DeclRef(sp source.Span, decl DeclID) ExprID {
	d := b.Unit.Decl(decl)
	return b.NewExpr(Expr{Kind: ExprDeclRef, Span: sp, Decl: decl, Name: d.Name, Type: d.Type})
}

// Compound builds a compound statement.
func (b *Builder) Compound(sp source.Span, list ...StmtID) StmtID {
	return b.NewStmt(Stmt{Kind: StmtCompound, Span: sp, List: list})
}

// ExprStmt wraps an expression.
func (b *Builder) ExprStmt(e ExprID) StmtID {
	return b.NewStmt(Stmt{Kind: StmtExpr, Span: b.Unit.Expr(e).Span, Expr: e})
}
