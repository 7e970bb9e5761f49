package ast

import (
	"objrw/internal/source"
)

// SchemaVersion of the unit document. Bump on incompatible changes.
const SchemaVersion uint16 = 1

// Lang carries language options the front end compiled the unit with.
// Nil pointers mean "not specified" and let configuration decide.
type Lang struct {
	MSExtensions *bool `msgpack:"ms,omitempty" json:"msExtensions,omitempty"`
	Header       *bool `msgpack:"hdr,omitempty" json:"header,omitempty"`
}

// Unit is one translation unit as produced by the external front end:
// typed, name-resolved, with exact spans into the main file.
type Unit struct {
	Path        string
	Source      []byte // inline source, nil means "read Path"
	File        source.FileID
	Lang        Lang
	PriorErrors int
	Macros      []source.Span
	Includes    []source.Span
	TopLevel    []DeclID

	Types *Arena[Type]
	Decls *Arena[Decl]
	Stmts *Arena[Stmt]
	Exprs *Arena[Expr]
}

// NewUnit creates an empty unit with arenas sized by hints.
func NewUnit(path string, hints Hints) *Unit {
	hints = hints.withDefaults()
	return &Unit{
		Path:  path,
		Types: NewArena[Type](hints.Types),
		Decls: NewArena[Decl](hints.Decls),
		Stmts: NewArena[Stmt](hints.Stmts),
		Exprs: NewArena[Expr](hints.Exprs),
	}
}

type Hints struct{ Types, Decls, Stmts, Exprs uint }

func (h Hints) withDefaults() Hints {
	if h.Types == 0 {
		h.Types = 1 << 6
	}
	if h.Decls == 0 {
		h.Decls = 1 << 7
	}
	if h.Stmts == 0 {
		h.Stmts = 1 << 8
	}
	if h.Exprs == 0 {
		h.Exprs = 1 << 8
	}
	return h
}

func (u *Unit) Type(id TypeID) *Type { return u.Types.Get(uint32(id)) }
func (u *Unit) Decl(id DeclID) *Decl { return u.Decls.Get(uint32(id)) }
func (u *Unit) Stmt(id StmtID) *Stmt { return u.Stmts.Get(uint32(id)) }
func (u *Unit) Expr(id ExprID) *Expr { return u.Exprs.Get(uint32(id)) }

// Bind stamps every span of the unit with file, so spans from the document
// (which carry no file) address the loaded source.
func (u *Unit) Bind(file source.FileID) {
	u.File = file
	bind := func(sp *source.Span) { sp.File = file }
	for i := range u.Macros {
		bind(&u.Macros[i])
	}
	for i := range u.Includes {
		bind(&u.Includes[i])
	}
	decls := u.Decls.Slice()
	for i := range decls {
		d := &decls[i]
		bind(&d.Span)
		bind(&d.TypeSpan)
		bind(&d.IvarBlock)
		bind(&d.AtEnd)
	}
	stmts := u.Stmts.Slice()
	for i := range stmts {
		bind(&stmts[i].Span)
		bind(&stmts[i].RParen)
	}
	exprs := u.Exprs.Slice()
	for i := range exprs {
		bind(&exprs[i].Span)
		bind(&exprs[i].TypeSpan)
	}
}

// Interfaces returns the class interface declaration named name, preferring a
// definition from the main file.
func (u *Unit) Interface(name string) DeclID {
	var found DeclID
	decls := u.Decls.Slice()
	for i := range decls {
		d := &decls[i]
		if d.Kind == DeclInterface && d.Name == name {
			id := DeclID(i + 1) // #nosec G115 -- arena index
			if !d.Imported {
				return id
			}
			if !found.IsValid() {
				found = id
			}
		}
	}
	return found
}

// ClassOf returns the interface a class-like declaration belongs to.
func (u *Unit) ClassOf(id DeclID) DeclID {
	d := u.Decl(id)
	if d == nil {
		return NoDeclID
	}
	switch d.Kind {
	case DeclInterface:
		return id
	case DeclCategory, DeclImplementation, DeclCategoryImpl:
		return d.Class
	}
	return NoDeclID
}

// ClassName returns the class name of a class-like declaration.
func (u *Unit) ClassName(id DeclID) string {
	d := u.Decl(id)
	if d == nil {
		return ""
	}
	switch d.Kind {
	case DeclInterface, DeclImplementation:
		return d.Name
	case DeclCategory, DeclCategoryImpl:
		if c := u.Decl(d.Class); c != nil {
			return c.Name
		}
	}
	return ""
}

// CategoryName returns the category name of a category or category impl,
// otherwise "".
func (u *Unit) CategoryName(id DeclID) string {
	d := u.Decl(id)
	if d != nil && (d.Kind == DeclCategory || d.Kind == DeclCategoryImpl) {
		return d.Name
	}
	return ""
}

// AllIvars returns the ivars of the class interface, of its extensions and of
// its @implementation, in that order.
func (u *Unit) AllIvars(iface DeclID) []DeclID {
	d := u.Decl(iface)
	if d == nil {
		return nil
	}
	out := append([]DeclID(nil), d.Ivars...)
	decls := u.Decls.Slice()
	for i := range decls {
		c := &decls[i]
		if c.Kind == DeclCategory && c.Class == iface && c.Name == "" {
			out = append(out, c.Ivars...)
		}
	}
	if impl := u.Decl(u.Implementation(iface)); impl != nil {
		out = append(out, impl.Ivars...)
	}
	return out
}

// Implementation returns the @implementation of a class interface.
func (u *Unit) Implementation(iface DeclID) DeclID {
	decls := u.Decls.Slice()
	for i := range decls {
		if decls[i].Kind == DeclImplementation && decls[i].Class == iface {
			return DeclID(i + 1) // #nosec G115 -- arena index
		}
	}
	return NoDeclID
}

// LookupMethod finds a method declared by class-like container id, its
// categories, protocols or super classes.
func (u *Unit) LookupMethod(iface DeclID, selector string, instance bool) DeclID {
	seen := map[DeclID]bool{}
	var walk func(id DeclID) DeclID
	walk = func(id DeclID) DeclID {
		d := u.Decl(id)
		if d == nil || seen[id] {
			return NoDeclID
		}
		seen[id] = true
		for _, m := range d.Methods {
			md := u.Decl(m)
			if md != nil && md.Selector == selector && md.Instance == instance {
				return m
			}
		}
		for _, p := range d.Protocols {
			if r := walk(p); r.IsValid() {
				return r
			}
		}
		if d.Kind == DeclInterface {
			decls := u.Decls.Slice()
			for i := range decls {
				if decls[i].Kind == DeclCategory && decls[i].Class == id {
					if r := walk(DeclID(i + 1)); r.IsValid() { // #nosec G115 -- arena index
						return r
					}
				}
			}
			return walk(d.Super)
		}
		return NoDeclID
	}
	return walk(iface)
}
