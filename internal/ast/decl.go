package ast

import (
	"objrw/internal/source"
)

type DeclKind uint8

const (
	DeclInterface DeclKind = iota
	DeclForwardClass
	DeclProtocol
	DeclForwardProtocol
	DeclCategory // Name == "" for a class extension
	DeclImplementation
	DeclCategoryImpl
	DeclMethod
	DeclProperty
	DeclPropertyImpl
	DeclIvar
	DeclFunction
	DeclVar
	DeclParam
	DeclTypedef
	DeclRecord
	DeclField
)

var declKindNames = [...]string{
	DeclInterface:       "interface",
	DeclForwardClass:    "forward-class",
	DeclProtocol:        "protocol",
	DeclForwardProtocol: "forward-protocol",
	DeclCategory:        "category",
	DeclImplementation:  "implementation",
	DeclCategoryImpl:    "category-impl",
	DeclMethod:          "method",
	DeclProperty:        "property",
	DeclPropertyImpl:    "property-impl",
	DeclIvar:            "ivar",
	DeclFunction:        "function",
	DeclVar:             "var",
	DeclParam:           "param",
	DeclTypedef:         "typedef",
	DeclRecord:          "record",
	DeclField:           "field",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "unknown"
}

// PropAttr is the declared attribute set of a @property.
type PropAttr uint16

const (
	PropReadonly PropAttr = 1 << iota
	PropReadwrite
	PropAssign
	PropRetain
	PropCopy
	PropNonatomic
	PropAtomic
	PropStrong
	PropWeak
	PropGetter
	PropSetter
)

func (a PropAttr) Has(f PropAttr) bool { return a&f != 0 }

// Storage is the storage class of a variable or function.
type Storage uint8

const (
	StorageNone Storage = iota
	StorageStatic
	StorageExtern
)

// Access of an ivar.
type Access uint8

const (
	AccessNone Access = iota
	AccessPrivate
	AccessProtected
	AccessPublic
	AccessPackage
)

// Decl is one declaration node. The field groups used depend on Kind:
//
//   - class-like (interface, category, protocol, implementations): Class,
//     Super, Protocols, Ivars, Methods, Props, PropImpls, IvarBlock, AtEnd
//   - forward lists: Names
//   - method: Instance, Selector, Params, Result, Variadic, Body, Implicit,
//     Optional, Container
//   - property: Attrs, Getter, Setter, GetterMethod, SetterMethod, Container
//   - property impl: Property, Ivar, Dynamic
//   - ivar, field: BitWidth, HasBitWidth, Access, Container, Record
//   - function: Params, Result, Variadic, Body, Storage
//   - var, param: Storage, ByRef, Local, Init
//   - record: Fields, Union
//
// Span covers the whole declaration. TypeSpan covers the declarator spelling
// from the first specifier to the end of the declared name.
type Decl struct {
	Kind     DeclKind    `msgpack:"k" json:"kind"`
	Span     source.Span `msgpack:"sp" json:"span"`
	TypeSpan source.Span `msgpack:"ts,omitempty" json:"typeSpan,omitempty"`
	Name     string      `msgpack:"n,omitempty" json:"name,omitempty"`
	Type     TypeID      `msgpack:"t,omitempty" json:"type,omitempty"`
	// Imported marks declarations that come from included headers: they feed
	// the registries but are never edited textually.
	Imported bool `msgpack:"imp,omitempty" json:"imported,omitempty"`

	Class     DeclID      `msgpack:"cls,omitempty" json:"class,omitempty"`
	Super     DeclID      `msgpack:"sup,omitempty" json:"super,omitempty"`
	Protocols []DeclID    `msgpack:"prs,omitempty" json:"protocols,omitempty"`
	Ivars     []DeclID    `msgpack:"ivs,omitempty" json:"ivars,omitempty"`
	Methods   []DeclID    `msgpack:"mts,omitempty" json:"methods,omitempty"`
	Props     []DeclID    `msgpack:"pps,omitempty" json:"props,omitempty"`
	PropImpls []DeclID    `msgpack:"pis,omitempty" json:"propImpls,omitempty"`
	IvarBlock source.Span `msgpack:"ivb,omitempty" json:"ivarBlock,omitempty"`
	AtEnd     source.Span `msgpack:"end,omitempty" json:"atEnd,omitempty"`
	Names     []string    `msgpack:"nms,omitempty" json:"names,omitempty"`

	Instance  bool     `msgpack:"ins,omitempty" json:"instance,omitempty"`
	Selector  string   `msgpack:"sel,omitempty" json:"selector,omitempty"`
	Params    []DeclID `msgpack:"prm,omitempty" json:"params,omitempty"`
	Result    TypeID   `msgpack:"res,omitempty" json:"result,omitempty"`
	Variadic  bool     `msgpack:"va,omitempty" json:"variadic,omitempty"`
	Body      StmtID   `msgpack:"b,omitempty" json:"body,omitempty"`
	Implicit  bool     `msgpack:"impl,omitempty" json:"implicit,omitempty"`
	Optional  bool     `msgpack:"opt,omitempty" json:"optional,omitempty"`
	Container DeclID   `msgpack:"ctr,omitempty" json:"container,omitempty"`

	Attrs        PropAttr `msgpack:"at,omitempty" json:"attrs,omitempty"`
	Getter       string   `msgpack:"get,omitempty" json:"getter,omitempty"`
	Setter       string   `msgpack:"set,omitempty" json:"setter,omitempty"`
	GetterMethod DeclID   `msgpack:"gm,omitempty" json:"getterMethod,omitempty"`
	SetterMethod DeclID   `msgpack:"sm,omitempty" json:"setterMethod,omitempty"`

	Property DeclID `msgpack:"pp,omitempty" json:"property,omitempty"`
	Ivar     DeclID `msgpack:"iv,omitempty" json:"ivar,omitempty"`
	Dynamic  bool   `msgpack:"dyn,omitempty" json:"dynamic,omitempty"`

	BitWidth    uint32 `msgpack:"bw,omitempty" json:"bitWidth,omitempty"`
	HasBitWidth bool   `msgpack:"hbw,omitempty" json:"hasBitWidth,omitempty"`
	Access      Access `msgpack:"acc,omitempty" json:"access,omitempty"`
	Record      DeclID `msgpack:"rec,omitempty" json:"record,omitempty"` // inline struct/union definition of a field type

	Storage Storage `msgpack:"st,omitempty" json:"storage,omitempty"`
	ByRef   bool    `msgpack:"br,omitempty" json:"byRef,omitempty"`
	Local   bool    `msgpack:"loc,omitempty" json:"local,omitempty"`
	Init    ExprID  `msgpack:"ini,omitempty" json:"init,omitempty"`

	Fields []DeclID `msgpack:"fld,omitempty" json:"fields,omitempty"`
	Union  bool     `msgpack:"un,omitempty" json:"union,omitempty"`
}

// IsClassLike reports whether the declaration is an @interface-family container.
func (d *Decl) IsClassLike() bool {
	switch d.Kind {
	case DeclInterface, DeclCategory, DeclProtocol, DeclImplementation, DeclCategoryImpl:
		return true
	}
	return false
}

// HasLocalStorage reports whether a var lives on the stack of a function.
func (d *Decl) HasLocalStorage() bool {
	return (d.Kind == DeclVar || d.Kind == DeclParam) && d.Local && d.Storage == StorageNone
}

// IsLocalStaticOrExtern reports a function-scope variable with static or
// extern storage.
func (d *Decl) IsLocalStaticOrExtern() bool {
	return d.Kind == DeclVar && d.Local && d.Storage != StorageNone
}
