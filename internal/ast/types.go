package ast

// TypeKind enumerates the resolved type forms the front end hands over.
type TypeKind uint8

const (
	TypeBuiltin    TypeKind = iota // Name: "int", "unsigned long", "double", "void", ...
	TypePointer                    // Elem *
	TypeObjCID                     // id, id<P>
	TypeObjCClass                  // Class
	TypeObjCSel                    // SEL
	TypeObjCObject                 // Name *, Name<P> * (pointer to an interface)
	TypeRecord                     // struct/union Name, Decl
	TypeEnum                       // enum Name
	TypeTypedef                    // Name aliasing Elem
	TypeFunction                   // Result (Params...)
	TypeBlockPointer               // Elem is the function type
	TypeArray                      // Elem[Len], Len < 0 for incomplete arrays
)

var typeKindNames = [...]string{
	TypeBuiltin:      "builtin",
	TypePointer:      "pointer",
	TypeObjCID:       "id",
	TypeObjCClass:    "Class",
	TypeObjCSel:      "SEL",
	TypeObjCObject:   "object",
	TypeRecord:       "record",
	TypeEnum:         "enum",
	TypeTypedef:      "typedef",
	TypeFunction:     "function",
	TypeBlockPointer: "block",
	TypeArray:        "array",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// Type is one node of the type arena. Fields not used by Kind stay zero.
type Type struct {
	Kind      TypeKind `msgpack:"k" json:"kind"`
	Name      string   `msgpack:"n,omitempty" json:"name,omitempty"`
	Elem      TypeID   `msgpack:"el,omitempty" json:"elem,omitempty"`
	Result    TypeID   `msgpack:"r,omitempty" json:"result,omitempty"`
	Params    []TypeID `msgpack:"p,omitempty" json:"params,omitempty"`
	Variadic  bool     `msgpack:"va,omitempty" json:"variadic,omitempty"`
	NoProto   bool     `msgpack:"np,omitempty" json:"noProto,omitempty"`
	Protocols []string `msgpack:"pr,omitempty" json:"protocols,omitempty"`
	Union     bool     `msgpack:"u,omitempty" json:"union,omitempty"`
	Decl      DeclID   `msgpack:"d,omitempty" json:"decl,omitempty"`
	Len       int64    `msgpack:"len,omitempty" json:"len,omitempty"`
	Const     bool     `msgpack:"c,omitempty" json:"const,omitempty"`
	Volatile  bool     `msgpack:"v,omitempty" json:"volatile,omitempty"`
}
