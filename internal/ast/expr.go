package ast

import (
	"objrw/internal/source"
)

type ExprKind uint8

const (
	ExprDeclRef ExprKind = iota
	ExprIntLit
	ExprFloatLit
	ExprCharLit
	ExprStringLit
	ExprObjCString
	ExprMessage
	ExprSelector
	ExprProtocol
	ExprEncode
	ExprIvarRef
	ExprPropertyRef
	ExprBlock
	ExprCall
	ExprParen
	ExprUnary
	ExprBinary
	ExprConditional
	ExprCast
	ExprMember
	ExprSubscript
	ExprSizeof
	ExprInitList
)

var exprKindNames = [...]string{
	ExprDeclRef:     "declref",
	ExprIntLit:      "int",
	ExprFloatLit:    "float",
	ExprCharLit:     "char",
	ExprStringLit:   "string",
	ExprObjCString:  "@string",
	ExprMessage:     "message",
	ExprSelector:    "@selector",
	ExprProtocol:    "@protocol",
	ExprEncode:      "@encode",
	ExprIvarRef:     "ivar",
	ExprPropertyRef: "property",
	ExprBlock:       "block",
	ExprCall:        "call",
	ExprParen:       "paren",
	ExprUnary:       "unary",
	ExprBinary:      "binary",
	ExprConditional: "conditional",
	ExprCast:        "cast",
	ExprMember:      "member",
	ExprSubscript:   "subscript",
	ExprSizeof:      "sizeof",
	ExprInitList:    "initlist",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "unknown"
}

// ReceiverKind classifies the receiver of a message send or property access.
type ReceiverKind uint8

const (
	RecvInstance ReceiverKind = iota
	RecvClass
	RecvSuperInstance
	RecvSuperClass
)

func (k ReceiverKind) IsSuper() bool {
	return k == RecvSuperInstance || k == RecvSuperClass
}

// Expr is one expression node.
//
// Field usage by kind:
//
//   - declref: Decl, Name
//   - literals: Text (spelling); @string: Value (decoded bytes)
//   - message: Recv, Receiver, Class, Selector, Args, Method
//   - @selector: Selector; @protocol: Decl, Name; @encode: Operand type in Arg
//   - ivar: Base (0 is the implicit self), Decl, Arrow
//   - property: Base, Recv, Class, Decl, Method (getter), Setter (method),
//     Assign (RHS of the setter form, whose span covers the whole assignment)
//   - block: Params, Body
//   - call: Callee, Args; paren, unary: Operand (unary also Op, Postfix)
//   - binary: Op, LHS, RHS; conditional: Cond, LHS, RHS
//   - cast: Arg (target type), Operand, TypeSpan
//   - member: Base, Name, Arrow; subscript: Base, Index
//   - sizeof: Op ("sizeof", "alignof", "_Alignof"), Operand or Arg
//   - init list: Args
//
// Type is the resolved type of the expression. Conv, when set, is the type
// the front end implicitly converts the value to at its use site.
type Expr struct {
	Kind ExprKind    `msgpack:"k" json:"kind"`
	Span source.Span `msgpack:"sp" json:"span"`
	Type TypeID      `msgpack:"t,omitempty" json:"type,omitempty"`
	Conv TypeID      `msgpack:"cv,omitempty" json:"conv,omitempty"`

	Decl     DeclID       `msgpack:"d,omitempty" json:"decl,omitempty"`
	Name     string       `msgpack:"n,omitempty" json:"name,omitempty"`
	Text     string       `msgpack:"tx,omitempty" json:"text,omitempty"`
	Value    string       `msgpack:"val,omitempty" json:"value,omitempty"`
	Recv     ReceiverKind `msgpack:"rk,omitempty" json:"recv,omitempty"`
	Receiver ExprID       `msgpack:"rc,omitempty" json:"receiver,omitempty"`
	Class    string       `msgpack:"cls,omitempty" json:"class,omitempty"`
	Selector string       `msgpack:"sel,omitempty" json:"selector,omitempty"`
	Args     []ExprID     `msgpack:"a,omitempty" json:"args,omitempty"`
	Method   DeclID       `msgpack:"m,omitempty" json:"method,omitempty"`
	Setter   DeclID       `msgpack:"sm,omitempty" json:"setter,omitempty"`
	Assign   ExprID       `msgpack:"as,omitempty" json:"assign,omitempty"`
	Base     ExprID       `msgpack:"bs,omitempty" json:"base,omitempty"`
	Arrow    bool         `msgpack:"ar,omitempty" json:"arrow,omitempty"`
	Params   []DeclID     `msgpack:"p,omitempty" json:"params,omitempty"`
	Body     StmtID       `msgpack:"b,omitempty" json:"body,omitempty"`
	Callee   ExprID       `msgpack:"ce,omitempty" json:"callee,omitempty"`
	Operand  ExprID       `msgpack:"o,omitempty" json:"operand,omitempty"`
	Op       string       `msgpack:"op,omitempty" json:"op,omitempty"`
	Postfix  bool         `msgpack:"pf,omitempty" json:"postfix,omitempty"`
	LHS      ExprID       `msgpack:"l,omitempty" json:"lhs,omitempty"`
	RHS      ExprID       `msgpack:"r,omitempty" json:"rhs,omitempty"`
	Cond     ExprID       `msgpack:"c,omitempty" json:"cond,omitempty"`
	Index    ExprID       `msgpack:"ix,omitempty" json:"index,omitempty"`
	Arg      TypeID       `msgpack:"at,omitempty" json:"argType,omitempty"`
	TypeSpan source.Span  `msgpack:"ts,omitempty" json:"typeSpan,omitempty"`
}

// IsSetter reports a property reference in assignment position.
func (e *Expr) IsSetter() bool {
	return e.Kind == ExprPropertyRef && e.Assign.IsValid()
}
