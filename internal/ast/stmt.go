package ast

import (
	"objrw/internal/source"
)

type StmtKind uint8

const (
	StmtCompound StmtKind = iota
	StmtExpr
	StmtDecl
	StmtIf
	StmtWhile
	StmtDo
	StmtFor
	StmtForIn
	StmtSwitch
	StmtCase
	StmtDefault
	StmtBreak
	StmtContinue
	StmtReturn
	StmtGoto
	StmtLabel
	StmtTry
	StmtCatch
	StmtFinally
	StmtSynchronized
	StmtThrow
	StmtAutoreleasePool
	StmtNull
)

var stmtKindNames = [...]string{
	StmtCompound:        "compound",
	StmtExpr:            "expr",
	StmtDecl:            "decl",
	StmtIf:              "if",
	StmtWhile:           "while",
	StmtDo:              "do",
	StmtFor:             "for",
	StmtForIn:           "for-in",
	StmtSwitch:          "switch",
	StmtCase:            "case",
	StmtDefault:         "default",
	StmtBreak:           "break",
	StmtContinue:        "continue",
	StmtReturn:          "return",
	StmtGoto:            "goto",
	StmtLabel:           "label",
	StmtTry:             "@try",
	StmtCatch:           "@catch",
	StmtFinally:         "@finally",
	StmtSynchronized:    "@synchronized",
	StmtThrow:           "@throw",
	StmtAutoreleasePool: "@autoreleasepool",
	StmtNull:            "null",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "unknown"
}

// Stmt is one statement node. Spans of simple statements end before the
// terminating ';'; compound statements include their braces.
//
// Field usage by kind:
//
//   - compound: List
//   - expr: Expr; decl: Decls
//   - if: Cond, Then, Else; while, switch: Cond, Body; do: Body, Cond
//   - for: Init, Cond, Inc, Body
//   - for-in: Elem (decl statement) or ElemExpr, Expr (collection), RParen, Body
//   - case: Expr, Body; default, label: Body (label also Label)
//   - return: Expr (optional); goto: Label
//   - @try: Body, Catches, Finally; @catch: Param (0 for "..."), Ellipsis,
//     RParen, Body; @finally: Body
//   - @synchronized: Expr, Body; @throw: Expr (0 rethrows); @autoreleasepool: Body
type Stmt struct {
	Kind StmtKind    `msgpack:"k" json:"kind"`
	Span source.Span `msgpack:"sp" json:"span"`

	List     []StmtID    `msgpack:"l,omitempty" json:"list,omitempty"`
	Expr     ExprID      `msgpack:"x,omitempty" json:"expr,omitempty"`
	Decls    []DeclID    `msgpack:"ds,omitempty" json:"decls,omitempty"`
	Cond     ExprID      `msgpack:"c,omitempty" json:"cond,omitempty"`
	Then     StmtID      `msgpack:"th,omitempty" json:"then,omitempty"`
	Else     StmtID      `msgpack:"el,omitempty" json:"else,omitempty"`
	Init     StmtID      `msgpack:"in,omitempty" json:"init,omitempty"`
	Inc      ExprID      `msgpack:"inc,omitempty" json:"inc,omitempty"`
	Body     StmtID      `msgpack:"b,omitempty" json:"body,omitempty"`
	Elem     StmtID      `msgpack:"e,omitempty" json:"elem,omitempty"`
	ElemExpr ExprID      `msgpack:"ex,omitempty" json:"elemExpr,omitempty"`
	RParen   source.Span `msgpack:"rp,omitempty" json:"rparen,omitempty"`
	Label    string      `msgpack:"lb,omitempty" json:"label,omitempty"`
	Catches  []StmtID    `msgpack:"ca,omitempty" json:"catches,omitempty"`
	Finally  StmtID      `msgpack:"fi,omitempty" json:"finally,omitempty"`
	Param    DeclID      `msgpack:"p,omitempty" json:"param,omitempty"`
	Ellipsis bool        `msgpack:"ell,omitempty" json:"ellipsis,omitempty"`
}

// IsLoop reports statements that `break`/`continue` bind to. Switch counts
// for break only, callers check that separately.
func (s *Stmt) IsLoop() bool {
	switch s.Kind {
	case StmtWhile, StmtDo, StmtFor, StmtForIn:
		return true
	}
	return false
}
