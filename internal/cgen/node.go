// Package cgen holds the low-level C expressions the synthesizer builds and
// the printer that turns them into text. Nodes live in an Arena owned by one
// translation unit and are addressed by NodeID.
package cgen

// NodeID indexes an Arena. Zero is "no node".
type NodeID uint32

func (id NodeID) IsValid() bool { return id != 0 }

type Kind uint8

const (
	// KindRaw is already rendered text. Group marks text that is a binary or
	// conditional expression and needs parentheses as an operand.
	KindRaw Kind = iota
	KindIdent
	KindString // Text is the unescaped value
	KindInt
	KindCall
	KindCast
	KindParen
	KindUnary
	KindBinary
	KindCond
	KindMember
	KindSizeof
	KindCompoundLit
)

// Node is one synthesized expression.
//
//   - call: X callee, Args
//   - cast: Type, X; paren: X; unary: Op, X, Postfix
//   - binary: Op, X, Y; cond: X ? Y : Z
//   - member: X, Text (field), Arrow
//   - sizeof: Type; compound literal: Type, Args
type Node struct {
	Kind    Kind
	Text    string
	Type    string
	Op      string
	X, Y, Z NodeID
	Args    []NodeID
	Arrow   bool
	Postfix bool
	Group   bool
}

// Arena stores nodes of one unit.
type Arena struct {
	nodes []Node
}

func NewArena(capHint int) *Arena {
	return &Arena{nodes: make([]Node, 0, capHint)}
}

func (a *Arena) add(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes)) // #nosec G115 -- arena sizes stay far below 2^32
}

// Get returns the node behind id, nil for an invalid id.
func (a *Arena) Get(id NodeID) *Node {
	if !id.IsValid() || int(id) > len(a.nodes) {
		return nil
	}
	return &a.nodes[id-1]
}

func (a *Arena) Len() int { return len(a.nodes) }

// Raw wraps text. group=true for binary/conditional text.
func (a *Arena) Raw(text string, group bool) NodeID {
	return a.add(Node{Kind: KindRaw, Text: text, Group: group})
}

func (a *Arena) Ident(name string) NodeID {
	return a.add(Node{Kind: KindIdent, Text: name})
}

// String is a C string literal with value s.
func (a *Arena) String(s string) NodeID {
	return a.add(Node{Kind: KindString, Text: s})
}

func (a *Arena) Int(text string) NodeID {
	return a.add(Node{Kind: KindInt, Text: text})
}

func (a *Arena) Call(fn NodeID, args ...NodeID) NodeID {
	return a.add(Node{Kind: KindCall, X: fn, Args: args})
}

// CallName calls a function by name.
func (a *Arena) CallName(name string, args ...NodeID) NodeID {
	return a.Call(a.Ident(name), args...)
}

func (a *Arena) Cast(typ string, x NodeID) NodeID {
	return a.add(Node{Kind: KindCast, Type: typ, X: x})
}

func (a *Arena) Paren(x NodeID) NodeID {
	return a.add(Node{Kind: KindParen, X: x})
}

func (a *Arena) Unary(op string, x NodeID) NodeID {
	return a.add(Node{Kind: KindUnary, Op: op, X: x})
}

// AddrOf is &x.
func (a *Arena) AddrOf(x NodeID) NodeID { return a.Unary("&", x) }

// Deref is *x.
func (a *Arena) Deref(x NodeID) NodeID { return a.Unary("*", x) }

func (a *Arena) Binary(op string, x, y NodeID) NodeID {
	return a.add(Node{Kind: KindBinary, Op: op, X: x, Y: y})
}

func (a *Arena) Cond(c, t, f NodeID) NodeID {
	return a.add(Node{Kind: KindCond, X: c, Y: t, Z: f})
}

func (a *Arena) Member(x NodeID, field string, arrow bool) NodeID {
	return a.add(Node{Kind: KindMember, X: x, Text: field, Arrow: arrow})
}

func (a *Arena) Sizeof(typ string) NodeID {
	return a.add(Node{Kind: KindSizeof, Type: typ})
}

// CompoundLit is (T){args...}.
func (a *Arena) CompoundLit(typ string, args ...NodeID) NodeID {
	return a.add(Node{Kind: KindCompoundLit, Type: typ, Args: args})
}
