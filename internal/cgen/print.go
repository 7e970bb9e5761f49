package cgen

import (
	"strconv"
	"strings"
)

// Print renders the expression rooted at id. The output follows the spacing
// of clang's pretty printer: "(T)x", "f(a, b)", "a ? b : c", "sizeof(T)".
func (a *Arena) Print(id NodeID) string {
	var sb strings.Builder
	a.print(&sb, id)
	return sb.String()
}

func (a *Arena) print(sb *strings.Builder, id NodeID) {
	n := a.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case KindRaw, KindIdent, KindInt:
		sb.WriteString(n.Text)
	case KindString:
		sb.WriteString(Quote(n.Text))
	case KindCall:
		a.print(sb, n.X)
		sb.WriteByte('(')
		a.list(sb, n.Args)
		sb.WriteByte(')')
	case KindCast:
		sb.WriteByte('(')
		sb.WriteString(n.Type)
		sb.WriteByte(')')
		a.operand(sb, n.X)
	case KindParen:
		sb.WriteByte('(')
		a.print(sb, n.X)
		sb.WriteByte(')')
	case KindUnary:
		if n.Postfix {
			a.operand(sb, n.X)
			sb.WriteString(n.Op)
			return
		}
		sb.WriteString(n.Op)
		a.operand(sb, n.X)
	case KindBinary:
		a.print(sb, n.X)
		sb.WriteByte(' ')
		sb.WriteString(n.Op)
		sb.WriteByte(' ')
		a.print(sb, n.Y)
	case KindCond:
		a.print(sb, n.X)
		sb.WriteString(" ? ")
		a.print(sb, n.Y)
		sb.WriteString(" : ")
		a.print(sb, n.Z)
	case KindMember:
		a.operand(sb, n.X)
		if n.Arrow {
			sb.WriteString("->")
		} else {
			sb.WriteByte('.')
		}
		sb.WriteString(n.Text)
	case KindSizeof:
		sb.WriteString("sizeof(")
		sb.WriteString(n.Type)
		sb.WriteByte(')')
	case KindCompoundLit:
		sb.WriteByte('(')
		sb.WriteString(n.Type)
		sb.WriteString("){")
		a.list(sb, n.Args)
		sb.WriteByte('}')
	}
}

func (a *Arena) list(sb *strings.Builder, ids []NodeID) {
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.print(sb, id)
	}
}

// operand prints x as the operand of a prefix operator or cast: binary and
// conditional expressions get parentheses.
func (a *Arena) operand(sb *strings.Builder, x NodeID) {
	n := a.Get(x)
	if n != nil && (n.Kind == KindBinary || n.Kind == KindCond || (n.Kind == KindRaw && n.Group)) {
		sb.WriteByte('(')
		a.print(sb, x)
		sb.WriteByte(')')
		return
	}
	a.print(sb, x)
}

// Quote returns s as a C string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\000`)
		default:
			if c < 0x20 || c >= 0x7f {
				sb.WriteByte('\\')
				o := strconv.FormatInt(int64(c), 8)
				sb.WriteString(strings.Repeat("0", 3-len(o)))
				sb.WriteString(o)
				continue
			}
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
