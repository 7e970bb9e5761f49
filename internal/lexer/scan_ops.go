package lexer

import (
	"objrw/internal/token"
)

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()

	// 3-символьные операторы
	if b0, b1, b2, ok := lx.cursor.Peek3(); ok {
		switch {
		case b0 == '.' && b1 == '.' && b2 == '.':
			return lx.bumpN(start, 3, token.Ellipsis)
		case b0 == '<' && b1 == '<' && b2 == '=':
			return lx.bumpN(start, 3, token.OpAssign)
		case b0 == '>' && b1 == '>' && b2 == '=':
			return lx.bumpN(start, 3, token.OpAssign)
		}
	}

	// 2-символьные операторы
	if b0, b1, ok := lx.cursor.Peek2(); ok {
		two := string([]byte{b0, b1})
		switch two {
		case "->":
			return lx.bumpN(start, 2, token.Arrow)
		case "++":
			return lx.bumpN(start, 2, token.PlusPlus)
		case "--":
			return lx.bumpN(start, 2, token.MinusMinus)
		case "<<":
			return lx.bumpN(start, 2, token.Shl)
		case ">>":
			return lx.bumpN(start, 2, token.Shr)
		case "<=":
			return lx.bumpN(start, 2, token.LtEq)
		case ">=":
			return lx.bumpN(start, 2, token.GtEq)
		case "==":
			return lx.bumpN(start, 2, token.EqEq)
		case "!=":
			return lx.bumpN(start, 2, token.BangEq)
		case "&&":
			return lx.bumpN(start, 2, token.AndAnd)
		case "||":
			return lx.bumpN(start, 2, token.OrOr)
		case "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=":
			return lx.bumpN(start, 2, token.OpAssign)
		}
	}

	b := lx.cursor.Bump()
	var k token.Kind
	switch b {
	case '(':
		k = token.LParen
	case ')':
		k = token.RParen
	case '{':
		k = token.LBrace
	case '}':
		k = token.RBrace
	case '[':
		k = token.LBracket
	case ']':
		k = token.RBracket
	case ';':
		k = token.Semicolon
	case ',':
		k = token.Comma
	case ':':
		k = token.Colon
	case '.':
		k = token.Dot
	case '^':
		k = token.Caret
	case '*':
		k = token.Star
	case '&':
		k = token.Amp
	case '|':
		k = token.Pipe
	case '+':
		k = token.Plus
	case '-':
		k = token.Minus
	case '/':
		k = token.Slash
	case '%':
		k = token.Percent
	case '!':
		k = token.Bang
	case '~':
		k = token.Tilde
	case '?':
		k = token.Question
	case '<':
		k = token.Lt
	case '>':
		k = token.Gt
	case '=':
		k = token.Assign
	case '#':
		k = token.Hash
		lx.cursor.Eat('#')
	default:
		k = token.Invalid
		lx.report("unknown-char", lx.cursor.SpanFrom(start), "unexpected character")
	}
	return lx.emit(k, start)
}

func (lx *Lexer) bumpN(m Mark, n int, k token.Kind) token.Token {
	for range n {
		lx.cursor.Bump()
	}
	return lx.emit(k, m)
}
