package lexer

import (
	"objrw/internal/source"
	"objrw/internal/token"
)

// Lexer scans C and Objective-C tokens over a byte range of one file. It is
// cheap to construct and holds no global state, so the rewriter can open a
// fresh one for any node's span.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia
}

func New(file *source.File, opts Options) *Lexer {
	cur := NewCursor(file)
	if !opts.Range.Empty() || opts.Range.Start != 0 {
		if opts.Range.End < cur.Limit {
			cur.Limit = opts.Range.End
		}
		cur.Off = opts.Range.Start
		if cur.Off > cur.Limit {
			cur.Off = cur.Limit
		}
	}
	return &Lexer{
		file:   file,
		cursor: cur,
		opts:   opts,
	}
}

// Next возвращает следующий **значимый** токен с уже собранным Leading.
// После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		return token.Token{
			Kind: token.EOF,
			Span: lx.emptySpan(),
		}
	}

	ch := lx.cursor.Peek()
	var tok token.Token

	switch {
	case ch == '#':
		if lx.cursor.AtLineStart() {
			tok = lx.scanDirective()
		} else {
			tok = lx.scanOperatorOrPunct()
		}

	case ch == '@':
		tok = lx.scanAt()

	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()

	case isDec(ch):
		tok = lx.scanNumber()

	case ch == '.' && lx.isNumberAfterDot():
		tok = lx.scanNumber()

	case ch == '"':
		tok = lx.scanQuoted('"', token.StringLit)

	case ch == '\'':
		tok = lx.scanQuoted('\'', token.CharLit)

	default:
		tok = lx.scanOperatorOrPunct()
	}

	tok.Leading = lx.hold
	lx.hold = nil

	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// Offset returns the current cursor position.
func (lx *Lexer) Offset() uint32 {
	if lx.look != nil {
		return lx.look.Span.Start
	}
	return lx.cursor.Off
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) emit(k token.Kind, m Mark) token.Token {
	sp := lx.cursor.SpanFrom(m)
	return token.Token{Kind: k, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

// Tokenize scans the whole range and returns the significant tokens, without EOF.
func Tokenize(file *source.File, rng source.Span) []token.Token {
	lx := New(file, Options{Range: rng})
	var out []token.Token
	for {
		t := lx.Next()
		if t.Kind == token.EOF {
			return out
		}
		out = append(out, t)
	}
}
