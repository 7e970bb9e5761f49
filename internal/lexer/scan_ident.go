package lexer

import (
	"objrw/internal/token"
)

// scanIdentOrKeyword читает идентификатор. Байты >= 0x80 считаются частью
// идентификатора: clang допускает UCN и UTF-8 в именах.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if !isIdentContinueByte(b) && b < utf8RuneSelf {
			break
		}
		lx.cursor.Bump()
	}
	tok := lx.emit(token.Ident, start)
	if k, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = k
	}
	return tok
}

// scanAt handles '@': @"str", @keyword, or a lone '@' (boxed literals, @[...]).
func (lx *Lexer) scanAt() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '@'
	switch b := lx.cursor.Peek(); {
	case b == '"':
		str := lx.scanQuoted('"', token.StringLit)
		str.Kind = token.AtString
		str.Span.Start = uint32(start)
		str.Text = string(lx.file.Content[str.Span.Start:str.Span.End])
		return str
	case isIdentStartByte(b):
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		return lx.emit(token.AtKeyword, start)
	}
	return lx.emit(token.At, start)
}

// scanDirective consumes a whole preprocessor line including '\' continuations.
// Comments on the line stay inside the directive text.
func (lx *Lexer) scanDirective() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\\' && (lx.cursor.PeekAt(1) == '\n' || lx.cursor.PeekAt(1) == '\r') {
			lx.cursor.Bump()
			if lx.cursor.Bump() == '\r' {
				lx.cursor.Eat('\n')
			}
			continue
		}
		if b == '\n' || b == '\r' {
			break
		}
		if b == '/' && lx.cursor.PeekAt(1) == '*' {
			// block comment may span lines inside a directive
			lx.cursor.Bump()
			lx.cursor.Bump()
			for !lx.cursor.EOF() && (lx.cursor.Peek() != '*' || lx.cursor.PeekAt(1) != '/') {
				lx.cursor.Bump()
			}
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		}
		lx.cursor.Bump()
	}
	return lx.emit(token.Directive, start)
}
