package lexer

import (
	"objrw/internal/token"
)

// scanQuoted читает строковый или символьный литерал до закрывающей кавычки.
// Экранирование не декодируется: текст литерала копируется в вывод как есть.
func (lx *Lexer) scanQuoted(quote byte, kind token.Kind) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // открывающая кавычка
	for {
		if lx.cursor.EOF() {
			lx.report("unterminated-literal", lx.cursor.SpanFrom(start), "unterminated literal")
			return lx.emit(kind, start)
		}
		b := lx.cursor.Peek()
		switch b {
		case '\\':
			lx.cursor.Bump()
			if !lx.cursor.EOF() {
				lx.cursor.Bump()
			}
		case '\n':
			lx.report("unterminated-literal", lx.cursor.SpanFrom(start), "newline in literal")
			return lx.emit(kind, start)
		case quote:
			lx.cursor.Bump()
			return lx.emit(kind, start)
		default:
			lx.cursor.Bump()
		}
	}
}
