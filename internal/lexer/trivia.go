package lexer

import (
	"objrw/internal/token"
)

// collectLeadingTrivia собирает пробелы, переводы строк и комментарии
// перед следующим значимым токеном. Блочные комментарии в C не вкладываются.
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		ch := lx.cursor.Peek()

		switch {
		case ch == '\n':
			lx.cursor.Bump()
			lx.pushTrivia(token.TriviaNewline, start)

		case ch == '\r':
			lx.cursor.Bump()
			lx.cursor.Eat('\n')
			lx.pushTrivia(token.TriviaNewline, start)

		case ch == ' ' || ch == '\t' || ch == '\f' || ch == '\v':
			for {
				b := lx.cursor.Peek()
				if b != ' ' && b != '\t' && b != '\f' && b != '\v' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)

		case ch == '\\' && (lx.cursor.PeekAt(1) == '\n' || lx.cursor.PeekAt(1) == '\r'):
			// line splice outside a directive
			lx.cursor.Bump()
			if lx.cursor.Bump() == '\r' {
				lx.cursor.Eat('\n')
			}
			lx.pushTrivia(token.TriviaSpace, start)

		case ch == '/' && lx.cursor.PeekAt(1) == '/':
			lx.cursor.Bump()
			lx.cursor.Bump()
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' && lx.cursor.Peek() != '\r' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaLineComment, start)

		case ch == '/' && lx.cursor.PeekAt(1) == '*':
			lx.cursor.Bump()
			lx.cursor.Bump()
			closed := false
			for !lx.cursor.EOF() {
				if lx.cursor.Peek() == '*' && lx.cursor.PeekAt(1) == '/' {
					lx.cursor.Bump()
					lx.cursor.Bump()
					closed = true
					break
				}
				lx.cursor.Bump()
			}
			if !closed {
				lx.report("unterminated-comment", lx.cursor.SpanFrom(start), "unterminated block comment")
			}
			lx.pushTrivia(token.TriviaBlockComment, start)

		default:
			return
		}
	}
}

func (lx *Lexer) pushTrivia(k token.TriviaKind, m Mark) {
	sp := lx.cursor.SpanFrom(m)
	lx.hold = append(lx.hold, token.Trivia{
		Kind: k,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	})
}
