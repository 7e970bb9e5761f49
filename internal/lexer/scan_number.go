package lexer

import (
	"objrw/internal/token"
)

// scanNumber читает числовой литерал C: десятичный, восьмеричный,
// шестнадцатеричный (включая hex-float с p-экспонентой) и суффиксы u/l/f.
// Проверка корректности не нужна: вход уже прошёл через компилятор.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	if lx.cursor.Peek() == '0' && (lx.cursor.PeekAt(1) == 'x' || lx.cursor.PeekAt(1) == 'X') {
		lx.cursor.Bump()
		lx.cursor.Bump()
		for isHex(lx.cursor.Peek()) || (lx.cursor.Peek() == '\'' && isHex(lx.cursor.PeekAt(1))) {
			lx.cursor.Bump()
		}
		if lx.cursor.Peek() == '.' {
			kind = token.FloatLit
			lx.cursor.Bump()
			for isHex(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
		if b := lx.cursor.Peek(); b == 'p' || b == 'P' {
			kind = token.FloatLit
			lx.scanExponent()
		}
	} else {
		for isDec(lx.cursor.Peek()) || (lx.cursor.Peek() == '\'' && isDec(lx.cursor.PeekAt(1))) {
			lx.cursor.Bump()
		}
		if lx.cursor.Peek() == '.' && lx.cursor.PeekAt(1) != '.' {
			kind = token.FloatLit
			lx.cursor.Bump()
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
		if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
			kind = token.FloatLit
			lx.scanExponent()
		}
	}

	// суффиксы: u, l, ll, f, i (imaginary) в любом порядке
	for {
		b := lx.cursor.Peek()
		if b == 'u' || b == 'U' || b == 'l' || b == 'L' || b == 'i' || b == 'j' {
			lx.cursor.Bump()
			continue
		}
		if b == 'f' || b == 'F' {
			if kind == token.IntLit && !lx.isHexStart(start) {
				kind = token.FloatLit
			}
			lx.cursor.Bump()
			continue
		}
		break
	}
	return lx.emit(kind, start)
}

func (lx *Lexer) scanExponent() {
	lx.cursor.Bump() // e/E/p/P
	if b := lx.cursor.Peek(); b == '+' || b == '-' {
		lx.cursor.Bump()
	}
	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) isHexStart(m Mark) bool {
	off := uint32(m)
	return off+1 < uint32(len(lx.file.Content)) && lx.file.Content[off] == '0' &&
		(lx.file.Content[off+1] == 'x' || lx.file.Content[off+1] == 'X')
}
