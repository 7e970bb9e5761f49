package token

import (
	"objrw/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a numeric, character or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, CharLit, StringLit, AtString:
		return true
	default:
		return false
	}
}

// IsAt reports whether the token is the Objective-C directive named kw
// (without the '@').
func (t Token) IsAt(kw string) bool {
	return t.Kind == AtKeyword && len(t.Text) == len(kw)+1 && t.Text[1:] == kw
}

// IsIdent reports whether the token is an identifier, optionally with a given spelling.
func (t Token) IsIdent(names ...string) bool {
	if t.Kind != Ident {
		return false
	}
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if t.Text == n {
			return true
		}
	}
	return false
}

// DirectiveName returns the directive word of a preprocessor line ("import"
// for "#  import <x.h>") and the span of that word.
func (t Token) DirectiveName() (string, source.Span) {
	if t.Kind != Directive {
		return "", source.Span{}
	}
	i := 1
	for i < len(t.Text) && (t.Text[i] == ' ' || t.Text[i] == '\t') {
		i++
	}
	j := i
	for j < len(t.Text) && isWordByte(t.Text[j]) {
		j++
	}
	start := t.Span.Start + uint32(i) // #nosec G115 -- bounded by token length
	return t.Text[i:j], source.Span{File: t.Span.File, Start: start, End: start + uint32(j-i)} // #nosec G115
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
