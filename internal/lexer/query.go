package lexer

import (
	"objrw/internal/source"
	"objrw/internal/token"
)

// Queries below replace manual character hunting over the buffer: each one
// lexes a bounded range and returns structured sub-spans.

// Find returns the first token of kind k starting at or after rng.Start and
// ending no later than rng.End.
func Find(file *source.File, rng source.Span, k token.Kind) (token.Token, bool) {
	lx := New(file, Options{Range: rng})
	for {
		t := lx.Next()
		if t.Kind == token.EOF {
			return token.Token{}, false
		}
		if t.Kind == k {
			return t, true
		}
	}
}

// FindLast returns the last token of kind k inside rng.
func FindLast(file *source.File, rng source.Span, k token.Kind) (token.Token, bool) {
	lx := New(file, Options{Range: rng})
	var (
		last  token.Token
		found bool
	)
	for {
		t := lx.Next()
		if t.Kind == token.EOF {
			return last, found
		}
		if t.Kind == k {
			last, found = t, true
		}
	}
}

// SemicolonAfter finds the first ';' at or after off, skipping comments and
// literals. Returns its offset.
func SemicolonAfter(file *source.File, off uint32) (uint32, bool) {
	t, ok := Find(file, source.Span{File: file.ID, Start: off, End: file.Size()}, token.Semicolon)
	if !ok {
		return 0, false
	}
	return t.Span.Start, true
}

// MatchClose returns the closing delimiter matching the opening one that
// starts at open. Supports (), [], {}.
func MatchClose(file *source.File, open uint32) (token.Token, bool) {
	lx := New(file, Options{Range: source.Span{File: file.ID, Start: open, End: file.Size()}})
	first := lx.Next()
	var closeKind token.Kind
	switch first.Kind {
	case token.LParen:
		closeKind = token.RParen
	case token.LBracket:
		closeKind = token.RBracket
	case token.LBrace:
		closeKind = token.RBrace
	default:
		return token.Token{}, false
	}
	depth := 1
	for {
		t := lx.Next()
		switch t.Kind {
		case token.EOF:
			return token.Token{}, false
		case first.Kind:
			depth++
		case closeKind:
			depth--
			if depth == 0 {
				return t, true
			}
		}
	}
}

// ProtocolQualifiers returns the spans of every "<P, Q>" list that follows an
// identifier inside rng (id<P>, NSObject<P> *, ...). Comparison operators are
// never matched since a qualifier list holds only identifiers and commas.
func ProtocolQualifiers(file *source.File, rng source.Span) []source.Span {
	toks := Tokenize(file, rng)
	var out []source.Span
	for i := 1; i < len(toks); i++ {
		if toks[i].Kind != token.Lt || toks[i-1].Kind != token.Ident {
			continue
		}
		j := i + 1
		ok := false
		for ; j < len(toks); j++ {
			if toks[j].Kind == token.Gt {
				ok = j > i+1
				break
			}
			if toks[j].Kind != token.Ident && toks[j].Kind != token.Comma {
				break
			}
		}
		if ok {
			out = append(out, toks[i].Span.Cover(toks[j].Span))
			i = j
		}
	}
	return out
}

// Carets returns the spans of '^' tokens inside rng.
func Carets(file *source.File, rng source.Span) []source.Span {
	var out []source.Span
	for _, t := range Tokenize(file, rng) {
		if t.Kind == token.Caret {
			out = append(out, t.Span)
		}
	}
	return out
}

// AtKeywords returns every "@kw" directive token inside rng.
func AtKeywords(file *source.File, rng source.Span, kw string) []source.Span {
	var out []source.Span
	for _, t := range Tokenize(file, rng) {
		if t.IsAt(kw) {
			out = append(out, t.Span)
		}
	}
	return out
}

// ImportDirectives returns the spans of the "import" word of every #import
// line in the file.
func ImportDirectives(file *source.File) []source.Span {
	var out []source.Span
	lx := New(file, Options{})
	for {
		t := lx.Next()
		if t.Kind == token.EOF {
			return out
		}
		if name, sp := t.DirectiveName(); name == "import" {
			out = append(out, sp)
		}
	}
}
