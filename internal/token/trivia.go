package token

import "objrw/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaLineComment
	TriviaBlockComment
)

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}

// HasNewline reports whether any trivia in the list contains a line break.
func HasNewline(list []Trivia) bool {
	for _, tr := range list {
		if tr.Kind == TriviaNewline {
			return true
		}
	}
	return false
}
