package source

import (
	"fmt"
)

// Span адресует полуоткрытый диапазон байт [Start, End) в файле.
type Span struct {
	File  FileID `msgpack:"f,omitempty" json:"file,omitempty"`
	Start uint32 `msgpack:"s" json:"start"` // в байтах включительно
	End   uint32 `msgpack:"e" json:"end"`   // в байтах не включительно
}

// At returns an empty span positioned at off.
func At(file FileID, off uint32) Span {
	return Span{File: file, Start: off, End: off}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

// ContainsOffset reports whether off is inside [Start, End).
func (s Span) ContainsOffset(off uint32) bool {
	return s.Start <= off && off < s.End
}

// Overlaps reports whether two non-empty spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	if s.File != other.File || s.Empty() || other.Empty() {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// StartSpan returns the empty span at s.Start.
func (s Span) StartSpan() Span {
	return Span{File: s.File, Start: s.Start, End: s.Start}
}

// EndSpan returns the empty span at s.End.
func (s Span) EndSpan() Span {
	return Span{File: s.File, Start: s.End, End: s.End}
}

// WithLen keeps Start and sets End to Start+n.
func (s Span) WithLen(n uint32) Span {
	return Span{File: s.File, Start: s.Start, End: s.Start + n}
}

func (s Span) ShiftLeft(n uint32) Span {
	if n > s.Start {
		return s
	}
	return Span{
		File:  s.File,
		Start: s.Start - n,
		End:   s.End - n,
	}
}

func (s Span) ShiftRight(n uint32) Span {
	return Span{
		File:  s.File,
		Start: s.Start + n,
		End:   s.End + n,
	}
}
