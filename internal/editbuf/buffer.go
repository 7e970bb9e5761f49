// Package editbuf is the text overlay the rewriter commits its output into.
// Edits are addressed by offsets of the original file; the original bytes are
// never modified.
package editbuf

import (
	"sort"
	"strings"

	"objrw/internal/source"
)

// Kind classifies an edit.
type Kind uint8

const (
	// InsertBefore puts text in front of earlier inserts at the same offset.
	InsertBefore Kind = iota
	// InsertAfter puts text behind earlier inserts at the same offset.
	InsertAfter
	// Replace swaps a non-empty byte range for new text.
	Replace
)

func (k Kind) String() string {
	switch k {
	case InsertBefore:
		return "insert-before"
	case InsertAfter:
		return "insert-after"
	case Replace:
		return "replace"
	}
	return "unknown"
}

// Edit is one committed change.
type Edit struct {
	Span source.Span
	Text string
	Kind Kind
	seq  int
}

func (e *Edit) isInsert() bool { return e.Kind != Replace }

// NodeKey identifies an input AST node for ReplaceNode.
type NodeKey struct {
	Space uint8
	ID    uint32
}

// Buffer is a rewrite overlay over one file.
type Buffer struct {
	file  *source.File
	edits []Edit // live edits ordered by (Start, seq)
	seq   int
	nodes map[NodeKey]struct{}
}

// New creates an empty overlay for file.
func New(file *source.File) *Buffer {
	return &Buffer{
		file:  file,
		nodes: make(map[NodeKey]struct{}),
	}
}

// File returns the underlying source file.
func (b *Buffer) File() *source.File { return b.file }

// Modified reports whether any edit is live.
func (b *Buffer) Modified() bool { return len(b.edits) > 0 }

// Edits returns a copy of the live edits in buffer order.
func (b *Buffer) Edits() []Edit {
	return append([]Edit(nil), b.edits...)
}

// Insert adds text at off. after=true behaves like InsertAfter.
func (b *Buffer) Insert(off uint32, text string, after bool) error {
	kind := InsertBefore
	if after {
		kind = InsertAfter
	}
	return b.commit(Edit{Span: source.At(b.file.ID, off), Text: text, Kind: kind})
}

// InsertAfterText is Insert(off, text, true).
func (b *Buffer) InsertAfterText(off uint32, text string) error {
	return b.Insert(off, text, true)
}

// InsertBeforeText is Insert(off, text, false).
func (b *Buffer) InsertBeforeText(off uint32, text string) error {
	return b.Insert(off, text, false)
}

// ReplaceRange replaces length bytes starting at off.
func (b *Buffer) ReplaceRange(off, length uint32, text string) error {
	return b.Replace(source.Span{File: b.file.ID, Start: off, End: off + length}, text)
}

// Replace replaces the bytes of sp. Earlier edits lying entirely inside sp are
// retired: the caller is expected to have rendered them into text already.
func (b *Buffer) Replace(sp source.Span, text string) error {
	sp.File = b.file.ID
	if sp.Empty() {
		return b.commit(Edit{Span: sp, Text: text, Kind: InsertAfter})
	}
	return b.commit(Edit{Span: sp, Text: text, Kind: Replace})
}

// ReplaceNode replaces the text of an AST node once. A second request for the
// same node is a silent no-op that reports done=false.
func (b *Buffer) ReplaceNode(key NodeKey, sp source.Span, text string) (done bool, err error) {
	if _, ok := b.nodes[key]; ok {
		return false, nil
	}
	if err := b.Replace(sp, text); err != nil {
		return false, err
	}
	b.nodes[key] = struct{}{}
	return true, nil
}

// NodeReplaced reports whether ReplaceNode already succeeded for key.
func (b *Buffer) NodeReplaced(key NodeKey) bool {
	_, ok := b.nodes[key]
	return ok
}

func (b *Buffer) commit(e Edit) error {
	if e.Span.End > b.file.Size() || e.Span.Start > e.Span.End {
		return &StaleEditError{Span: e.Span, Kind: e.Kind, Reason: ReasonOutOfRange}
	}
	if b.file.InMacro(e.Span) {
		return &StaleEditError{Span: e.Span, Kind: e.Kind, Reason: ReasonMacro}
	}

	retire := make([]int, 0)
	for i := range b.edits {
		prev := &b.edits[i]
		if !spansConflict(*prev, e) {
			continue
		}
		switch {
		case prev.Kind == Replace && prev.Span == e.Span:
			return &StaleEditError{Span: e.Span, Kind: e.Kind, Reason: ReasonConsumed}
		case prev.Kind == Replace && prev.Span.Contains(e.Span):
			return &StaleEditError{Span: e.Span, Kind: e.Kind, Reason: ReasonConsumed}
		case e.Kind == Replace && e.Span.Contains(prev.Span):
			retire = append(retire, i)
		default:
			return &StaleEditError{Span: e.Span, Kind: e.Kind, Reason: ReasonOverlap}
		}
	}

	if len(retire) > 0 {
		kept := b.edits[:0]
		r := 0
		for i := range b.edits {
			if r < len(retire) && retire[r] == i {
				r++
				continue
			}
			kept = append(kept, b.edits[i])
		}
		b.edits = kept
	}

	b.seq++
	e.seq = b.seq
	b.edits = insertEditSorted(b.edits, e)
	return nil
}

// spansConflict reports whether a new edit interacts with a committed one.
// Spans are half-open. Two inserts never conflict, an insert conflicts with
// a replacement only when it lies strictly inside it.
func spansConflict(prev, next Edit) bool {
	if prev.isInsert() && next.isInsert() {
		return false
	}
	if prev.isInsert() {
		return next.Span.Start < prev.Span.Start && prev.Span.Start < next.Span.End
	}
	if next.isInsert() {
		return prev.Span.Start < next.Span.Start && next.Span.Start < prev.Span.End
	}
	return prev.Span.Start < next.Span.End && next.Span.Start < prev.Span.End
}

// insertEditSorted keeps edits ordered by start offset and then by commit order.
func insertEditSorted(edits []Edit, edit Edit) []Edit {
	insertIdx := sort.Search(len(edits), func(i int) bool {
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, Edit{})
	copy(edits[insertIdx+1:], edits[insertIdx:])
	edits[insertIdx] = edit
	return edits
}

// String returns the whole rewritten file.
func (b *Buffer) String() string {
	return b.render(b.file.Span(), true)
}

// Bytes returns the whole rewritten file.
func (b *Buffer) Bytes() []byte {
	return []byte(b.String())
}

// Render returns the rewritten text of sp: original bytes with every
// replacement that lies inside sp and every insert strictly inside it.
// Inserts sitting on the boundaries belong to the surrounding text.
func (b *Buffer) Render(sp source.Span) string {
	return b.render(sp, false)
}

func (b *Buffer) render(sp source.Span, boundaries bool) string {
	content := b.file.Content
	end := min(sp.End, b.file.Size())
	start := min(sp.Start, end)

	var sb strings.Builder
	sb.Grow(int(end-start) + 16)

	pos := start
	i := sort.Search(len(b.edits), func(i int) bool { return b.edits[i].Span.Start >= start })
	for i < len(b.edits) {
		// группа правок с одним и тем же смещением
		off := b.edits[i].Span.Start
		if off > end {
			break
		}
		j := i
		for j < len(b.edits) && b.edits[j].Span.Start == off {
			j++
		}
		group := b.edits[i:j]
		i = j

		if off < pos {
			// начало внутри уже выведенной замены
			continue
		}
		sb.Write(content[pos:off])
		pos = off

		inside := boundaries || (off > start && off < end)
		if inside {
			for k := len(group) - 1; k >= 0; k-- {
				if group[k].Kind == InsertBefore {
					sb.WriteString(group[k].Text)
				}
			}
			for k := range group {
				if group[k].Kind == InsertAfter {
					sb.WriteString(group[k].Text)
				}
			}
		}
		for k := range group {
			if group[k].Kind == Replace && group[k].Span.End <= end {
				sb.WriteString(group[k].Text)
				pos = group[k].Span.End
			}
		}
	}
	if pos < end {
		sb.Write(content[pos:end])
	}
	return sb.String()
}
