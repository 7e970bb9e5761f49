package diag

import (
	"slices"

	"objrw/internal/source"
)

// Bag collects the diagnostics of one translation unit up to a limit.
type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
}

// NewBag returns a bag holding at most limit diagnostics; limit <= 0 means
// no limit.
func NewBag(limit int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, min(max(limit, 0), 64)), max: limit}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если лимит исчерпан; такие диагностики только считаются.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Cap is the limit the bag was created with.
func (b *Bag) Cap() int { return b.max }

// Dropped counts diagnostics rejected by the limit.
func (b *Bag) Dropped() int { return b.dropped }

func (b *Bag) Len() int { return len(b.items) }

// Items возвращает внутренний срез, не модифицировать.
func (b *Bag) Items() []Diagnostic { return b.items }

// Count returns the number of diagnostics of exactly sev.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity == sev {
			n++
		}
	}
	return n
}

func (b *Bag) HasErrors() bool { return b.atLeast(SevError) }

func (b *Bag) HasWarnings() bool { return b.atLeast(SevWarning) }

func (b *Bag) atLeast(sev Severity) bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= sev })
}

// Merge appends the diagnostics of other, growing the limit when needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if b.max > 0 && len(b.items)+len(other.items) > b.max {
		b.max = len(b.items) + len(other.items)
	}
	b.items = append(b.items, other.items...)
	b.dropped += other.dropped
}

// Sort orders by file, start, end, severity (errors first) and code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		switch {
		case x.Primary.File != y.Primary.File:
			return cmpOrder(x.Primary.File < y.Primary.File)
		case x.Primary.Start != y.Primary.Start:
			return cmpOrder(x.Primary.Start < y.Primary.Start)
		case x.Primary.End != y.Primary.End:
			return cmpOrder(x.Primary.End < y.Primary.End)
		case x.Severity != y.Severity:
			return cmpOrder(x.Severity > y.Severity)
		}
		return int(x.Code) - int(y.Code)
	})
}

func cmpOrder(less bool) int {
	if less {
		return -1
	}
	return 1
}

type bagKey struct {
	code Code
	span source.Span
}

// Dedup keeps the first diagnostic of every code and primary span.
func (b *Bag) Dedup() {
	seen := make(map[bagKey]struct{}, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		k := bagKey{code: d.Code, span: d.Primary}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	clear(b.items[len(out):])
	b.items = out
}
