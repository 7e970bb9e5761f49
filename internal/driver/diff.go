package driver

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type lineOp struct {
	op   diffmatchpatch.Operation
	text string
}

// UnifiedDiff renders a line diff of a and b in unified format with ctx
// lines of context. Equal inputs give "".
func UnifiedDiff(aName, bName, a, b string, ctx int) string {
	if a == b {
		return ""
	}
	ops := lineDiff(a, b)

	var changes []int
	for i, l := range ops {
		if l.op != diffmatchpatch.DiffEqual {
			changes = append(changes, i)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", aName, bName)
	for i := 0; i < len(changes); {
		// склеиваем изменения, между которыми не больше 2*ctx общих строк
		j := i
		for j+1 < len(changes) && changes[j+1]-changes[j] <= 2*ctx+1 {
			j++
		}
		start := max(changes[i]-ctx, 0)
		end := min(changes[j]+ctx+1, len(ops))
		writeHunk(&sb, ops, start, end)
		i = j + 1
	}
	return sb.String()
}

func lineDiff(a, b string) []lineOp {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		for _, ln := range strings.SplitAfter(d.Text, "\n") {
			if ln != "" {
				ops = append(ops, lineOp{op: d.Type, text: ln})
			}
		}
	}
	return ops
}

func writeHunk(sb *strings.Builder, ops []lineOp, start, end int) {
	aStart, bStart := 1, 1
	for _, l := range ops[:start] {
		if l.op != diffmatchpatch.DiffInsert {
			aStart++
		}
		if l.op != diffmatchpatch.DiffDelete {
			bStart++
		}
	}
	aLen, bLen := 0, 0
	for _, l := range ops[start:end] {
		if l.op != diffmatchpatch.DiffInsert {
			aLen++
		}
		if l.op != diffmatchpatch.DiffDelete {
			bLen++
		}
	}
	// пустая сторона указывает на строку перед вставкой
	if aLen == 0 {
		aStart--
	}
	if bLen == 0 {
		bStart--
	}
	fmt.Fprintf(sb, "@@ -%s +%s @@\n", hunkRange(aStart, aLen), hunkRange(bStart, bLen))
	for _, l := range ops[start:end] {
		switch l.op {
		case diffmatchpatch.DiffDelete:
			sb.WriteByte('-')
		case diffmatchpatch.DiffInsert:
			sb.WriteByte('+')
		default:
			sb.WriteByte(' ')
		}
		sb.WriteString(l.text)
		if !strings.HasSuffix(l.text, "\n") {
			sb.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

func hunkRange(start, n int) string {
	if n == 1 {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d,%d", start, n)
}
