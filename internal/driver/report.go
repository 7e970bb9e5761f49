package driver

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/olekukonko/tablewriter"

	"objrw/internal/ast"
)

// WriteSummary prints one row per batch item and a totals footer.
func WriteSummary(w io.Writer, items []BatchItem) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"file", "status", "diags", "stale", "output", "time"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	var total uint64
	var ok, cached, failed int
	for _, it := range items {
		status := "ok"
		diags, stale, size := 0, 0, uint64(0)
		if it.Result != nil {
			diags, stale = it.Result.Bag.Len(), it.Result.Stale
			size = uint64(len(it.Result.Output))
			if it.Result.Cached {
				status = "cached"
				cached++
			}
		}
		switch {
		case errors.Is(it.Err, ErrPriorErrors):
			status = "skipped"
		case it.Err != nil:
			status = "error"
			failed++
		default:
			ok++
		}
		total += size
		tbl.AppendRow(table.Row{it.Input.Path, status, diags, stale, humanize.Bytes(size), it.Elapsed.Round(time.Millisecond).String()})
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d units", len(items)),
		fmt.Sprintf("%d ok, %d cached, %d failed", ok, cached, failed),
		"", "", humanize.Bytes(total), "",
	})
	tbl.Render()
}

// WriteDump prints the session registries of a finished rewrite.
func WriteDump(w io.Writer, res *Result) {
	if res == nil || res.Session == nil {
		fmt.Fprintln(w, "no session: the unit was not rewritten")
		return
	}
	sess, u := res.Session, res.Unit

	section := func(title string, header []string, rows [][]string) {
		fmt.Fprintf(w, "\n%s (%d)\n", title, len(rows))
		if len(rows) == 0 {
			return
		}
		tbl := tablewriter.NewWriter(w)
		tbl.SetHeader(header)
		tbl.SetBorder(false)
		tbl.SetCenterSeparator("")
		tbl.SetAutoWrapText(false)
		tbl.AppendBulk(rows)
		tbl.Render()
	}

	var rows [][]string
	for _, cl := range sess.Classes() {
		super := ""
		if cl.Super != nil {
			super = cl.Super.Name
		}
		rows = append(rows, []string{cl.Name, super, strconv.Itoa(len(cl.Ivars)), strconv.FormatBool(cl.Synthesized)})
	}
	section("classes", []string{"Class", "Super", "Ivars", "Struct"}, rows)

	rows = nil
	for id, name := range sess.MethodNames() {
		d := u.Decl(id)
		kind := "class"
		if d.Instance {
			kind = "instance"
		}
		rows = append(rows, []string{u.ClassName(d.Container), kind, d.Selector, name})
	}
	sortRows(rows, 3)
	section("methods", []string{"Class", "Kind", "Selector", "Function"}, rows)

	rows = nil
	for id, n := range sess.ByrefNumbers() {
		rows = append(rows, []string{u.Decl(id).Name, strconv.Itoa(n), sess.ByrefTypeName(id)})
	}
	sortRows(rows, 2)
	section("byref variables", []string{"Variable", "Tag", "Struct"}, rows)

	rows = nil
	for _, b := range sess.Blocks() {
		rows = append(rows, []string{b.Impl, b.Func, strconv.Itoa(b.Index),
			strings.Join(b.ByCopy, ", "), strings.Join(b.ByRef, ", "), strconv.FormatBool(b.Helpers)})
	}
	section("blocks", []string{"Impl", "Function", "Index", "By copy", "By ref", "Helpers"}, rows)

	rows = nil
	for _, p := range protocolsOf(u) {
		rows = append(rows, []string{u.Decl(p).Name, strconv.FormatBool(sess.ProtocolEmitted(p))})
	}
	section("protocols", []string{"Protocol", "Emitted"}, rows)
}

func protocolsOf(u *ast.Unit) []ast.DeclID {
	var out []ast.DeclID
	for _, id := range u.TopLevel {
		if d := u.Decl(id); d != nil && d.Kind == ast.DeclProtocol {
			out = append(out, id)
		}
	}
	return out
}

func sortRows(rows [][]string, col int) {
	sort.Slice(rows, func(i, j int) bool { return rows[i][col] < rows[j][col] })
}
