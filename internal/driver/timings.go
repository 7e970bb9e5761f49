package driver

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"objrw/internal/observ"
)

// phaseTimer is a nil-safe observ.Timer: a disabled timer records nothing.
type phaseTimer struct {
	t *observ.Timer
}

func newPhaseTimer(enabled bool) *phaseTimer {
	if !enabled {
		return &phaseTimer{}
	}
	return &phaseTimer{t: observ.NewTimer()}
}

func (p *phaseTimer) begin(name string) int {
	if p == nil || p.t == nil {
		return -1
	}
	return p.t.Begin(name)
}

func (p *phaseTimer) end(idx int, note string) {
	if p == nil || p.t == nil || idx < 0 {
		return
	}
	p.t.End(idx, note)
}

func (p *phaseTimer) report() *observ.Report {
	if p == nil || p.t == nil {
		return nil
	}
	r := p.t.Report()
	return &r
}

// WriteTimings renders the phases of one unit as a table.
func WriteTimings(w io.Writer, path string, report *observ.Report) {
	if report == nil || len(report.Phases) == 0 {
		return
	}
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.SetTitle(path)
	tbl.AppendHeader(table.Row{"phase", "ms", "note"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	for _, p := range report.Phases {
		tbl.AppendRow(table.Row{p.Name, fmt.Sprintf("%.2f", p.DurationMS), p.Note})
	}
	tbl.AppendFooter(table.Row{"total", fmt.Sprintf("%.2f", report.TotalMS), ""})
	tbl.Render()
}
