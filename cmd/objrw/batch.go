package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"objrw/internal/diagfmt"
	"objrw/internal/driver"
	"objrw/internal/observ"
)

var batchFlags unitFlags

var batchCmd = &cobra.Command{
	Use:   "batch [flags] [DIR|FILE...]",
	Short: "Rewrite many translation units in parallel",
	Long: `Batch pairs every .m, .mm and .h file under the given paths with its unit
document and rewrites them in parallel. Results are cached between runs.`,
	RunE: runBatch,
}

func init() {
	batchFlags.register(batchCmd)
	fl := batchCmd.Flags()
	fl.IntP("jobs", "j", 0, "parallel units (default: GOMAXPROCS)")
	fl.String("ui", "auto", "progress UI (auto|on|off)")
	fl.String("out-dir", "", "output directory (default: [output].dir or next to the input)")
	fl.Bool("no-cache", false, "bypass the output cache")
	fl.Bool("clear-cache", false, "drop every cache entry before the run")
	fl.Bool("dry-run", false, "rewrite without writing outputs")
}

// unitReport is one entry of the JSON batch report.
type unitReport struct {
	Path   string                    `json:"path"`
	Output string                    `json:"output,omitempty"`
	Status string                    `json:"status"`
	Error  string                    `json:"error,omitempty"`
	Diags  diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	s := current
	if batchFlags.ast != "" {
		return errors.New("--ast names one unit document; use rewrite for a single file")
	}
	opts, err := batchFlags.options(cmd, s)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	inputs, missing, err := driver.CollectInputs(args)
	if err != nil {
		return err
	}
	if !s.quiet {
		for _, m := range missing {
			fmt.Fprintf(os.Stderr, "skip %s: no unit document\n", m)
		}
	}
	if len(inputs) == 0 {
		return errors.New("no translation units found")
	}

	fl := cmd.Flags()
	jobs, _ := fl.GetInt("jobs")
	uiValue, _ := fl.GetString("ui")
	outDir, _ := fl.GetString("out-dir")
	noCache, _ := fl.GetBool("no-cache")
	clearCache, _ := fl.GetBool("clear-cache")
	dryRun, _ := fl.GetBool("dry-run")
	mode, err := parseProgressMode(uiValue)
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = s.cfg.OutputDir()
	}

	cache, err := openCache(s, noCache)
	if err != nil {
		return err
	}
	if clearCache {
		if err := cache.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}

	bopts := driver.BatchOptions{
		Options: opts,
		Jobs:    jobs,
		OutDir:  outDir,
		Suffix:  s.cfg.Output.Suffix,
		Cache:   cache,
		DryRun:  dryRun,
	}
	var items []driver.BatchItem
	if wantProgressUI(mode, len(inputs), s.quiet, s.json) {
		items, err = runBatchWithUI(cmd.Context(), "rewriting", inputs, bopts)
	} else {
		items, err = driver.Batch(cmd.Context(), inputs, bopts)
	}
	if err != nil {
		return err
	}

	if s.json {
		if err := writeBatchJSON(items, s); err != nil {
			return err
		}
	} else {
		for _, it := range items {
			if err := reportDiagnostics(os.Stderr, it.Result); err != nil {
				return err
			}
			if it.Err != nil && !errors.Is(it.Err, driver.ErrPriorErrors) {
				dumpTraceOnFailure(os.Stderr, it.Err)
			}
		}
		if !s.quiet {
			driver.WriteSummary(os.Stdout, items)
		}
	}
	if s.timings {
		reports := make([]*observ.Report, 0, len(items))
		for _, it := range items {
			if it.Result != nil {
				reports = append(reports, it.Result.Timing)
			}
		}
		merged := observ.Merge(reports...)
		driver.WriteTimings(os.Stderr, fmt.Sprintf("%d units", len(items)), &merged)
	}

	failed, skipped := 0, 0
	for _, it := range items {
		switch {
		case errors.Is(it.Err, driver.ErrPriorErrors):
			skipped++
		case it.Err != nil:
			failed++
		}
	}
	if driver.Failed(items) {
		return fmt.Errorf("%d of %d units failed", failed, len(items))
	}
	if skipped > 0 {
		return fmt.Errorf("%d of %d units skipped: %w", skipped, len(items), driver.ErrPriorErrors)
	}
	return nil
}

func writeBatchJSON(items []driver.BatchItem, s *settings) error {
	out := make([]unitReport, 0, len(items))
	for _, it := range items {
		r := unitReport{Path: it.Input.Path, Output: it.Out, Status: "ok"}
		switch {
		case errors.Is(it.Err, driver.ErrPriorErrors):
			r.Status = "skipped"
		case it.Err != nil:
			r.Status, r.Error = "error", it.Err.Error()
		case it.Result != nil && it.Result.Cached:
			r.Status = "cached"
		}
		if it.Err != nil {
			r.Output = ""
		}
		if it.Result != nil {
			it.Result.Bag.Sort()
			r.Diags = diagfmt.BuildDiagnosticsOutput(it.Result.Bag, it.Result.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     true,
				Max:              s.maxDiags,
			})
		}
		out = append(out, r)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
