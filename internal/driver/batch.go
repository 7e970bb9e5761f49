package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"objrw/internal/trace"
)

// sourceExts are the main-file extensions a batch picks up.
var sourceExts = []string{".m", ".mm", ".h"}

// unitSuffixes are tried in order to find the unit document of a source.
var unitSuffixes = []string{".astpack", ".ast.json"}

// BatchOptions configures a batch run.
type BatchOptions struct {
	Options
	Jobs int
	// OutDir receives the outputs; empty writes next to the inputs.
	OutDir string
	Suffix string
	Cache  *Cache
	Sink   ProgressSink
	// DryRun skips writing outputs.
	DryRun bool
}

// BatchItem is the outcome of one input of a batch.
type BatchItem struct {
	Input   Input
	Out     string
	Result  *Result
	Err     error
	Elapsed time.Duration
}

// UnitDocFor returns the unit document next to src: "a.m.astpack",
// "a.astpack", then the JSON forms.
func UnitDocFor(src string) (string, bool) {
	base := strings.TrimSuffix(src, filepath.Ext(src))
	for _, suf := range unitSuffixes {
		for _, cand := range []string{src + suf, base + suf} {
			if st, err := os.Stat(cand); err == nil && !st.IsDir() {
				return cand, true
			}
		}
	}
	return "", false
}

// CollectInputs expands directories into their sources (sorted) and pairs
// every source with its unit document. Sources without one are skipped and
// listed in missing.
func CollectInputs(paths []string) (inputs []Input, missing []string, err error) {
	var files []string
	for _, p := range paths {
		st, statErr := os.Stat(p)
		if statErr != nil {
			return nil, nil, statErr
		}
		if !st.IsDir() {
			files = append(files, p)
			continue
		}
		walkErr := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSource(path) {
				files = append(files, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, nil, walkErr
		}
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	for _, f := range files {
		doc, ok := UnitDocFor(f)
		if !ok {
			missing = append(missing, f)
			continue
		}
		inputs = append(inputs, Input{Path: f, ASTPath: doc})
	}
	return inputs, missing, nil
}

func isSource(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range sourceExts {
		if ext == e {
			return true
		}
	}
	return false
}

// OutputPath maps a source to its output file: the extension is replaced
// by suffix, the directory by outDir when set.
func OutputPath(src, outDir, suffix string) string {
	if suffix == "" {
		suffix = ".cpp"
	}
	name := strings.TrimSuffix(src, filepath.Ext(src)) + suffix
	if outDir == "" {
		return name
	}
	return filepath.Join(outDir, filepath.Base(name))
}

// Batch rewrites inputs in parallel. Per-unit failures land in the items;
// the returned error is only set when ctx is cancelled.
func Batch(ctx context.Context, inputs []Input, opts BatchOptions) ([]BatchItem, error) {
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	items := make([]BatchItem, len(inputs))
	if len(inputs) == 0 {
		return items, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	root, uctx := trace.StartSpan(ctx, trace.ScopeDriver, "batch")
	root.WithExtra("units", strconv.Itoa(len(inputs)))
	defer root.End("")

	for _, in := range inputs {
		sink.OnEvent(Event{File: in.Path, Status: StatusQueued})
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	g, gctx := errgroup.WithContext(uctx)
	g.SetLimit(min(jobs, len(inputs)))
	for i, in := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			items[i] = batchOne(gctx, in, opts, sink)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, err
	}
	return items, nil
}

func batchOne(ctx context.Context, in Input, opts BatchOptions, sink ProgressSink) BatchItem {
	start := time.Now()
	item := BatchItem{Input: in, Out: OutputPath(in.Path, opts.OutDir, opts.Suffix)}

	sink.OnEvent(Event{File: in.Path, Stage: StageRewrite, Status: StatusWorking})
	item.Result, item.Err = RewriteCached(ctx, in, opts.Options, opts.Cache)
	if item.Err == nil && !opts.DryRun {
		sink.OnEvent(Event{File: in.Path, Stage: StageWrite, Status: StatusWorking})
		if err := WriteOutput(item.Out, item.Result.Output); err != nil {
			item.Err = fmt.Errorf("write %s: %w", item.Out, err)
		}
	}
	item.Elapsed = time.Since(start)

	status := StatusDone
	switch {
	case item.Err != nil:
		status = StatusError
	case item.Result != nil && item.Result.Cached:
		status = StatusCached
	}
	sink.OnEvent(Event{File: in.Path, Stage: StageWrite, Status: status, Err: item.Err, Elapsed: item.Elapsed})
	return item
}

// Failed reports whether any item failed for a reason other than prior
// front-end errors.
func Failed(items []BatchItem) bool {
	for _, it := range items {
		if it.Err != nil && !errors.Is(it.Err, ErrPriorErrors) {
			return true
		}
	}
	return false
}
