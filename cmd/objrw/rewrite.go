package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"objrw/internal/driver"
)

var rewriteFlags unitFlags

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [flags] FILE.m",
	Short: "Rewrite one Objective-C translation unit",
	Long: `Rewrite turns FILE.m (or .mm, .h) into C++ using the unit document produced
by the front end. The output goes to FILE.cpp unless -o is given; "-" writes
to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteFlags.register(rewriteCmd)
	rewriteCmd.Flags().StringP("output", "o", "", "output file (\"-\" for stdout)")
	rewriteCmd.Flags().Bool("no-cache", false, "bypass the output cache")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	s := current
	opts, err := rewriteFlags.options(cmd, s)
	if err != nil {
		return err
	}
	in, err := rewriteFlags.input(args[0])
	if err != nil {
		return err
	}
	out, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if out == "" {
		out = driver.OutputPath(in.Path, s.cfg.OutputDir(), s.cfg.Output.Suffix)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	cache, err := openCache(s, noCache)
	if err != nil {
		return err
	}

	res, rwErr := driver.RewriteCached(cmd.Context(), in, opts, cache)
	if err := reportDiagnostics(os.Stderr, res); err != nil {
		return err
	}
	if rwErr != nil {
		dumpTraceOnFailure(os.Stderr, rwErr)
		return rwErr
	}
	if err := driver.WriteOutput(out, res.Output); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	if s.timings {
		driver.WriteTimings(os.Stderr, res.Path, res.Timing)
	}
	if !s.quiet && out != "-" {
		note := ""
		if res.Cached {
			note = " (cached)"
		}
		fmt.Fprintf(os.Stderr, "%s -> %s%s\n", res.Path, out, note)
	}
	return nil
}

// openCache opens the configured output cache; nil when disabled.
func openCache(s *settings, disabled bool) (*driver.Cache, error) {
	if disabled || !s.cfg.Cache.Enabled {
		return nil, nil
	}
	return driver.OpenCache(s.cfg.CacheDir(), s.cfg.Cache.Compress, s.cfg.Cache.MaxBytes)
}
