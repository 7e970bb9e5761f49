package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"objrw/internal/ast"
	"objrw/internal/config"
	"objrw/internal/diagfmt"
	"objrw/internal/driver"
)

// settings собирает глобальные флаги и objrw.toml в одном месте.
type settings struct {
	cfg      config.Config
	color    bool
	quiet    bool
	timings  bool
	json     bool
	maxDiags int
}

var current *settings

func setupCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	current = s
	color.NoColor = !s.color
	return setupTracing(cmd)
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	pf := cmd.Root().PersistentFlags()
	colorFlag, err := pf.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	s := &settings{}
	switch strings.ToLower(colorFlag) {
	case "on", "always":
		s.color = true
	case "off", "never":
	case "auto", "":
		s.color = isTerminal(os.Stderr)
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	if s.quiet, err = pf.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = pf.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.maxDiags, err = pf.GetInt("max-diagnostics"); err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	format, err := pf.GetString("format")
	if err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty":
	case "json":
		s.json = true
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	cfgPath, err := pf.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if cfgPath != "" {
		s.cfg, err = config.Load(cfgPath)
	} else {
		s.cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// unitFlags are shared by the commands that take one translation unit.
type unitFlags struct {
	ast           string
	astFormat     string
	header        bool
	msExtensions  bool
	pointerSize   int
	stretLimit    int
	silenceMacros bool
}

func (f *unitFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.ast, "ast", "", "unit document (default: FILE.astpack or FILE.ast.json next to FILE)")
	fl.StringVar(&f.astFormat, "ast-format", "auto", "unit document encoding (auto|msgpack|json)")
	fl.BoolVar(&f.header, "header", false, "treat the input as a header (#pragma once preamble)")
	fl.BoolVar(&f.msExtensions, "ms-extensions", true, "emit the MS-extensions variant of the output")
	fl.IntVar(&f.pointerSize, "pointer-size", 0, "target pointer size in bytes (4|8)")
	fl.IntVar(&f.stretLimit, "struct-return-threshold", 0, "largest struct returned in registers, in bytes")
	fl.BoolVar(&f.silenceMacros, "silence-macro-warnings", false, "do not report rewrites inside macro expansions")
}

// options merges objrw.toml with the flags the user actually set.
func (f *unitFlags) options(cmd *cobra.Command, s *settings) (driver.Options, error) {
	rc := s.cfg.Rewrite
	opts := driver.Options{
		StructReturnThreshold: rc.StructReturnThreshold,
		PointerSize:           rc.PointerSize,
		SilenceMacroWarnings:  rc.SilenceMacroWarnings,
		MaxDiagnostics:        s.maxDiags,
		EnableTimings:         s.timings,
	}
	if rc.MSExtensionsSet {
		opts.MSExtensions = &rc.MSExtensions
	}
	fl := cmd.Flags()
	if fl.Changed("ms-extensions") {
		opts.MSExtensions = &f.msExtensions
	}
	if fl.Changed("header") {
		opts.Header = &f.header
	}
	if fl.Changed("pointer-size") {
		opts.PointerSize = f.pointerSize
	}
	if fl.Changed("struct-return-threshold") {
		opts.StructReturnThreshold = f.stretLimit
	}
	if fl.Changed("silence-macro-warnings") {
		opts.SilenceMacroWarnings = f.silenceMacros
	}
	if opts.PointerSize != 4 && opts.PointerSize != 8 {
		return opts, fmt.Errorf("--pointer-size must be 4 or 8, got %d", opts.PointerSize)
	}
	if opts.StructReturnThreshold <= 0 {
		return opts, fmt.Errorf("--struct-return-threshold must be positive, got %d", opts.StructReturnThreshold)
	}
	format, err := ast.ParseFormat(f.astFormat)
	if err != nil {
		return opts, err
	}
	opts.ASTFormat = format
	return opts, nil
}

// input pairs path with its unit document.
func (f *unitFlags) input(path string) (driver.Input, error) {
	if f.ast != "" {
		return driver.Input{Path: path, ASTPath: f.ast}, nil
	}
	doc, ok := driver.UnitDocFor(path)
	if !ok {
		return driver.Input{}, fmt.Errorf("%s: no unit document found, pass --ast", path)
	}
	return driver.Input{Path: path, ASTPath: doc}, nil
}

// reportDiagnostics prints the bag of res to w in the selected format.
func reportDiagnostics(w io.Writer, res *driver.Result) error {
	if res == nil || res.Bag == nil {
		return nil
	}
	s := current
	res.Bag.Sort()
	if s.json {
		return diagfmt.JSON(w, res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			Max:              s.maxDiags,
		})
	}
	if res.Bag.Len() == 0 || (s.quiet && !res.Bag.HasErrors()) {
		return nil
	}
	diagfmt.Pretty(w, res.Bag, res.FileSet, diagfmt.PrettyOpts{
		Color:     s.color,
		Context:   1,
		ShowNotes: true,
		Max:       s.maxDiags,
	})
	return nil
}
