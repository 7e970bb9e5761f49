package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"objrw/internal/driver"
)

var diffFlags unitFlags

var diffCmd = &cobra.Command{
	Use:   "diff [flags] FILE.m",
	Short: "Show a unified diff between the input and its rewrite",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func init() {
	diffFlags.register(diffCmd)
	diffCmd.Flags().IntP("context", "U", 3, "lines of context")
}

func runDiff(cmd *cobra.Command, args []string) error {
	s := current
	opts, err := diffFlags.options(cmd, s)
	if err != nil {
		return err
	}
	in, err := diffFlags.input(args[0])
	if err != nil {
		return err
	}
	ctxLines, err := cmd.Flags().GetInt("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}

	res, rwErr := driver.RewriteFile(cmd.Context(), in, opts)
	if err := reportDiagnostics(os.Stderr, res); err != nil {
		return err
	}
	if rwErr != nil {
		dumpTraceOnFailure(os.Stderr, rwErr)
		return rwErr
	}

	out := driver.OutputPath(res.Path, "", s.cfg.Output.Suffix)
	text := driver.UnifiedDiff(res.Path, out, string(res.File.Content), res.Output, ctxLines)
	printDiff(text, s.color)
	return nil
}

func printDiff(text string, useColor bool) {
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	for _, c := range []*color.Color{add, del, hunk} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Print(line)
		case strings.HasPrefix(line, "@@"):
			fmt.Print(hunk.Sprint(line))
		case strings.HasPrefix(line, "+"):
			fmt.Print(add.Sprint(line))
		case strings.HasPrefix(line, "-"):
			fmt.Print(del.Sprint(line))
		default:
			fmt.Print(line)
		}
	}
}
