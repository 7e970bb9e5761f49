package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"objrw/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "objrw",
	Short: "Objective-C to C++ source rewriter",
	Long: `objrw desugars Objective-C translation units into C++ that only needs the
Objective-C runtime ABI. It reads the main file and the unit document the
front end produced for it (.astpack or .ast.json).`,
	SilenceUsage:      true,
	PersistentPreRunE: setupCommand,
}

// main registers subcommands and persistent flags and runs the root command.
// Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(preambleCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("format", "pretty", "diagnostics format (pretty|json)")
	pf.String("config", "", "path to objrw.toml (default: search upwards from the working directory)")

	pf.String("trace", "", "trace output file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring buffer")
	pf.Duration("trace-heartbeat", 0, "heartbeat interval, 0 disables")

	err := rootCmd.Execute()
	teardown(rootCmd.ErrOrStderr())
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
