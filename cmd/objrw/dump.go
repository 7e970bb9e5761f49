package main

import (
	"os"

	"github.com/spf13/cobra"

	"objrw/internal/driver"
)

var dumpFlags unitFlags

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] FILE.m",
	Short: "Rewrite a unit and print what the session registered",
	Long: `Dump runs the rewrite without writing output and prints the session tables:
classes and their struct status, method function names, __block variable
tags, block literals and protocols.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpFlags.register(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	opts, err := dumpFlags.options(cmd, current)
	if err != nil {
		return err
	}
	in, err := dumpFlags.input(args[0])
	if err != nil {
		return err
	}
	res, rwErr := driver.RewriteFile(cmd.Context(), in, opts)
	if err := reportDiagnostics(os.Stderr, res); err != nil {
		return err
	}
	if rwErr != nil {
		dumpTraceOnFailure(os.Stderr, rwErr)
		return rwErr
	}
	driver.WriteDump(os.Stdout, res)
	if current.timings {
		driver.WriteTimings(os.Stderr, res.Path, res.Timing)
	}
	return nil
}
