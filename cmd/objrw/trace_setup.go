package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"objrw/internal/rewrite"
	"objrw/internal/trace"
)

var (
	activeTracer trace.Tracer = trace.Nop
	heartbeat    *trace.Heartbeat
)

// setupTracing inspects trace-related flags, builds the tracer and attaches
// it to the command context.
func setupTracing(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()

	traceOutput, err := pf.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	interval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	// --trace без уровня включает phase
	if level == trace.LevelOff && traceOutput != "" && !pf.Changed("trace-level") {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return err
	}
	// LevelError имеет смысл только с кольцевым буфером
	if level == trace.LevelError && !pf.Changed("trace-mode") {
		mode = trace.ModeRing
	}

	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  interval,
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	activeTracer = tracer
	heartbeat = trace.StartHeartbeat(tracer, interval)

	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return nil
}

// teardown stops the heartbeat and closes the tracer.
func teardown(errOut io.Writer) {
	heartbeat.Stop()
	heartbeat = nil
	if err := activeTracer.Flush(); err != nil {
		fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
	}
	if err := activeTracer.Close(); err != nil {
		fmt.Fprintf(errOut, "trace: close error: %v\n", err)
	}
	activeTracer = trace.Nop
}

// dumpTraceOnFailure prints the ring buffer after an invariant violation.
func dumpTraceOnFailure(w io.Writer, err error) {
	var ie *rewrite.InvariantError
	if !errors.As(err, &ie) {
		return
	}
	ring, ok := trace.RingOf(activeTracer)
	if !ok {
		return
	}
	fmt.Fprintln(w, "trace: last events before the failure:")
	if derr := ring.Dump(w, trace.FormatText); derr != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", derr)
	}
}
