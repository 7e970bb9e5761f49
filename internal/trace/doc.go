// Package trace provides a tracing subsystem for the objrw rewriter.
//
// The trace package tracks orchestration steps, per-declaration processing
// and individual rewrites to help diagnose slow units and wrong output.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	objrw rewrite --trace=- --trace-level=detail main.m --ast main.astpack
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - NopTracer: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer, dumped when a unit fails
//   - MultiTracer: Combines multiple tracers
//
// # Formats
//
// Stream output is text, NDJSON or a Chrome trace (chrome://tracing,
// Perfetto). With FormatAuto the extension of --trace decides: ".ndjson"
// gives NDJSON, ".json" gives Chrome, anything else text.
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Top-level declarations
//   - LevelDebug: Everything including rewritten nodes
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: One translation unit or batch run
//   - ScopePass: Orchestration steps (includes, walk, interfaces, ...)
//   - ScopeDecl: One top-level declaration
//   - ScopeNode: One rewritten construct (point events)
//
// # Context Propagation
//
// Tracers are propagated through the pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "walk", parentID)
//	defer span.End("")
package trace
