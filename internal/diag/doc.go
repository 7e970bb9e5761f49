// Package diag defines the diagnostic model shared by the rewriter phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for the small fixed set of
//     findings the rewriter produces (macro-confused rewrites, unsupported
//     @try/@finally control flow) and for driver-level failures (unreadable
//     inputs, malformed unit documents, invariant violations).
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag does not perform any formatting or IO. Rendering lives in
// internal/diagfmt, orchestration in the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code: compact numeric identifier (see codes.go) with stable string form
//     ("W2001").
//   - Message: human oriented text; for rewrite warnings it is the code title.
//   - Primary span: the construct that could not be rewritten.
//   - Notes: optional secondary spans/messages.
//
// # Reporter
//
// Producers talk to Reporter. BagReporter stores into a Bag with a cap,
// DedupReporter filters repeated reports for the same construct (the walk can
// visit a sub-expression more than once).
package diag
