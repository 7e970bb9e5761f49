// Package rewrite drives the desugaring of one translation unit.
//
// The Rewriter walks the unit document in source order and records edits in
// an editbuf.Buffer laid over the main file. Replacement text comes from
// package synth (expressions, blocks) and package emit (class structs,
// method headers, metadata). Passes run in a fixed order:
//
//   - Includes: #import lines become #include;
//   - Walk: top-level declarations, function and method bodies, block
//     literals and Objective-C statements;
//   - Interfaces: every @interface seen is replaced by its C struct;
//   - Implementations: @implementation headers, method headers and
//     synthesized accessors.
//
// Internal bookkeeping failures panic with *InvariantError; the driver
// recovers them at the unit boundary. A stale edit is never fatal: it
// becomes a W2001 warning and the original text stays in place.
package rewrite
