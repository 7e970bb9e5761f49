// Package objc holds the per-translation-unit registries of the rewriter:
// which class structs were synthesized, the internal names of method
// implementations, referenced ivars, byref numbering, emitted protocols and
// the counters the synthesized symbols are derived from.
//
// A Session lives for exactly one unit. Nothing here is global, so two runs
// in the same process never see each other's state.
package objc
