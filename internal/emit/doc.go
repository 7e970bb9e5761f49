// Package emit produces the file-scope text that describes classes to the
// runtime: the typedef guard and struct of each class, and the metadata
// tables appended after the rewritten source.
//
// The package only builds text. Placement in the edit buffer is the job of
// the rewrite package; emit never touches source spans.
package emit
