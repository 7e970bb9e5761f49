// Package token defines lexical token kinds and trivia for C and Objective-C source.
// Invariants:
//   - Token.Text is exactly the source slice addressed by Token.Span.
//   - Objective-C directives are lexed as one AtKeyword token ("@interface",
//     "@end", "@try", ...); '@' followed by a string literal is AtString.
//   - Preprocessor lines (#import, #define, ...) are one Directive token that
//     includes backslash-continued lines.
//   - Type names (int, id, SEL, BOOL, ...) are identifiers; the scanner never
//     needs to classify them.
package token
