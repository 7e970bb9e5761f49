package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the scanned range.
	EOF

	Ident     // foo
	IntLit    // 42, 0x1fULL
	FloatLit  // 1.5f
	CharLit   // 'a'
	StringLit // "abc"
	AtString  // @"abc"
	AtKeyword // @interface, @end, @try, ...
	At        // lone '@'
	Directive // #import <Foundation/Foundation.h>

	KwFor
	KwBreak
	KwContinue
	KwReturn
	KwGoto
	KwStruct
	KwUnion
	KwEnum
	KwTypedef
	KwStatic
	KwExtern
	KwSizeof

	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	Semicolon // ;
	Comma     // ,
	Colon     // :
	Dot       // .
	Ellipsis  // ...
	Arrow     // ->
	Caret     // ^
	Star      // *
	Amp       // &
	Pipe      // |
	Plus      // +
	Minus     // -
	Slash     // /
	Percent   // %
	Bang      // !
	Tilde     // ~
	Question  // ?
	Lt        // <
	Gt        // >
	LtEq      // <=
	GtEq      // >=
	EqEq      // ==
	BangEq    // !=
	Assign    // =
	OpAssign  // += -= *= /= %= &= |= ^= <<= >>=
	AndAnd    // &&
	OrOr      // ||
	Shl       // <<
	Shr       // >>
	PlusPlus  // ++
	MinusMinus
	Hash // '#' outside a directive line (token pasting in macros)
)

var kindNames = [...]string{
	Invalid:    "Invalid",
	EOF:        "EOF",
	Ident:      "Ident",
	IntLit:     "IntLit",
	FloatLit:   "FloatLit",
	CharLit:    "CharLit",
	StringLit:  "StringLit",
	AtString:   "AtString",
	AtKeyword:  "AtKeyword",
	At:         "At",
	Directive:  "Directive",
	KwFor:      "for",
	KwBreak:    "break",
	KwContinue: "continue",
	KwReturn:   "return",
	KwGoto:     "goto",
	KwStruct:   "struct",
	KwUnion:    "union",
	KwEnum:     "enum",
	KwTypedef:  "typedef",
	KwStatic:   "static",
	KwExtern:   "extern",
	KwSizeof:   "sizeof",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	Semicolon:  ";",
	Comma:      ",",
	Colon:      ":",
	Dot:        ".",
	Ellipsis:   "...",
	Arrow:      "->",
	Caret:      "^",
	Star:       "*",
	Amp:        "&",
	Pipe:       "|",
	Plus:       "+",
	Minus:      "-",
	Slash:      "/",
	Percent:    "%",
	Bang:       "!",
	Tilde:      "~",
	Question:   "?",
	Lt:         "<",
	Gt:         ">",
	LtEq:       "<=",
	GtEq:       ">=",
	EqEq:       "==",
	BangEq:     "!=",
	Assign:     "=",
	OpAssign:   "op=",
	AndAnd:     "&&",
	OrOr:       "||",
	Shl:        "<<",
	Shr:        ">>",
	PlusPlus:   "++",
	MinusMinus: "--",
	Hash:       "#",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsOpen reports whether k opens a bracketed group.
func (k Kind) IsOpen() bool {
	return k == LParen || k == LBrace || k == LBracket
}

// IsClose reports whether k closes a bracketed group.
func (k Kind) IsClose() bool {
	return k == RParen || k == RBrace || k == RBracket
}

// Closer returns the closing kind matching an opening kind.
func (k Kind) Closer() Kind {
	switch k {
	case LParen:
		return RParen
	case LBrace:
		return RBrace
	case LBracket:
		return RBracket
	}
	return Invalid
}
