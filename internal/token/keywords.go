package token

// Only the keywords the rewriter has to recognize structurally get their own
// kinds; everything else stays an identifier.
var keywords = map[string]Kind{
	"for":      KwFor,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
	"goto":     KwGoto,
	"struct":   KwStruct,
	"union":    KwUnion,
	"enum":     KwEnum,
	"typedef":  KwTypedef,
	"static":   KwStatic,
	"extern":   KwExtern,
	"sizeof":   KwSizeof,
}

// LookupKeyword returns the keyword kind for ident, if any.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
