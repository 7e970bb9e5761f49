package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Информационные
	PriorErrors Code = 1 // front end already reported hard errors

	// Ввод-вывод и входные документы
	IOReadFailed     Code = 1001
	UnitDecodeFailed Code = 1002
	UnitMalformed    Code = 1003

	// Предупреждения переписывания
	RewriteInMacro Code = 2001
	TryFinallyJump Code = 2002

	// Нарушения инвариантов драйвера
	InternalInvariant Code = 3001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:       "Unknown error",
		PriorErrors:       "translation unit already has errors",
		IOReadFailed:      "cannot read input",
		UnitDecodeFailed:  "cannot decode unit document",
		UnitMalformed:     "malformed unit document",
		RewriteInMacro:    "rewriting sub-expression within a macro (may not be correct)",
		TryFinallyJump:    "rewriter doesn't support user-specified control flow semantics for @try/@finally (code may not execute properly)",
		InternalInvariant: "internal rewriter invariant violated",
	}
)

// ID returns the stable short form, e.g. "W2001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic < 1000:
		return fmt.Sprintf("I%04d", ic)
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("E%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("W%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("E%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
