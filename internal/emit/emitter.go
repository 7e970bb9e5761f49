package emit

import (
	"strings"

	"objrw/internal/ast"
	"objrw/internal/cgen"
	"objrw/internal/layout"
	"objrw/internal/objc"
)

// Emitter writes class structs and metadata of one translation unit.
type Emitter struct {
	Sess   *objc.Session
	Unit   *ast.Unit
	Layout *layout.LayoutEngine
	Types  cgen.Speller
}

func New(sess *objc.Session, engine *layout.LayoutEngine) *Emitter {
	return &Emitter{
		Sess:   sess,
		Unit:   sess.Unit,
		Layout: engine,
		Types:  cgen.Speller{Unit: sess.Unit},
	}
}

func (e *Emitter) decl(id ast.DeclID, op string) *ast.Decl {
	d := e.Unit.Decl(id)
	if d == nil {
		objc.Invariant(op, "missing declaration %d", id)
	}
	return d
}

// quoteDoubleQuotes escapes '"' inside encodings that carry class names.
func quoteDoubleQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
