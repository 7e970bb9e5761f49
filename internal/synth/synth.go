// Package synth builds the C replacement text for Objective-C expressions:
// message sends, property accesses, ivar references, literals and blocks.
// It never edits the buffer itself; callers splice the returned text.
package synth

import (
	"objrw/internal/ast"
	"objrw/internal/cgen"
	"objrw/internal/layout"
	"objrw/internal/objc"
)

// TextFunc returns the current (already rewritten) text of an expression.
type TextFunc func(ast.ExprID) string

// Synth synthesizes replacements for one translation unit.
type Synth struct {
	Sess   *objc.Session
	Unit   *ast.Unit
	Nodes  *cgen.Arena
	Types  cgen.Speller
	Layout *layout.LayoutEngine
	Text   TextFunc

	// Method is the method definition whose body is being rewritten.
	Method ast.DeclID
}

func New(sess *objc.Session, engine *layout.LayoutEngine, text TextFunc) *Synth {
	return &Synth{
		Sess:   sess,
		Unit:   sess.Unit,
		Nodes:  cgen.NewArena(256),
		Types:  cgen.Speller{Unit: sess.Unit},
		Layout: engine,
		Text:   text,
	}
}

// sub wraps the rendered text of e. Binary, conditional and assignment text
// stays grouped so it is parenthesized as an operand.
func (s *Synth) sub(id ast.ExprID) cgen.NodeID {
	e := s.Unit.Expr(id)
	if e == nil {
		objc.Invariant("synth", "missing expression %d", id)
	}
	group := e.Kind == ast.ExprBinary || e.Kind == ast.ExprConditional
	return s.Nodes.Raw(s.Text(id), group)
}

// stripCasts skips explicit C casts.
func (s *Synth) stripCasts(id ast.ExprID) ast.ExprID {
	for range 64 {
		e := s.Unit.Expr(id)
		if e == nil || e.Kind != ast.ExprCast {
			return id
		}
		id = e.Operand
	}
	return id
}

func (s *Synth) print(n cgen.NodeID) string { return s.Nodes.Print(n) }

// currentClass is the class interface of the method being rewritten.
func (s *Synth) currentClass(op string) string {
	if !s.Method.IsValid() {
		objc.Invariant(op, "super reference outside a method body")
	}
	var iface ast.DeclID
	if m := s.Unit.Decl(s.Method); m != nil {
		iface = s.Unit.ClassOf(m.Container)
	}
	if !iface.IsValid() {
		objc.Invariant(op, "method %d has no class interface", s.Method)
	}
	return s.Unit.ClassName(iface)
}
