package objc

import "objrw/internal/ast"

// ClassLayout is the synthesized struct of one class: its own ivars plus the
// embedded struct of the super class.
type ClassLayout struct {
	Name        string
	Decl        ast.DeclID
	Super       *ClassLayout
	Ivars       []ast.DeclID
	Synthesized bool
}

// StructName is "<Class>_IMPL".
func (c *ClassLayout) StructName() string { return c.Name + "_IMPL" }

// Layout returns the (lazily built) layout of the class interface iface.
func (s *Session) Layout(iface ast.DeclID) *ClassLayout {
	if !iface.IsValid() {
		return nil
	}
	if cl, ok := s.classes[iface]; ok {
		return cl
	}
	d := s.Unit.Decl(iface)
	if d == nil {
		return nil
	}
	cl := &ClassLayout{Name: d.Name, Decl: iface, Ivars: s.Unit.AllIvars(iface)}
	s.classes[iface] = cl
	s.classOrder = append(s.classOrder, iface)
	if d.Super.IsValid() && d.Super != iface {
		cl.Super = s.Layout(d.Super)
	}
	return cl
}

// MarkSynthesized records that the struct of iface has been written.
// A second struct for the same class is an invariant violation.
func (s *Session) MarkSynthesized(iface ast.DeclID) {
	cl := s.Layout(iface)
	if cl == nil {
		Invariant("MarkSynthesized", "class %d does not exist", iface)
	}
	if cl.Synthesized {
		Invariant("MarkSynthesized", "struct %s written twice", cl.StructName())
	}
	cl.Synthesized = true
}

// IsSynthesized reports whether the struct of iface has been written.
func (s *Session) IsSynthesized(iface ast.DeclID) bool {
	cl, ok := s.classes[iface]
	return ok && cl.Synthesized
}

// Classes returns the layouts built so far, in creation order.
func (s *Session) Classes() []*ClassLayout {
	out := make([]*ClassLayout, 0, len(s.classOrder))
	for _, id := range s.classOrder {
		out = append(out, s.classes[id])
	}
	return out
}
