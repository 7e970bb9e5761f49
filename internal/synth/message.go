package synth

import (
	"strconv"
	"strings"

	"objrw/internal/ast"
	"objrw/internal/cgen"
	"objrw/internal/objc"
)

// runtime entry points
const (
	msgSend           = "objc_msgSend"
	msgSendFpret      = "objc_msgSend_fpret"
	msgSendStret      = "objc_msgSend_stret"
	msgSendSuper      = "objc_msgSendSuper"
	msgSendSuperStret = "objc_msgSendSuper_stret"
)

// send is the normalized form of a message: explicit sends and the
// getter/setter calls behind property references share it.
type send struct {
	recv     ast.ReceiverKind
	receiver ast.ExprID
	class    string
	selector string
	method   ast.DeclID
	result   ast.TypeID // static type of the send expression
	args     []ast.ExprID
}

// Message returns the dispatch call replacing message expression id.
func (s *Synth) Message(id ast.ExprID) string {
	e := s.Unit.Expr(id)
	if e == nil || e.Kind != ast.ExprMessage {
		objc.Invariant("message", "expression %d is not a message send", id)
	}
	return s.print(s.message(send{
		recv:     e.Recv,
		receiver: e.Receiver,
		class:    e.Class,
		selector: e.Selector,
		method:   e.Method,
		result:   e.Type,
		args:     e.Args,
	}))
}

// PropertyGet rewrites a property read into a getter send.
func (s *Synth) PropertyGet(id ast.ExprID) string {
	e := s.Unit.Expr(id)
	if e == nil || e.Kind != ast.ExprPropertyRef {
		objc.Invariant("property", "expression %d is not a property reference", id)
	}
	m := s.Unit.Decl(e.Method)
	if m == nil {
		objc.Invariant("property", "property reference %d has no getter", id)
	}
	return s.print(s.message(send{
		recv:     e.Recv,
		receiver: e.Base,
		class:    e.Class,
		selector: m.Selector,
		method:   e.Method,
		result:   m.Result,
	}))
}

// PropertySet rewrites "x.p = v" into a setter send with argument v.
func (s *Synth) PropertySet(id ast.ExprID) string {
	e := s.Unit.Expr(id)
	if e == nil || !e.IsSetter() {
		objc.Invariant("property", "expression %d is not a property assignment", id)
	}
	m := s.Unit.Decl(e.Setter)
	if m == nil {
		objc.Invariant("property", "property assignment %d has no setter", id)
	}
	return s.print(s.message(send{
		recv:     e.Recv,
		receiver: e.Base,
		class:    e.Class,
		selector: m.Selector,
		method:   e.Setter,
		result:   m.Result,
		args:     []ast.ExprID{e.Assign},
	}))
}

func (s *Synth) message(m send) cgen.NodeID {
	n := s.Nodes
	flavor := msgSend
	stret := ""
	var md *ast.Decl
	if m.method.IsValid() {
		md = s.Unit.Decl(m.method)
		if md == nil {
			objc.Invariant("message", "unknown method decl %d", m.method)
		}
		switch {
		case s.Unit.IsRecord(md.Result):
			stret = msgSendStret
		case s.Unit.IsRealFloating(md.Result):
			flavor = msgSendFpret
		}
	}

	var first cgen.NodeID
	switch m.recv {
	case ast.RecvSuperInstance, ast.RecvSuperClass:
		flavor = msgSendSuper
		if stret != "" {
			stret = msgSendSuperStret
		}
		first = s.superRef(m.recv == ast.RecvSuperClass)
	case ast.RecvClass:
		first = n.CallName("objc_getClass", n.String(m.class))
	default:
		if !m.receiver.IsValid() {
			objc.Invariant("message", "instance send %q without receiver", m.selector)
		}
		first = n.Cast("id", s.sub(s.stripCasts(m.receiver)))
	}

	args := make([]cgen.NodeID, 0, len(m.args)+2)
	args = append(args, first, n.CallName("sel_registerName", n.String(m.selector)))
	for _, a := range m.args {
		args = append(args, s.messageArg(a))
	}

	firstType := "id"
	if flavor == msgSendSuper {
		firstType = "struct objc_super *"
	}
	params := []string{firstType, "SEL"}
	ret := "id"
	retType := ast.TypeID(0)
	if md != nil {
		for _, p := range md.Params {
			pd := s.Unit.Decl(p)
			if pd == nil {
				continue
			}
			if s.Unit.IsObjCQualifiedID(pd.Type) {
				params = append(params, "id")
				continue
			}
			params = append(params, s.Types.Type(pd.Type, cgen.FuncPtrBlocks))
		}
		retType = m.result
		ret = s.Types.Unqualified(retType)
	}
	variadic := md == nil || md.Variadic
	ce := n.Call(n.Paren(n.Cast(s.fnPtr(retType, params, variadic), n.Cast("void *", n.Ident(flavor)))), args...)
	if stret == "" {
		return ce
	}
	stretVariadic := md != nil && md.Variadic
	st := n.Call(n.Paren(n.Cast(s.fnPtr(retType, params, stretVariadic), n.Cast("void *", n.Ident(stret)))), args...)
	limit := n.Int(strconv.Itoa(s.Sess.Opts.StructReturnThreshold))
	return n.Paren(n.Cond(n.Binary("<=", n.Sizeof(ret), limit), ce, st))
}

// fnPtr spells the pointer-to-function type the dispatch entry is cast to.
// An invalid ret stands for id.
func (s *Synth) fnPtr(ret ast.TypeID, params []string, variadic bool) string {
	list := strings.Join(params, ", ")
	if variadic {
		list += ", ..."
	}
	inner := "(*)(" + list + ")"
	if !ret.IsValid() {
		return "id " + inner
	}
	return s.Types.Decl(ret, inner, cgen.StyleC)
}

// superRef builds the struct objc_super pointer for a send to super.
func (s *Synth) superRef(meta bool) cgen.NodeID {
	n := s.Nodes
	getter := "objc_getClass"
	if meta {
		getter = "objc_getMetaClass"
	}
	cur := n.CallName(getter, n.String(s.currentClass("message")))
	super := n.Cast("id", n.CallName("class_getSuperclass", n.Cast("Class", cur)))
	self := n.Cast("id", n.Ident("self"))
	if s.Sess.Opts.MSExtensions {
		return n.Cast("struct objc_super *", n.AddrOf(n.CallName("__rw_objc_super", self, super)))
	}
	return n.AddrOf(n.CompoundLit("struct objc_super", self, super))
}

// messageArg makes implicit conversions explicit and reduces casts to a
// qualified id to plain id casts.
func (s *Synth) messageArg(id ast.ExprID) cgen.NodeID {
	n := s.Nodes
	e := s.Unit.Expr(id)
	if e == nil {
		objc.Invariant("message", "missing argument %d", id)
	}
	if e.Conv.IsValid() {
		typ := "id"
		if !s.Unit.NeedsQualifierScan(e.Conv) {
			typ = s.Types.Type(e.Conv, cgen.FuncPtrBlocks)
		}
		return n.Cast(typ, s.sub(id))
	}
	if e.Kind == ast.ExprCast && s.Unit.IsObjCQualifiedID(e.Arg) {
		return n.Cast("id", s.sub(s.stripCasts(id)))
	}
	return s.sub(id)
}
