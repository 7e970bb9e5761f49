package objc

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"objrw/internal/ast"
)

// Options fixes the unit-wide choices synthesized text depends on.
type Options struct {
	// FileName is the main file name as given on input; constant-string
	// symbols are derived from it.
	FileName string
	// MSExtensions selects the Microsoft flavour of the runtime glue.
	MSExtensions bool
	// Header marks .h inputs.
	Header bool
	// StructReturnThreshold is the largest sizeof(T) still returned through
	// the plain dispatch entry.
	StructReturnThreshold int
	// PointerSize of the target in bytes.
	PointerSize int
}

// DefaultStructReturnThreshold is the struct-return limit of the reference
// target ABI.
const DefaultStructReturnThreshold = 8

// Session is the registry set of one translation unit.
type Session struct {
	Unit *ast.Unit
	Opts Options

	classes    map[ast.DeclID]*ClassLayout
	classOrder []ast.DeclID
	written    map[ast.DeclID]bool

	methodNames  map[ast.DeclID]string
	methodOwners map[string]ast.DeclID

	ivarRefs map[ast.DeclID][]ast.DeclID
	ivarSeen map[ast.DeclID]bool

	byrefNums map[ast.DeclID]int
	nextByref int

	bcLabels int

	interfaces    []ast.DeclID
	interfaceSeen map[ast.DeclID]bool
	classImpls    []ast.DeclID
	categoryImpls []ast.DeclID

	protocolExprs    []ast.DeclID
	protocolExprSeen map[ast.DeclID]bool
	protocolsEmitted map[ast.DeclID]bool

	metadataDeclsWritten bool
	getPropertyDeclared  bool
	setPropertyDeclared  bool
	copyDisposeFlags     map[int]bool
	tagsDefined          map[ast.DeclID]bool

	strings  int
	preamble strings.Builder

	blocks []BlockRecord
}

// NewSession creates empty registries for unit.
func NewSession(unit *ast.Unit, opts Options) *Session {
	if opts.StructReturnThreshold <= 0 {
		opts.StructReturnThreshold = DefaultStructReturnThreshold
	}
	if opts.PointerSize <= 0 {
		opts.PointerSize = 8
	}
	return &Session{
		Unit:             unit,
		Opts:             opts,
		classes:          make(map[ast.DeclID]*ClassLayout),
		written:          make(map[ast.DeclID]bool),
		methodNames:      make(map[ast.DeclID]string),
		methodOwners:     make(map[string]ast.DeclID),
		ivarRefs:         make(map[ast.DeclID][]ast.DeclID),
		ivarSeen:         make(map[ast.DeclID]bool),
		byrefNums:        make(map[ast.DeclID]int),
		interfaceSeen:    make(map[ast.DeclID]bool),
		protocolExprSeen: make(map[ast.DeclID]bool),
		protocolsEmitted: make(map[ast.DeclID]bool),
		copyDisposeFlags: make(map[int]bool),
		tagsDefined:      make(map[ast.DeclID]bool),
	}
}

// --- interfaces and implementations ---

// SeeInterface records a class definition of the main file, first-seen order.
func (s *Session) SeeInterface(iface ast.DeclID) {
	if s.interfaceSeen[iface] {
		return
	}
	s.interfaceSeen[iface] = true
	s.interfaces = append(s.interfaces, iface)
}

// Interfaces returns the class definitions in first-seen order.
func (s *Session) Interfaces() []ast.DeclID { return s.interfaces }

// AddClassImpl records an @implementation.
func (s *Session) AddClassImpl(impl ast.DeclID) { s.classImpls = append(s.classImpls, impl) }

// AddCategoryImpl records a category @implementation.
func (s *Session) AddCategoryImpl(impl ast.DeclID) {
	s.categoryImpls = append(s.categoryImpls, impl)
}

func (s *Session) ClassImpls() []ast.DeclID    { return s.classImpls }
func (s *Session) CategoryImpls() []ast.DeclID { return s.categoryImpls }

// HasImplementations reports whether class or category metadata is due.
func (s *Session) HasImplementations() bool {
	return len(s.classImpls) > 0 || len(s.categoryImpls) > 0
}

// MarkWritten remembers that the typedef of iface has been produced.
// Returns false when it already was.
func (s *Session) MarkWritten(iface ast.DeclID) bool {
	if s.written[iface] {
		return false
	}
	s.written[iface] = true
	return true
}

func (s *Session) Written(iface ast.DeclID) bool { return s.written[iface] }

// --- method names ---

// MethodName returns the internal function name of method m, registering it
// on first use: _I_ or _C_, the class name, the category name when m belongs
// to a category implementation, and the selector with ':' turned into '_'.
func (s *Session) MethodName(m ast.DeclID) string {
	if name, ok := s.methodNames[m]; ok {
		return name
	}
	u := s.Unit
	md := u.Decl(m)
	if md == nil {
		Invariant("MethodName", "method %d does not exist", m)
	}
	var sb strings.Builder
	if md.Instance {
		sb.WriteString("_I_")
	} else {
		sb.WriteString("_C_")
	}
	sb.WriteString(u.ClassName(md.Container))
	sb.WriteByte('_')
	if c := u.Decl(md.Container); c != nil && c.Kind == ast.DeclCategoryImpl {
		sb.WriteString(c.Name)
		sb.WriteByte('_')
	}
	sb.WriteString(strings.ReplaceAll(md.Selector, ":", "_"))
	name := sb.String()

	if owner, ok := s.methodOwners[name]; ok && owner != m {
		Invariant("MethodName", "methods %d and %d both map to %s", owner, m, name)
	}
	s.methodOwners[name] = m
	s.methodNames[m] = name
	return name
}

// LookupMethodName returns the registered name of m without creating one.
func (s *Session) LookupMethodName(m ast.DeclID) (string, bool) {
	name, ok := s.methodNames[m]
	return name, ok
}

// MethodNames returns a copy of the name table.
func (s *Session) MethodNames() map[ast.DeclID]string {
	out := make(map[ast.DeclID]string, len(s.methodNames))
	for k, v := range s.methodNames {
		out[k] = v
	}
	return out
}

// --- ivars ---

// ContainingInterface returns the class interface an ivar belongs to, looking
// through class extensions and implementations.
func (s *Session) ContainingInterface(ivar ast.DeclID) ast.DeclID {
	d := s.Unit.Decl(ivar)
	if d == nil {
		return ast.NoDeclID
	}
	return s.Unit.ClassOf(d.Container)
}

// ReferenceIvar records that ivar was accessed; the class section later
// declares its offset symbol. First-reference order is kept.
func (s *Session) ReferenceIvar(ivar ast.DeclID) {
	if s.ivarSeen[ivar] {
		return
	}
	iface := s.ContainingInterface(ivar)
	s.ivarSeen[ivar] = true
	s.ivarRefs[iface] = append(s.ivarRefs[iface], ivar)
}

// ReferencedIvars returns the ivars of iface accessed so far.
func (s *Session) ReferencedIvars(iface ast.DeclID) []ast.DeclID {
	return s.ivarRefs[iface]
}

// --- byref numbering ---

// AssignByref gives a __block variable its unit-wide number. Numbering a
// variable twice is an invariant violation.
func (s *Session) AssignByref(v ast.DeclID) int {
	if n, ok := s.byrefNums[v]; ok {
		Invariant("AssignByref", "byref variable %d already numbered %d", v, n)
	}
	n := s.nextByref
	s.nextByref++
	s.byrefNums[v] = n
	return n
}

// ByrefNumber returns the number of a __block variable.
func (s *Session) ByrefNumber(v ast.DeclID) int {
	n, ok := s.byrefNums[v]
	if !ok {
		name := ""
		if d := s.Unit.Decl(v); d != nil {
			name = d.Name
		}
		Invariant("ByrefNumber", "byref variable %q used before its declaration was rewritten", name)
	}
	return n
}

// ByrefTypeName is "__Block_byref_<name>_<n>".
func (s *Session) ByrefTypeName(v ast.DeclID) string {
	d := s.Unit.Decl(v)
	if d == nil {
		Invariant("byref", "unknown decl %d", v)
	}
	return "__Block_byref_" + d.Name + "_" + strconv.Itoa(s.ByrefNumber(v))
}

// ByrefNumbers returns a copy of the byref table.
func (s *Session) ByrefNumbers() map[ast.DeclID]int {
	out := make(map[ast.DeclID]int, len(s.byrefNums))
	for k, v := range s.byrefNums {
		out[k] = v
	}
	return out
}

// --- counters and one-shot flags ---

// NextLabel returns a fresh break/continue label number (1, 2, ...).
func (s *Session) NextLabel() int {
	s.bcLabels++
	return s.bcLabels
}

// NeedByrefHelpers reports true the first time a copy/dispose flag value is
// requested.
func (s *Session) NeedByrefHelpers(flag int) bool {
	if s.copyDisposeFlags[flag] {
		return false
	}
	s.copyDisposeFlags[flag] = true
	return true
}

// DeclareGetProperty reports true once per unit.
func (s *Session) DeclareGetProperty() bool {
	if s.getPropertyDeclared {
		return false
	}
	s.getPropertyDeclared = true
	return true
}

// DeclareSetProperty reports true once per unit.
func (s *Session) DeclareSetProperty() bool {
	if s.setPropertyDeclared {
		return false
	}
	s.setPropertyDeclared = true
	return true
}

// WriteMetadataDecls reports true once per unit: the metadata struct
// declarations precede the first metadata record.
func (s *Session) WriteMetadataDecls() bool {
	if s.metadataDeclsWritten {
		return false
	}
	s.metadataDeclsWritten = true
	return true
}

// ResetTags forgets the record and enum types defined inside a class struct.
func (s *Session) ResetTags() { clear(s.tagsDefined) }

// DefineTag reports true the first time a record or enum is written inline.
func (s *Session) DefineTag(tag ast.DeclID) bool {
	if s.tagsDefined[tag] {
		return false
	}
	s.tagsDefined[tag] = true
	return true
}

// --- protocols ---

// RecordProtocolExpr registers a protocol named by @protocol(P).
func (s *Session) RecordProtocolExpr(p ast.DeclID) {
	if s.protocolExprSeen[p] {
		return
	}
	s.protocolExprSeen[p] = true
	s.protocolExprs = append(s.protocolExprs, p)
}

func (s *Session) ProtocolExprs() []ast.DeclID { return s.protocolExprs }

// MarkProtocolEmitted returns false when the metadata of p already exists.
func (s *Session) MarkProtocolEmitted(p ast.DeclID) bool {
	if s.protocolsEmitted[p] {
		return false
	}
	s.protocolsEmitted[p] = true
	return true
}

func (s *Session) ProtocolEmitted(p ast.DeclID) bool { return s.protocolsEmitted[p] }

// --- constant strings and preamble ---

// NextStringSymbol returns a new __NSConstantStringImpl_<file>_<n> name.
// The file name is NFC-normalized, then every byte that is not an ASCII
// letter or digit becomes '_'.
func (s *Session) NextStringSymbol() string {
	name := []byte(norm.NFC.String(s.Opts.FileName))
	for i, c := range name {
		if !isAlnum(c) {
			name[i] = '_'
		}
	}
	sym := "__NSConstantStringImpl_" + string(name) + "_" + strconv.Itoa(s.strings)
	s.strings++
	return sym
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// AppendPreamble adds text produced during the walk (constant strings,
// protocol records) to the unit preamble.
func (s *Session) AppendPreamble(text string) { s.preamble.WriteString(text) }

// PreambleExtra returns the text collected by AppendPreamble.
func (s *Session) PreambleExtra() string { return s.preamble.String() }

// --- blocks ---

// BlockRecord describes one hoisted block literal.
type BlockRecord struct {
	Func    string
	Index   int
	Impl    string
	ByCopy  []string
	ByRef   []string
	Helpers bool
	Global  bool
}

// AddBlock records a hoisted block literal.
func (s *Session) AddBlock(b BlockRecord) { s.blocks = append(s.blocks, b) }

func (s *Session) Blocks() []BlockRecord { return s.blocks }
