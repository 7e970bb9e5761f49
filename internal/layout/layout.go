package layout

import (
	"fortio.org/safecast"

	"objrw/internal/ast"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Record-only:
	FieldOffsets []int
	FieldAligns  []int
}

// LayoutEngine computes memory layout for the types of one unit.
type LayoutEngine struct {
	Target Target
	Unit   *ast.Unit

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, unit *ast.Unit) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Unit:   unit,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []ast.TypeID
	index map[ast.TypeID]int
}

func newLayoutState() *layoutState {
	return &layoutState{
		stack: nil,
		index: make(map[ast.TypeID]int, 16),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(t ast.TypeID) (TypeLayout, error) {
	if e == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	layout, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return layout, err
	}
	return layout, nil
}

func (e *LayoutEngine) layoutOf(t ast.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	canon := e.Unit.Canonical(t)
	if cached, ok := e.cache.get(canon); ok {
		return cached.Layout, cached.Err
	}

	if idx, ok := state.index[canon]; ok {
		cycle := append(append([]ast.TypeID(nil), state.stack[idx:]...), canon)
		err := &LayoutError{
			Kind:  LayoutErrRecursiveUnsized,
			Type:  canon,
			Cycle: cycle,
		}
		e.cache.put(canon, &cacheEntry{Layout: TypeLayout{Size: 0, Align: 1}, Err: err})
		return TypeLayout{Size: 0, Align: 1}, err
	}

	state.index[canon] = len(state.stack)
	state.stack = append(state.stack, canon)
	layout, err := e.computeLayout(canon, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, canon)

	e.cache.put(canon, &cacheEntry{Layout: layout, Err: err})
	return layout, err
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t ast.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t ast.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

func (e *LayoutEngine) computeLayout(id ast.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	t := e.Unit.Type(id)
	if t == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	switch t.Kind {
	case ast.TypeBuiltin:
		return e.builtinLayout(t.Name), nil
	case ast.TypePointer, ast.TypeObjCID, ast.TypeObjCClass, ast.TypeObjCSel, ast.TypeObjCObject, ast.TypeBlockPointer:
		return e.ptrLayout(), nil
	case ast.TypeEnum:
		return scalarLayoutBytes(4), nil
	case ast.TypeFunction:
		return TypeLayout{Size: 1, Align: 1}, nil
	case ast.TypeArray:
		if t.Len < 0 {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrNegativeLength, Type: id, Value: t.Len}
		}
		return e.arrayFixedLayout(t.Elem, t.Len, state)
	case ast.TypeRecord:
		return e.recordLayout(id, t, state)
	}
	return TypeLayout{Size: 0, Align: 1}, nil
}

func (e *LayoutEngine) builtinLayout(name string) TypeLayout {
	switch name {
	case "void":
		return TypeLayout{Size: 1, Align: 1}
	case "char", "signed char", "unsigned char", "_Bool", "bool", "BOOL":
		return scalarLayoutBytes(1)
	case "short", "unsigned short", "unichar":
		return scalarLayoutBytes(2)
	case "int", "unsigned int", "unsigned", "float", "wchar_t":
		return scalarLayoutBytes(4)
	case "long", "unsigned long", "long int", "unsigned long int":
		if e.Target.LongSize > 0 {
			return scalarLayoutBytes(e.Target.LongSize)
		}
		return scalarLayoutBytes(8)
	case "long long", "unsigned long long", "double":
		return scalarLayoutBytes(8)
	case "long double":
		return TypeLayout{Size: 16, Align: 16}
	}
	return scalarLayoutBytes(4)
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func (e *LayoutEngine) arrayFixedLayout(elem ast.TypeID, length int64, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(elem, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := max(elemLayout.Align, 1)
	stride := roundUp(elemLayout.Size, elemAlign)
	n, cerr := safecast.Conv[int](length)
	if cerr != nil || n < 0 {
		n = 0
	}
	return TypeLayout{
		Size:  stride * n,
		Align: elemAlign,
	}, nil
}

// recordLayout lays fields out in declaration order; bit-fields are packed
// into units of their declared type.
func (e *LayoutEngine) recordLayout(id ast.TypeID, t *ast.Type, state *layoutState) (TypeLayout, *LayoutError) {
	decl := e.Unit.Decl(t.Decl)
	if decl == nil || decl.Kind != ast.DeclRecord {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrIncomplete, Type: id}
	}
	fields := decl.Fields
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))

	size, align := 0, 1
	bitOff := 0 // биты, занятые в текущем юните битового поля
	for i, fid := range fields {
		f := e.Unit.Decl(fid)
		if f == nil {
			continue
		}
		fl, err := e.layoutOf(f.Type, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := max(fl.Align, 1)
		aligns[i] = fAlign
		align = max(align, fAlign)

		if decl.Union {
			offsets[i] = 0
			size = max(size, fl.Size)
			continue
		}
		if f.HasBitWidth {
			w, _ := safecast.Conv[int](f.BitWidth)
			unitBits := fl.Size * 8
			if bitOff == 0 || bitOff+w > unitBits {
				size = roundUp(size, fAlign)
				offsets[i] = size
				size += fl.Size
				bitOff = w
			} else {
				offsets[i] = size - fl.Size
				bitOff += w
			}
			continue
		}
		bitOff = 0
		size = roundUp(size, fAlign)
		offsets[i] = size
		size += fl.Size
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
