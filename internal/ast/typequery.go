package ast

// Canonical strips typedef sugar.
func (u *Unit) Canonical(id TypeID) TypeID {
	for range 64 {
		t := u.Type(id)
		if t == nil || t.Kind != TypeTypedef {
			return id
		}
		id = t.Elem
	}
	return id
}

func (u *Unit) canon(id TypeID) *Type {
	return u.Type(u.Canonical(id))
}

// IsObjCObjectPointer: id, Class, Foo *, id<P>.
func (u *Unit) IsObjCObjectPointer(id TypeID) bool {
	t := u.canon(id)
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeObjCID, TypeObjCClass, TypeObjCObject:
		return true
	}
	return false
}

// IsObjCQualifiedID reports id<P>.
func (u *Unit) IsObjCQualifiedID(id TypeID) bool {
	t := u.canon(id)
	return t != nil && t.Kind == TypeObjCID && len(t.Protocols) > 0
}

// IsObjCQualifiedInterface reports Foo<P> *.
func (u *Unit) IsObjCQualifiedInterface(id TypeID) bool {
	t := u.canon(id)
	return t != nil && t.Kind == TypeObjCObject && len(t.Protocols) > 0
}

// NeedsQualifierScan reports whether the spelling of a declaration of type id
// may carry a protocol qualifier list.
func (u *Unit) NeedsQualifierScan(id TypeID) bool {
	for range 64 {
		t := u.Type(id)
		if t == nil {
			return false
		}
		switch t.Kind {
		case TypeObjCID, TypeObjCObject:
			return len(t.Protocols) > 0
		case TypePointer, TypeArray:
			id = t.Elem
		case TypeFunction:
			if u.NeedsQualifierScan(t.Result) {
				return true
			}
			for _, p := range t.Params {
				if u.NeedsQualifierScan(p) {
					return true
				}
			}
			return false
		case TypeBlockPointer:
			id = t.Elem
		default:
			return false
		}
	}
	return false
}

func (u *Unit) IsBlockPointer(id TypeID) bool {
	t := u.canon(id)
	return t != nil && t.Kind == TypeBlockPointer
}

// ContainsBlockPointer reports a block pointer anywhere in the spelled type:
// directly, behind pointers or arrays, or in function parameters and results.
func (u *Unit) ContainsBlockPointer(id TypeID) bool {
	for range 64 {
		t := u.Type(id)
		if t == nil {
			return false
		}
		switch t.Kind {
		case TypeBlockPointer:
			return true
		case TypePointer, TypeArray:
			id = t.Elem
		case TypeFunction:
			if u.ContainsBlockPointer(t.Result) {
				return true
			}
			for _, p := range t.Params {
				if u.ContainsBlockPointer(p) {
					return true
				}
			}
			return false
		default:
			return false
		}
	}
	return false
}

// FunctionOf returns the function type behind a block or function pointer.
func (u *Unit) FunctionOf(id TypeID) *Type {
	t := u.canon(id)
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeFunction:
		return t
	case TypeBlockPointer, TypePointer:
		if f := u.canon(t.Elem); f != nil && f.Kind == TypeFunction {
			return f
		}
	}
	return nil
}

func (u *Unit) IsFunctionPointer(id TypeID) bool {
	t := u.canon(id)
	if t == nil || t.Kind != TypePointer {
		return false
	}
	f := u.canon(t.Elem)
	return f != nil && f.Kind == TypeFunction
}

// IsRealFloating: float, double, long double.
func (u *Unit) IsRealFloating(id TypeID) bool {
	t := u.canon(id)
	if t == nil || t.Kind != TypeBuiltin {
		return false
	}
	switch t.Name {
	case "float", "double", "long double":
		return true
	}
	return false
}

// IsRecord: struct or union.
func (u *Unit) IsRecord(id TypeID) bool {
	t := u.canon(id)
	return t != nil && t.Kind == TypeRecord
}

func (u *Unit) IsVoid(id TypeID) bool {
	t := u.canon(id)
	return t == nil || (t.Kind == TypeBuiltin && t.Name == "void")
}

// IsPointerLike covers C pointers and Objective-C object pointers.
func (u *Unit) IsPointerLike(id TypeID) bool {
	t := u.canon(id)
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypePointer, TypeObjCID, TypeObjCClass, TypeObjCObject, TypeObjCSel:
		return true
	}
	return false
}
