package layout

// Target describes the ABI the rewritten code is compiled for.
type Target struct {
	Triple   string // e.g. "x86_64-apple-darwin"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
	// StructReturnThreshold is the largest struct size (bytes) returned in
	// registers; larger results use the *_stret dispatch entry.
	StructReturnThreshold int
	LongSize              int
}

// Default64 is the LP64 target the runtime preamble is written for.
func Default64() Target {
	return Target{
		Triple:                "x86_64-apple-darwin",
		PtrSize:               8,
		PtrAlign:              8,
		StructReturnThreshold: 8,
		LongSize:              8,
	}
}

// WithPointerSize returns a copy with pointer (and long) width set to n bytes.
func (t Target) WithPointerSize(n int) Target {
	if n <= 0 {
		return t
	}
	t.PtrSize, t.PtrAlign, t.LongSize = n, n, n
	if n == 4 {
		t.Triple = "i386-apple-darwin"
	}
	return t
}
