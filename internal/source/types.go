package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	FileHasCRLF
	// FileHeader marks .h/.hh/.H inputs; the rewritten output becomes a header too.
	FileHeader
)

// File captures metadata and content for a single source file.
//
// Content is kept byte-for-byte as read: AST spans produced by the front end
// address the raw buffer, so no normalization happens on load.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
	// Macros are byte ranges produced by macro expansion, sorted by Start.
	Macros []Span
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
