package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes how the raw bytes were normalised on load.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	// FileUTF16 marks content transcoded from a UTF-16 file with a BOM.
	FileUTF16
)

// File captures the normalised content of one input and its line split.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// Lines is Content split on '\n'; a trailing newline yields a final
	// empty element.
	Lines []string
	Hash  [32]byte
	Flags FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
