package source

import (
	"fmt"
	"time"
)

// FileFlags encodes metadata about a source file.
type FileFlags uint8

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	// FileOverlay marks an editor buffer that shadows the disk copy.
	FileOverlay
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single source file.
type File struct {
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	ModTime time.Time
	Flags   FileFlags
}

// Position is a zero-based line and a zero-based byte column within that line.
type Position struct {
	Line      int
	Character int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Before reports whether p sorts strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Range is a half-open [Start, End) region of a file.
type Range struct {
	Start Position
	End   Position
}

// Empty reports whether the range covers no text.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Contains reports whether pos lies within the range, end inclusive.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Location pins a range to a file path.
type Location struct {
	Path  string
	Range Range
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Range.Start.Line+1, l.Range.Start.Character+1)
}
