package source

import (
	"sort"

	"fortio.org/safecast"
)

const maxOffset = ^uint32(0)

func safeOffset(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxOffset
	}
	return v
}

// LineCount returns the number of lines; a trailing newline opens an empty last line.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

// LineStart returns the byte offset of the first character of line.
func (f *File) LineStart(line int) int {
	switch {
	case line <= 0:
		return 0
	case line > len(f.LineIdx):
		return len(f.Content)
	default:
		return int(f.LineIdx[line-1]) + 1
	}
}

// LineEnd returns the byte offset of the newline ending line (or EOF).
func (f *File) LineEnd(line int) int {
	if line < 0 {
		return 0
	}
	if line < len(f.LineIdx) {
		return int(f.LineIdx[line])
	}
	return len(f.Content)
}

// Line returns the text of line without its terminator.
func (f *File) Line(line int) string {
	if line < 0 || line >= f.LineCount() {
		return ""
	}
	return string(f.Content[f.LineStart(line):f.LineEnd(line)])
}

// OffsetAt converts a position to a byte offset, clamping to the line and the file.
func (f *File) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= f.LineCount() {
		return len(f.Content)
	}
	start, end := f.LineStart(pos.Line), f.LineEnd(pos.Line)
	off := start + max(pos.Character, 0)
	if off > end {
		off = end
	}
	return off
}

// PositionAt converts a byte offset to a position, clamping to the file.
func (f *File) PositionAt(offset int) Position {
	if offset <= 0 {
		return Position{}
	}
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	off := safeOffset(offset)
	line := sort.Search(len(f.LineIdx), func(i int) bool { return f.LineIdx[i] >= off })
	return Position{Line: line, Character: offset - f.LineStart(line)}
}

// Text returns the content covered by r.
func (f *File) Text(r Range) string {
	start, end := f.OffsetAt(r.Start), f.OffsetAt(r.End)
	if end < start {
		return ""
	}
	return string(f.Content[start:end])
}

// End returns the position just past the last character.
func (f *File) End() Position {
	last := f.LineCount() - 1
	return Position{Line: last, Character: f.LineEnd(last) - f.LineStart(last)}
}

// EOL reports the line terminator the file used on disk.
func (f *File) EOL() string {
	if f.Flags&FileNormalizedCRLF != 0 {
		return "\r\n"
	}
	return "\n"
}

func (f *File) String() string {
	return string(f.Content)
}
