package lsp

import (
	"unicode/utf8"

	"fracas/internal/source"
)

// utf16Units returns how many UTF-16 code units encode r.
func utf16Units(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

// toSourcePosition converts a UTF-16 client position into a byte position,
// clamping to the line and the file.
func toSourcePosition(file *source.File, pos position) source.Position {
	if pos.Line < 0 {
		return source.Position{}
	}
	if pos.Line >= file.LineCount() {
		return file.End()
	}
	line := file.Content[file.LineStart(pos.Line):file.LineEnd(pos.Line)]
	units, off := 0, 0
	for off < len(line) && units < pos.Character {
		r, size := utf8.DecodeRune(line[off:])
		need := utf16Units(r)
		if units+need > pos.Character {
			break
		}
		units += need
		off += size
	}
	return source.Position{Line: pos.Line, Character: off}
}

// toLSPPosition converts a byte position into UTF-16 units.
func toLSPPosition(file *source.File, pos source.Position) position {
	if file == nil {
		return position{Line: pos.Line, Character: pos.Character}
	}
	offset := file.OffsetAt(pos)
	start := file.LineStart(pos.Line)
	if pos.Line >= file.LineCount() {
		p := file.End()
		start = file.LineStart(p.Line)
		pos = p
	}
	units := 0
	for off := start; off < offset; {
		r, size := utf8.DecodeRune(file.Content[off:offset])
		units += utf16Units(r)
		off += size
	}
	return position{Line: pos.Line, Character: units}
}

func toLSPRange(file *source.File, r source.Range) lspRange {
	return lspRange{Start: toLSPPosition(file, r.Start), End: toLSPPosition(file, r.End)}
}
