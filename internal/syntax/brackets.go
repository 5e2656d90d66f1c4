package syntax

import (
	"strings"

	"fracas/internal/source"
)

// Bracket flavours are interchangeable; "(foo]" closes just fine.

func isOpenBracket(c byte) bool {
	return c == '(' || c == '{' || c == '['
}

func isCloseBracket(c byte) bool {
	return c == ')' || c == '}' || c == ']'
}

// codeOf returns line up to its first ';'.
func codeOf(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func byteAt(f *source.File, pos source.Position) (byte, bool) {
	line := f.Line(pos.Line)
	if pos.Character < 0 || pos.Character >= len(line) {
		return 0, false
	}
	return line[pos.Character], true
}

// FindOpenBracket rewinds from r to the open bracket enclosing it. When r is
// not empty, brackets closed inside r raise the required nesting so that the
// bracket enclosing the whole selection is found. With includeBrackets=false
// the position just after the bracket is returned.
func FindOpenBracket(f *source.File, r source.Range, includeBrackets bool) (source.Position, bool) {
	nesting, minNesting := 0, 0
	if !r.Empty() {
		for ln := r.Start.Line; ln <= r.End.Line; ln++ {
			line := f.Line(ln)
			from, to := 0, len(line)
			if ln == r.Start.Line {
				from = r.Start.Character
			}
			if ln == r.End.Line {
				to = min(r.End.Character, len(line))
			}
			for i := from; i < to; i++ {
				c := line[i]
				if c == ';' {
					break
				}
				switch {
				case isOpenBracket(c):
					nesting++
				case isCloseBracket(c):
					nesting--
					minNesting = min(minNesting, nesting)
				}
			}
		}
	}

	// a close bracket under the cursor belongs to the expression we are looking for
	start := r.Start
	if c, ok := byteAt(f, start); ok && isCloseBracket(c) {
		start = f.PositionAt(f.OffsetAt(start) - 1)
	}

	for ln := start.Line; ln >= 0; ln-- {
		code := codeOf(f.Line(ln))
		from := len(code) - 1
		if ln == start.Line {
			from = min(start.Character, from)
		}
		for i := from; i >= 0; i-- {
			c := code[i]
			switch {
			case isOpenBracket(c):
				nesting--
				if nesting < minNesting {
					if includeBrackets {
						return source.Position{Line: ln, Character: i}, true
					}
					return source.Position{Line: ln, Character: i + 1}, true
				}
			case isCloseBracket(c):
				nesting++
			}
		}
	}
	return source.Position{}, false
}

// FindEnclosingExpression returns the range of the expression enclosing r.
// An expression left open at end of file extends to the end of the document.
func FindEnclosingExpression(f *source.File, r source.Range, includeBrackets bool) (source.Range, bool) {
	open, ok := FindOpenBracket(f, r, includeBrackets)
	if !ok {
		return source.Range{}, false
	}
	nesting := 0
	if !includeBrackets {
		nesting = 1
	}
	for ln := open.Line; ln < f.LineCount(); ln++ {
		line := f.Line(ln)
		from := 0
		if ln == open.Line {
			from = open.Character
		}
		for i := from; i < len(line); i++ {
			c := line[i]
			if c == ';' {
				break
			}
			switch {
			case isOpenBracket(c):
				nesting++
			case isCloseBracket(c):
				nesting--
				if nesting <= 0 {
					end := source.Position{Line: ln, Character: i + 1}
					if !includeBrackets {
						end.Character = i
					}
					return source.Range{Start: open, End: end}, true
				}
			}
		}
	}
	return source.Range{Start: open, End: f.End()}, true
}

// RangesAtScope lists the sub-expressions found depth levels inside the
// expression enclosing pos, each as [open bracket, close bracket). Scanning
// stops when the enclosing expression closes.
func RangesAtScope(f *source.File, pos source.Position, depth int) []source.Range {
	start, ok := FindOpenBracket(f, source.Range{Start: pos, End: pos}, false)
	if !ok {
		start = source.Position{}
	}
	top := start
	nesting := 1

	var ranges []source.Range
	for ln := start.Line; ln < f.LineCount(); ln++ {
		line := f.Line(ln)
		from := 0
		if ln == start.Line {
			from = start.Character
		}
		for i := from; i < len(line); i++ {
			c := line[i]
			if c == ';' {
				break
			}
			switch {
			case isOpenBracket(c):
				if nesting == depth {
					top = source.Position{Line: ln, Character: i}
				}
				nesting++
			case isCloseBracket(c):
				nesting--
				if nesting == depth {
					ranges = append(ranges, source.Range{Start: top, End: source.Position{Line: ln, Character: i}})
				}
				if nesting <= 0 {
					return ranges
				}
			}
		}
	}
	return ranges
}

var cursorWord = MustCompile(CursorWord)

// WordRangeAt returns the range of the word under pos, where a word may carry
// the "#:" keyword prefix and a trailing ':'. A cursor right after a word
// still selects it.
func WordRangeAt(f *source.File, pos source.Position) (source.Range, bool) {
	line := f.Line(pos.Line)
	words, err := cursorWord.FindAll(line)
	if err != nil {
		return source.Range{}, false
	}
	for _, w := range words {
		if w.Start <= pos.Character && pos.Character <= w.End {
			return source.Range{
				Start: source.Position{Line: pos.Line, Character: w.Start},
				End:   source.Position{Line: pos.Line, Character: w.End},
			}, true
		}
	}
	return source.Range{}, false
}

// WordAt returns the text of the word under pos, optionally without a
// trailing ':' (constructor heads are written "name:").
func WordAt(f *source.File, pos source.Position, stripColon bool) string {
	r, ok := WordRangeAt(f, pos)
	if !ok {
		return ""
	}
	word := f.Text(r)
	if stripColon {
		word = strings.TrimSuffix(word, ":")
	}
	return word
}

// IsCommentedOut reports whether a ';' precedes pos on its line.
func IsCommentedOut(f *source.File, pos source.Position) bool {
	line := f.Line(pos.Line)
	return strings.IndexByte(line[:max(0, min(pos.Character, len(line)))], ';') >= 0
}
