package resolve

import (
	"strings"

	"fracas/internal/source"
	"fracas/internal/syntax"
)

var (
	commentRx     = syntax.MustCompile(syntax.Comment)
	lineCommentRx = syntax.MustCompile(`^\s*` + syntax.Comment)
)

// FindComment returns the documentation of the line at pos: its trailing
// comment, preceded by the run of full-line comments directly above it.
// Blank lines do not end the run.
func (r *Resolver) FindComment(path string, pos source.Position) string {
	f, err := r.load(path)
	if err != nil {
		return ""
	}
	return commentAt(f, pos.Line)
}

func commentAt(f *source.File, line int) string {
	comment := ""
	if m, err := commentRx.Find(f.Line(line)); err == nil && m != nil {
		comment = m.Group(1).Text
	}
	for ln := line - 1; ln >= 0; ln-- {
		text := f.Line(ln)
		m, err := lineCommentRx.Find(text)
		if err == nil && m != nil {
			comment = m.Group(1).Text + "\n" + comment
			continue
		}
		if strings.TrimSpace(text) != "" {
			break
		}
	}
	return comment
}
