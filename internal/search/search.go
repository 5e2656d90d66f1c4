// Package search runs regular expressions over every source file of a project.
package search

import (
	"context"

	"fracas/internal/source"
)

// Searcher is the project-wide text search the resolver is built on.
type Searcher interface {
	FindTextInFiles(ctx context.Context, pattern string, scope Scope) ([]TextMatch, error)
}

// Scope restricts a search to the given files; empty means every project file.
type Scope struct {
	Paths []string
}

// All searches the whole project.
var All = Scope{}

// File restricts a search to a single file.
func File(path string) Scope {
	return Scope{Paths: []string{path}}
}

// Capture is one capture group of a TextMatch.
type Capture struct {
	Text    string
	Range   source.Range
	Matched bool
}

// TextMatch is a single pattern match in a file.
type TextMatch struct {
	Path    string
	Preview string       // full text of the lines spanned by the match
	Range   source.Range // whole match
	Groups  []Capture    // Groups[0] is the whole match
}

// Group returns capture i, or an unmatched capture when out of range.
func (m TextMatch) Group(i int) Capture {
	if i < 0 || i >= len(m.Groups) {
		return Capture{}
	}
	return m.Groups[i]
}

// Location returns the location of the whole match.
func (m TextMatch) Location() source.Location {
	return source.Location{Path: m.Path, Range: m.Range}
}
