// Package resolve answers editor queries about Fracas sources (definitions,
// references, completions, symbols and imports) from raw text. Structure is
// recovered on demand with bracket scans and patterns; nothing is parsed.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"fracas/internal/project"
	"fracas/internal/search"
	"fracas/internal/source"
	"fracas/internal/syntax"
)

// Config wires a Resolver to one workspace.
type Config struct {
	Root               string
	Files              *source.FileSet
	Search             search.Searcher
	Logger             *slog.Logger
	ImportPrefix       string // prepended to bare import names, "fracas/" by default
	Extension          string // source file extension, ".frc" by default
	MinCompletionChars int    // characters typed before type names are completed
	// Warn receives user-facing warnings for failures that a query otherwise
	// swallows, such as a failed project search.
	Warn func(message string)
}

// Resolver runs queries against a single workspace. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	root      string
	files     *source.FileSet
	searcher  search.Searcher
	logger    *slog.Logger
	prefix    string
	extension string
	minChars  int
	warn      func(message string)
}

// New creates a resolver, filling unset options with the project defaults.
func New(cfg Config) *Resolver {
	r := &Resolver{
		root:      cfg.Root,
		files:     cfg.Files,
		searcher:  cfg.Search,
		logger:    cfg.Logger,
		prefix:    cfg.ImportPrefix,
		extension: cfg.Extension,
		minChars:  cfg.MinCompletionChars,
		warn:      cfg.Warn,
	}
	if r.files == nil {
		r.files = source.NewFileSet()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.prefix == "" {
		r.prefix = project.DefaultImportPrefix
	}
	if r.extension == "" {
		r.extension = project.DefaultExtension
	}
	if r.minChars <= 0 {
		r.minChars = project.DefaultMinChars
	}
	return r
}

// Files returns the file set the resolver reads through.
func (r *Resolver) Files() *source.FileSet { return r.files }

// Definition is a located, named and classified symbol. The range covers
// exactly the identifier.
type Definition struct {
	Location source.Location
	Symbol   string
	Kind     syntax.Kind
}

// CompletionKind returns the LSP completion item kind for the definition.
func (d Definition) CompletionKind() syntax.CompletionItemKind { return d.Kind.CompletionKind() }

// SymbolKind returns the LSP symbol kind for the definition.
func (d Definition) SymbolKind() syntax.SymbolKind { return d.Kind.SymbolKind() }

func (d Definition) String() string {
	return d.Location.String() + ": " + d.Kind.String() + " " + d.Symbol
}

// load reads path through the shared file set.
func (r *Resolver) load(path string) (*source.File, error) {
	return r.files.Load(path)
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// search runs a project search. Failures other than cancellation are logged
// and reported as no matches.
func (r *Resolver) search(ctx context.Context, pattern string, scope search.Scope) ([]search.TextMatch, error) {
	if r.searcher == nil {
		return nil, ctx.Err()
	}
	matches, err := r.searcher.FindTextInFiles(ctx, pattern, scope)
	if err != nil {
		if isCancel(err) || ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("resolve: search failed", "pattern", pattern, "err", err)
		r.warnf("Fracas: project search failed: %v", err)
		return nil, nil
	}
	return matches, nil
}

func (r *Resolver) warnf(format string, args ...any) {
	if r.warn != nil {
		r.warn(fmt.Sprintf(format, args...))
	}
}

// findDefinitions turns define-like matches into definitions: group 1 is the
// keyword, group 2 the name.
func (r *Resolver) findDefinitions(ctx context.Context, pattern string, scope search.Scope) ([]Definition, error) {
	matches, err := r.search(ctx, pattern, scope)
	if err != nil {
		return nil, err
	}
	defs := make([]Definition, 0, len(matches))
	for _, m := range matches {
		name := m.Group(2)
		if !name.Matched || name.Text == "" {
			r.logger.Warn("resolve: failed to extract symbol name", "pattern", pattern, "path", m.Path, "text", m.Preview)
			r.warnf("Fracas: could not extract a symbol name in %s", m.Path)
			defs = append(defs, Definition{Location: m.Location(), Symbol: m.Group(0).Text, Kind: syntax.KindDefine})
			continue
		}
		defs = append(defs, Definition{
			Location: source.Location{Path: m.Path, Range: name.Range},
			Symbol:   name.Text,
			Kind:     syntax.Classify(m.Group(1).Text),
		})
	}
	return defs, nil
}

// importDefinition points at the start of the file an import names.
func (r *Resolver) importDefinition(name string) Definition {
	rel := name
	if !strings.HasPrefix(rel, r.prefix) {
		rel = r.prefix + rel
	}
	path := filepath.Join(r.root, filepath.FromSlash(rel)+r.extension)
	return Definition{
		Location: source.Location{Path: path},
		Symbol:   name,
		Kind:     syntax.KindImport,
	}
}

// located is a piece of text found inside a file.
type located struct {
	text string
	rng  source.Range
}

// matchesIn runs re over the text of rng and returns capture group of every
// match in file coordinates.
func matchesIn(f *source.File, rng source.Range, re *syntax.Regexp, group int) ([]located, error) {
	base := f.OffsetAt(rng.Start)
	ms, err := re.FindAll(f.Text(rng))
	if err != nil {
		return nil, err
	}
	out := make([]located, 0, len(ms))
	for i := range ms {
		g := ms[i].Group(group)
		if !g.Matched {
			continue
		}
		out = append(out, located{
			text: g.Text,
			rng:  source.Range{Start: f.PositionAt(base + g.Start), End: f.PositionAt(base + g.End)},
		})
	}
	return out, nil
}

// selectedSymbol returns the selected text, or the word under the cursor
// when the selection is empty.
func selectedSymbol(f *source.File, sel source.Range, stripColon bool) string {
	if sel.Empty() {
		return syntax.WordAt(f, sel.Start, stripColon)
	}
	word := f.Text(sel)
	if stripColon {
		word = strings.TrimSuffix(word, ":")
	}
	return word
}
