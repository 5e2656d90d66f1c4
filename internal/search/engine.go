package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"fracas/internal/project"
	"fracas/internal/source"
	"fracas/internal/syntax"
	"fracas/internal/trace"
)

// Engine searches the files of one project, reading through a shared
// FileSet so that unsaved editor buffers are searched too.
type Engine struct {
	files  *source.FileSet
	filter *project.Filter
	logger *slog.Logger
	limit  int
}

// NewEngine creates an engine over the project described by filter.
func NewEngine(files *source.FileSet, filter *project.Filter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		files:  files,
		filter: filter,
		logger: logger,
		limit:  runtime.GOMAXPROCS(0),
	}
}

// Files returns every project source file: the files on disk plus open
// editor buffers that belong to the project but were never saved.
func (e *Engine) Files(ctx context.Context) ([]string, error) {
	paths, err := project.Discover(ctx, e.filter)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		seen[p] = struct{}{}
	}
	added := false
	for _, p := range e.files.Overlays() {
		if _, ok := seen[p]; ok || !e.filter.Match(p) {
			continue
		}
		paths = append(paths, p)
		added = true
	}
	if added {
		sort.Strings(paths)
	}
	return paths, nil
}

// FindTextInFiles runs pattern over every file in scope. Results are sorted
// by path, then by offset. Files that cannot be read are skipped.
func (e *Engine) FindTextInFiles(ctx context.Context, pattern string, scope Scope) ([]TextMatch, error) {
	ctx, span := trace.Start(ctx, trace.ScopeSearch, "search")
	span.WithExtra("pattern", pattern)
	defer span.End("")

	re, err := syntax.Compile(pattern)
	if err != nil {
		return nil, err
	}

	paths := scope.Paths
	if len(paths) == 0 {
		paths, err = e.Files(ctx)
		if err != nil {
			return nil, fmt.Errorf("list project files: %w", err)
		}
	}

	perFile := make([][]TextMatch, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := e.files.Load(path)
			if err != nil {
				e.logger.Warn("search: skipping unreadable file", "path", path, "err", err)
				return nil
			}
			matches, err := searchFile(re, f)
			if err != nil {
				e.logger.Warn("search: match failed", "path", path, "pattern", pattern, "err", err)
				return nil
			}
			perFile[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("search %q: %w", pattern, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []TextMatch
	order := make([]int, len(paths))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return paths[order[a]] < paths[order[b]] })
	for _, i := range order {
		out = append(out, perFile[i]...)
	}
	span.WithExtra("matches", strconv.Itoa(len(out)))
	return out, nil
}

func searchFile(re *syntax.Regexp, f *source.File) ([]TextMatch, error) {
	content := string(f.Content)
	matches, err := re.FindAll(content)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	out := make([]TextMatch, 0, len(matches))
	for _, m := range matches {
		r := source.Range{Start: f.PositionAt(m.Start), End: f.PositionAt(m.End)}
		tm := TextMatch{
			Path:    f.Path,
			Preview: preview(f, r),
			Range:   r,
			Groups:  make([]Capture, len(m.Groups)),
		}
		for i, g := range m.Groups {
			if !g.Matched {
				continue
			}
			tm.Groups[i] = Capture{
				Text:    g.Text,
				Range:   source.Range{Start: f.PositionAt(g.Start), End: f.PositionAt(g.End)},
				Matched: true,
			}
		}
		out = append(out, tm)
	}
	return out, nil
}

func preview(f *source.File, r source.Range) string {
	lines := make([]string, 0, r.End.Line-r.Start.Line+1)
	for ln := r.Start.Line; ln <= r.End.Line; ln++ {
		lines = append(lines, f.Line(ln))
	}
	return strings.Join(lines, "\n")
}
