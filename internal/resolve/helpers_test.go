package resolve

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fracas/internal/project"
	"fracas/internal/search"
	"fracas/internal/source"
)

const typesFixture = `;; Integer bounds.
(define-type range-int ; inclusive
  ((min int)
   (max int)))

(define-mask damage-flags
  (fire
   ice ; cold
   (poison #:stacks 3)))

(define-enum color
  (red
   green))

(define-variant action
  (block-targeted: ((radius int)))
  (movement: ((speed int))))
`

const usageFixture = `(import types)
(provide (except-out (all-defined-out)
                     ; internal
                     helper))

(define helper (range-int: #:min 1 #:max 2))
(define damage (mask damage-flags ))
(define hit (action-block-targeted: #:radius 3))
(define min 0)
`

type fixture struct {
	root  string
	files *source.FileSet
	r     *Resolver
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	fs := source.NewFileSet()
	engine := search.NewEngine(fs, project.NewFilter(root, project.SearchConfig{Extension: ".frc"}), nil)
	return &fixture{
		root:  root,
		files: fs,
		r:     New(Config{Root: root, Files: fs, Search: engine}),
	}
}

func defaultFixture(t *testing.T) *fixture {
	return newFixture(t, map[string]string{"types.frc": typesFixture, "usage.frc": usageFixture})
}

func (fx *fixture) path(rel string) string {
	return filepath.Join(fx.root, filepath.FromSlash(rel))
}

func (fx *fixture) file(t *testing.T, rel string) *source.File {
	t.Helper()
	f, err := fx.files.Load(fx.path(rel))
	if err != nil {
		t.Fatalf("load %s: %v", rel, err)
	}
	return f
}

// at returns the position of the n-th byte of needle inside f.
func at(t *testing.T, f *source.File, needle string, n int) source.Position {
	t.Helper()
	i := strings.Index(f.String(), needle)
	if i < 0 {
		t.Fatalf("%q not found in %s", needle, f.Path)
	}
	return f.PositionAt(i + n)
}

func rangeOf(t *testing.T, f *source.File, needle string) source.Range {
	t.Helper()
	start := at(t, f, needle, 0)
	return source.Range{Start: start, End: source.Position{Line: start.Line, Character: start.Character + len(needle)}}
}

func newTestLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
