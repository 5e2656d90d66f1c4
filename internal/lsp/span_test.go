package lsp

import (
	"strings"
	"testing"

	"fracas/internal/source"
)

func TestUTF16PositionMapping(t *testing.T) {
	src := "(define s \"é🙂\") (define n (range-int: #:min 1))\n(next)\n"
	fs := source.NewFileSet()
	f := fs.AddVirtual("/virtual/main.frc", []byte(src))

	byteCol := strings.Index(src, "range-int")
	want := positionOf(t, src, "range-int", 0)
	if want.Character == byteCol {
		t.Fatalf("fixture has no multi-unit characters")
	}

	got := toLSPPosition(f, source.Position{Line: 0, Character: byteCol})
	if got != want {
		t.Fatalf("toLSPPosition = %+v, want %+v", got, want)
	}
	if back := toSourcePosition(f, want); back != (source.Position{Line: 0, Character: byteCol}) {
		t.Fatalf("toSourcePosition = %+v, want byte column %d", back, byteCol)
	}

	// inside the surrogate pair of the emoji
	emoji := positionOf(t, src, "🙂", 0)
	mid := toSourcePosition(f, position{Line: 0, Character: emoji.Character + 1})
	if mid.Character != strings.Index(src, "🙂") {
		t.Fatalf("mid-surrogate position = %+v", mid)
	}

	if p := toSourcePosition(f, position{Line: 1, Character: 99}); p != (source.Position{Line: 1, Character: len("(next)")}) {
		t.Fatalf("clamped to line end = %+v", p)
	}
	if p := toSourcePosition(f, position{Line: 42}); p != f.End() {
		t.Fatalf("past last line = %+v, want %+v", p, f.End())
	}
}

func TestApplyIncrementalChanges(t *testing.T) {
	text := "(a 🙂 b)\n(c)\n"
	got := applyChanges(text, []textDocumentContentChangeEvent{
		{Range: &lspRange{Start: position{Line: 0, Character: 6}, End: position{Line: 0, Character: 7}}, Text: "x"},
		{Range: &lspRange{Start: position{Line: 1, Character: 1}, End: position{Line: 1, Character: 2}}, Text: "d"},
	})
	if want := "(a 🙂 x)\n(d)\n"; got != want {
		t.Fatalf("applyChanges = %q, want %q", got, want)
	}
	if got := applyChanges(text, []textDocumentContentChangeEvent{{Text: "new"}}); got != "new" {
		t.Fatalf("full replacement = %q", got)
	}
}

func TestURIRoundTrip(t *testing.T) {
	path := source.NormalizePath("/tmp/with space/a.frc")
	uri := pathToURI(path)
	if !strings.HasPrefix(uri, "file:///") || strings.Contains(uri, " ") {
		t.Fatalf("uri = %q", uri)
	}
	if got := uriToPath(uri); got != path {
		t.Fatalf("uriToPath = %q, want %q", got, path)
	}
	if got := uriToPath("untitled:Untitled-1"); got != "" {
		t.Fatalf("non-file uri = %q", got)
	}
}
