package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fracas/internal/search"
	"fracas/internal/source"
	"fracas/internal/syntax"
)

func TestFindDefinitionRangeIsIdentifierOnly(t *testing.T) {
	fx := defaultFixture(t)
	usage := fx.file(t, "usage.frc")
	types := fx.file(t, "types.frc")

	defs, err := fx.r.FindDefinition(context.Background(), usage, at(t, usage, "range-int:", 3), syntax.WholeMatch)
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}
	want := []Definition{{
		Location: source.Location{Path: types.Path, Range: rangeOf(t, types, "range-int")},
		Symbol:   "range-int",
		Kind:     syntax.KindType,
	}}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Fatalf("definition (-want +got):\n%s", diff)
	}
	if got := types.Text(defs[0].Location.Range); got != "range-int" || len(got) != 9 {
		t.Fatalf("range covers %q", got)
	}
}

func TestFindDefinitionKeywordTierWins(t *testing.T) {
	fx := defaultFixture(t)
	usage := fx.file(t, "usage.frc")
	types := fx.file(t, "types.frc")

	// "(define min 0)" would satisfy the plain symbol tier
	defs, err := fx.r.FindDefinition(context.Background(), usage, at(t, usage, "#:min", 3), syntax.WholeMatch)
	if err != nil {
		t.Fatal(err)
	}
	want := []Definition{{
		Location: source.Location{Path: types.Path, Range: rangeOf(t, types, "min")},
		Symbol:   "min",
		Kind:     syntax.KindKeyword,
	}}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Fatalf("keyword definition (-want +got):\n%s", diff)
	}

	// outside a keyword the define is found
	defs, err = fx.r.FindDefinition(context.Background(), usage, at(t, usage, "define min", 8), syntax.WholeMatch)
	if err != nil || len(defs) != 1 || defs[0].Kind != syntax.KindDefine {
		t.Fatalf("plain min = %v, %v", defs, err)
	}
}

func TestFindDefinitionKeywordOfVariantOption(t *testing.T) {
	fx := defaultFixture(t)
	usage := fx.file(t, "usage.frc")
	types := fx.file(t, "types.frc")

	defs, err := fx.r.FindDefinition(context.Background(), usage, at(t, usage, "#:radius", 4), syntax.WholeMatch)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 || defs[0].Symbol != "radius" || defs[0].Kind != syntax.KindKeyword {
		t.Fatalf("defs = %v", defs)
	}
	if defs[0].Location.Range != rangeOf(t, types, "radius") {
		t.Fatalf("range = %v", defs[0].Location.Range)
	}
}

func TestFindDefinitionImport(t *testing.T) {
	fx := defaultFixture(t)
	usage := fx.file(t, "usage.frc")

	defs, err := fx.r.FindDefinition(context.Background(), usage, at(t, usage, "types)", 2), syntax.WholeMatch)
	if err != nil {
		t.Fatal(err)
	}
	want := []Definition{{
		Location: source.Location{Path: fx.path("fracas/types.frc")},
		Symbol:   "types",
		Kind:     syntax.KindImport,
	}}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Fatalf("import (-want +got):\n%s", diff)
	}
}

func TestFindDefinitionMaskMember(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"types.frc": typesFixture,
		"use.frc":   "(define d (mask damage-flags ice fire))\n",
	})
	use := fx.file(t, "use.frc")
	types := fx.file(t, "types.frc")

	defs, err := fx.r.FindDefinition(context.Background(), use, at(t, use, "ice", 1), syntax.WholeMatch)
	if err != nil {
		t.Fatal(err)
	}
	want := []Definition{{
		Location: source.Location{Path: types.Path, Range: rangeOf(t, types, "ice")},
		Symbol:   "ice",
		Kind:     syntax.KindMaskMember,
	}}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Fatalf("member (-want +got):\n%s", diff)
	}

	// the type name itself resolves to the mask definition
	defs, err = fx.r.FindDefinition(context.Background(), use, at(t, use, "damage-flags", 2), syntax.WholeMatch)
	if err != nil || len(defs) != 1 || defs[0].Kind != syntax.KindMask {
		t.Fatalf("mask = %v, %v", defs, err)
	}
}

func TestFindDefinitionNothingUnderCursor(t *testing.T) {
	fx := defaultFixture(t)
	usage := fx.file(t, "usage.frc")
	defs, err := fx.r.FindDefinition(context.Background(), usage, source.Position{Line: 4, Character: 0}, syntax.WholeMatch)
	if err != nil || len(defs) != 0 {
		t.Fatalf("blank line = %v, %v", defs, err)
	}
}

func TestFindSymbolDefinitionTrimsHyphens(t *testing.T) {
	fx := defaultFixture(t)
	defs, err := fx.r.FindSymbolDefinition(context.Background(), "-color-", syntax.WholeMatch)
	if err != nil || len(defs) != 1 || defs[0].Kind != syntax.KindEnum {
		t.Fatalf("defs = %v, %v", defs, err)
	}
	if defs, _ := fx.r.FindSymbolDefinition(context.Background(), "-", syntax.PartialMatch); defs != nil {
		t.Fatalf("empty name should not search, got %v", defs)
	}
}

type stubSearcher struct {
	matches []search.TextMatch
	err     error
}

func (s stubSearcher) FindTextInFiles(context.Context, string, search.Scope) ([]search.TextMatch, error) {
	return s.matches, s.err
}

func TestFindDefinitionSearchFailures(t *testing.T) {
	f := source.NewFileSet().AddVirtual("/p/a.frc", []byte("(define x (y))\n"))
	pos := source.Position{Line: 0, Character: 11}

	r := New(Config{Root: "/p", Search: stubSearcher{err: errors.New("disk on fire")}})
	defs, err := r.FindDefinition(context.Background(), f, pos, syntax.WholeMatch)
	if err != nil || len(defs) != 0 {
		t.Fatalf("searcher failure should read as no results: %v, %v", defs, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r = New(Config{Root: "/p", Search: stubSearcher{err: context.Canceled}})
	if _, err := r.FindDefinition(ctx, f, pos, syntax.WholeMatch); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFindDefinitionDegradedCapture(t *testing.T) {
	var logs strings.Builder
	raw := source.Range{End: source.Position{Character: 9}}
	r := New(Config{
		Root:   "/p",
		Logger: newTestLogger(&logs),
		Search: stubSearcher{matches: []search.TextMatch{{
			Path:    "/p/a.frc",
			Preview: "(define ?",
			Range:   raw,
			Groups:  []search.Capture{{Text: "(define ?", Range: raw, Matched: true}},
		}}},
	})
	defs, err := r.FindSymbolDefinition(context.Background(), "y", syntax.WholeMatch)
	if err != nil {
		t.Fatal(err)
	}
	want := []Definition{{Location: source.Location{Path: "/p/a.frc", Range: raw}, Symbol: "(define ?", Kind: syntax.KindDefine}}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Fatalf("degraded (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "failed to extract symbol name") {
		t.Fatalf("expected a warning, got %q", logs.String())
	}
}

func TestFindEnclosingDefine(t *testing.T) {
	fx := defaultFixture(t)
	types := fx.file(t, "types.frc")

	def, ok := fx.r.FindEnclosingDefine(types, at(t, types, "movement:", 0))
	if !ok || def.Symbol != "action" || def.Kind != syntax.KindVariant {
		t.Fatalf("enclosing = %v, %v", def, ok)
	}
	if _, ok := fx.r.FindEnclosingDefine(types, source.Position{Line: 0, Character: 5}); ok {
		t.Fatal("nothing encloses the header comment")
	}
}
