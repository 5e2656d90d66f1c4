package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fracas/internal/search"
	"fracas/internal/source"
	"fracas/internal/syntax"
)

func TestQualifiedVariantOptionRoundTrip(t *testing.T) {
	fx := defaultFixture(t)
	usage := fx.file(t, "usage.frc")
	types := fx.file(t, "types.frc")

	// action-block-targeted -> (block-targeted: inside (define-variant action
	defs, err := fx.r.FindDefinition(context.Background(), usage, at(t, usage, "action-block-targeted", 8), syntax.WholeMatch)
	if err != nil {
		t.Fatal(err)
	}
	want := []Definition{{
		Location: source.Location{Path: types.Path, Range: rangeOf(t, types, "block-targeted")},
		Symbol:   "action-block-targeted",
		Kind:     syntax.KindVariantOption,
	}}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Fatalf("variant option (-want +got):\n%s", diff)
	}

	// references from the option inside the variant also find the qualified spelling
	locs, err := fx.r.FindReferences(context.Background(), types, at(t, types, "block-targeted", 2))
	if err != nil {
		t.Fatal(err)
	}
	wantLocs := []source.Location{
		{Path: types.Path, Range: rangeOf(t, types, "block-targeted")},
		{Path: usage.Path, Range: rangeOf(t, usage, "action-block-targeted")},
	}
	if diff := cmp.Diff(wantLocs, locs); diff != "" {
		t.Fatalf("references (-want +got):\n%s", diff)
	}
}

func TestVariantOptionRequiresMatchingVariant(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"a.frc": "(define-variant targeting\n  (saved-actor: ()))\n(define-type other\n  ((saved-actor int)))\n",
	})

	defs, err := fx.r.FindVariantOptionDefinition(context.Background(), "targeting-saved-actor", syntax.WholeMatch)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 || defs[0].Location.Range.Start.Line != 1 {
		t.Fatalf("defs = %v", defs)
	}

	for _, q := range []string{"other-saved-actor", "saved-actor", ""} {
		defs, err := fx.r.FindVariantOptionDefinition(context.Background(), q, syntax.WholeMatch)
		if err != nil || len(defs) != 0 {
			t.Errorf("%q: defs = %v, err = %v", q, defs, err)
		}
	}
}

// cancelAfter reports a live context n times through Err, then cancels.
type cancelAfter struct {
	context.Context
	cancel context.CancelFunc
	n      int
}

func (c *cancelAfter) Err() error {
	if c.n == 0 {
		c.cancel()
	} else {
		c.n--
	}
	return c.Context.Err()
}

// fixedSearcher replays matches collected up front and ignores ctx.
type fixedSearcher []search.TextMatch

func (s fixedSearcher) FindTextInFiles(context.Context, string, search.Scope) ([]search.TextMatch, error) {
	return s, nil
}

func TestVariantOptionCancelledMidway(t *testing.T) {
	files := make(map[string]string)
	for i := range 4 {
		files[fmt.Sprintf("v%d.frc", i)] = "(define-variant targeting\n  (saved-actor: ()))\n"
	}
	fx := newFixture(t, files)
	matches, err := fx.r.searcher.FindTextInFiles(context.Background(), syntax.VariantOption("targeting-saved-actor", syntax.WholeMatch), search.All)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 4 {
		t.Fatalf("matches = %d", len(matches))
	}
	r := New(Config{Root: fx.root, Files: fx.files, Search: fixedSearcher(matches)})

	base, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx := &cancelAfter{Context: base, cancel: cancel, n: 2}
	defs, err := r.FindVariantOptionDefinition(ctx, "targeting-saved-actor", syntax.WholeMatch)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if defs != nil {
		t.Fatalf("partial definitions returned: %v", defs)
	}
	if ctx.n != 0 {
		t.Fatalf("cancelled before the candidate loop, %d checks left", ctx.n)
	}

	// the same candidates resolve fully without cancellation
	defs, err = r.FindVariantOptionDefinition(context.Background(), "targeting-saved-actor", syntax.WholeMatch)
	if err != nil || len(defs) != 4 {
		t.Fatalf("defs = %v, err = %v", defs, err)
	}
}

func TestVariantOptionPartial(t *testing.T) {
	fx := defaultFixture(t)
	defs, err := fx.r.FindVariantOptionDefinition(context.Background(), "action-mov", syntax.PartialMatch)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 || defs[0].Symbol != "action-movement" {
		t.Fatalf("defs = %v", defs)
	}
}

func TestFindReferencesOutsideVariant(t *testing.T) {
	fx := defaultFixture(t)
	types := fx.file(t, "types.frc")
	usage := fx.file(t, "usage.frc")

	locs, err := fx.r.FindReferences(context.Background(), usage, at(t, usage, "damage-flags", 0))
	if err != nil {
		t.Fatal(err)
	}
	want := []source.Location{
		{Path: types.Path, Range: rangeOf(t, types, "damage-flags")},
		{Path: usage.Path, Range: rangeOf(t, usage, "damage-flags")},
	}
	if diff := cmp.Diff(want, locs); diff != "" {
		t.Fatalf("references (-want +got):\n%s", diff)
	}
}
