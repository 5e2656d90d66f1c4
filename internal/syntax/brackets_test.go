package syntax

import (
	"testing"

	"fracas/internal/source"
)

func pos(line, char int) source.Position {
	return source.Position{Line: line, Character: char}
}

func at(p source.Position) source.Range {
	return source.Range{Start: p, End: p}
}

func span(sl, sc, el, ec int) source.Range {
	return source.Range{Start: pos(sl, sc), End: pos(el, ec)}
}

func virtual(t *testing.T, text string) *source.File {
	t.Helper()
	return source.NewFileSet().AddVirtual(t.Name()+".frc", []byte(text))
}

// Unbalanced brackets in comments must not affect matching.
const commentedBrackets = "(define-type foo ; stray )\n" +
	"  ((a int) ; stray (\n" +
	"   (b int)))"

func TestFindOpenBracketIgnoresComments(t *testing.T) {
	f := virtual(t, commentedBrackets)

	tests := []struct {
		name    string
		r       source.Range
		include bool
		want    source.Position
	}{
		{"inside field", at(pos(1, 4)), true, pos(1, 3)},
		{"on close bracket", at(pos(2, 10)), true, pos(1, 2)},
		{"define head", at(pos(0, 1)), true, pos(0, 0)},
		{"exclude bracket", at(pos(2, 4)), false, pos(2, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindOpenBracket(f, tt.r, tt.include)
			if !ok {
				t.Fatalf("no open bracket found")
			}
			if got != tt.want {
				t.Fatalf("FindOpenBracket = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindEnclosingExpressionIgnoresComments(t *testing.T) {
	f := virtual(t, commentedBrackets)

	got, ok := FindEnclosingExpression(f, at(pos(0, 1)), true)
	if !ok || got != span(0, 0, 2, 12) {
		t.Fatalf("included = %v, %v; want %v", got, ok, span(0, 0, 2, 12))
	}
	got, ok = FindEnclosingExpression(f, at(pos(0, 1)), false)
	if !ok || got != span(0, 1, 2, 11) {
		t.Fatalf("excluded = %v, %v; want %v", got, ok, span(0, 1, 2, 11))
	}
	got, ok = FindEnclosingExpression(f, at(pos(1, 4)), true)
	if !ok || f.Text(got) != "(a int)" {
		t.Fatalf("field expression = %q", f.Text(got))
	}
}

func TestFindOpenBracketSelection(t *testing.T) {
	// selecting "i)(h" inside ( (hi)(ho) ) lands on the outermost bracket
	f := virtual(t, "( (hi)(ho) )")
	got, ok := FindOpenBracket(f, span(0, 4, 0, 8), true)
	if !ok || got != pos(0, 0) {
		t.Fatalf("FindOpenBracket = %v, %v; want 0:0", got, ok)
	}
}

func TestFindOpenBracketMixedFlavoursAndMissing(t *testing.T) {
	f := virtual(t, "[a (b c} d)")
	got, ok := FindOpenBracket(f, at(pos(0, 9)), true)
	if !ok || got != pos(0, 0) {
		t.Fatalf("mixed = %v, %v; want 0:0", got, ok)
	}

	f = virtual(t, "plain text")
	if _, ok := FindOpenBracket(f, at(pos(0, 3)), true); ok {
		t.Fatal("expected no bracket in plain text")
	}
}

func TestFindEnclosingExpressionUnterminated(t *testing.T) {
	f := virtual(t, "(define x\n  (y")
	got, ok := FindEnclosingExpression(f, at(pos(0, 2)), true)
	if !ok || got != span(0, 0, 1, 4) {
		t.Fatalf("unterminated = %v, %v; want to end of document", got, ok)
	}
}

func TestRangesAtScope(t *testing.T) {
	f := virtual(t, commentedBrackets)
	ranges := RangesAtScope(f, pos(0, 13), KindType.MemberScopeDepth())
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %v", ranges)
	}
	if got := f.Text(ranges[0]); got != "(a int" {
		t.Errorf("first range = %q", got)
	}
	if got := f.Text(ranges[1]); got != "(b int" {
		t.Errorf("second range = %q", got)
	}
}

func TestRangesAtScopeStopsAtDefinitionEnd(t *testing.T) {
	f := virtual(t, "(define-variant v\n  (one: a)\n  (two: b))\n(define-variant w (three: c))")
	ranges := RangesAtScope(f, pos(0, 16), KindVariant.MemberScopeDepth())
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %v", ranges)
	}
	if got := f.Text(ranges[1]); got != "(two: b" {
		t.Errorf("second range = %q", got)
	}
}

func TestWordAt(t *testing.T) {
	f := virtual(t, "(targeting-data: #:max-targets 3) ; note")
	tests := []struct {
		p     source.Position
		strip bool
		want  string
	}{
		{pos(0, 3), true, "targeting-data"},
		{pos(0, 3), false, "targeting-data:"},
		{pos(0, 20), false, "#:max-targets"},
		{pos(0, 1), false, "targeting-data:"},
		{pos(0, 33), false, ""},
	}
	for _, tt := range tests {
		if got := WordAt(f, tt.p, tt.strip); got != tt.want {
			t.Errorf("WordAt(%v, %v) = %q, want %q", tt.p, tt.strip, got, tt.want)
		}
	}
	if !IsCommentedOut(f, pos(0, 38)) || IsCommentedOut(f, pos(0, 10)) {
		t.Error("IsCommentedOut mismatch")
	}
}
