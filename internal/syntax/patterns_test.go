package syntax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func groupTexts(t *testing.T, pattern, text string) [][]string {
	t.Helper()
	re, err := Compile(pattern)
	if err != nil {
		t.Fatalf("compile %q: %v", pattern, err)
	}
	matches, err := re.FindAll(text)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	var out [][]string
	for _, m := range matches {
		var groups []string
		for _, g := range m.Groups[1:] {
			groups = append(groups, g.Text)
		}
		out = append(out, groups)
	}
	return out
}

func TestAnyDefine(t *testing.T) {
	text := "(define-type range-int\n" +
		"  ((min int) (max int)))\n" +
		"(define-syntax-rule (when-alive x) x)\n" +
		"(define-list spawn-points (list))\n" +
		"(define x)\n" +
		"[struct vec2 (x y)]\n"
	got := groupTexts(t, AnyDefine(), text)
	want := [][]string{
		{"define-type", "range-int"},
		{"define-syntax-rule", "when-alive"},
		{"define-list", "spawn-points"},
		{"struct", "vec2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("AnyDefine mismatch (-want +got):\n%s", diff)
	}
}

func TestAnyDefineSymbol(t *testing.T) {
	text := "(define-type range-int\n(define-type range-int-ex\n(define-variant ranged (a))\n"

	got := groupTexts(t, AnyDefineSymbol("range-int", WholeMatch), text)
	if diff := cmp.Diff([][]string{{"define-type", "range-int"}}, got); diff != "" {
		t.Fatalf("whole (-want +got):\n%s", diff)
	}

	got = groupTexts(t, AnyDefineSymbol("range", PartialMatch), text)
	want := [][]string{
		{"define-type", "range-int"},
		{"define-type", "range-int-ex"},
		{"define-variant", "ranged"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("partial (-want +got):\n%s", diff)
	}

	got = groupTexts(t, DefinePartialSymbol("int"), text)
	if len(got) != 2 {
		t.Fatalf("DefinePartialSymbol found %v", got)
	}
}

func TestAnySymbol(t *testing.T) {
	re := MustCompile(AnySymbol("foo-bar"))
	matches, err := re.FindAll("(foo-bar foo-bar-baz xfoo-bar #:foo-bar)")
	if err != nil {
		t.Fatal(err)
	}
	var starts []int
	for _, m := range matches {
		starts = append(starts, m.Start)
	}
	if diff := cmp.Diff([]int{1, 32}, starts); diff != "" {
		t.Fatalf("starts (-want +got):\n%s", diff)
	}
}

func TestVariantOption(t *testing.T) {
	text := "(define-variant action\n  (block-targeted: x)\n  (targeted-self: y))"

	re := MustCompile(VariantOption("action-block-targeted", WholeMatch))
	m, err := re.Find(text)
	if err != nil || m == nil {
		t.Fatalf("whole: %v, %v", m, err)
	}
	if g := m.Group(1); g.Text != "block-targeted" {
		t.Fatalf("group 1 = %q", g.Text)
	}

	re = MustCompile(VariantOption("action-targ", PartialMatch))
	all, err := re.FindAll(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("partial matches = %d, want 1", len(all))
	}
	last := all[0].Groups[len(all[0].Groups)-1]
	if all[0].Group(1).Text != "targ" || last.Text != "eted-self" {
		t.Fatalf("partial groups = %+v", all[0].Groups)
	}

	// dangling hyphens and single crumbs must still build a valid pattern
	for _, q := range []string{"-", "action-", "-action", "solo"} {
		if _, err := Compile(VariantOption(q, WholeMatch)); err != nil {
			t.Errorf("VariantOption(%q): %v", q, err)
		}
	}
}

func TestMemberDeclaration(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		ident string
		sk    SearchKind
		text  string
		want  [][]string
	}{
		{"field whole", KindType, "max", WholeMatch, "(max int #:default 1", [][]string{{"max"}}},
		{"field partial", KindType, "max", PartialMatch, "(max-targets int", [][]string{{"max-targets"}}},
		{"any field", KindGameData, "", WholeMatch, "  (speed float", [][]string{{"speed"}}},
		{"field not define", KindType, "", WholeMatch, "(define-thing x", nil},
		{"named param", KindDefine, "", WholeMatch, "(spawn #:count n #:delay d", [][]string{{"count"}, {"delay"}}},
		{"named param partial", KindDefine, "de", PartialMatch, "(spawn #:count n #:delay d", [][]string{{"delay"}}},
		{"key identifier", KindKey, "", PartialMatch, "(alpha beta", [][]string{{"alpha"}, {"beta"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := groupTexts(t, MemberDeclaration(tt.kind, tt.ident, tt.sk), tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestImportAndProvidePatterns(t *testing.T) {
	got := groupTexts(t, ImportExpression(), "(import+export fracas/utils\n  abilities)\n(import unreal)")
	want := [][]string{{"fracas/utils\n  abilities"}, {"unreal"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("imports (-want +got):\n%s", diff)
	}

	re := MustCompile(ProvideKeyword())
	if ok, _ := re.MatchString("(provided x)"); ok {
		t.Fatal("provide must be a whole word")
	}
	if ok, _ := re.MatchString("( provide x)"); !ok {
		t.Fatal("expected provide to match")
	}

	got = groupTexts(t, ProvidedExpression, "(except-out (all-defined-out)\n  a b)")
	if len(got) != 1 || got[0][1] != "a b" {
		t.Fatalf("except-out = %q", got)
	}
}

func TestAnyMaskOrEnum(t *testing.T) {
	got := groupTexts(t, AnyMaskOrEnum(), "(targets (mask damage-flags fire ice) (enum team red))")
	want := [][]string{{"mask", "damage-flags"}, {"enum", "team"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestSymbolsMatch(t *testing.T) {
	tests := []struct {
		name, candidate string
		kind            SearchKind
		want            bool
	}{
		{"fire", "fire", WholeMatch, true},
		{"fir", "fire", WholeMatch, false},
		{"fir", "fire", PartialMatch, true},
		{"", "fire", PartialMatch, true},
		{"", "fire", WholeMatch, false},
		{"ice", "fire", PartialMatch, false},
	}
	for _, tt := range tests {
		if got := SymbolsMatch(tt.name, tt.candidate, tt.kind); got != tt.want {
			t.Errorf("SymbolsMatch(%q, %q, %s) = %v", tt.name, tt.candidate, tt.kind, got)
		}
	}
}
