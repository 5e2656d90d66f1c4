package syntax

import "testing"

func TestMemberScopeDepthIsFixedPerKind(t *testing.T) {
	want := map[Kind]int{
		KindEnum:          1,
		KindEnumMember:    2,
		KindGameData:      2,
		KindKey:           1,
		KindText:          1,
		KindMask:          1,
		KindMaskMember:    2,
		KindTypeOptional:  2,
		KindType:          2,
		KindVariant:       1,
		KindVariantOption: 2,
		KindSyntax:        1,
		KindDefine:        0,
		KindKeyword:       2,
		KindImport:        0,
	}
	if len(want) != len(Kinds)-1 {
		t.Fatalf("table covers %d kinds, have %d defined", len(want), len(Kinds)-1)
	}
	for kind, depth := range want {
		// repeated calls must agree, nothing depends on input
		for range 3 {
			if got := kind.MemberScopeDepth(); got != depth {
				t.Errorf("%s.MemberScopeDepth() = %d, want %d", kind, got, depth)
			}
		}
	}
	if got := KindUnknown.MemberScopeDepth(); got != 2 {
		t.Errorf("unknown.MemberScopeDepth() = %d, want 2", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  Kind
	}{
		{"define-enum", KindEnum},
		{"define-game-data", KindGameData},
		{"define-key", KindKey},
		{"define-text", KindText},
		{"define-string-table", KindText},
		{"define-mask", KindMask},
		{"define-type-optional", KindTypeOptional},
		{"define-syntax", KindSyntax},
		{"define-syntax-rule", KindSyntax},
		{"define-type", KindType},
		{"struct", KindType},
		{"define-variant", KindVariant},
		{"define", KindDefine},
		{"define-list", KindDefine},
		{"import", KindImport},
		{"import+export", KindImport},
		{"lambda", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.token); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.token, got, tt.want)
		}
	}
}

func TestKindTables(t *testing.T) {
	tests := []struct {
		kind       Kind
		member     Kind
		completion CompletionItemKind
		symbol     SymbolKind
	}{
		{KindEnum, KindEnumMember, CompletionEnum, SymbolEnum},
		{KindEnumMember, KindKeyword, CompletionEnumMember, SymbolEnumMember},
		{KindGameData, KindKeyword, CompletionModule, SymbolModule},
		{KindKey, KindKeyword, CompletionVariable, SymbolVariable},
		{KindText, KindKeyword, CompletionVariable, SymbolVariable},
		{KindMask, KindMaskMember, CompletionEnum, SymbolEnum},
		{KindMaskMember, KindKeyword, CompletionEnumMember, SymbolEnumMember},
		{KindTypeOptional, KindKeyword, CompletionStruct, SymbolStruct},
		{KindType, KindKeyword, CompletionStruct, SymbolStruct},
		{KindVariant, KindVariantOption, CompletionStruct, SymbolStruct},
		{KindVariantOption, KindKeyword, CompletionStruct, SymbolStruct},
		{KindSyntax, KindKeyword, CompletionUnit, SymbolOperator},
		{KindDefine, KindKeyword, CompletionFunction, SymbolFunction},
		{KindKeyword, KindKeyword, CompletionKeyword, SymbolField},
		{KindImport, KindKeyword, CompletionModule, SymbolFile},
		{KindUnknown, KindKeyword, CompletionUnit, SymbolNull},
	}
	if len(tests) != len(Kinds) {
		t.Fatalf("table covers %d kinds, want %d", len(tests), len(Kinds))
	}
	for _, tt := range tests {
		if got := tt.kind.MemberKind(); got != tt.member {
			t.Errorf("%s.MemberKind() = %s, want %s", tt.kind, got, tt.member)
		}
		if got := tt.kind.CompletionKind(); got != tt.completion {
			t.Errorf("%s.CompletionKind() = %d, want %d", tt.kind, got, tt.completion)
		}
		if got := tt.kind.SymbolKind(); got != tt.symbol {
			t.Errorf("%s.SymbolKind() = %d, want %d", tt.kind, got, tt.symbol)
		}
	}
}

func TestKindStringsAreUnique(t *testing.T) {
	seen := make(map[string]Kind)
	for _, k := range Kinds {
		s := k.String()
		if prev, ok := seen[s]; ok {
			t.Fatalf("%d and %d share name %q", prev, k, s)
		}
		seen[s] = k
	}
}
