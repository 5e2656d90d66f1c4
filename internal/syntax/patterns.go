package syntax

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// SearchKind selects exact or prefix matching of a symbol.
type SearchKind uint8

const (
	// WholeMatch matches the symbol exactly, bounded by non-identifier characters.
	WholeMatch SearchKind = iota
	// PartialMatch matches identifiers starting with the symbol.
	PartialMatch
)

func (k SearchKind) String() string {
	if k == PartialMatch {
		return "partial"
	}
	return "whole"
}

// SymbolsMatch compares a searched name against a candidate identifier.
// A partial search with an empty name matches everything.
func SymbolsMatch(name, candidate string, kind SearchKind) bool {
	if kind == WholeMatch {
		return name == candidate
	}
	return name == "" || strings.HasPrefix(candidate, name)
}

const (
	identChar  = `[A-Za-z0-9_\-*.]`
	identifier = `(` + identChar + `+)`
	openChars  = `[({\[]`
	closeChars = `[)}\]]`

	definitionKeywords = `define-enum|define-game-data|define-key|define-text|define-string-table|` +
		`define-mask|define-type-optional|define-syntax|define-syntax-rule|define-type|struct|` +
		`define-variant|define|define-list`

	// defineHead matches "(define-xxx" up to, but excluding, the defined name.
	defineHead = `(?<=` + openChars + `)\s*(` + definitionKeywords + `)(?!` + identChar + `)\s*` + openChars + `?\s*`
	// symbolEnd rejects a name that continues, or one that immediately closes its form.
	symbolEnd = `(?!` + identChar + `|` + closeChars + `)`
)

// Constant patterns for comments and the body of a (provide ...) form.
const (
	Comment            = `;;?\s*(.*)\s*$`
	ExceptOut          = `\(except-out\s+\(\s*all-defined-out\s*\)`
	ExceptOutExpr      = ExceptOut + `[\s\n]+([^)]+)\)`
	AllDefinedOut      = `\(all-defined-out\)`
	ProvidedExpression = `(` + identChar + `+|` + ExceptOutExpr + `|` + AllDefinedOut + `)`
	Identifier         = identifier
	ImportWord         = `[a-zA-Z\-/]+`
	CursorWord         = `[#:A-Za-z0-9_\-+*.>/]+`
	KeywordPrefix      = "#:"
)

func escape(s string) string {
	return regexp2.Escape(s)
}

// AnySymbol matches s wherever it appears as a complete identifier.
func AnySymbol(s string) string {
	return `(?<!` + identChar + `)(` + escape(s) + `)(?!` + identChar + `)`
}

// AnyDefine matches any definition form; group 1 is the keyword, group 2 the name.
func AnyDefine() string {
	return defineHead + identifier + symbolEnd
}

// AnyDefineSymbol matches the definition of s (or of any name starting with s).
func AnyDefineSymbol(s string, kind SearchKind) string {
	if kind == WholeMatch {
		return defineHead + `(` + escape(s) + `)` + symbolEnd
	}
	return defineHead + `(` + escape(s) + identChar + `*)` + symbolEnd
}

// DefinePartialSymbol matches definitions whose name contains s.
func DefinePartialSymbol(s string) string {
	return defineHead + `(` + identChar + `*` + escape(s) + identChar + `*)` + symbolEnd
}

func enumLikeSymbol(keyword, s string, kind SearchKind) string {
	head := `(?<=` + openChars + `)\s*(` + keyword + `)\s+`
	if kind == WholeMatch {
		return head + `(` + escape(s) + `)(?!` + identChar + `)`
	}
	return head + `(` + escape(s) + identChar + `*)`
}

// AnyEnumSymbol matches "(define-enum s".
func AnyEnumSymbol(s string, kind SearchKind) string {
	return enumLikeSymbol("define-enum", s, kind)
}

// AnyMaskSymbol matches "(define-mask s".
func AnyMaskSymbol(s string, kind SearchKind) string {
	return enumLikeSymbol("define-mask", s, kind)
}

// EnumMember extracts the first identifier of a line, skipping one open bracket.
func EnumMember() string {
	return `^\s*` + openChars + `?\s*` + identifier
}

// AnyConstructor matches a constructor call head such as "(targeting-data:".
func AnyConstructor() string {
	return `(?<=` + openChars + `)\s*` + identifier + `:`
}

// ImportKeyword matches "(import" and "(import+export".
func ImportKeyword() string {
	return `(?<=` + openChars + `)\s*import(?:\+export)?`
}

// ImportExpression captures the body of an import form in group 1.
func ImportExpression() string {
	return ImportKeyword() + `[\s\n]+([^)}\]]+)(?=` + closeChars + `)`
}

// ProvideKeyword matches "(provide".
func ProvideKeyword() string {
	return `(?<=` + openChars + `)\s*provide\b`
}

// FieldSymbolDeclaration matches a field named n at the head of a scope range.
func FieldSymbolDeclaration(n string, kind SearchKind) string {
	head := `(?<=^\s*` + openChars + `)\s*`
	if kind == WholeMatch {
		return head + `(` + escape(n) + `)(?!` + identChar + `)`
	}
	return head + `(` + escape(n) + identChar + `*)`
}

// FieldDeclaration matches any field at the head of a scope range.
func FieldDeclaration() string {
	return `(?<=^\s*` + openChars + `)\s*(?!define)` + identifier
}

// NamedParamSymbolDeclaration matches the keyword parameter "#:n".
func NamedParamSymbolDeclaration(n string, kind SearchKind) string {
	if kind == WholeMatch {
		return `(?<=#:)(` + escape(n) + `)(?!` + identChar + `)`
	}
	return `(?<=#:)(` + escape(n) + identChar + `*)`
}

// NamedParamDeclaration matches any keyword parameter.
func NamedParamDeclaration() string {
	return `(?<=#:)` + identifier
}

// AnyMaskOrEnum matches "(mask X" or "(enum X"; group 1 is the form, group 2 the type.
func AnyMaskOrEnum() string {
	return `(?<=` + openChars + `)\s*(mask|enum)\s+` + identifier
}

// AnyIdentifier matches n as an identifier, or identifiers starting with n.
func AnyIdentifier(n string, kind SearchKind) string {
	if kind == WholeMatch {
		return `(?<!` + identChar + `)(` + escape(n) + `)(?!` + identChar + `)`
	}
	if n == "" {
		return identifier
	}
	return `(` + escape(n) + identChar + `*)`
}

// VariantOption matches an option of a variant from its qualified name:
// "action-movement-modifier-add" drops the first crumb and makes the interior
// ones optional, giving "(movement-)?(modifier-)?add". Group 1 is the option
// text matched so far; in partial mode the last group is the rest of the identifier.
func VariantOption(qualified string, kind SearchKind) string {
	var crumbs []string
	for _, c := range strings.Split(escape(qualified), "-") {
		if c != "" {
			crumbs = append(crumbs, c)
		}
	}
	var opt strings.Builder
	for i := 1; i < len(crumbs)-1; i++ {
		opt.WriteString(`(` + crumbs[i] + `-)?`)
	}
	if len(crumbs) > 0 {
		opt.WriteString(crumbs[len(crumbs)-1])
	}
	head := `(?<=` + openChars + `)\s*(` + opt.String() + `)`
	if kind == WholeMatch {
		return head + `(?!` + identChar + `)`
	}
	return head + `(` + identChar + `*)`
}

// MemberDeclaration chooses the pattern that finds members of a definition of
// the given kind. An empty name selects any member.
func MemberDeclaration(kind Kind, name string, sk SearchKind) string {
	switch kind {
	case KindDefine:
		if name == "" {
			return NamedParamDeclaration()
		}
		return NamedParamSymbolDeclaration(name, sk)
	case KindKey, KindText, KindEnum, KindMask:
		return AnyIdentifier(name, sk)
	default:
		if name == "" {
			return FieldDeclaration()
		}
		return FieldSymbolDeclaration(name, sk)
	}
}
