package syntax

// Kind classifies a definition construct or one of its members.
type Kind uint8

const (
	KindEnum Kind = iota
	KindEnumMember
	KindGameData
	KindKey
	KindText
	KindMask
	KindMaskMember
	KindTypeOptional
	KindType
	KindVariant
	KindVariantOption
	KindSyntax
	KindDefine
	KindKeyword
	KindImport
	KindUnknown
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindEnum, KindEnumMember, KindGameData, KindKey, KindText, KindMask, KindMaskMember,
	KindTypeOptional, KindType, KindVariant, KindVariantOption, KindSyntax, KindDefine,
	KindKeyword, KindImport, KindUnknown,
}

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindEnumMember:
		return "enumMember"
	case KindGameData:
		return "gameData"
	case KindKey:
		return "key"
	case KindText:
		return "text"
	case KindMask:
		return "mask"
	case KindMaskMember:
		return "maskMember"
	case KindTypeOptional:
		return "typeOptional"
	case KindType:
		return "type"
	case KindVariant:
		return "variant"
	case KindVariantOption:
		return "variantOption"
	case KindSyntax:
		return "syntax"
	case KindDefine:
		return "define"
	case KindKeyword:
		return "keyword"
	case KindImport:
		return "import"
	default:
		return "unknown"
	}
}

// Classify maps a definition keyword such as "define-enum" to its Kind.
func Classify(token string) Kind {
	switch token {
	case "define-enum":
		return KindEnum
	case "define-game-data":
		return KindGameData
	case "define-key":
		return KindKey
	case "define-text", "define-string-table":
		return KindText
	case "define-mask":
		return KindMask
	case "define-type-optional":
		return KindTypeOptional
	case "define-syntax", "define-syntax-rule":
		return KindSyntax
	case "define-type", "struct":
		return KindType
	case "define-variant":
		return KindVariant
	case "define", "define-list":
		return KindDefine
	case "import", "import+export":
		return KindImport
	default:
		return KindUnknown
	}
}

// MemberScopeDepth is the number of bracket levels below a definition's own
// opening bracket at which its members are declared:
//
//	(define-type targeting-data
//	  ((max-targets int #:default -1)   ; depth 2
//	   (gather targeting-gather)))
//	(define-variant action (movement-modifier-add ...))   ; depth 1
func (k Kind) MemberScopeDepth() int {
	switch k {
	case KindDefine, KindImport:
		return 0
	case KindSyntax, KindVariant, KindKey, KindText, KindEnum, KindMask:
		return 1
	default:
		return 2
	}
}

// MemberKind is the kind given to members found inside a definition of kind k.
func (k Kind) MemberKind() Kind {
	switch k {
	case KindEnum:
		return KindEnumMember
	case KindMask:
		return KindMaskMember
	case KindVariant:
		return KindVariantOption
	default:
		return KindKeyword
	}
}

// IsEnumLike reports whether members are listed one identifier per line.
func (k Kind) IsEnumLike() bool {
	return k == KindEnum || k == KindMask
}

// CompletionItemKind mirrors the LSP CompletionItemKind enumeration.
type CompletionItemKind int

const (
	CompletionFunction   CompletionItemKind = 3
	CompletionVariable   CompletionItemKind = 6
	CompletionModule     CompletionItemKind = 9
	CompletionUnit       CompletionItemKind = 11
	CompletionEnum       CompletionItemKind = 13
	CompletionKeyword    CompletionItemKind = 14
	CompletionEnumMember CompletionItemKind = 20
	CompletionStruct     CompletionItemKind = 22
)

// SymbolKind mirrors the LSP SymbolKind enumeration.
type SymbolKind int

const (
	SymbolFile       SymbolKind = 1
	SymbolModule     SymbolKind = 2
	SymbolField      SymbolKind = 8
	SymbolEnum       SymbolKind = 10
	SymbolFunction   SymbolKind = 12
	SymbolVariable   SymbolKind = 13
	SymbolNull       SymbolKind = 21
	SymbolEnumMember SymbolKind = 22
	SymbolStruct     SymbolKind = 23
	SymbolOperator   SymbolKind = 25
)

// CompletionKind returns the completion icon used for k.
func (k Kind) CompletionKind() CompletionItemKind {
	switch k {
	case KindEnum, KindMask:
		return CompletionEnum
	case KindEnumMember, KindMaskMember:
		return CompletionEnumMember
	case KindGameData, KindImport:
		return CompletionModule
	case KindKey, KindText:
		return CompletionVariable
	case KindTypeOptional, KindType, KindVariant, KindVariantOption:
		return CompletionStruct
	case KindDefine:
		return CompletionFunction
	case KindKeyword:
		return CompletionKeyword
	default:
		return CompletionUnit
	}
}

// SymbolKind returns the outline/symbol-search icon used for k.
func (k Kind) SymbolKind() SymbolKind {
	switch k {
	case KindEnum, KindMask:
		return SymbolEnum
	case KindEnumMember, KindMaskMember:
		return SymbolEnumMember
	case KindGameData:
		return SymbolModule
	case KindKey, KindText:
		return SymbolVariable
	case KindTypeOptional, KindType, KindVariant, KindVariantOption:
		return SymbolStruct
	case KindSyntax:
		return SymbolOperator
	case KindDefine:
		return SymbolFunction
	case KindKeyword:
		return SymbolField
	case KindImport:
		return SymbolFile
	default:
		return SymbolNull
	}
}
