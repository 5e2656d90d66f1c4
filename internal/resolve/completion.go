package resolve

import (
	"context"
	"strconv"
	"strings"

	"fracas/internal/source"
	"fracas/internal/syntax"
	"fracas/internal/trace"
)

// Completion is one suggestion for the word being typed.
type Completion struct {
	Label         string
	Kind          syntax.CompletionItemKind
	Documentation string
	Range         source.Range // replaced when the completion is accepted
	Definition    Definition
}

// FindCompletions suggests completions for the word ending at pos, first
// from the enclosing enum or mask, then keyword parameters, then type
// names and variant options. Nil means nothing applies. Labels are unique;
// the first suggestion for a label wins.
func (r *Resolver) FindCompletions(ctx context.Context, f *source.File, pos source.Position) ([]Completion, error) {
	ctx, span := trace.Start(ctx, trace.ScopeRequest, "completion")
	defer span.End("")

	items, err := r.completions(ctx, f, pos)
	if err != nil || items == nil {
		return nil, err
	}
	items = uniqueByLabel(items)
	span.WithExtra("results", strconv.Itoa(len(items)))
	return items, nil
}

func (r *Resolver) completions(ctx context.Context, f *source.File, pos source.Position) ([]Completion, error) {
	wordRange, ok := syntax.WordRangeAt(f, pos)
	if !ok {
		wordRange = source.Range{Start: pos, End: pos}
	}
	typed := source.Range{Start: wordRange.Start, End: pos}
	prefix := f.Text(typed)

	members, err := r.FindEnumOrMaskMembers(ctx, f, pos, prefix, syntax.PartialMatch)
	if err != nil {
		return nil, err
	}
	if len(members) > 0 {
		return r.toCompletions(members, "", wordRange), nil
	}

	if strings.HasPrefix(prefix, syntax.KeywordPrefix) {
		keywords, err := r.FindKeywordDefinition(ctx, f, typed, syntax.PartialMatch)
		if err != nil || len(keywords) == 0 {
			return nil, err
		}
		return r.toCompletions(keywords, syntax.KeywordPrefix, wordRange), nil
	}

	if pos.Character-wordRange.Start.Character < r.minChars {
		return nil, nil
	}

	typeDefs, err := r.FindSymbolDefinition(ctx, prefix, syntax.PartialMatch)
	if err != nil || len(typeDefs) == 0 {
		return nil, err
	}
	items := r.toCompletions(typeDefs, "", wordRange)

	// "targeting-gat" also offers "targeting-gather-self" and friends
	for _, def := range typeDefs {
		if def.Kind != syntax.KindVariant {
			continue
		}
		options, err := r.FindMembers(ctx, def, "", syntax.WholeMatch)
		if err != nil {
			return nil, err
		}
		items = append(items, r.toCompletions(options, def.Symbol+"-", wordRange)...)
	}

	options, err := r.FindVariantOptionDefinition(ctx, prefix, syntax.PartialMatch)
	if err != nil {
		return nil, err
	}
	return append(items, r.toCompletions(options, "", wordRange)...), nil
}

func (r *Resolver) toCompletions(defs []Definition, prefix string, replace source.Range) []Completion {
	out := make([]Completion, 0, len(defs))
	for _, def := range defs {
		out = append(out, Completion{
			Label:         prefix + def.Symbol,
			Kind:          def.CompletionKind(),
			Documentation: r.FindComment(def.Location.Path, def.Location.Range.Start),
			Range:         replace,
			Definition:    def,
		})
	}
	return out
}

func uniqueByLabel(items []Completion) []Completion {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, dup := seen[it.Label]; dup {
			continue
		}
		seen[it.Label] = struct{}{}
		out = append(out, it)
	}
	return out
}
