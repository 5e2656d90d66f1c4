package resolve

import (
	"context"

	"fracas/internal/search"
	"fracas/internal/source"
	"fracas/internal/syntax"
)

// FindVariantOptionDefinition resolves a qualified option name such as
// "action-movement-modifier-add" to the "(movement-modifier-add" option of
// "(define-variant action". Candidates outside a variant with the remaining
// name are dropped.
func (r *Resolver) FindVariantOptionDefinition(ctx context.Context, qualified string, sk syntax.SearchKind) ([]Definition, error) {
	if qualified == "" {
		return nil, nil
	}
	matches, err := r.search(ctx, syntax.VariantOption(qualified, sk), search.All)
	if err != nil {
		return nil, err
	}

	var out []Definition
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		head := m.Group(1)
		if !head.Matched {
			continue
		}
		n := len(qualified) - (len(head.Text) + 1)
		if n <= 0 {
			continue
		}
		variantName := qualified[:n]

		option := head.Text
		if sk == syntax.PartialMatch {
			option += m.Group(len(m.Groups) - 1).Text
		}

		f, err := r.load(m.Path)
		if err != nil {
			r.logger.Warn("resolve: cannot read variant file", "path", m.Path, "err", err)
			continue
		}
		enclosing, ok := r.FindEnclosingDefine(f, m.Range.Start)
		if !ok || enclosing.Kind != syntax.KindVariant || enclosing.Symbol != variantName {
			continue
		}
		out = append(out, Definition{
			Location: source.Location{Path: m.Path, Range: source.Range{Start: head.Range.Start, End: m.Range.End}},
			Symbol:   variantName + "-" + option,
			Kind:     syntax.KindVariantOption,
		})
	}
	return out, nil
}
