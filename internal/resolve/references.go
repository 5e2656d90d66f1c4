package resolve

import (
	"context"
	"strconv"

	"fracas/internal/search"
	"fracas/internal/source"
	"fracas/internal/syntax"
	"fracas/internal/trace"
)

// FindReferences lists every occurrence of the symbol under pos in the
// project. Inside a variant the qualified "variant-option" spelling is
// searched as well.
func (r *Resolver) FindReferences(ctx context.Context, f *source.File, pos source.Position) ([]source.Location, error) {
	ctx, span := trace.Start(ctx, trace.ScopeRequest, "references")
	defer span.End("")

	symbol := syntax.WordAt(f, pos, true)
	if symbol == "" {
		return nil, nil
	}
	matches, err := r.search(ctx, syntax.AnySymbol(symbol), search.All)
	if err != nil {
		return nil, err
	}

	if def, ok := r.FindEnclosingDefine(f, pos); ok && def.Kind == syntax.KindVariant {
		qualified, err := r.search(ctx, syntax.AnySymbol(def.Symbol+"-"+symbol), search.All)
		if err != nil {
			return nil, err
		}
		matches = append(matches, qualified...)
	}

	locs := make([]source.Location, 0, len(matches))
	for _, m := range matches {
		locs = append(locs, m.Location())
	}
	span.WithExtra("results", strconv.Itoa(len(locs)))
	return locs, nil
}
