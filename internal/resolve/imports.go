package resolve

import (
	"context"

	"fracas/internal/source"
	"fracas/internal/syntax"
)

var (
	importExpressionRx   = syntax.MustCompile(syntax.ImportExpression())
	importWordRx         = syntax.MustCompile(syntax.ImportWord)
	provideKeywordRx     = syntax.MustCompile(syntax.ProvideKeyword())
	providedExpressionRx = syntax.MustCompile(syntax.ProvidedExpression)
	exceptOutRx          = syntax.MustCompile(syntax.ExceptOut)
	allDefinedOutRx      = syntax.MustCompile(syntax.AllDefinedOut)
	identifierRx         = syntax.MustCompile(syntax.Identifier)
)

// FindImports lists the files imported by f, one import definition per name
// in its "(import ...)" forms. Commented-out names are skipped.
func (r *Resolver) FindImports(f *source.File) []Definition {
	bodies, err := matchesIn(f, source.Range{End: f.End()}, importExpressionRx, 1)
	if err != nil {
		r.logger.Warn("resolve: import scan failed", "path", f.Path, "err", err)
		return nil
	}

	var out []Definition
	for _, body := range bodies {
		// the keyword may sit inside a comment; the bracket scan ignores those
		if !isWithinImport(f, body.rng.Start) {
			continue
		}
		words, err := matchesIn(f, body.rng, importWordRx, 0)
		if err != nil {
			continue
		}
		for _, w := range words {
			if syntax.IsCommentedOut(f, w.rng.Start) {
				continue
			}
			out = append(out, r.importDefinition(w.text))
		}
	}
	return out
}

// FindProvidedLocalIdentifiers maps every identifier defined in f to whether
// its "(provide ...)" form exports it. Identifiers f only re-exports from
// its imports are not included.
func (r *Resolver) FindProvidedLocalIdentifiers(ctx context.Context, f *source.File) (map[string]bool, error) {
	symbols, err := r.DocumentSymbols(ctx, f.Path)
	if err != nil {
		return nil, err
	}
	provided := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		provided[s.Symbol] = false
	}

	content := f.String()
	kw, err := provideKeywordRx.Find(content)
	if err != nil || kw == nil {
		return provided, nil
	}
	expr, ok := syntax.FindEnclosingExpression(f, source.Range{Start: f.PositionAt(kw.Start), End: f.PositionAt(kw.Start)}, false)
	if !ok {
		return provided, nil
	}
	body := source.Range{Start: f.PositionAt(kw.End), End: expr.End}

	exprs, err := matchesIn(f, body, providedExpressionRx, 0)
	if err != nil {
		r.logger.Warn("resolve: provide scan failed", "path", f.Path, "err", err)
		return provided, nil
	}
	for _, p := range exprs {
		if syntax.IsCommentedOut(f, p.rng.Start) {
			continue
		}
		// except-out first: its text contains (all-defined-out) too
		if m, _ := exceptOutRx.Find(p.text); m != nil {
			start := f.PositionAt(f.OffsetAt(p.rng.Start) + m.End)
			except, err := matchesIn(f, source.Range{Start: start, End: p.rng.End}, identifierRx, 1)
			if err != nil {
				continue
			}
			excluded := make(map[string]struct{}, len(except))
			for _, e := range except {
				if !syntax.IsCommentedOut(f, e.rng.Start) {
					excluded[e.text] = struct{}{}
				}
			}
			for id := range provided {
				_, skip := excluded[id]
				provided[id] = !skip
			}
			continue
		}
		if ok, _ := allDefinedOutRx.MatchString(p.text); ok {
			for id := range provided {
				provided[id] = true
			}
			continue
		}
		provided[p.text] = true
	}
	return provided, nil
}

// PartitionIdentifiersByVisibility splits ids into those f provides and the
// rest, keeping their order.
func (r *Resolver) PartitionIdentifiersByVisibility(ctx context.Context, f *source.File, ids []string) (public, private []string, err error) {
	provided, err := r.FindProvidedLocalIdentifiers(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		if provided[id] {
			public = append(public, id)
		} else {
			private = append(private, id)
		}
	}
	return public, private, nil
}
