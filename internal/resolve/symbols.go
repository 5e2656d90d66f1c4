package resolve

import (
	"context"
	"strconv"

	"fracas/internal/search"
	"fracas/internal/syntax"
	"fracas/internal/trace"
)

// DocumentSymbols lists every definition in the file at path.
func (r *Resolver) DocumentSymbols(ctx context.Context, path string) ([]Definition, error) {
	return r.findSymbols(ctx, "", search.File(path))
}

// WorkspaceSymbols lists the project definitions whose name contains query;
// an empty query lists all of them.
func (r *Resolver) WorkspaceSymbols(ctx context.Context, query string) ([]Definition, error) {
	return r.findSymbols(ctx, query, search.All)
}

func (r *Resolver) findSymbols(ctx context.Context, query string, scope search.Scope) ([]Definition, error) {
	ctx, span := trace.Start(ctx, trace.ScopeRequest, "symbols")
	defer span.End("")

	pattern := syntax.AnyDefine()
	if query != "" {
		pattern = syntax.DefinePartialSymbol(query)
	}
	defs, err := r.findDefinitions(ctx, pattern, scope)
	if err != nil {
		return nil, err
	}
	span.WithExtra("results", strconv.Itoa(len(defs)))
	return defs, nil
}
