package resolve

import (
	"context"
	"strings"

	"fracas/internal/source"
	"fracas/internal/syntax"
)

// Hover renders the first definition of the symbol under pos as markdown:
// its kind and name in a code block, followed by its comment.
func (r *Resolver) Hover(ctx context.Context, f *source.File, pos source.Position) (string, bool, error) {
	defs, err := r.FindDefinition(ctx, f, pos, syntax.WholeMatch)
	if err != nil || len(defs) == 0 {
		return "", false, err
	}
	def := defs[0]

	var b strings.Builder
	b.WriteString("```fracas\n(")
	b.WriteString(def.Kind.String())
	b.WriteString(") ")
	b.WriteString(def.Symbol)
	b.WriteString("\n```")
	if def.Kind != syntax.KindImport {
		if doc := strings.TrimSpace(r.FindComment(def.Location.Path, def.Location.Range.Start)); doc != "" {
			b.WriteString("\n\n")
			b.WriteString(doc)
		}
	}
	return b.String(), true, nil
}
