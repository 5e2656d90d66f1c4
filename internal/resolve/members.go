package resolve

import (
	"context"
	"fmt"

	"fracas/internal/source"
	"fracas/internal/syntax"
)

var enumMemberRx = syntax.MustCompile(syntax.EnumMember())

// FindMembers lists the members of def that match name: enum and mask
// values, type fields, variant options, or the keyword parameters of a
// define. An empty name with PartialMatch lists every member.
func (r *Resolver) FindMembers(ctx context.Context, def Definition, name string, sk syntax.SearchKind) ([]Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := r.load(def.Location.Path)
	if err != nil {
		r.logger.Warn("resolve: cannot read definition file", "path", def.Location.Path, "err", err)
		return nil, nil
	}

	ranges := syntax.RangesAtScope(f, def.Location.Range.Start, def.Kind.MemberScopeDepth())
	// only the parameter list of a define declares members; the rest is its body
	if def.Kind == syntax.KindDefine && len(ranges) > 1 {
		ranges = ranges[:1]
	}

	memberKind := def.Kind.MemberKind()
	if def.Kind.IsEnumLike() {
		var out []Definition
		for _, rng := range ranges {
			out = append(out, findEnumMembers(f, rng, memberKind, name, sk)...)
		}
		return out, nil
	}

	re, err := syntax.Compile(syntax.MemberDeclaration(def.Kind, name, sk))
	if err != nil {
		return nil, fmt.Errorf("member pattern for %s: %w", def.Symbol, err)
	}
	var out []Definition
	for _, rng := range ranges {
		found, err := matchesIn(f, rng, re, 1)
		if err != nil {
			r.logger.Warn("resolve: member scan failed", "path", f.Path, "symbol", def.Symbol, "err", err)
			continue
		}
		for _, l := range found {
			out = append(out, Definition{
				Location: source.Location{Path: f.Path, Range: l.rng},
				Symbol:   l.text,
				Kind:     memberKind,
			})
		}
	}
	return out, nil
}

// findEnumMembers takes the first identifier of every line of an enum or
// mask body. Members are either bare names or single-name expressions with
// metadata, which no single pattern covers.
func findEnumMembers(f *source.File, body source.Range, kind syntax.Kind, name string, sk syntax.SearchKind) []Definition {
	var out []Definition
	for ln := body.Start.Line; ln <= body.End.Line; ln++ {
		line := f.Line(ln)
		from, to := 0, len(line)
		if ln == body.Start.Line {
			from = min(body.Start.Character, len(line))
		}
		if ln == body.End.Line {
			to = min(body.End.Character, len(line))
		}
		if from >= to {
			continue
		}
		m, err := enumMemberRx.Find(line[from:to])
		if err != nil || m == nil {
			continue
		}
		g := m.Group(1)
		if !syntax.SymbolsMatch(name, g.Text, sk) {
			continue
		}
		out = append(out, Definition{
			Location: source.Location{Path: f.Path, Range: source.Range{
				Start: source.Position{Line: ln, Character: from + g.Start},
				End:   source.Position{Line: ln, Character: from + g.End},
			}},
			Symbol: g.Text,
			Kind:   kind,
		})
	}
	return out
}
