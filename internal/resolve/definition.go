package resolve

import (
	"context"
	"strconv"
	"strings"

	"fracas/internal/search"
	"fracas/internal/source"
	"fracas/internal/syntax"
	"fracas/internal/trace"
)

var (
	anyConstructorRx = syntax.MustCompile(syntax.AnyConstructor())
	anyMaskOrEnumRx  = syntax.MustCompile(syntax.AnyMaskOrEnum())
	importKeywordRx  = syntax.MustCompile(syntax.ImportKeyword())
	anyDefineRx      = syntax.MustCompile(syntax.AnyDefine())
)

type tier struct {
	name    string
	resolve func(ctx context.Context) ([]Definition, error)
}

// FindDefinition resolves the symbol under pos. Tiers are tried in order and
// the first one producing a result wins: keyword parameters, imports,
// enum/mask members, plain definitions, then qualified variant options.
func (r *Resolver) FindDefinition(ctx context.Context, f *source.File, pos source.Position, sk syntax.SearchKind) ([]Definition, error) {
	ctx, span := trace.Start(ctx, trace.ScopeRequest, "definition")
	defer span.End("")

	symbol := syntax.WordAt(f, pos, true)
	tiers := []tier{
		{"keyword", func(ctx context.Context) ([]Definition, error) {
			return r.FindKeywordDefinition(ctx, f, source.Range{Start: pos, End: pos}, sk)
		}},
		{"import", func(context.Context) ([]Definition, error) {
			if symbol == "" || !isWithinImport(f, pos) {
				return nil, nil
			}
			return []Definition{r.importDefinition(symbol)}, nil
		}},
		{"enum", func(ctx context.Context) ([]Definition, error) {
			return r.FindEnumOrMaskMembers(ctx, f, pos, symbol, sk)
		}},
		{"symbol", func(ctx context.Context) ([]Definition, error) {
			return r.FindSymbolDefinition(ctx, symbol, sk)
		}},
		{"variant-option", func(ctx context.Context) ([]Definition, error) {
			return r.FindVariantOptionDefinition(ctx, symbol, sk)
		}},
	}
	for _, t := range tiers {
		tctx, ts := trace.Start(ctx, trace.ScopeTier, "tier:"+t.name)
		defs, err := t.resolve(tctx)
		ts.WithExtra("results", strconv.Itoa(len(defs))).End("")
		if err != nil {
			return nil, err
		}
		if len(defs) > 0 {
			span.WithExtra("tier", t.name)
			return defs, nil
		}
	}
	return nil, nil
}

// FindKeywordDefinition resolves a "#:field" keyword to the field declared by
// the type of the enclosing constructor call.
func (r *Resolver) FindKeywordDefinition(ctx context.Context, f *source.File, sel source.Range, sk syntax.SearchKind) ([]Definition, error) {
	keyword := selectedSymbol(f, sel, false)
	if !strings.HasPrefix(keyword, syntax.KeywordPrefix) {
		return nil, nil
	}
	typeName, ok := findEnclosingConstructor(f, sel.Start)
	if !ok {
		return nil, nil
	}

	typeDefs, err := r.FindSymbolDefinition(ctx, typeName, syntax.WholeMatch)
	if err != nil {
		return nil, err
	}
	if len(typeDefs) == 0 {
		typeDefs, err = r.FindVariantOptionDefinition(ctx, typeName, syntax.WholeMatch)
		if err != nil {
			return nil, err
		}
	}

	field := strings.TrimPrefix(keyword, syntax.KeywordPrefix)
	var out []Definition
	for _, def := range typeDefs {
		members, err := r.FindMembers(ctx, def, field, sk)
		if err != nil {
			return nil, err
		}
		out = append(out, members...)
	}
	return out, nil
}

// FindSymbolDefinition finds "(define-xxx name". One leading and one
// trailing hyphen are ignored.
func (r *Resolver) FindSymbolDefinition(ctx context.Context, name string, sk syntax.SearchKind) ([]Definition, error) {
	name = strings.TrimPrefix(name, "-")
	name = strings.TrimSuffix(name, "-")
	if name == "" {
		return nil, nil
	}
	return r.findDefinitions(ctx, syntax.AnyDefineSymbol(name, sk), search.All)
}

// FindEnumDefinition finds "(define-enum name".
func (r *Resolver) FindEnumDefinition(ctx context.Context, name string, sk syntax.SearchKind) ([]Definition, error) {
	return r.findDefinitions(ctx, syntax.AnyEnumSymbol(name, sk), search.All)
}

// FindMaskDefinition finds "(define-mask name".
func (r *Resolver) FindMaskDefinition(ctx context.Context, name string, sk syntax.SearchKind) ([]Definition, error) {
	return r.findDefinitions(ctx, syntax.AnyMaskSymbol(name, sk), search.All)
}

// FindEnumOrMaskMembers completes or resolves name inside a "(mask type ...)"
// or "(enum type ...)" expression. The type definition itself is included
// when name matches it.
func (r *Resolver) FindEnumOrMaskMembers(ctx context.Context, f *source.File, pos source.Position, name string, sk syntax.SearchKind) ([]Definition, error) {
	typeName, kind, ok := findEnclosingEnumOrMask(f, pos)
	if !ok {
		return nil, nil
	}

	var (
		typeDefs []Definition
		err      error
	)
	if kind == syntax.KindEnum {
		typeDefs, err = r.FindEnumDefinition(ctx, typeName, syntax.PartialMatch)
	} else {
		typeDefs, err = r.FindMaskDefinition(ctx, typeName, syntax.PartialMatch)
	}
	if err != nil {
		return nil, err
	}

	var out []Definition
	for _, def := range typeDefs {
		members, err := r.FindMembers(ctx, def, name, sk)
		if err != nil {
			return nil, err
		}
		if name != "" && syntax.SymbolsMatch(name, def.Symbol, sk) {
			out = append(out, def)
		}
		out = append(out, members...)
	}
	return out, nil
}

// FindEnclosingDefine returns the nearest definition head at or above pos:
// the text of pos's line before pos first, then whole earlier lines. The last
// head on a line wins.
func (r *Resolver) FindEnclosingDefine(f *source.File, pos source.Position) (Definition, bool) {
	for ln := pos.Line; ln >= 0; ln-- {
		line := f.Line(ln)
		if ln == pos.Line {
			line = line[:max(0, min(pos.Character, len(line)))]
		}
		m, err := anyDefineRx.FindLast(line)
		if err != nil {
			r.logger.Warn("resolve: define scan failed", "path", f.Path, "line", ln, "err", err)
			return Definition{}, false
		}
		if m == nil {
			continue
		}
		name := m.Group(2)
		return Definition{
			Location: source.Location{Path: f.Path, Range: source.Range{
				Start: source.Position{Line: ln, Character: name.Start},
				End:   source.Position{Line: ln, Character: name.End},
			}},
			Symbol: name.Text,
			Kind:   syntax.Classify(m.Group(1).Text),
		}, true
	}
	return Definition{}, false
}

// headAt runs re over the text between the bracket enclosing pos and pos.
func headAt(f *source.File, pos source.Position, re *syntax.Regexp) (*syntax.Match, bool) {
	open, ok := syntax.FindOpenBracket(f, source.Range{Start: pos, End: pos}, true)
	if !ok {
		return nil, false
	}
	m, err := re.Find(f.Text(source.Range{Start: open, End: pos}))
	if err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// findEnclosingConstructor returns the type of the "(type-name: ..." call
// enclosing pos.
func findEnclosingConstructor(f *source.File, pos source.Position) (string, bool) {
	m, ok := headAt(f, pos, anyConstructorRx)
	if !ok {
		return "", false
	}
	return m.Group(1).Text, true
}

// findEnclosingEnumOrMask returns the type named by the "(mask type" or
// "(enum type" expression enclosing pos.
func findEnclosingEnumOrMask(f *source.File, pos source.Position) (string, syntax.Kind, bool) {
	m, ok := headAt(f, pos, anyMaskOrEnumRx)
	if !ok {
		return "", syntax.KindUnknown, false
	}
	kind := syntax.KindMask
	if m.Group(1).Text == "enum" {
		kind = syntax.KindEnum
	}
	return m.Group(2).Text, kind, true
}

func isWithinImport(f *source.File, pos source.Position) bool {
	_, ok := headAt(f, pos, importKeywordRx)
	return ok
}
