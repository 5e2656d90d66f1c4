package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"fracas/internal/resolve"
	"fracas/internal/session"
	"fracas/internal/source"
	"fracas/internal/syntax"
)

// document loads the file behind uri and converts pos to a byte position.
func document(sess *session.Session, uri string, pos position) (*source.File, source.Position, error) {
	path := uriToPath(uri)
	if path == "" {
		return nil, source.Position{}, fmt.Errorf("unsupported uri %q", uri)
	}
	f, err := sess.Files.Load(path)
	if err != nil {
		return nil, source.Position{}, err
	}
	return f, toSourcePosition(f, pos), nil
}

// converter turns engine locations into client locations, loading each
// target file once.
type converter struct {
	sess  *session.Session
	files map[string]*source.File
}

func newConverter(sess *session.Session) *converter {
	return &converter{sess: sess, files: make(map[string]*source.File)}
}

func (c *converter) file(path string) *source.File {
	f, ok := c.files[path]
	if !ok {
		f, _ = c.sess.Files.Load(path)
		c.files[path] = f
	}
	return f
}

func (c *converter) location(loc source.Location) location {
	return location{URI: pathToURI(loc.Path), Range: toLSPRange(c.file(loc.Path), loc.Range)}
}

func (c *converter) symbols(defs []resolve.Definition) []symbolInformation {
	out := make([]symbolInformation, 0, len(defs))
	for _, d := range defs {
		out = append(out, symbolInformation{
			Name:     d.Symbol,
			Kind:     int(d.SymbolKind()),
			Location: c.location(d.Location),
		})
	}
	return out
}

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return s.goRequest(msg, func(ctx context.Context, sess *session.Session) (any, error) {
		f, pos, err := document(sess, params.TextDocument.URI, params.Position)
		if err != nil {
			return []location{}, nil
		}
		defs, err := sess.Resolver.FindDefinition(ctx, f, pos, syntax.WholeMatch)
		if err != nil {
			return nil, err
		}
		conv := newConverter(sess)
		out := make([]location, 0, len(defs))
		for _, d := range defs {
			out = append(out, conv.location(d.Location))
		}
		return out, nil
	})
}

func (s *Server) handleReferences(msg *rpcMessage) error {
	var params referenceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return s.goRequest(msg, func(ctx context.Context, sess *session.Session) (any, error) {
		f, pos, err := document(sess, params.TextDocument.URI, params.Position)
		if err != nil {
			return []location{}, nil
		}
		locs, err := sess.Resolver.FindReferences(ctx, f, pos)
		if err != nil {
			return nil, err
		}
		conv := newConverter(sess)
		out := make([]location, 0, len(locs))
		for _, loc := range locs {
			out = append(out, conv.location(loc))
		}
		return out, nil
	})
}

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return s.goRequest(msg, func(ctx context.Context, sess *session.Session) (any, error) {
		f, pos, err := document(sess, params.TextDocument.URI, params.Position)
		if err != nil {
			return completionList{Items: []completionItem{}}, nil
		}
		items, err := sess.Resolver.FindCompletions(ctx, f, pos)
		if err != nil {
			return nil, err
		}
		list := completionList{Items: make([]completionItem, 0, len(items))}
		for _, it := range items {
			item := completionItem{
				Label:    it.Label,
				Kind:     int(it.Kind),
				TextEdit: &textEdit{Range: toLSPRange(f, it.Range), NewText: it.Label},
			}
			if it.Definition.Symbol != "" {
				item.Detail = it.Definition.Kind.String()
			}
			if it.Documentation != "" {
				item.Documentation = &markupContent{Kind: "markdown", Value: it.Documentation}
			}
			list.Items = append(list.Items, item)
		}
		return list, nil
	})
}

func (s *Server) handleHover(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return s.goRequest(msg, func(ctx context.Context, sess *session.Session) (any, error) {
		f, pos, err := document(sess, params.TextDocument.URI, params.Position)
		if err != nil {
			return nil, nil
		}
		text, ok, err := sess.Resolver.Hover(ctx, f, pos)
		if err != nil || !ok {
			return nil, err
		}
		result := &hover{Contents: markupContent{Kind: "markdown", Value: text}}
		if wr, ok := syntax.WordRangeAt(f, pos); ok {
			r := toLSPRange(f, wr)
			result.Range = &r
		}
		return result, nil
	})
}

func (s *Server) handleDocumentSymbol(msg *rpcMessage) error {
	var params documentSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return s.goRequest(msg, func(ctx context.Context, sess *session.Session) (any, error) {
		path := uriToPath(params.TextDocument.URI)
		if path == "" {
			return []symbolInformation{}, nil
		}
		defs, err := sess.Resolver.DocumentSymbols(ctx, path)
		if err != nil {
			return nil, err
		}
		return newConverter(sess).symbols(defs), nil
	})
}

func (s *Server) handleWorkspaceSymbol(msg *rpcMessage) error {
	var params workspaceSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return s.goRequest(msg, func(ctx context.Context, sess *session.Session) (any, error) {
		defs, err := sess.Resolver.WorkspaceSymbols(ctx, params.Query)
		if err != nil {
			return nil, err
		}
		return newConverter(sess).symbols(defs), nil
	})
}
