package lsp

import (
	"context"
	"encoding/json"

	"fracas/internal/session"
)

// Open documents live as overlays in the session's file set, so every query
// and cache refresh sees the editor's text.

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	sess := s.session()
	if path == "" || sess == nil {
		return nil
	}
	sess.Files.Open(path, params.TextDocument.Text)
	s.mu.Lock()
	s.versions[path] = params.TextDocument.Version
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	sess := s.session()
	if path == "" || sess == nil {
		return nil
	}
	text := ""
	if f, err := sess.Files.Load(path); err == nil {
		text = f.String()
	}
	sess.Files.Open(path, applyChanges(text, params.ContentChanges))
	s.mu.Lock()
	s.versions[path] = params.TextDocument.Version
	trace := s.traceLSP
	s.mu.Unlock()
	if trace {
		s.logf("didChange: path=%s version=%d changes=%d", path, params.TextDocument.Version, len(params.ContentChanges))
	}
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	sess := s.session()
	if path == "" || sess == nil {
		return nil
	}
	if params.Text != nil {
		sess.Files.Open(path, *params.Text)
	}
	sess.Files.Invalidate(path)
	s.refresh(sess, path)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	path := uriToPath(params.TextDocument.URI)
	sess := s.session()
	if path == "" || sess == nil {
		return nil
	}
	sess.Files.Close(path)
	s.mu.Lock()
	delete(s.versions, path)
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidChangeWatchedFiles(msg *rpcMessage) error {
	var params didChangeWatchedFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	sess := s.session()
	if sess == nil {
		return nil
	}
	for _, change := range params.Changes {
		path := uriToPath(change.URI)
		if path == "" || !sess.Filter.Match(path) {
			continue
		}
		sess.Files.Invalidate(path)
		switch change.Type {
		case fileCreated, fileChanged:
			s.refresh(sess, path)
		case fileDeleted:
			if sess.Files.IsOpen(path) {
				continue
			}
			s.background("cache:remove", func(context.Context) error {
				return sess.Cache.RemoveFile(path)
			})
		}
	}
	return nil
}

// refresh re-indexes path in the background.
func (s *Server) refresh(sess *session.Session, path string) {
	s.background("cache:update", func(ctx context.Context) error {
		return sess.Cache.UpdateFile(ctx, path)
	})
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.Fracas.Trace != nil {
		s.traceLSP = *settings.Fracas.Trace
	}
}
