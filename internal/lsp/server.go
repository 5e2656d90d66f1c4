// Package lsp serves the resolver over the Language Server Protocol on a
// pair of streams, normally stdin and stdout.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fracas/internal/project"
	"fracas/internal/session"
	"fracas/internal/trace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")

	errNotInitialized = errors.New("server not initialized")
)

// OpenFunc wires the engine for a workspace root. The server fills in the
// logger and the warning callback of opts.
type OpenFunc func(root string, opts session.Options) (*session.Session, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Open defaults to session.Open.
	Open    OpenFunc
	Logger  *slog.Logger
	Version string
	// Stderr receives "lsp:" diagnostics; os.Stderr when nil.
	Stderr io.Writer
}

// Server handles stdio JSON-RPC for the fracas language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	stderr io.Writer
	sendMu sync.Mutex
	logMu  sync.Mutex

	mu                sync.Mutex
	versions          map[string]int
	shutdownRequested bool
	sess              *session.Session
	inflight          map[string]context.CancelFunc
	traceLSP          bool

	open    OpenFunc
	logger  *slog.Logger
	version string
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	open := opts.Open
	if open == nil {
		open = session.Open
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		stderr:   stderr,
		versions: make(map[string]int),
		inflight: make(map[string]context.CancelFunc),
		open:     open,
		logger:   opts.Logger,
		version:  opts.Version,
		baseCtx:  context.Background(),
	}
}

// Run serves LSP requests until the input ends or the client sends "exit".
// Outstanding requests are cancelled and awaited before Run returns.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	defer s.finish()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			if sendErr := s.sendError(json.RawMessage("null"), codeParseError, "parse error"); sendErr != nil {
				return sendErr
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) finish() {
	s.cancel()
	s.wg.Wait()
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.mu.Unlock()
	if sess != nil {
		if err := sess.Close(); err != nil {
			s.logf("failed to close cache: %v", err)
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.mu.Lock()
		requested := s.shutdownRequested
		s.mu.Unlock()
		if requested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "$/cancelRequest":
		return s.handleCancel(msg)
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/didChangeWatchedFiles":
		return s.handleDidChangeWatchedFiles(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/references":
		return s.handleReferences(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	case "workspace/symbol":
		return s.handleWorkspaceSymbol(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	// a fracas.toml above the workspace folder wins
	if found, ok, err := project.FindProjectRoot(root); err == nil && ok {
		root = found
	}

	sess, err := s.open(root, session.Options{Logger: s.logger, Warn: s.showWarning})
	if err != nil {
		s.logf("failed to open workspace %s: %v", root, err)
		return s.sendError(msg.ID, codeInternalError, err.Error())
	}
	s.mu.Lock()
	if s.sess != nil {
		_ = s.sess.Close()
	}
	s.sess = sess
	s.mu.Unlock()
	s.logf("workspace root: %s", sess.Root())

	s.background("index", func(ctx context.Context) error {
		stats, err := sess.Index(ctx)
		if err == nil {
			s.logf("indexed: %s", stats)
		}
		return err
	})

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save:      saveOptions{IncludeText: true},
			},
			HoverProvider:           true,
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			DocumentSymbolProvider:  true,
			WorkspaceSymbolProvider: true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{":", "-", "#"},
			},
		},
		ServerInfo: serverInfo{Name: "fracas", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	for _, cancel := range s.inflight {
		cancel()
	}
	s.mu.Unlock()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleCancel(msg *rpcMessage) error {
	var params cancelParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.mu.Lock()
	cancel, ok := s.inflight[requestKey(params.ID)]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

func (s *Server) session() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// requestKey normalizes a JSON-RPC id so that 1 and "1" stay distinct but
// formatting differences do not matter.
func requestKey(id json.RawMessage) string {
	var v any
	if err := json.Unmarshal(id, &v); err != nil {
		return string(id)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// goRequest answers msg from a goroutine. The request context is cancelled
// by $/cancelRequest, shutdown or the end of Run; a cancelled request
// answers RequestCancelled.
func (s *Server) goRequest(msg *rpcMessage, fn func(ctx context.Context, sess *session.Session) (any, error)) error {
	sess := s.session()
	if sess == nil {
		return s.sendError(msg.ID, codeServerNotReady, errNotInitialized.Error())
	}
	id := msg.ID
	key := requestKey(id)
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.mu.Lock()
	s.inflight[key] = cancel
	traceLSP := s.traceLSP
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, key)
			s.mu.Unlock()
			cancel()
		}()

		start := time.Now()
		reqCtx, span := trace.Start(ctx, trace.ScopeRequest, msg.Method)
		result, err := fn(reqCtx, sess)
		span.End("")

		var sendErr error
		switch {
		case ctx.Err() != nil:
			sendErr = s.sendError(id, codeRequestCancelled, "request cancelled")
		case err != nil:
			s.logf("%s failed: %v", msg.Method, err)
			sendErr = s.sendError(id, codeInternalError, err.Error())
		default:
			sendErr = s.sendResponse(id, result)
		}
		if sendErr != nil {
			s.logf("failed to answer %s: %v", msg.Method, sendErr)
		}
		if traceLSP {
			s.logf("%s: id=%s took %s", msg.Method, string(id), time.Since(start))
		}
	}()
	return nil
}

// background runs cache maintenance that nobody waits for.
func (s *Server) background(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, span := trace.Start(s.baseCtx, trace.ScopeCache, name)
		err := fn(ctx)
		span.End("")
		if err != nil && s.baseCtx.Err() == nil {
			s.logf("%s failed: %v", name, err)
		}
	}()
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

// showWarning surfaces a resolver warning in the editor.
func (s *Server) showWarning(message string) {
	s.logf("warning: %s", message)
	err := s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "window/showMessage",
		"params":  showMessageParams{Type: messageTypeWarning, Message: message},
	})
	if err != nil {
		s.logf("failed to show warning: %v", err)
	}
}

func (s *Server) logf(format string, args ...any) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	fmt.Fprintf(s.stderr, "lsp: "+format+"\n", args...)
}
