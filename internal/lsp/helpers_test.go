package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fracas/internal/session"
)

const typesSource = `;; Integer bounds.
(define-type range-int
  ((min int)
   (max int)))
`

const mainSource = `(import types)
(define helper (range-int: #:min 1 #:max 2))
`

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	return root
}

func openMemory(root string, opts session.Options) (*session.Session, error) {
	opts.MemoryCache = true
	return session.Open(root, opts)
}

// testClient talks to a running Server over in-memory pipes.
type testClient struct {
	t      *testing.T
	w      *io.PipeWriter
	r      *bufio.Reader
	nextID int
	done   chan error
	// notifications holds server-initiated messages skipped while waiting
	// for a response.
	notifications []rpcMessage
}

func startServer(t *testing.T) *testClient {
	t.Helper()
	return startServerWith(t, openMemory)
}

func startServerWith(t *testing.T, open OpenFunc) *testClient {
	t.Helper()
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()
	srv := NewServer(serverR, serverW, ServerOptions{Open: open, Stderr: io.Discard, Version: "test"})
	c := &testClient{t: t, w: clientW, r: bufio.NewReader(clientR), done: make(chan error, 1)}
	go func() {
		err := srv.Run(context.Background())
		serverW.Close()
		c.done <- err
	}()
	t.Cleanup(func() {
		clientW.Close()
		select {
		case <-c.done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return c
}

func (c *testClient) write(msg map[string]any) {
	c.t.Helper()
	msg["jsonrpc"] = "2.0"
	payload, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("encode: %v", err)
	}
	if err := writeMessage(c.w, payload); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *testClient) notify(method string, params any) {
	c.t.Helper()
	c.write(map[string]any{"method": method, "params": params})
}

// call sends a request and returns its response.
func (c *testClient) call(method string, params any) rpcMessage {
	c.t.Helper()
	c.nextID++
	id := c.nextID
	c.write(map[string]any{"id": id, "method": method, "params": params})
	for {
		payload, err := readMessage(c.r)
		if err != nil {
			c.t.Fatalf("%s: read response: %v", method, err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.t.Fatalf("%s: decode response: %v", method, err)
		}
		if string(msg.ID) == strings.TrimSpace(string(mustJSON(c.t, id))) {
			return msg
		}
		if msg.Method != "" && len(msg.ID) == 0 {
			c.notifications = append(c.notifications, msg)
		}
	}
}

// result calls method and decodes a successful result into out.
func (c *testClient) result(method string, params, out any) {
	c.t.Helper()
	msg := c.call(method, params)
	if msg.Error != nil {
		c.t.Fatalf("%s: error %d %s", method, msg.Error.Code, msg.Error.Message)
	}
	if err := json.Unmarshal(msg.Result, out); err != nil {
		c.t.Fatalf("%s: decode result %s: %v", method, msg.Result, err)
	}
}

func (c *testClient) initialize(root string) initializeResult {
	c.t.Helper()
	var res initializeResult
	c.result("initialize", map[string]any{"rootUri": pathToURI(root)}, &res)
	c.notify("initialized", map[string]any{})
	return res
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// positionOf returns the UTF-16 position of the n-th byte of needle in text.
func positionOf(t *testing.T, text, needle string, n int) position {
	t.Helper()
	i := strings.Index(text, needle)
	if i < 0 {
		t.Fatalf("%q not found", needle)
	}
	prefix := text[:i+n]
	line := strings.Count(prefix, "\n")
	col := prefix[strings.LastIndex(prefix, "\n")+1:]
	units := 0
	for _, r := range col {
		units += utf16Units(r)
	}
	return position{Line: line, Character: units}
}

func textDocumentPosition(uri string, pos position) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     pos,
	}
}
