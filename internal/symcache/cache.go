// Package symcache keeps a per-file index of imports and provided
// identifiers, plus a reverse map from identifier to providing files, so
// that import closures can be answered without rescanning the project.
package symcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"fracas/internal/resolve"
	"fracas/internal/source"
	"fracas/internal/trace"
)

// Current schema version - increment when FileState changes shape.
const schemaVersion uint16 = 1

const (
	fileStatePrefix  = "fs@"
	identifierPrefix = "id@"

	refreshLimit = 50
	// commitBatch is how many files one write transaction starts with.
	commitBatch = 256
)

// ErrSchemaMismatch reports an entry written by a different schema version.
var ErrSchemaMismatch = errors.New("symcache: schema mismatch")

func fileStateKey(path string) string { return fileStatePrefix + path }
func identifierKey(id string) string  { return identifierPrefix + id }

// FileState is what the cache remembers about one source file.
type FileState struct {
	Schema             uint16
	ModTime            int64 // unix nanos of the indexed content
	ImportedPaths      []string
	PublicIdentifiers  []string
	PrivateIdentifiers []string
}

// Indexer extracts file states; the resolver implements it.
type Indexer interface {
	Files() *source.FileSet
	WorkspaceSymbols(ctx context.Context, query string) ([]resolve.Definition, error)
	DocumentSymbols(ctx context.Context, path string) ([]resolve.Definition, error)
	FindImports(f *source.File) []resolve.Definition
	PartitionIdentifiersByVisibility(ctx context.Context, f *source.File, ids []string) (public, private []string, err error)
}

// Status is the outcome of indexing one file during UpdateAll.
type Status uint8

const (
	StatusIndexed Status = iota
	StatusUnchanged
	StatusRemoved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIndexed:
		return "indexed"
	case StatusUnchanged:
		return "unchanged"
	case StatusRemoved:
		return "removed"
	default:
		return "failed"
	}
}

// Progress receives one call per file handled by UpdateAll. It may be
// called from several goroutines at once.
type Progress func(path string, status Status)

// UpdateStats summarises an UpdateAll run.
type UpdateStats struct {
	Added     int
	Refreshed int
	Removed   int
	Unchanged int
	Failed    int
}

func (s UpdateStats) String() string {
	return fmt.Sprintf("%d added, %d refreshed, %d removed, %d unchanged, %d failed",
		s.Added, s.Refreshed, s.Removed, s.Unchanged, s.Failed)
}

// Cache is the symbol cache. Reads go straight to storage; writes are
// serialised and each lands in a single storage transaction.
type Cache struct {
	mu       sync.Mutex
	storage  Storage
	idx      Indexer
	logger   *slog.Logger
	progress Progress
}

// New creates a cache over storage.
func New(storage Storage, idx Indexer, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{storage: storage, idx: idx, logger: logger}
}

// SetProgress installs the UpdateAll progress callback.
func (c *Cache) SetProgress(fn Progress) {
	c.mu.Lock()
	c.progress = fn
	c.mu.Unlock()
}

func (c *Cache) report(path string, status Status) {
	if c.progress != nil {
		c.progress(path, status)
	}
}

// Storage returns the store behind the cache.
func (c *Cache) Storage() Storage { return c.storage }

// Close closes the underlying storage.
func (c *Cache) Close() error {
	return c.storage.Close()
}

// pendingState is one file's write; a nil state removes the file.
type pendingState struct {
	path  string
	state *FileState
	isNew bool
}

func (ps *pendingState) apply(tx Tx) error {
	if ps.state == nil {
		return removeTx(tx, ps.path)
	}
	return writeTx(tx, ps.path, ps.state)
}

// commit writes ops in batches of whole files, halving a batch the store
// rejects as too big. ctx is checked before every batch, so a context
// cancelled before writing starts leaves the cache untouched and one
// cancelled later stops after the last complete batch.
func (c *Cache) commit(ctx context.Context, ops []*pendingState) error {
	size := commitBatch
	for len(ops) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(size, len(ops))
		err := c.storage.Update(func(tx Tx) error {
			for _, ps := range ops[:n] {
				if err := ps.apply(tx); err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(err, ErrTxnTooBig) && n > 1 {
			size = (n + 1) / 2
			c.logger.Debug("symcache: batch too big, splitting", "files", n, "next", size)
			continue
		}
		if err != nil {
			return err
		}
		ops = ops[n:]
	}
	return nil
}

// UpdateAll brings the cache in line with paths, the current project
// files. States of vanished files are dropped and stale or missing ones are
// recomputed concurrently, then written in batches by commit.
func (c *Cache) UpdateAll(ctx context.Context, paths []string) (UpdateStats, error) {
	ctx, span := trace.Start(ctx, trace.ScopeCache, "cache:update-all")
	defer span.End("")

	c.mu.Lock()
	defer c.mu.Unlock()

	var stats UpdateStats
	symbols, err := c.idx.WorkspaceSymbols(ctx, "")
	if err != nil {
		return stats, fmt.Errorf("collect workspace symbols: %w", err)
	}
	idsByPath := make(map[string][]string)
	for _, sym := range symbols {
		p := source.NormalizePath(sym.Location.Path)
		if !slices.Contains(idsByPath[p], sym.Symbol) {
			idsByPath[p] = append(idsByPath[p], sym.Symbol)
		}
	}

	paths = normalizePaths(paths)
	current := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		current[p] = struct{}{}
	}
	cached, err := c.FilePaths()
	if err != nil {
		return stats, err
	}
	var removed []string
	for _, p := range cached {
		if _, ok := current[p]; !ok {
			removed = append(removed, p)
		}
	}

	pending := make([]*pendingState, len(paths))
	var statsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshLimit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			state, isNew, err := c.refresh(gctx, path, idsByPath[path])
			statsMu.Lock()
			defer statsMu.Unlock()
			switch {
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("symcache: refresh failed", "path", path, "err", err)
				stats.Failed++
				c.report(path, StatusFailed)
			case state == nil:
				stats.Unchanged++
				c.report(path, StatusUnchanged)
			default:
				pending[i] = &pendingState{path: path, state: state, isNew: isNew}
				if isNew {
					stats.Added++
				} else {
					stats.Refreshed++
				}
				c.report(path, StatusIndexed)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return UpdateStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return UpdateStats{}, err
	}

	ops := make([]*pendingState, 0, len(removed)+len(pending))
	for _, p := range removed {
		ops = append(ops, &pendingState{path: p})
	}
	for _, ps := range pending {
		if ps != nil {
			ops = append(ops, ps)
		}
	}
	if err := c.commit(ctx, ops); err != nil {
		if ctx.Err() != nil {
			return UpdateStats{}, ctx.Err()
		}
		return UpdateStats{}, fmt.Errorf("write cache: %w", err)
	}
	for _, p := range removed {
		c.report(p, StatusRemoved)
	}
	stats.Removed = len(removed)

	span.WithExtra("files", strconv.Itoa(len(paths))).WithExtra("stats", stats.String())
	c.logger.Info("symcache: updated", "files", len(paths), "added", stats.Added, "refreshed", stats.Refreshed,
		"removed", stats.Removed, "unchanged", stats.Unchanged, "failed", stats.Failed)
	return stats, nil
}

// normalizePaths returns a normalized copy of paths.
func normalizePaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = source.NormalizePath(p)
	}
	return out
}

// refresh returns the recomputed state of path, or nil when the stored one
// is still current.
func (c *Cache) refresh(ctx context.Context, path string, ids []string) (*FileState, bool, error) {
	existing, ok, err := c.FileState(path)
	if err != nil {
		return nil, false, err
	}
	if ok {
		if mt, err := c.idx.Files().Stat(path); err == nil && !c.idx.Files().IsOpen(path) && mt.UnixNano() <= existing.ModTime {
			return nil, false, nil
		}
	}
	state, err := c.computeState(ctx, path, ids)
	if err != nil {
		return nil, false, err
	}
	return state, !ok, nil
}

func (c *Cache) computeState(ctx context.Context, path string, ids []string) (*FileState, error) {
	f, err := c.idx.Files().Load(path)
	if err != nil {
		return nil, err
	}
	imports := c.idx.FindImports(f)
	imported := make([]string, 0, len(imports))
	for _, imp := range imports {
		p := source.NormalizePath(imp.Location.Path)
		if !slices.Contains(imported, p) {
			imported = append(imported, p)
		}
	}
	public, private, err := c.idx.PartitionIdentifiersByVisibility(ctx, f, ids)
	if err != nil {
		return nil, err
	}
	return &FileState{
		Schema:             schemaVersion,
		ModTime:            f.ModTime.UnixNano(),
		ImportedPaths:      imported,
		PublicIdentifiers:  public,
		PrivateIdentifiers: private,
	}, nil
}

// UpdateFile re-indexes one file regardless of its modification time.
func (c *Cache) UpdateFile(ctx context.Context, path string) error {
	path = source.NormalizePath(path)
	c.mu.Lock()
	defer c.mu.Unlock()

	defs, err := c.idx.DocumentSymbols(ctx, path)
	if err != nil {
		return err
	}
	var ids []string
	for _, d := range defs {
		if !slices.Contains(ids, d.Symbol) {
			ids = append(ids, d.Symbol)
		}
	}
	state, err := c.computeState(ctx, path, ids)
	if err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.storage.Update(func(tx Tx) error { return writeTx(tx, path, state) })
}

// UpdateFileState replaces the state of path and its reverse entries.
func (c *Cache) UpdateFileState(path string, state FileState) error {
	path = source.NormalizePath(path)
	state.Schema = schemaVersion
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.Update(func(tx Tx) error { return writeTx(tx, path, &state) })
}

// RemoveFile forgets path and the identifiers it provided.
func (c *Cache) RemoveFile(path string) error {
	path = source.NormalizePath(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.Update(func(tx Tx) error { return removeTx(tx, path) })
}

// RenameFile moves the state of oldPath to newPath, re-indexing the latter.
func (c *Cache) RenameFile(ctx context.Context, oldPath, newPath string) error {
	if err := c.RemoveFile(oldPath); err != nil {
		return err
	}
	return c.UpdateFile(ctx, newPath)
}

// Reset drops every entry.
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for _, prefix := range []string{fileStatePrefix, identifierPrefix} {
		k, err := c.storage.Keys(prefix)
		if err != nil {
			return err
		}
		keys = append(keys, k...)
	}
	return c.storage.Update(func(tx Tx) error {
		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// FileState returns the stored state of path. Entries from another schema
// version read as missing.
func (c *Cache) FileState(path string) (FileState, bool, error) {
	raw, ok, err := c.storage.Get(fileStateKey(source.NormalizePath(path)))
	if err != nil || !ok {
		return FileState{}, false, err
	}
	state, err := decodeState(raw)
	if errors.Is(err, ErrSchemaMismatch) {
		return FileState{}, false, nil
	}
	if err != nil {
		return FileState{}, false, err
	}
	return *state, true, nil
}

// HasFileState reports whether path has a current state.
func (c *Cache) HasFileState(path string) bool {
	_, ok, err := c.FileState(path)
	return ok && err == nil
}

// FilePaths lists every indexed file, sorted.
func (c *Cache) FilePaths() ([]string, error) {
	return trimmedKeys(c.storage, fileStatePrefix)
}

// Identifiers lists every provided identifier, sorted.
func (c *Cache) Identifiers() ([]string, error) {
	return trimmedKeys(c.storage, identifierPrefix)
}

// ProvidedIdentifiers returns the public identifiers of path.
func (c *Cache) ProvidedIdentifiers(path string) ([]string, error) {
	state, _, err := c.FileState(path)
	return state.PublicIdentifiers, err
}

// ProvidersForIdentifier lists the files providing id, sorted.
func (c *Cache) ProvidersForIdentifier(id string) ([]string, error) {
	raw, ok, err := c.storage.Get(identifierKey(id))
	if err != nil || !ok {
		return nil, err
	}
	var paths []string
	if err := msgpack.Unmarshal(raw, &paths); err != nil {
		return nil, fmt.Errorf("decode providers of %s: %w", id, err)
	}
	return paths, nil
}

// FilePathForIdentifier returns the first file providing id.
func (c *Cache) FilePathForIdentifier(id string) (string, bool, error) {
	paths, err := c.ProvidersForIdentifier(id)
	if err != nil || len(paths) == 0 {
		return "", false, err
	}
	return paths[0], true, nil
}

// ImportedIdentifiers returns every identifier visible in path: all of its
// own, plus the public identifiers of everything it imports, transitively.
// Import cycles are followed once.
func (c *Cache) ImportedIdentifiers(path string) ([]string, error) {
	path = source.NormalizePath(path)
	state, ok, err := c.FileState(path)
	if err != nil || !ok {
		return nil, err
	}
	ids := make(map[string]struct{})
	for _, id := range state.PublicIdentifiers {
		ids[id] = struct{}{}
	}
	for _, id := range state.PrivateIdentifiers {
		ids[id] = struct{}{}
	}
	seen := map[string]struct{}{path: {}}
	for _, imp := range state.ImportedPaths {
		if err := c.collectImported(imp, seen, ids); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

func (c *Cache) collectImported(path string, seen, ids map[string]struct{}) error {
	if _, ok := seen[path]; ok {
		return nil
	}
	seen[path] = struct{}{}
	state, ok, err := c.FileState(path)
	if err != nil || !ok {
		return err
	}
	for _, id := range state.PublicIdentifiers {
		ids[id] = struct{}{}
	}
	for _, imp := range state.ImportedPaths {
		if err := c.collectImported(imp, seen, ids); err != nil {
			return err
		}
	}
	return nil
}

func trimmedKeys(s Storage, prefix string) ([]string, error) {
	keys, err := s.Keys(prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, prefix)
	}
	return keys, nil
}

// decodeState returns the decoded state even on ErrSchemaMismatch so that
// stale entries can still be cleaned up.
func decodeState(raw []byte) (*FileState, error) {
	var state FileState
	if err := msgpack.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode file state: %w", err)
	}
	if state.Schema != schemaVersion {
		return &state, ErrSchemaMismatch
	}
	return &state, nil
}

// removeTx deletes the state of path and its entries in the reverse index.
func removeTx(tx Tx, path string) error {
	raw, ok, err := tx.Get(fileStateKey(path))
	if err != nil || !ok {
		return err
	}
	if state, _ := decodeState(raw); state != nil {
		for _, id := range state.PublicIdentifiers {
			if err := dropProvider(tx, id, path); err != nil {
				return err
			}
		}
	}
	return tx.Delete(fileStateKey(path))
}

// writeTx replaces the state of path; the old reverse entries go first.
func writeTx(tx Tx, path string, state *FileState) error {
	if err := removeTx(tx, path); err != nil {
		return err
	}
	raw, err := msgpack.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode file state: %w", err)
	}
	if err := tx.Set(fileStateKey(path), raw); err != nil {
		return err
	}
	for _, id := range state.PublicIdentifiers {
		if err := addProvider(tx, id, path); err != nil {
			return err
		}
	}
	return nil
}

func providersTx(tx Tx, id string) ([]string, error) {
	raw, ok, err := tx.Get(identifierKey(id))
	if err != nil || !ok {
		return nil, err
	}
	var paths []string
	if err := msgpack.Unmarshal(raw, &paths); err != nil {
		return nil, fmt.Errorf("decode providers of %s: %w", id, err)
	}
	return paths, nil
}

func addProvider(tx Tx, id, path string) error {
	paths, err := providersTx(tx, id)
	if err != nil {
		return err
	}
	i, found := slices.BinarySearch(paths, path)
	if found {
		return nil
	}
	paths = slices.Insert(paths, i, path)
	raw, err := msgpack.Marshal(paths)
	if err != nil {
		return err
	}
	return tx.Set(identifierKey(id), raw)
}

func dropProvider(tx Tx, id, path string) error {
	paths, err := providersTx(tx, id)
	if err != nil {
		return err
	}
	i, found := slices.BinarySearch(paths, path)
	if !found {
		return nil
	}
	paths = slices.Delete(paths, i, i+1)
	if len(paths) == 0 {
		return tx.Delete(identifierKey(id))
	}
	raw, err := msgpack.Marshal(paths)
	if err != nil {
		return err
	}
	return tx.Set(identifierKey(id), raw)
}
