// Package session assembles the per-workspace engine: file set, text search,
// resolver and symbol cache, all rooted at one project.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fracas/internal/project"
	"fracas/internal/resolve"
	"fracas/internal/search"
	"fracas/internal/source"
	"fracas/internal/symcache"
	"fracas/internal/watch"
)

// Options configure Open.
type Options struct {
	Logger *slog.Logger
	// MemoryCache keeps the symbol cache in memory even when the project
	// asks for a persistent one.
	MemoryCache bool
	// Warn receives resolver warnings meant for the user.
	Warn func(message string)
}

// Session is everything needed to answer queries about one project.
type Session struct {
	Workspace *project.Workspace
	Filter    *project.Filter
	Files     *source.FileSet
	Search    *search.Engine
	Resolver  *resolve.Resolver
	Cache     *symcache.Cache
	logger    *slog.Logger
}

// Open resolves the project containing startDir and wires its engine.
func Open(startDir string, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ws, err := project.Open(startDir)
	if err != nil {
		return nil, err
	}
	cfg := ws.Config
	filter := project.NewFilter(ws.Root, cfg.Search)
	files := source.NewFileSet()
	engine := search.NewEngine(files, filter, logger)
	r := resolve.New(resolve.Config{
		Root:               ws.Root,
		Files:              files,
		Search:             engine,
		Logger:             logger,
		ImportPrefix:       cfg.Imports.Prefix,
		Extension:          cfg.Search.Extension,
		MinCompletionChars: cfg.Completion.MinChars,
		Warn:               opts.Warn,
	})
	storage := openStorage(ws, opts.MemoryCache, logger)
	return &Session{
		Workspace: ws,
		Filter:    filter,
		Files:     files,
		Search:    engine,
		Resolver:  r,
		Cache:     symcache.New(storage, r, logger),
		logger:    logger,
	}, nil
}

// openStorage falls back to memory when the badger directory is unusable,
// typically because another process holds its lock.
func openStorage(ws *project.Workspace, memory bool, logger *slog.Logger) symcache.Storage {
	if memory || !ws.Config.Cache.Persist {
		return symcache.NewMemoryStorage()
	}
	s, err := symcache.OpenBadger(ws.CacheDir())
	if err != nil {
		logger.Warn("session: persistent cache unavailable, using memory", "dir", ws.CacheDir(), "err", err)
		return symcache.NewMemoryStorage()
	}
	return s
}

// Root returns the project root directory.
func (s *Session) Root() string { return s.Workspace.Root }

// Index brings the symbol cache up to date with the project files.
func (s *Session) Index(ctx context.Context) (symcache.UpdateStats, error) {
	paths, err := s.Search.Files(ctx)
	if err != nil {
		return symcache.UpdateStats{}, fmt.Errorf("list project files: %w", err)
	}
	return s.Cache.UpdateAll(ctx, paths)
}

// Watcher returns a filesystem watcher that keeps the cache current.
func (s *Session) Watcher(opts watch.Options) *watch.Watcher {
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	return watch.New(s.Filter, s.Cache, opts)
}

// Close releases the cache storage.
func (s *Session) Close() error {
	return s.Cache.Close()
}
