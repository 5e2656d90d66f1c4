// Package watch keeps the symbol cache in step with the project tree using
// filesystem notifications.
package watch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"fracas/internal/project"
	"fracas/internal/source"
)

// DefaultDebounce is how long a path must stay quiet before its change is applied.
const DefaultDebounce = 200 * time.Millisecond

// Target receives the coalesced changes. *symcache.Cache implements it.
type Target interface {
	UpdateFile(ctx context.Context, path string) error
	RemoveFile(path string) error
}

// Op is the action applied to a changed path.
type Op uint8

const (
	OpUpdate Op = iota + 1
	OpRemove
)

func (op Op) String() string {
	switch op {
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	default:
		return "none"
	}
}

// Event reports one applied change.
type Event struct {
	Path string
	Op   Op
	Err  error
}

// Options tune a Watcher. Zero values take the defaults.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// OnEvent is called after each change is applied.
	OnEvent func(Event)
}

// Watcher maps filesystem events under a project root onto cache updates.
type Watcher struct {
	filter   *project.Filter
	target   Target
	debounce time.Duration
	logger   *slog.Logger
	onEvent  func(Event)
	ready    chan struct{}
}

// New creates a watcher over the files accepted by filter.
func New(filter *project.Filter, target Target, opts Options) *Watcher {
	w := &Watcher{
		filter:   filter,
		target:   target,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onEvent:  opts.OnEvent,
		ready:    make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

// Ready is closed once the initial directory watches are in place.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is cancelled and returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addTree(ctx, fw, w.filter.Root(), nil); err != nil {
		return err
	}
	close(w.ready)
	w.logger.Debug("watch: started", "root", w.filter.Root())

	pending := make(map[string]Op)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.queue(ctx, fw, ev, pending) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch: notification error", "err", err)
		case <-timer.C:
			w.flush(ctx, pending)
		}
	}
}

// queue records ev in pending and reports whether anything changed.
func (w *Watcher) queue(ctx context.Context, fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]Op) bool {
	path := source.NormalizePath(ev.Name)
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.filter.SkipDir(path) {
				return false
			}
			// files written before the watch was added would be missed
			before := len(pending)
			if err := w.addTree(ctx, fw, path, pending); err != nil {
				w.logger.Warn("watch: cannot watch directory", "path", path, "err", err)
			}
			return len(pending) != before
		}
	}
	if !w.filter.Match(path) {
		return false
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		pending[path] = OpRemove
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		pending[path] = OpUpdate
	default:
		return false
	}
	return true
}

func (w *Watcher) flush(ctx context.Context, pending map[string]Op) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		op := pending[p]
		delete(pending, p)
		var err error
		if op == OpRemove {
			err = w.target.RemoveFile(p)
		} else {
			err = w.target.UpdateFile(ctx, p)
			if errors.Is(err, fs.ErrNotExist) {
				op, err = OpRemove, w.target.RemoveFile(p)
			}
		}
		if err != nil {
			w.logger.Warn("watch: apply change failed", "path", p, "op", op.String(), "err", err)
		} else {
			w.logger.Debug("watch: applied", "path", p, "op", op.String())
		}
		if w.onEvent != nil {
			w.onEvent(Event{Path: p, Op: op, Err: err})
		}
	}
}

// addTree watches root and every project directory below it. Source files
// found along the way are queued when pending is non-nil.
func (w *Watcher) addTree(ctx context.Context, fw *fsnotify.Watcher, root string, pending map[string]Op) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if pending != nil && w.filter.Match(path) {
				pending[source.NormalizePath(path)] = OpUpdate
			}
			return nil
		}
		if path != w.filter.Root() && w.filter.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.logger.Warn("watch: cannot watch directory", "path", path, "err", err)
		}
		return nil
	})
}
