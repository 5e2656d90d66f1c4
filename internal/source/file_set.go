package source

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// FileSet holds the workspace view of source files: editor overlays shadow the
// disk copies, which are reloaded when their modification time changes.
// Safe for concurrent use.
type FileSet struct {
	mu       sync.RWMutex
	overlays map[string]*File
	disk     map[string]*File
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		overlays: make(map[string]*File),
		disk:     make(map[string]*File),
	}
}

func newFile(path string, content []byte, flags FileFlags, modTime time.Time) *File {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return &File{
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		ModTime: modTime,
		Flags:   flags,
	}
}

// Open installs an editor buffer for path; it wins over the disk copy until Close.
func (fileSet *FileSet) Open(path string, text string) *File {
	key := NormalizePath(path)
	f := newFile(key, []byte(text), FileOverlay, time.Now())
	fileSet.mu.Lock()
	fileSet.overlays[key] = f
	fileSet.mu.Unlock()
	return f
}

// Close drops the editor buffer for path.
func (fileSet *FileSet) Close(path string) {
	key := NormalizePath(path)
	fileSet.mu.Lock()
	delete(fileSet.overlays, key)
	fileSet.mu.Unlock()
}

// IsOpen reports whether path has an editor buffer.
func (fileSet *FileSet) IsOpen(path string) bool {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	_, ok := fileSet.overlays[NormalizePath(path)]
	return ok
}

// AddVirtual adds a file that exists only in memory (tests, stdin).
func (fileSet *FileSet) AddVirtual(name string, content []byte) *File {
	key := NormalizePath(name)
	f := newFile(key, content, FileVirtual, time.Now())
	fileSet.mu.Lock()
	fileSet.overlays[key] = f
	fileSet.mu.Unlock()
	return f
}

// Load returns the current content of path: the overlay when open, otherwise
// the disk copy, re-read when the file changed since the last load.
func (fileSet *FileSet) Load(path string) (*File, error) {
	key := NormalizePath(path)
	fileSet.mu.RLock()
	if f, ok := fileSet.overlays[key]; ok {
		fileSet.mu.RUnlock()
		return f, nil
	}
	cached := fileSet.disk[key]
	fileSet.mu.RUnlock()

	info, err := os.Stat(key)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", key)
	}
	if cached != nil && cached.ModTime.Equal(info.ModTime()) {
		return cached, nil
	}

	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(key)
	if err != nil {
		return nil, err
	}
	f := newFile(key, content, 0, info.ModTime())

	fileSet.mu.Lock()
	fileSet.disk[key] = f
	fileSet.mu.Unlock()
	return f, nil
}

// Stat returns the on-disk modification time of path.
func (fileSet *FileSet) Stat(path string) (time.Time, error) {
	info, err := os.Stat(NormalizePath(path))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Invalidate forgets the cached disk copy of path.
func (fileSet *FileSet) Invalidate(path string) {
	key := NormalizePath(path)
	fileSet.mu.Lock()
	delete(fileSet.disk, key)
	fileSet.mu.Unlock()
}

// Overlays returns the paths of all in-memory buffers, sorted.
func (fileSet *FileSet) Overlays() []string {
	fileSet.mu.RLock()
	paths := make([]string, 0, len(fileSet.overlays))
	for p := range fileSet.overlays {
		paths = append(paths, p)
	}
	fileSet.mu.RUnlock()
	sort.Strings(paths)
	return paths
}
