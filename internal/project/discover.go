package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	".fracas":      {},
	"build":        {},
	"dist":         {},
}

// Filter decides which directories and files belong to a project.
type Filter struct {
	root      string
	extension string
	gitignore *ignore.GitIgnore
	exclude   *ignore.GitIgnore
}

// NewFilter builds a filter from the project's .gitignore and the
// configured exclude patterns.
func NewFilter(root string, cfg SearchConfig) *Filter {
	ext := cfg.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	f := &Filter{root: root, extension: ext}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		f.gitignore = gi
	}
	if len(cfg.Exclude) > 0 {
		f.exclude = ignore.CompileIgnoreLines(cfg.Exclude...)
	}
	return f
}

// Root returns the directory the filter is relative to.
func (f *Filter) Root() string { return f.root }

// Extension returns the source file extension, including the dot.
func (f *Filter) Extension() string { return f.extension }

func (f *Filter) ignored(path string) bool {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	if rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	if f.gitignore != nil && f.gitignore.MatchesPath(rel) {
		return true
	}
	return f.exclude != nil && f.exclude.MatchesPath(rel)
}

// SkipDir reports whether the directory at path is left out of the project.
func (f *Filter) SkipDir(path string) bool {
	if filepath.Clean(path) == filepath.Clean(f.root) {
		return false
	}
	name := filepath.Base(path)
	if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
		return true
	}
	return f.ignored(path)
}

// Match reports whether the file at path is a project source file.
func (f *Filter) Match(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != f.extension {
		return false
	}
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		rel, err := filepath.Rel(f.root, dir)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			break
		}
		if f.SkipDir(dir) {
			return false
		}
	}
	return !f.ignored(path)
}

// Discover lists the absolute paths of all project source files under the
// filter's root, sorted.
func Discover(ctx context.Context, filter *Filter) ([]string, error) {
	root := filter.Root()
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoProject, root)
	}

	var results []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path != root && filter.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != filter.Extension() {
			return nil
		}
		if filter.ignored(path) {
			return nil
		}
		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(results)
	return results, nil
}
