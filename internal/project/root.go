package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file marking the root of a fracas project.
const ManifestName = "fracas.toml"

// ErrNoProject reports a project root that does not exist or is not a directory.
var ErrNoProject = errors.New("no fracas project")

// FindManifest walks up from startDir to locate fracas.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectRoot returns the directory containing fracas.toml, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// Workspace is a resolved project: its root directory and effective configuration.
type Workspace struct {
	Root         string
	ManifestPath string // empty when running on defaults
	Config       Config
}

// Open resolves the project containing startDir. Without a fracas.toml the
// workspace is rooted at startDir itself and uses the default configuration.
func Open(startDir string) (*Workspace, error) {
	if startDir == "" {
		startDir = "."
	}
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoProject, abs)
		}
		return nil, fmt.Errorf("failed to stat %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoProject, abs)
	}

	manifestPath, ok, err := FindManifest(abs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Workspace{Root: abs, Config: DefaultConfig()}, nil
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:         filepath.Dir(manifestPath),
		ManifestPath: manifestPath,
		Config:       cfg,
	}, nil
}

// CacheDir returns the absolute directory of the persistent symbol cache.
func (w *Workspace) CacheDir() string {
	dir := w.Config.Cache.Dir
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(w.Root, filepath.FromSlash(dir))
}
