package project

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config mirrors fracas.toml.
type Config struct {
	Project    ProjectConfig    `toml:"project"`
	Search     SearchConfig     `toml:"search"`
	Imports    ImportsConfig    `toml:"imports"`
	Completion CompletionConfig `toml:"completion"`
	Cache      CacheConfig      `toml:"cache"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
}

// SearchConfig selects the files that make up a project.
type SearchConfig struct {
	Extension string   `toml:"extension"`
	Exclude   []string `toml:"exclude"` // gitignore-style patterns
}

type ImportsConfig struct {
	Prefix string `toml:"prefix"`
}

type CompletionConfig struct {
	MinChars int `toml:"min_chars"`
}

// CacheConfig controls the persistent symbol index.
type CacheConfig struct {
	Persist bool   `toml:"persist"`
	Dir     string `toml:"dir"`
}

// Defaults.
const (
	DefaultExtension    = ".frc"
	DefaultImportPrefix = "fracas/"
	DefaultMinChars     = 3
	DefaultCacheDir     = ".fracas/cache"
)

// DefaultConfig returns the configuration used when fracas.toml is absent or
// leaves a key out.
func DefaultConfig() Config {
	return Config{
		Search:     SearchConfig{Extension: DefaultExtension},
		Imports:    ImportsConfig{Prefix: DefaultImportPrefix},
		Completion: CompletionConfig{MinChars: DefaultMinChars},
		Cache:      CacheConfig{Persist: true, Dir: DefaultCacheDir},
	}
}

// LoadConfig parses fracas.toml at path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("search", "extension") {
		ext := strings.TrimSpace(cfg.Search.Extension)
		if ext == "" {
			return Config{}, fmt.Errorf("%s: [search].extension must not be empty", path)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Search.Extension = ext
	}
	if cfg.Completion.MinChars < 1 {
		return Config{}, fmt.Errorf("%s: [completion].min_chars must be >= 1", path)
	}
	if meta.IsDefined("cache", "dir") && strings.TrimSpace(cfg.Cache.Dir) == "" {
		return Config{}, fmt.Errorf("%s: [cache].dir must not be empty", path)
	}
	return cfg, nil
}
