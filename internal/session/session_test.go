package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fracas/internal/symcache"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestOpenIndexesIntoPersistentCache(t *testing.T) {
	root := writeProject(t, map[string]string{
		"fracas.toml":      "[project]\nname = \"game\"\n",
		"fracas/types.frc": "(provide (all-defined-out))\n(define-type unit\n  ((hp int)))\n",
		"main.frc":         "(import types)\n(define u (unit: #:hp 1))\n",
	})

	s, err := Open(filepath.Join(root, "fracas"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Root() != root {
		t.Fatalf("root = %q, want %q", s.Root(), root)
	}
	if _, ok := s.Cache.Storage().(*symcache.BadgerStorage); !ok {
		t.Fatalf("storage = %T, want badger", s.Cache.Storage())
	}

	stats, err := s.Index(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Added != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	ids, err := s.Cache.ImportedIdentifiers(filepath.Join(root, "main.frc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "u" || ids[1] != "unit" {
		t.Fatalf("imported identifiers = %v", ids)
	}

	// the badger directory is locked while s is open
	second, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := second.Cache.Storage().(*symcache.MemoryStorage); !ok {
		t.Fatalf("second storage = %T, want memory fallback", second.Cache.Storage())
	}
	_ = second.Close()

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	stats, err = reopened.Index(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Unchanged != 2 || stats.Added != 0 {
		t.Fatalf("reopened stats = %+v", stats)
	}
}

func TestOpenWithoutManifestUsesDefaults(t *testing.T) {
	root := writeProject(t, map[string]string{"a.frc": "(define a 1)\n"})
	s, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.Cache.Storage().(*symcache.BadgerStorage); !ok {
		t.Fatalf("storage = %T", s.Cache.Storage())
	}

	mem, err := Open(root, Options{MemoryCache: true})
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Close()
	if _, ok := mem.Cache.Storage().(*symcache.MemoryStorage); !ok {
		t.Fatalf("storage = %T", mem.Cache.Storage())
	}
}
