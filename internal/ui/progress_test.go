package ui

import (
	"path/filepath"
	"strings"
	"testing"

	"fracas/internal/symcache"
)

func TestIndexModelCountsEvents(t *testing.T) {
	root := filepath.FromSlash("/project")
	m := NewIndexModel("indexing", root, 3, nil).(*indexModel)

	for _, ev := range []Event{
		{Path: filepath.Join(root, "a.frc"), Status: symcache.StatusIndexed},
		{Path: filepath.Join(root, "sub", "b.frc"), Status: symcache.StatusUnchanged},
		{Path: filepath.Join(root, "gone.frc"), Status: symcache.StatusRemoved},
	} {
		m.applyEvent(ev)
	}
	if m.seen != 2 {
		t.Fatalf("seen = %d, want 2", m.seen)
	}

	m.Update(doneMsg{})
	view := m.View()
	for _, want := range []string{"done: indexing (2/3)", "sub/b.frc", "1 indexed, 1 unchanged, 1 removed, 0 failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestIndexModelKeepsRecentFiles(t *testing.T) {
	m := NewIndexModel("indexing", "", 100, nil).(*indexModel)
	for i := 0; i < maxRecent+5; i++ {
		m.applyEvent(Event{Path: string(rune('a'+i)) + ".frc", Status: symcache.StatusIndexed})
	}
	if len(m.recent) != maxRecent || m.recent[0].Path != string(rune('a'+5))+".frc" {
		t.Fatalf("recent = %+v", m.recent)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.frc", 20, "short.frc"},
		{"a/very/long/path.frc", 10, "a/very/..."},
		{"abcdef", 2, "ab"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
