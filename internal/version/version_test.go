package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestColored(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	t.Cleanup(func() {
		Version = origVersion
		color.NoColor = origNoColor
	})

	color.NoColor = true
	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.2.3-rc.1+build.123", "nightly", "1.2"} {
		Version = v
		if got := Colored(); got != v {
			t.Errorf("Colored() without color = %q, want %q", got, v)
		}
	}

	color.NoColor = false
	Version = "1.2.3-rc.1"
	got := Colored()
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-rc.1") {
		t.Fatalf("Colored() = %q, want escape codes and a plain suffix", got)
	}
	Version = "nightly"
	if got := Colored(); got != "nightly" {
		t.Fatalf("Colored() for non-semver = %q", got)
	}
}
