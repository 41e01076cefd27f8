package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/worldloom/worldloom/pkg/core/layout"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := "/tmp/custom-cache"
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestOutputPaths(t *testing.T) {
	all := []layout.Strategy{layout.Circular, layout.ForceDirected, layout.Hierarchical}

	tests := []struct {
		name       string
		input      string
		worldID    string
		output     string
		strategies []layout.Strategy
		want       []string
	}{
		{"from input", "worlds/eldoria.yaml", "eldoria", "", all[:1], []string{"worlds/eldoria.layout.json"}},
		{"from world id", "", "eldoria", "", all[2:], []string{"eldoria.layout.json"}},
		{"explicit", "eldoria.json", "eldoria", "out.json", all[1:2], []string{"out.json"}},
		{"all", "eldoria.json", "eldoria", "out.json", all, []string{"out.circular.json", "out.force.json", "out.hierarchical.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.worldID, tt.output, tt.strategies)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("outputPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}
