package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pack"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Weights() != pack.DefaultWeights() {
		t.Errorf("Weights() = %+v", cfg.Weights())
	}
	if cfg.TimeLimit() != pack.DefaultTimeLimit {
		t.Errorf("TimeLimit() = %v", cfg.TimeLimit())
	}
	if ttl, _ := cfg.CacheTTL(); ttl != DefaultCacheTTL {
		t.Errorf("CacheTTL() = %v", ttl)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[solver]
wire_weight = 1.5
time_limit_seconds = 0.5
max_nodes = 300

[cluster]
orphans = "singleton"

[[classifier.rules]]
kind = "ferrite"
prefix = "FB"

[board]
padding = 0.25

[edge]
patterns = ["J*"]

[cache]
backend = "none"
ttl = "1h"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}
	opts := cfg.PackOptions()
	if opts.Weights.Size != pack.DefaultSizeWeight || opts.Weights.Wire != 1.5 {
		t.Errorf("Weights = %+v, want size default and wire 1.5", opts.Weights)
	}
	if opts.TimeLimit != 500*time.Millisecond || opts.MaxNodes != 300 {
		t.Errorf("PackOptions() = %+v", opts)
	}
	if cfg.Cluster.Orphans != cluster.OrphanSingleton {
		t.Errorf("Orphans = %q", cfg.Cluster.Orphans)
	}
	if !cfg.NewClassifier().IsBasic("FB3") {
		t.Error("extra rule not applied")
	}
	if cfg.Board.Padding != 0.25 || len(cfg.Edge.Patterns) != 1 {
		t.Errorf("board/edge = %+v %+v", cfg.Board, cfg.Edge)
	}
	if ttl, _ := cfg.CacheTTL(); ttl != time.Hour {
		t.Errorf("CacheTTL() = %v", ttl)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("unset section lost its default: %q", cfg.Server.Addr)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should not fail: %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty", cfg.Path)
	}

	_, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[solver]\nsize_wieght = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("got %v, want INVALID_CONFIG", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"negative weight", "[solver]\nsize_weight = -1"},
		{"negative time", "[solver]\ntime_limit_seconds = -2"},
		{"orphans", "[cluster]\norphans = \"keep\""},
		{"empty rule", "[[classifier.rules]]\nkind = \"x\""},
		{"padding", "[board]\npadding = -0.1"},
		{"workers", "[compose]\nworkers = -1"},
		{"backend", "[cache]\nbackend = \"memcached\""},
		{"ttl", "[cache]\nttl = \"soon\""},
		{"syntax", "[solver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestCacheDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	cfg := Default()
	if got, want := cfg.CacheDir(), filepath.Join(xdg, AppName); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
	cfg.Cache.Dir = "/tmp/bp"
	if got := cfg.CacheDir(); got != "/tmp/bp" {
		t.Errorf("CacheDir() = %q", got)
	}
}
