package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/cache"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/config"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pack"
	"github.com/matzehuels/boardpack/pkg/pipeline"
)

const testBoard = `name = "cli-test"

[[components]]
ref = "U1"
footprint = "SOIC-8"
width = 3.0
height = 2.0

[[components]]
ref = "C1"
width = 1.0
height = 0.5

[[components]]
ref = "J1"
footprint = "JST-2"
width = 2.0
height = 1.5

[[connections]]
a = "U1"
b = "C1"
`

// isolate points config and cache lookups at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{"SVG, pdf ,,xlsx", []string{"svg", "pdf", "xlsx"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.input)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseScenarios(t *testing.T) {
	got, err := parseScenarios([]string{"tight=5:1", "wiry=0.5:10"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "tight" || got[1].Weights != (pack.Weights{Size: 0.5, Wire: 10}) {
		t.Errorf("parseScenarios() = %+v", got)
	}

	for _, bad := range []string{"nameless", "=1:2", "x=1", "x=a:b", "x=-1:2"} {
		if _, err := parseScenarios([]string{bad}); err == nil {
			t.Errorf("parseScenarios(%q) should fail", bad)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		input, output, format string
		single                bool
		want                  string
	}{
		{"boards/node.toml", "", "svg", true, "boards/node.svg"},
		{"node.layout.json", "", "pdf", false, "node.pdf"},
		{"node.toml", "out/board.svg", "svg", true, "out/board.svg"},
		{"node.toml", "out/board.svg", "pdf", false, "out/board.pdf"},
	}
	for _, tt := range tests {
		if got := artifactPath(tt.input, tt.output, tt.format, tt.single); got != tt.want {
			t.Errorf("artifactPath(%q, %q, %q) = %q, want %q", tt.input, tt.output, tt.format, got, tt.want)
		}
	}
}

func TestOptionsLayering(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cfg, err := config.Parse("[solver]\nmax_nodes = 50\n[board]\npadding = 0.3\n")
	if err != nil {
		t.Fatal(err)
	}
	c.cfg = cfg

	opts := c.options(&runFlags{padding: -1})
	if opts.MaxNodes != 50 || opts.Padding != 0.3 || opts.Weights != pack.DefaultWeights() {
		t.Errorf("config not applied: %+v", opts)
	}

	opts = c.options(&runFlags{wireWeight: 9, padding: 0, orphans: "singleton", edge: []string{"J*"}, maxNodes: 7})
	if opts.Weights.Wire != 9 || opts.Padding != 0 || opts.Orphans != cluster.OrphanSingleton ||
		opts.MaxNodes != 7 || len(opts.EdgePatterns) != 1 {
		t.Errorf("flags not applied: %+v", opts)
	}
}

func TestNewCache(t *testing.T) {
	dir := isolate(t)
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	ch, err := c.newCache(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ch.(cache.NullCache); !ok {
		t.Errorf("--no-cache gave %T", ch)
	}

	ch, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := ch.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if n := countEntries(filepath.Join(dir, "cache", appName)); n != 1 {
		t.Errorf("file cache entries = %d, want 1", n)
	}

	c.cfg.Cache.Backend = config.BackendRedis
	c.cfg.Cache.RedisAddr = "127.0.0.1:1"
	ch, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ch.(cache.NullCache); !ok {
		t.Errorf("unreachable redis should fall back to no cache, got %T", ch)
	}
}

func TestScenarioListModel(t *testing.T) {
	cs := []pipeline.Comparison{
		{Scenario: pipeline.Presets[0], Layout: &board.Layout{Width: 4, Height: 4}},
		{Scenario: pipeline.Presets[1], Layout: &board.Layout{Width: 3, Height: 3}},
	}
	m := NewScenarioListModel(cs)
	if m.Cursor != 1 || m.Best != 1 {
		t.Fatalf("cursor should start on the best layout: %+v", m)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := next.(ScenarioListModel).Selected; got != 0 {
		t.Errorf("Selected = %d, want 0", got)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
	if !strings.Contains(m.View(), "compact *") {
		t.Error("best scenario not marked in view")
	}

	quit, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if quit.(ScenarioListModel).Selected != -1 {
		t.Error("quit should leave nothing selected")
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "node.toml")
	if err := os.WriteFile(input, []byte(testBoard), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "layout", input, "--no-cache", "--max-nodes", "300", "-f", "svg,xlsx"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	l, err := board.ImportLayout(filepath.Join(dir, "node.layout.json"))
	if err != nil {
		t.Fatal(err)
	}
	if l.Board != "cli-test" || l.Stats.Placed != 3 {
		t.Errorf("layout = %+v", l.Stats)
	}
	for _, ext := range []string{"svg", "xlsx"} {
		if _, err := os.Stat(filepath.Join(dir, "node."+ext)); err != nil {
			t.Errorf("missing %s artifact: %v", ext, err)
		}
	}

	if _, err := execute(t, "render", filepath.Join(dir, "node.layout.json"), "-f", "pdf", "--no-cache"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "node.pdf")); err != nil {
		t.Errorf("render did not write pdf: %v", err)
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	dir := isolate(t)
	if _, err := execute(t, "layout", filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing board: got %v", err)
	}

	input := filepath.Join(dir, "node.toml")
	os.WriteFile(input, []byte(testBoard), 0o644)
	if _, err := execute(t, "layout", input, "-f", "png"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("png: got %v", err)
	}
}

func TestPackCommand(t *testing.T) {
	dir := isolate(t)
	req := filepath.Join(dir, "req.json")
	os.WriteFile(req, []byte(`{"rects": [[2,1],[1,1]], "wires": [], "constraints": [false, false]}`), 0o644)

	out, err := execute(t, "pack", req, "--no-cache")
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	var resp board.PackResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !resp.Success || len(resp.Positions) != 2 {
		t.Errorf("response = %+v", resp)
	}

	os.WriteFile(req, []byte(`{"rects": [[1,1]], "constraints": []}`), 0o644)
	out, err = execute(t, "pack", req, "--no-cache")
	if !errors.Is(err, errors.ErrCodeInvalidModel) {
		t.Errorf("mismatch: got %v", err)
	}
	if !strings.Contains(out, `"success": false`) {
		t.Errorf("failed solve should still print a response: %q", out)
	}
}

func TestGraphCommand(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "node.toml")
	os.WriteFile(input, []byte(testBoard), 0o644)

	if _, err := execute(t, "graph", input, "-f", "dot"); err != nil {
		t.Fatalf("graph: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "node.graph.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"U1" -- "C1"`) {
		t.Errorf("dot output:\n%s", data)
	}

	if _, err := execute(t, "graph", input, "-f", "png"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("png: got %v", err)
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, "cache", appName) {
		t.Errorf("cache path = %q", out)
	}

	cfgPath := filepath.Join(dir, "redis.toml")
	os.WriteFile(cfgPath, []byte("[cache]\nbackend = \"redis\"\nredis_addr = \"cache:6379\"\n"), 0o644)
	out, err = execute(t, "--config", cfgPath, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "redis://cache:6379" {
		t.Errorf("redis cache path = %q", out)
	}
}
