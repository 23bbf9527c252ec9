package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/singleline/internal/testgraph"
	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
)

// writeTopology writes the one-feeder voltage level to dir and returns its
// path.
func writeTopology(t *testing.T, dir string) string {
	t.Helper()
	g := graph.FromGraph(testgraph.FeederCell().G)
	path := filepath.Join(dir, "vl.json")
	if err := graph.WriteTopologyFile(graph.Topology{VoltageLevel: &g}, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"layout", "render", "inspect", "hints", "cache", "serve", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommandVerbose(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"-v", "cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestCachePathCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); !strings.HasSuffix(got, appName) {
		t.Errorf("cache path = %q", got)
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeTopology(t, dir)
	output := filepath.Join(dir, "out.json")

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"layout", input, "--no-cache", "-o", output})
	if err := root.Execute(); err != nil {
		t.Fatalf("layout: %v", err)
	}

	l, err := graph.ReadLayoutFile(output)
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if l.Scope != graph.ScopeVoltageLevel || len(l.VoltageLevels) != 1 {
		t.Errorf("layout = %s with %d voltage levels", l.Scope, len(l.VoltageLevels))
	}
}

func TestLayoutCommandBadStrategy(t *testing.T) {
	input := writeTopology(t, t.TempDir())
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"layout", input, "--no-cache", "--strategy", "random"})
	root.SetErr(io.Discard)
	if err := root.Execute(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestHintsCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeTopology(t, dir)

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"hints", input})
	if err := root.Execute(); err != nil {
		t.Fatalf("hints: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "vl.hints.toml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[[feeder]]", `node = "load"`, "[[bus]]"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("hints file misses %q:\n%s", want, data)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"memory\"\nentries = 16\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.ConfigPath = path
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.Entries != 16 {
		t.Errorf("cache config = %+v", cfg.Cache)
	}

	if err := os.WriteFile(path, []byte("[cache]\nbackedn = \"memory\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.loadConfig(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown key: err = %v", err)
	}

	c.ConfigPath = filepath.Join(dir, "missing.toml")
	if _, err := c.loadConfig(); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestLoadConfigDefaultMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := New(io.Discard, LogInfo).loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cache.Backend != "" {
		t.Errorf("backend = %q, want empty", cfg.Cache.Backend)
	}
}
