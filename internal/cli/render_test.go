package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "json", []string{"json"}},
		{"multiple formats", "svg,dot,json", []string{"svg", "dot", "json"}},
		{"spaces and empties", " svg, ,dot-svg ", []string{"svg", "dot-svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseFormats(tt.input)); diff != "" {
				t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeTopology(t, dir)
	out := filepath.Join(dir, "out")

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"render", input, "--no-cache", "-f", "json,svg,dot", "-o", out})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	if _, err := graph.ReadLayoutFile(filepath.Join(out, "vl.layout.json")); err != nil {
		t.Errorf("layout json: %v", err)
	}
	svg, err := os.ReadFile(filepath.Join(out, "vl.svg"))
	if err != nil || !strings.Contains(string(svg), "<svg") {
		t.Errorf("svg: err = %v", err)
	}
	dot, err := os.ReadFile(filepath.Join(out, "vl.dot"))
	if err != nil || !strings.HasPrefix(string(dot), "graph G {") {
		t.Errorf("dot: err = %v, content %q", err, dot)
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	input := writeTopology(t, t.TempDir())
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetErr(io.Discard)
	root.SetArgs([]string{"render", input, "--no-cache", "-f", "gif"})
	if err := root.Execute(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}
