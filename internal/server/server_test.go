package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/internal/testgraph"
	"github.com/matzehuels/singleline/pkg/cache"
	"github.com/matzehuels/singleline/pkg/graph"
	sldio "github.com/matzehuels/singleline/pkg/io"
	"github.com/matzehuels/singleline/pkg/observability"
	"github.com/matzehuels/singleline/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	c, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(New(pipeline.NewRunner(c, nil, nil), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func topologyBody(t *testing.T, extra map[string]any) []byte {
	t.Helper()
	g := graph.FromGraph(testgraph.FeederCell().G)
	body := map[string]any{"topology": graph.Topology{VoltageLevel: &g}}
	for k, v := range extra {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func post(t *testing.T, srv *httptest.Server, path string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestLayout(t *testing.T) {
	srv := newTestServer(t)
	body := topologyBody(t, map[string]any{"formats": []string{"json", "svg", "dot"}})

	resp := post(t, srv, "/v1/layout", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[LayoutResponse](t, resp)
	if got.RunID == "" || got.Cached {
		t.Errorf("run id %q, cached %v", got.RunID, got.Cached)
	}
	if got.Layout.Scope != graph.ScopeVoltageLevel || len(got.Layout.VoltageLevels) != 1 {
		t.Errorf("layout = %+v", got.Layout)
	}
	if _, ok := got.Artifacts["json"]; ok {
		t.Error("json artifact duplicates the layout")
	}
	if !strings.Contains(got.Artifacts["svg"], "<svg") {
		t.Error("svg artifact missing")
	}
	if got.Stats.Nodes != 4 || got.Stats.VoltageLevels != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}

	again := decode[LayoutResponse](t, post(t, srv, "/v1/layout", body))
	if !again.Cached {
		t.Error("second request missed the layout cache")
	}
	if diff := cmp.Diff(got.Layout, again.Layout); diff != "" {
		t.Errorf("cached layout differs (-first +second):\n%s", diff)
	}
}

func TestLayoutParamsOverlay(t *testing.T) {
	srv := newTestServer(t)
	narrow := decode[LayoutResponse](t, post(t, srv, "/v1/layout", topologyBody(t, nil)))
	wide := decode[LayoutResponse](t, post(t, srv, "/v1/layout", topologyBody(t, map[string]any{
		"params": map[string]any{"cell_width": 120},
	})))
	if wide.Layout.Width <= narrow.Layout.Width {
		t.Errorf("width %v with cell_width 120, %v with defaults", wide.Layout.Width, narrow.Layout.Width)
	}
}

func TestLayoutErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name   string
		body   []byte
		status int
		code   string
	}{
		{"malformed", []byte("{"), http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", []byte(`{"input": "/etc/passwd"}`), http.StatusBadRequest, "INVALID_FORMAT"},
		{"no topology", []byte(`{"formats": ["svg"]}`), http.StatusBadRequest, "INVALID_INPUT"},
		{"bad format", topologyBody(t, map[string]any{"formats": []string{"gif"}}), http.StatusBadRequest, "INVALID_INPUT"},
		{"bad params", topologyBody(t, map[string]any{"params": map[string]any{"cell_width": -1}}), http.StatusBadRequest, "INVALID_INPUT"},
		{"bad strategy", topologyBody(t, map[string]any{"strategy": "random"}), http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/v1/layout", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := decode[ErrorResponse](t, resp); got.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", got.Code, tt.code, got.Error)
			}
		})
	}
}

func TestLayoutContentType(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/v1/layout", "text/plain", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestHints(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv, "/v1/hints", topologyBody(t, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	h := decode[sldio.Hints](t, resp)
	if len(h.Feeders) != 1 || h.Feeders[0].Node != "load" {
		t.Errorf("hints = %+v", h)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	h := New(pipeline.NewRunner(nil, nil, nil), nil).Handler()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	req := httptest.NewRequest(http.MethodPost, "/v1/layout", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if diff := cmp.Diff([]int{200, 400}, hooks.statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}
