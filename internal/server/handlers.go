package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
	sldio "github.com/matzehuels/singleline/pkg/io"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/pipeline"
)

// binaryFormats are returned base64 encoded.
var binaryFormats = []string{pipeline.FormatPNG, pipeline.FormatPDF}

// LayoutResponse is the body answered by POST /v1/layout.
type LayoutResponse struct {
	RunID     string            `json:"run_id"`
	Layout    graph.Layout      `json:"layout"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Cached    bool              `json:"cached"`
	Stats     Stats             `json:"stats"`
}

// Stats summarizes a pipeline run.
type Stats struct {
	VoltageLevels int     `json:"voltage_levels"`
	Nodes         int     `json:"nodes"`
	Edges         int     `json:"edges"`
	LayoutMillis  float64 `json:"layout_ms"`
	RenderMillis  float64 `json:"render_ms"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatJSON}
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := LayoutResponse{
		RunID:     result.RunID,
		Layout:    result.Layout,
		Artifacts: make(map[string]string, len(result.Artifacts)),
		Cached:    result.CacheInfo.LayoutHit,
		Stats: Stats{
			VoltageLevels: result.Stats.VoltageLevels,
			Nodes:         result.Stats.NodeCount,
			Edges:         result.Stats.EdgeCount,
			LayoutMillis:  float64(result.Stats.LayoutTime.Microseconds()) / 1000,
			RenderMillis:  float64(result.Stats.RenderTime.Microseconds()) / 1000,
		},
	}
	for format, data := range result.Artifacts {
		if format == pipeline.FormatJSON {
			continue
		}
		if slices.Contains(binaryFormats, format) {
			resp.Artifacts[format] = base64.StdEncoding.EncodeToString(data)
			continue
		}
		resp.Artifacts[format] = string(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := opts.ValidateForLayout(); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.runner.Read(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := pipeline.Convert(t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var applied sldio.Hints
	if opts.Hints != nil {
		applied = *opts.Hints
	}
	h, err := pipeline.PinHints(in, *opts.Params, applied, opts.Strategy, s.logger)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// decodeOptions reads pipeline options from the request body. Parameters
// given in the body overlay the defaults.
func decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	p := params.Default()
	opts := pipeline.Options{Params: &p}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	if opts.Topology == nil {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "topology is required")
	}
	if opts.Params == nil {
		opts.Params = &p
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if r.Context().Err() != nil {
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
