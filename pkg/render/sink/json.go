package sink

import (
	"encoding/json"

	"github.com/matzehuels/singleline/pkg/graph"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	compact bool
}

// WithCompactJSON drops the indentation.
func WithCompactJSON() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

// RenderJSON encodes l as the layout interchange document.
func RenderJSON(l graph.Layout, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	if r.compact {
		return json.Marshal(l)
	}
	return graph.MarshalLayout(l)
}
