// Package cli implements the singleline command-line interface.
//
// The CLI lays out substation single-line diagrams from topology documents,
// renders them as JSON, SVG, PNG, PDF or DOT, inspects the detected cells of
// every voltage level and serves the same pipeline over HTTP.
//
// # Commands
//
//   - layout: compute a layout.json from a topology document
//   - render: run the full pipeline and write every requested format
//   - inspect: print the cells of each voltage level
//   - hints: write a hint sidecar that pins a computed layout
//   - cache: manage the local layout cache
//   - serve: run the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Laid out 3 voltage levels (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
