package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/layout/position"
	"github.com/matzehuels/singleline/pkg/layout/snake"
)

// Context carries the configuration and the mutable state of one layout run.
type Context struct {
	Params params.Parameters
	Logger *log.Logger

	// Strategy orders busbar clusters. Nil picks one per voltage level.
	Strategy position.MergeStrategy

	// Counters holds the snake-line lanes claimed so far.
	Counters *snake.Counters
}

// NewContext returns a context with fresh counters. A nil logger discards
// output.
func NewContext(p params.Parameters, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Context{Params: p, Logger: logger, Counters: snake.NewCounters()}
}
