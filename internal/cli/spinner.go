package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinnerStyle  = lipgloss.NewStyle().Foreground(colorAccent)
)

const spinnerTick = 80 * time.Millisecond

// Spinner animates a message on one terminal line while a layout runs. It
// clears its line when stopped or when its context is cancelled.
type Spinner struct {
	message string
	out     io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	quit     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
}

// newSpinnerWithContext creates a spinner writing to stderr.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message:  message,
		out:      os.Stderr,
		ctx:      ctx,
		cancel:   cancel,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start draws frames in the background until Stop or cancellation.
func (s *Spinner) Start() {
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.finished)
	tick := time.NewTicker(spinnerTick)
	defer tick.Stop()

	frame := 0
	for {
		select {
		case <-s.quit:
			return
		case <-s.ctx.Done():
			s.clearLine()
			return
		case <-tick.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)])
			frame++
		}
	}
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s %s", spinnerStyle.Render(frame), StyleDim.Render(s.message))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// Stop ends the animation and clears the line. Extra calls are no-ops.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		<-s.finished
		s.cancel()
		s.clearLine()
	})
}

// StopWithSuccess stops the spinner and prints message as a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints message as an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context was cancelled while the
// spinner was running.
func (s *Spinner) Cancelled() bool {
	select {
	case <-s.quit:
		return false
	default:
		return s.ctx.Err() != nil
	}
}
