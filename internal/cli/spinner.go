package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// spinnerFrames are shared by the status spinner and the interactive editor.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status line while an AI call runs. It ends when stop is
// called or when the command context is cancelled, so an interrupted merge
// leaves a clean line for the error that follows.
type spinner struct {
	w      io.Writer
	label  string
	parent context.Context
	cancel context.CancelFunc
	exited chan struct{}

	mu     sync.Mutex
	frames int
}

// startSpinner starts animating label on w until ctx ends or stop is called.
func startSpinner(ctx context.Context, w io.Writer, label string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	s := &spinner{w: w, label: label, parent: ctx, cancel: cancel, exited: make(chan struct{})}
	go s.run(sctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.exited)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
			s.frames++
			s.mu.Unlock()
		}
	}
}

// stop ends the animation and clears the line. Repeated calls are no-ops.
func (s *spinner) stop() {
	s.cancel()
	<-s.exited
}

// fail stops the spinner and prints msg as an error.
func (s *spinner) fail(msg string) {
	s.stop()
	printError("%s", msg)
}

// interrupted reports whether the command context ended, as opposed to the
// spinner being stopped by its caller.
func (s *spinner) interrupted() bool {
	return s.parent.Err() != nil
}

// drawn returns the number of frames written so far.
func (s *spinner) drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
}
