package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line while a slow call runs. A disabled
// spinner prints nothing, which keeps pipes and JSON output clean.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration
	enabled  bool
	started  bool

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string, enabled bool) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		interval: 100 * time.Millisecond,
		enabled:  enabled,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() *Spinner {
	if !s.enabled || s.started {
		return s
	}
	s.started = true
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			}
		}
	}()
	return s
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.finish("")
}

// Success stops with a check mark.
func (s *Spinner) Success(message string) {
	s.finish("✓ " + message)
}

// Fail stops with a cross.
func (s *Spinner) Fail(message string) {
	s.finish("✗ " + message)
}

func (s *Spinner) finish(final string) {
	s.once.Do(func() {
		close(s.stop)
		if !s.started {
			return
		}
		<-s.done
		fmt.Fprint(s.w, "\r\033[K")
		if final != "" {
			fmt.Fprintln(s.w, final)
		}
	})
}
