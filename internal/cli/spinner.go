package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// lineSpinner animates one status line while a graph opens or lays out.
// It shares its frames with the ingest TUI but draws without a tea program,
// so commands that print plain output afterwards keep the terminal as is.
type lineSpinner struct {
	w       io.Writer
	message string
	frames  spinner.Spinner

	mu      sync.Mutex
	drawn   bool
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// startLineSpinner draws message on w until the returned spinner is stopped
// or ctx is done.
func startLineSpinner(ctx context.Context, w io.Writer, message string) *lineSpinner {
	s := &lineSpinner{
		w:       w,
		message: message,
		frames:  spinner.MiniDot,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *lineSpinner) run(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(s.frames.FPS)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.stop:
			return
		case <-ticker.C:
			frame := s.frames.Frames[i%len(s.frames.Frames)]
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
			s.drawn = true
			s.mu.Unlock()
		}
	}
}

// Stop ends the animation and clears the line. It may be called more than
// once.
func (s *lineSpinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.stopped
	s.clear()
}

func (s *lineSpinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawn {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	s.drawn = false
}
