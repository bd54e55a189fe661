package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/pangraph/pkg/ingest"
)

// =============================================================================
// IngestModel - Live ingestion progress
// =============================================================================

// progressMsg carries one progress update from the job.
type progressMsg float64

// jobDoneMsg is sent once the job has finished.
type jobDoneMsg struct {
	result *ingest.Result
	err    error
}

// IngestModel is the bubbletea model showing a running ingestion.
type IngestModel struct {
	job    *ingest.Job
	source string
	cancel context.CancelFunc

	spinner spinner.Model
	bar     progressbar.Model
	percent float64
	start   time.Time

	Result    *ingest.Result
	Err       error
	Cancelled bool
}

// NewIngestModel creates a model following job. cancel is called when the
// user quits before the job finishes.
func NewIngestModel(job *ingest.Job, source string, cancel context.CancelFunc) IngestModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = styleIconSpinner

	return IngestModel{
		job:     job,
		source:  source,
		cancel:  cancel,
		spinner: s,
		bar:     progressbar.New(progressbar.WithGradient("#2aa198", "#5fafff"), progressbar.WithWidth(40)),
		start:   time.Now(),
	}
}

// waitForJob blocks until the next progress update or the end of the job.
func waitForJob(job *ingest.Job) tea.Cmd {
	return func() tea.Msg {
		if f, ok := <-job.Progress(); ok {
			return progressMsg(f)
		}
		res, err := job.Wait()
		return jobDoneMsg{result: res, err: err}
	}
}

func (m IngestModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForJob(m.job))
}

func (m IngestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			// Keep listening: the job reports its cancellation through Wait.
			return m, nil
		}
	case progressMsg:
		m.percent = float64(msg)
		return m, tea.Batch(m.bar.SetPercent(m.percent), waitForJob(m.job))
	case jobDoneMsg:
		m.Result, m.Err = msg.result, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressbar.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progressbar.Model)
		return m, cmd
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-30, 10), 60)
	}
	return m, nil
}

func (m IngestModel) View() string {
	var b strings.Builder
	if m.Result != nil || m.Err != nil {
		return ""
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(StyleDim.Render("Ingesting " + m.source))
	b.WriteString("\n  ")
	b.WriteString(m.bar.View())
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s", time.Since(m.start).Round(time.Second))))
	if m.Cancelled {
		b.WriteString("\n  " + StyleWarning.Render("cancelling..."))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Runners
// =============================================================================

// isTerminal reports whether stderr is an interactive terminal.
var isTerminal = func() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// runIngestTUI shows job in a progress view until it finishes.
func runIngestTUI(job *ingest.Job, source string, cancel context.CancelFunc) (*ingest.Result, error) {
	final, err := tea.NewProgram(NewIngestModel(job, source, cancel), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		// The view failed; the job still runs to completion.
		return job.Wait()
	}
	m := final.(IngestModel)
	return m.Result, m.Err
}

// runIngestPlain follows job without a TUI, logging every tenth of progress.
func runIngestPlain(ctx context.Context, job *ingest.Job) (*ingest.Result, error) {
	logger := loggerFromContext(ctx)
	next := 0.1
	for f := range job.Progress() {
		if f >= next {
			logger.Debug("ingest progress", "done", fmt.Sprintf("%.0f%%", f*100))
			for next <= f {
				next += 0.1
			}
		}
	}
	return job.Wait()
}
