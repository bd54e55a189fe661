package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pangraph/pkg/ingest"
)

func TestIngestModel_Progress(t *testing.T) {
	m := NewIngestModel(nil, "graph.gfa", nil)

	updated, cmd := m.Update(progressMsg(0.5))
	m = updated.(IngestModel)
	if m.percent != 0.5 {
		t.Errorf("percent = %v, want 0.5", m.percent)
	}
	if cmd == nil {
		t.Error("progress update should schedule the next wait")
	}
	if view := m.View(); !strings.Contains(view, "Ingesting graph.gfa") {
		t.Errorf("View() = %q", view)
	}
}

func TestIngestModel_Done(t *testing.T) {
	m := NewIngestModel(nil, "graph.gfa", nil)
	res := &ingest.Result{Lines: 10}

	updated, cmd := m.Update(jobDoneMsg{result: res})
	m = updated.(IngestModel)
	if m.Result != res || m.Err != nil {
		t.Errorf("Result = %v, Err = %v", m.Result, m.Err)
	}
	if cmd == nil {
		t.Fatal("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done command is not tea.Quit")
	}
	if m.View() != "" {
		t.Error("finished model still renders")
	}

	failed, _ := NewIngestModel(nil, "graph.gfa", nil).Update(jobDoneMsg{err: errors.New("boom")})
	if failed.(IngestModel).Err == nil {
		t.Error("job error dropped")
	}
}

func TestIngestModel_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewIngestModel(nil, "graph.gfa", cancel)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(IngestModel)
	if !m.Cancelled {
		t.Error("q did not cancel")
	}
	if cmd != nil {
		t.Error("cancel should keep waiting for the job")
	}
	if ctx.Err() == nil {
		t.Error("context not cancelled")
	}
	if !strings.Contains(m.View(), "cancelling") {
		t.Error("view does not show the cancellation")
	}
}

func TestRunIngestPlain(t *testing.T) {
	source := writeTestGFA(t)
	job := ingest.Start(context.Background(), source, ingest.Options{SkipSnapshot: true})

	res, err := runIngestPlain(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Handle.Close()
	if res.Handle.Graph.Size() != 4 {
		t.Errorf("Size() = %d, want 4", res.Handle.Graph.Size())
	}
}
