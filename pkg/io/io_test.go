package io

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/genome"
	"github.com/matzehuels/pangraph/pkg/graph"
)

func testHandle(t *testing.T) *graph.Handle {
	t.Helper()
	g := graph.New()
	for id, seq := range []string{"ACGT", "G", "TT"} {
		if err := g.AddNode(id, graph.Node{}, seq); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]int{{0, 1}, {1, 2}, {0, 2}, {2, 4}} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	ix := genome.NewIndex([]string{"A", "B"})
	ix.SetBasis(genome.BasisSymbolic)
	ix.Set(0, []int{0, 1})
	ix.Set(1, []int{0})
	ix.Set(2, []int{1})
	ix.Pad(g.Size())
	return &graph.Handle{Graph: g, Genomes: ix}
}

func TestRoundTrip(t *testing.T) {
	h := testHandle(t)

	var buf bytes.Buffer
	if err := WriteJSON(h, &buf); err != nil {
		t.Fatal(err)
	}
	first := buf.String()

	g, ix, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if d := graph.Diff(h.Graph, g); d != "" {
		t.Errorf("imported graph differs: %s", d)
	}
	if g.Placeholders() != 2 {
		t.Errorf("Placeholders() = %d, want 2", g.Placeholders())
	}
	if ix.Basis() != genome.BasisSymbolic || !slices.Equal(ix.Names(), []string{"A", "B"}) {
		t.Errorf("genome index = %v %v", ix.Basis(), ix.Names())
	}
	if got := ix.Path(1); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("Path(B) = %v, want [0 2]", got)
	}

	buf.Reset()
	if err := WriteJSON(&graph.Handle{Graph: g, Genomes: ix}, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != first {
		t.Errorf("re-export differs:\n%s\nvs\n%s", buf.String(), first)
	}
}

func TestWriteJSON_NoGenomes(t *testing.T) {
	h := testHandle(t)
	h.Genomes = nil

	var buf bytes.Buffer
	if err := WriteJSON(h, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"genomes"`) {
		t.Errorf("genomes written without an index:\n%s", buf.String())
	}
}

func TestReadJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"size": `},
		{"size mismatch", `{"size": 2, "nodes": [{"id": 0}], "edges": []}`},
		{"id out of place", `{"size": 1, "nodes": [{"id": 3}], "edges": []}`},
		{"edge out of range", `{"size": 1, "nodes": [{"id": 0}], "edges": [{"from": 0, "to": 5}]}`},
		{"duplicate edge", `{"size": 2, "nodes": [{"id": 0}, {"id": 1}], "edges": [{"from": 0, "to": 1}, {"from": 0, "to": 1}]}`},
		{"bad basis", `{"size": 0, "basis": "roman", "nodes": [], "edges": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadJSON(strings.NewReader(tt.doc))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("ReadJSON() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestExportImportFile(t *testing.T) {
	h := testHandle(t)
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := ExportJSON(h, path); err != nil {
		t.Fatal(err)
	}
	g, _, err := ImportJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if d := graph.Diff(h.Graph, g); d != "" {
		t.Error(d)
	}

	if _, _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("ImportJSON(missing) = %v, want NOT_FOUND", err)
	}
}

func TestReadJSON_TrailingPlaceholder(t *testing.T) {
	doc := `{"size": 3, "nodes": [{"id": 0, "length": 2}, {"id": 1, "length": 1}, {"id": 2, "placeholder": true}], "edges": [{"from": 0, "to": 1}]}`
	g, ix, err := ReadJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if g.Size() != 3 || g.Placeholders() != 1 {
		t.Errorf("Size() = %d, Placeholders() = %d, want 3 and 1", g.Size(), g.Placeholders())
	}
	if ix.Len() != 3 {
		t.Errorf("index rows = %d, want 3", ix.Len())
	}
}
