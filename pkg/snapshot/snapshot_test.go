package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/genome"
	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/segment"
)

func sampleGraph() *graph.Graph {
	g := graph.New()
	_ = g.AddNode(0, graph.Node{}, "ACGT")
	_ = g.AddNode(1, graph.Node{}, "GG")
	_ = g.AddNode(2, graph.Node{}, "TTTAA")
	_ = g.AddNode(3, graph.Node{}, "")
	_ = g.AddEdge(0, 1)
	_ = g.AddEdge(0, 2)
	_ = g.AddEdge(1, 3)
	_ = g.AddEdge(2, 3)
	return g
}

// sampleHandle writes a source file and a segment store outside the snapshot
// directory and returns a handle for them.
func sampleHandle(t *testing.T) *graph.Handle {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "sample.gfa")
	if err := os.WriteFile(source, []byte("H\tORI:Z:A;B\n"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := segment.CreateTemp(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, seq := range []string{"ACGT", "GG", "TTTAA", ""} {
		if _, err := store.Append(seq); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { _ = store.Close() })

	ix := genome.NewIndex([]string{"A", "B"})
	ix.SetBasis(genome.BasisSymbolic)
	ix.Set(0, []int{0, 1})
	ix.Set(1, []int{0})
	ix.Set(2, []int{1})
	ix.Set(3, []int{0, 1})

	h := graph.NewHandle(source, sampleGraph(), ix, store)
	sum, err := Fingerprint(source)
	if err != nil {
		t.Fatal(err)
	}
	h.Fingerprint = sum
	return h
}

func TestTopology_RoundTrip(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	if err := WriteTopology(&buf, g); err != nil {
		t.Fatal(err)
	}

	got, err := ReadTopology(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if d := graph.Diff(g, got); d != "" {
		t.Errorf("round trip differs: %s", d)
	}
}

func TestWriteTopology_Format(t *testing.T) {
	g := graph.New()
	_ = g.AddNode(0, graph.Node{}, "AC")
	_ = g.AddEdge(0, 1)

	var buf bytes.Buffer
	_ = WriteTopology(&buf, g)

	want := "2\n2\n1\n1\n0\n\n0\n0\n\n1\n0\n"
	if buf.String() != want {
		t.Errorf("WriteTopology() = %q, want %q", buf.String(), want)
	}
}

func TestReadTopology_Tolerant(t *testing.T) {
	input := "2\n3\n1\n1\t\n0\n\n0\n0\n\n1\n0\t\n\n"

	g, err := ReadTopology(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", g.Size())
	}
	n, _ := g.Node(0)
	if n.Length != 3 || !slices.Equal(n.Out, []int{1}) {
		t.Errorf("node 0 = %+v", n)
	}
	n, _ = g.Node(1)
	if !slices.Equal(n.In, []int{0}) {
		t.Errorf("node 1 In = %v, want [0]", n.In)
	}
}

func TestReadTopology_Corrupt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"bad count", "x\n", 1},
		{"id out of range", "1\n5\n1\n3\n0\n\n", 4},
		{"truncated", "2\n1\n0\n\n0\n\n", 7},
		{"trailing data", "1\n1\n0\n\n0\n\nextra\n", 7},
		{"count mismatch", "1\n1\n2\n0\n0\n\n", 4},
		{"ids with zero count", "1\n1\n0\n0\n0\n\n", 4},
		{"huge count", "999999999999999999\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTopology(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeCacheCorrupt) {
				t.Fatalf("ReadTopology() error = %v, want CACHE_CORRUPT", err)
			}
			if e := err.(*errors.Error); e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d (%v)", e.Line, tt.wantLine, err)
			}
		})
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	h := sampleHandle(t)
	dir := t.TempDir()
	paths := PathsFor(h.Source, dir)

	if err := Write(h, paths, WriteOptions{}); err != nil {
		t.Fatal(err)
	}

	got, err := Load(context.Background(), h.Source, LoadOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer got.Close()

	if !got.FromCache {
		t.Error("FromCache = false, want true")
	}
	if got.Fingerprint != h.Fingerprint {
		t.Errorf("Fingerprint = %x, want %x", got.Fingerprint, h.Fingerprint)
	}
	if d := graph.Diff(h.Graph, got.Graph); d != "" {
		t.Errorf("graph differs: %s", d)
	}
	if seq, err := got.Graph.Segment(2); err != nil || seq != "TTTAA" {
		t.Errorf("Segment(2) = %q, %v, want TTTAA", seq, err)
	}
	if got.Genomes.Basis() != genome.BasisSymbolic {
		t.Errorf("Basis() = %v, want symbolic", got.Genomes.Basis())
	}
	if path := got.Genomes.Path(1); !slices.Equal(path, []int{0, 2, 3}) {
		t.Errorf("Path(1) = %v, want [0 2 3]", path)
	}
}

func TestCheck_Modes(t *testing.T) {
	h := sampleHandle(t)
	paths := PathsFor(h.Source, "")

	if state, _, _ := Check(h.Source, paths, ModeMtime); state != Missing {
		t.Fatalf("Check() before Write = %v, want missing", state)
	}
	if err := Write(h, paths, WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	for _, mode := range []Mode{ModeMtime, ModeHash, ModeExists} {
		if state, _, err := Check(h.Source, paths, mode); state != Fresh || err != nil {
			t.Errorf("Check(%v) = %v, %v, want fresh", mode, state, err)
		}
	}

	// Same size and mtime, different content: only the fingerprint notices.
	info, _ := os.Stat(h.Source)
	if err := os.WriteFile(h.Source, []byte("H\tORI:Z:A;C\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(h.Source, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}
	if state, _, _ := Check(h.Source, paths, ModeMtime); state != Fresh {
		t.Errorf("Check(mtime) after same-size edit = %v, want fresh", state)
	}
	if state, _, _ := Check(h.Source, paths, ModeHash); state != Stale {
		t.Errorf("Check(hash) after same-size edit = %v, want stale", state)
	}

	// Growing the file changes its size.
	if err := os.WriteFile(h.Source, []byte("H\tORI:Z:A;B;C\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if state, _, _ := Check(h.Source, paths, ModeMtime); state != Stale {
		t.Errorf("Check(mtime) after edit = %v, want stale", state)
	}
	if state, _, _ := Check(h.Source, paths, ModeExists); state != Fresh {
		t.Errorf("Check(exists) after edit = %v, want fresh", state)
	}
	_, err := Load(context.Background(), h.Source, LoadOptions{})
	if !errors.Is(err, errors.ErrCodeCacheStale) {
		t.Errorf("Load() of stale snapshot = %v, want CACHE_STALE", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	h := sampleHandle(t)
	_, err := Load(context.Background(), h.Source, LoadOptions{})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load() = %v, want NOT_FOUND", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(p Paths) error
	}{
		{"topology", func(p Paths) error {
			return os.WriteFile(p.Topology, []byte("4\nnot a number\n"), 0644)
		}},
		{"genomes", func(p Paths) error {
			return os.WriteFile(p.Genomes, []byte("9\tA\n"), 0644)
		}},
		{"segment count", func(p Paths) error {
			return os.WriteFile(p.Segments, []byte("A\n"), 0644)
		}},
		{"manifest", func(p Paths) error {
			return os.WriteFile(p.Manifest, []byte("version = [\n"), 0644)
		}},
		{"node count", func(p Paths) error {
			return os.WriteFile(p.Topology, []byte("999999999999999999\n"), 0644)
		}},
		{"asymmetric edges", func(p Paths) error {
			return os.WriteFile(p.Topology, []byte("4\n4\n1\n1\n0\n\n2\n0\n\n0\n\n5\n0\n\n0\n\n0\n0\n\n0\n\n"), 0644)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := sampleHandle(t)
			paths := PathsFor(h.Source, "")
			if err := Write(h, paths, WriteOptions{}); err != nil {
				t.Fatal(err)
			}
			if err := tt.corrupt(paths); err != nil {
				t.Fatal(err)
			}

			_, err := Load(context.Background(), h.Source, LoadOptions{Mode: ModeExists})
			if !errors.Is(err, errors.ErrCodeCacheCorrupt) {
				t.Errorf("Load() = %v, want CACHE_CORRUPT", err)
			}
		})
	}
}

func TestWrite_NoManifestOnFailure(t *testing.T) {
	h := sampleHandle(t)
	paths := PathsFor(h.Source, "")
	if err := Write(h, paths, WriteOptions{}); err != nil {
		t.Fatal(err)
	}

	// A store shorter than the graph cannot be written; the old manifest must
	// not survive the attempt.
	short, err := segment.CreateTemp(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer short.Close()
	h.Segments = short

	if err := Write(h, paths, WriteOptions{}); err == nil {
		t.Fatal("Write() with short segment store succeeded")
	}
	if _, err := os.Stat(paths.Manifest); !os.IsNotExist(err) {
		t.Errorf("manifest still present after failed write: %v", err)
	}
}

func TestRemove(t *testing.T) {
	h := sampleHandle(t)
	paths := PathsFor(h.Source, "")
	if err := Write(h, paths, WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := Remove(paths); err != nil {
		t.Fatal(err)
	}
	for _, p := range paths.All() {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists", p)
		}
	}
	if err := Remove(paths); err != nil {
		t.Errorf("second Remove() = %v, want nil", err)
	}
}

func TestPathsFor(t *testing.T) {
	p := PathsFor(filepath.Join("data", "chr1.gfa"), "")
	if want := filepath.Join("data", "chr1.topology.txt"); p.Topology != want {
		t.Errorf("Topology = %q, want %q", p.Topology, want)
	}
	p = PathsFor(filepath.Join("data", "chr1.gfa"), "cache")
	if want := filepath.Join("cache", "chr1.snapshot.toml"); p.Manifest != want {
		t.Errorf("Manifest = %q, want %q", p.Manifest, want)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "mtime", "hash", "exists"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) = %v", s, err)
		}
	}
	if _, err := ParseMode("sometimes"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseMode(sometimes) = %v, want INVALID_INPUT", err)
	}
}

func TestManifest_Describe(t *testing.T) {
	m := &Manifest{Nodes: 4, Edges: 4, Genomes: 2, Basis: "symbolic", Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	want := "4 nodes, 4 edges, 2 genomes (symbolic), written 2024-01-02T03:04:05Z"
	if got := Describe(m); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}
