package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned when a node id is negative.
	ErrInvalidNodeID = errors.New("node ID must not be negative")

	// ErrUnknownNode is returned by [Graph.Validate] when an adjacency list
	// references an id outside the node table.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateEdge is returned by [Graph.Validate] when an adjacency list
	// holds the same target twice.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrAsymmetricEdge is returned by [Graph.Validate] when u→v is recorded
	// in u's outgoing list but u is missing from v's incoming list, or the
	// other way round.
	ErrAsymmetricEdge = errors.New("edge not recorded on both endpoints")

	// ErrNoSegments is returned by [Graph.Segment] when no segment source is
	// attached.
	ErrNoSegments = errors.New("no segment source attached")
)

// SegmentSource resolves a node id to its raw sequence text.
type SegmentSource interface {
	Segment(id int) (string, error)
}

// Node is a segment of the assembly graph.
//
// The zero value is a placeholder: length 0, no edges.
type Node struct {
	ID          int   // Dense id, set by the graph on insert
	Length      int   // Sequence length in bases
	Out         []int // Targets of outgoing edges, in insertion order
	In          []int // Sources of incoming edges, in insertion order
	Placeholder bool  // True for padding nodes never installed by a producer
}

// Degree returns the total number of edges touching the node.
func (n *Node) Degree() int { return len(n.Out) + len(n.In) }

// Graph is a dense directed graph of segments.
//
// The zero value is not usable - use New.
type Graph struct {
	nodes    []*Node
	segments SegmentSource
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// SetSegments attaches the segment source used by [Graph.Segment].
func (g *Graph) SetSegments(s SegmentSource) { g.segments = s }

// Reserve pre-sizes the node table for n nodes without changing Size.
// Snapshot loading uses it because the node count is known up front.
func (g *Graph) Reserve(n int) {
	if n > cap(g.nodes) {
		g.nodes = slices.Grow(g.nodes, n-len(g.nodes))
	}
}

// grow pads the node table with placeholders until id is addressable.
func (g *Graph) grow(id int) {
	for len(g.nodes) <= id {
		g.nodes = append(g.nodes, &Node{ID: len(g.nodes), Placeholder: true})
	}
}

// Pad grows the node table to n entries, filling new slots with placeholders.
func (g *Graph) Pad(n int) {
	if n > 0 {
		g.grow(n - 1)
	}
}

// AddNode installs a freshly parsed node at id.
//
// The table grows to include id. Length is computed from seq, which is not
// retained. Edges already recorded against the slot (by links that referenced
// id before its segment arrived) are kept ahead of any edges carried by n.
func (g *Graph) AddNode(id int, n Node, seq string) error {
	if id < 0 {
		return ErrInvalidNodeID
	}
	g.grow(id)

	prev := g.nodes[id]
	node := &n
	node.ID = id
	node.Placeholder = false
	node.Length = len(seq)
	node.In = append(slices.Clone(prev.In), node.In...)
	node.Out = append(slices.Clone(prev.Out), node.Out...)
	g.nodes[id] = node
	return nil
}

// AddNodeCache installs a node restored from a snapshot at id.
//
// The table grows to include id, but the node is trusted as finalized:
// Length, Out and In are kept exactly as given.
func (g *Graph) AddNodeCache(id int, n Node) error {
	if id < 0 {
		return ErrInvalidNodeID
	}
	g.grow(id)

	node := &n
	node.ID = id
	node.Placeholder = false
	g.nodes[id] = node
	return nil
}

// AddEdge records the directed edge from→to on both endpoints.
//
// The table grows to cover both ids. AddEdge does not de-duplicate; callers
// that need unique edges check [Graph.HasEdge] first.
func (g *Graph) AddEdge(from, to int) error {
	if from < 0 || to < 0 {
		return ErrInvalidNodeID
	}
	g.grow(max(from, to))

	g.nodes[from].Out = append(g.nodes[from].Out, to)
	g.nodes[to].In = append(g.nodes[to].In, from)
	return nil
}

// Node returns the node with the given id, or nil and false when out of range.
func (g *Graph) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// Segment returns the sequence text of node id from the attached source.
func (g *Graph) Segment(id int) (string, error) {
	if g.segments == nil {
		return "", ErrNoSegments
	}
	if id < 0 || id >= len(g.nodes) {
		return "", fmt.Errorf("node %d: %w", id, ErrUnknownNode)
	}
	return g.segments.Segment(id)
}

// Size returns the number of nodes, placeholders included.
func (g *Graph) Size() int { return len(g.nodes) }

// Nodes returns the node table in id order. The slice is shared with the
// graph and must be treated as read-only.
func (g *Graph) Nodes() []*Node { return g.nodes }

// EdgeCount returns the number of recorded edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		count += len(n.Out)
	}
	return count
}

// Children returns the targets of id's outgoing edges, or nil if id is out of
// range.
func (g *Graph) Children(id int) []int {
	if n, ok := g.Node(id); ok {
		return n.Out
	}
	return nil
}

// Parents returns the sources of id's incoming edges, or nil if id is out of
// range.
func (g *Graph) Parents(id int) []int {
	if n, ok := g.Node(id); ok {
		return n.In
	}
	return nil
}

// HasEdge reports whether from→to is recorded.
func (g *Graph) HasEdge(from, to int) bool {
	n, ok := g.Node(from)
	return ok && slices.Contains(n.Out, to)
}

// Sources returns the ids of nodes without incoming edges in ascending order.
func (g *Graph) Sources() []int {
	var sources []int
	for _, n := range g.nodes {
		if len(n.In) == 0 {
			sources = append(sources, n.ID)
		}
	}
	return sources
}

// Placeholders returns how many nodes were padded in and never installed.
func (g *Graph) Placeholders() int {
	count := 0
	for _, n := range g.nodes {
		if n.Placeholder {
			count++
		}
	}
	return count
}

// Validate checks the model invariants and returns nil if they hold:
// every adjacency id is in range, no list holds a duplicate target, and
// every edge is recorded on both endpoints.
func (g *Graph) Validate() error {
	size := len(g.nodes)
	for id, n := range g.nodes {
		if n.ID != id {
			return fmt.Errorf("slot %d holds node %d: %w", id, n.ID, ErrUnknownNode)
		}
		if err := checkList(id, n.Out, size); err != nil {
			return fmt.Errorf("outgoing: %w", err)
		}
		if err := checkList(id, n.In, size); err != nil {
			return fmt.Errorf("incoming: %w", err)
		}
		for _, to := range n.Out {
			if !slices.Contains(g.nodes[to].In, id) {
				return fmt.Errorf("%d→%d: %w", id, to, ErrAsymmetricEdge)
			}
		}
		for _, from := range n.In {
			if !slices.Contains(g.nodes[from].Out, id) {
				return fmt.Errorf("%d→%d: %w", from, id, ErrAsymmetricEdge)
			}
		}
	}
	return nil
}

func checkList(id int, list []int, size int) error {
	seen := make(map[int]struct{}, len(list))
	for _, other := range list {
		if other < 0 || other >= size {
			return fmt.Errorf("node %d references %d: %w", id, other, ErrUnknownNode)
		}
		if _, dup := seen[other]; dup {
			return fmt.Errorf("node %d lists %d twice: %w", id, other, ErrDuplicateEdge)
		}
		seen[other] = struct{}{}
	}
	return nil
}

// Diff compares the topology of two graphs and returns a description of the
// first difference, or "" when they have the same size, the same per-node
// lengths, and the same outgoing and incoming id sets. Edge order is ignored.
func Diff(a, b *Graph) string {
	if a.Size() != b.Size() {
		return fmt.Sprintf("size %d != %d", a.Size(), b.Size())
	}
	for id := range a.nodes {
		na, nb := a.nodes[id], b.nodes[id]
		if na.Length != nb.Length {
			return fmt.Sprintf("node %d: length %d != %d", id, na.Length, nb.Length)
		}
		if !sameSet(na.Out, nb.Out) {
			return fmt.Sprintf("node %d: outgoing %v != %v", id, na.Out, nb.Out)
		}
		if !sameSet(na.In, nb.In) {
			return fmt.Sprintf("node %d: incoming %v != %v", id, na.In, nb.In)
		}
	}
	return ""
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Clone(a), slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}
