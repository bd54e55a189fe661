// Package genome records which genome paths traverse each node.
//
// An assembly header lists every genome in the file. Genomes are referred to
// either by integer id or by a symbolic name; an [Index] maps names to dense
// ids and keeps, per node, the ids of the genomes whose path runs through it.
//
// # Basis
//
// Which form a file uses (its [Basis]) is decided once, from the first path
// entry of the first segment, by [Index.Classify]. The decision then applies
// to the whole file: [Index.Resolve] rejects entries of the other form with
// [ErrMixedBasis] rather than guessing.
//
//	ix := genome.NewIndex([]string{"A", "B", "C"})
//	ix.Classify("A") // BasisSymbolic
//	ix.Resolve("A")  // 0
package genome

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnresolvable is returned by Classify when the first entry is neither a
	// header name nor an integer.
	ErrUnresolvable = errors.New("genome identifier matches no header name and is not an integer")

	// ErrMixedBasis is returned by Resolve for an entry of the other basis.
	ErrMixedBasis = errors.New("genome identifier does not match the file's basis")

	// ErrUnknownGenome is returned by Resolve for a name missing from the
	// header, or a negative integer id.
	ErrUnknownGenome = errors.New("unknown genome")

	// ErrNoBasis is returned by Resolve before Classify has run.
	ErrNoBasis = errors.New("genome basis not classified")
)

// Basis is the form genome identifiers take in one file.
type Basis int

const (
	BasisUnknown  Basis = iota // not yet classified
	BasisInteger               // identifiers are integer path ids
	BasisSymbolic              // identifiers are header names
)

// String returns the basis name used in manifests and logs.
func (b Basis) String() string {
	switch b {
	case BasisInteger:
		return "integer"
	case BasisSymbolic:
		return "symbolic"
	default:
		return "unknown"
	}
}

// ParseBasis is the inverse of Basis.String.
func ParseBasis(s string) (Basis, error) {
	switch s {
	case "integer":
		return BasisInteger, nil
	case "symbolic":
		return BasisSymbolic, nil
	case "unknown", "":
		return BasisUnknown, nil
	}
	return BasisUnknown, fmt.Errorf("unknown basis %q", s)
}

// Index maps genome names to ids and nodes to the genomes traversing them.
//
// Index is not safe for concurrent mutation. Once ingestion completes it is
// read-only.
type Index struct {
	names       []string
	ids         map[string]int
	integerOnly bool
	basis       Basis
	members     [][]int
}

// NewIndex creates an index for the genomes listed in a header, in header
// order. Name i resolves to id i.
func NewIndex(names []string) *Index {
	ix := &Index{
		names:       slices.Clone(names),
		ids:         make(map[string]int, len(names)),
		integerOnly: len(names) > 0,
	}
	for i, name := range names {
		if _, dup := ix.ids[name]; !dup {
			ix.ids[name] = i
		}
		if _, err := strconv.Atoi(name); err != nil {
			ix.integerOnly = false
		}
	}
	return ix
}

// ParseHeaderList splits a header genome list on ';', dropping empty entries
// and surrounding whitespace.
func ParseHeaderList(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ";") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Names returns the header genome names in id order.
func (ix *Index) Names() []string { return ix.names }

// Count returns the number of genomes in the header.
func (ix *Index) Count() int { return len(ix.names) }

// Basis returns the classified basis, or BasisUnknown before Classify.
func (ix *Index) Basis() Basis { return ix.basis }

// SetBasis fixes the basis without classifying, as when restoring a snapshot.
func (ix *Index) SetBasis(b Basis) { ix.basis = b }

// Lookup returns the id of a header name.
func (ix *Index) Lookup(name string) (int, bool) {
	id, ok := ix.ids[name]
	return id, ok
}

// Classify decides the basis from the first path entry of a file and
// records it.
//
// A token equal to a header name is symbolic, unless every header name is
// itself an integer: in that case the header is an id list and the token is
// read as an integer. Otherwise a token that parses as an integer selects the
// integer basis. Anything else is [ErrUnresolvable].
func (ix *Index) Classify(token string) (Basis, error) {
	if _, ok := ix.ids[token]; ok && !ix.integerOnly {
		ix.basis = BasisSymbolic
		return ix.basis, nil
	}
	if _, err := strconv.Atoi(token); err == nil {
		ix.basis = BasisInteger
		return ix.basis, nil
	}
	return BasisUnknown, fmt.Errorf("%q: %w", token, ErrUnresolvable)
}

// Resolve maps one path entry to a genome id under the classified basis.
func (ix *Index) Resolve(token string) (int, error) {
	switch ix.basis {
	case BasisSymbolic:
		if id, ok := ix.ids[token]; ok {
			return id, nil
		}
		if _, err := strconv.Atoi(token); err == nil {
			return 0, fmt.Errorf("%q under symbolic basis: %w", token, ErrMixedBasis)
		}
		return 0, fmt.Errorf("%q: %w", token, ErrUnknownGenome)
	case BasisInteger:
		id, err := strconv.Atoi(token)
		if err != nil {
			return 0, fmt.Errorf("%q under integer basis: %w", token, ErrMixedBasis)
		}
		if id < 0 {
			return 0, fmt.Errorf("%d: %w", id, ErrUnknownGenome)
		}
		return id, nil
	default:
		return 0, ErrNoBasis
	}
}

// ResolveAll resolves every entry of a path field, stopping at the first
// failure.
func (ix *Index) ResolveAll(tokens []string) ([]int, error) {
	ids := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		id, err := ix.Resolve(tok)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Set records the genomes traversing node, growing the table as needed.
func (ix *Index) Set(node int, ids []int) {
	ix.Pad(node + 1)
	ix.members[node] = ids
}

// Pad grows the table to n nodes with empty membership.
func (ix *Index) Pad(n int) {
	for len(ix.members) < n {
		ix.members = append(ix.members, nil)
	}
}

// Len returns the number of node rows.
func (ix *Index) Len() int { return len(ix.members) }

// Members returns the ids of genomes traversing node.
func (ix *Index) Members(node int) []int {
	if node < 0 || node >= len(ix.members) {
		return nil
	}
	return ix.members[node]
}

// Weight returns how many genome paths traverse node.
func (ix *Index) Weight(node int) int { return len(ix.Members(node)) }

// Path returns the nodes traversed by genome in ascending node order.
func (ix *Index) Path(genome int) []int {
	var path []int
	for node, ids := range ix.members {
		if slices.Contains(ids, genome) {
			path = append(path, node)
		}
	}
	return path
}

// Name returns the display name of a genome id: the header name when known,
// otherwise the id itself.
func (ix *Index) Name(genome int) string {
	if genome >= 0 && genome < len(ix.names) && ix.basis != BasisInteger {
		return ix.names[genome]
	}
	return strconv.Itoa(genome)
}

// Find resolves a user-supplied genome reference: a header name or an
// integer id.
func (ix *Index) Find(ref string) (int, bool) {
	if id, ok := ix.ids[ref]; ok && ix.basis != BasisInteger {
		return id, true
	}
	if id, err := strconv.Atoi(ref); err == nil && id >= 0 {
		return id, true
	}
	return 0, false
}
