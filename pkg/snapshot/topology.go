package snapshot

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/graph"
)

// WriteTopology encodes the node table of g.
//
// The first line is the node count. Each node, in id order, then takes five
// lines: length, outgoing count, outgoing ids, incoming count, incoming ids.
// Id lists are tab-separated and empty when the count is 0.
func WriteTopology(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strconv.Itoa(g.Size()))
	bw.WriteByte('\n')
	for _, n := range g.Nodes() {
		bw.WriteString(strconv.Itoa(n.Length))
		bw.WriteByte('\n')
		writeIDs(bw, n.Out)
		writeIDs(bw, n.In)
	}
	return bw.Flush()
}

func writeIDs(bw *bufio.Writer, ids []int) {
	bw.WriteString(strconv.Itoa(len(ids)))
	bw.WriteByte('\n')
	for i, id := range ids {
		if i > 0 {
			bw.WriteByte('\t')
		}
		bw.WriteString(strconv.Itoa(id))
	}
	bw.WriteByte('\n')
}

// ReadTopology decodes a topology written by WriteTopology.
//
// Id lines may carry a trailing tab. Blank lines after the last node are
// ignored. Any other deviation is a CACHE_CORRUPT error naming the line.
func ReadTopology(r io.Reader) (*graph.Graph, error) {
	return readTopology(context.Background(), r, "topology", -1)
}

// maxReserve caps the node table pre-sized from a topology's declared count.
// Larger graphs grow past it as nodes are read.
const maxReserve = 1 << 20

type lineReader struct {
	sc   *bufio.Scanner
	name string
	line int
}

func (lr *lineReader) next() (string, error) {
	if !lr.sc.Scan() {
		if err := lr.sc.Err(); err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "read %s", lr.name)
		}
		return "", errors.Corrupt(lr.name, lr.line+1, "unexpected end of file")
	}
	lr.line++
	return strings.TrimRight(lr.sc.Text(), "\t\r"), nil
}

func (lr *lineReader) int() (int, error) {
	text, err := lr.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return 0, errors.Corrupt(lr.name, lr.line, "expected a count, got %q", text)
	}
	return v, nil
}

func (lr *lineReader) ids(count, size int) ([]int, error) {
	text, err := lr.next()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		if text != "" {
			return nil, errors.Corrupt(lr.name, lr.line, "expected no ids, got %q", text)
		}
		return nil, nil
	}
	fields := strings.Split(text, "\t")
	if len(fields) != count {
		return nil, errors.Corrupt(lr.name, lr.line, "expected %d ids, got %d", count, len(fields))
	}
	ids := make([]int, count)
	for i, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil || id < 0 || id >= size {
			return nil, errors.Corrupt(lr.name, lr.line, "id %q out of range [0,%d)", f, size)
		}
		ids[i] = id
	}
	return ids, nil
}

// readTopology decodes a topology. A non-negative want is the node count the
// manifest records; a different declared count is corrupt.
func readTopology(ctx context.Context, r io.Reader, name string, want int) (*graph.Graph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lr := &lineReader{sc: sc, name: name}

	size, err := lr.int()
	if err != nil {
		return nil, err
	}
	if want >= 0 && size != want {
		return nil, errors.Corrupt(name, lr.line, "declares %d nodes, manifest says %d", size, want)
	}

	g := graph.New()
	g.Reserve(min(size, maxReserve))
	for id := 0; id < size; id++ {
		if id%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var n graph.Node
		if n.Length, err = lr.int(); err != nil {
			return nil, err
		}
		outCount, err := lr.int()
		if err != nil {
			return nil, err
		}
		if n.Out, err = lr.ids(outCount, size); err != nil {
			return nil, err
		}
		inCount, err := lr.int()
		if err != nil {
			return nil, err
		}
		if n.In, err = lr.ids(inCount, size); err != nil {
			return nil, err
		}
		if err := g.AddNodeCache(id, n); err != nil {
			return nil, errors.Corrupt(name, lr.line, "%v", err)
		}
	}

	for sc.Scan() {
		lr.line++
		if strings.TrimSpace(sc.Text()) != "" {
			return nil, errors.Corrupt(name, lr.line, "trailing data after %d nodes", size)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", name)
	}
	return g, nil
}
