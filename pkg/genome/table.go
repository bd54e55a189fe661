package genome

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/pangraph/pkg/errors"
)

// Writer streams a genome table: a header line "<count>\t<name>..." followed
// by one "<n>\t<id>..." line per node, in node order.
type Writer struct {
	w    *bufio.Writer
	rows int
}

// NewWriter writes the header line for names and returns a writer positioned
// at node 0.
func NewWriter(w io.Writer, names []string) (*Writer, error) {
	bw := bufio.NewWriter(w)
	bw.WriteString(strconv.Itoa(len(names)))
	for _, name := range names {
		bw.WriteByte('\t')
		bw.WriteString(name)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return nil, err
	}
	return &Writer{w: bw}, nil
}

// Put writes the membership row of node, padding skipped nodes with empty
// rows. Rows must be written in increasing node order.
func (gw *Writer) Put(node int, ids []int) error {
	if err := gw.Pad(node); err != nil {
		return err
	}
	return gw.row(ids)
}

// Pad writes empty rows until n rows exist.
func (gw *Writer) Pad(n int) error {
	for gw.rows < n {
		if err := gw.row(nil); err != nil {
			return err
		}
	}
	return nil
}

func (gw *Writer) row(ids []int) error {
	gw.w.WriteString(strconv.Itoa(len(ids)))
	for _, id := range ids {
		gw.w.WriteByte('\t')
		gw.w.WriteString(strconv.Itoa(id))
	}
	if err := gw.w.WriteByte('\n'); err != nil {
		return err
	}
	gw.rows++
	return nil
}

// Rows returns the number of node rows written.
func (gw *Writer) Rows() int { return gw.rows }

// Flush writes buffered rows to the underlying writer.
func (gw *Writer) Flush() error { return gw.w.Flush() }

// WriteIndex writes a complete index as a genome table.
func WriteIndex(w io.Writer, ix *Index) error {
	gw, err := NewWriter(w, ix.Names())
	if err != nil {
		return err
	}
	for node, ids := range ix.members {
		if err := gw.Put(node, ids); err != nil {
			return err
		}
	}
	return gw.Flush()
}

// Read decodes a genome table. name labels CACHE_CORRUPT errors.
//
// The basis is not stored in the table; callers restore it with SetBasis.
func Read(r io.Reader, name string) (*Index, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", name)
		}
		return nil, errors.Corrupt(name, 1, "missing header line")
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\t\r"), "\t")
	count, err := strconv.Atoi(header[0])
	if err != nil || count < 0 {
		return nil, errors.Corrupt(name, 1, "bad genome count %q", header[0])
	}
	if len(header)-1 != count {
		return nil, errors.Corrupt(name, 1, "header declares %d genomes, lists %d", count, len(header)-1)
	}
	ix := NewIndex(header[1:])

	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\t\r")
		if text == "" {
			return nil, errors.Corrupt(name, line, "empty row")
		}
		fields := strings.Split(text, "\t")
		n, err := strconv.Atoi(fields[0])
		if err != nil || n != len(fields)-1 {
			return nil, errors.Corrupt(name, line, "row count %q does not match %d ids", fields[0], len(fields)-1)
		}
		var ids []int
		if n > 0 {
			ids = make([]int, n)
			for i, f := range fields[1:] {
				if ids[i], err = strconv.Atoi(f); err != nil || ids[i] < 0 {
					return nil, errors.Corrupt(name, line, "bad genome id %q", f)
				}
			}
		}
		ix.members = append(ix.members, ids)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", name)
	}
	return ix, nil
}
