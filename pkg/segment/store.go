// Package segment provides an append-only on-disk store of sequence text.
//
// A Store holds one raw sequence per line, so line i belongs to node i. Only
// the byte offset and length of each line are kept in memory; the text is read
// back on demand with a positioned read. Sequences are never materialized as a
// whole, which keeps memory bounded on multi-gigabase assemblies.
//
// A Store is either writable (created by [Create] during ingestion) or
// read-only (opened by [Open] from an existing snapshot). Writes are buffered;
// [Store.Segment] flushes pending writes before reading, so a writable store
// can serve reads at any time.
package segment

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	// ErrReadOnly is returned when appending to a store opened with Open.
	ErrReadOnly = errors.New("segment store is read-only")

	// ErrOutOfOrder is returned by Put when id is already occupied.
	ErrOutOfOrder = errors.New("segment id already written")

	// ErrNotFound is returned when reading an id that was never written.
	ErrNotFound = errors.New("segment not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("segment store is closed")
)

// span locates one line in the backing file.
type span struct {
	off int64
	n   int64
}

// Store is a line-per-segment sequence file.
//
// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	f        *os.File
	w        *bufio.Writer
	spans    []span
	size     int64
	readOnly bool
	temp     bool
}

// Create truncates (or creates) the file at path and returns a writable store.
func Create(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, f: f, w: bufio.NewWriterSize(f, 1<<20)}, nil
}

// CreateTemp creates a writable store backed by a new temporary file in dir
// (or the default temp directory when dir is empty). The file is removed on
// Close.
func CreateTemp(dir string) (*Store, error) {
	f, err := os.CreateTemp(dir, "segments-*.txt")
	if err != nil {
		return nil, err
	}
	return &Store{path: f.Name(), f: f, w: bufio.NewWriterSize(f, 1<<20), temp: true}, nil
}

// Open indexes an existing segment file and returns a read-only store.
//
// Open scans the file once to record line offsets. Lines of any length are
// supported. A trailing carriage return on a line is not part of the segment.
// The scan honours ctx between lines.
func Open(ctx context.Context, path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	spans, size, err := scan(ctx, f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	return &Store{path: path, f: f, spans: spans, size: size, readOnly: true}, nil
}

func scan(ctx context.Context, r io.Reader) ([]span, int64, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	var (
		spans     []span
		pos, from int64
	)
	for {
		if len(spans)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		chunk, err := br.ReadSlice('\n')
		pos += int64(len(chunk))
		if err == bufio.ErrBufferFull {
			continue
		}
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			spans = append(spans, span{off: from, n: pos - from - 1})
			from = pos
		}
		if err == io.EOF {
			if pos > from {
				spans = append(spans, span{off: from, n: pos - from})
			}
			return spans, pos, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of segments written or indexed.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spans)
}

// Append writes seq as the next segment and returns its id.
func (s *Store) Append(seq string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := len(s.spans)
	if err := s.appendLocked(seq); err != nil {
		return 0, err
	}
	return id, nil
}

// Put writes seq at id, first padding any gap with empty segments so that
// line order keeps matching node ids. Ids must be written in increasing order.
func (s *Store) Put(id int, seq string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < len(s.spans) {
		return fmt.Errorf("put %d (have %d): %w", id, len(s.spans), ErrOutOfOrder)
	}
	for len(s.spans) < id {
		if err := s.appendLocked(""); err != nil {
			return err
		}
	}
	return s.appendLocked(seq)
}

// Pad appends empty segments until the store holds n entries.
func (s *Store) Pad(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.spans) < n {
		if err := s.appendLocked(""); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) appendLocked(seq string) error {
	switch {
	case s.f == nil:
		return ErrClosed
	case s.readOnly:
		return ErrReadOnly
	case strings.ContainsAny(seq, "\r\n"):
		return fmt.Errorf("segment %d contains a line break", len(s.spans))
	}
	if _, err := s.w.WriteString(seq); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	n := int64(len(seq))
	s.spans = append(s.spans, span{off: s.size, n: n})
	s.size += n + 1
	return nil
}

// Segment returns the sequence stored for id.
func (s *Store) Segment(id int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return "", ErrClosed
	}
	if id < 0 || id >= len(s.spans) {
		return "", fmt.Errorf("segment %d: %w", id, ErrNotFound)
	}
	if s.w != nil && s.w.Buffered() > 0 {
		if err := s.w.Flush(); err != nil {
			return "", err
		}
	}
	sp := s.spans[id]
	buf := make([]byte, sp.n)
	if _, err := s.f.ReadAt(buf, sp.off); err != nil {
		return "", fmt.Errorf("read segment %d: %w", id, err)
	}
	return strings.TrimSuffix(string(buf), "\r"), nil
}

// Flush writes buffered segments to the backing file.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil || s.f == nil {
		return nil
	}
	return s.w.Flush()
}

// Finish flushes buffered segments and syncs the file to disk. The store stays
// open for reads.
func (s *Store) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ErrClosed
	}
	if s.w == nil {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.f.Sync()
}

// Close flushes and closes the backing file. Temporary stores are removed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	var errs []error
	if s.w != nil {
		errs = append(errs, s.w.Flush())
	}
	errs = append(errs, s.f.Close())
	if s.temp {
		errs = append(errs, os.Remove(s.path))
	}
	s.f = nil
	return errors.Join(errs...)
}
