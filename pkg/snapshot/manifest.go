package snapshot

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cespare/xxhash/v2"

	"github.com/matzehuels/pangraph/pkg/errors"
)

// Version is the snapshot format version written to manifests. Snapshots
// with a different version are stale.
const Version = 1

// Manifest describes a complete snapshot. It is written last, so its presence
// means every other artifact was fully written.
type Manifest struct {
	Version     int       `toml:"version"`
	Source      string    `toml:"source"`
	Size        int64     `toml:"size"`
	ModTime     int64     `toml:"mtime_ns"`
	Fingerprint string    `toml:"fingerprint"`
	Nodes       int       `toml:"nodes"`
	Edges       int       `toml:"edges"`
	Genomes     int       `toml:"genomes"`
	Basis       string    `toml:"basis"`
	Created     time.Time `toml:"created"`
}

// Sum returns the parsed xxhash64 fingerprint, or 0 if absent.
func (m *Manifest) Sum() uint64 {
	v, err := strconv.ParseUint(m.Fingerprint, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// ReadManifest decodes the manifest at path. A missing file is NOT_FOUND; a
// file that does not decode is CACHE_CORRUPT.
func ReadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "no snapshot manifest at %s", path)
		}
		var perr *fs.PathError
		if stderrors.As(err, &perr) {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
		}
		return nil, errors.Corrupt(path, 0, "%v", err)
	}
	if m.Version == 0 || m.Source == "" {
		return nil, errors.Corrupt(path, 0, "manifest lacks version or source")
	}
	return &m, nil
}

func writeManifest(path string, m *Manifest) error {
	return writeAtomic(path, func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(m)
	})
}

// Fingerprint returns the xxhash64 of the file at path.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, bufio.NewReaderSize(f, 1<<20)); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// FormatFingerprint renders a fingerprint the way manifests store it.
func FormatFingerprint(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// writeAtomic writes path through a temporary sibling file and renames it
// into place, so readers never see a partially written artifact.
func writeAtomic(path string, fn func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 1<<20)
	if err = fn(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Paths names the artifacts of one snapshot.
type Paths struct {
	Topology string
	Segments string
	Genomes  string
	Manifest string
}

// PathsFor returns the artifact paths for source. Artifacts live next to the
// source unless dir is set, and are named after the source file minus its
// extension.
func PathsFor(source, dir string) Paths {
	if dir == "" {
		dir = filepath.Dir(source)
	}
	name := filepath.Base(source)
	base := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name)))
	return Paths{
		Topology: base + ".topology.txt",
		Segments: base + ".segments.txt",
		Genomes:  base + ".genomes.txt",
		Manifest: base + ".snapshot.toml",
	}
}

// All returns every artifact path, manifest first.
func (p Paths) All() []string {
	return []string{p.Manifest, p.Topology, p.Genomes, p.Segments}
}

// Remove deletes every artifact of the snapshot. Missing files are ignored.
// The manifest goes first so an interrupted removal never leaves a snapshot
// that claims completeness.
func Remove(p Paths) error {
	for _, path := range p.All() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeIO, err, "remove %s", path)
		}
	}
	return nil
}
