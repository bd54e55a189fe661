// Package cache stores computed layouts so reopening a graph does not lay it
// out again.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory. The CLI default.
//   - [RedisCache]: a shared Redis instance, for several servers serving the
//     same graphs.
//   - [NullCache]: stores nothing; caching disabled.
//
// [Open] picks one from a [Config], which is how the CLI and the server
// build their cache from the config file.
//
// # Keys
//
// A [Keyer] derives keys from the source fingerprint and the layout options,
// so an edited source or a change of spacing never hits a stale entry.
// [ScopedKeyer] prefixes every key, letting several deployments share one
// Redis database.
//
// Cached values are opaque bytes; the pipeline stores encoded layouts.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss
	// (hit == false) and not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero keeps the entry until it is
	// deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// TTLLayout is how long cached layouts are kept.
const TTLLayout = 7 * 24 * time.Hour

// LayoutFormat is mixed into every layout key; bump it when the encoded
// layout changes shape.
const LayoutFormat = 1

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey returns the key of the layout of the graph with the given
	// source fingerprint.
	LayoutKey(fingerprint string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the graph that shape a layout.
type LayoutKeyOpts struct {
	LayerSpacing int `json:"layer_spacing"`
	RowSpacing   int `json:"row_spacing"`

	// Nodes and Edges guard against fingerprint collisions between graphs of
	// different shape.
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// DefaultKeyer hashes key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(fingerprint string, opts LayoutKeyOpts) string {
	return hashKey("layout", LayoutFormat, fingerprint, opts)
}
