package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pangraph/internal/server"
	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/layout"
)

// configFile is the config file name inside the config directory.
const configFile = "config.toml"

// Config is the on-disk configuration. Command-line flags override it.
//
//	[layout]
//	layer_spacing = 40
//	row_spacing = 20
//
//	[snapshot]
//	dir = "/data/snapshots"
//	mode = "hash"
//
//	[cache]
//	backend = "redis"
//	prefix = "pangraph:"
//	ttl = "72h"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = "0.0.0.0:8080"
type Config struct {
	Layout   layout.Options `toml:"layout"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Cache    cache.Config   `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
}

// SnapshotConfig is the [snapshot] section.
type SnapshotConfig struct {
	Dir  string `toml:"dir"`  // empty keeps snapshots next to each source
	Mode string `toml:"mode"` // mtime, hash or exists
}

// ServerConfig is the [server] section.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Layout: layout.Options{}.WithDefaults(),
		Cache:  cache.Config{Backend: cache.BackendFile},
		Server: ServerConfig{Addr: server.DefaultAddr},
	}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/pangraph/config.toml.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// LoadConfig reads the config file at path over the defaults. An empty path
// selects the default location, which may be absent; an explicit path must
// exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
