package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pangraph/internal/server"
	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Layout.LayerSpacing != layout.DefaultLayerSpacing || cfg.Layout.RowSpacing != layout.DefaultRowSpacing {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Cache.Backend != cache.BackendFile || cfg.Server.Addr != server.DefaultAddr {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
[layout]
layer_spacing = 100

[snapshot]
dir = "/data/snapshots"
mode = "hash"

[cache]
backend = "redis"
prefix = "pangraph:test:"
ttl = "72h"

[cache.redis]
addr = "redis:6379"
db = 2

[server]
addr = "0.0.0.0:9000"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Layout.LayerSpacing != 100 {
		t.Errorf("LayerSpacing = %d, want 100", cfg.Layout.LayerSpacing)
	}
	if cfg.Layout.RowSpacing != layout.DefaultRowSpacing {
		t.Errorf("RowSpacing = %d, want default kept", cfg.Layout.RowSpacing)
	}
	if cfg.Snapshot.Dir != "/data/snapshots" || cfg.Snapshot.Mode != "hash" {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if cfg.Cache.Backend != cache.BackendRedis || cfg.Cache.Prefix != "pangraph:test:" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL != 72*time.Hour {
		t.Errorf("TTL = %v, want 72h", cfg.Cache.TTL)
	}
	if cfg.Cache.Redis.Addr != "redis:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Cache.Redis)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadConfig_DefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	if err := os.MkdirAll(filepath.Join(home, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, appName, configFile), []byte("[server]\naddr = \":1234\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":1234" {
		t.Errorf("Server.Addr = %q, want :1234", cfg.Server.Addr)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.toml"), "load config"},
		{"malformed", writeConfig(t, "[layout\n"), "load config"},
		{"unknown key", writeConfig(t, "[layout]\nzoom = 3\n"), "unknown key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
