package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a nil miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "layouts"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("Get(empty) = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get = %q, %v, %v, want v1 hit", data, hit, err)
	}

	// Overwrite
	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestFileCache_Expired(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v, want silent miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCache_Purge(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "layouts")
	c, _ := NewFileCache(dir)
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Purge(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cache directory survived Purge")
	}
}

func TestFileCache_Path(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())

	p := c.path("layout:abc")
	if p != c.path("layout:abc") {
		t.Error("path is not deterministic")
	}
	if p == c.path("layout:abd") {
		t.Error("different keys share a file")
	}
	rel, err := filepath.Rel(c.Dir(), p)
	if err != nil {
		t.Fatal(err)
	}
	// Two-character fan-out directory, then the remaining 62 hex digits.
	if dir, file := filepath.Split(rel); len(dir) != 3 || len(file) != 62+len(".json") {
		t.Errorf("path %q, want <2 hex>/<62 hex>.json", rel)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := LayoutKeyOpts{LayerSpacing: 40, RowSpacing: 20, Nodes: 10, Edges: 12}

	key := k.LayoutKey("00000000deadbeef", base)
	if !strings.HasPrefix(key, "layout:") {
		t.Errorf("LayoutKey = %q, want layout: prefix", key)
	}
	if key != k.LayoutKey("00000000deadbeef", base) {
		t.Error("LayoutKey should be deterministic")
	}

	tests := []struct {
		name        string
		fingerprint string
		opts        LayoutKeyOpts
	}{
		{"fingerprint", "00000000deadbeee", base},
		{"layer spacing", "00000000deadbeef", LayoutKeyOpts{LayerSpacing: 80, RowSpacing: 20, Nodes: 10, Edges: 12}},
		{"row spacing", "00000000deadbeef", LayoutKeyOpts{LayerSpacing: 40, RowSpacing: 10, Nodes: 10, Edges: 12}},
		{"shape", "00000000deadbeef", LayoutKeyOpts{LayerSpacing: 40, RowSpacing: 20, Nodes: 11, Edges: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k.LayoutKey(tt.fingerprint, tt.opts) == key {
				t.Errorf("changing %s should change the key", tt.name)
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "pangraph:test:")
	plain := NewDefaultKeyer().LayoutKey("ab", LayoutKeyOpts{})

	if got := scoped.LayoutKey("ab", LayoutKeyOpts{}); got != "pangraph:test:"+plain {
		t.Errorf("LayoutKey = %q, want prefixed %q", got, plain)
	}

	// Should use DefaultKeyer when inner is nil
	if got := NewScopedKeyer(nil, "p:").LayoutKey("ab", LayoutKeyOpts{}); got != "p:"+plain {
		t.Errorf("nil inner LayoutKey = %q", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, k, err := Open(ctx, Config{Dir: t.TempDir(), Prefix: "x:"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("default backend = %T, want *FileCache", c)
	}
	if !strings.HasPrefix(k.LayoutKey("f", LayoutKeyOpts{}), "x:layout:") {
		t.Error("prefix not applied to keyer")
	}

	if c, _, err := Open(ctx, Config{Backend: BackendNone}); err != nil {
		t.Error(err)
	} else if _, ok := c.(NullCache); !ok {
		t.Errorf("none backend = %T, want NullCache", c)
	}

	if _, _, err := Open(ctx, Config{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(memcached) = %v, want ErrUnknownBackend", err)
	}
	if _, _, err := Open(ctx, Config{Backend: BackendFile}); err == nil {
		t.Error("file backend without a directory should fail")
	}
}

func TestOpen_RedisUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 on loopback refuses connections.
	_, _, err := Open(ctx, Config{
		Backend: BackendRedis,
		Redis:   RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond},
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open(redis) = %v, want ErrUnavailable", err)
	}
}

func TestConfig_TTLOrDefault(t *testing.T) {
	if got := (Config{}).TTLOrDefault(); got != TTLLayout {
		t.Errorf("TTLOrDefault() = %v, want %v", got, TTLLayout)
	}
	if got := (Config{TTL: time.Minute}).TTLOrDefault(); got != time.Minute {
		t.Errorf("TTLOrDefault() = %v, want 1m", got)
	}
}
