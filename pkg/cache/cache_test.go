package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/singleline/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// roundTrip exercises the contract every backend shares.
func roundTrip(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v2" {
		t.Errorf("Get(k) = %q, %v, %v; want v2", data, hit, err)
	}

	if err := c.Set(ctx, "stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "stale"); hit {
		t.Error("expired entry returned")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry returned")
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	roundTrip(t, c)
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get = %v, %v; want a clean miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(8)
	if err != nil {
		t.Fatal(err)
	}
	roundTrip(t, c)
}

func TestMemoryCache_Eviction(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}
	c.Set(ctx, "a", []byte("a"), 0)
	c.Set(ctx, "b", []byte("b"), 0)
	c.Get(ctx, "a")
	c.Set(ctx, "c", []byte("c"), 0)

	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("least recently used entry not evicted")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("recently used entry evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(0)
	buf := []byte("abc")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value aliased: %q", again)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  Config
		want string
		code errors.Code
	}{
		{name: "Default", cfg: Config{}, want: "*cache.NullCache"},
		{name: "Memory", cfg: Config{Backend: BackendMemory}, want: "*cache.MemoryCache"},
		{name: "File", cfg: Config{Backend: BackendFile, Dir: t.TempDir()}, want: "*cache.FileCache"},
		{name: "FileWithoutDir", cfg: Config{Backend: BackendFile}, code: errors.ErrCodeInvalidInput},
		{name: "Unknown", cfg: Config{Backend: "memcached"}, code: errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.cfg)
			if tt.code != "" {
				if !errors.Is(err, tt.code) || c != nil {
					t.Errorf("Open = %v, %v; want code %s", c, err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer c.Close()
			if got := typeName(c); got != tt.want {
				t.Errorf("backend %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *NullCache:
		return "*cache.NullCache"
	case *MemoryCache:
		return "*cache.MemoryCache"
	case *FileCache:
		return "*cache.FileCache"
	}
	return "?"
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := LayoutKeyOpts{Scope: "substation", ParamsHash: "p1"}
	lk := k.LayoutKey("topo", base)
	if !strings.HasPrefix(lk, "layout:") {
		t.Errorf("LayoutKey = %s", lk)
	}
	if lk != k.LayoutKey("topo", base) {
		t.Error("LayoutKey should be deterministic")
	}
	variants := []LayoutKeyOpts{
		{Scope: "zone", ParamsHash: "p1"},
		{Scope: "substation", ParamsHash: "p2"},
		{Scope: "substation", ParamsHash: "p1", HintsHash: "h"},
		{Scope: "substation", ParamsHash: "p1", Strategy: "greedy"},
	}
	for _, v := range variants {
		if k.LayoutKey("topo", v) == lk {
			t.Errorf("opts %+v collide with %+v", v, base)
		}
	}

	a1 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "dot"})
	if a1 == a2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "user:123:")
	key := scoped.LayoutKey("topo", LayoutKeyOpts{})
	if want := "user:123:" + NewDefaultKeyer().LayoutKey("topo", LayoutKeyOpts{}); key != want {
		t.Errorf("LayoutKey = %s, want %s", key, want)
	}
	if !strings.HasPrefix(scoped.ArtifactKey("l", ArtifactKeyOpts{}), "user:123:artifact:") {
		t.Error("ArtifactKey should be prefixed")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return ErrNetwork
	})
	if err != ErrNetwork || calls != 1 {
		t.Errorf("non-retryable: err %v after %d calls", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err %v after %d calls", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestBackoffExhausted(t *testing.T) {
	b := Backoff{Attempts: 3, Delay: time.Millisecond}
	calls := 0
	err := b.Do(context.Background(), func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("got err %v after %d calls, want the retryable error after 3", err, calls)
	}
}
