package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	bperrors "github.com/matzehuels/boardpack/pkg/errors"
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
		t.Errorf("Get() = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q", c.Dir())
	}

	if _, hit, _ := c.Get(ctx, "layout:1"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "layout:1", []byte(`{"w":3}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:1")
	if err != nil || !hit || string(data) != `{"w":3}` {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "layout:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:1"); hit {
		t.Error("deleted entry still present")
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
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

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
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
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("entry survived Clear")
	}
	if err := c.Set(ctx, "d", []byte("d"), 0); err != nil {
		t.Errorf("Set after Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}

	j1, err := HashJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	j2, _ := HashJSON(map[string]int{"a": 1})
	if j1 != j2 {
		t.Error("HashJSON should be deterministic")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	l1 := k.LayoutKey("board", LayoutKeyOpts{SizeWeight: 2, WireWeight: 4})
	l2 := k.LayoutKey("board", LayoutKeyOpts{SizeWeight: 2, WireWeight: 1})
	if l1 == l2 {
		t.Error("different weights should produce different layout keys")
	}
	if l1 != k.LayoutKey("board", LayoutKeyOpts{SizeWeight: 2, WireWeight: 4}) {
		t.Error("LayoutKey should be deterministic")
	}

	a1 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "pdf"})
	if a1 == a2 {
		t.Error("different formats should produce different artifact keys")
	}
	if k.PackKey("req", PackKeyOpts{}) == k.PackKey("other", PackKeyOpts{}) {
		t.Error("different requests should produce different pack keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "api:")

	opts := LayoutKeyOpts{MaxNodes: 10}
	if got, want := scoped.LayoutKey("h", opts), "api:"+inner.LayoutKey("h", opts); got != want {
		t.Errorf("LayoutKey() = %q, want %q", got, want)
	}
	if got := NewScopedKeyer(nil, "x:").ArtifactKey("h", ArtifactKeyOpts{}); got[:2] != "x:" {
		t.Errorf("nil inner keyer: %q", got)
	}
}

// fastRetry shortens DefaultRetry for the duration of the test.
func fastRetry(t *testing.T) {
	t.Helper()
	old := DefaultRetry
	DefaultRetry.Delay = time.Millisecond
	t.Cleanup(func() { DefaultRetry = old })
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("disk full"), false},
		{"marked", Retryable(errors.New("reset")), true},
		{"unavailable", fmt.Errorf("%w: dial", ErrUnavailable), true},
		{"canceled", Retryable(context.Canceled), false},
		{"internal", bperrors.New(bperrors.ErrCodeInternal, "panic"), true},
		{"invalid board marked", Retryable(bperrors.New(bperrors.ErrCodeInvalidBoard, "unknown X9")), false},
		{"infeasible", bperrors.New(bperrors.ErrCodeInfeasibleLayout, "no placement"), false},
		{"solver timeout", Retryable(bperrors.New(bperrors.ErrCodeTimeout, "deadline")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err); got != tt.want {
				t.Errorf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()
	p := RetryPolicy{Attempts: 4, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return Retryable(bperrors.New(bperrors.ErrCodeInvalidModel, "bad rects"))
	})
	if !bperrors.Is(err, bperrors.ErrCodeInvalidModel) || calls != 1 {
		t.Errorf("coded input error: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = p.Do(ctx, func() error {
		calls++
		return bperrors.New(bperrors.ErrCodeInternal, "worker crashed")
	})
	if calls != 4 || !bperrors.Is(err, bperrors.ErrCodeInternal) {
		t.Errorf("internal error: err=%v calls=%d", err, calls)
	}

	calls = 0
	p.Classify = func(error) bool { return true }
	p.Do(ctx, func() error {
		calls++
		return errors.New("always")
	})
	if calls != 4 {
		t.Errorf("custom classifier: calls=%d", calls)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = RetryPolicy{Attempts: 3, Delay: time.Hour}.Do(cctx, func() error { return Retryable(errors.New("x")) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled backoff: %v", err)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	fastRetry(t)

	ctx := context.Background()
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("got err=%v after %d calls", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

// TestRedisCache runs against a live server named by BOARDPACK_TEST_REDIS.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("BOARDPACK_TEST_REDIS")
	if addr == "" {
		t.Skip("BOARDPACK_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "boardpack-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	defer c.Clear(ctx)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Clear")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	fastRetry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
}

type ttlRecorder struct {
	NullCache
	ttls []time.Duration
}

func (r *ttlRecorder) Set(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	r.ttls = append(r.ttls, ttl)
	return nil
}

func TestMaxTTL(t *testing.T) {
	rec := &ttlRecorder{}
	c := MaxTTL(rec, time.Hour)
	ctx := context.Background()
	for _, ttl := range []time.Duration{0, time.Minute, 48 * time.Hour} {
		if err := c.Set(ctx, "k", nil, ttl); err != nil {
			t.Fatal(err)
		}
	}
	want := []time.Duration{time.Hour, time.Minute, time.Hour}
	for i := range want {
		if rec.ttls[i] != want[i] {
			t.Errorf("ttl %d = %v, want %v", i, rec.ttls[i], want[i])
		}
	}
	if MaxTTL(rec, 0) != Cache(rec) {
		t.Error("zero max should return the cache unchanged")
	}
}
