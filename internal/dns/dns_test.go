package dns

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newTestResolver(ctx context.Context, cacheTimeout time.Duration) *Resolver {
	return NewResolver(ctx, Options{
		Server:         "8.8.8.8:53",
		ConnectTimeout: 1 * time.Second,
		Timeout:        10 * time.Second,
		CacheTimeout:   cacheTimeout,
	}, log.New(io.Discard))
}

func TestCache(t *testing.T) {
	t.Parallel()

	// test expire
	r := newTestResolver(context.Background(), 1*time.Microsecond)
	r.store("1.1.1.1", []string{"asdf.com", "ghjkl.com"})
	time.Sleep(1 * time.Millisecond)
	if res, ok := r.cached("1.1.1.1"); ok {
		t.Fatalf("cache not expired: %v", res)
	}

	r = newTestResolver(context.Background(), 1*time.Hour)
	r.store("1.1.1.1", []string{"asdf.com", "ghjkl.com"})
	res, ok := r.cached("1.1.1.1")
	if !ok {
		t.Fatal("cache expired and should not be")
	}
	if len(res) != 2 {
		t.Fatalf("wrong cache size returned: %d", len(res))
	}
	if res[0] != "asdf.com" || res[1] != "ghjkl.com" {
		t.Fatalf("wrong names returned, got %v", res)
	}
}

func TestCachedMiss(t *testing.T) {
	t.Parallel()

	r := newTestResolver(context.Background(), 1*time.Hour)
	r.store("192.0.2.9", nil)
	names, err := r.Lookup("192.0.2.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
}

func TestLookupAllUsesCache(t *testing.T) {
	t.Parallel()

	r := newTestResolver(context.Background(), 1*time.Hour)
	r.store("192.0.2.1", []string{"mail.example.com"})
	r.store("192.0.2.2", []string{"mx.example.org"})
	r.store("192.0.2.3", nil)

	res := r.LookupAll([]string{"192.0.2.1", "192.0.2.2", "192.0.2.3"})
	if len(res) != 2 {
		t.Fatalf("expected 2 entries, got %v", res)
	}
	if res["192.0.2.1"][0] != "mail.example.com" {
		t.Fatalf("wrong name for 192.0.2.1: %v", res["192.0.2.1"])
	}
	if res["192.0.2.2"][0] != "mx.example.org" {
		t.Fatalf("wrong name for 192.0.2.2: %v", res["192.0.2.2"])
	}
}

func TestLookupAllCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(ctx, 1*time.Hour)
	if res := r.LookupAll([]string{"192.0.2.1"}); len(res) != 0 {
		t.Fatalf("expected no lookups after cancel, got %v", res)
	}
}
