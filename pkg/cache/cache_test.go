package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Fatal("empty cache should miss")
	}

	value := []byte("digest")
	if err := c.Set(ctx, "a", value, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	value[0] = 'X'

	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit {
		t.Fatalf("Get = _, %v, %v, want hit", hit, err)
	}
	if string(data) != "digest" {
		t.Errorf("Get = %q, want %q (Set must copy)", data, "digest")
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("1"), time.Second)
	_ = c.Set(ctx, "forever", []byte("2"), 0)

	now = now.Add(2 * time.Second)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after eviction", c.Len())
	}

	_ = c.Close()
	if c.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", c.Len())
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "edges_node_node:graph_edges:3", []byte("abc"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "edges_node_node:graph_edges:3")
	if err != nil || !hit || !bytes.Equal(data, []byte("abc")) {
		t.Errorf("Get = %q, %v, %v, want abc, true, nil", data, hit, err)
	}

	if err := c.Set(ctx, "gone", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "gone"); hit {
		t.Error("expired file entry should miss")
	}

	if err := c.Delete(ctx, "edges_node_node:graph_edges:3"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "edges_node_node:graph_edges:3"); hit {
		t.Error("deleted file entry should miss")
	}
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryCache()
	a := Scoped(inner, "a:")
	b := Scoped(inner, "b:")

	_ = a.Set(ctx, "k", []byte("1"), 0)

	if _, hit, _ := b.Get(ctx, "k"); hit {
		t.Error("scopes should not share keys")
	}
	if _, hit, _ := inner.Get(ctx, "a:k"); !hit {
		t.Error("inner cache should hold the prefixed key")
	}

	_ = a.Delete(ctx, "k")
	if inner.Len() != 0 {
		t.Errorf("inner Len() = %d, want 0", inner.Len())
	}
}

func TestScopedNilInner(t *testing.T) {
	ctx := context.Background()
	c := Scoped(nil, "p:")
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if data, hit, _ := c.Get(ctx, "k"); !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, want v from the fallback memory cache", data, hit)
	}
}

func TestSum(t *testing.T) {
	d1, err := Sum(map[string]int{"x": 1})
	if err != nil {
		t.Fatalf("Sum error: %v", err)
	}
	d2, _ := Sum(map[string]int{"x": 1})
	d3, _ := Sum(map[string]int{"x": 2})
	if d1 != d2 {
		t.Error("Sum should be deterministic")
	}
	if d1 == d3 {
		t.Error("different values should produce different digests")
	}
	if len(d1) != 64 {
		t.Errorf("len(Sum) = %d, want 64", len(d1))
	}
	if d1.Short() != string(d1[:12]) {
		t.Errorf("Short() = %q, want the first 12 digits", d1.Short())
	}
	if SumBytes([]byte("hello")) != SumBytes([]byte("hello")) {
		t.Error("SumBytes should be deterministic")
	}
	if _, err := Sum(func() {}); err == nil {
		t.Error("Sum of an unencodable value should fail")
	}
}

func TestKey(t *testing.T) {
	k1 := Key("marker", "instance_ids", "layer_2_labels", 7)
	k2 := Key("marker", "instance_ids", "layer_2_labels", 7)
	k3 := Key("marker", "instance_ids", "layer_2_labels", 8)

	if k1 != k2 {
		t.Error("Key should be deterministic")
	}
	if k1 == k3 {
		t.Error("Different parts should produce different keys")
	}
	if !strings.HasPrefix(k1, "marker:") {
		t.Errorf("Key = %q, want prefix marker:", k1)
	}
}

func TestFileCacheSharedDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := first.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	second, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if data, hit, _ := second.Get(ctx, "k"); !hit || string(data) != "v1" {
		t.Errorf("Get from a second cache = %q, %v, want v1", data, hit)
	}
	if err := second.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if data, _, _ := first.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", data)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*", ".tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get of a corrupt entry = %v, %v, want a clean miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("1"), time.Second)
	_ = c.Set(ctx, "forever", []byte("2"), 0)
	now = now.Add(time.Minute)

	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("Prune should keep live entries")
	}
}

func TestDigestStore(t *testing.T) {
	ctx := context.Background()
	s := NewDigestStore(NewMemoryCache(), 0)
	id := struct{ NS string }{"layer_2"}

	epoch, err := s.Epoch(ctx, "centroids")
	if err != nil || epoch != "" {
		t.Fatalf("initial Epoch = %q, %v, want empty", epoch, err)
	}

	dg := SumBytes([]byte("geometry"))
	if err := s.Put(ctx, "centroids", epoch, id, dg); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if got, ok, _ := s.Get(ctx, "centroids", epoch, id); !ok || got != dg {
		t.Errorf("Get = %q, %v, want %q", got, ok, dg)
	}
	if _, ok, _ := s.Get(ctx, "labels", epoch, id); ok {
		t.Error("scopes should not share digests")
	}

	if err := s.Forget(ctx, "centroids", epoch, id); err != nil {
		t.Fatalf("Forget error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "centroids", epoch, id); ok {
		t.Error("forgotten digest should miss")
	}
}

func TestDigestStoreAdvanceAcrossInstances(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryCache()
	a := NewDigestStore(shared, 0)
	b := NewDigestStore(shared, 0)
	dg := SumBytes([]byte("geometry"))

	_ = a.Put(ctx, "edges", "", 7, dg)

	next, err := b.Advance(ctx, "edges")
	if err != nil || next == "" {
		t.Fatalf("Advance = %q, %v", next, err)
	}
	epoch, _ := a.Epoch(ctx, "edges")
	if epoch != next {
		t.Errorf("Epoch seen by the other store = %q, want %q", epoch, next)
	}
	if _, ok, _ := a.Get(ctx, "edges", epoch, 7); ok {
		t.Error("digest from the previous epoch should miss")
	}
	if again, _ := b.Advance(ctx, "edges"); again == next {
		t.Error("Advance should produce a new epoch every time")
	}
}
