package pipeline

import (
	"context"
	"errors"
	"go-prod-dashboard/internal/model"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 7, 8, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", &model.Table{SourceKey: "k"}, 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("expected a fresh entry")
	}

	now = now.Add(5 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry should expire after its TTL")
	}
}

func TestTableCacheGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := NewTableCache(nil)
	var calls int32
	load := func(context.Context) (*model.Table, error) {
		atomic.AddInt32(&calls, 1)
		return &model.Table{SourceKey: "k"}, nil
	}

	if _, hit, err := c.GetOrLoad(ctx, "k", time.Minute, load); err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	if _, hit, _ := c.GetOrLoad(ctx, "k", time.Minute, load); !hit {
		t.Fatal("second call should hit the cache")
	}
	if calls != 1 {
		t.Fatalf("load called %d times, want 1", calls)
	}

	if err := c.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, hit, _ := c.GetOrLoad(ctx, "k", time.Minute, load); hit {
		t.Fatal("invalidated key should reload")
	}
	if calls != 2 {
		t.Fatalf("load called %d times, want 2", calls)
	}

	c.GetOrLoad(ctx, "other", time.Minute, load)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, hit, _ := c.GetOrLoad(ctx, "other", time.Minute, load); hit {
		t.Fatal("Clear should drop every key")
	}
}

func TestTableCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewTableCache(nil)
	boom := errors.New("boom")

	_, _, err := c.GetOrLoad(ctx, "k", time.Minute, func(context.Context) (*model.Table, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	tbl, hit, err := c.GetOrLoad(ctx, "k", time.Minute, func(context.Context) (*model.Table, error) {
		return &model.Table{SourceKey: "ok"}, nil
	})
	if err != nil || hit || tbl.SourceKey != "ok" {
		t.Fatalf("retry after failure: tbl=%v hit=%v err=%v", tbl, hit, err)
	}
}

func TestTableCacheSharesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	c := NewTableCache(nil)
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) (*model.Table, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &model.Table{SourceKey: "k"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.GetOrLoad(ctx, "k", time.Minute, load); err != nil {
				t.Errorf("GetOrLoad: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("load called %d times, want 1", calls)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	rc, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer rc.Close()

	want := &model.Table{Columns: []string{"MC"}, SourceKey: "redis-test"}
	if err := rc.Set(ctx, "redis-test", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := rc.Get(ctx, "redis-test")
	if err != nil || !ok || got.SourceKey != "redis-test" || len(got.Columns) != 1 {
		t.Fatalf("Get: %v %v %v", got, ok, err)
	}
	if err := rc.Delete(ctx, "redis-test"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := rc.Get(ctx, "redis-test"); ok {
		t.Fatal("deleted key still present")
	}
}
