package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisUsageCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisUsageCache(client), mr
}

func TestRedisUsageCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	account := models.StorageAccount{
		ID:             1,
		UserID:         42,
		ImageBytes:     1000,
		DocumentBytes:  2000,
		QuotaBaseBytes: 10000,
		PurchasedBytes: 500,
	}
	if err := cache.SetAccount(ctx, account, 5*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok, err := cache.GetAccount(ctx, 42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	if got.ImageBytes != 1000 || got.DocumentBytes != 2000 || got.PurchasedBytes != 500 {
		t.Fatalf("unexpected cached account: %+v", got)
	}
}

func TestRedisUsageCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok, err := cache.GetAccount(context.Background(), 99)
	if err != nil {
		t.Fatalf("a miss is not an error: %v", err)
	}
	if ok {
		t.Fatalf("expected a cache miss")
	}
}

func TestRedisUsageCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.SetAccount(ctx, models.StorageAccount{UserID: 7, ImageBytes: 1}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Invalidate(ctx, 7); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	_, ok, err := cache.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatalf("entry must be gone after invalidation")
	}
}

func TestRedisUsageCacheTTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := cache.SetAccount(ctx, models.StorageAccount{UserID: 7, ImageBytes: 1}, 5*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	_, ok, err := cache.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatalf("entry must expire with its TTL")
	}
}

func TestRedisUsageCacheCorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t)

	if err := mr.Set("storage:usage:7", "not json"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, ok, err := cache.GetAccount(context.Background(), 7)
	if err == nil {
		t.Fatalf("corrupt entry must surface an error")
	}
	if ok {
		t.Fatalf("corrupt entry must not count as a hit")
	}
}
