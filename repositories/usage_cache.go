package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"github.com/redis/go-redis/v9"
)

type RedisUsageCache struct {
	redis *redis.Client
}

func NewRedisUsageCache(redisClient *redis.Client) *RedisUsageCache {
	return &RedisUsageCache{redis: redisClient}
}

func usageCacheKey(userID uint) string {
	return fmt.Sprintf("storage:usage:%d", userID)
}

func (c *RedisUsageCache) GetAccount(ctx context.Context, userID uint) (models.StorageAccount, bool, error) {
	data, err := c.redis.Get(ctx, usageCacheKey(userID)).Bytes()
	if err == redis.Nil {
		return models.StorageAccount{}, false, nil
	}
	if err != nil {
		return models.StorageAccount{}, false, err
	}

	var account models.StorageAccount
	if err := json.Unmarshal(data, &account); err != nil {
		// A corrupt entry behaves like a miss; the next write replaces it.
		return models.StorageAccount{}, false, err
	}
	return account, true, nil
}

func (c *RedisUsageCache) SetAccount(ctx context.Context, account models.StorageAccount, ttl time.Duration) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, usageCacheKey(account.UserID), data, ttl).Err()
}

func (c *RedisUsageCache) Invalidate(ctx context.Context, userID uint) error {
	return c.redis.Del(ctx, usageCacheKey(userID)).Err()
}
