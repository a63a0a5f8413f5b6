// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"socialfeed/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (following-ids, activity metrics, ranked pages).
	CacheClient *redis.Client
	// FeedCacheClient holds the sorted-set feeds and bloom filters.
	FeedCacheClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitRedis initializes every Redis client the service uses.
func InitRedis() {
	GetCacheClient()
	GetFeedCacheClient()
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	}
	return CacheClient
}

// GetFeedCacheClient returns the Redis client for feeds and bloom filters.
func GetFeedCacheClient() *redis.Client {
	if FeedCacheClient == nil {
		FeedCacheClient = newRedisClient(config.AppConfig.RedisFeedDB, "Feed Cache")
	}
	return FeedCacheClient
}
