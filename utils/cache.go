// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"staycal/config"

	"github.com/go-redis/redis/v8"
)

var (
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
	// SyncClient is the dedicated client for the slot pub/sub bridge.
	SyncClient *redis.Client
)

// InitAuthCache initializes the Redis client for authorization caching
// (using DB from AppConfig for auth cache).
func InitAuthCache() {
	AuthCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAuthDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := AuthCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Auth Cache): %v", err)
	}
}

// GetAuthCacheClient returns the Redis client for authorization caching.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		InitAuthCache()
	}
	return AuthCacheClient
}

// InitSyncRedis initializes the Redis client carrying slot pub/sub
// traffic. Pub/sub is not scoped by DB, so this client only needs the
// shared address and credentials.
func InitSyncRedis() {
	SyncClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SyncClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Sync): %v", err)
	}
}

// GetSyncClient returns the Redis client for the slot pub/sub bridge.
func GetSyncClient() *redis.Client {
	if SyncClient == nil {
		InitSyncRedis()
	}
	return SyncClient
}
