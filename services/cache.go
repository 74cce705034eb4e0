package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache TTLs by volatility of the cached data.
const (
	CacheTTLShort  = 1 * time.Minute
	CacheTTLMedium = 15 * time.Minute
)

// CacheService is a thin optional cache in front of read-heavy queries such
// as the dashboard stats. Without a configured Redis instance every call
// degrades to a miss instead of an error.
type CacheService struct {
	redis *redis.Client
}

// NewCacheService creates a new CacheService. A nil client disables caching.
func NewCacheService(redisClient *redis.Client) *CacheService {
	return &CacheService{redis: redisClient}
}

// ConnectRedis dials Redis and verifies the connection. An empty address
// means caching is disabled; a failed ping is logged and also disables it.
func ConnectRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis not reachable at %s, caching disabled: %v", addr, err)
		return nil
	}
	log.Printf("✅ Connected to Redis at %s", addr)
	return client
}

// GetJSON loads a cached value into dest. The bool reports a hit.
func (cs *CacheService) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if cs.redis == nil {
		return false, nil
	}
	raw, err := cs.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores a value under key. Without Redis the call is a silent
// no-op, not an error.
func (cs *CacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if cs.redis == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cs.redis.Set(ctx, key, raw, ttl).Err()
}

// Del drops a cache entry.
func (cs *CacheService) Del(ctx context.Context, keys ...string) error {
	if cs.redis == nil {
		return nil
	}
	return cs.redis.Del(ctx, keys...).Err()
}
