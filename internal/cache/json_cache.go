package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	EntryCacheTTL   = 1 * time.Hour
	EmotionCacheTTL = 24 * time.Hour
)

// JSONCache stores JSON-encoded values in Redis. A nil *JSONCache, or one
// built from a nil client, behaves as an always-empty cache.
type JSONCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewJSONCache(client *redis.Client, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, ttl: ttl}
}

// Enabled reports whether the cache is backed by Redis.
func (c *JSONCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the raw value for key, or nil on a cache miss.
func (c *JSONCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores data as JSON under key.
func (c *JSONCache) Set(ctx context.Context, key string, data interface{}) error {
	if !c.Enabled() {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, c.ttl).Err()
}

// Delete removes keys.
func (c *JSONCache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// EntryKey builds the cache key for a single journal entry.
func EntryKey(entryID int) string {
	return fmt.Sprintf("journal:entry:%d", entryID)
}

// UserEntriesKey builds the cache key for a user's journal listing.
func UserEntriesKey(userID int) string {
	return fmt.Sprintf("journal:user:%d", userID)
}

// EmotionKey builds the cache key for a classification of text.
func EmotionKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emotion:" + hex.EncodeToString(sum[:])
}
