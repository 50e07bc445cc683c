package feedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

// SharedStore mirrors feed payloads into Redis so that stale fallbacks
// survive restarts and are shared between replicas.
type SharedStore struct {
	Cache *cache.Cache[string]
}

func NewSharedStore(client *redis.Client, expiration time.Duration) *SharedStore {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &SharedStore{
		Cache: cache.New[string](redisStore),
	}
}

func (s *SharedStore) Get(ctx context.Context, key string) (*Entry, error) {
	value, err := s.Cache.Get(ctx, sharedKey(key))
	if err != nil {
		return nil, err
	}

	var entry *Entry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *SharedStore) Set(ctx context.Context, entry *Entry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.Cache.Set(ctx, sharedKey(entry.Key), string(entryJSON))
}

func sharedKey(key string) string {
	return fmt.Sprintf("feedcache:%s", key)
}
