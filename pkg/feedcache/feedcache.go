package feedcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/ctdf"
	"golang.org/x/sync/singleflight"
)

// Fetcher performs the remote call for a cache key, usually an URL.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, key string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, key string) ([]byte, error) {
	return f(ctx, key)
}

// Validator rejects a payload that arrived successfully but cannot be used, such
// as an error document served with a 2xx status. A rejected payload is treated
// as a failed fetch.
type Validator func(payload []byte) error

type Entry struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
}

type Result struct {
	Payload []byte
	Age     time.Duration

	// Stale is set when the refresh failed and an older payload was served instead
	Stale bool
}

// FeedCache is a time-boxed cache around a remote fetch. A payload is never
// returned older than its ttl unless the refresh failed, in which case the last
// good payload is returned with its true age.
type FeedCache struct {
	Fetcher Fetcher
	Shared  *SharedStore

	Now func() time.Time

	entriesMutex sync.RWMutex
	entries      map[string]*Entry

	inflight singleflight.Group
}

func New(fetcher Fetcher) *FeedCache {
	return &FeedCache{
		Fetcher: fetcher,
		Now:     time.Now,
		entries: map[string]*Entry{},
	}
}

// Fetch returns the payload for key, refreshing it if it is older than ttl.
// A ttl of 0 always refetches. Only one refresh per key is in flight at a time.
func (c *FeedCache) Fetch(ctx context.Context, key string, ttl time.Duration) (*Result, error) {
	return c.FetchValidated(ctx, key, ttl, nil)
}

// FetchValidated is Fetch with a check run on every refreshed payload before it
// replaces the cached one.
func (c *FeedCache) FetchValidated(ctx context.Context, key string, ttl time.Duration, validate Validator) (*Result, error) {
	if entry := c.lookup(ctx, key); c.isFresh(entry, ttl) {
		return c.result(entry, false), nil
	}

	// the flight is shared so it must outlive the caller that started it
	flightCtx := context.WithoutCancel(ctx)

	value, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		return c.refresh(flightCtx, key, ttl, validate)
	})
	if err != nil {
		return nil, err
	}

	flight := value.(*refreshResult)

	return c.result(flight.entry, flight.stale), nil
}

type refreshResult struct {
	entry *Entry
	stale bool
}

func (c *FeedCache) refresh(ctx context.Context, key string, ttl time.Duration, validate Validator) (*refreshResult, error) {
	// Someone else may have refreshed the key between the first check and the flight
	existing := c.lookup(ctx, key)
	if c.isFresh(existing, ttl) {
		return &refreshResult{entry: existing}, nil
	}

	payload, err := c.Fetcher.Fetch(ctx, key)
	if err == nil && validate != nil {
		if validationErr := validate(payload); validationErr != nil {
			err = fmt.Errorf("unusable payload: %w", validationErr)
		}
	}
	if err != nil {
		logEvent := log.Warn().Err(err).Str("key", key)

		if existing == nil {
			logEvent.Msg("Feed fetch failed with nothing cached")
			return nil, fmt.Errorf("%w: %s: %v", ctdf.ErrFetchFailed, key, err)
		}

		logEvent.Str("age", c.now().Sub(existing.FetchedAt).String()).Msg("Feed fetch failed, serving stale payload")
		return &refreshResult{entry: existing, stale: true}, nil
	}

	entry := &Entry{
		Key:       key,
		Payload:   payload,
		FetchedAt: c.now(),
	}
	c.store(ctx, entry)

	return &refreshResult{entry: entry}, nil
}

func (c *FeedCache) lookup(ctx context.Context, key string) *Entry {
	c.entriesMutex.RLock()
	entry := c.entries[key]
	c.entriesMutex.RUnlock()

	if entry != nil || c.Shared == nil {
		return entry
	}

	shared, err := c.Shared.Get(ctx, key)
	if err != nil || shared == nil {
		return nil
	}

	c.entriesMutex.Lock()
	if current := c.entries[key]; current == nil || current.FetchedAt.Before(shared.FetchedAt) {
		c.entries[key] = shared
	}
	entry = c.entries[key]
	c.entriesMutex.Unlock()

	return entry
}

func (c *FeedCache) store(ctx context.Context, entry *Entry) {
	c.entriesMutex.Lock()
	c.entries[entry.Key] = entry
	c.entriesMutex.Unlock()

	if c.Shared != nil {
		if err := c.Shared.Set(ctx, entry); err != nil {
			log.Debug().Err(err).Str("key", entry.Key).Msg("Failed to mirror feed payload to shared cache")
		}
	}
}

func (c *FeedCache) isFresh(entry *Entry, ttl time.Duration) bool {
	if entry == nil || ttl <= 0 {
		return false
	}

	return c.now().Sub(entry.FetchedAt) <= ttl
}

func (c *FeedCache) result(entry *Entry, stale bool) *Result {
	age := c.now().Sub(entry.FetchedAt)
	if age < 0 {
		age = 0
	}

	return &Result{
		Payload: entry.Payload,
		Age:     age,
		Stale:   stale,
	}
}

func (c *FeedCache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}

	return c.Now()
}
