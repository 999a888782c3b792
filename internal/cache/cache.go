// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache keeps recent backend answers so verbatim-repeated questions
// are answered without a network round-trip.
//
// Entries live under a single store key as an insertion-ordered list. The
// list is capped (oldest inserted is evicted first, not least recently used)
// and entries expire lazily: an expired entry is only removed when a lookup
// finds it.
package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/storage"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// StoreKey is the store key holding every entry.
	StoreKey = "qa_cache"

	// KeyLength is the length cache keys are truncated to.
	KeyLength = 64

	DefaultMaxEntries = 100
	DefaultTTL        = 24 * time.Hour
)

// Key derives the cache key for a question: base64 of its UTF-8 bytes,
// truncated to KeyLength. No normalization is applied, so questions that
// differ only in case or spacing get distinct keys.
func Key(question string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(question))
	if len(enc) > KeyLength {
		enc = enc[:KeyLength]
	}
	return enc
}

// =============================================================================
// TYPES
// =============================================================================

// Entry is one cached answer. The full question is kept because truncated
// keys can collide for long questions sharing a prefix.
type Entry struct {
	Key      string            `json:"key"`
	Question string            `json:"question"`
	Result   model.QueryResult `json:"result"`
	StoredAt time.Time         `json:"storedAt"`
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Stats describes the cache for status displays.
type Stats struct {
	Entries    int           `json:"entries"`
	MaxEntries int           `json:"max_entries"`
	TTL        time.Duration `json:"ttl"`
	Expired    int           `json:"expired"`
	Oldest     time.Time     `json:"oldest,omitempty"`
	Newest     time.Time     `json:"newest,omitempty"`

	// Process-local counters since the cache was created.
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// HitRate returns hits / (hits + misses) as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Options configures a ResponseCache. Zero values select the defaults.
type Options struct {
	MaxEntries int
	TTL        time.Duration
	Now        func() time.Time
	Logger     *zap.Logger
}

// ResponseCache is the local answer cache.
type ResponseCache struct {
	store      storage.Store
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger

	mu        sync.Mutex
	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache backed by store.
func New(store storage.Store, opts Options) *ResponseCache {
	c := &ResponseCache{
		store:      store,
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		now:        opts.Now,
		logger:     opts.Logger,
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Get returns the live cached answer for question. An expired entry found
// here is deleted and the store rewritten.
func (c *ResponseCache) Get(ctx context.Context, question string) (*model.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(question)
	entries := c.load(ctx)

	for i, e := range entries {
		if e.Key != key {
			continue
		}
		if c.expired(e) {
			entries = append(entries[:i], entries[i+1:]...)
			if err := c.save(ctx, entries); err != nil {
				c.logger.Warn("failed to purge expired cache entry", zap.Error(err))
			}
			c.logger.Debug("cache entry expired", zap.String("key", key))
			c.misses++
			return nil, false
		}
		if e.Question != question {
			c.logger.Debug("cache key collision", zap.String("key", key))
			c.misses++
			return nil, false
		}
		c.hits++
		res := e.Result
		return &res, true
	}

	c.misses++
	return nil, false
}

// Put stores result for question. Re-putting an existing question moves it
// to the newest position. When the cap is exceeded the oldest inserted
// entries are evicted.
func (c *ResponseCache) Put(ctx context.Context, question string, result *model.QueryResult) error {
	if result == nil {
		return errors.New("cache: nil result")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(question)
	entries := c.load(ctx)

	kept := entries[:0]
	for _, e := range entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	kept = append(kept, Entry{
		Key:      key,
		Question: question,
		Result:   *result,
		StoredAt: c.now(),
	})

	if over := len(kept) - c.maxEntries; over > 0 {
		kept = kept[over:]
		c.evictions += uint64(over)
		c.logger.Debug("cache evicted oldest entries", zap.Int("count", over))
	}

	return c.save(ctx, kept)
}

// Len returns the number of stored entries, including expired ones that no
// lookup has discovered yet.
func (c *ResponseCache) Len(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.load(ctx))
}

// Entries returns the stored entries, oldest first.
func (c *ResponseCache) Entries(ctx context.Context) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Purge removes every expired entry and returns how many were removed.
func (c *ResponseCache) Purge(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load(ctx)
	live := entries[:0]
	for _, e := range entries {
		if !c.expired(e) {
			live = append(live, e)
		}
	}
	removed := len(entries) - len(live)
	if removed == 0 {
		return 0, nil
	}
	return removed, c.save(ctx, live)
}

// Clear removes every entry.
func (c *ResponseCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Remove(ctx, StoreKey); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the cache.
func (c *ResponseCache) Stats(ctx context.Context) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load(ctx)
	s := Stats{
		Entries:    len(entries),
		MaxEntries: c.maxEntries,
		TTL:        c.ttl,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
	for _, e := range entries {
		if c.expired(e) {
			s.Expired++
		}
		if s.Oldest.IsZero() || e.StoredAt.Before(s.Oldest) {
			s.Oldest = e.StoredAt
		}
		if e.StoredAt.After(s.Newest) {
			s.Newest = e.StoredAt
		}
	}
	return s
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (c *ResponseCache) expired(e Entry) bool {
	return c.now().Sub(e.StoredAt) > c.ttl
}

// load reads the entry list. Missing, unreadable or corrupt data is treated
// as an empty cache.
func (c *ResponseCache) load(ctx context.Context) []Entry {
	raw, err := c.store.Get(ctx, StoreKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Debug("cache read failed, treating as empty", zap.Error(err))
		}
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Debug("cache data corrupt, treating as empty", zap.Error(err))
		return nil
	}
	return entries
}

func (c *ResponseCache) save(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.store.Set(ctx, StoreKey, raw); err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}
