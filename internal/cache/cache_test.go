// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/storage"
)

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T) (*ResponseCache, *storage.MemoryStore, *fakeClock) {
	t.Helper()
	store := storage.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(store, Options{Now: clock.Now}), store, clock
}

func result(answer string) *model.QueryResult {
	return &model.QueryResult{Intent: model.IntentRAG, Answer: answer, Success: true}
}

// =============================================================================
// KEY DERIVATION
// =============================================================================

func TestKey(t *testing.T) {
	assert.Equal(t, "wr9RdcOpIGVzIEFuZ3VsYXI/", Key("¿Qué es Angular?"))
	assert.Len(t, Key(strings.Repeat("long question ", 20)), KeyLength)
	assert.NotEqual(t, Key("hola"), Key("Hola"), "no normalization")
	assert.NotEqual(t, Key("hola"), Key("hola "), "no trimming")
}

// =============================================================================
// GET / PUT
// =============================================================================

func TestGetPut_RoundTrip(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "¿Qué es Angular?")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "¿Qué es Angular?", result("Un framework")))

	got, ok := c.Get(ctx, "¿Qué es Angular?")
	require.True(t, ok)
	assert.Equal(t, "Un framework", got.Answer)

	stats := c.Stats(ctx)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 50.0, stats.HitRate())
}

func TestPut_EvictsOldestInsertedAtCap(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 101; i++ {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("question %d", i), result(fmt.Sprint(i))))
	}

	assert.Equal(t, 100, c.Len(ctx))

	_, ok := c.Get(ctx, "question 0")
	assert.False(t, ok, "first inserted entry should be evicted")

	for i := 1; i <= 100; i++ {
		_, ok := c.Get(ctx, fmt.Sprintf("question %d", i))
		assert.True(t, ok, "question %d should be retained", i)
	}

	entries := c.Entries(ctx)
	assert.Equal(t, "question 1", entries[0].Question)
	assert.Equal(t, "question 100", entries[99].Question)
	assert.Equal(t, uint64(1), c.Stats(ctx).Evictions)
}

func TestPut_ManyOverflowKeepsMostRecent(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("q%d", i), result("a")))
	}
	entries := c.Entries(ctx)
	require.Len(t, entries, 100)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("q%d", 150+i), e.Question)
	}
}

func TestPut_RepeatMovesToNewest(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", result("1")))
	require.NoError(t, c.Put(ctx, "b", result("2")))
	require.NoError(t, c.Put(ctx, "a", result("3")))

	entries := c.Entries(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Question)
	assert.Equal(t, "a", entries[1].Question)
	assert.Equal(t, "3", entries[1].Result.Answer)
}

func TestPut_RepeatSurvivesEviction(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxEntries; i++ {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("q%d", i), result("x")))
	}
	require.NoError(t, c.Put(ctx, "q0", result("again")))
	require.NoError(t, c.Put(ctx, fmt.Sprintf("q%d", DefaultMaxEntries), result("x")))

	assert.Equal(t, DefaultMaxEntries, c.Len(ctx))
	got, ok := c.Get(ctx, "q0")
	require.True(t, ok)
	assert.Equal(t, "again", got.Answer)
	_, ok = c.Get(ctx, "q1")
	assert.False(t, ok)
}

func TestPut_CustomCap(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store, Options{MaxEntries: 3})
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Put(ctx, q, result(q)))
	}
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 3, c.Len(ctx))
}

// =============================================================================
// EXPIRY
// =============================================================================

func TestGet_ExpiredEntryIsPurged(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "old", result("x")))
	require.NoError(t, c.Put(ctx, "fresh", result("y")))

	clock.Advance(24 * time.Hour)
	_, ok := c.Get(ctx, "old")
	assert.True(t, ok, "exactly 24h old is still live")

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "old")
	assert.False(t, ok, "older than 24h must not be returned")
	assert.Equal(t, 1, c.Len(ctx), "expired entry removed on discovery")

	// Lazy: the other expired entry stays until looked up
	assert.Equal(t, 1, c.Stats(ctx).Expired)
}

func TestPurge(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", result("1")))
	require.NoError(t, c.Put(ctx, "b", result("2")))
	clock.Advance(25 * time.Hour)
	require.NoError(t, c.Put(ctx, "c", result("3")))

	removed, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len(ctx))
}

// =============================================================================
// COLLISIONS AND CORRUPTION
// =============================================================================

func TestGet_TruncatedKeyCollisionIsMiss(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	prefix := strings.Repeat("¿Cuál es la cobertura de la aplicación ", 3)
	q1 := prefix + "Portal?"
	q2 := prefix + "Backoffice?"
	require.Equal(t, Key(q1), Key(q2))

	require.NoError(t, c.Put(ctx, q1, result("portal")))
	_, ok := c.Get(ctx, q2)
	assert.False(t, ok)

	got, ok := c.Get(ctx, q1)
	require.True(t, ok)
	assert.Equal(t, "portal", got.Answer)
}

func TestLoad_CorruptDataTreatedAsEmpty(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, StoreKey, []byte("{oops")))
	_, ok := c.Get(ctx, "anything")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(ctx))

	require.NoError(t, c.Put(ctx, "q", result("a")))
	assert.Equal(t, 1, c.Len(ctx))
}

func TestClear(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "q", result("a")))
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestPut_NilResult(t *testing.T) {
	c, _, _ := newTestCache(t)
	assert.Error(t, c.Put(context.Background(), "q", nil))
}
