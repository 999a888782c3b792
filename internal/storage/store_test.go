// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/qa-assistant/internal/config"
)

// =============================================================================
// STORE CONTRACT
// =============================================================================

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "store.json"), nil)
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "store.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}

	// Redis runs only when a server is provided
	if addr := os.Getenv("QA_ASSISTANT_TEST_REDIS"); addr != "" {
		redisStore, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr})
		require.NoError(t, err)
		stores["redis"] = WithNamespace(redisStore, "qa-test-"+t.Name())
	}

	for _, s := range stores {
		s := s
		t.Cleanup(func() { s.Close() })
	}
	return stores
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "qa_cache")
			assert.True(t, errors.Is(err, ErrNotFound), "missing key should be ErrNotFound, got %v", err)

			require.NoError(t, s.Set(ctx, "qa_cache", []byte(`[{"key":"a"}]`)))
			got, err := s.Get(ctx, "qa_cache")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"key":"a"}]`, string(got))

			require.NoError(t, s.Set(ctx, "qa_cache", []byte(`[]`)))
			got, err = s.Get(ctx, "qa_cache")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(got))

			require.NoError(t, s.Remove(ctx, "qa_cache"))
			_, err = s.Get(ctx, "qa_cache")
			assert.True(t, errors.Is(err, ErrNotFound))

			// Removing twice is fine
			assert.NoError(t, s.Remove(ctx, "qa_cache"))
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, 1, s.Len())
}

// =============================================================================
// FILE STORE
// =============================================================================

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "qa_query_log", []byte(`[1,2,3]`)))

	reopened, err := NewFileStore(path, nil)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "qa_query_log")
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)

	_, err = s.Get(ctx, "qa_cache")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "qa_cache", []byte("[]")))
	reopened, err := NewFileStore(path, nil)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "qa_cache")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

// =============================================================================
// NAMESPACES AND FACTORY
// =============================================================================

func TestWithNamespace_Isolates(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	a := WithNamespace(base, "alice")
	b := WithNamespace(base, "bob")

	require.NoError(t, a.Set(ctx, "qa_cache", []byte("A")))
	_, err := b.Get(ctx, "qa_cache")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := base.Get(ctx, "alice:qa_cache")
	require.NoError(t, err)
	assert.Equal(t, "A", string(raw))

	assert.Same(t, base, WithNamespace(base, "").(*MemoryStore))
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	testCases := []struct {
		backend string
		path    string
	}{
		{config.BackendMemory, ""},
		{config.BackendFile, filepath.Join(dir, "s.json")},
		{config.BackendSQLite, filepath.Join(dir, "s.db")},
	}

	for _, tc := range testCases {
		t.Run(tc.backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Backend = tc.backend
			cfg.Storage.Path = tc.path

			s, err := Open(ctx, cfg, nil)
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Set(ctx, "k", []byte("v")))
			got, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(got))
		})
	}

	cfg := config.Default()
	cfg.Storage.Backend = "tape"
	_, err := Open(ctx, cfg, nil)
	assert.Error(t, err)
}
