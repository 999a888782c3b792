// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/config"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// ErrNotFound is returned by Get when a key has never been set or was removed.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable string-keyed byte store. Values are opaque to the store;
// callers serialize their own records (JSON for everything in this module).
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// NAMESPACING
// =============================================================================

// Namespaced prefixes every key with "<ns>:" before delegating.
type Namespaced struct {
	inner Store
	ns    string
}

// WithNamespace wraps s so several profiles can share one backend.
// An empty namespace returns s unchanged.
func WithNamespace(s Store, ns string) Store {
	if ns == "" {
		return s
	}
	return &Namespaced{inner: s, ns: ns}
}

func (n *Namespaced) key(k string) string { return n.ns + ":" + k }

// Get implements Store.
func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.inner.Get(ctx, n.key(key))
}

// Set implements Store.
func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.key(key), value)
}

// Remove implements Store.
func (n *Namespaced) Remove(ctx context.Context, key string) error {
	return n.inner.Remove(ctx, n.key(key))
}

// Close implements Store.
func (n *Namespaced) Close() error { return n.inner.Close() }

// =============================================================================
// FACTORY
// =============================================================================

// Open builds the backend selected by cfg.Storage and applies its namespace.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Storage.Backend) {
	case config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendRedis:
		s, err = NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
	case config.BackendSQLite:
		var path string
		if path, err = cfg.DefaultStoragePath(); err == nil {
			s, err = NewSQLiteStore(path)
		}
	case config.BackendFile, "":
		var path string
		if path, err = cfg.DefaultStoragePath(); err == nil {
			s, err = NewFileStore(path, logger)
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}

	logger.Debug("store opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("namespace", cfg.Storage.Namespace))
	return WithNamespace(s, cfg.Storage.Namespace), nil
}
