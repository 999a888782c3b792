// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/util"
)

// FileStore persists every key in a single JSON document. The document is
// rewritten atomically on each mutation, which is fine for the handful of
// small keys this client keeps.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	data map[string]string
}

// NewFileStore opens (or creates on first write) the store at path.
// A corrupt file is logged and treated as empty; the next write replaces it.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fs := &FileStore{
		path:   path,
		logger: logger,
		data:   make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fs.data); err != nil {
			logger.Warn("store file is corrupt, starting empty",
				zap.String("path", path), zap.Error(err))
			fs.data = make(map[string]string)
		}
	}
	return fs, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Get implements Store.
func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

// Set implements Store.
func (f *FileStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	f.data[key] = string(value)
	if err := f.flushLocked(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

// Remove implements Store.
func (f *FileStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.flushLocked()
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) flushLocked() error {
	if err := util.AtomicWriteJSON(f.path, f.data); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}
