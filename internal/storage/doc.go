// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable persistence for qa-assistant.
//
// Two kinds of persistence live here: the key-value Store that backs the
// response cache and the analytics logs, and the TranscriptStore that saves
// chat sessions for later review.
//
// # Key Types
//
//   - Store: Get/Set/Remove over opaque byte values
//   - FileStore, SQLiteStore, RedisStore, MemoryStore: Store backends
//   - TranscriptStore: one JSON file per saved chat session
//
// # Usage
//
//	store, err := storage.Open(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	raw, err := store.Get(ctx, "qa_cache")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // first run
//	}
//
// # Storage Location
//
// The file backend writes ~/.qa-assistant/store.json, the sqlite backend
// ~/.qa-assistant/store.db, and transcripts go to ~/.qa-assistant/transcripts/.
package storage
