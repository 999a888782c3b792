// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleTranscript() *Transcript {
	now := time.Now()
	return &Transcript{
		Server: "http://localhost:8080",
		Messages: []TranscriptMessage{
			{ID: "m1", Role: "assistant", Text: "¡Hola! Soy tu asistente.", Timestamp: now, Intent: "WELCOME"},
			{ID: "m2", Role: "user", Text: "¿Cuántas aplicaciones hay?", Timestamp: now},
			{ID: "m3", Role: "assistant", Text: "Hay 12 aplicaciones.", Timestamp: now,
				Intent: "SQL", GeneratedSQL: "SELECT COUNT(*) FROM aplicacion"},
		},
	}
}

func TestTranscriptStore_SaveAndLoad(t *testing.T) {
	store, err := NewTranscriptStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	id, err := store.Save(sampleTranscript())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(id, "tr_") {
		t.Errorf("ID should start with 'tr_', got %q", id)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Summary != "¿Cuántas aplicaciones hay?" {
		t.Errorf("Summary = %q", loaded.Summary)
	}
	if len(loaded.Messages) != 3 {
		t.Errorf("Messages count = %d, want 3", len(loaded.Messages))
	}
	if loaded.Messages[2].GeneratedSQL == "" {
		t.Error("GeneratedSQL was not persisted")
	}
}

func TestTranscriptStore_NotFound(t *testing.T) {
	store, _ := NewTranscriptStore(t.TempDir())

	if _, err := store.Load("tr_missing"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Load: expected ErrTranscriptNotFound, got %v", err)
	}
	if err := store.Delete("tr_missing"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Delete: expected ErrTranscriptNotFound, got %v", err)
	}
}

func TestTranscriptStore_ListNewestFirstAndLimit(t *testing.T) {
	store, _ := NewTranscriptStore(t.TempDir())
	store.MaxTranscripts = 2

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.Save(sampleTranscript())
		if err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
		ids = append(ids, id)
		time.Sleep(10 * time.Millisecond)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List returned %d, want 2", len(metas))
	}
	if metas[0].ID != ids[2] || metas[1].ID != ids[1] {
		t.Errorf("unexpected order: %s, %s", metas[0].ID, metas[1].ID)
	}
	if metas[0].MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", metas[0].MessageCount)
	}
}

func TestTranscriptStore_Clear(t *testing.T) {
	store, _ := NewTranscriptStore(t.TempDir())
	store.Save(sampleTranscript())
	store.Save(sampleTranscript())

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	metas, _ := store.List()
	if len(metas) != 0 {
		t.Errorf("expected empty list, got %d", len(metas))
	}
}

func TestFormatTranscriptList(t *testing.T) {
	if got := FormatTranscriptList(nil); got != "No saved sessions." {
		t.Errorf("empty list = %q", got)
	}
	out := FormatTranscriptList([]TranscriptMeta{{ID: "tr_abc", MessageCount: 3, Preview: "hola", UpdatedAt: time.Now()}})
	if !strings.Contains(out, "tr_abc") || !strings.Contains(out, "hola") {
		t.Errorf("list output missing fields: %q", out)
	}
}
