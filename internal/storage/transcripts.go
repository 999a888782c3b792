// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/qa-assistant/internal/util"
)

// =============================================================================
// TRANSCRIPT TYPES
// =============================================================================

// Transcript is a saved chat session.
type Transcript struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Server    string    `json:"server"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []TranscriptMessage `json:"messages"`
}

// TranscriptMessage is one persisted chat message.
type TranscriptMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user", "assistant", "system"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	Intent       string `json:"intent,omitempty"`
	GeneratedSQL string `json:"generated_sql,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
}

// TranscriptMeta contains metadata for listing transcripts.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// ErrTranscriptNotFound is returned when a transcript doesn't exist.
var ErrTranscriptNotFound = errors.New("transcript not found")

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore keeps one JSON file per saved chat session.
type TranscriptStore struct {
	// BaseDir defaults to ~/.qa-assistant/transcripts/
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited)
	MaxTranscripts int
}

// NewTranscriptStore creates a store under dir, creating it if needed.
func NewTranscriptStore(dir string) (*TranscriptStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &TranscriptStore{BaseDir: dir, MaxTranscripts: 100}, nil
}

// Save persists a transcript and returns its ID.
func (s *TranscriptStore) Save(tr *Transcript) (string, error) {
	if tr.ID == "" {
		tr.ID = "tr_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}
	if tr.Summary == "" {
		tr.Summary = summarize(tr)
	}
	tr.UpdatedAt = time.Now()
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = tr.UpdatedAt
	}

	if err := util.AtomicWriteJSON(s.filePath(tr.ID), tr); err != nil {
		return "", err
	}

	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return tr.ID, nil
}

// summarize uses the first user question, or a placeholder.
func summarize(tr *Transcript) string {
	for _, msg := range tr.Messages {
		if msg.Role == "user" && msg.Text != "" {
			return util.SingleLine(util.TruncateRunes(msg.Text, 50))
		}
	}
	return "Empty session"
}

// enforceLimit removes the oldest transcripts if over limit.
func (s *TranscriptStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	// List is newest first
	for _, m := range metas[s.MaxTranscripts:] {
		_ = s.Delete(m.ID)
	}
}

// Load retrieves a transcript by ID.
func (s *TranscriptStore) Load(id string) (*Transcript, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}

	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// List returns all saved transcripts, most recent first.
func (s *TranscriptStore) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	metas := []TranscriptMeta{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		tr, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // Skip corrupted files
		}
		metas = append(metas, TranscriptMeta{
			ID:           tr.ID,
			Summary:      tr.Summary,
			CreatedAt:    tr.CreatedAt,
			UpdatedAt:    tr.UpdatedAt,
			MessageCount: len(tr.Messages),
			Preview:      tr.Preview(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a transcript by ID.
func (s *TranscriptStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved transcripts.
func (s *TranscriptStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

func (s *TranscriptStore) filePath(id string) string {
	// Base strips any path components a caller might smuggle in
	return filepath.Join(s.BaseDir, filepath.Base(id)+".json")
}

// =============================================================================
// FORMATTING
// =============================================================================

// Preview returns the first user message, truncated.
func (tr *Transcript) Preview() string {
	for _, msg := range tr.Messages {
		if msg.Role == "user" && msg.Text != "" {
			return util.SingleLine(util.TruncateRunes(msg.Text, 80))
		}
	}
	return ""
}

// FormatTranscriptList formats transcripts as a plain-text table.
func FormatTranscriptList(metas []TranscriptMeta) string {
	if len(metas) == 0 {
		return "No saved sessions."
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("ID", 20) + " " + util.PadRight("Updated", 17) + " " +
		util.PadRight("Msgs", 5) + " Preview\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for _, m := range metas {
		sb.WriteString(util.PadRight(m.ID, 20) + " " +
			util.PadRight(m.UpdatedAt.Format("2006-01-02 15:04"), 17) + " " +
			util.PadRight(strconv.Itoa(m.MessageCount), 5) + " " +
			util.TruncateWidth(m.Preview, 40) + "\n")
	}
	return sb.String()
}
