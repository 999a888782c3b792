// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/storage"
)

// Transcript converts the conversation for saving. Only the text, intent
// and SQL of each answer are kept; result rows are not persisted.
func (c *Chat) Transcript(server string) *storage.Transcript {
	msgs := c.Messages()
	tr := &storage.Transcript{Server: server}
	if len(msgs) > 0 {
		tr.CreatedAt = msgs[0].Timestamp
		tr.UpdatedAt = msgs[len(msgs)-1].Timestamp
	}
	for _, m := range msgs {
		tm := storage.TranscriptMessage{
			ID:        m.ID,
			Role:      string(m.Role),
			Text:      m.Text,
			Timestamp: m.Timestamp,
			IsError:   m.IsError,
		}
		if m.Result != nil {
			tm.Intent = string(m.Result.Intent)
			tm.GeneratedSQL = m.Result.GeneratedSQL
		}
		tr.Messages = append(tr.Messages, tm)
	}
	return tr
}

// UserQuestions returns the questions asked in a transcript, oldest first.
func UserQuestions(tr *storage.Transcript) []string {
	var out []string
	for _, m := range tr.Messages {
		if m.Role == string(model.RoleUser) {
			out = append(out, m.Text)
		}
	}
	return out
}
