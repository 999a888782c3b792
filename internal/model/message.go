// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// CHAT MESSAGE
// =============================================================================

// ChatMessage is one entry in a chat session. Messages are never mutated
// after creation; the session only appends and clears.
type ChatMessage struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Role        Role         `json:"role"`
	Timestamp   time.Time    `json:"timestamp"`
	IsError     bool         `json:"isError,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Result      *QueryResult `json:"result,omitempty"`
}

// NewChatMessage creates a message with a fresh ID.
func NewChatMessage(role Role, text string, at time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Role:      role,
		Timestamp: at,
	}
}

// NewResultMessage wraps a backend answer as an assistant message.
func NewResultMessage(res *QueryResult, at time.Time) ChatMessage {
	msg := NewChatMessage(RoleAssistant, res.Answer, at)
	msg.IsError = !res.Success
	msg.Suggestions = append([]string(nil), res.Suggestions...)
	msg.Result = res
	return msg
}

// NewErrorMessage creates an assistant message flagged as an error.
func NewErrorMessage(text string, suggestions []string, at time.Time) ChatMessage {
	msg := NewChatMessage(RoleAssistant, text, at)
	msg.IsError = true
	msg.Suggestions = append([]string(nil), suggestions...)
	return msg
}

// HasSQL reports whether the message carries generated SQL.
func (m ChatMessage) HasSQL() bool {
	return m.Result != nil && m.Result.GeneratedSQL != ""
}
