// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/session"
)

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case AnswerMsg:
		added := m.chat.Complete(msg.Answer, msg.Err)
		if msg.Answer != nil {
			m.info[added.ID] = answerInfo{fromCache: msg.Answer.FromCache, elapsed: msg.Answer.Elapsed}
		}
		if msg.Err != nil {
			m.logger.Debug("question failed", zap.Error(msg.Err))
		}
		m.pending = time.Time{}
		m.refresh()
		return m, nil

	case ProbeMsg:
		m.chat.ApplyProbe(msg.Err)
		m.refresh()
		return m, nil

	case SavedMsg:
		if msg.Err != nil {
			m.notice = "save failed: " + msg.Err.Error()
		} else {
			m.notice = "saved " + msg.ID
		}
		return m, nil

	case spinner.TickMsg:
		if !m.chat.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes chat bindings. handled is false for keys that should
// reach the text input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Send):
		text := m.input.Value()
		cmd := m.send(text)
		if cmd != nil {
			m.input.Reset()
		}
		return cmd, true

	case key.Matches(msg, m.keys.Suggestion):
		if i, ok := suggestionIndex(msg.String()); ok {
			return m.useSuggestion(i), true
		}
		return nil, true

	case key.Matches(msg, m.keys.Retry):
		return m.perform(m.chat.Catalog().Text(session.MsgRetry)), true

	case key.Matches(msg, m.keys.Clear):
		if m.chat.Loading() {
			return nil, true
		}
		m.chat.Clear()
		m.info = make(map[string]answerInfo)
		m.notice = ""
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.Save):
		return m.save(), true

	case key.Matches(msg, m.keys.ToggleSQL):
		m.SetShowSQL(!m.showSQL)
		return nil, true

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return nil, true
	}
	return nil, false
}

// SetSize lays the view out in width x height cells.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	inputHeight := 2
	vh := height - inputHeight
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.input.Width = width - 4
	m.markdown.SetWidth(width - 8)
	m.refresh()
}
