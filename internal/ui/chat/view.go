// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/util"
)

// maxTableRows bounds the result rows rendered inline.
const maxTableRows = 20

// View renders the chat view.
func (m Model) View() string {
	return m.viewport.View() + "\n" + m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// refresh re-renders the conversation into the viewport and scrolls to
// the newest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
	m.viewport.GotoBottom()
}

func (m *Model) render() string {
	msgs := m.chat.Messages()

	// Only the newest message with suggestions gets numbered shortcuts.
	lastWithSuggestions := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if len(msgs[i].Suggestions) > 0 {
			lastWithSuggestions = i
			break
		}
	}

	var blocks []string
	for i, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg, i == lastWithSuggestions))
	}
	if m.chat.Loading() {
		elapsed := ""
		if !m.pending.IsZero() {
			elapsed = fmt.Sprintf(" %ds", int(time.Since(m.pending).Seconds()))
		}
		blocks = append(blocks, m.spinner.View()+m.theme.Muted.Render(" thinking..."+elapsed))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) bubbleWidth() int {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) renderMessage(msg model.ChatMessage, numbered bool) string {
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.RoleLabel.Render(msg.Role.DisplayName()) + " " + stamp
		return label + "\n" + m.theme.UserBubble.MaxWidth(m.bubbleWidth()).Render(msg.Text)

	case model.RoleSystem:
		return m.theme.SystemBubble.MaxWidth(m.bubbleWidth()).Render(msg.Text)
	}

	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	if msg.Result != nil && msg.Result.Intent != "" {
		label += " " + m.theme.IntentBadge(msg.Result.Intent)
	}
	if info, ok := m.info[msg.ID]; ok {
		if info.fromCache {
			label += " " + m.theme.CacheBadge.Render("cache")
		} else if info.elapsed > 0 {
			label += " " + m.theme.Muted.Render(components.Millis(float64(info.elapsed.Milliseconds())))
		}
	}
	label += " " + stamp

	var body []string
	if msg.IsError {
		body = append(body, msg.Text)
	} else {
		body = append(body, m.markdown.Render(msg.Text))
	}

	if res := msg.Result; res != nil {
		if m.showSQL && res.GeneratedSQL != "" {
			body = append(body, components.SQLBlock{SQL: res.GeneratedSQL, Plain: m.plain}.Render(m.theme))
		}
		if len(res.RawResults) > 0 {
			table := components.ResultTable{Rows: res.RawResults, MaxWidth: m.bubbleWidth() - 4, MaxRows: maxTableRows}
			body = append(body,
				m.theme.Muted.Render(fmt.Sprintf("%d rows", len(res.RawResults))),
				table.Render(m.theme))
		}
		if len(res.Sources) > 0 {
			body = append(body, m.renderSources(res.Sources))
		}
	}

	if len(msg.Suggestions) > 0 {
		body = append(body, m.renderSuggestions(msg.Suggestions, numbered))
	}

	style := m.theme.AssistantBubble
	if msg.IsError {
		style = m.theme.ErrorBubble
	}
	return label + "\n" + style.MaxWidth(m.bubbleWidth()).Render(strings.Join(body, "\n\n"))
}

func (m *Model) renderSources(sources []model.KnowledgeDocument) string {
	lines := []string{m.theme.RoleLabel.Render("Sources")}
	for _, doc := range sources {
		line := "• " + m.theme.SourceTitle.Render(util.TruncateWidth(doc.Title(), 60))
		if doc.Score != nil {
			line += m.theme.Muted.Render(fmt.Sprintf(" (%.2f)", *doc.Score))
		}
		if doc.Content != "" {
			line += "\n  " + m.theme.Muted.Render(util.TruncateWidth(util.SingleLine(doc.Content), 80))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSuggestions(suggestions []string, numbered bool) string {
	lines := make([]string, 0, len(suggestions))
	for i, s := range suggestions {
		prefix := "• "
		if numbered && i < 9 {
			prefix = m.theme.SuggestionKey.Render(fmt.Sprintf("[alt+%d] ", i+1))
		}
		lines = append(lines, prefix+m.theme.Suggestion.Render(s))
	}
	return strings.Join(lines, "\n")
}
