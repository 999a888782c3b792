// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders answer text for the terminal. Renderers are rebuilt only
// when the width changes.
type Markdown struct {
	width    int
	dark     bool
	plain    bool
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer wrapping at width. Plain disables styling.
func NewMarkdown(width int, dark, plain bool) *Markdown {
	m := &Markdown{dark: dark, plain: plain}
	m.SetWidth(width)
	return m
}

// SetWidth changes the wrap width.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == m.width && m.renderer != nil {
		return
	}
	m.width = width

	style := "dark"
	switch {
	case m.plain:
		style = "notty"
	case !m.dark:
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Render returns text rendered as markdown, or text itself if rendering
// is unavailable or fails.
func (m *Markdown) Render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
