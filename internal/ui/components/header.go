// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

// =============================================================================
// HEADER WITH TABS
// =============================================================================

// Header is the top line: brand on the left, numbered view tabs after it.
type Header struct {
	Brand  string
	Tabs   []string
	Active int
	Width  int
}

// View renders the header.
func (h Header) View(theme *styles.Theme) string {
	parts := []string{theme.Brand.Render(h.Brand)}
	for i, name := range h.Tabs {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == h.Active {
			parts = append(parts, theme.TabActive.Render(label))
		} else {
			parts = append(parts, theme.Tab.Render(label))
		}
	}
	line := strings.Join(parts, theme.TabDivider.Render("│"))
	if h.Width > 0 {
		return theme.Header.Width(h.Width).Render(line)
	}
	return theme.Header.Render(line)
}

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom line of the app.
type StatusBar struct {
	ServerAvailable bool
	Offline         bool
	Server          string
	CacheEntries    int
	Message         string
	Shortcuts       [][2]string // key, description
	Width           int
}

// View renders the status bar, dropping shortcuts that do not fit.
func (s StatusBar) View(theme *styles.Theme) string {
	var state string
	switch {
	case s.Offline:
		state = theme.Offline.Render(styles.StatusIndicators.Warning + " offline")
	case s.ServerAvailable:
		state = theme.Online.Render(styles.StatusIndicators.Active + " online")
	default:
		state = theme.Offline.Render(styles.StatusIndicators.Error + " unavailable")
	}

	left := []string{state}
	if s.Server != "" {
		left = append(left, theme.Muted.Render(s.Server))
	}
	left = append(left, theme.Muted.Render(fmt.Sprintf("cache %d", s.CacheEntries)))
	if s.Message != "" {
		left = append(left, s.Message)
	}
	leftText := strings.Join(left, "  ")

	var keys []string
	budget := s.Width - lipgloss.Width(leftText) - 4
	for _, sc := range s.Shortcuts {
		item := theme.ShortcutKey.Render(sc[0]) + " " + theme.ShortcutDesc.Render(sc[1])
		w := lipgloss.Width(item) + 2
		if s.Width > 0 && w > budget {
			break
		}
		budget -= w
		keys = append(keys, item)
	}
	rightText := strings.Join(keys, "  ")

	gap := 2
	if s.Width > 0 {
		if g := s.Width - lipgloss.Width(leftText) - lipgloss.Width(rightText) - 2; g > gap {
			gap = g
		}
	}
	line := leftText + strings.Repeat(" ", gap) + rightText
	if s.Width > 0 {
		return theme.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(line)
	}
	return theme.StatusBar.Render(line)
}
