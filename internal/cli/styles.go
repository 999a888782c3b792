// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for CLI output.
//
// Colors are disabled for piped output and when NO_COLOR is set; see
// ColorsEnabled.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan).
			MarginBottom(1)

	// SectionStyle is used for section headers within a command
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimary).
			MarginTop(1)

	// LabelStyle is used for field labels; 20 cells wide
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(20)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for hints and secondary information
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.OverlayDim)

	InfoStyle = lipgloss.NewStyle().
			Foreground(styles.Blue)

	// PromptStyle is the chat prompt marker
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// CommandStyle highlights slash commands and shortcuts in help text
	CommandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule, 70 cells unless width is given.
func RenderSeparator(width ...int) string {
	w := 70
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("=", w))
}

// RenderStatus renders a bracketed status indicator.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "up", "success", "pass":
		return SuccessStyle.Render("[OK]")
	case "error", "fail", "failed", "down":
		return ErrorStyle.Render("[FAIL]")
	case "warning", "warn", "offline":
		return WarningStyle.Render("[WARN]")
	default:
		return DimStyle.Render("[" + strings.ToUpper(status) + "]")
	}
}

// RenderLabel renders "label   value" with the label column padded.
func RenderLabel(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

// RenderIntent renders an intent tag like [SQL].
func RenderIntent(intent model.Intent) string {
	style := InfoStyle
	switch intent {
	case model.IntentSQL:
		style = SuccessStyle
	case model.IntentWelcome:
		style = DimStyle
	}
	return style.Render("[" + string(intent) + "]")
}
