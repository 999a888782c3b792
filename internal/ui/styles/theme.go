// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/qa-assistant/internal/model"
)

// Theme modes accepted in ui.theme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
	ModeMono  = "mono"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER AND TABS
	// ==========================================================================

	Header     lipgloss.Style
	Brand      lipgloss.Style
	Tab        lipgloss.Style
	TabActive  lipgloss.Style
	TabDivider lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	ErrorBubble     lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style
	IntentSQL       lipgloss.Style
	IntentRAG       lipgloss.Style
	IntentOther     lipgloss.Style
	CacheBadge      lipgloss.Style
	Suggestion      lipgloss.Style
	SuggestionKey   lipgloss.Style
	SourceTitle     lipgloss.Style
	CodeBlock       lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	Online         lipgloss.Style
	Offline        lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	Spinner        lipgloss.Style

	// ==========================================================================
	// TABLES, CARDS, STATISTICS
	// ==========================================================================

	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableNull   lipgloss.Style
	Card        lipgloss.Style
	CardTitle   lipgloss.Style
	StatLabel   lipgloss.Style
	StatValue   lipgloss.Style
	Muted       lipgloss.Style
	ErrorBanner lipgloss.Style

	CoverageExcellent lipgloss.Style
	CoverageGood      lipgloss.Style
	CoverageRegular   lipgloss.Style
	BarEmpty          lipgloss.Style
}

// NewTheme creates a theme for mode (auto, dark, light or mono).
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()

	switch strings.ToLower(mode) {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	case ModeMono:
		profile = termenv.Ascii
	}
	lipgloss.SetHasDarkBackground(isDark)
	lipgloss.SetColorProfile(profile)

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

// DefaultTheme returns the auto-detected theme.
func DefaultTheme() *Theme {
	return NewTheme(ModeAuto)
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.TabActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 1)

	t.TabDivider = lipgloss.NewStyle().
		Foreground(Overlay)

	// Message bubbles
	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)

	t.UserBubble = bubble.Copy().
		Foreground(UserBubbleFg).
		BorderForeground(UserBubbleBorder).
		MarginLeft(4)

	t.AssistantBubble = bubble.Copy().
		Foreground(AssistantBubbleFg).
		BorderForeground(AssistantBubbleBorder).
		MarginRight(4)

	t.SystemBubble = bubble.Copy().
		Foreground(SystemBubbleFg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(SystemBubbleBorder)

	t.ErrorBubble = bubble.Copy().
		Foreground(ErrorBubbleFg).
		BorderForeground(Rose).
		MarginRight(4)

	t.RoleLabel = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(TextInverse)
	t.IntentSQL = badge.Copy().Background(Blue)
	t.IntentRAG = badge.Copy().Background(Purple)
	t.IntentOther = badge.Copy().Background(TextMuted)
	t.CacheBadge = badge.Copy().Background(Emerald)

	t.Suggestion = lipgloss.NewStyle().Foreground(Cyan)
	t.SuggestionKey = lipgloss.NewStyle().Foreground(TextMuted).Bold(true)
	t.SourceTitle = lipgloss.NewStyle().Foreground(Purple).Underline(true)

	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Blue).
		PaddingLeft(1)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.Online = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.Offline = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)

	// Tables and cards
	t.TableHeader = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.TableCell = lipgloss.NewStyle().Foreground(TextPrimary)
	t.TableNull = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CardTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.StatLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.StatValue = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(ErrorBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		PaddingLeft(1)

	t.CoverageExcellent = lipgloss.NewStyle().Foreground(Emerald)
	t.CoverageGood = lipgloss.NewStyle().Foreground(Amber)
	t.CoverageRegular = lipgloss.NewStyle().Foreground(Rose)
	t.BarEmpty = lipgloss.NewStyle().Foreground(OverlayDim)
}

// IntentBadge renders the intent label of an answer.
func (t *Theme) IntentBadge(intent model.Intent) string {
	switch intent {
	case model.IntentSQL:
		return t.IntentSQL.Render("SQL")
	case model.IntentRAG:
		return t.IntentRAG.Render("RAG")
	}
	return t.IntentOther.Render(string(intent))
}

// CoverageStyle returns the style of a coverage band.
func (t *Theme) CoverageStyle(band model.CoverageBand) lipgloss.Style {
	switch band {
	case model.BandExcellent:
		return t.CoverageExcellent
	case model.BandGood:
		return t.CoverageGood
	}
	return t.CoverageRegular
}
