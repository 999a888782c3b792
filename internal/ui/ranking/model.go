// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ranking is the coverage ranking view: applications sorted by
// test coverage, each with a bar coloured by its coverage band.
package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
	"github.com/jeranaias/qa-assistant/internal/util"
)

// Fetcher loads the ranking.
type Fetcher interface {
	FetchRanking(ctx context.Context) ([]model.RankingEntry, error)
}

// LoadedMsg carries a fetched ranking.
type LoadedMsg struct {
	Entries []model.RankingEntry
	Err     error
	At      time.Time
}

// KeyMap defines the ranking view bindings.
type KeyMap struct {
	Refresh    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// DefaultKeyMap returns the default ranking bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k", "pgup"),
			key.WithHelp("↑", "scroll"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j", "pgdown"),
			key.WithHelp("↓", "scroll"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.ScrollDown}
}

// Model is the bubbletea ranking view.
type Model struct {
	ctx     context.Context
	fetcher Fetcher
	theme   *styles.Theme
	keys    KeyMap
	logger  *zap.Logger

	viewport viewport.Model
	spinner  spinner.Model

	entries  []model.RankingEntry
	err      error
	loading  bool
	loaded   bool
	loadedAt time.Time
	width    int
}

// New creates the ranking view.
func New(ctx context.Context, fetcher Fetcher, theme *styles.Theme, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Spinner
	return Model{
		ctx:      ctx,
		fetcher:  fetcher,
		theme:    theme,
		keys:     DefaultKeyMap(),
		logger:   logger,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    80,
	}
}

// Keys returns the view's key bindings.
func (m Model) Keys() KeyMap { return m.keys }

// Entries returns the loaded ranking.
func (m Model) Entries() []model.RankingEntry { return m.entries }

// Err returns the last load error.
func (m Model) Err() error { return m.err }

// Loaded reports whether a load has completed, successfully or not.
func (m Model) Loaded() bool { return m.loaded }

// Loading reports whether a fetch is in flight.
func (m Model) Loading() bool { return m.loading }

// Refresh returns a command that reloads the ranking. The returned command
// is nil while a load is already running.
func (m *Model) Refresh() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	m.refresh()
	fetcher, ctx := m.fetcher, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		entries, err := fetcher.FetchRanking(ctx)
		return LoadedMsg{Entries: entries, Err: err, At: time.Now()}
	})
}

// Update handles messages for the ranking view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case LoadedMsg:
		m.loading = false
		m.loaded = true
		if msg.Err != nil {
			m.logger.Warn("ranking load failed", zap.Error(msg.Err))
			m.err = msg.Err
		} else {
			m.err = nil
			m.entries = msg.Entries
			m.loadedAt = msg.At
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Refresh()
		case key.Matches(msg, m.keys.ScrollUp):
			m.viewport.LineUp(1)
			return m, nil
		case key.Matches(msg, m.keys.ScrollDown):
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	return m, nil
}

// SetSize lays the view out in width x height cells.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh()
}

// View renders the ranking view.
func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
}

func (m *Model) render() string {
	var b strings.Builder
	b.WriteString(m.theme.CardTitle.Render("Test coverage ranking"))
	if !m.loadedAt.IsZero() {
		b.WriteString(m.theme.Muted.Render("  updated " + m.loadedAt.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.theme.ErrorBanner.Render("Could not load the ranking: " + m.err.Error()))
		b.WriteString("\n")
		b.WriteString(m.theme.Muted.Render("press r to retry"))
		b.WriteString("\n\n")
	}
	if m.loading {
		b.WriteString(m.spinner.View() + m.theme.Muted.Render(" loading ranking..."))
		b.WriteString("\n\n")
	}
	if len(m.entries) == 0 {
		if !m.loading && m.err == nil {
			b.WriteString(m.theme.Muted.Render("No applications in the ranking."))
		}
		return b.String()
	}
	b.WriteString(Table(m.entries, m.width, m.theme))
	return b.String()
}

// =============================================================================
// TABLE
// =============================================================================

const (
	barWidth  = 20
	nameWidth = 28
)

// Table renders entries as ranked rows fitting in width cells. Entries are
// shown in the order given.
func Table(entries []model.RankingEntry, width int, theme *styles.Theme) string {
	descWidth := width - nameWidth - barWidth - 30
	if descWidth < 10 {
		descWidth = 0
	}

	header := fmt.Sprintf("%4s  %s", "#", util.PadRight("Application", nameWidth))
	if descWidth > 0 {
		header += "  " + util.PadRight("Description", descWidth)
	}
	header += "  Coverage"

	lines := []string{theme.TableHeader.Render(header)}
	for i, e := range entries {
		line := fmt.Sprintf("%4d  %s", i+1, util.PadRight(util.TruncateWidth(e.ApplicationName, nameWidth), nameWidth))
		if descWidth > 0 {
			desc := util.TruncateWidth(util.SingleLine(e.Description), descWidth)
			line += "  " + theme.Muted.Render(util.PadRight(desc, descWidth))
		}
		band := e.Band()
		line += "  " + components.CoverageBar(e.CoveragePercent, barWidth, theme) +
			" " + theme.CoverageStyle(band).Render(band.String())
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
