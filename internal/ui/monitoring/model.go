// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package monitoring is the monitoring view: server cache and learning
// statistics next to the locally recorded analytics.
//
// Each panel loads independently, so a backend that only exposes some of
// the monitoring endpoints still shows what it can.
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/session"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

// popularLimit is how many popular queries are requested.
const popularLimit = 10

// Source is the backend side of the monitoring view.
type Source interface {
	FetchCacheStats(ctx context.Context) (*model.CacheStats, error)
	FetchCacheFrequency(ctx context.Context, days int) (model.FrequencyStats, error)
	FetchLearningStats(ctx context.Context) (*model.LearningStats, error)
	FetchPopularQueries(ctx context.Context, limit int) ([]model.LearnedQuery, error)
	ClearServerCache(ctx context.Context) error
}

// Data is one load of every panel. A panel whose fetch failed has its
// error set and its value nil.
type Data struct {
	Stats     *model.CacheStats
	StatsErr  error
	Frequency model.FrequencyStats
	FreqErr   error
	Learning  *model.LearningStats
	LearnErr  error
	Popular   []model.LearnedQuery
	PopErr    error
	Analytics *telemetry.Snapshot
	At        time.Time
}

// Load fetches every panel concurrently.
func Load(ctx context.Context, src Source, days int, analytics func(context.Context) telemetry.Snapshot) Data {
	var (
		d  Data
		wg sync.WaitGroup
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		d.Stats, d.StatsErr = src.FetchCacheStats(ctx)
	}()
	go func() {
		defer wg.Done()
		d.Frequency, d.FreqErr = src.FetchCacheFrequency(ctx, days)
	}()
	go func() {
		defer wg.Done()
		d.Learning, d.LearnErr = src.FetchLearningStats(ctx)
	}()
	go func() {
		defer wg.Done()
		d.Popular, d.PopErr = src.FetchPopularQueries(ctx, popularLimit)
	}()
	if analytics != nil {
		snap := analytics(ctx)
		d.Analytics = &snap
	}
	wg.Wait()
	d.At = time.Now()
	return d
}

// Errors returns the panel errors that occurred, in panel order.
func (d Data) Errors() []error {
	var errs []error
	for _, err := range []error{d.StatsErr, d.FreqErr, d.LearnErr, d.PopErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// =============================================================================
// MESSAGES
// =============================================================================

// LoadedMsg carries a completed load.
type LoadedMsg struct {
	Data Data
}

// ClearedMsg reports a server cache clear.
type ClearedMsg struct {
	Err error
}

// tickMsg drives auto-refresh. gen discards ticks of a superseded loop.
type tickMsg struct {
	gen int
}

// =============================================================================
// KEYS
// =============================================================================

// KeyMap defines the monitoring view bindings.
type KeyMap struct {
	Refresh    key.Binding
	ClearCache key.Binding
	Confirm    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// DefaultKeyMap returns the default monitoring bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		ClearCache: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear server cache"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
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
	return []key.Binding{k.Refresh, k.ClearCache, k.ScrollDown}
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures the monitoring view.
type Options struct {
	Source Source

	// Analytics returns the local snapshot. Nil hides the panel.
	Analytics func(context.Context) telemetry.Snapshot

	Catalog *session.Catalog
	Theme   *styles.Theme

	// FrequencyDays is the frequency window, api.DefaultFrequencyDays if 0.
	FrequencyDays int

	// RefreshInterval enables auto-refresh when positive.
	RefreshInterval time.Duration

	Logger *zap.Logger
}

// Model is the bubbletea monitoring view.
type Model struct {
	ctx       context.Context
	source    Source
	analytics func(context.Context) telemetry.Snapshot
	catalog   *session.Catalog
	theme     *styles.Theme
	keys      KeyMap
	logger    *zap.Logger

	days     int
	interval time.Duration
	tickGen  int

	viewport viewport.Model
	spinner  spinner.Model

	data       *Data
	loading    bool
	confirming bool
	notice     string
	width      int
}

// New creates the monitoring view.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	days := opts.FrequencyDays
	if days <= 0 {
		days = api.DefaultFrequencyDays
	}
	cat := opts.Catalog
	if cat == nil {
		cat = session.NewCatalog("")
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = opts.Theme.Spinner

	return Model{
		ctx:       ctx,
		source:    opts.Source,
		analytics: opts.Analytics,
		catalog:   cat,
		theme:     opts.Theme,
		keys:      DefaultKeyMap(),
		logger:    logger,
		days:      days,
		interval:  opts.RefreshInterval,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		width:     80,
	}
}

// Keys returns the view's key bindings.
func (m Model) Keys() KeyMap { return m.keys }

// Data returns the last completed load, or nil.
func (m Model) Data() *Data { return m.data }

// Loading reports whether a load is in flight.
func (m Model) Loading() bool { return m.loading }

// Confirming reports whether a cache clear awaits confirmation.
func (m Model) Confirming() bool { return m.confirming }

// Notice returns the last transient status text.
func (m Model) Notice() string { return m.notice }

// Refresh returns a command that reloads every panel, or nil while a load
// is already running.
func (m *Model) Refresh() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	m.refresh()
	ctx, src, days, analytics := m.ctx, m.source, m.days, m.analytics
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return LoadedMsg{Data: Load(ctx, src, days, analytics)}
	})
}

// StartAutoRefresh begins the auto-refresh loop, replacing any running one.
// It returns nil when auto-refresh is disabled.
func (m *Model) StartAutoRefresh() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	m.tickGen++
	return m.tick()
}

// SetRefreshInterval changes the auto-refresh period and restarts the loop.
func (m *Model) SetRefreshInterval(d time.Duration) tea.Cmd {
	m.interval = d
	if d <= 0 {
		m.tickGen++
		return nil
	}
	return m.StartAutoRefresh()
}

func (m Model) tick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m Model) clear() tea.Cmd {
	ctx, src := m.ctx, m.source
	return func() tea.Msg {
		return ClearedMsg{Err: src.ClearServerCache(ctx)}
	}
}

// Update handles messages for the monitoring view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case LoadedMsg:
		m.loading = false
		d := msg.Data
		m.data = &d
		for _, err := range d.Errors() {
			m.logger.Debug("monitoring panel failed", zap.Error(err))
		}
		m.refresh()
		return m, nil

	case ClearedMsg:
		if msg.Err != nil {
			m.notice = "clear failed: " + msg.Err.Error()
			m.refresh()
			return m, nil
		}
		m.notice = "server cache cleared"
		return m, m.Refresh()

	case tickMsg:
		if msg.gen != m.tickGen || m.interval <= 0 {
			return m, nil
		}
		return m, tea.Batch(m.Refresh(), m.tick())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		if m.confirming {
			m.confirming = false
			if key.Matches(msg, m.keys.Confirm) {
				m.notice = "clearing server cache..."
				m.refresh()
				return m, m.clear()
			}
			m.notice = ""
			m.refresh()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Refresh()
		case key.Matches(msg, m.keys.ClearCache):
			m.confirming = true
			m.notice = "clear the server cache? press y to confirm"
			m.refresh()
			return m, nil
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

// View renders the monitoring view.
func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
}
