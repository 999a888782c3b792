// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root bubbletea model: a header with the view tabs,
// the active view, and a status bar.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/session"
	"github.com/jeranaias/qa-assistant/internal/storage"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
	"github.com/jeranaias/qa-assistant/internal/ui/chat"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/ui/monitoring"
	"github.com/jeranaias/qa-assistant/internal/ui/ranking"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

// View identifies a tab.
type View int

const (
	ViewChat View = iota
	ViewRanking
	ViewMonitoring
	viewCount
)

var viewNames = [viewCount]string{"Chat", "Ranking", "Monitoring"}

// String returns the tab label.
func (v View) String() string {
	if v < 0 || v >= viewCount {
		return "unknown"
	}
	return viewNames[v]
}

// Backend is everything the views ask of the API client.
type Backend interface {
	session.Asker
	ranking.Fetcher
	monitoring.Source
}

// ConfigChangedMsg is sent when the config file was edited and reloaded.
type ConfigChangedMsg struct {
	Config *config.Config
}

// Options configures the app.
type Options struct {
	Backend Backend
	Config  *config.Config
	Theme   *styles.Theme

	// Server is shown in the status bar.
	Server string

	Transcripts *storage.TranscriptStore

	// Analytics feeds the local analytics panel. Nil hides it.
	Analytics func(context.Context) telemetry.Snapshot

	// CacheEntries reports the local cache size for the status bar.
	CacheEntries func(context.Context) int

	Logger *zap.Logger
}

// Model is the root model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	backend      Backend
	cfg          *config.Config
	theme        *styles.Theme
	keys         KeyMap
	logger       *zap.Logger
	server       string
	cacheEntries func(context.Context) int

	chat       chat.Model
	ranking    ranking.Model
	monitoring monitoring.Model

	active  View
	visited [viewCount]bool
	entries int
	notice  string
	width   int
	height  int
}

// New creates the app. Cancelling ctx, or quitting, aborts every request
// the views started.
func New(ctx context.Context, opts Options) *Model {
	ctx, cancel := context.WithCancel(ctx)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}

	sess := session.New(opts.Backend, session.Options{Locale: cfg.UI.Locale, Logger: logger})

	m := &Model{
		ctx:          ctx,
		cancel:       cancel,
		backend:      opts.Backend,
		cfg:          cfg,
		theme:        theme,
		keys:         DefaultKeyMap(),
		logger:       logger,
		server:       opts.Server,
		cacheEntries: opts.CacheEntries,
		chat: chat.New(ctx, chat.Options{
			Chat:        sess,
			Client:      opts.Backend,
			Theme:       theme,
			Transcripts: opts.Transcripts,
			Server:      opts.Server,
			ShowSQL:     cfg.UI.ShowSQL,
			Plain:       cfg.UI.Theme == styles.ModeMono,
			Logger:      logger.Named("chat"),
		}),
		ranking: ranking.New(ctx, opts.Backend, theme, logger.Named("ranking")),
		monitoring: monitoring.New(ctx, monitoring.Options{
			Source:          opts.Backend,
			Analytics:       opts.Analytics,
			Catalog:         sess.Catalog(),
			Theme:           theme,
			RefreshInterval: time.Duration(cfg.UI.RefreshSecs) * time.Second,
			Logger:          logger.Named("monitoring"),
		}),
		width:  80,
		height: 24,
	}
	m.visited[ViewChat] = true
	m.updateEntries()
	return m
}

// Active returns the visible view.
func (m *Model) Active() View { return m.active }

// Init starts the chat view.
func (m *Model) Init() tea.Cmd {
	return m.chat.Init()
}

// Update handles messages for the app.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConfigChangedMsg:
		return m, m.applyConfig(msg.Config)

	case chat.AnswerMsg, chat.ProbeMsg, chat.SavedMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		if _, ok := msg.(chat.AnswerMsg); ok {
			m.updateEntries()
		}
		return m, cmd

	case ranking.LoadedMsg:
		var cmd tea.Cmd
		m.ranking, cmd = m.ranking.Update(msg)
		return m, cmd

	case monitoring.LoadedMsg, monitoring.ClearedMsg:
		var cmd tea.Cmd
		m.monitoring, cmd = m.monitoring.Update(msg)
		return m, cmd
	}

	// Spinner ticks and timers carry their own IDs, so every view sees them
	// and ignores what is not its own.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	m.ranking, cmd = m.ranking.Update(msg)
	cmds = append(cmds, cmd)
	m.monitoring, cmd = m.monitoring.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		return m, m.Switch((m.active + 1) % viewCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.Switch((m.active + viewCount - 1) % viewCount)
	case key.Matches(msg, m.keys.Chat):
		return m, m.Switch(ViewChat)
	case key.Matches(msg, m.keys.Ranking):
		return m, m.Switch(ViewRanking)
	case key.Matches(msg, m.keys.Monitoring):
		return m, m.Switch(ViewMonitoring)
	}

	var cmd tea.Cmd
	switch m.active {
	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
	case ViewRanking:
		m.ranking, cmd = m.ranking.Update(msg)
	case ViewMonitoring:
		m.monitoring, cmd = m.monitoring.Update(msg)
	}
	return m, cmd
}

// Switch shows v. The ranking and monitoring views load on first display,
// and monitoring starts its auto-refresh then.
func (m *Model) Switch(v View) tea.Cmd {
	if v < 0 || v >= viewCount {
		return nil
	}
	m.active = v
	m.notice = ""
	if m.visited[v] {
		return nil
	}
	m.visited[v] = true
	switch v {
	case ViewRanking:
		return m.ranking.Refresh()
	case ViewMonitoring:
		return tea.Batch(m.monitoring.Refresh(), m.monitoring.StartAutoRefresh())
	}
	return nil
}

// applyConfig takes over the settings that can change at runtime. The
// backend address, storage, theme and locale are fixed for the process.
func (m *Model) applyConfig(cfg *config.Config) tea.Cmd {
	if cfg == nil {
		return nil
	}
	old := m.cfg
	m.cfg = cfg
	m.logger.Info("configuration reloaded")

	var cmd tea.Cmd
	if cfg.UI.ShowSQL != old.UI.ShowSQL {
		m.chat.SetShowSQL(cfg.UI.ShowSQL)
	}
	if cfg.UI.RefreshSecs != old.UI.RefreshSecs {
		cmd = m.monitoring.SetRefreshInterval(time.Duration(cfg.UI.RefreshSecs) * time.Second)
	}
	m.notice = "configuration reloaded"
	if cfg.API.BaseURL != old.API.BaseURL || cfg.UI.Theme != old.UI.Theme || cfg.UI.Locale != old.UI.Locale {
		m.notice += " (restart to apply server, theme or locale)"
	}
	return cmd
}

func (m *Model) updateEntries() {
	if m.cacheEntries != nil {
		m.entries = m.cacheEntries(m.ctx)
	}
}

func (m *Model) layout() {
	h := m.height - 2
	if h < 3 {
		h = 3
	}
	m.chat.SetSize(m.width, h)
	m.ranking.SetSize(m.width, h)
	m.monitoring.SetSize(m.width, h)
}

// View renders the app.
func (m *Model) View() string {
	tabs := make([]string, viewCount)
	for i := range tabs {
		tabs[i] = View(i).String()
	}
	header := components.Header{Brand: "QA Assistant", Tabs: tabs, Active: int(m.active), Width: m.width}

	var body string
	var help []key.Binding
	notice := m.notice
	switch m.active {
	case ViewChat:
		body = m.chat.View()
		help = m.chat.Keys().ShortHelp()
		if notice == "" {
			notice = m.chat.Notice()
		}
	case ViewRanking:
		body = m.ranking.View()
		help = m.ranking.Keys().ShortHelp()
	case ViewMonitoring:
		body = m.monitoring.View()
		help = m.monitoring.Keys().ShortHelp()
	}
	help = append(help, m.keys.ShortHelp()...)

	shortcuts := make([][2]string, 0, len(help))
	for _, b := range help {
		h := b.Help()
		shortcuts = append(shortcuts, [2]string{h.Key, h.Desc})
	}

	status := components.StatusBar{
		ServerAvailable: m.chat.Session().ServerAvailable(),
		Offline:         m.backend.Offline(),
		Server:          m.server,
		CacheEntries:    m.entries,
		Message:         notice,
		Shortcuts:       shortcuts,
		Width:           m.width,
	}
	return header.View(m.theme) + "\n" + body + "\n" + status.View(m.theme)
}
