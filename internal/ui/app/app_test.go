// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/api/apitest"
	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/ui/monitoring"
	"github.com/jeranaias/qa-assistant/internal/ui/ranking"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

func newApp(t *testing.T) (*Model, *config.Config) {
	t.Helper()
	srv := apitest.New().Start(t)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.UI.Theme = styles.ModeMono
	client := api.New(cfg.API, api.Options{})

	m := New(context.Background(), Options{
		Backend:      client,
		Config:       cfg,
		Theme:        styles.NewTheme(styles.ModeMono),
		Server:       srv.URL,
		CacheEntries: func(context.Context) int { return 4 },
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, cfg
}

func TestView_HeaderAndStatus(t *testing.T) {
	m, _ := newApp(t)
	view := m.View()
	assert.Contains(t, view, "QA Assistant")
	assert.Contains(t, view, "Monitoring")
	assert.Contains(t, view, "cache 4")
	assert.Contains(t, view, "online")
}

func TestSwitch_LoadsRankingOnce(t *testing.T) {
	m, _ := newApp(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewRanking, m.Active())
	require.NotNil(t, cmd)
	assert.True(t, m.ranking.Loading())

	// Feed the load result straight in rather than running the batch.
	entries, err := m.backend.FetchRanking(context.Background())
	require.NoError(t, err)
	m.Update(ranking.LoadedMsg{Entries: entries})
	require.NotEmpty(t, entries)
	assert.Contains(t, m.View(), entries[0].ApplicationName)

	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, ViewChat, m.Active())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyF2})
	assert.Nil(t, cmd, "already loaded")
}

func TestSwitch_Wraps(t *testing.T) {
	m, _ := newApp(t)
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, ViewMonitoring, m.Active())
	assert.True(t, m.monitoring.Loading())

	m.Update(monitoring.LoadedMsg{Data: monitoring.Load(context.Background(), m.backend, 7, nil)})
	assert.Contains(t, m.View(), "Server cache")
}

func TestKeysGoToActiveViewOnly(t *testing.T) {
	m, _ := newApp(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.False(t, m.ranking.Loading(), "r typed in chat must not refresh the ranking")
}

func TestQuit_CancelsContext(t *testing.T) {
	m, _ := newApp(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err())
}

func TestConfigChanged(t *testing.T) {
	m, cfg := newApp(t)

	next := cfg.Clone()
	next.UI.ShowSQL = true
	next.UI.RefreshSecs = 30
	_, cmd := m.Update(ConfigChangedMsg{Config: next})
	assert.NotNil(t, cmd, "auto-refresh restarts")
	assert.Contains(t, m.View(), "configuration reloaded")

	next2 := next.Clone()
	next2.API.BaseURL = "http://elsewhere"
	m.Update(ConfigChangedMsg{Config: next2})
	assert.Contains(t, m.notice, "restart")
}
