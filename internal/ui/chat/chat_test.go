// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/session"
	"github.com/jeranaias/qa-assistant/internal/storage"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

type stubAsker struct {
	probeErr error
}

func (s *stubAsker) AskDetailed(_ context.Context, q string) (*api.Answer, error) {
	return &api.Answer{Result: &model.QueryResult{Intent: model.IntentRAG, Answer: "ok " + q, Success: true}}, nil
}

func (s *stubAsker) CheckServerReachable(context.Context) error { return s.probeErr }

func (s *stubAsker) Offline() bool { return false }

func newModel(t *testing.T, opts Options) Model {
	t.Helper()
	client := &stubAsker{}
	if opts.Client == nil {
		opts.Client = client
	}
	if opts.Chat == nil {
		opts.Chat = session.New(opts.Client, session.Options{Locale: "en"})
	}
	opts.Theme = styles.NewTheme(styles.ModeMono)
	opts.Plain = true
	m := New(context.Background(), opts)
	m.SetSize(100, 40)
	return m
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNew_ShowsWelcome(t *testing.T) {
	m := newModel(t, Options{})
	msgs := m.Session().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.IntentWelcome, msgs[0].Result.Intent)
	assert.Contains(t, m.View(), "[alt+1]")
}

func TestSend_AppendsQuestionAndAnswer(t *testing.T) {
	m := newModel(t, Options{})
	m = typeText(m, "which apps")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.Session().Loading())
	assert.Empty(t, m.input.Value())

	ans := &api.Answer{
		Result: &model.QueryResult{
			Intent:       model.IntentSQL,
			Answer:       "three apps",
			GeneratedSQL: "SELECT name FROM apps",
			RawResults: []model.Row{
				model.NewRow([]string{"name"}, map[string]any{"name": "billing"}),
			},
			Success: true,
		},
		FromCache: true,
	}
	m, _ = m.Update(AnswerMsg{Answer: ans})

	assert.False(t, m.Session().Loading())
	msgs := m.Session().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "which apps", msgs[1].Text)
	assert.Equal(t, "three apps", msgs[2].Text)

	view := m.render()
	assert.Contains(t, view, "cache")
	assert.Contains(t, view, "billing")
	assert.NotContains(t, view, "SELECT name FROM apps")

	m.SetShowSQL(true)
	assert.Contains(t, m.render(), "SELECT name FROM apps")
}

func TestSend_IgnoredWhileLoading(t *testing.T) {
	m := newModel(t, Options{})
	m = typeText(m, "first")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.Session().Loading())

	m = typeText(m, "second")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "second", m.input.Value())
	assert.Len(t, m.Session().Messages(), 2)
}

func TestAnswerError_ShowsSuggestions(t *testing.T) {
	m := newModel(t, Options{})
	m = typeText(m, "q")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	err := &api.Error{Op: "ask", Kind: api.KindTimeout, Err: context.DeadlineExceeded}
	m, _ = m.Update(AnswerMsg{Err: err})

	msgs := m.Session().Messages()
	last := msgs[len(msgs)-1]
	assert.True(t, last.IsError)
	cat := m.Session().Catalog()
	assert.Equal(t, []string{cat.Text(session.MsgRetry), cat.Text(session.MsgCheckConnection)}, last.Suggestions)

	// Only the newest message gets numbered suggestions.
	view := m.render()
	assert.Contains(t, view, "[alt+1] "+cat.Text(session.MsgRetry))
	assert.Contains(t, view, "[alt+2] "+cat.Text(session.MsgCheckConnection))
}

func TestSuggestionKey_Retry(t *testing.T) {
	m := newModel(t, Options{})
	m = typeText(m, "again")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(AnswerMsg{Err: errors.New("boom")})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})
	require.NotNil(t, cmd)
	msgs := m.Session().Messages()
	assert.Equal(t, "again", msgs[len(msgs)-1].Text)
	assert.True(t, m.Session().Loading())
}

func TestProbeFailure_BlocksSending(t *testing.T) {
	m := newModel(t, Options{})
	m, _ = m.Update(ProbeMsg{Err: errors.New("down")})
	assert.False(t, m.Session().ServerAvailable())

	m = typeText(m, "hello")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestClear_ResetsConversation(t *testing.T) {
	m := newModel(t, Options{})
	m = typeText(m, "q")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(AnswerMsg{Answer: &api.Answer{Result: &model.QueryResult{Intent: model.IntentRAG, Answer: "a", Success: true}, Elapsed: time.Second}})
	require.Len(t, m.Session().Messages(), 3)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Len(t, m.Session().Messages(), 1)
	assert.Empty(t, m.info)
}

func TestSave_WritesTranscript(t *testing.T) {
	store, err := storage.NewTranscriptStore(t.TempDir())
	require.NoError(t, err)
	m := newModel(t, Options{Transcripts: store, Server: "http://qa"})

	m = typeText(m, "saved question")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(AnswerMsg{Answer: &api.Answer{Result: &model.QueryResult{Intent: model.IntentRAG, Answer: "a", Success: true}}})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	saved, ok := cmd().(SavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.Err)

	tr, err := store.Load(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"saved question"}, session.UserQuestions(tr))

	m, _ = m.Update(saved)
	assert.Contains(t, m.Notice(), saved.ID)
}

func TestSuggestionIndex(t *testing.T) {
	i, ok := suggestionIndex("alt+3")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = suggestionIndex("alt+0")
	assert.False(t, ok)
	_, ok = suggestionIndex("3")
	assert.False(t, ok)
}
