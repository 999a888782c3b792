// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/session"
	"github.com/jeranaias/qa-assistant/internal/storage"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// AnswerMsg delivers the outcome of a question asked off the event loop.
type AnswerMsg struct {
	Answer *api.Answer
	Err    error
}

// ProbeMsg delivers the outcome of a connection check.
type ProbeMsg struct {
	Err error
}

// SavedMsg reports a transcript save.
type SavedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures the chat view.
type Options struct {
	Chat        *session.Chat
	Client      session.Asker
	Theme       *styles.Theme
	Transcripts *storage.TranscriptStore
	Server      string
	ShowSQL     bool
	Plain       bool
	Logger      *zap.Logger
}

// answerInfo is display metadata the session does not keep.
type answerInfo struct {
	fromCache bool
	elapsed   time.Duration
}

// Model is the bubbletea chat view.
type Model struct {
	ctx    context.Context
	chat   *session.Chat
	client session.Asker
	theme  *styles.Theme
	keys   KeyMap
	logger *zap.Logger

	transcripts *storage.TranscriptStore
	server      string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *components.Markdown

	showSQL bool
	plain   bool
	width   int
	height  int

	// info is keyed by message ID.
	info    map[string]answerInfo
	pending time.Time
	notice  string
}

// New creates the chat view. ctx bounds every request it starts.
func New(ctx context.Context, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "Ask a question..."
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = opts.Theme.Spinner

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts.Chat.Clear()
	return Model{
		ctx:         ctx,
		chat:        opts.Chat,
		client:      opts.Client,
		theme:       opts.Theme,
		keys:        DefaultKeyMap(),
		logger:      logger,
		transcripts: opts.Transcripts,
		server:      opts.Server,
		input:       in,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		markdown:    components.NewMarkdown(76, opts.Theme.IsDark, opts.Plain),
		showSQL:     opts.ShowSQL,
		plain:       opts.Plain,
		info:        make(map[string]answerInfo),
	}
}

// Keys returns the view's key bindings.
func (m Model) Keys() KeyMap { return m.keys }

// Session returns the underlying chat.
func (m Model) Session() *session.Chat { return m.chat }

// Notice returns the last transient status text.
func (m Model) Notice() string { return m.notice }

// SetShowSQL toggles generated SQL display.
func (m *Model) SetShowSQL(show bool) {
	m.showSQL = show
	m.refresh()
}

// Init probes the backend.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.probe())
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) probe() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		if client.Offline() {
			return ProbeMsg{}
		}
		return ProbeMsg{Err: client.CheckServerReachable(ctx)}
	}
}

func (m Model) ask(question string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		ans, err := client.AskDetailed(ctx, question)
		return AnswerMsg{Answer: ans, Err: err}
	}
}

func (m Model) save() tea.Cmd {
	store := m.transcripts
	tr := m.chat.Transcript(m.server)
	return func() tea.Msg {
		if store == nil {
			return SavedMsg{Err: fmt.Errorf("transcript storage not configured")}
		}
		id, err := store.Save(tr)
		return SavedMsg{ID: id, Err: err}
	}
}

// send starts a question if the session accepts it.
func (m *Model) send(text string) tea.Cmd {
	q, ok := m.chat.Begin(text)
	if !ok {
		return nil
	}
	m.pending = time.Now()
	m.refresh()
	return tea.Batch(m.spinner.Tick, m.ask(q))
}

// useSuggestion performs the suggestion at index i of the newest message
// that has suggestions.
func (m *Model) useSuggestion(i int) tea.Cmd {
	suggestions := m.chat.LastSuggestions()
	if i < 0 || i >= len(suggestions) {
		return nil
	}
	return m.perform(suggestions[i])
}

func (m *Model) perform(suggestion string) tea.Cmd {
	action := m.chat.ResolveSuggestion(suggestion)
	switch action.Kind {
	case session.ActionAsk:
		return m.send(action.Question)
	case session.ActionCheckConnection:
		return m.probe()
	}
	return nil
}
