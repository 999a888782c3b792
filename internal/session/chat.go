// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/model"
)

// Asker is the part of the API client a chat needs.
type Asker interface {
	AskDetailed(ctx context.Context, question string) (*api.Answer, error)
	CheckServerReachable(ctx context.Context) error
	Offline() bool
}

// Options configures a Chat.
type Options struct {
	Locale string
	Now    func() time.Time
	Logger *zap.Logger
}

// =============================================================================
// CHAT
// =============================================================================

// Chat is one conversation. Messages are only ever appended, except by
// Clear which starts over with the welcome message.
//
// Chat is safe for concurrent use, but it is meant to be driven from a
// single event loop.
type Chat struct {
	mu sync.Mutex

	client  Asker
	catalog *Catalog
	now     func() time.Time
	logger  *zap.Logger

	messages        []model.ChatMessage
	loading         bool
	serverAvailable bool
}

// New creates a chat. Call Start before use.
func New(client Asker, opts Options) *Chat {
	c := &Chat{
		client:          client,
		catalog:         NewCatalog(opts.Locale),
		now:             opts.Now,
		logger:          opts.Logger,
		serverAvailable: true,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Catalog returns the chat's localized texts.
func (c *Chat) Catalog() *Catalog { return c.catalog }

// Messages returns a copy of the message list.
func (c *Chat) Messages() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ChatMessage(nil), c.messages...)
}

// Loading reports whether a question is in flight.
func (c *Chat) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ServerAvailable reports the result of the last connection check.
func (c *Chat) ServerAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverAvailable
}

// Start adds the welcome message and probes the backend.
func (c *Chat) Start(ctx context.Context) {
	c.mu.Lock()
	c.messages = []model.ChatMessage{c.welcome()}
	c.mu.Unlock()
	c.CheckConnection(ctx)
}

// welcome builds the greeting. Callers hold mu.
func (c *Chat) welcome() model.ChatMessage {
	text := c.catalog.Text(MsgWelcome)
	msg := model.NewResultMessage(&model.QueryResult{
		Intent:      model.IntentWelcome,
		Answer:      text,
		Suggestions: c.catalog.WelcomeSuggestions(),
		Success:     true,
	}, c.now())
	return msg
}

// =============================================================================
// CONNECTION
// =============================================================================

// CheckConnection probes the backend and records the outcome.
func (c *Chat) CheckConnection(ctx context.Context) {
	if c.client.Offline() {
		c.ApplyProbe(nil)
		return
	}
	c.ApplyProbe(c.client.CheckServerReachable(ctx))
}

// ApplyProbe records the result of a connection check. A failure appends
// the server-unavailable system message. In offline mode the backend is
// never probed and the offline notice is shown once instead.
func (c *Chat) ApplyProbe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client.Offline() {
		c.serverAvailable = true
		if !c.hasSystemMessage(MsgOfflineMode) {
			c.appendSystem(MsgOfflineMode)
		}
		return
	}

	if err != nil {
		c.logger.Warn("backend unreachable", zap.Error(err))
		c.serverAvailable = false
		c.appendSystem(MsgServerDown)
		return
	}
	if !c.serverAvailable {
		c.appendSystem(MsgServerBack)
	}
	c.serverAvailable = true
}

func (c *Chat) appendSystem(key string) {
	c.messages = append(c.messages, model.NewChatMessage(model.RoleSystem, c.catalog.Text(key), c.now()))
}

func (c *Chat) hasSystemMessage(key string) bool {
	text := c.catalog.Text(key)
	for _, m := range c.messages {
		if m.Role == model.RoleSystem && m.Text == text {
			return true
		}
	}
	return false
}

// =============================================================================
// SENDING
// =============================================================================

// Begin appends the user message and marks the chat loading. It returns
// false, changing nothing, when a question is already in flight, the text
// is blank, or the server is unavailable.
func (c *Chat) Begin(text string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading || strings.TrimSpace(text) == "" || !c.serverAvailable {
		return "", false
	}
	c.loading = true
	c.messages = append(c.messages, model.NewChatMessage(model.RoleUser, text, c.now()))
	return text, true
}

// Complete appends the answer to the question started by Begin.
func (c *Chat) Complete(ans *api.Answer, err error) model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	var msg model.ChatMessage
	switch {
	case err != nil:
		if api.IsUnavailable(err) {
			c.serverAvailable = false
		}
		msg = model.NewErrorMessage(c.ErrorText(err), c.catalog.ErrorSuggestions(), c.now())
	case ans == nil || ans.Result == nil:
		msg = model.NewErrorMessage(c.catalog.Text(MsgConnectionError), c.catalog.ErrorSuggestions(), c.now())
	default:
		msg = model.NewResultMessage(ans.Result, c.now())
		if msg.Text == "" && ans.Result.ErrorMessage != "" {
			msg.Text = ans.Result.ErrorMessage
		}
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Send asks a question and waits for the answer. It returns false when the
// input was ignored.
func (c *Chat) Send(ctx context.Context, text string) bool {
	q, ok := c.Begin(text)
	if !ok {
		return false
	}
	ans, err := c.client.AskDetailed(ctx, q)
	c.Complete(ans, err)
	return true
}

// ErrorText is the user-facing text for err in the chat's language.
func (c *Chat) ErrorText(err error) string {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return c.catalog.Text(MsgConnectionError)
	}
	switch apiErr.Kind {
	case api.KindUnavailable:
		return c.catalog.Text(MsgErrUnavailable)
	case api.KindNotFound:
		return c.catalog.Text(MsgErrNotFound)
	case api.KindServer:
		return c.catalog.Text(MsgErrServer)
	case api.KindTimeout:
		return c.catalog.Text(MsgErrTimeout)
	case api.KindMalformed:
		return c.catalog.Text(MsgErrMalformed)
	case api.KindOffline:
		return c.catalog.Text(MsgErrOffline)
	}
	return c.catalog.Text(MsgConnectionError)
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// ActionKind is what choosing a suggestion does.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionAsk
	ActionCheckConnection
)

// Action is the resolved effect of a suggestion.
type Action struct {
	Kind     ActionKind
	Question string
}

// ResolveSuggestion decides what choosing suggestion should do. Retry
// resolves to the last user question, or nothing if there is none. While a
// question is in flight every suggestion resolves to nothing.
func (c *Chat) ResolveSuggestion(suggestion string) Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return Action{}
	}
	switch suggestion {
	case c.catalog.Text(MsgRetry):
		for i := len(c.messages) - 1; i >= 0; i-- {
			if c.messages[i].Role == model.RoleUser {
				return Action{Kind: ActionAsk, Question: c.messages[i].Text}
			}
		}
		return Action{}
	case c.catalog.Text(MsgCheckConnection):
		return Action{Kind: ActionCheckConnection}
	}
	return Action{Kind: ActionAsk, Question: suggestion}
}

// UseSuggestion performs a suggestion synchronously.
func (c *Chat) UseSuggestion(ctx context.Context, suggestion string) {
	action := c.ResolveSuggestion(suggestion)
	switch action.Kind {
	case ActionAsk:
		c.Send(ctx, action.Question)
	case ActionCheckConnection:
		c.CheckConnection(ctx)
	}
}

// LastSuggestions returns the suggestions of the newest message that has any.
func (c *Chat) LastSuggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if len(c.messages[i].Suggestions) > 0 {
			return append([]string(nil), c.messages[i].Suggestions...)
		}
	}
	return nil
}

// Clear empties the conversation and shows the welcome message again.
func (c *Chat) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.messages = []model.ChatMessage{c.welcome()}
}
