// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat with input history.
//
// Command: chat
// Short:   Chat with the assistant without the full-screen TUI
// Aliases: c
//
// Examples:
//   qa-assistant chat
//   qa-assistant chat --save          Save the session on exit
//   qa-assistant chat --resume tr_1   Ask the questions of a saved session again
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Start over
//   /retry, /r          Ask the last question again
//   /check              Check the connection to the backend
//   /sql                Toggle generated SQL
//   /save               Save the session
//   /quit, /q           Exit chat
//   1-9                 Use a numbered suggestion
//   Ctrl+C              Cancel the current question
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/session"
)

const chatUsage = `Usage: qa-assistant chat [flags]

Line-mode conversation with history. Type /help inside the chat for commands.

Flags:
  --save          Save the session when the chat ends
  --resume ID     Ask the questions of a saved session again
  --no-history    Do not read or write the input history file
`

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of input. ChatCLI is the terminal version.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for the chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor. An empty historyFile disables
// persistent history.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// defaultHistoryFile is chat_history in the config directory.
func defaultHistoryFile() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// LoadHistory loads previous input from the history file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with the given prompt. Arrow keys walk history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file, readable by the owner only.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT LOOP
// =============================================================================

// chatREPL drives a session.Chat from a line reader.
type chatREPL struct {
	env      *Env
	chat     *session.Chat
	in       lineReader
	render   *answerRenderer
	answers  map[string]*api.Answer // by message ID
	printed  int
	autosave bool
	savedID  string
}

// HandleChat handles the "chat" command.
func HandleChat(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "save", "no-history")

	history := defaultHistoryFile()
	if p.BoolFlag("no-history") {
		history = ""
	}
	in := NewChatCLI(history)
	defer in.Close()

	r := newChatREPL(env, in)
	r.autosave = p.BoolFlag("save")
	if id := p.Flag("resume"); id != "" {
		return r.resume(ctx, id)
	}
	return r.Run(ctx)
}

func newChatREPL(env *Env, in lineReader) *chatREPL {
	return &chatREPL{
		env: env,
		chat: session.New(env.Client, session.Options{
			Locale: env.Config.UI.Locale,
			Logger: env.Logger.Named("session"),
		}),
		in:      in,
		render:  newAnswerRenderer(env),
		answers: make(map[string]*api.Answer),
	}
}

// Run starts the conversation and reads input until /quit or EOF.
func (r *chatREPL) Run(ctx context.Context) error {
	r.start(ctx)

	for {
		if ctx.Err() != nil {
			break
		}
		input, err := r.in.ReadInput(PromptStyle.Render("you> "))
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return NewCommandError("chat", "read", "could not read input", err)
		}
		if quit := r.handle(ctx, strings.TrimSpace(input)); quit {
			break
		}
	}
	return r.finish()
}

// resume replays the questions of a saved transcript, then continues.
func (r *chatREPL) resume(ctx context.Context, id string) error {
	ts, err := r.env.Transcripts()
	if err != nil {
		return err
	}
	tr, err := ts.Load(id)
	if err != nil {
		return NewNotFoundError("session", id)
	}
	r.start(ctx)
	for _, q := range session.UserQuestions(tr) {
		fmt.Fprintln(r.env.Out, PromptStyle.Render("you> ")+q)
		r.ask(ctx, q)
	}
	r.savedID = tr.ID
	return r.Run(ctx)
}

func (r *chatREPL) start(ctx context.Context) {
	if len(r.chat.Messages()) > 0 {
		return
	}
	if !r.env.Quiet() {
		fmt.Fprintln(r.env.Out, TitleStyle.Render("QA Assistant")+DimStyle.Render("  "+r.env.Client.BaseURL()))
		fmt.Fprintln(r.env.Out, DimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	}
	r.chat.Start(ctx)
	r.flush()
}

// handle runs one line of input and reports whether the chat should end.
func (r *chatREPL) handle(ctx context.Context, input string) bool {
	if input == "" {
		return false
	}

	if strings.HasPrefix(input, "/") {
		fields := strings.Fields(input)
		switch strings.ToLower(fields[0]) {
		case "/quit", "/q", "/exit":
			return true
		case "/help", "/h", "/?":
			r.help()
		case "/clear", "/c":
			r.chat.Clear()
			r.printed = 0
			r.flush()
		case "/retry", "/r":
			r.suggestion(ctx, r.chat.Catalog().Text(session.MsgRetry))
		case "/check":
			r.suggestion(ctx, r.chat.Catalog().Text(session.MsgCheckConnection))
		case "/sql":
			r.render.showSQL = !r.render.showSQL
			state := "hidden"
			if r.render.showSQL {
				state = "shown"
			}
			fmt.Fprintln(r.env.Out, DimStyle.Render("generated SQL "+state))
		case "/save":
			r.save()
		default:
			fmt.Fprintln(r.env.Out, WarningStyle.Render("unknown command "+fields[0]+"; type /help"))
		}
		return false
	}

	if n, err := strconv.Atoi(input); err == nil {
		if s := r.chat.LastSuggestions(); n >= 1 && n <= len(s) {
			r.suggestion(ctx, s[n-1])
			return false
		}
	}
	r.ask(ctx, input)
	return false
}

// suggestion performs a suggestion the way the TUI does.
func (r *chatREPL) suggestion(ctx context.Context, s string) {
	action := r.chat.ResolveSuggestion(s)
	switch action.Kind {
	case session.ActionAsk:
		if action.Question != s {
			fmt.Fprintln(r.env.Out, PromptStyle.Render("you> ")+action.Question)
		}
		r.ask(ctx, action.Question)
	case session.ActionCheckConnection:
		r.chat.CheckConnection(ctx)
		r.flush()
		if r.chat.ServerAvailable() {
			fmt.Fprintln(r.env.Out, SuccessStyle.Render("backend reachable"))
		}
	default:
		fmt.Fprintln(r.env.Out, DimStyle.Render("nothing to retry"))
	}
}

// ask sends q. Ctrl+C while waiting cancels only this question.
func (r *chatREPL) ask(ctx context.Context, q string) {
	q, ok := r.chat.Begin(q)
	if !ok {
		if !r.chat.ServerAvailable() {
			fmt.Fprintln(r.env.Out, WarningStyle.Render("backend unavailable; type /check to try again"))
		}
		return
	}
	r.printed = len(r.chat.Messages())

	qctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	ans, err := r.env.Client.AskDetailed(qctx, q)
	stop()
	if err != nil {
		r.env.Logger.Debug("chat question failed", zap.Error(err))
	}

	msg := r.chat.Complete(ans, err)
	if err == nil && ans != nil {
		r.answers[msg.ID] = ans
	}
	r.flush()
}

// flush prints the messages added since the last flush. User messages are
// not echoed since the user just typed them.
func (r *chatREPL) flush() {
	msgs := r.chat.Messages()
	for _, m := range msgs[min(r.printed, len(msgs)):] {
		if m.Role == model.RoleUser {
			continue
		}
		fmt.Fprintln(r.env.Out, r.message(m))
		fmt.Fprintln(r.env.Out)
	}
	r.printed = len(msgs)
}

func (r *chatREPL) message(m model.ChatMessage) string {
	switch {
	case m.Role == model.RoleSystem:
		return WarningStyle.Render("! " + m.Text)
	case m.Result != nil:
		ans := r.answers[m.ID]
		if ans == nil {
			ans = &api.Answer{Result: m.Result}
		}
		return r.render.Render(ans, true)
	}

	text := ErrorStyle.Render(m.Text)
	if len(m.Suggestions) > 0 {
		text += "\n\n" + r.render.suggestions(m.Suggestions, true)
	}
	return text
}

func (r *chatREPL) help() {
	cmds := [][2]string{
		{"/help", "Show this help"},
		{"/clear", "Start over"},
		{"/retry", "Ask the last question again"},
		{"/check", "Check the connection to the backend"},
		{"/sql", "Toggle generated SQL"},
		{"/save", "Save the session"},
		{"/quit", "Exit (or Ctrl+D)"},
		{"1-9", "Use a numbered suggestion"},
	}
	for _, c := range cmds {
		fmt.Fprintln(r.env.Out, "  "+CommandStyle.Render(fmt.Sprintf("%-8s", c[0]))+" "+c[1])
	}
}

// save writes the transcript, keeping the same ID across saves.
func (r *chatREPL) save() {
	ts, err := r.env.Transcripts()
	if err != nil {
		fmt.Fprintln(r.env.Out, ErrorStyle.Render(err.Error()))
		return
	}
	tr := r.chat.Transcript(r.env.Client.BaseURL())
	tr.ID = r.savedID
	id, err := ts.Save(tr)
	if err != nil {
		fmt.Fprintln(r.env.Out, ErrorStyle.Render("save failed: "+err.Error()))
		return
	}
	r.savedID = id
	fmt.Fprintln(r.env.Out, SuccessStyle.Render("saved as "+id))
}

func (r *chatREPL) finish() error {
	if r.autosave && len(session.UserQuestions(r.chat.Transcript(""))) > 0 {
		r.save()
	}
	return nil
}
