// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Saved chat sessions.
//
// Command: history [subcommand]
// Short:   List, show, export and delete saved chat sessions
// Aliases: sessions
//
// Subcommands:
//   list (default)       Saved sessions, most recent first
//   show ID              Print a session
//   export ID            Export as Markdown, HTML or JSON
//   delete ID            Delete a session
//   clear                Delete every session
//
// Examples:
//   qa-assistant history
//   qa-assistant history show tr_1a2b3c4d5e6f7a8b
//   qa-assistant history export tr_1a2b3c4d5e6f7a8b --format html --output session.html
//   qa-assistant history clear --yes

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/qa-assistant/internal/export"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/storage"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/util"
)

const historyUsage = `Usage: qa-assistant history [subcommand] [flags]

Sessions are saved from the chat (/save or --save) and the TUI (Ctrl+S).

Subcommands:
  list             Saved sessions, most recent first (default)
  show ID          Print a session
  export ID        Export a session
  delete ID        Delete a session
  clear            Delete every session

Flags:
  --format md|html|json  export: output format (default md)
  --output FILE      export: write to FILE instead of standard output
  --yes, -y          clear: do not ask for confirmation
`

// HandleHistory handles the "history" command.
func HandleHistory(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "yes", "y")
	ts, err := env.Transcripts()
	if err != nil {
		return err
	}

	switch p.Subcommand() {
	case "", "list", "ls":
		metas, err := ts.List()
		if err != nil {
			return NewCommandError("history", "list", "could not read saved sessions", err)
		}
		return env.Respond(CmdHistory.String(), metas, func() {
			fmt.Fprint(env.Out, storage.FormatTranscriptList(metas))
			if len(metas) == 0 {
				fmt.Fprintln(env.Out)
			}
		})
	case "show":
		tr, err := loadTranscript(ts, p.Positional(1))
		if err != nil {
			return err
		}
		return env.Respond(CmdHistory.String(), tr, func() {
			printTranscript(env, tr)
		})
	case "export":
		return historyExport(env, ts, p)
	case "delete", "rm":
		id := p.Positional(1)
		if id == "" {
			return NewValidationErrorWithExample("id", "", "required", "qa-assistant history delete tr_1a2b3c4d5e6f7a8b")
		}
		if err := ts.Delete(id); err != nil {
			if errors.Is(err, storage.ErrTranscriptNotFound) {
				return NewNotFoundError("session", id)
			}
			return NewCommandError("history", "delete", "could not delete "+id, err)
		}
		return env.Respond(CmdHistory.String(), ClearedData{Target: id, Removed: 1}, func() {
			fmt.Fprintln(env.Out, RenderStatus("ok")+" deleted "+id)
		})
	case "clear":
		metas, err := ts.List()
		if err != nil {
			return NewCommandError("history", "clear", "could not read saved sessions", err)
		}
		if !p.BoolFlag("yes", "y") && len(metas) > 0 {
			ok, err := env.Confirm(fmt.Sprintf("Delete %d saved sessions?", len(metas)))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(env.Err, DimStyle.Render("cancelled"))
				return nil
			}
		}
		if err := ts.Clear(); err != nil {
			return NewCommandError("history", "clear", "could not delete saved sessions", err)
		}
		return env.Respond(CmdHistory.String(), ClearedData{Target: "history", Removed: len(metas)}, func() {
			fmt.Fprintln(env.Out, RenderStatus("ok")+fmt.Sprintf(" deleted %d sessions", len(metas)))
		})
	}
	return unknownSubcommand("history", p.Subcommand(), "list, show, export, delete, clear")
}

func loadTranscript(ts *storage.TranscriptStore, id string) (*storage.Transcript, error) {
	if id == "" {
		return nil, NewValidationErrorWithExample("id", "", "required", "qa-assistant history show tr_1a2b3c4d5e6f7a8b")
	}
	tr, err := ts.Load(id)
	if errors.Is(err, storage.ErrTranscriptNotFound) {
		return nil, NewNotFoundError("session", id)
	}
	if err != nil {
		return nil, NewCommandError("history", "load", "could not read "+id, err)
	}
	return tr, nil
}

func historyExport(env *Env, ts *storage.TranscriptStore, p *ArgParser) error {
	tr, err := loadTranscript(ts, p.Positional(1))
	if err != nil {
		return err
	}

	ex, err := export.ForFormat(p.FlagOrDefault("format", "md"), nil)
	if err != nil {
		return NewValidationErrorWithExample("format", p.Flag("format"), "must be md, html or json", "--format html")
	}
	out, err := ex.Export(tr)
	if err != nil {
		return NewCommandError("history", "export", "could not export "+tr.ID, err)
	}

	path := p.Flag("output", "o")
	if path == "" {
		_, err := env.Out.Write(out)
		return err
	}
	if err := util.AtomicWriteFile(path, out, 0600); err != nil {
		return NewCommandError("history", "export", "could not write "+path, err)
	}
	if !env.Quiet() {
		fmt.Fprintln(env.Err, RenderStatus("ok")+" exported "+tr.ID+" to "+path)
	}
	return nil
}

func printTranscript(env *Env, tr *storage.Transcript) {
	if !env.Quiet() {
		fmt.Fprintln(env.Out, TitleStyle.Render(tr.Summary)+DimStyle.Render("  "+tr.ID))
		meta := "saved " + tr.UpdatedAt.Format("2006-01-02 15:04")
		if tr.Server != "" {
			meta += " from " + tr.Server
		}
		fmt.Fprintln(env.Out, DimStyle.Render(meta))
		fmt.Fprintln(env.Out)
	}

	r := newAnswerRenderer(env)
	for _, m := range tr.Messages {
		stamp := DimStyle.Render(m.Timestamp.Format("15:04"))
		switch m.Role {
		case "user":
			fmt.Fprintln(env.Out, PromptStyle.Render("you> ")+m.Text+"  "+stamp)
		case "system":
			fmt.Fprintln(env.Out, WarningStyle.Render("! "+m.Text)+"  "+stamp)
		default:
			if m.Intent != "" {
				fmt.Fprintln(env.Out, RenderIntent(model.Intent(m.Intent))+"  "+stamp)
			}
			if m.IsError {
				fmt.Fprintln(env.Out, ErrorStyle.Render(m.Text))
			} else {
				fmt.Fprintln(env.Out, strings.TrimRight(r.markdown.Render(m.Text), "\n"))
			}
			if m.GeneratedSQL != "" && r.showSQL {
				sql := components.SQLBlock{SQL: m.GeneratedSQL, MaxWidth: r.width, Plain: r.plain}
				fmt.Fprintln(env.Out, sql.Render(r.theme))
			}
		}
		fmt.Fprintln(env.Out)
	}
}
