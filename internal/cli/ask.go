// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - The ask command: one question, one answer.
//
// Command: ask
// Short:   Ask a single question
// Aliases: a
//
// Examples:
//   qa-assistant ask "¿Qué es Angular?"
//   qa-assistant ask "Listar todas las actividades" --sql
//   echo "¿Cómo usar RxJS?" | qa-assistant ask -
//   qa-assistant ask "¿Qué es TypeScript?" --json
//
// Flags:
//   --sql          Show the generated SQL (default from ui.show_sql)
//   --no-sql       Hide the generated SQL
//   --raw          Print the answer text without markdown rendering
//   --rows N       Show at most N result rows (default 20)
//   -f, --file F   Read the question from a file

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
	"github.com/jeranaias/qa-assistant/internal/util"
)

const askUsage = `Usage: qa-assistant ask [flags] QUESTION...

Ask a single question. Use "-" to read the question from stdin.

Flags:
  --sql          Show the generated SQL (default from ui.show_sql)
  --no-sql       Hide the generated SQL
  --raw          Print the answer text without markdown rendering
  --rows N       Show at most N result rows (default 20)
  -f, --file F   Read the question from a file
`

// defaultMaxRows bounds result tables in the terminal.
const defaultMaxRows = 20

// HandleAsk handles the "ask" command.
func HandleAsk(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "sql", "no-sql", "raw")

	question, err := readQuestion(p, env.In)
	if err != nil {
		return err
	}
	rows, err := p.FlagInt("rows", defaultMaxRows)
	if err != nil {
		return err
	}

	ans, err := env.Client.AskDetailed(ctx, question)
	if err != nil {
		return err
	}

	if env.Args.JSON {
		return NewJSONResponse(CmdAsk.String(), AskData{
			Question:  question,
			Result:    ans.Result,
			FromCache: ans.FromCache,
			ElapsedMs: ans.Elapsed.Milliseconds(),
		}).Print(env.Out)
	}

	r := newAnswerRenderer(env)
	r.showSQL = env.Config.UI.ShowSQL
	if p.BoolFlag("sql") {
		r.showSQL = true
	}
	if p.BoolFlag("no-sql") {
		r.showSQL = false
	}
	r.raw = p.BoolFlag("raw")
	r.maxRows = rows
	fmt.Fprintln(env.Out, r.Render(ans, false))

	if !ans.Result.Success {
		msg := ans.Result.ErrorMessage
		if msg == "" {
			msg = "the assistant could not answer"
		}
		return NewCommandError("ask", "answer", msg, nil)
	}
	return nil
}

// readQuestion takes the question from --file, from stdin for "-" or a
// piped stdin, or from the positional arguments.
func readQuestion(p *ArgParser, stdin io.Reader) (string, error) {
	if file := p.Flag("file", "f"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", NewCommandError("ask", "read", "could not read question file", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	words := p.PositionalFrom(0)
	if len(words) == 0 || (len(words) == 1 && words[0] == "-") {
		if stdin == nil || isTerminalReader(stdin) {
			words = nil
		} else {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return "", NewCommandError("ask", "read", "could not read stdin", err)
			}
			words = []string{string(data)}
		}
	}

	q := strings.TrimSpace(strings.Join(words, " "))
	if q == "" {
		return "", NewValidationErrorWithExample("question", "", "is required",
			`qa-assistant ask "¿Qué es Angular?"`)
	}
	return q, nil
}

// =============================================================================
// ANSWER RENDERING
// =============================================================================

// answerRenderer formats answers for ask and chat.
type answerRenderer struct {
	theme    *styles.Theme
	markdown *components.Markdown
	width    int
	plain    bool
	showSQL  bool
	raw      bool
	maxRows  int
}

func newAnswerRenderer(env *Env) *answerRenderer {
	plain := env.Theme.ColorProfile == termenv.Ascii
	return &answerRenderer{
		theme:    env.Theme,
		markdown: components.NewMarkdown(env.Width-2, env.Theme.IsDark, plain),
		width:    env.Width,
		plain:    plain,
		showSQL:  env.Config.UI.ShowSQL,
		maxRows:  defaultMaxRows,
	}
}

// Render formats an answer. numbered prefixes suggestions with the number
// that selects them in chat.
func (r *answerRenderer) Render(ans *api.Answer, numbered bool) string {
	res := ans.Result
	var parts []string

	head := RenderIntent(res.Intent)
	switch {
	case ans.FromCache:
		head += " " + DimStyle.Render("(cached)")
	case ans.Elapsed > 0:
		head += " " + DimStyle.Render(components.Millis(float64(ans.Elapsed.Milliseconds())))
	}
	if !res.Success {
		head += " " + ErrorStyle.Render("failed")
	}
	parts = append(parts, head)

	text := res.Answer
	if text == "" {
		text = res.ErrorMessage
	}
	if r.raw {
		parts = append(parts, text)
	} else {
		parts = append(parts, r.markdown.Render(text))
	}

	if r.showSQL && res.GeneratedSQL != "" {
		parts = append(parts, components.SQLBlock{SQL: res.GeneratedSQL, MaxWidth: r.width, Plain: r.plain}.Render(r.theme))
	}

	if len(res.RawResults) > 0 {
		table := components.ResultTable{Rows: res.RawResults, MaxWidth: r.width, MaxRows: r.maxRows}
		parts = append(parts, DimStyle.Render(fmt.Sprintf("%d rows", len(res.RawResults)))+"\n"+table.Render(r.theme))
	}

	if len(res.Sources) > 0 {
		parts = append(parts, r.sources(res.Sources))
	}

	if len(res.Suggestions) > 0 {
		parts = append(parts, r.suggestions(res.Suggestions, numbered))
	}
	return strings.Join(parts, "\n\n")
}

func (r *answerRenderer) sources(docs []model.KnowledgeDocument) string {
	lines := []string{SectionStyle.UnsetMarginTop().Render("Sources")}
	for i, doc := range docs {
		line := fmt.Sprintf("  %d. %s", i+1, util.TruncateWidth(doc.Title(), 60))
		if doc.Score != nil {
			line += DimStyle.Render(fmt.Sprintf(" (%.2f)", *doc.Score))
		}
		lines = append(lines, line)
		if doc.Content != "" {
			lines = append(lines, "     "+DimStyle.Render(util.TruncateWidth(util.SingleLine(doc.Content), r.width-6)))
		}
	}
	return strings.Join(lines, "\n")
}

func (r *answerRenderer) suggestions(items []string, numbered bool) string {
	lines := []string{SectionStyle.UnsetMarginTop().Render("Suggestions")}
	for i, s := range items {
		prefix := "  • "
		if numbered {
			prefix = CommandStyle.Render(fmt.Sprintf("  %d) ", i+1))
		}
		lines = append(lines, prefix+s)
	}
	return strings.Join(lines, "\n")
}
