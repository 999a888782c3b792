// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// learning.go - What the backend has learned from past questions.
//
// Command: learning [subcommand]
// Short:   Learning statistics and learned queries
// Aliases: learn
//
// Subcommands:
//   stats (default)     Totals, success rate and intent split
//   popular             Most frequently asked questions
//   recent              Most recently asked questions
//   intent SQL|RAG      Questions the backend routed to one intent
//   all                 Every learned question
//
// Examples:
//   qa-assistant learning
//   qa-assistant learning popular --limit 20
//   qa-assistant learning intent sql --json

package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/util"
)

const learningUsage = `Usage: qa-assistant learning [subcommand] [flags]

Subcommands:
  stats            Totals, success rate and intent split (default)
  popular          Most frequently asked questions
  recent           Most recently asked questions
  intent SQL|RAG   Questions the backend routed to one intent
  all              Every learned question

Flags:
  --limit N        popular, recent, intent: at most N questions (default 10)
`

// HandleLearning handles the "learning" command.
func HandleLearning(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	limit, err := p.FlagInt("limit", api.DefaultQueryLimit)
	if err != nil {
		return err
	}

	switch p.Subcommand() {
	case "", "stats":
		return learningStats(ctx, env)
	case "popular":
		qs, err := env.Client.FetchPopularQueries(ctx, limit)
		return learningQueries(env, "Popular questions", qs, err)
	case "recent":
		qs, err := env.Client.FetchRecentQueries(ctx, limit)
		return learningQueries(env, "Recent questions", qs, err)
	case "intent":
		raw := p.Positional(1)
		if raw == "" {
			return NewValidationErrorWithExample("intent", "", "required", "qa-assistant learning intent SQL")
		}
		intent, err := model.ParseIntent(raw)
		if err != nil || intent == model.IntentWelcome {
			return NewValidationErrorWithExample("intent", raw, "must be SQL or RAG", "qa-assistant learning intent RAG")
		}
		qs, err := env.Client.FetchQueriesByIntent(ctx, intent, limit)
		return learningQueries(env, string(intent)+" questions", qs, err)
	case "all":
		qs, err := env.Client.FetchAllQueries(ctx)
		return learningQueries(env, "All learned questions", qs, err)
	}
	return unknownSubcommand("learning", p.Subcommand(), "stats, popular, recent, intent, all")
}

func learningStats(ctx context.Context, env *Env) error {
	st, err := env.Client.FetchLearningStats(ctx)
	if err != nil {
		return err
	}
	return env.Respond(CmdLearning.String(), st, func() {
		fmt.Fprintln(env.Out, SectionStyle.UnsetMarginTop().Render("Learning"))
		fmt.Fprintln(env.Out, "  "+RenderLabel("Total queries", components.Count(st.TotalQueries)))
		fmt.Fprintln(env.Out, "  "+RenderLabel("Unique queries", components.Count(st.UniqueQueries)))
		fmt.Fprintln(env.Out, "  "+RenderLabel("Success rate", components.Ratio(st.SuccessRate)))
		fmt.Fprintln(env.Out, "  "+RenderLabel("Average time", components.Millis(st.AverageExecutionTime)))

		if len(st.QueriesByIntent) > 0 {
			intents := make([]string, 0, len(st.QueriesByIntent))
			for k := range st.QueriesByIntent {
				intents = append(intents, k)
			}
			sort.Strings(intents)
			fmt.Fprintln(env.Out, SectionStyle.Render("By intent"))
			for _, k := range intents {
				fmt.Fprintln(env.Out, "  "+RenderLabel(k, components.Count(st.QueriesByIntent[k])))
			}
		}
		for k, v := range st.Extra {
			fmt.Fprintln(env.Out, "  "+RenderLabel(k, components.FormatCell(v)))
		}
	})
}

func learningQueries(env *Env, title string, qs []model.LearnedQuery, err error) error {
	if err != nil {
		return err
	}
	return env.Respond(CmdLearning.String(), qs, func() {
		fmt.Fprintln(env.Out, SectionStyle.UnsetMarginTop().Render(title))
		if len(qs) == 0 {
			fmt.Fprintln(env.Out, DimStyle.Render("  none yet"))
			return
		}
		printLearnedQueries(env, qs)
	})
}

// printLearnedQueries prints one line per query: rank, intent, question,
// count and when it was last asked.
func printLearnedQueries(env *Env, qs []model.LearnedQuery) {
	now := time.Now()
	qWidth := env.Width - 40
	if qWidth < 20 {
		qWidth = 20
	}
	for i, q := range qs {
		intent := q.Intent
		if intent == "" {
			intent = "-"
		}
		last := q.LastAsked
		if t, ok := q.LastAskedTime(); ok {
			last = components.Ago(t, now)
		}
		fmt.Fprintf(env.Out, "%3d. %-5s %s %6sx  %s\n", i+1, intent,
			util.PadRight(util.TruncateWidth(util.SingleLine(q.Question), qWidth), qWidth),
			components.Count(q.Count), DimStyle.Render(last))
	}
}
