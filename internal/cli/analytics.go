// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// analytics.go - Local query analytics.
//
// Command: analytics [subcommand]
// Short:   Analytics derived from the local query and error logs
//
// Subcommands:
//   show (default)      Totals, success rate, popular intents, recent activity
//   queries             The local query log, newest first
//   errors              The local error log, newest first
//   metrics             This process's counters (--prometheus: exposition text)
//   clear               Empty both logs
//
// Examples:
//   qa-assistant analytics
//   qa-assistant analytics errors --json
//   qa-assistant analytics metrics --prometheus

package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jeranaias/qa-assistant/internal/telemetry"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/util"
)

const analyticsUsage = `Usage: qa-assistant analytics [subcommand] [flags]

Analytics are computed from the query and error logs kept in local storage.

Subcommands:
  show           Totals, success rate, popular intents, recent activity (default)
  queries        The query log, newest first
  errors         The error log, newest first
  metrics        Counters of this process
  clear          Empty both logs

Flags:
  --prometheus   metrics: print the Prometheus text exposition format
`

// HandleAnalytics handles the "analytics" command.
func HandleAnalytics(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "prometheus")

	switch p.Subcommand() {
	case "", "show":
		return analyticsShow(ctx, env)
	case "queries":
		return analyticsQueries(ctx, env)
	case "errors":
		return analyticsErrors(ctx, env)
	case "metrics":
		if p.BoolFlag("prometheus") {
			return env.Metrics.WriteText(env.Out)
		}
		return analyticsMetrics(env)
	case "clear":
		if err := env.Recorder.Clear(ctx); err != nil {
			return NewCommandError("analytics", "clear", "could not clear the logs", err)
		}
		return env.Respond(CmdAnalytics.String(), ClearedData{Target: "analytics"}, func() {
			fmt.Fprintln(env.Out, RenderStatus("ok")+" query and error logs cleared")
		})
	}
	return unknownSubcommand("analytics", p.Subcommand(), "show, queries, errors, metrics, clear")
}

func analyticsShow(ctx context.Context, env *Env) error {
	snap := env.Recorder.ComputeAnalytics(ctx)
	return env.Respond(CmdAnalytics.String(), snap, func() {
		printSnapshot(env, snap)
	})
}

func printSnapshot(env *Env, s telemetry.Snapshot) {
	fmt.Fprintln(env.Out, SectionStyle.UnsetMarginTop().Render("Local analytics"))
	if s.TotalQueries == 0 && len(s.RecentErrors) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("  no questions asked yet"))
		return
	}
	fmt.Fprintln(env.Out, "  "+RenderLabel("Total queries", fmt.Sprint(s.TotalQueries)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Successful", fmt.Sprint(s.SuccessfulQueries)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Failed", fmt.Sprint(s.FailedQueries)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Success rate", fmt.Sprintf("%d%%", s.SuccessRate)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Average time", components.Millis(float64(s.AverageExecutionTime))))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Cache hits", fmt.Sprint(s.CacheHits)))

	if len(s.PopularIntents) > 0 {
		fmt.Fprintln(env.Out, SectionStyle.Render("Popular intents"))
		for _, ic := range s.PopularIntents {
			fmt.Fprintln(env.Out, "  "+RenderLabel(ic.Intent, fmt.Sprint(ic.Count)))
		}
	}
	if len(s.RecentQueries) > 0 {
		fmt.Fprintln(env.Out, SectionStyle.Render("Recent queries"))
		printQueryLog(env, s.RecentQueries)
	}
	if len(s.RecentErrors) > 0 {
		fmt.Fprintln(env.Out, SectionStyle.Render("Recent errors"))
		printErrorLog(env, s.RecentErrors)
	}
}

func analyticsQueries(ctx context.Context, env *Env) error {
	log := newestFirst(env.Recorder.QueryLog(ctx))
	return env.Respond(CmdAnalytics.String(), log, func() {
		if len(log) == 0 {
			fmt.Fprintln(env.Out, DimStyle.Render("The query log is empty."))
			return
		}
		printQueryLog(env, log)
	})
}

func analyticsErrors(ctx context.Context, env *Env) error {
	log := newestFirst(env.Recorder.ErrorLog(ctx))
	return env.Respond(CmdAnalytics.String(), log, func() {
		if len(log) == 0 {
			fmt.Fprintln(env.Out, DimStyle.Render("The error log is empty."))
			return
		}
		printErrorLog(env, log)
	})
}

func analyticsMetrics(env *Env) error {
	counters, err := env.Metrics.Counters()
	if err != nil {
		return NewCommandError("analytics", "metrics", "could not gather metrics", err)
	}
	return env.Respond(CmdAnalytics.String(), counters, func() {
		for _, c := range counters {
			name := c.Name
			if len(c.Labels) > 0 {
				keys := make([]string, 0, len(c.Labels))
				for k := range c.Labels {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				name += "{"
				for i, k := range keys {
					if i > 0 {
						name += ","
					}
					name += k + "=" + c.Labels[k]
				}
				name += "}"
			}
			fmt.Fprintf(env.Out, "%-60s %g\n", name, c.Value)
		}
	})
}

// newestFirst reverses a log, which is stored oldest first.
func newestFirst[T any](log []T) []T {
	out := make([]T, len(log))
	for i, rec := range log {
		out[len(log)-1-i] = rec
	}
	return out
}

func printQueryLog(env *Env, log []telemetry.QueryLogRecord) {
	now := time.Now()
	qWidth := env.Width - 42
	if qWidth < 20 {
		qWidth = 20
	}
	for _, q := range log {
		took := components.Millis(float64(q.ExecutionTime.Milliseconds()))
		if q.FromCache {
			took = "cached"
		}
		fmt.Fprintf(env.Out, "  %-5s %s %8s  %s\n", q.Intent,
			util.PadRight(util.TruncateWidth(util.SingleLine(q.Question), qWidth), qWidth),
			took, DimStyle.Render(components.Ago(q.Timestamp, now)))
	}
}

func printErrorLog(env *Env, log []telemetry.ErrorLogRecord) {
	now := time.Now()
	for _, e := range log {
		kind := e.Kind
		if kind == "" {
			kind = "error"
		}
		fmt.Fprintf(env.Out, "  %s %s  %s\n", ErrorStyle.Render("["+kind+"]"),
			util.TruncateWidth(util.SingleLine(e.Question), env.Width/2),
			DimStyle.Render(components.Ago(e.Timestamp, now)))
		fmt.Fprintln(env.Out, "      "+DimStyle.Render(util.TruncateWidth(util.SingleLine(e.Error), env.Width-8)))
	}
}
