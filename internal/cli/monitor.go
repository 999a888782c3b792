// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// monitor.go - One-shot version of the Monitoring view.
//
// Command: monitor
// Short:   Server cache, learning statistics and local analytics
// Aliases: monitoring, m
//
// Examples:
//   qa-assistant monitor
//   qa-assistant monitor --days 30
//   qa-assistant monitor --no-local --json

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/session"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
	"github.com/jeranaias/qa-assistant/internal/ui/monitoring"
)

const monitorUsage = `Usage: qa-assistant monitor [flags]

Everything the Monitoring view shows, printed once. Panels that fail are
reported individually.

Flags:
  --days N      Frequency window in days (default 7)
  --no-local    Leave out the local analytics panel
`

// HandleMonitor handles the "monitor" command.
func HandleMonitor(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "no-local")
	days, err := p.FlagInt("days", api.DefaultFrequencyDays)
	if err != nil {
		return err
	}

	var analytics func(context.Context) telemetry.Snapshot
	if !p.BoolFlag("no-local") {
		analytics = env.Recorder.ComputeAnalytics
	}
	d := monitoring.Load(ctx, env.Client, days, analytics)

	// Only a backend that answered nothing at all is a failure.
	if errs := d.Errors(); len(errs) == 4 {
		return errors.Join(errs...)
	}

	data := MonitorData{
		CacheStats:     d.Stats,
		FrequencyDays:  days,
		Learning:       d.Learning,
		PopularQueries: d.Popular,
		Analytics:      d.Analytics,
	}
	if d.Frequency != nil {
		data.Frequency = d.Frequency.Sorted()
	}
	panels := map[string]error{
		"cache_stats":     d.StatsErr,
		"frequency":       d.FreqErr,
		"learning":        d.LearnErr,
		"popular_queries": d.PopErr,
	}
	for name, perr := range panels {
		if perr == nil {
			continue
		}
		if data.Errors == nil {
			data.Errors = make(map[string]string)
		}
		data.Errors[name] = perr.Error()
	}

	return env.Respond(CmdMonitor.String(), data, func() {
		if !env.Quiet() {
			fmt.Fprintln(env.Out, TitleStyle.Render("QA Assistant monitoring")+DimStyle.Render("  "+env.Client.BaseURL()))
		}
		fmt.Fprintln(env.Out, monitoring.Render(d, monitoring.Layout{
			Width:   env.Width,
			Days:    days,
			Theme:   env.Theme,
			Catalog: session.NewCatalog(env.Config.UI.Locale),
		}))
	})
}
