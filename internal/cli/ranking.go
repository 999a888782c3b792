// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ranking.go - Applications ranked by test coverage.
//
// Command: ranking
// Short:   Show applications by test coverage
// Aliases: rank
//
// Examples:
//   qa-assistant ranking
//   qa-assistant ranking --min 60
//   qa-assistant ranking --top 5 --json

package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/ranking"
)

const rankingUsage = `Usage: qa-assistant ranking [flags]

Applications sorted by test coverage, highest first.

Flags:
  --top N      Show only the first N applications
  --min P      Hide applications below P percent coverage
`

// HandleRanking handles the "ranking" command.
func HandleRanking(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	top, err := p.FlagInt("top", 0)
	if err != nil {
		return err
	}
	minCoverage := 0.0
	if v := p.Flag("min"); v != "" {
		minCoverage, err = strconv.ParseFloat(v, 64)
		if err != nil || minCoverage < 0 || minCoverage > 100 {
			return NewValidationErrorWithExample("min", v, "must be a percentage between 0 and 100", "--min 60")
		}
	}

	entries, err := env.Client.FetchRanking(ctx)
	if err != nil {
		return err
	}
	entries = filterRanking(entries, minCoverage, top)

	items := make([]RankingItem, len(entries))
	for i, e := range entries {
		items[i] = RankingItem{
			Rank:        i + 1,
			Application: e.ApplicationName,
			Description: e.Description,
			Coverage:    e.CoveragePercent,
			Band:        e.Band().String(),
		}
	}

	return env.Respond(CmdRanking.String(), RankingData{Entries: items}, func() {
		if !env.Quiet() {
			fmt.Fprintln(env.Out, TitleStyle.Render("Test coverage ranking"))
		}
		if len(entries) == 0 {
			fmt.Fprintln(env.Out, DimStyle.Render("No applications in the ranking."))
			return
		}
		fmt.Fprintln(env.Out, ranking.Table(entries, env.Width, env.Theme))
	})
}

// filterRanking keeps entries at or above minCoverage, at most top of them.
// Entries arrive sorted.
func filterRanking(entries []model.RankingEntry, minCoverage float64, top int) []model.RankingEntry {
	out := make([]model.RankingEntry, 0, len(entries))
	for _, e := range entries {
		if e.CoveragePercent < minCoverage {
			continue
		}
		out = append(out, e)
		if top > 0 && len(out) == top {
			break
		}
	}
	return out
}
