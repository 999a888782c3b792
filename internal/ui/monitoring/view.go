// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package monitoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/qa-assistant/internal/session"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
	"github.com/jeranaias/qa-assistant/internal/util"
)

// twoColumnWidth is the narrowest width that places cards side by side.
const twoColumnWidth = 100

func (m *Model) render() string {
	var b strings.Builder
	b.WriteString(m.theme.CardTitle.Render("Monitoring"))
	if m.data != nil {
		b.WriteString(m.theme.Muted.Render("  updated " + m.data.At.Format("15:04:05")))
	}
	if m.interval > 0 {
		b.WriteString(m.theme.Muted.Render(fmt.Sprintf("  auto-refresh %s", m.interval)))
	}
	if m.loading {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.theme.Muted.Render(m.notice) + "\n")
	}
	b.WriteString("\n")

	if m.data == nil {
		if !m.loading {
			b.WriteString(m.theme.Muted.Render("press r to load statistics"))
		}
		return b.String()
	}
	b.WriteString(Render(*m.data, Layout{Width: m.width, Days: m.days, Theme: m.theme, Catalog: m.catalog}))
	return b.String()
}

// Layout holds what rendering a Data needs.
type Layout struct {
	Width   int
	Days    int
	Theme   *styles.Theme
	Catalog *session.Catalog
}

// Render lays out every panel of d as cards.
func Render(d Data, l Layout) string {
	if l.Catalog == nil {
		l.Catalog = session.NewCatalog("")
	}
	cardWidth := l.Width - 2
	twoCols := l.Width >= twoColumnWidth
	if twoCols {
		cardWidth = l.Width/2 - 2
	}

	cards := []string{
		card(l, cardWidth, "Server cache", cacheLines(d, l)),
		card(l, cardWidth, "Learning", learningLines(d, l)),
		card(l, cardWidth, fmt.Sprintf("Most asked (last %d days)", l.Days), frequencyLines(d, l, cardWidth)),
		card(l, cardWidth, "Popular queries", popularLines(d, l, cardWidth)),
	}
	if d.Analytics != nil {
		cards = append(cards, card(l, cardWidth, "Local analytics", analyticsLines(*d.Analytics, l, cardWidth)))
	}

	if !twoCols {
		return strings.Join(cards, "\n")
	}
	var rows []string
	for i := 0; i < len(cards); i += 2 {
		if i+1 < len(cards) {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i], " ", cards[i+1]))
		} else {
			rows = append(rows, cards[i])
		}
	}
	return strings.Join(rows, "\n")
}

func card(l Layout, width int, title string, lines []string) string {
	body := l.Theme.CardTitle.Render(title) + "\n" + strings.Join(lines, "\n")
	return l.Theme.Card.Width(width).Render(body)
}

func stat(l Layout, label, value string) string {
	return l.Theme.StatLabel.Render(util.PadRight(label, 18)) + l.Theme.StatValue.Render(value)
}

func failed(l Layout, err error) []string {
	return []string{l.Theme.ErrorBanner.Render("unavailable: " + err.Error())}
}

func cacheLines(d Data, l Layout) []string {
	if d.StatsErr != nil {
		return failed(l, d.StatsErr)
	}
	s := d.Stats
	if s == nil {
		return []string{l.Theme.Muted.Render("no data")}
	}
	lines := []string{
		stat(l, "Entries", l.Catalog.Number(s.Size)),
		stat(l, "Hit rate", components.Ratio(s.HitRate)),
		stat(l, "Hits / misses", l.Catalog.Number(s.HitCount)+" / "+l.Catalog.Number(s.MissCount)),
		stat(l, "Oldest entry", components.Age(s.OldestAge())),
	}
	return append(lines, extraLines(l, s.Extra)...)
}

func learningLines(d Data, l Layout) []string {
	if d.LearnErr != nil {
		return failed(l, d.LearnErr)
	}
	s := d.Learning
	if s == nil {
		return []string{l.Theme.Muted.Render("no data")}
	}
	lines := []string{
		stat(l, "Total queries", l.Catalog.Number(s.TotalQueries)),
		stat(l, "Unique queries", l.Catalog.Number(s.UniqueQueries)),
		stat(l, "Average time", components.Millis(s.AverageExecutionTime)),
		stat(l, "Success rate", components.Ratio(s.SuccessRate)),
	}
	intents := make([]string, 0, len(s.QueriesByIntent))
	for intent := range s.QueriesByIntent {
		intents = append(intents, intent)
	}
	sort.Strings(intents)
	for _, intent := range intents {
		lines = append(lines, stat(l, "  "+intent, l.Catalog.Number(s.QueriesByIntent[intent])))
	}
	return append(lines, extraLines(l, s.Extra)...)
}

func frequencyLines(d Data, l Layout, width int) []string {
	if d.FreqErr != nil {
		return failed(l, d.FreqErr)
	}
	items := d.Frequency.Sorted()
	if len(items) == 0 {
		return []string{l.Theme.Muted.Render("no questions in this window")}
	}
	if len(items) > popularLimit {
		items = items[:popularLimit]
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		count := l.Catalog.Number(it.Count)
		q := util.TruncateWidth(util.SingleLine(it.Question), width-len(count)-6)
		lines = append(lines, l.Theme.StatValue.Render(util.PadRight(count, 6))+q)
	}
	return lines
}

func popularLines(d Data, l Layout, width int) []string {
	if d.PopErr != nil {
		return failed(l, d.PopErr)
	}
	if len(d.Popular) == 0 {
		return []string{l.Theme.Muted.Render("nothing learned yet")}
	}
	lines := make([]string, 0, len(d.Popular))
	for _, q := range d.Popular {
		count := l.Catalog.Number(q.Count)
		line := l.Theme.StatValue.Render(util.PadRight(count, 6)) +
			util.TruncateWidth(util.SingleLine(q.Question), width-len(count)-14)
		if q.Intent != "" {
			line += " " + l.Theme.Muted.Render(q.Intent)
		}
		lines = append(lines, line)
	}
	return lines
}

func analyticsLines(s telemetry.Snapshot, l Layout, width int) []string {
	lines := []string{
		stat(l, "Queries", l.Catalog.Number(s.TotalQueries)),
		stat(l, "Success rate", fmt.Sprintf("%d%%", s.SuccessRate)),
		stat(l, "Average time", components.Millis(float64(s.AverageExecutionTime))),
		stat(l, "Cache hits", l.Catalog.Number(s.CacheHits)),
	}
	for _, ic := range s.PopularIntents {
		lines = append(lines, stat(l, "  "+ic.Intent, l.Catalog.Number(ic.Count)))
	}
	if len(s.RecentErrors) > 0 {
		lines = append(lines, l.Theme.StatLabel.Render("Recent errors"))
		for _, e := range s.RecentErrors {
			text := e.Question + ": " + e.Error
			lines = append(lines, l.Theme.Muted.Render("  "+util.TruncateWidth(util.SingleLine(text), width-6)))
		}
	}
	return lines
}

// extraLines shows backend fields this client does not model.
func extraLines(l Layout, extra map[string]any) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, stat(l, k, util.TruncateWidth(components.FormatCell(extra[k]), 30)))
	}
	return lines
}
