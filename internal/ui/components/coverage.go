// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

// CoverageBar draws a horizontal bar of width cells for percent, coloured by
// its coverage band and followed by the percentage.
func CoverageBar(percent float64, width int, theme *styles.Theme) string {
	if width < 1 {
		width = 1
	}
	clamped := math.Max(0, math.Min(100, percent))
	filled := int(math.Round(clamped / 100 * float64(width)))

	style := theme.CoverageStyle(model.BandFor(percent))
	bar := style.Render(strings.Repeat("█", filled)) +
		theme.BarEmpty.Render(strings.Repeat("░", width-filled))
	return bar + " " + style.Render(FormatPercent(percent))
}

// FormatPercent formats a percentage with at most one decimal.
func FormatPercent(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%.0f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

