// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Ago renders t relative to now, e.g. "3 minutes ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Age renders a duration as a rough age, e.g. "1 hour".
func Age(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now.Add(-d), now, "", ""))
}

// Millis renders milliseconds, switching to seconds from one second up.
func Millis(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1f s", ms/1000)
	}
	return fmt.Sprintf("%.0f ms", ms)
}

// Count renders an integer with thousand separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// Ratio renders a 0..1 ratio, or an already scaled percentage, as a percent.
func Ratio(r float64) string {
	if r <= 1 {
		r *= 100
	}
	return FormatPercent(r)
}
