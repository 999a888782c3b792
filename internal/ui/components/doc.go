// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable rendering pieces of the TUI and
// the styled CLI output.
//
//   - SQLBlock: chroma-highlighted generated SQL
//   - Markdown: glamour rendering of answers
//   - ResultTable: aligned SQL result rows (columns from the first row,
//     NULL for missing values, JSON for nested ones)
//   - CoverageBar: ranking bars coloured by coverage band
//   - Header, StatusBar: the app frame
//   - Ago, Age, Millis, Count, Ratio: humanized numbers and times
//
// Components are plain values rendered against a *styles.Theme; none of
// them hold bubbletea state.
package components
