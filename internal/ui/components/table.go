// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
	"github.com/jeranaias/qa-assistant/internal/util"
)

// NullText is shown for missing or null cells.
const NullText = "NULL"

// maxColumnWidth caps a single column so one long value cannot push the
// rest of the table off screen.
const maxColumnWidth = 40

// =============================================================================
// CELL FORMATTING
// =============================================================================

// FormatCell renders a result value: nil as NULL, objects and arrays as
// compact JSON, everything else with its natural string form.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return NullText
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case map[string]any, []any, model.Row:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
	return fmt.Sprint(v)
}

// =============================================================================
// RESULT TABLE
// =============================================================================

// ResultTable renders the rows of a SQL answer.
type ResultTable struct {
	Rows     []model.Row
	MaxWidth int
	MaxRows  int // 0 shows every row
}

// Columns returns the table columns, taken from the first non-empty row.
func (t ResultTable) Columns() []string {
	return model.ColumnsOf(t.Rows)
}

// Cells returns every row formatted as strings in column order. Columns
// missing from a later row are NULL.
func (t ResultTable) Cells() [][]string {
	cols := t.Columns()
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			v, ok := r.Get(c)
			if !ok {
				line[i] = NullText
				continue
			}
			line[i] = util.SingleLine(FormatCell(v))
		}
		out = append(out, line)
	}
	return out
}

// Render draws the table with aligned columns.
func (t ResultTable) Render(theme *styles.Theme) string {
	cols := t.Columns()
	if len(cols) == 0 {
		return ""
	}
	cells := t.Cells()
	shown := cells
	if t.MaxRows > 0 && len(shown) > t.MaxRows {
		shown = shown[:t.MaxRows]
	}

	widths := columnWidths(cols, shown, t.MaxWidth)

	var b strings.Builder
	b.WriteString(renderLine(cols, widths, func(s string) string {
		return theme.TableHeader.Render(s)
	}))
	b.WriteString("\n")
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	b.WriteString(theme.Muted.Render(strings.Join(sep, "─┼─")))

	for _, line := range shown {
		b.WriteString("\n")
		b.WriteString(renderLine(line, widths, func(s string) string {
			if s == NullText {
				return theme.TableNull.Render(s)
			}
			return theme.TableCell.Render(s)
		}))
	}

	if hidden := len(cells) - len(shown); hidden > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Muted.Render(fmt.Sprintf("… %d more rows", hidden)))
	}
	return b.String()
}

func columnWidths(cols []string, rows [][]string, maxWidth int) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = util.StringWidth(c)
	}
	for _, r := range rows {
		for i, cell := range r {
			if w := util.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}

	// Shrink the widest columns until the table fits.
	if maxWidth > 0 {
		for tableWidth(widths) > maxWidth {
			widest := 0
			for i := range widths {
				if widths[i] > widths[widest] {
					widest = i
				}
			}
			if widths[widest] <= 4 {
				break
			}
			widths[widest]--
		}
	}
	return widths
}

func tableWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += 3 * (len(widths) - 1)
	}
	return total
}

func renderLine(cells []string, widths []int, style func(string) string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = style(util.PadRight(util.TruncateWidth(cell, widths[i]), widths[i]))
	}
	return strings.Join(parts, " │ ")
}
