// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

// =============================================================================
// SQL BLOCK RENDERER
// =============================================================================

// SQLBlock renders generated SQL with syntax highlighting.
type SQLBlock struct {
	SQL      string
	MaxWidth int
	Plain    bool // no ANSI colours, for mono themes and piped output
}

// Render returns the highlighted SQL inside a code block.
func (b SQLBlock) Render(theme *styles.Theme) string {
	code := strings.TrimSpace(b.SQL)
	if code == "" {
		return ""
	}
	if !b.Plain {
		code = HighlightSQL(code, theme.IsDark)
	}

	style := theme.CodeBlock
	if b.MaxWidth > 4 {
		style = style.MaxWidth(b.MaxWidth)
	}
	return style.Render(code)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// HighlightSQL applies SQL syntax highlighting for terminal output. The
// input is returned unchanged if highlighting fails.
func HighlightSQL(code string, dark bool) string {
	return highlightCode(code, "sql", dark)
}

func highlightCode(code, language string, dark bool) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if !dark {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
