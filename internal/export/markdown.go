// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/qa-assistant/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontMatter is marshalled by yaml so summaries with colons, quotes or
// newlines stay valid.
type frontMatter struct {
	Title     string `yaml:"title"`
	Session   string `yaml:"session"`
	Server    string `yaml:"server,omitempty"`
	Date      string `yaml:"date"`
	Updated   string `yaml:"updated"`
	Messages  int    `yaml:"messages"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(tr *storage.Transcript) ([]byte, error) {
	if err := validate(tr); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		fm, err := yaml.Marshal(frontMatter{
			Title:     tr.Summary,
			Session:   tr.ID,
			Server:    tr.Server,
			Date:      tr.CreatedAt.Format(time.RFC3339),
			Updated:   tr.UpdatedAt.Format(time.RFC3339),
			Messages:  len(tr.Messages),
			Exported:  e.options.exportedAt().Format(time.RFC3339),
			Generator: "qa-assistant",
		})
		if err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(tr.Summary)))

	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("- **Session**: `%s`\n", tr.ID))
		if tr.Server != "" {
			sb.WriteString(fmt.Sprintf("- **Server**: %s\n", tr.Server))
		}
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(tr.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(tr.Messages)))
		sb.WriteString("\n---\n\n")
	}

	for i, msg := range tr.Messages {
		heading := "### " + roleLabel(msg.Role)
		if msg.Intent != "" {
			heading += " `" + msg.Intent + "`"
		}
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			heading += " <sub>" + formatShortTimestamp(msg.Timestamp) + "</sub>"
		}
		sb.WriteString(heading + "\n\n")

		text := strings.TrimRight(msg.Text, "\n")
		if msg.IsError {
			text = "> " + strings.ReplaceAll(text, "\n", "\n> ")
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")

		if e.options.IncludeSQL && strings.TrimSpace(msg.GeneratedSQL) != "" {
			sb.WriteString("```sql\n" + strings.TrimSpace(msg.GeneratedSQL) + "\n```\n\n")
		}

		if i < len(tr.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from qa-assistant on %s*\n",
		e.options.exportedAt().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	for _, c := range []string{"#", "*", "_", "[", "]"} {
		s = strings.ReplaceAll(s, c, "\\"+c)
	}
	return s
}
