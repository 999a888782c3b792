// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/qa-assistant/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a self-contained HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Theme != "light" {
		opts.Theme = "dark"
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML. Every piece of user or server text
// is escaped.
func (e *HTMLExporter) Export(tr *storage.Transcript) ([]byte, error) {
	if err := validate(tr); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(tr.Summary)))
	sb.WriteString("    <meta name=\"generator\" content=\"qa-assistant\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(tr))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range tr.Messages {
		sb.WriteString(e.renderMessage(&tr.Messages[i]))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>qa-assistant</strong> on %s</p>\n",
		e.options.exportedAt().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(script)
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(tr *storage.Transcript) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(tr.Summary)))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Session:</strong> %s</span>\n", html.EscapeString(tr.ID)))
	if tr.Server != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Server:</strong> %s</span>\n", html.EscapeString(tr.Server)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(tr.CreatedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(tr.Messages)))
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg *storage.TranscriptMessage) string {
	var sb strings.Builder

	class := "message " + html.EscapeString(strings.ToLower(msg.Role)) + "-message"
	if msg.IsError {
		class += " error-message"
	}
	sb.WriteString(fmt.Sprintf("            <div class=\"%s\">\n", class))

	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(msg.Role))))
	if msg.Intent != "" {
		sb.WriteString(fmt.Sprintf("                    <span class=\"intent\">%s</span>\n", html.EscapeString(msg.Intent)))
	}
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(formatContent(msg.Text))
	sb.WriteString("\n                </div>\n")

	if e.options.IncludeSQL && strings.TrimSpace(msg.GeneratedSQL) != "" {
		sb.WriteString("                <div class=\"code-block\"><div class=\"code-lang\">sql</div>")
		sb.WriteString(highlightSQLHTML(strings.TrimSpace(msg.GeneratedSQL), e.options.Theme == "dark"))
		sb.WriteString("</div>\n")
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

// =============================================================================
// CONTENT FORMATTING
// =============================================================================

var (
	codeBlockRe  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")
	boldRe       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
)

// formatContent turns answer Markdown into HTML: fenced code, inline code,
// bold and paragraphs. The text is escaped before any tag is added.
func formatContent(content string) string {
	content = html.EscapeString(strings.TrimSpace(content))

	content = codeBlockRe.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRe.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		lang, code := parts[1], strings.TrimSpace(parts[2])
		label := ""
		if lang != "" {
			label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", lang)
		}
		// Newlines inside <pre> must survive the paragraph pass below.
		code = strings.ReplaceAll(code, "\n", "&#10;")
		return fmt.Sprintf("\n<div class=\"code-block\">%s<pre><code class=\"language-%s\">%s</code></pre></div>\n", label, lang, code)
	})
	content = inlineCodeRe.ReplaceAllString(content, "<code class=\"inline-code\">$1</code>")
	content = boldRe.ReplaceAllString(content, "<strong>$1</strong>")

	var out []string
	var para []string
	flush := func() {
		if len(para) > 0 {
			out = append(out, "<p>"+strings.Join(para, "<br>\n")+"</p>")
			para = nil
		}
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "<div class=\"code-block\">"):
			flush()
			out = append(out, line)
		default:
			para = append(para, line)
		}
	}
	flush()

	return strings.Join(out, "\n")
}

// highlightSQLHTML renders SQL with inline colour styles so the page has
// no external stylesheet. It falls back to escaped plain text.
func highlightSQLHTML(code string, dark bool) string {
	plain := "<pre><code class=\"language-sql\">" + html.EscapeString(code) + "</code></pre>"

	lexer := lexers.Get("sql")
	if lexer == nil {
		return plain
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

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}

	var sb strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return plain
	}
	return sb.String()
}

// =============================================================================
// EMBEDDED CSS AND SCRIPT
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #1f2335;
            --assistant-bg: #24283b;
            --code-bg: #16161e;
            --accent-blue: #7aa2f7;
            --accent-green: #9ece6a;
            --accent-purple: #bb9af7;
            --accent-red: #f7768e;
        }

        .light-theme {
            --bg-primary: #f5f5f5;
            --bg-secondary: #ffffff;
            --text-primary: #24292f;
            --text-muted: #6e7781;
            --border-color: #d0d7de;
            --user-bg: #eef4ff;
            --assistant-bg: #ffffff;
            --code-bg: #f6f8fa;
            --accent-blue: #0969da;
            --accent-green: #1a7f37;
            --accent-purple: #8250df;
            --accent-red: #cf222e;
        }

        body {
            font-family: var(--font-sans);
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container { max-width: 960px; margin: 0 auto; padding: 2rem 1rem; }

        .header { border-bottom: 1px solid var(--border-color); padding-bottom: 1rem; margin-bottom: 1.5rem; }
        .header h1 { font-size: 1.5rem; margin-bottom: 0.5rem; }
        .metadata { display: flex; flex-wrap: wrap; gap: 1rem; color: var(--text-muted); font-size: 0.9rem; align-items: center; }
        .theme-toggle {
            margin-left: auto; background: var(--bg-secondary); color: var(--text-primary);
            border: 1px solid var(--border-color); border-radius: 4px; padding: 0.2rem 0.6rem; cursor: pointer;
        }

        .message {
            border: 1px solid var(--border-color); border-radius: 8px;
            padding: 1rem; margin-bottom: 1rem;
        }
        .user-message { background: var(--user-bg); border-left: 4px solid var(--accent-blue); }
        .assistant-message { background: var(--assistant-bg); border-left: 4px solid var(--accent-green); }
        .system-message { background: var(--bg-secondary); border-left: 4px solid var(--accent-purple); }
        .error-message { border-left-color: var(--accent-red); }

        .message-header { display: flex; gap: 0.75rem; align-items: baseline; margin-bottom: 0.5rem; }
        .role-label { font-weight: 600; }
        .intent {
            font-family: var(--font-mono); font-size: 0.8rem; color: var(--accent-purple);
            border: 1px solid var(--border-color); border-radius: 4px; padding: 0 0.4rem;
        }
        .timestamp { margin-left: auto; color: var(--text-muted); font-size: 0.8rem; }

        .message-content p { margin-bottom: 0.6rem; }
        .inline-code { font-family: var(--font-mono); background: var(--code-bg); padding: 0.1rem 0.3rem; border-radius: 3px; }
        .code-block { background: var(--code-bg); border-radius: 6px; margin: 0.6rem 0; overflow-x: auto; }
        .code-block pre { padding: 0.8rem; font-family: var(--font-mono); font-size: 0.85rem; white-space: pre; }
        .code-lang { font-family: var(--font-mono); font-size: 0.75rem; color: var(--text-muted); padding: 0.3rem 0.8rem 0; }

        .footer { color: var(--text-muted); font-size: 0.8rem; text-align: center; margin-top: 2rem; }
    </style>
`

const script = `    <script>
        function toggleTheme() {
            const body = document.body;
            const next = body.classList.contains('dark-theme') ? 'light' : 'dark';
            body.classList.remove('dark-theme', 'light-theme');
            body.classList.add(next + '-theme');
            localStorage.setItem('qa-theme', next);
        }

        document.addEventListener('DOMContentLoaded', function() {
            const saved = localStorage.getItem('qa-theme');
            if (saved) {
                document.body.classList.remove('dark-theme', 'light-theme');
                document.body.classList.add(saved + '-theme');
            }
        });
    </script>
`
