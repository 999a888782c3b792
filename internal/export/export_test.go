// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/qa-assistant/internal/storage"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleTranscript() *storage.Transcript {
	return &storage.Transcript{
		ID:        "tr_0123456789abcdef",
		Summary:   "¿Cuántas aplicaciones hay?",
		Server:    "http://localhost:8080",
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
		Messages: []storage.TranscriptMessage{
			{ID: "m1", Role: "user", Text: "¿Cuántas aplicaciones hay?", Timestamp: fixedNow},
			{ID: "m2", Role: "assistant", Text: "Hay **12** aplicaciones.", Timestamp: fixedNow,
				Intent: "SQL", GeneratedSQL: "SELECT COUNT(*) FROM aplicacion"},
		},
	}
}

func testOptions() *Options {
	opts := DefaultOptions()
	opts.now = func() time.Time { return fixedNow }
	return opts
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"md", ".md"},
		{"Markdown", ".md"},
		{"html", ".html"},
		{" json ", ".json"},
	}
	for _, tt := range tests {
		ex, err := ForFormat(tt.name, nil)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", tt.name, err)
		}
		if ex.FileExtension() != tt.ext {
			t.Errorf("ForFormat(%q) extension = %q, want %q", tt.name, ex.FileExtension(), tt.ext)
		}
	}

	if _, err := ForFormat("pdf", nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("pdf: expected ErrUnknownFormat, got %v", err)
	}
}

func TestExporters_RejectEmpty(t *testing.T) {
	for _, ex := range []Exporter{NewMarkdownExporter(nil), NewHTMLExporter(nil)} {
		if _, err := ex.Export(nil); !errors.Is(err, ErrNilTranscript) {
			t.Errorf("%T nil: got %v", ex, err)
		}
		if _, err := ex.Export(&storage.Transcript{ID: "tr_x"}); !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("%T empty: got %v", ex, err)
		}
	}
}

func TestMarkdownExporter(t *testing.T) {
	data, err := NewMarkdownExporter(testOptions()).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# ¿Cuántas aplicaciones hay?",
		"### User <sub>09:30:00</sub>",
		"### Assistant `SQL`",
		"```sql\nSELECT COUNT(*) FROM aplicacion\n```",
		"*Exported from qa-assistant on March 14, 2025 at 9:30 AM*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExporter_FrontMatterSurvivesSpecialCharacters(t *testing.T) {
	tr := sampleTranscript()
	tr.Summary = "fallos: \"login\"\nsegunda línea"

	data, err := NewMarkdownExporter(testOptions()).Export(tr)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	parts := strings.SplitN(string(data), "---\n", 3)
	if len(parts) < 3 {
		t.Fatalf("no front matter in %q", data)
	}
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		t.Fatalf("front matter is not valid YAML: %v", err)
	}
	if fm.Title != tr.Summary {
		t.Errorf("title = %q, want %q", fm.Title, tr.Summary)
	}
	if fm.Messages != 2 || fm.Session != tr.ID {
		t.Errorf("unexpected front matter: %+v", fm)
	}
}

func TestMarkdownExporter_WithoutSQL(t *testing.T) {
	opts := testOptions()
	opts.IncludeSQL = false
	data, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(string(data), "```sql") {
		t.Error("SQL should be omitted")
	}
}

func TestHTMLExporter(t *testing.T) {
	data, err := NewHTMLExporter(testOptions()).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	page := string(data)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<body class=\"dark-theme\">",
		"<span class=\"intent\">SQL</span>",
		"<strong>12</strong>",
		"<div class=\"code-lang\">sql</div>",
		"aplicacion",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestHTMLExporter_EscapesText(t *testing.T) {
	tr := sampleTranscript()
	tr.Summary = "<script>alert(1)</script>"
	tr.Messages[0].Text = "<img src=x onerror=alert(1)>"
	tr.Messages[1].Intent = "\"><b>"

	data, err := NewHTMLExporter(testOptions()).Export(tr)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	page := string(data)

	for _, bad := range []string{"<script>alert", "<img src=x", "\"><b>"} {
		if strings.Contains(page, bad) {
			t.Errorf("unescaped %q in output", bad)
		}
	}
	if !strings.Contains(page, "&lt;img src=x onerror=alert(1)&gt;") {
		t.Error("message text should be escaped, not dropped")
	}
}

func TestHTMLExporter_LightTheme(t *testing.T) {
	opts := testOptions()
	opts.Theme = "light"
	data, err := NewHTMLExporter(opts).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(data), "<body class=\"light-theme\">") {
		t.Error("light theme not applied")
	}
}

func TestFormatContent_CodeBlocks(t *testing.T) {
	out := formatContent("Consulta:\n\n```sql\nSELECT 1\nFROM t\n```\n\nfin `x`")
	if !strings.Contains(out, "<div class=\"code-lang\">sql</div>") {
		t.Errorf("missing code label: %s", out)
	}
	if !strings.Contains(out, "SELECT 1&#10;FROM t") {
		t.Errorf("code lines should be kept together: %s", out)
	}
	if !strings.Contains(out, "<code class=\"inline-code\">x</code>") {
		t.Errorf("missing inline code: %s", out)
	}
	if strings.Count(out, "<p>") != 2 {
		t.Errorf("expected two paragraphs: %s", out)
	}
}

func TestJSONExporter_RoundTrips(t *testing.T) {
	tr := sampleTranscript()
	data, err := NewJSONExporter(nil).Export(tr)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var back storage.Transcript
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.ID != tr.ID || len(back.Messages) != 2 || back.Messages[1].GeneratedSQL != tr.Messages[1].GeneratedSQL {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestDefaultFilename(t *testing.T) {
	tr := sampleTranscript()
	tr.Summary = "fallos: login/logout?"
	got := DefaultFilename(tr, NewHTMLExporter(nil))
	want := "qa-session_fallos-_login-logout-_tr_0123456789abcdef.html"
	if got != want {
		t.Errorf("DefaultFilename = %q, want %q", got, want)
	}

	tr.Summary = ""
	if got := DefaultFilename(tr, NewJSONExporter(nil)); !strings.HasPrefix(got, "qa-session_session_") {
		t.Errorf("empty summary: %q", got)
	}
}
