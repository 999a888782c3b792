// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/qa-assistant/internal/storage"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one output format.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(tr *storage.Transcript) ([]byte, error)

	// FileExtension returns the file extension, with the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Errors returned by exporters.
var (
	ErrNilTranscript   = errors.New("transcript is nil")
	ErrEmptyTranscript = errors.New("transcript has no messages")
	ErrUnknownFormat   = errors.New("unknown export format")
)

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with the session ID, server and dates.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// IncludeSQL adds the generated SQL under each answer.
	IncludeSQL bool

	// Theme for HTML export ("light" or "dark"). Default: "dark"
	Theme string

	// now is overridable in tests.
	now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		IncludeSQL:        true,
		Theme:             "dark",
	}
}

func (o *Options) exportedAt() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// Formats lists the accepted format names.
var Formats = []string{"md", "html", "json"}

// ForFormat returns the exporter for a format name. Nil options mean
// DefaultOptions.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	}
	return nil, fmt.Errorf("%w %q (use %s)", ErrUnknownFormat, name, strings.Join(Formats, ", "))
}

// DefaultFilename suggests a file name for an export, built from the
// session summary and ID.
func DefaultFilename(tr *storage.Transcript, ex Exporter) string {
	return fmt.Sprintf("qa-session_%s_%s%s", sanitizeFilename(tr.Summary), sanitizeFilename(tr.ID), ex.FileExtension())
}

func validate(tr *storage.Transcript) error {
	if tr == nil {
		return ErrNilTranscript
	}
	if len(tr.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in file names on
// Windows or Unix.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "session"
	}
	return string(result)
}

func roleLabel(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	case "system":
		return "System"
	case "":
		return "Unknown"
	}
	runes := []rune(role)
	return strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
