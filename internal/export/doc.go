// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders saved chat sessions for use outside the terminal.
//
// # Supported Formats
//
//   - Markdown: YAML front matter, one section per message, SQL in fenced blocks
//   - HTML: a single self-contained page with highlighted SQL and a theme toggle
//   - JSON: the stored transcript as-is
//
// # Usage
//
//	ex, err := export.ForFormat("html", nil)
//	if err != nil {
//	    return err
//	}
//	data, err := ex.Export(tr)
//	name := export.DefaultFilename(tr, ex)
package export
