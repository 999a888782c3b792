// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// index.go - Add a document to the backend knowledge base.
//
// Command: index FILE|-
// Short:   Submit a document for indexing
//
// Examples:
//   qa-assistant index docs/release-process.md --category process
//   cat notes.txt | qa-assistant index - --source notes.txt

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jeranaias/qa-assistant/internal/api"
)

const indexUsage = `Usage: qa-assistant index FILE|- [flags]

Sends a text document to the backend knowledge base so RAG answers can
use it. Use - to read the document from standard input.

Flags:
  --category NAME   Document category (default "general")
  --source NAME     Source label (default: the file name)
`

// maxIndexBytes bounds what one index call reads.
const maxIndexBytes = 8 << 20

// HandleIndex handles the "index" command.
func HandleIndex(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw)
	file := p.Positional(0)
	if file == "" {
		return NewValidationErrorWithExample("file", "", "required", "qa-assistant index notes.md --category process")
	}

	var (
		r      io.Reader
		source = p.Flag("source")
	)
	if file == "-" {
		if env.In == nil || isTerminalReader(env.In) {
			return NewValidationErrorWithExample("file", "-", "standard input is a terminal", "cat notes.md | qa-assistant index -")
		}
		r = env.In
		if source == "" {
			source = "stdin"
		}
	} else {
		f, err := os.Open(file)
		if err != nil {
			if os.IsNotExist(err) {
				return NewNotFoundError("file", file)
			}
			return NewCommandError("index", "read", "could not open "+file, err)
		}
		defer f.Close()
		r = f
		if source == "" {
			source = filepath.Base(file)
		}
	}

	content, err := io.ReadAll(io.LimitReader(r, maxIndexBytes+1))
	if err != nil {
		return NewCommandError("index", "read", "could not read the document", err)
	}
	if len(content) > maxIndexBytes {
		return NewValidationError("file", file, fmt.Sprintf("is larger than %d MiB", maxIndexBytes>>20))
	}

	req := api.IndexRequest{
		Content:  string(content),
		Category: p.FlagOrDefault("category", "general"),
		Source:   source,
	}
	msg, err := env.Client.IndexDocument(ctx, req)
	if err != nil {
		return err
	}

	data := IndexData{Source: req.Source, Category: req.Category, Bytes: len(content), Message: msg}
	return env.Respond(CmdIndex.String(), data, func() {
		line := RenderStatus("ok") + fmt.Sprintf(" indexed %s (%s, %d bytes)", data.Source, data.Category, data.Bytes)
		fmt.Fprintln(env.Out, line)
		if msg != "" && !env.Quiet() {
			fmt.Fprintln(env.Out, DimStyle.Render(msg))
		}
	})
}
