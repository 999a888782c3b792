// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the one-shot commands of
// qa-assistant.
//
// Without a command the tabbed TUI starts. Every other command opens the
// same collaborators the TUI uses (config, store, response cache, recorder,
// API client), does one thing and exits with a code from GetExitCode.
//
// # Key Types
//
//   - Command: enumeration of the CLI commands
//   - Args: parsed global flags plus the remaining raw arguments
//   - ArgParser: subcommand, flag and positional parsing for one command
//   - Env: the opened collaborators shared by the command handlers
//   - JSONResponse: the --json output envelope
//
// # Usage
//
//	os.Exit(cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr))
//
// # Commands Overview
//
//   - tui: the interactive Chat / Ranking / Monitoring app (default)
//   - ask: one question, answer on stdout
//   - chat: line-mode conversation with history
//   - ranking: applications by test coverage
//   - monitor: server cache, learning and local analytics at once
//   - cache, learning, analytics: the individual monitoring surfaces
//   - status, config, index, history, version, help
//
// All data commands support --json.
package cli
