// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command and global flag parsing for qa-assistant.

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (overridden at build time with -ldflags)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdRanking
	CmdMonitor
	CmdCache
	CmdLearning
	CmdAnalytics
	CmdStatus
	CmdConfig
	CmdIndex
	CmdHistory
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:       "tui",
	CmdAsk:       "ask",
	CmdChat:      "chat",
	CmdRanking:   "ranking",
	CmdMonitor:   "monitor",
	CmdCache:     "cache",
	CmdLearning:  "learning",
	CmdAnalytics: "analytics",
	CmdStatus:    "status",
	CmdConfig:    "config",
	CmdIndex:     "index",
	CmdHistory:   "history",
	CmdVersion:   "version",
	CmdHelp:      "help",
}

// String returns the command name used in JSON output.
func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool
	Quiet      bool
	Verbose    bool
	Offline    bool
	Server     string // overrides api.base_url
	ConfigPath string // explicit config file
	Locale     string // overrides ui.locale
	Theme      string // overrides ui.theme

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `qa-assistant - terminal client for the QA Assistant

Ask questions about your projects, browse applications by test coverage
and watch the assistant's cache and learning statistics.

Usage:
  qa-assistant                        Start the TUI (default)
  qa-assistant ask "question"         Ask a single question
  qa-assistant chat                   Line-mode chat with history
  qa-assistant ranking                Applications by test coverage
  qa-assistant monitor                Cache, learning and analytics overview
  qa-assistant cache [subcommand]     Local and server cache
  qa-assistant learning [subcommand]  Learned queries
  qa-assistant analytics [clear]      Local query analytics
  qa-assistant status, s              Backend and local state
  qa-assistant config [subcommand]    Configuration
  qa-assistant index FILE|-           Add a document to the knowledge base
  qa-assistant history [subcommand]   Saved chat sessions
  qa-assistant version                Version information

Global flags:
  --json              Machine-readable output
  -q, --quiet         Minimal output
  -v, --verbose       Debug logging on stderr
  --offline           Answer from the local cache only
  --server URL        Backend base URL (default http://localhost:8080)
  --config PATH       Config file (default ~/.qa-assistant/config.toml)
  --locale en|es      Interface language
  --theme NAME        auto, dark, light or mono

Run 'qa-assistant help COMMAND' for the flags of one command.

Version: %s
`

var commandHelp = map[Command]string{
	CmdAsk:       askUsage,
	CmdChat:      chatUsage,
	CmdRanking:   rankingUsage,
	CmdMonitor:   monitorUsage,
	CmdCache:     cacheUsage,
	CmdLearning:  learningUsage,
	CmdAnalytics: analyticsUsage,
	CmdStatus:    statusUsage,
	CmdConfig:    configUsage,
	CmdIndex:     indexUsage,
	CmdHistory:   historyUsage,
}

// PrintUsage writes the usage text. With a known topic only that
// command's help is written.
func PrintUsage(w io.Writer, topic ...string) {
	if len(topic) > 0 {
		if cmd, ok := lookupCommand(topic[0]); ok {
			if text, ok := commandHelp[cmd]; ok {
				fmt.Fprint(w, text)
				return
			}
		}
	}
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "qa-assistant version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s\n", runtime.Version())
}

// Parse parses argv (without the program name). Global flags may appear
// anywhere; the first remaining argument names the command.
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}
	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	name := remaining[0]
	args.Raw = remaining[1:]
	cmd, ok := lookupCommand(name)
	if !ok {
		return CmdHelp, args, NewValidationErrorWithExample("command", name,
			"unknown command", "qa-assistant help")
	}
	return cmd, args, nil
}

func lookupCommand(name string) (Command, bool) {
	switch strings.ToLower(name) {
	case "tui", "ui":
		return CmdTUI, true
	case "ask", "a":
		return CmdAsk, true
	case "chat", "c":
		return CmdChat, true
	case "ranking", "rank":
		return CmdRanking, true
	case "monitor", "monitoring", "m":
		return CmdMonitor, true
	case "cache":
		return CmdCache, true
	case "learning", "learn":
		return CmdLearning, true
	case "analytics":
		return CmdAnalytics, true
	case "status", "s":
		return CmdStatus, true
	case "config":
		return CmdConfig, true
	case "index":
		return CmdIndex, true
	case "history", "sessions":
		return CmdHistory, true
	case "version", "--version":
		return CmdVersion, true
	case "help", "-h", "--help":
		return CmdHelp, true
	}
	return CmdHelp, false
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var (
		remaining []string
		args      Args
	)

	valueOf := func(i *int, flag string) (string, error) {
		if *i+1 >= len(argv) {
			return "", NewValidationError(flag, "", "requires a value")
		}
		*i++
		return argv[*i], nil
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			remaining = append(remaining, argv[i:]...)
			break
		}

		var err error
		switch arg {
		case "--json":
			args.JSON = true
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--offline":
			args.Offline = true
		case "--server":
			args.Server, err = valueOf(&i, "server")
		case "--config":
			args.ConfigPath, err = valueOf(&i, "config")
		case "--locale":
			args.Locale, err = valueOf(&i, "locale")
		case "--theme":
			args.Theme, err = valueOf(&i, "theme")
		default:
			switch {
			case strings.HasPrefix(arg, "--server="):
				args.Server = strings.TrimPrefix(arg, "--server=")
			case strings.HasPrefix(arg, "--config="):
				args.ConfigPath = strings.TrimPrefix(arg, "--config=")
			case strings.HasPrefix(arg, "--locale="):
				args.Locale = strings.TrimPrefix(arg, "--locale=")
			case strings.HasPrefix(arg, "--theme="):
				args.Theme = strings.TrimPrefix(arg, "--theme=")
			default:
				remaining = append(remaining, arg)
			}
		}
		if err != nil {
			return nil, args, err
		}
	}
	return remaining, args, nil
}
