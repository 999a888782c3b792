// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/storage"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"stats"},
			wantSub: "stats",
		},
		{
			name:    "subcommand is lowercased",
			args:    []string{"LIST"},
			wantSub: "list",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"frequency", "--days", "30"},
			wantSub: "frequency",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("days") != "30" {
					t.Errorf("Flag(days) = %q, want %q", p.Flag("days"), "30")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"export", "tr_1", "--format=json"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "json" {
					t.Errorf("Flag(format) = %q, want %q", p.Flag("format"), "json")
				}
				if p.Positional(1) != "tr_1" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "tr_1")
				}
			},
		},
		{
			name:    "trailing boolean flag",
			args:    []string{"clear", "--server"},
			wantSub: "clear",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("server") {
					t.Error("BoolFlag(server) should be true")
				}
			},
		},
		{
			name:    "declared boolean does not consume a value",
			args:    []string{"clear", "--server", "now"},
			bools:   []string{"server"},
			wantSub: "clear",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("server") {
					t.Error("BoolFlag(server) should be true")
				}
				if p.Positional(1) != "now" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "now")
				}
			},
		},
		{
			name:    "question words stay positional",
			args:    []string{"¿Cuántas", "pruebas", "fallaron?", "--sql"},
			bools:   []string{"sql"},
			wantSub: "¿cuántas",
			validate: func(t *testing.T, p *ArgParser) {
				joined := strings.Join(p.PositionalFrom(0), " ")
				if joined != "¿Cuántas pruebas fallaron?" {
					t.Errorf("PositionalFrom(0) joined = %q", joined)
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"set", "--", "--not-a-flag"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				if p.HasFlag("not-a-flag") {
					t.Error("arguments after -- must not be flags")
				}
				if p.Positional(1) != "--not-a-flag" {
					t.Errorf("Positional(1) = %q", p.Positional(1))
				}
			},
		},
		{
			name:    "lone dash is positional",
			args:    []string{"-"},
			wantSub: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		def     int
		want    int
		wantErr bool
	}{
		{name: "flag present", args: []string{"--days", "30"}, def: 7, want: 30},
		{name: "flag missing uses default", args: nil, def: 7, want: 7},
		{name: "not a number", args: []string{"--days", "abc"}, def: 7, wantErr: true},
		{name: "zero", args: []string{"--days=0"}, def: 7, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewArgParser(tt.args).FlagInt("days", tt.def)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("FlagInt error = %v, want a ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FlagInt error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FlagInt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	parser := NewArgParser([]string{"cmd", "--local", "--limit", "5"})

	if !parser.HasFlag("local") {
		t.Error("HasFlag(local) should be true")
	}
	if !parser.HasFlag("--limit") {
		t.Error("HasFlag(--limit) should be true")
	}
	if parser.HasFlag("nonexistent") {
		t.Error("HasFlag(nonexistent) should be false")
	}
}

func TestParseBoolString(t *testing.T) {
	trueValues := []string{"true", "TRUE", "yes", "y", "Y", "1", "on", " yes\n"}
	falseValues := []string{"false", "no", "N", "0", "off"}

	for _, v := range trueValues {
		got, err := ParseBoolString(v)
		if err != nil || !got {
			t.Errorf("ParseBoolString(%q) = %v, %v; want true", v, got, err)
		}
	}
	for _, v := range falseValues {
		got, err := ParseBoolString(v)
		if err != nil || got {
			t.Errorf("ParseBoolString(%q) = %v, %v; want false", v, got, err)
		}
	}
	if _, err := ParseBoolString("maybe"); err == nil {
		t.Error("ParseBoolString(maybe) should error")
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		wantErr     bool
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no arguments starts the TUI",
			args:        nil,
			wantCommand: CmdTUI,
		},
		{
			name:        "ask keeps the question",
			args:        []string{"ask", "¿Qué es Angular?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if len(a.Raw) != 1 || a.Raw[0] != "¿Qué es Angular?" {
					t.Errorf("Raw = %q", a.Raw)
				}
			},
		},
		{
			name:        "global flags anywhere",
			args:        []string{"--json", "ranking", "--server", "http://qa:8080", "--top", "3"},
			wantCommand: CmdRanking,
			validate: func(t *testing.T, a Args) {
				if !a.JSON {
					t.Error("JSON should be true")
				}
				if a.Server != "http://qa:8080" {
					t.Errorf("Server = %q", a.Server)
				}
				if strings.Join(a.Raw, " ") != "--top 3" {
					t.Errorf("Raw = %q, want command flags only", a.Raw)
				}
			},
		},
		{
			name:        "equals forms",
			args:        []string{"status", "--locale=es", "--theme=mono", "--config=/tmp/qa.toml"},
			wantCommand: CmdStatus,
			validate: func(t *testing.T, a Args) {
				if a.Locale != "es" || a.Theme != "mono" || a.ConfigPath != "/tmp/qa.toml" {
					t.Errorf("Args = %+v", a)
				}
			},
		},
		{
			name:        "verbose and quiet",
			args:        []string{"-v", "-q", "s"},
			wantCommand: CmdStatus,
			validate: func(t *testing.T, a Args) {
				if !a.Verbose || !a.Quiet {
					t.Errorf("Verbose = %v, Quiet = %v", a.Verbose, a.Quiet)
				}
			},
		},
		{
			name:        "offline",
			args:        []string{"ask", "--offline", "hola"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.Offline {
					t.Error("Offline should be true")
				}
			},
		},
		{name: "alias rank", args: []string{"rank"}, wantCommand: CmdRanking},
		{name: "alias m", args: []string{"m"}, wantCommand: CmdMonitor},
		{name: "alias learn", args: []string{"learn"}, wantCommand: CmdLearning},
		{name: "alias sessions", args: []string{"sessions"}, wantCommand: CmdHistory},
		{name: "version flag", args: []string{"--version"}, wantCommand: CmdVersion},
		{name: "help flag", args: []string{"-h"}, wantCommand: CmdHelp},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.args)
			if tt.wantErr {
				if GetExitCode(err) != ExitUsageError {
					t.Fatalf("Parse(%q) error = %v, want a usage error", tt.args, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.args, err)
			}
			if cmd != tt.wantCommand {
				t.Errorf("Parse(%q) command = %v, want %v", tt.args, cmd, tt.wantCommand)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestParse_MissingFlagValue(t *testing.T) {
	if _, _, err := Parse([]string{"status", "--server"}); err == nil {
		t.Error("--server without a value should fail")
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("days", "x", "bad"), ExitUsageError},
		{"config", &ConfigError{Path: "x.toml", Err: errors.New("bad toml")}, ExitConfigError},
		{"config validation", config.ValidateErrors{{Field: "api.base_url", Message: "empty"}}, ExitConfigError},
		{"not found", NewNotFoundError("session", "tr_1"), ExitNotFoundError},
		{"transcript not found", fmt.Errorf("load: %w", storage.ErrTranscriptNotFound), ExitNotFoundError},
		{"empty question", api.ErrEmptyQuestion, ExitUsageError},
		{"unavailable", &api.Error{Kind: api.KindUnavailable}, ExitNetworkError},
		{"offline miss", &api.Error{Kind: api.KindOffline}, ExitNetworkError},
		{"backend 404", &api.Error{Kind: api.KindNotFound, Status: 404}, ExitNotFoundError},
		{"timeout", &api.Error{Kind: api.KindTimeout}, ExitTimeoutError},
		{"server error", &api.Error{Kind: api.KindServer, Status: 500}, ExitGeneralError},
		{"deadline", context.DeadlineExceeded, ExitTimeoutError},
		{"wrapped in a command error", NewCommandError("ask", "send", "failed", &api.Error{Kind: api.KindTimeout}), ExitTimeoutError},
		{"silent keeps its code", &silentError{err: &api.Error{Kind: api.KindUnavailable}}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisplayError_SkipsSilentErrors(t *testing.T) {
	var out, errOut strings.Builder
	DisplayError(&out, &errOut, "status", &silentError{err: errors.New("down")}, false)
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Errorf("silent error was displayed: %q %q", out.String(), errOut.String())
	}
}

func TestFilterRanking(t *testing.T) {
	entries := rankingFixture()

	if got := filterRanking(entries, 0, 0); len(got) != 3 {
		t.Errorf("no filter kept %d entries, want 3", len(got))
	}
	if got := filterRanking(entries, 50, 0); len(got) != 2 {
		t.Errorf("--min 50 kept %d entries, want 2", len(got))
	}
	got := filterRanking(entries, 0, 1)
	if len(got) != 1 || got[0].ApplicationName != "Pagos" {
		t.Errorf("--top 1 = %+v", got)
	}
}
