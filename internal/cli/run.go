// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - Command dispatch.

package cli

import (
	"context"
	"io"
	"runtime"

	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/ui/app"
)

// Run parses argv, runs the command and returns the process exit code.
// Errors are displayed here, once.
func Run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd, args, err := Parse(argv)
	if err != nil {
		DisplayError(stdout, stderr, cmd.String(), err, args.JSON)
		return GetExitCode(err)
	}

	if cmd != CmdHelp && wantsHelp(args.Raw) {
		PrintUsage(stdout, cmd.String())
		return ExitSuccess
	}

	switch cmd {
	case CmdHelp:
		PrintUsage(stdout, args.Raw...)
		return ExitSuccess
	case CmdVersion:
		if args.JSON {
			_ = NewJSONResponse(cmd.String(), versionData()).Print(stdout)
		} else {
			PrintVersion(stdout)
		}
		return ExitSuccess
	}

	env, err := OpenEnv(ctx, args, stdout, stderr, envOptions{tui: cmd == CmdTUI})
	if err != nil {
		DisplayError(stdout, stderr, cmd.String(), err, args.JSON)
		return GetExitCode(err)
	}
	defer env.Close()
	env.In = stdin

	if err := dispatch(ctx, cmd, env); err != nil {
		env.Logger.Debug("command failed", zap.Stringer("command", cmd), zap.Error(err))
		DisplayError(stdout, stderr, cmd.String(), err, args.JSON)
		return GetExitCode(err)
	}
	return ExitSuccess
}

func dispatch(ctx context.Context, cmd Command, env *Env) error {
	switch cmd {
	case CmdTUI:
		return runTUI(ctx, env)
	case CmdAsk:
		return HandleAsk(ctx, env)
	case CmdChat:
		return HandleChat(ctx, env)
	case CmdRanking:
		return HandleRanking(ctx, env)
	case CmdMonitor:
		return HandleMonitor(ctx, env)
	case CmdCache:
		return HandleCache(ctx, env)
	case CmdLearning:
		return HandleLearning(ctx, env)
	case CmdAnalytics:
		return HandleAnalytics(ctx, env)
	case CmdStatus:
		return HandleStatus(ctx, env)
	case CmdConfig:
		return HandleConfig(ctx, env)
	case CmdIndex:
		return HandleIndex(ctx, env)
	case CmdHistory:
		return HandleHistory(ctx, env)
	}
	return NewValidationError("command", cmd.String(), "not runnable")
}

// runTUI starts the full-screen interface.
func runTUI(ctx context.Context, env *Env) error {
	if !isTerminalWriter(env.Out) {
		return NewValidationErrorWithExample("terminal", "", "the TUI needs a terminal",
			"qa-assistant ask \"how many tests failed yesterday?\"")
	}

	opts := app.Options{
		Backend:   env.Client,
		Config:    env.Config,
		Theme:     env.Theme,
		Server:    env.Client.BaseURL(),
		Analytics: env.Recorder.ComputeAnalytics,
		Logger:    env.Logger.Named("tui"),
	}
	if ts, err := env.Transcripts(); err == nil {
		opts.Transcripts = ts
	} else {
		env.Logger.Warn("saved sessions unavailable", zap.Error(err))
	}
	if env.Cache != nil {
		opts.CacheEntries = env.Cache.Len
	}

	return app.Run(ctx, app.RunOptions{
		Options:     opts,
		ConfigPath:  env.ConfigPath,
		Metrics:     env.Metrics,
		MetricsAddr: env.Config.Metrics.ListenAddr,
	})
}

// wantsHelp reports whether -h or --help follows the command name.
func wantsHelp(raw []string) bool {
	for _, a := range raw {
		if a == "--" {
			return false
		}
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}

func versionData() VersionData {
	return VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
