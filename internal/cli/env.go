// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - The collaborators shared by every command.

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/cache"
	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/logging"
	"github.com/jeranaias/qa-assistant/internal/storage"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
	"github.com/jeranaias/qa-assistant/internal/ui/styles"
)

// Env holds what a command needs: configuration, the store and the API
// client built on top of it, and where to write.
type Env struct {
	Args       Args
	Config     *config.Config
	ConfigPath string // file the config came from, "" for defaults

	Logger   *zap.Logger
	Store    storage.Store
	Cache    *cache.ResponseCache // nil when cache.enabled is false
	Metrics  *telemetry.Metrics
	Recorder *telemetry.Recorder
	Client   *api.Client
	Theme    *styles.Theme

	In    io.Reader
	Out   io.Writer
	Err   io.Writer
	Width int

	transcripts *storage.TranscriptStore
	syncLog     func() error
}

// envOptions tweaks OpenEnv per command.
type envOptions struct {
	// tui sends logs to the log file instead of stderr.
	tui bool
}

// OpenEnv loads the configuration, applies the global flags and opens the
// store, cache, recorder and client. Close releases them.
func OpenEnv(ctx context.Context, args Args, out, errOut io.Writer, opts envOptions) (*Env, error) {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	env := &Env{
		Args:       args,
		Config:     cfg,
		ConfigPath: path,
		Out:        out,
		Err:        errOut,
		Width:      GetTerminalWidth(out),
	}

	if env.Logger, err = newLogger(cfg, args, errOut, opts.tui); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	env.syncLog = env.Logger.Sync

	env.Store, err = storage.Open(ctx, cfg, env.Logger.Named("storage"))
	if err != nil {
		return nil, NewCommandError("storage", "open", "could not open the local store", err)
	}

	if cfg.Cache.Enabled {
		env.Cache = cache.New(env.Store, cache.Options{
			MaxEntries: cfg.Cache.MaxEntries,
			TTL:        cfg.Cache.TTL(),
			Logger:     env.Logger.Named("cache"),
		})
	}
	env.Metrics = telemetry.NewMetrics()
	env.Recorder = telemetry.NewRecorder(env.Store, telemetry.RecorderOptions{
		QueryLogSize: cfg.Analytics.QueryLogSize,
		ErrorLogSize: cfg.Analytics.ErrorLogSize,
		Metrics:      env.Metrics,
		Logger:       env.Logger.Named("telemetry"),
	})
	env.Client = api.New(cfg.API, api.Options{
		Cache:    env.Cache,
		Recorder: env.Recorder,
		Logger:   env.Logger.Named("api"),
	})
	if env.Cache != nil {
		env.Metrics.SetCacheEntries(env.Cache.Len(ctx))
	}

	mode := cfg.UI.Theme
	if !opts.tui {
		mode = themeMode(cfg.UI.Theme, out)
	}
	env.Theme = styles.NewTheme(mode)

	env.Logger.Debug("environment ready",
		zap.String("config", path),
		zap.String("server", cfg.API.BaseURL),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("offline", cfg.API.Offline))
	return env, nil
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig(args Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = args.ConfigPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		if p, perr := config.ActivePath(); perr == nil {
			if _, serr := os.Stat(p); serr == nil {
				path = p
			}
		}
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}

	if args.Server != "" {
		cfg.API.BaseURL = args.Server
	}
	if args.Offline {
		cfg.API.Offline = true
	}
	if args.Locale != "" {
		cfg.UI.Locale = args.Locale
	}
	if args.Theme != "" {
		cfg.UI.Theme = args.Theme
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}
	config.SetGlobal(cfg)
	return cfg, path, nil
}

// newLogger logs to stderr at warn level for one-shot commands and to the
// log file for the TUI, which owns the terminal.
func newLogger(cfg *config.Config, args Args, errOut io.Writer, tui bool) (*zap.Logger, error) {
	if !tui {
		level := zapcore.WarnLevel
		if args.Verbose {
			level = zapcore.DebugLevel
		}
		return logging.NewWriter(errOut, level, cfg.Logging.Format), nil
	}

	path, err := cfg.LogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if args.Verbose {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, Format: cfg.Logging.Format, Output: path})
}

// Transcripts opens the saved-session store on first use.
func (e *Env) Transcripts() (*storage.TranscriptStore, error) {
	if e.transcripts != nil {
		return e.transcripts, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	ts, err := storage.NewTranscriptStore(filepath.Join(dir, "transcripts"))
	if err != nil {
		return nil, NewCommandError("history", "open", "could not open the transcript directory", err)
	}
	e.transcripts = ts
	return ts, nil
}

// Close releases the store and flushes the logger.
func (e *Env) Close() error {
	var err error
	if e.Store != nil {
		err = e.Store.Close()
	}
	if e.syncLog != nil {
		_ = e.syncLog()
	}
	return err
}

// =============================================================================
// OUTPUT
// =============================================================================

// Respond writes data as a JSON envelope in --json mode and calls text
// otherwise.
func (e *Env) Respond(command string, data interface{}, text func()) error {
	if e.Args.JSON {
		return NewJSONResponse(command, data).Print(e.Out)
	}
	text()
	return nil
}

// Confirm asks a yes/no question on the terminal. Without a terminal it
// refuses, so destructive commands need --yes in scripts.
func (e *Env) Confirm(prompt string) (bool, error) {
	if e.In == nil || !isTerminalReader(e.In) {
		return false, NewValidationErrorWithExample("confirmation", "", "required", "add --yes to confirm without a terminal")
	}
	fmt.Fprint(e.Err, WarningStyle.Render(prompt)+" [y/N] ")
	answer, err := bufio.NewReader(e.In).ReadString('\n')
	if err != nil && answer == "" {
		return false, nil
	}
	ok, perr := ParseBoolString(answer)
	return perr == nil && ok, nil
}

// Quiet reports whether decorative output should be skipped.
func (e *Env) Quiet() bool {
	return e.Args.Quiet || e.Args.JSON
}
