// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
)

// RunOptions adds the process-level pieces around the app.
type RunOptions struct {
	Options

	// ConfigPath is watched for edits when non-empty.
	ConfigPath string

	// Metrics is served on MetricsAddr when both are set.
	Metrics     *telemetry.Metrics
	MetricsAddr string
}

// Run shows the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := New(ctx, opts.Options)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, func(cfg *config.Config) {
			p.Send(ConfigChangedMsg{Config: cfg})
		}, logger.Named("config"))
		if err != nil {
			logger.Warn("config watcher disabled", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			logger.Warn("config watcher disabled", zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	if opts.Metrics != nil && opts.MetricsAddr != "" {
		go func() {
			if err := opts.Metrics.Serve(ctx, opts.MetricsAddr, logger.Named("metrics")); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
