// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\ntimeout_secs = 10\n"), 0600))

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c }, nil)
	require.NoError(t, err)
	w.WithDebounce(20 * time.Millisecond)

	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[api]\ntimeout_secs = 42\n"), 0600))

	select {
	case cfg := <-changes:
		require.Equal(t, 42, cfg.API.TimeoutSecs)
		require.Equal(t, 42, Global().API.TimeoutSecs)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}

func TestWatcher_IgnoresInvalidEdit(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\ntimeout_secs = 10\n"), 0600))

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c }, nil)
	require.NoError(t, err)
	w.WithDebounce(20 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[storage]\nbackend = \"tape\"\n"), 0600))

	select {
	case <-changes:
		t.Fatal("invalid config should not be delivered")
	case <-time.After(300 * time.Millisecond):
	}
}
