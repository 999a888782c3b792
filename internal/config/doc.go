// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// qa-assistant.
//
// Supports TOML, JSON and YAML configuration formats, with sensible defaults,
// environment variable overrides, validation, and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Backend location, timeout and request throttling
//   - CacheConfig: Local response cache bounds and lifetime
//   - StorageConfig: Durable key-value backend selection
//   - Watcher: fsnotify-based reload of the active config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (QA_ASSISTANT_*)
//   - ~/.qa-assistant/config.toml
//   - ~/.qa-assistant/config.json
//   - ~/.qa-assistant/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.API.Timeout()
//
// Dot-notation access backs the "config get/set" commands:
//
//	_ = cfg.Set("cache.ttl_hours", "12")
//	v, _ := cfg.Get("api.base_url")
package config
