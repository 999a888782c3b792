// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   get <key>           Print one value
//   set <key> <value>   Change one value in the config file
//   keys                List every key
//   path                Show the config file location
//   reset               Write the default configuration
//
// Examples:
//   qa-assistant config
//   qa-assistant config get api.base_url
//   qa-assistant config set api.base_url http://qa.internal:8080
//   qa-assistant config set cache.ttl_hours 48
//   qa-assistant config set ui.theme light
//   qa-assistant config reset --yes
//
// The effective configuration includes QA_ASSISTANT_* environment overrides
// and global flags such as --server. set and reset write to the active
// config file, or to config.toml in the config directory when there is none.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/qa-assistant/internal/config"
)

const configUsage = `Usage: qa-assistant config [subcommand]

Subcommands:
  show                 Display the effective configuration (default)
  get KEY              Print one value
  set KEY VALUE        Change one value in the config file
  keys                 List every key
  path                 Show the config file location
  reset                Write the default configuration

Flags:
  --yes, -y            reset: do not ask for confirmation

Keys use dot notation, e.g. api.base_url, cache.ttl_hours, ui.theme.
`

// secretKeys are never printed in clear.
var secretKeys = map[string]bool{
	"storage.redis_password": true,
}

// HandleConfig handles the "config" command.
func HandleConfig(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "yes", "y")

	switch p.Subcommand() {
	case "", "show":
		return configShow(env)
	case "get":
		return configGet(env, p.Positional(1))
	case "set":
		if p.PositionalCount() < 3 {
			return NewValidationErrorWithExample("set", strings.Join(p.PositionalFrom(1), " "),
				"needs a key and a value", "qa-assistant config set ui.theme light")
		}
		return configSet(env, p.Positional(1), strings.Join(p.PositionalFrom(2), " "))
	case "keys":
		keys := config.GetAllKeys()
		return env.Respond(CmdConfig.String(), keys, func() {
			for _, k := range keys {
				fmt.Fprintln(env.Out, k)
			}
		})
	case "path":
		path, err := configFilePath(env)
		if err != nil {
			return err
		}
		_, statErr := os.Stat(path)
		exists := statErr == nil
		return env.Respond(CmdConfig.String(), map[string]interface{}{"path": path, "exists": exists}, func() {
			fmt.Fprintln(env.Out, path)
			if !exists && !env.Quiet() {
				fmt.Fprintln(env.Err, DimStyle.Render("(not created yet, defaults are in use)"))
			}
		})
	case "reset":
		return configReset(env, p.BoolFlag("yes", "y"))
	}
	return unknownSubcommand("config", p.Subcommand(), "show, get, set, keys, path, reset")
}

// configFilePath is the file set and reset write to.
func configFilePath(env *Env) (string, error) {
	if env.ConfigPath != "" {
		return env.ConfigPath, nil
	}
	path, err := config.ActivePath()
	if err != nil {
		return "", &ConfigError{Err: err}
	}
	return path, nil
}

func configShow(env *Env) error {
	if env.Args.JSON {
		redacted := env.Config.Clone()
		if redacted.Storage.RedisPassword != "" {
			redacted.Storage.RedisPassword = "[REDACTED]"
		}
		return NewJSONResponse(CmdConfig.String(), redacted).Print(env.Out)
	}

	if !env.Quiet() {
		source := env.ConfigPath
		if source == "" {
			source = "defaults"
		}
		fmt.Fprintln(env.Out, TitleStyle.Render("Configuration")+DimStyle.Render("  "+source))
	}
	section := ""
	for _, key := range config.GetAllKeys() {
		if s, _, ok := strings.Cut(key, "."); ok && s != section {
			section = s
			fmt.Fprintln(env.Out, SectionStyle.Render("["+section+"]"))
		}
		v, err := env.Config.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintln(env.Out, "  "+RenderLabel(key, displayValue(key, v)))
	}
	return nil
}

func displayValue(key string, v interface{}) string {
	s := fmt.Sprint(v)
	if secretKeys[key] && s != "" {
		return "[REDACTED]"
	}
	if s == "" {
		return "(empty)"
	}
	return s
}

func configGet(env *Env, key string) error {
	if key == "" {
		return NewValidationErrorWithExample("key", "", "required", "qa-assistant config get api.base_url")
	}
	v, err := env.Config.Get(key)
	if err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "qa-assistant config keys")
	}
	if secretKeys[key] && fmt.Sprint(v) != "" {
		v = "[REDACTED]"
	}
	return env.Respond(CmdConfig.String(), ConfigKeyData{Key: key, Value: v}, func() {
		fmt.Fprintln(env.Out, fmt.Sprint(v))
	})
}

// configSet changes one key in the config file. The file is loaded on its
// own so global flags are not written back.
func configSet(env *Env, key, value string) error {
	path, err := configFilePath(env)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if cfg, err = config.LoadFromPath(path); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	}

	if _, err := cfg.Get(key); err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "qa-assistant config keys")
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		var verrs config.ValidateErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewValidationError(verrs[0].Field, value, verrs[0].Message)
		}
		return NewValidationError(key, value, err.Error())
	}
	if err := config.SaveToPath(cfg, path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	env.Logger.Debug("config updated")

	v, _ := cfg.Get(key)
	return env.Respond(CmdConfig.String(), ConfigKeyData{Key: key, Value: v}, func() {
		fmt.Fprintln(env.Out, RenderStatus("ok")+fmt.Sprintf(" %s = %s", key, displayValue(key, v)))
		if !env.Quiet() {
			fmt.Fprintln(env.Out, DimStyle.Render("saved to "+path))
		}
	})
}

func configReset(env *Env, yes bool) error {
	path, err := configFilePath(env)
	if err != nil {
		return err
	}
	if !yes {
		ok, err := env.Confirm("Replace " + path + " with the defaults?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Err, DimStyle.Render("cancelled"))
			return nil
		}
	}
	if err := config.SaveToPath(config.Default(), path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return env.Respond(CmdConfig.String(), ClearedData{Target: path}, func() {
		fmt.Fprintln(env.Out, RenderStatus("ok")+" configuration reset: "+path)
	})
}
