// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend reachability and local state at a glance.
//
// Command: status
// Short:   Check the backend and show local cache and log sizes
// Aliases: s
//
// Examples:
//   qa-assistant status
//   qa-assistant status --json
//   qa-assistant status --server http://qa.internal:8080

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/qa-assistant/internal/api"
)

const statusUsage = `Usage: qa-assistant status

Probes the backend and reports how long it took, the backend health status
when it exposes one, and the size of the local cache and logs.

Exits with code 5 when the backend cannot be reached.
`

// HandleStatus handles the "status" command.
func HandleStatus(ctx context.Context, env *Env) error {
	data := StatusData{
		Server:     env.Client.BaseURL(),
		Offline:    env.Client.Offline(),
		Storage:    env.Config.Storage.Backend,
		ConfigPath: env.ConfigPath,
		QueryLog:   len(env.Recorder.QueryLog(ctx)),
		ErrorLog:   len(env.Recorder.ErrorLog(ctx)),
	}
	if env.Cache != nil {
		st := env.Cache.Stats(ctx)
		data.CacheEntries = st.Entries
		data.CacheMax = st.MaxEntries
	}

	var probeErr error
	if !data.Offline {
		start := time.Now()
		probeErr = env.Client.CheckServerReachable(ctx)
		data.LatencyMs = time.Since(start).Milliseconds()
		data.Reachable = probeErr == nil
		if probeErr != nil {
			data.Error = probeErr.Error()
		} else if h, err := env.Client.Health(ctx); err == nil {
			data.Health = h.Status
		}
	}

	if err := env.Respond(CmdStatus.String(), data, func() { printStatus(env, data, probeErr) }); err != nil {
		return err
	}
	if probeErr != nil && api.IsUnavailable(probeErr) {
		// The report is already printed; only the exit code is left.
		return &silentError{err: probeErr}
	}
	return nil
}

func printStatus(env *Env, d StatusData, probeErr error) {
	if !env.Quiet() {
		fmt.Fprintln(env.Out, TitleStyle.Render("QA Assistant status"))
	}

	fmt.Fprintln(env.Out, SectionStyle.UnsetMarginTop().Render("Backend"))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Server", d.Server))
	switch {
	case d.Offline:
		fmt.Fprintln(env.Out, "  "+RenderLabel("Connection", "offline mode, answers come from the local cache"))
	case d.Reachable:
		fmt.Fprintln(env.Out, "  "+RenderLabel("Connection", RenderStatus("ok")+fmt.Sprintf(" %d ms", d.LatencyMs)))
		if d.Health != "" {
			fmt.Fprintln(env.Out, "  "+RenderLabel("Health", d.Health))
		}
	default:
		msg := d.Error
		var apiErr *api.Error
		if errors.As(probeErr, &apiErr) && apiErr.UserMessage != "" {
			msg = apiErr.UserMessage
		}
		fmt.Fprintln(env.Out, "  "+RenderLabel("Connection", RenderStatus("fail")+" "+msg))
	}

	fmt.Fprintln(env.Out, SectionStyle.Render("Local"))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Storage", d.Storage))
	if d.CacheMax > 0 {
		fmt.Fprintln(env.Out, "  "+RenderLabel("Cache", fmt.Sprintf("%d / %d entries", d.CacheEntries, d.CacheMax)))
	} else {
		fmt.Fprintln(env.Out, "  "+RenderLabel("Cache", "disabled"))
	}
	fmt.Fprintln(env.Out, "  "+RenderLabel("Query log", fmt.Sprintf("%d records", d.QueryLog)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Error log", fmt.Sprintf("%d records", d.ErrorLog)))
	config := d.ConfigPath
	if config == "" {
		config = "defaults (no config file)"
	}
	fmt.Fprintln(env.Out, "  "+RenderLabel("Config", config))
}
