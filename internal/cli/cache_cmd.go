// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cache_cmd.go - Local response cache and server cache management.
//
// Command: cache [subcommand]
// Short:   Inspect and clear the local and server caches
//
// Subcommands:
//   stats (default)     Local cache stats, plus server stats unless --local
//   list                Local cache entries, oldest first
//   purge               Drop expired local entries
//   clear               Empty the local cache (--remote: the server cache)
//   server              Server cache stats
//   contents            Questions cached on the server
//   frequency           Most asked questions on the server
//
// Examples:
//   qa-assistant cache
//   qa-assistant cache list --json
//   qa-assistant cache clear --remote --yes
//   qa-assistant cache frequency --days 30

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/cache"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/ui/components"
	"github.com/jeranaias/qa-assistant/internal/util"
)

const cacheUsage = `Usage: qa-assistant cache [subcommand] [flags]

Subcommands:
  stats        Local cache stats, plus server stats unless --local (default)
  list         Local cache entries, oldest first
  purge        Drop expired local entries
  clear        Empty the local cache; with --remote, the server cache
  server       Server cache stats
  contents     Questions cached on the server
  frequency    Most asked questions on the server

Flags:
  --local      stats: skip the server
  --remote     clear: clear the server cache instead
  --yes, -y    clear --remote: do not ask for confirmation
  --days N     frequency: window in days (default 7)
  --limit N    frequency, contents: show at most N questions
`

// HandleCache handles the "cache" command.
func HandleCache(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "local", "remote", "yes", "y")

	switch p.Subcommand() {
	case "", "stats":
		return cacheStats(ctx, env, p.BoolFlag("local"))
	case "list", "ls":
		return cacheList(ctx, env)
	case "purge":
		return cachePurge(ctx, env)
	case "clear":
		if p.BoolFlag("remote") {
			return cacheClearServer(ctx, env, p.BoolFlag("yes", "y"))
		}
		return cacheClearLocal(ctx, env)
	case "server":
		return cacheServerStats(ctx, env)
	case "contents":
		limit, err := p.FlagInt("limit", 0)
		if err != nil {
			return err
		}
		return cacheContents(ctx, env, limit)
	case "frequency", "freq":
		days, err := p.FlagInt("days", api.DefaultFrequencyDays)
		if err != nil {
			return err
		}
		limit, err := p.FlagInt("limit", 0)
		if err != nil {
			return err
		}
		return cacheFrequency(ctx, env, days, limit)
	}
	return unknownSubcommand("cache", p.Subcommand(), "stats, list, purge, clear, server, contents, frequency")
}

// errCacheDisabled is returned by local cache commands when cache.enabled
// is false.
func errCacheDisabled() error {
	return NewCommandError("cache", "open", "the local cache is disabled (cache.enabled = false)", nil)
}

// =============================================================================
// LOCAL CACHE
// =============================================================================

func localCacheData(ctx context.Context, env *Env, withEntries bool) LocalCacheData {
	st := env.Cache.Stats(ctx)
	data := LocalCacheData{Stats: st, HitRate: st.HitRate()}
	if withEntries {
		now := time.Now()
		for _, e := range env.Cache.Entries(ctx) {
			data.Entries = append(data.Entries, LocalCacheEntry{
				Question: e.Question,
				Intent:   string(e.Result.Intent),
				StoredAt: e.StoredAt,
				Expired:  e.Age(now) > st.TTL,
			})
		}
	}
	return data
}

func cacheStats(ctx context.Context, env *Env, localOnly bool) error {
	if env.Cache == nil {
		return errCacheDisabled()
	}
	local := localCacheData(ctx, env, false)

	var (
		server    *model.CacheStats
		serverErr error
	)
	if !localOnly && !env.Config.API.Offline {
		server, serverErr = env.Client.FetchCacheStats(ctx)
	}

	data := map[string]interface{}{"local": local}
	if server != nil {
		data["server"] = server
	}
	if serverErr != nil {
		data["server_error"] = serverErr.Error()
	}

	return env.Respond(CmdCache.String(), data, func() {
		printLocalStats(env, local.Stats)
		if server != nil {
			printServerStats(env, server)
		} else if serverErr != nil {
			fmt.Fprintln(env.Out, SectionStyle.Render("Server cache"))
			fmt.Fprintln(env.Out, "  "+RenderStatus("fail")+" "+serverErr.Error())
		}
	})
}

func printLocalStats(env *Env, st cache.Stats) {
	fmt.Fprintln(env.Out, SectionStyle.UnsetMarginTop().Render("Local cache"))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Entries", fmt.Sprintf("%d / %d", st.Entries, st.MaxEntries)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Expired", fmt.Sprintf("%d", st.Expired)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("TTL", st.TTL.String()))
	now := time.Now()
	fmt.Fprintln(env.Out, "  "+RenderLabel("Oldest", components.Ago(st.Oldest, now)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Newest", components.Ago(st.Newest, now)))
}

func printServerStats(env *Env, st *model.CacheStats) {
	fmt.Fprintln(env.Out, SectionStyle.Render("Server cache"))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Entries", components.Count(int64(st.Size))))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Hits", components.Count(st.HitCount)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Misses", components.Count(st.MissCount)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Hit rate", components.Ratio(st.HitRate)))
	fmt.Fprintln(env.Out, "  "+RenderLabel("Oldest entry", components.Age(st.OldestAge())))
	for k, v := range st.Extra {
		fmt.Fprintln(env.Out, "  "+RenderLabel(k, components.FormatCell(v)))
	}
}

func cacheList(ctx context.Context, env *Env) error {
	if env.Cache == nil {
		return errCacheDisabled()
	}
	data := localCacheData(ctx, env, true)
	return env.Respond(CmdCache.String(), data, func() {
		if len(data.Entries) == 0 {
			fmt.Fprintln(env.Out, DimStyle.Render("The local cache is empty."))
			return
		}
		now := time.Now()
		qWidth := env.Width - 30
		if qWidth < 20 {
			qWidth = 20
		}
		for _, e := range data.Entries {
			age := components.Ago(e.StoredAt, now)
			if e.Expired {
				age = WarningStyle.Render(age + " (expired)")
			}
			fmt.Fprintf(env.Out, "%-8s %s  %s\n", "["+e.Intent+"]",
				util.PadRight(util.TruncateWidth(e.Question, qWidth), qWidth), DimStyle.Render(age))
		}
	})
}

func cachePurge(ctx context.Context, env *Env) error {
	if env.Cache == nil {
		return errCacheDisabled()
	}
	n, err := env.Cache.Purge(ctx)
	if err != nil {
		return NewCommandError("cache", "purge", "could not rewrite the cache", err)
	}
	return env.Respond(CmdCache.String(), ClearedData{Target: "local-expired", Removed: n}, func() {
		fmt.Fprintln(env.Out, RenderStatus("ok")+fmt.Sprintf(" removed %d expired entries", n))
	})
}

func cacheClearLocal(ctx context.Context, env *Env) error {
	if env.Cache == nil {
		return errCacheDisabled()
	}
	n := env.Cache.Len(ctx)
	if err := env.Cache.Clear(ctx); err != nil {
		return NewCommandError("cache", "clear", "could not clear the local cache", err)
	}
	env.Metrics.SetCacheEntries(0)
	return env.Respond(CmdCache.String(), ClearedData{Target: "local", Removed: n}, func() {
		fmt.Fprintln(env.Out, RenderStatus("ok")+fmt.Sprintf(" local cache cleared (%d entries)", n))
	})
}

// =============================================================================
// SERVER CACHE
// =============================================================================

func cacheClearServer(ctx context.Context, env *Env, yes bool) error {
	if !yes {
		ok, err := env.Confirm("Clear the server cache for every user?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Err, DimStyle.Render("cancelled"))
			return nil
		}
	}
	if err := env.Client.ClearServerCache(ctx); err != nil {
		return err
	}
	return env.Respond(CmdCache.String(), ClearedData{Target: "server"}, func() {
		fmt.Fprintln(env.Out, RenderStatus("ok")+" server cache cleared")
	})
}

func cacheServerStats(ctx context.Context, env *Env) error {
	st, err := env.Client.FetchCacheStats(ctx)
	if err != nil {
		return err
	}
	return env.Respond(CmdCache.String(), st, func() {
		printServerStats(env, st)
	})
}

func cacheContents(ctx context.Context, env *Env, limit int) error {
	entries, err := env.Client.FetchCacheContents(ctx)
	if err != nil {
		return err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return env.Respond(CmdCache.String(), entries, func() {
		if len(entries) == 0 {
			fmt.Fprintln(env.Out, DimStyle.Render("The server cache is empty."))
			return
		}
		qWidth := env.Width - 26
		if qWidth < 20 {
			qWidth = 20
		}
		for _, e := range entries {
			intent := e.Intent
			if intent == "" {
				intent = "-"
			}
			fmt.Fprintf(env.Out, "%-8s %s %8s hits  %s\n", "["+intent+"]",
				util.PadRight(util.TruncateWidth(e.Question, qWidth), qWidth),
				components.Count(e.Hits), DimStyle.Render(e.CreatedAt))
		}
	})
}

func cacheFrequency(ctx context.Context, env *Env, days, limit int) error {
	freq, err := env.Client.FetchCacheFrequency(ctx, days)
	if err != nil {
		return err
	}
	items := freq.Sorted()
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return env.Respond(CmdCache.String(), map[string]interface{}{"days": days, "questions": items}, func() {
		fmt.Fprintln(env.Out, SectionStyle.UnsetMarginTop().Render(fmt.Sprintf("Most asked (last %d days)", days)))
		if len(items) == 0 {
			fmt.Fprintln(env.Out, DimStyle.Render("  no questions in this window"))
			return
		}
		qWidth := env.Width - 14
		for i, it := range items {
			fmt.Fprintf(env.Out, "%3d. %s %6s\n", i+1,
				util.PadRight(util.TruncateWidth(it.Question, qWidth), qWidth), components.Count(it.Count))
		}
	})
}
