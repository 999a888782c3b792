// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/qa-assistant/internal/api/apitest"
	"github.com/jeranaias/qa-assistant/internal/cache"
	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/storage"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
)

const askPath = apitest.AssistantPath + "/ask-enhanced"

type fixture struct {
	backend  *apitest.Backend
	client   *Client
	cache    *cache.ResponseCache
	recorder *telemetry.Recorder
	metrics  *telemetry.Metrics
}

func newFixture(t *testing.T, mutate ...func(*config.APIConfig)) *fixture {
	t.Helper()
	backend := apitest.New()
	srv := backend.Start(t)

	cfg := config.Default().API
	cfg.BaseURL = srv.URL
	cfg.TimeoutSecs = 5
	for _, m := range mutate {
		m(&cfg)
	}

	store := storage.NewMemoryStore()
	metrics := telemetry.NewMetrics()
	c := cache.New(store, cache.Options{})
	rec := telemetry.NewRecorder(store, telemetry.RecorderOptions{Metrics: metrics})
	return &fixture{
		backend:  backend,
		client:   New(cfg, Options{Cache: c, Recorder: rec}),
		cache:    c,
		recorder: rec,
		metrics:  metrics,
	}
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_SecondCallServedFromCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.client.AskDetailed(ctx, "¿Qué es Angular?")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, model.IntentRAG, first.Result.Intent)

	second, err := f.client.AskDetailed(ctx, "¿Qué es Angular?")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Result.Answer, second.Result.Answer)
	assert.Equal(t, 1, f.backend.Calls(askPath), "one network request")

	log := f.recorder.QueryLog(ctx)
	require.Len(t, log, 2)
	assert.False(t, log[0].FromCache)
	assert.True(t, log[1].FromCache)
	assert.Zero(t, log[1].ExecutionTime)
}

func TestAsk_UnsuccessfulAnswerNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.SetAnswer("q", model.QueryResult{
		Intent:       model.IntentSQL,
		Success:      false,
		ErrorMessage: "no se pudo generar SQL",
	})

	res, err := f.client.Ask(ctx, "q")
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = f.client.Ask(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.Calls(askPath))
	assert.Zero(t, f.cache.Len(ctx))
}

func TestAsk_EmptyQuestion(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Zero(t, f.backend.Calls(askPath))
}

func TestAsk_IntentNormalized(t *testing.T) {
	f := newFixture(t)
	f.backend.SetRawAnswer("q", `{"intent":"sql","answer":"ok","success":true,
		"rawResults":[{"id":1,"nombre":"Portal","fin":null}]}`)

	res, err := f.client.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, model.IntentSQL, res.Intent)
	assert.Equal(t, []string{"id", "nombre", "fin"}, res.Columns())
}

func TestAsk_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*apitest.Backend)
		raw    string
		kind   ErrorKind
		status int
	}{
		{name: "not found", setup: func(b *apitest.Backend) { b.Fail(askPath, http.StatusNotFound) }, kind: KindNotFound, status: 404},
		{name: "server", setup: func(b *apitest.Backend) { b.Fail(askPath, http.StatusInternalServerError) }, kind: KindServer, status: 500},
		{name: "bad gateway", setup: func(b *apitest.Backend) { b.Fail(askPath, http.StatusBadGateway) }, kind: KindServer, status: 502},
		{name: "bad request", setup: func(b *apitest.Backend) { b.Fail(askPath, http.StatusBadRequest) }, kind: KindOther, status: 400},
		{name: "malformed json", raw: `{"intent":`, kind: KindMalformed},
		{name: "unknown intent", raw: `{"intent":"CHAT","answer":"x","success":true}`, kind: KindMalformed},
		{name: "missing intent", raw: `{"answer":"x","success":true}`, kind: KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f.backend)
			}
			if tt.raw != "" {
				f.backend.SetRawAnswer("q", tt.raw)
			}

			_, err := f.client.Ask(ctx, "q")
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)

			errs := f.recorder.ErrorLog(ctx)
			require.Len(t, errs, 1)
			assert.Equal(t, "q", errs[0].Question)
			assert.Equal(t, tt.kind.String(), errs[0].Kind)
			assert.Empty(t, f.recorder.QueryLog(ctx))
		})
	}
}

func TestAsk_Unavailable(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default().API
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.TimeoutSecs = 2
	store := storage.NewMemoryStore()
	rec := telemetry.NewRecorder(store, telemetry.RecorderOptions{})
	client := New(cfg, Options{Recorder: rec})

	_, err := client.Ask(ctx, "q")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "server unavailable")
	assert.Len(t, rec.ErrorLog(ctx), 1)
}

func TestAsk_Timeout(t *testing.T) {
	f := newFixture(t)
	f.backend.SetDelay(2 * time.Second)
	f.client.cfg.TimeoutSecs = 1

	_, err := f.client.Ask(context.Background(), "slow")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestAsk_Canceled(t *testing.T) {
	f := newFixture(t)
	f.backend.SetDelay(2 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := f.client.Ask(ctx, "slow")
	require.Error(t, err)
	assert.Equal(t, KindCanceled, KindOf(err))
}

func TestAsk_Offline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *config.APIConfig) { c.Offline = true })
	require.NoError(t, f.cache.Put(ctx, "cached", &model.QueryResult{Intent: model.IntentRAG, Answer: "a", Success: true}))

	res, err := f.client.Ask(ctx, "cached")
	require.NoError(t, err)
	assert.Equal(t, "a", res.Answer)

	_, err = f.client.Ask(ctx, "other")
	assert.Equal(t, KindOffline, KindOf(err))
	assert.Zero(t, f.backend.Calls(askPath))
}

func TestAsk_MetricsUpdated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.client.Ask(ctx, "a")
	require.NoError(t, err)
	_, err = f.client.Ask(ctx, "a")
	require.NoError(t, err)

	counters, err := f.metrics.Counters()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, c := range counters {
		got[c.Name+"/"+c.Labels["source"]] = c.Value
	}
	assert.Equal(t, 1.0, got["qa_assistant_queries_total/network"])
	assert.Equal(t, 1.0, got["qa_assistant_queries_total/cache"])
	assert.Equal(t, 1.0, got["qa_assistant_cache_entries/"])
}

func TestAsk_RateLimited(t *testing.T) {
	f := newFixture(t, func(c *config.APIConfig) {
		c.RequestsPerSecond = 20
		c.Burst = 1
	})
	ctx := context.Background()
	start := time.Now()
	for _, q := range []string{"a", "b", "c"} {
		_, err := f.client.Ask(ctx, q)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestError_Message(t *testing.T) {
	err := &Error{Op: "ask", Kind: KindServer, Status: 500, UserMessage: "internal server error", Err: errors.New("boom")}
	assert.Equal(t, "ask: internal server error (HTTP 500): boom", err.Error())
	assert.Equal(t, "server", err.KindLabel())
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
}
