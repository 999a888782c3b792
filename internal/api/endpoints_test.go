// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/qa-assistant/internal/api/apitest"
	"github.com/jeranaias/qa-assistant/internal/model"
)

func TestFetchRanking_SortedByCoverage(t *testing.T) {
	f := newFixture(t)
	entries, err := f.client.FetchRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Pagos", entries[0].ApplicationName)
	assert.Equal(t, "Core", entries[0].Team)
	assert.Equal(t, "Portal", entries[1].ApplicationName)
	assert.Equal(t, "Backoffice", entries[2].ApplicationName)
	assert.Equal(t, model.BandRegular, entries[2].Band())
}

func TestFetchRanking_FlatFormRejected(t *testing.T) {
	f := newFixture(t)
	f.backend.SetRanking(`[{"nombre":"Portal","cobertura":50}]`)

	_, err := f.client.FetchRanking(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))
	assert.ErrorIs(t, err, model.ErrMalformedRanking)
}

func TestFetchRanking_NotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.client.FetchRanking(ctx)
	require.NoError(t, err)
	_, err = f.client.FetchRanking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.Calls(apitest.AssistantPath+"/ranking"))
	assert.Empty(t, f.recorder.QueryLog(ctx), "only questions are recorded")
}

func TestServerCacheEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stats, err := f.client.FetchCacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, stats.Size)
	assert.Equal(t, 3600.0, stats.OldestEntryAge)
	assert.Equal(t, 3.0, stats.Extra["evictions"])

	freq, err := f.client.FetchCacheFrequency(ctx, 0)
	require.NoError(t, err)
	sorted := freq.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, "¿Qué es Angular?", sorted[0].Question)
	assert.Equal(t, 1, f.backend.Calls("/api/cache/frequency/7"))

	contents, err := f.client.FetchCacheContents(ctx)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, int64(45), contents[0].Hits)

	require.NoError(t, f.client.ClearServerCache(ctx))
	assert.Equal(t, 1, f.backend.Calls("/api/cache/clear"))
}

func TestLearningEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stats, err := f.client.FetchLearningStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), stats.TotalQueries)
	assert.Equal(t, int64(70), stats.QueriesByIntent["SQL"])

	popular, err := f.client.FetchPopularQueries(ctx, 5)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, int64(12), popular[0].Count)

	recent, err := f.client.FetchRecentQueries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	_, ok := recent[0].LastAskedTime()
	assert.True(t, ok)

	byIntent, err := f.client.FetchQueriesByIntent(ctx, "rag", 10)
	require.NoError(t, err)
	require.Len(t, byIntent, 1)
	assert.Equal(t, "b", byIntent[0].Question)

	_, err = f.client.FetchQueriesByIntent(ctx, "CHAT", 10)
	assert.ErrorIs(t, err, model.ErrInvalidIntent)

	all, err := f.client.FetchAllQueries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCheckServerReachable(t *testing.T) {
	ctx := context.Background()

	t.Run("ranking-test ok", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.client.CheckServerReachable(ctx))
		assert.Zero(t, f.backend.Calls("/actuator/health"))
	})

	t.Run("falls back to health", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Fail(apitest.AssistantPath+"/ranking-test", http.StatusNotFound)
		require.NoError(t, f.client.CheckServerReachable(ctx))
		assert.Equal(t, 1, f.backend.Calls("/actuator/health"))
	})

	t.Run("health down", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Fail(apitest.AssistantPath+"/ranking-test", http.StatusNotFound)
		f.backend.SetHealth(`{"status":"DOWN"}`)
		err := f.client.CheckServerReachable(ctx)
		assert.True(t, IsUnavailable(err))
	})

	t.Run("server error is not retried", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Fail(apitest.AssistantPath+"/ranking-test", http.StatusInternalServerError)
		err := f.client.CheckServerReachable(ctx)
		assert.Equal(t, KindServer, KindOf(err))
		assert.Zero(t, f.backend.Calls("/actuator/health"))
	})
}

func TestIndexDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ack, err := f.client.IndexDocument(ctx, IndexRequest{Content: "Guía de pruebas", Category: "testing", Source: "wiki"})
	require.NoError(t, err)
	assert.Equal(t, "Documento indexado correctamente", ack)

	docs := f.backend.Indexed()
	require.Len(t, docs, 1)
	assert.Equal(t, "testing", docs[0].Category)

	_, err = f.client.IndexDocument(ctx, IndexRequest{Content: " "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
