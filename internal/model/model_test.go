// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// QUERY RESULT TESTS
// =============================================================================

func TestQueryResult_DecodeAndValidate(t *testing.T) {
	body := `{
		"originalQuestion": "¿Cuántas aplicaciones hay?",
		"intent": "sql",
		"answer": "Hay 2 aplicaciones.",
		"generatedSQL": "SELECT nombre, cobertura FROM aplicacion",
		"rawResults": [
			{"nombre": "Portal", "cobertura": 81.5, "id": 12345678901234567},
			{"nombre": "Backoffice", "cobertura": null, "id": 2}
		],
		"suggestions": ["Mostrar detalles"],
		"success": true
	}`

	var res QueryResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	require.NoError(t, res.Validate())

	assert.Equal(t, IntentSQL, res.Intent)
	assert.Equal(t, 2, res.ResultCount())
	assert.Equal(t, []string{"nombre", "cobertura", "id"}, res.Columns())

	id, ok := res.RawResults[0].Get("id")
	require.True(t, ok)
	assert.Equal(t, json.Number("12345678901234567"), id)

	v, ok := res.RawResults[1].Get("cobertura")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestQueryResult_NullRows(t *testing.T) {
	body := `{
		"intent": "sql",
		"answer": "ok",
		"rawResults": [null, {"a": 1}, null],
		"success": true
	}`

	var res QueryResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	require.NoError(t, res.Validate())

	require.Len(t, res.RawResults, 3)
	assert.Zero(t, res.RawResults[0].Len())
	assert.Zero(t, res.RawResults[2].Len())
	_, ok := res.RawResults[2].Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, res.Columns())

	out, err := json.Marshal(res.RawResults[0])
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestQueryResult_InvalidIntent(t *testing.T) {
	testCases := []string{
		`{"intent":"GRAPH","answer":"x","success":true}`,
		`{"answer":"x","success":true}`,
	}
	for _, body := range testCases {
		var res QueryResult
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		err := res.Validate()
		assert.True(t, errors.Is(err, ErrInvalidIntent), "body %s: got %v", body, err)
	}
}

func TestQueryResult_ResultCountFallsBackToSources(t *testing.T) {
	res := QueryResult{Intent: IntentRAG, Sources: []KnowledgeDocument{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, 2, res.ResultCount())
	assert.Nil(t, res.Columns())
}

func TestRow_RoundTripKeepsOrder(t *testing.T) {
	in := `{"z":1,"a":"x","m":{"nested":true}}`
	var row Row
	require.NoError(t, json.Unmarshal([]byte(in), &row))
	assert.Equal(t, []string{"z", "a", "m"}, row.Keys())

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &row))
}

func TestKnowledgeDocument_Title(t *testing.T) {
	assert.Equal(t, "Guide", KnowledgeDocument{ID: "1", Metadata: &DocumentMetadata{Title: "Guide"}}.Title())
	assert.Equal(t, "doc.pdf", KnowledgeDocument{ID: "1", Metadata: &DocumentMetadata{SourceFile: "doc.pdf"}}.Title())
	assert.Equal(t, "wiki", KnowledgeDocument{ID: "1", Source: "wiki"}.Title())
	assert.Equal(t, "1", KnowledgeDocument{ID: "1"}.Title())
}

// =============================================================================
// CHAT MESSAGE TESTS
// =============================================================================

func TestNewResultMessage(t *testing.T) {
	now := time.Now()
	res := &QueryResult{Intent: IntentRAG, Answer: "No sé", Success: false, Suggestions: []string{"a"}}

	msg := NewResultMessage(res, now)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.True(t, msg.IsError)
	assert.Equal(t, "No sé", msg.Text)
	assert.Equal(t, []string{"a"}, msg.Suggestions)
	assert.NotEmpty(t, msg.ID)

	other := NewChatMessage(RoleUser, "hola", now)
	assert.NotEqual(t, msg.ID, other.ID)
	assert.Equal(t, "You", other.Role.DisplayName())
}

// =============================================================================
// RANKING TESTS
// =============================================================================

func TestDecodeRanking(t *testing.T) {
	body := `[
		{"aplicacion": {"id": 1, "nombre": "Portal", "descripcion": "Web", "equipoResponsable": "QA-1"}, "cobertura": 55.5},
		{"aplicacion": {"nombre": "API"}, "cobertura": 92}
	]`
	entries, err := DecodeRanking([]byte(body))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Portal", entries[0].ApplicationName)
	assert.Equal(t, "QA-1", entries[0].Team)

	SortByCoverage(entries)
	assert.Equal(t, "API", entries[0].ApplicationName)
	assert.Equal(t, BandExcellent, entries[0].Band())
	assert.Equal(t, BandRegular, entries[1].Band())
}

func TestDecodeRanking_FlatFormRejected(t *testing.T) {
	_, err := DecodeRanking([]byte(`[{"nombre": "Portal", "cobertura": 50}]`))
	assert.ErrorIs(t, err, ErrMalformedRanking)
}

func TestBandFor(t *testing.T) {
	testCases := []struct {
		percent float64
		want    CoverageBand
	}{
		{100, BandExcellent},
		{80, BandExcellent},
		{79.9, BandGood},
		{60, BandGood},
		{59.99, BandRegular},
		{0, BandRegular},
	}
	for _, tc := range testCases {
		if got := BandFor(tc.percent); got != tc.want {
			t.Errorf("BandFor(%v) = %s, want %s", tc.percent, got, tc.want)
		}
	}
}

// =============================================================================
// MONITORING TESTS
// =============================================================================

func TestCacheStats_KeepsExtraFields(t *testing.T) {
	var stats CacheStats
	require.NoError(t, json.Unmarshal([]byte(`{"size":150,"oldestEntryAge":3600,"evictions":7}`), &stats))
	assert.Equal(t, 150, stats.Size)
	assert.Equal(t, time.Hour, stats.OldestAge())
	assert.Equal(t, map[string]any{"evictions": float64(7)}, stats.Extra)
}

func TestFrequencyStats_Sorted(t *testing.T) {
	f := FrequencyStats{
		"¿Qué es TypeScript?": 28,
		"¿Qué es Angular?":    45,
		"¿Cómo usar RxJS?":    32,
		"A":                   28,
	}
	items := f.Sorted()
	require.Len(t, items, 4)
	assert.Equal(t, "¿Qué es Angular?", items[0].Question)
	assert.Equal(t, "A", items[2].Question)
}

func TestLearnedQuery_LastAskedTime(t *testing.T) {
	q := LearnedQuery{LastAsked: "2024-05-01T10:30:00"}
	ts, ok := q.LastAskedTime()
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())

	_, ok = LearnedQuery{LastAsked: "yesterday"}.LastAskedTime()
	assert.False(t, ok)
}
