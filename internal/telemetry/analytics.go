// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"math"
	"sort"
	"time"
)

// =============================================================================
// ANALYTICS SNAPSHOT
// =============================================================================

const (
	popularIntentLimit = 5
	recentQueryLimit   = 10
	recentErrorLimit   = 5
)

// IntentCount is how many logged queries had an intent.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// Snapshot is derived from the query and error logs.
type Snapshot struct {
	TotalQueries      int `json:"totalQueries"`
	SuccessfulQueries int `json:"successfulQueries"`
	FailedQueries     int `json:"failedQueries"`

	// SuccessRate is a rounded percentage, 0 when there are no queries.
	SuccessRate int `json:"successRate"`

	// AverageExecutionTime is the rounded mean over successes in
	// milliseconds, 0 when there are none.
	AverageExecutionTime int64 `json:"averageExecutionTime"`

	CacheHits int `json:"cacheHits"`

	PopularIntents []IntentCount    `json:"popularIntents"`
	RecentQueries  []QueryLogRecord `json:"recentQueries"`
	RecentErrors   []ErrorLogRecord `json:"recentErrors"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// ComputeAnalytics derives a snapshot from the current logs.
func (r *Recorder) ComputeAnalytics(ctx context.Context) Snapshot {
	r.mu.Lock()
	queries := loadLog[QueryLogRecord](ctx, r, QueryLogKey)
	errs := loadLog[ErrorLogRecord](ctx, r, ErrorLogKey)
	r.mu.Unlock()

	snap := Analyze(queries, errs)
	snap.GeneratedAt = r.now()
	return snap
}

// Analyze computes a snapshot from logs ordered oldest first.
func Analyze(queries []QueryLogRecord, errs []ErrorLogRecord) Snapshot {
	snap := Snapshot{
		SuccessfulQueries: len(queries),
		FailedQueries:     len(errs),
		TotalQueries:      len(queries) + len(errs),
		PopularIntents:    popularIntents(queries, popularIntentLimit),
		RecentQueries:     newestFirst(queries, recentQueryLimit),
		RecentErrors:      newestFirst(errs, recentErrorLimit),
	}

	if snap.TotalQueries > 0 {
		snap.SuccessRate = int(math.Round(float64(snap.SuccessfulQueries) / float64(snap.TotalQueries) * 100))
	}

	if len(queries) > 0 {
		var total time.Duration
		for _, q := range queries {
			total += q.ExecutionTime
			if q.FromCache {
				snap.CacheHits++
			}
		}
		meanMs := float64(total) / float64(len(queries)) / float64(time.Millisecond)
		snap.AverageExecutionTime = int64(math.Round(meanMs))
	}

	return snap
}

// popularIntents counts intents and returns the top n by count. Ties keep
// the order in which each intent first appeared.
func popularIntents(queries []QueryLogRecord, n int) []IntentCount {
	counts := make(map[string]int)
	var order []string
	for _, q := range queries {
		if q.Intent == "" {
			continue
		}
		if _, seen := counts[q.Intent]; !seen {
			order = append(order, q.Intent)
		}
		counts[q.Intent]++
	}

	out := make([]IntentCount, 0, len(order))
	for _, intent := range order {
		out = append(out, IntentCount{Intent: intent, Count: counts[intent]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// newestFirst returns up to n of the most recent records, newest first.
func newestFirst[T any](log []T, n int) []T {
	if n > len(log) {
		n = len(log)
	}
	out := make([]T, 0, n)
	for i := len(log) - 1; i >= len(log)-n; i-- {
		out = append(out, log[i])
	}
	return out
}
