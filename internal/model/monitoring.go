// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"sort"
	"time"
)

// =============================================================================
// SERVER CACHE STATISTICS
// =============================================================================

// CacheStats is the backend's view of its own answer cache.
type CacheStats struct {
	Size           int     `json:"size"`
	OldestEntryAge float64 `json:"oldestEntryAge"` // seconds
	HitCount       int64   `json:"hitCount"`
	MissCount      int64   `json:"missCount"`
	HitRate        float64 `json:"hitRate"`

	// Extra holds fields this client does not model so they can still be shown.
	Extra map[string]any `json:"-"`
}

// UnmarshalJSON decodes known fields and keeps the rest in Extra.
func (c *CacheStats) UnmarshalJSON(data []byte) error {
	type plain CacheStats
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "size", "oldestEntryAge", "hitCount", "missCount", "hitRate")
	if err != nil {
		return err
	}
	*c = CacheStats(p)
	c.Extra = extra
	return nil
}

// OldestAge returns OldestEntryAge as a duration.
func (c CacheStats) OldestAge() time.Duration {
	return time.Duration(c.OldestEntryAge * float64(time.Second))
}

// FrequencyStats maps a question to how often it was asked in the window.
type FrequencyStats map[string]int64

// FrequencyItem is one question and its count.
type FrequencyItem struct {
	Question string `json:"question"`
	Count    int64  `json:"count"`
}

// Sorted returns the items by count descending, then question ascending.
func (f FrequencyStats) Sorted() []FrequencyItem {
	items := make([]FrequencyItem, 0, len(f))
	for q, n := range f {
		items = append(items, FrequencyItem{Question: q, Count: n})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Question < items[j].Question
	})
	return items
}

// CacheContentEntry is one cached answer on the server.
type CacheContentEntry struct {
	Question  string `json:"question"`
	Intent    string `json:"intent,omitempty"`
	Hits      int64  `json:"hits,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`

	Extra map[string]any `json:"-"`
}

// UnmarshalJSON decodes known fields and keeps the rest in Extra.
func (c *CacheContentEntry) UnmarshalJSON(data []byte) error {
	type plain CacheContentEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "question", "intent", "hits", "createdAt")
	if err != nil {
		return err
	}
	*c = CacheContentEntry(p)
	c.Extra = extra
	return nil
}

// =============================================================================
// LEARNING STATISTICS
// =============================================================================

// LearningStats summarizes what the backend has learned from past questions.
type LearningStats struct {
	TotalQueries         int64            `json:"totalQueries"`
	UniqueQueries        int64            `json:"uniqueQueries"`
	QueriesByIntent      map[string]int64 `json:"queriesByIntent,omitempty"`
	AverageExecutionTime float64          `json:"averageExecutionTime"` // ms
	SuccessRate          float64          `json:"successRate"`

	Extra map[string]any `json:"-"`
}

// UnmarshalJSON decodes known fields and keeps the rest in Extra.
func (l *LearningStats) UnmarshalJSON(data []byte) error {
	type plain LearningStats
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "totalQueries", "uniqueQueries", "queriesByIntent",
		"averageExecutionTime", "successRate")
	if err != nil {
		return err
	}
	*l = LearningStats(p)
	l.Extra = extra
	return nil
}

// LearnedQuery is a question the backend has seen before.
type LearnedQuery struct {
	Question      string  `json:"question"`
	Intent        string  `json:"intent,omitempty"`
	Count         int64   `json:"count"`
	LastAsked     string  `json:"lastAsked,omitempty"`
	ExecutionTime float64 `json:"executionTime,omitempty"` // ms
}

// lastAskedLayouts covers RFC 3339 and the zone-less form Java backends emit.
var lastAskedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// LastAskedTime parses LastAsked. ok is false when it is absent or unparsable.
func (q LearnedQuery) LastAskedTime() (time.Time, bool) {
	for _, layout := range lastAskedLayouts {
		if t, err := time.ParseInLocation(layout, q.LastAsked, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extraFields returns the top-level fields of a JSON object not in known.
func extraFields(data []byte, known ...string) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
