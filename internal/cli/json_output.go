// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - The --json output envelope and per-command payloads.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/qa-assistant/internal/cache"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
)

// JSONResponse is the envelope every command writes in --json mode.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific payload. For failures it holds
	// the error classification.
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC 3339 UTC time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      errorDetails(err),
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(r)
}

// String returns the response as indented JSON.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// AskData is the payload of the ask command.
type AskData struct {
	Question  string             `json:"question"`
	Result    *model.QueryResult `json:"result"`
	FromCache bool               `json:"from_cache"`
	ElapsedMs int64              `json:"elapsed_ms"`
}

// RankingData is the payload of the ranking command.
type RankingData struct {
	Entries []RankingItem `json:"entries"`
}

// RankingItem is one ranked application.
type RankingItem struct {
	Rank        int     `json:"rank"`
	Application string  `json:"application"`
	Description string  `json:"description,omitempty"`
	Coverage    float64 `json:"coverage"`
	Band        string  `json:"band"`
}

// MonitorData is the payload of the monitor command. Each panel that
// failed carries its error instead of data.
type MonitorData struct {
	CacheStats     *model.CacheStats     `json:"cache_stats,omitempty"`
	Frequency      []model.FrequencyItem `json:"frequency,omitempty"`
	FrequencyDays  int                   `json:"frequency_days"`
	Learning       *model.LearningStats  `json:"learning,omitempty"`
	PopularQueries []model.LearnedQuery  `json:"popular_queries,omitempty"`
	Analytics      *telemetry.Snapshot   `json:"analytics,omitempty"`
	Errors         map[string]string     `json:"errors,omitempty"`
}

// LocalCacheData is the payload of cache stats / cache list.
type LocalCacheData struct {
	Stats   cache.Stats       `json:"stats"`
	HitRate float64           `json:"hit_rate"`
	Entries []LocalCacheEntry `json:"entries,omitempty"`
}

// LocalCacheEntry is one local cache entry without its full result.
type LocalCacheEntry struct {
	Question string    `json:"question"`
	Intent   string    `json:"intent"`
	StoredAt time.Time `json:"stored_at"`
	Expired  bool      `json:"expired"`
}

// StatusData is the payload of the status command.
type StatusData struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	Health    string `json:"health,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
	Offline   bool   `json:"offline"`

	Storage      string `json:"storage"`
	CacheEntries int    `json:"cache_entries"`
	CacheMax     int    `json:"cache_max"`
	QueryLog     int    `json:"query_log"`
	ErrorLog     int    `json:"error_log"`
	ConfigPath   string `json:"config_path,omitempty"`
}

// ConfigKeyData is the payload of config get / config set.
type ConfigKeyData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// IndexData is the payload of the index command.
type IndexData struct {
	Source   string `json:"source"`
	Category string `json:"category"`
	Bytes    int    `json:"bytes"`
	Message  string `json:"message"`
}

// VersionData is the payload of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// ClearedData reports what a clear command removed.
type ClearedData struct {
	Target  string `json:"target"`
	Removed int    `json:"removed,omitempty"`
}
