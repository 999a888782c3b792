// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/model"
)

// DefaultFrequencyDays is the window of the cache frequency report.
const DefaultFrequencyDays = 7

// DefaultQueryLimit is the page size of the learned-query endpoints.
const DefaultQueryLimit = 10

// =============================================================================
// RANKING
// =============================================================================

// FetchRanking returns the applications ranked by test coverage, sorted
// highest first.
func (c *Client) FetchRanking(ctx context.Context) ([]model.RankingEntry, error) {
	data, err := c.do(ctx, "ranking", http.MethodGet, c.assistantURL("/ranking"), nil)
	if err != nil {
		return nil, err
	}
	entries, err := model.DecodeRanking(data)
	if err != nil {
		return nil, &Error{Op: "ranking", Kind: KindMalformed, UserMessage: "malformed response", Err: err}
	}
	model.SortByCoverage(entries)
	return entries, nil
}

// =============================================================================
// SERVER CACHE MONITORING
// =============================================================================

// FetchCacheStats returns the backend's answer cache statistics.
func (c *Client) FetchCacheStats(ctx context.Context) (*model.CacheStats, error) {
	var stats model.CacheStats
	if err := c.doJSON(ctx, "cache stats", http.MethodGet, c.rootURL("/api/cache/stats"), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchCacheFrequency returns how often each question was asked over the
// last days. days <= 0 selects DefaultFrequencyDays.
func (c *Client) FetchCacheFrequency(ctx context.Context, days int) (model.FrequencyStats, error) {
	if days <= 0 {
		days = DefaultFrequencyDays
	}
	var freq model.FrequencyStats
	u := c.rootURL("/api/cache/frequency/" + strconv.Itoa(days))
	if err := c.doJSON(ctx, "cache frequency", http.MethodGet, u, nil, &freq); err != nil {
		return nil, err
	}
	return freq, nil
}

// FetchCacheContents lists the answers cached on the backend.
func (c *Client) FetchCacheContents(ctx context.Context) ([]model.CacheContentEntry, error) {
	var entries []model.CacheContentEntry
	if err := c.doJSON(ctx, "cache contents", http.MethodGet, c.rootURL("/api/cache/contents"), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearServerCache empties the backend's answer cache. The local response
// cache is not touched.
func (c *Client) ClearServerCache(ctx context.Context) error {
	_, err := c.do(ctx, "cache clear", http.MethodPost, c.rootURL("/api/cache/clear"), nil)
	if err == nil {
		c.logger.Info("server cache cleared")
	}
	return err
}

// =============================================================================
// LEARNING
// =============================================================================

// FetchLearningStats returns what the backend has learned from questions.
func (c *Client) FetchLearningStats(ctx context.Context) (*model.LearningStats, error) {
	var stats model.LearningStats
	if err := c.doJSON(ctx, "learning stats", http.MethodGet, c.rootURL("/api/learning/stats"), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchPopularQueries returns the most asked questions.
func (c *Client) FetchPopularQueries(ctx context.Context, limit int) ([]model.LearnedQuery, error) {
	return c.fetchQueries(ctx, "popular queries", "/api/learning/queries/popular", limit)
}

// FetchRecentQueries returns the most recently asked questions.
func (c *Client) FetchRecentQueries(ctx context.Context, limit int) ([]model.LearnedQuery, error) {
	return c.fetchQueries(ctx, "recent queries", "/api/learning/queries/recent", limit)
}

// FetchQueriesByIntent returns learned questions answered with intent.
func (c *Client) FetchQueriesByIntent(ctx context.Context, intent model.Intent, limit int) ([]model.LearnedQuery, error) {
	parsed, err := model.ParseIntent(string(intent))
	if err != nil {
		return nil, err
	}
	path := "/api/learning/queries/intent/" + url.PathEscape(string(parsed))
	return c.fetchQueries(ctx, "queries by intent", path, limit)
}

// FetchAllQueries returns every learned question.
func (c *Client) FetchAllQueries(ctx context.Context) ([]model.LearnedQuery, error) {
	var out []model.LearnedQuery
	if err := c.doJSON(ctx, "all queries", http.MethodGet, c.rootURL("/api/learning/queries/all"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetchQueries(ctx context.Context, op, path string, limit int) ([]model.LearnedQuery, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var out []model.LearnedQuery
	if err := c.doJSON(ctx, op, http.MethodGet, c.rootURL(path)+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthStatus is the backend's actuator health report.
type HealthStatus struct {
	Status     string         `json:"status"`
	Components map[string]any `json:"components,omitempty"`
}

// Up reports whether the backend declared itself healthy.
func (h *HealthStatus) Up() bool {
	return strings.EqualFold(h.Status, "UP")
}

// Health queries the actuator health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var h HealthStatus
	if err := c.doJSON(ctx, "health", http.MethodGet, c.rootURL("/actuator/health"), nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// CheckServerReachable probes the backend. The lightweight ranking-test
// endpoint is tried first; when it is missing or unreachable the actuator
// health endpoint decides.
func (c *Client) CheckServerReachable(ctx context.Context) error {
	_, err := c.do(ctx, "probe", http.MethodGet, c.assistantURL("/ranking-test"), nil)
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	if kind != KindNotFound && kind != KindUnavailable {
		return err
	}

	c.logger.Debug("ranking-test probe failed, trying actuator health", zap.Error(err))
	h, herr := c.Health(ctx)
	if herr != nil {
		return herr
	}
	if !h.Up() {
		return &Error{Op: "probe", Kind: KindUnavailable, UserMessage: "server unavailable",
			Err: fmt.Errorf("health status %q", h.Status)}
	}
	return nil
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

// IndexRequest adds a document to the backend knowledge base.
type IndexRequest struct {
	Content  string `json:"content"`
	Category string `json:"category"`
	Source   string `json:"source"`
}

// IndexDocument submits a document for indexing and returns the backend's
// plain-text acknowledgement.
func (c *Client) IndexDocument(ctx context.Context, doc IndexRequest) (string, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return "", ErrEmptyDocument
	}
	data, err := c.do(ctx, "index", http.MethodPost, c.assistantURL("/admin/index"), doc)
	if err != nil {
		return "", err
	}
	c.logger.Info("document indexed", zap.String("category", doc.Category), zap.String("source", doc.Source))
	return strings.TrimSpace(string(data)), nil
}
