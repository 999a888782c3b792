// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/storage"
)

// =============================================================================
// LOG RECORDS
// =============================================================================

// Store keys of the two logs.
const (
	QueryLogKey = "qa_query_log"
	ErrorLogKey = "qa_error_log"

	DefaultQueryLogSize = 50
	DefaultErrorLogSize = 100
)

// QueryLogRecord is one successful query. Only successes are logged here,
// so there is no success flag.
type QueryLogRecord struct {
	Question      string        `json:"question"`
	ExecutionTime time.Duration `json:"executionTime"`
	ResultCount   int           `json:"resultCount"`
	Intent        string        `json:"intent"`
	GeneratedSQL  string        `json:"generatedSQL,omitempty"`
	FromCache     bool          `json:"fromCache"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ErrorLogRecord is one failed query.
type ErrorLogRecord struct {
	Question  string    `json:"question"`
	Error     string    `json:"error"`
	Kind      string    `json:"kind,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// KindLabeler is implemented by errors that carry a classification, used as
// the "kind" label on the error counter.
type KindLabeler interface {
	KindLabel() string
}

// =============================================================================
// RECORDER
// =============================================================================

// RecorderOptions configures a Recorder. Zero values select the defaults.
type RecorderOptions struct {
	QueryLogSize int
	ErrorLogSize int
	Metrics      *Metrics
	Now          func() time.Time
	Logger       *zap.Logger
}

// Recorder appends query outcomes to bounded logs in the store.
type Recorder struct {
	store        storage.Store
	queryLogSize int
	errorLogSize int
	metrics      *Metrics
	now          func() time.Time
	logger       *zap.Logger

	mu sync.Mutex
}

// NewRecorder creates a recorder backed by store.
func NewRecorder(store storage.Store, opts RecorderOptions) *Recorder {
	r := &Recorder{
		store:        store,
		queryLogSize: opts.QueryLogSize,
		errorLogSize: opts.ErrorLogSize,
		metrics:      opts.Metrics,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if r.queryLogSize <= 0 {
		r.queryLogSize = DefaultQueryLogSize
	}
	if r.errorLogSize <= 0 {
		r.errorLogSize = DefaultErrorLogSize
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Metrics returns the attached collectors, which may be nil.
func (r *Recorder) Metrics() *Metrics { return r.metrics }

// RecordSuccess appends a successful query. Cache hits are recorded with
// fromCache set and zero execution time.
func (r *Recorder) RecordSuccess(ctx context.Context, question string, result *model.QueryResult, executionTime time.Duration, fromCache bool) {
	rec := QueryLogRecord{
		Question:      question,
		ExecutionTime: executionTime,
		FromCache:     fromCache,
		Timestamp:     r.now(),
	}
	if result != nil {
		rec.ResultCount = result.ResultCount()
		rec.Intent = string(result.Intent)
		rec.GeneratedSQL = result.GeneratedSQL
	}

	r.mu.Lock()
	log := loadLog[QueryLogRecord](ctx, r, QueryLogKey)
	log = appendBounded(log, rec, r.queryLogSize)
	r.save(ctx, QueryLogKey, log)
	r.mu.Unlock()

	r.metrics.observeSuccess(rec.Intent, executionTime, fromCache)
}

// RecordError appends a failed query.
func (r *Recorder) RecordError(ctx context.Context, question string, err error) {
	if err == nil {
		return
	}
	rec := ErrorLogRecord{
		Question:  question,
		Error:     err.Error(),
		Timestamp: r.now(),
	}
	var kl KindLabeler
	if errors.As(err, &kl) {
		rec.Kind = kl.KindLabel()
	}

	r.mu.Lock()
	log := loadLog[ErrorLogRecord](ctx, r, ErrorLogKey)
	log = appendBounded(log, rec, r.errorLogSize)
	r.save(ctx, ErrorLogKey, log)
	r.mu.Unlock()

	r.metrics.observeError(rec.Kind)
}

// QueryLog returns the successful-query log, oldest first.
func (r *Recorder) QueryLog(ctx context.Context) []QueryLogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return loadLog[QueryLogRecord](ctx, r, QueryLogKey)
}

// ErrorLog returns the error log, oldest first.
func (r *Recorder) ErrorLog(ctx context.Context) []ErrorLogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return loadLog[ErrorLogRecord](ctx, r, ErrorLogKey)
}

// Clear deletes both logs.
func (r *Recorder) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Remove(ctx, QueryLogKey); err != nil {
		return fmt.Errorf("clear query log: %w", err)
	}
	if err := r.store.Remove(ctx, ErrorLogKey); err != nil {
		return fmt.Errorf("clear error log: %w", err)
	}
	return nil
}

// appendBounded appends rec and drops the oldest records beyond limit.
func appendBounded[T any](log []T, rec T, limit int) []T {
	log = append(log, rec)
	if over := len(log) - limit; over > 0 {
		log = log[over:]
	}
	return log
}

// loadLog decodes a log. Missing or corrupt logs read as empty.
func loadLog[T any](ctx context.Context, r *Recorder, key string) []T {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Debug("log read failed, treating as empty", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var log []T
	if err := json.Unmarshal(raw, &log); err != nil {
		r.logger.Debug("log data corrupt, treating as empty", zap.String("key", key), zap.Error(err))
		return nil
	}
	return log
}

// save writes a log. Failures are logged and never surface to the caller:
// analytics must not break a query.
func (r *Recorder) save(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("log encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.store.Set(ctx, key, raw); err != nil {
		r.logger.Warn("log write failed", zap.String("key", key), zap.Error(err))
	}
}
