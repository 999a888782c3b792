// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/qa-assistant/internal/cache"
	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/model"
	"github.com/jeranaias/qa-assistant/internal/telemetry"
	"github.com/jeranaias/qa-assistant/internal/util"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// =============================================================================
// CLIENT
// =============================================================================

// Options carries the collaborators of a Client. Nil fields disable the
// corresponding feature: no cache means every question hits the network,
// no recorder means nothing is logged.
type Options struct {
	HTTPClient *http.Client
	Cache      *cache.ResponseCache
	Recorder   *telemetry.Recorder
	Logger     *zap.Logger
	Now        func() time.Time
}

// Client talks to the QA Assistant backend.
//
// Questions go through the local response cache first. Answers fetched from
// the network are validated, cached when successful and recorded.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := api.New(cfg.API, api.Options{Cache: c, Recorder: rec})
//	res, err := client.Ask(ctx, "¿Qué es Angular?")
type Client struct {
	cfg        config.APIConfig
	httpClient *http.Client
	cache      *cache.ResponseCache
	recorder   *telemetry.Recorder
	limiter    *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a client for the backend described by cfg.
func New(cfg config.APIConfig, opts Options) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	if cfg.AssistantPath == "" {
		cfg.AssistantPath = config.DefaultAssistantPath
	}

	c := &Client{
		cfg:        cfg,
		httpClient: opts.HTTPClient,
		cache:      opts.Cache,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return strings.TrimRight(c.cfg.BaseURL, "/") }

// Offline reports whether the client only answers from the local cache.
func (c *Client) Offline() bool { return c.cfg.Offline }

// Cache returns the response cache, which may be nil.
func (c *Client) Cache() *cache.ResponseCache { return c.cache }

// Recorder returns the recorder, which may be nil.
func (c *Client) Recorder() *telemetry.Recorder { return c.recorder }

func (c *Client) assistantURL(path string) string {
	return c.cfg.AssistantURL() + path
}

func (c *Client) rootURL(path string) string {
	return c.BaseURL() + path
}

// =============================================================================
// ASK
// =============================================================================

// Answer is a QueryResult plus where it came from.
type Answer struct {
	Result    *model.QueryResult
	FromCache bool
	Elapsed   time.Duration
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask answers a question, from the local cache when a live entry exists.
func (c *Client) Ask(ctx context.Context, question string) (*model.QueryResult, error) {
	ans, err := c.AskDetailed(ctx, question)
	if err != nil {
		return nil, err
	}
	return ans.Result, nil
}

// AskDetailed is Ask but also reports whether the answer was cached and how
// long the backend took.
func (c *Client) AskDetailed(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	if c.cache != nil {
		if res, ok := c.cache.Get(ctx, question); ok {
			c.logger.Debug("answer served from cache", zap.String("question", util.TruncateRunes(question, 80)))
			c.recordSuccess(ctx, question, res, 0, true)
			return &Answer{Result: res, FromCache: true}, nil
		}
	}

	start := c.now()
	var res model.QueryResult
	err := c.doJSON(ctx, "ask", http.MethodPost, c.assistantURL("/ask-enhanced"), askRequest{Question: question}, &res)
	if err == nil {
		if verr := res.Validate(); verr != nil {
			err = &Error{Op: "ask", Kind: KindMalformed, UserMessage: "malformed response", Err: verr}
		}
	}
	elapsed := c.now().Sub(start)
	if err != nil {
		c.logger.Warn("ask failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		c.recordError(ctx, question, err)
		return nil, err
	}

	if res.Success && c.cache != nil {
		if perr := c.cache.Put(ctx, question, &res); perr != nil {
			c.logger.Warn("cache write failed", zap.Error(perr))
		}
	}
	c.recordSuccess(ctx, question, &res, elapsed, false)

	c.logger.Info("question answered",
		zap.String("intent", string(res.Intent)),
		zap.Bool("success", res.Success),
		zap.Int("results", res.ResultCount()),
		zap.Duration("elapsed", elapsed))
	return &Answer{Result: &res, Elapsed: elapsed}, nil
}

func (c *Client) recordSuccess(ctx context.Context, q string, res *model.QueryResult, d time.Duration, fromCache bool) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordSuccess(ctx, q, res, d, fromCache)
	if m := c.recorder.Metrics(); m != nil && c.cache != nil {
		m.SetCacheEntries(c.cache.Len(ctx))
	}
}

func (c *Client) recordError(ctx context.Context, q string, err error) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordError(ctx, q, err)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request and returns the body of a 2xx response. Every
// failure is returned as *Error.
func (c *Client) do(ctx context.Context, op, method, url string, body any) ([]byte, error) {
	if c.cfg.Offline {
		return nil, &Error{Op: op, Kind: KindOffline, UserMessage: "offline mode, backend not contacted"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(ctx, op, err)
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindOther, UserMessage: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindOther, UserMessage: "failed to create request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/plain")

	c.logger.Debug("request", zap.String("method", method), zap.String("url", url))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, resp.StatusCode, util.TruncateRunes(strings.TrimSpace(string(data)), 200))
	}
	return data, nil
}

// doJSON performs a request and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, op, method, url string, body, out any) error {
	data, err := c.do(ctx, op, method, url, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, Kind: KindMalformed, UserMessage: "malformed response", Err: err}
	}
	return nil
}

// transportError classifies a failure that produced no HTTP status.
func transportError(ctx context.Context, op string, err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Error{Op: op, Kind: KindTimeout, UserMessage: "request timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Op: op, Kind: KindCanceled, UserMessage: "request cancelled", Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Op: op, Kind: KindTimeout, UserMessage: "request timed out", Err: err}
	default:
		return &Error{Op: op, Kind: KindUnavailable, UserMessage: "server unavailable", Err: err}
	}
}

// String describes the client for status output.
func (c *Client) String() string {
	mode := "online"
	if c.cfg.Offline {
		mode = "offline"
	}
	return fmt.Sprintf("%s (%s, timeout %s)", c.cfg.AssistantURL(), mode, c.cfg.Timeout())
}
