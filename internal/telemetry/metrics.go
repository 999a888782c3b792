// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// =============================================================================
// PROMETHEUS COLLECTORS
// =============================================================================

// Source label values.
const (
	SourceNetwork = "network"
	SourceCache   = "cache"
)

// Metrics holds the Prometheus collectors. They live on a private registry
// so tests and multiple clients in one process do not collide.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	queries      *prometheus.CounterVec
	errors       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheEntries prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_assistant_queries_total",
				Help: "Successful questions, by where the answer came from",
			},
			[]string{"source"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_assistant_query_errors_total",
				Help: "Failed questions, by error kind",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qa_assistant_query_duration_seconds",
				Help:    "Backend round-trip time of answered questions",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"intent"},
		),
		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "qa_assistant_cache_entries",
				Help: "Entries in the local response cache",
			},
		),
	}

	m.registry.MustRegister(m.queries, m.errors, m.duration, m.cacheEntries)
	return m
}

func (m *Metrics) observeSuccess(intent string, d time.Duration, fromCache bool) {
	if m == nil {
		return
	}
	if fromCache {
		m.queries.WithLabelValues(SourceCache).Inc()
		return
	}
	m.queries.WithLabelValues(SourceNetwork).Inc()
	if intent == "" {
		intent = "unknown"
	}
	m.duration.WithLabelValues(intent).Observe(d.Seconds())
}

func (m *Metrics) observeError(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "other"
	}
	m.errors.WithLabelValues(kind).Inc()
}

// SetCacheEntries records the current size of the response cache.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes every metric in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// CounterValue is one labelled counter sample.
type CounterValue struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Counters returns every counter and gauge sample, sorted by name.
// Histograms are omitted; use WriteText for those.
func (m *Metrics) Counters() ([]CounterValue, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	var out []CounterValue
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var v float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				v = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				v = metric.GetGauge().GetValue()
			default:
				continue
			}
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			out = append(out, CounterValue{Name: mf.GetName(), Labels: labels, Value: v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
