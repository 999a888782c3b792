// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records query outcomes and derives usage analytics.
//
// Successful queries and errors are appended to two bounded logs in the
// durable store; when a log is full the oldest record is dropped. The same
// events feed Prometheus collectors on a private registry, which can be
// printed in text exposition format or served over HTTP.
//
// # Key Types
//
//   - Recorder: appends to the logs and computes snapshots
//   - Snapshot: totals, success rate, average time, popular intents
//   - Metrics: Prometheus collectors and exposition
//
// # Usage
//
//	rec := telemetry.NewRecorder(store, telemetry.RecorderOptions{})
//	rec.RecordSuccess(ctx, question, result, elapsed, false)
//	snap := rec.ComputeAnalytics(ctx)
//	fmt.Printf("%d queries, %d%% ok\n", snap.TotalQueries, snap.SuccessRate)
//
// # Privacy
//
// Everything stays local. Questions are stored in the configured store and
// never transmitted anywhere except the QA backend itself.
package telemetry
