// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the QA Assistant backend.
//
// Ask consults the local response cache before the network, validates what
// the backend returns, caches successful answers and records every outcome
// for analytics. The remaining methods read the backend's ranking, cache and
// learning endpoints and are never cached.
//
// # Errors
//
// Every backend failure is an *Error with a Kind:
//
//   - KindUnavailable: no response at all (connection refused, DNS)
//   - KindNotFound: HTTP 404
//   - KindServer: HTTP 5xx
//   - KindTimeout: the configured timeout elapsed
//   - KindMalformed: the response could not be decoded or validated
//   - KindOffline: offline mode is on and the cache had no answer
//
// Use KindOf or errors.As to branch on it.
package api
