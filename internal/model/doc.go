// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures exchanged with the QA Assistant
// backend and shown in the chat.
//
// # Key Types
//
//   - ChatMessage: one entry in the chat transcript
//   - QueryResult: the backend's answer to a question, validated on decode
//   - Intent: SQL, RAG or WELCOME
//   - RankingEntry: an application and its test coverage
//   - CacheStats, LearningStats, LearnedQuery: monitoring payloads
//
// # Usage
//
//	var res model.QueryResult
//	if err := json.Unmarshal(body, &res); err != nil {
//	    return err
//	}
//	if err := res.Validate(); err != nil {
//	    return err // unknown or missing intent
//	}
package model
