// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state of one chat with the QA assistant,
// independent of how it is displayed.
//
// # Key Types
//
//   - Chat: the append-only message list, in-flight guard and server
//     availability flag
//   - Catalog: localized texts (Spanish and English)
//
// # Usage
//
// One-shot, blocking:
//
//	chat := session.New(client, session.Options{Locale: "es"})
//	chat.Start(ctx)
//	chat.Send(ctx, "Listar todas las actividades")
//	for _, m := range chat.Messages() { ... }
//
// Event-loop driven (the TUI) splits Send into Begin and Complete so the
// network call can run off the loop:
//
//	q, ok := chat.Begin(input)
//	// ... later, with the result of client.AskDetailed(ctx, q)
//	chat.Complete(ans, err)
//
// # Suggestions
//
// The Retry suggestion re-sends the last user question and Check connection
// re-probes the backend. Any other suggestion is sent as a question.
package session
