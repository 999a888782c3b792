// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the bubbletea chat view.
//
// The conversation itself lives in a session.Chat; this package only lays
// it out and turns key presses into session calls. Questions and probes
// run as tea.Cmds and come back as AnswerMsg and ProbeMsg, so the session
// is only mutated on the event loop.
//
// # Key Bindings
//
//	enter     send the question
//	alt+1-9   use a suggestion of the newest message
//	ctrl+r    retry the last question
//	ctrl+l    clear the conversation
//	ctrl+s    save the transcript
//	ctrl+t    show or hide generated SQL
//	pgup/pgdn scroll
package chat
