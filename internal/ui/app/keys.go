// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the bindings that work in every view.
type KeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Chat       key.Binding
	Ranking    key.Binding
	Monitoring key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default global bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous view"),
		),
		Chat: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "chat"),
		),
		Ranking: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "ranking"),
		),
		Monitoring: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("f3", "monitoring"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns the global bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Quit}
}
