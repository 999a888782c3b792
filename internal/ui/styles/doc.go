// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the qa-assistant TUI
and the styled parts of the CLI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - assistant messages, active tab, RAG answers
  - Cyan - brand, user highlights, suggestions
  - Emerald - success, server online, coverage of 80% and above
  - Amber - system messages, coverage of 60% and above
  - Rose - errors, server offline, coverage below 60%
  - Blue - SQL answers

StatusIndicators pair every coloured state with ASCII text so it stays
readable without colour.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme) // auto, dark, light, mono
	fmt.Println(theme.IntentBadge(res.Intent))

Mono forces the ASCII colour profile, which also suits log capture.
*/
package styles
