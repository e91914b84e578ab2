// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the colors and Lip Gloss styles of the TUI.
//
// Colors are lipgloss.AdaptiveColor values so light and dark terminals both
// read well. A Theme bundles the styles used by the login, chat and
// settings views; build it once with NewTheme and pass it down.
package styles
