// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view of the TUI.
//
// The view owns the transcript, the conversation sidebar and the input box.
// Submissions run on a chatflow.Runner in the background; its events come
// back as Bubble Tea messages through a channel listener, and each bot
// answer is revealed by a reveal.Revealer driven by tea.Tick frames.
package chat
