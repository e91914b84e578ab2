// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatflow runs one chat submission from request to settled answer.
//
// A Runner sends the user's message through the streaming or the
// single-shot endpoint, reports the growing answer and the conversation id
// to a Sink, and settles the bot message exactly once. Expired credentials
// log the session out; other failures settle the bot message with a
// human-readable failure notice in place of any partial answer.
//
// Runners hold no view state. The TUI adapts Sink to Bubble Tea messages and
// the line REPL adapts it to a channel.
package chatflow
