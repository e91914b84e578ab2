// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat views: chat
// messages and the transcript that orders them, conversation summaries for
// the history sidebar, and the URL configurations managed from settings.
package model
