// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps a local SQLite cache of the conversation history
// list.
//
// The backend is the source of truth. After every successful listing the
// sidebar rows are written here, per account, so the sidebar can still show
// the last known history when the backend cannot be reached.
//
//	cache, err := storage.Open(path)
//	defer cache.Close()
//	err = cache.ReplaceConversations(ctx, "ana@example.com", list)
//	list, synced, err := cache.Conversations(ctx, "ana@example.com")
//
// # Storage Location
//
// The database lives in ~/.ragchat/cache.db unless configured otherwise.
package storage
