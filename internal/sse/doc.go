// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse consumes the backend's chat answer stream.
//
// The backend answers POST /api/v1/chat/stream with newline-delimited
// "data: <payload>" lines. Each payload is a JSON object that may carry a
// conversation_id (allocated by the server for a new conversation) and a
// content fragment. The literal payload [DONE] terminates the stream.
//
// Ingest turns such a body into two callbacks: the accumulated answer text
// after every fragment, and the server-assigned conversation id at most once.
//
//	final, err := sse.Ingest(ctx, resp.Body, convID, sse.Handler{
//	    OnFragment:       func(text string) { ... },
//	    OnConversationID: func(id int64) { ... },
//	})
package sse
