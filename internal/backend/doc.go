// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the RAG chatbot backend.
//
// It covers authentication, chat (streaming and single-shot), the
// conversation history and the URL configurations that feed the knowledge
// base. Every request carries the bearer token of the explicit session the
// client was built with.
//
// # Errors
//
// Every failure is an *apierr.Error. A 401 or 403 becomes KindAuthExpired,
// any other non-success status or network failure becomes KindTransport, and
// a stream that breaks after it started becomes KindStreamAbort.
//
// # Usage
//
//	client := backend.NewClient("http://localhost:8000", sess)
//	answer, err := client.StreamMessage(ctx, "What is RAG?", 0, sse.Handler{
//	    OnFragment: func(text string) { ... },
//	})
package backend
