// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apierr defines the closed set of failures the chat client surfaces
// to its users.
//
// Every failure that leaves the backend client, the stream ingestor or the
// chat runner is an *Error carrying one of three kinds:
//
//   - KindTransport: network failure or a non-success status other than 401/403
//   - KindAuthExpired: the backend rejected the bearer token (401 or 403)
//   - KindStreamAbort: the response stream broke after it had started
//
// Callers branch with KindOf, IsAuthExpired and IsStreamAbort, or with
// errors.Is against the sentinel values.
package apierr
