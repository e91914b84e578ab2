// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a client-visible failure.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors that are not *Error.
	KindUnknown Kind = iota
	// KindTransport covers network failures and non-auth HTTP errors.
	KindTransport
	// KindAuthExpired means the session credentials were rejected.
	KindAuthExpired
	// KindStreamAbort means the response stream failed mid-read.
	KindStreamAbort
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthExpired:
		return "auth_expired"
	case KindStreamAbort:
		return "stream_abort"
	default:
		return "unknown"
	}
}

// Sentinel errors for use with errors.Is.
var (
	ErrTransport   = &Error{Kind: KindTransport}
	ErrAuthExpired = &Error{Kind: KindAuthExpired}
	ErrStreamAbort = &Error{Kind: KindStreamAbort}
)

// Error is the single error type surfaced by the backend client and the
// stream ingestor.
type Error struct {
	Kind    Kind
	Op      string // e.g. "list conversations"
	Status  int    // HTTP status, 0 when no response was received
	Message string // server supplied or local description

	// Partial holds the text accumulated before a stream aborted.
	Partial string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindAuthExpired:
		b.WriteString("session expired")
	case KindStreamAbort:
		b.WriteString("stream aborted")
	default:
		b.WriteString("request failed")
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so the sentinels match any *Error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Status == 0 && t.Err == nil
}

// Transport wraps a network-level failure.
func Transport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// StreamAbort wraps a mid-stream read failure, keeping what was received.
func StreamAbort(op, partial string, err error) *Error {
	return &Error{Kind: KindStreamAbort, Op: op, Partial: partial, Err: err}
}

// FromStatus maps a non-success HTTP response to an *Error. 401 and 403 are
// AuthExpired; every other status is a transport error. body is the (possibly
// truncated) response body and may be nil.
func FromStatus(op string, status int, body []byte) *Error {
	e := &Error{Kind: KindTransport, Op: op, Status: status, Message: serverMessage(body)}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		e.Kind = KindAuthExpired
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// serverMessage pulls a human readable message out of a JSON error body.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
	}
	return payload.Error
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsAuthExpired reports whether err requires a forced logout.
func IsAuthExpired(err error) bool {
	return KindOf(err) == KindAuthExpired
}

// IsStreamAbort reports whether err is a mid-stream failure.
func IsStreamAbort(err error) bool {
	return KindOf(err) == KindStreamAbort
}

// PartialOf returns the partial stream text carried by err, if any.
func PartialOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Partial
	}
	return ""
}
