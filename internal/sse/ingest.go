// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
)

// DefaultMaxLineSize bounds a single line. Longer lines are dropped.
const DefaultMaxLineSize = 1 << 20

// Handler receives ingestion progress. Both callbacks are optional and are
// called from the goroutine running Ingest.
type Handler struct {
	// OnFragment receives the full accumulated text after each fragment.
	OnFragment func(accumulated string)

	// OnConversationID receives the server-assigned conversation id.
	OnConversationID func(id int64)
}

// Option configures Ingest.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	maxLineSize int
}

// WithLogger sets the logger used for skipped frames.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineSize = n
		}
	}
}

// Ingest reads body until [DONE], end of data, a read failure or ctx
// cancellation, and returns the accumulated text.
//
// knownConversationID is the id the caller already holds, 0 if none. The
// conversation id callback fires at most once, and only for an id that
// differs from the known one.
//
// A read failure returns an *apierr.Error of kind KindStreamAbort whose
// Partial field holds the text accumulated so far. Cancellation returns
// ctx.Err() and no callback runs after it is observed. body is always closed.
func Ingest(ctx context.Context, body io.ReadCloser, knownConversationID int64, h Handler, opts ...Option) (string, error) {
	o := options{logger: slog.Default(), maxLineSize: DefaultMaxLineSize}
	for _, opt := range opts {
		opt(&o)
	}

	var closeOnce sync.Once
	closeBody := func() { closeOnce.Do(func() { _ = body.Close() }) }
	defer closeBody()
	// Closing the body is the only way to unblock a pending Read.
	stop := context.AfterFunc(ctx, closeBody)
	defer stop()

	in := &ingestor{
		ctx:     ctx,
		handler: h,
		known:   knownConversationID,
		logger:  o.logger,
	}

	// The decoder keeps incomplete multi-byte sequences across reads.
	r := bufio.NewReader(transform.NewReader(body, unicode.UTF8.NewDecoder()))
	for {
		line, tooLong, err := readLine(r, o.maxLineSize)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return in.acc.String(), ctxErr
		}
		if tooLong {
			o.logger.Warn("dropping oversized stream line", "limit", o.maxLineSize)
		} else if in.line(line) {
			return in.acc.String(), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return in.acc.String(), nil
			}
			return in.acc.String(), apierr.StreamAbort("read stream", in.acc.String(), err)
		}
	}
}

type ingestor struct {
	ctx      context.Context
	handler  Handler
	known    int64
	notified bool
	acc      strings.Builder
	logger   *slog.Logger
}

// line handles one raw line and reports whether the stream is finished.
func (in *ingestor) line(raw string) bool {
	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")

	f, isData, err := ParseLine(raw)
	if !isData {
		return false
	}
	if err != nil {
		in.logger.Warn("skipping stream frame", "error", err)
		return false
	}
	if f.Done {
		return true
	}

	if f.ConversationID != 0 && !in.notified && f.ConversationID != in.known {
		in.notified = true
		if in.handler.OnConversationID != nil && in.ctx.Err() == nil {
			in.handler.OnConversationID(f.ConversationID)
		}
	}
	if f.Content != "" {
		in.acc.WriteString(f.Content)
		if in.handler.OnFragment != nil && in.ctx.Err() == nil {
			in.handler.OnFragment(in.acc.String())
		}
	}
	return false
}

// readLine returns the next line including its terminator. Lines longer than
// max are consumed and reported with tooLong set.
func readLine(r *bufio.Reader, max int) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > max {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), tooLong, err
	}
}
