// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/sse"
)

// DefaultFailureNotice replaces the bot text when a request fails.
const DefaultFailureNotice = "Sorry, something went wrong while getting a response. Please try again."

// ChatAPI is the part of the backend client a Runner needs.
type ChatAPI interface {
	StreamMessage(ctx context.Context, message string, conversationID int64, h sse.Handler) (string, error)
	SendMessage(ctx context.Context, message string, conversationID int64) (backend.Reply, error)
}

// Sink receives the progress of one submission. Calls come from the
// goroutine running Run.
type Sink interface {
	// Text reports the bot message's latest full text.
	Text(messageID, text string)
	// ConversationID reports a server-assigned conversation id.
	ConversationID(id int64)
	// Done settles the bot message. err is nil on success; text is the final
	// bot text, empty when the session expired.
	Done(messageID, text string, err error)
}

// Request describes one submission.
type Request struct {
	// MessageID is the id of the bot placeholder the answer goes into.
	MessageID      string
	Text           string
	ConversationID int64
}

// Runner executes submissions.
type Runner struct {
	api       ChatAPI
	session   *session.Session
	streaming func() bool
	notice    string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithFailureNotice overrides DefaultFailureNotice.
func WithFailureNotice(s string) Option {
	return func(r *Runner) {
		if s != "" {
			r.notice = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNow overrides the clock used for the token expiry check.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a Runner. streaming is consulted on every submission so
// a settings toggle applies to the next message.
func NewRunner(api ChatAPI, sess *session.Session, streaming func() bool, opts ...Option) *Runner {
	if streaming == nil {
		streaming = func() bool { return true }
	}
	r := &Runner{
		api:       api,
		session:   sess,
		streaming: streaming,
		notice:    DefaultFailureNotice,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FailureNotice returns the text that replaces a failed answer.
func (r *Runner) FailureNotice() string {
	return r.notice
}

// Run performs req and reports to sink. It blocks until the submission
// settles; Done is called exactly once unless ctx is cancelled, in which
// case nothing more is reported after cancellation is observed.
func (r *Runner) Run(ctx context.Context, req Request, sink Sink) {
	if r.session != nil && r.session.Expired(r.now()) {
		r.settle(ctx, req, sink, "", apierr.ErrAuthExpired)
		return
	}

	var (
		text string
		err  error
	)
	if r.streaming() {
		text, err = r.api.StreamMessage(ctx, req.Text, req.ConversationID, sse.Handler{
			OnFragment: func(acc string) {
				if ctx.Err() == nil {
					sink.Text(req.MessageID, acc)
				}
			},
			OnConversationID: func(id int64) {
				if ctx.Err() == nil {
					sink.ConversationID(id)
				}
			},
		})
	} else {
		var reply backend.Reply
		reply, err = r.api.SendMessage(ctx, req.Text, req.ConversationID)
		if err == nil {
			text = reply.Text
			if ctx.Err() == nil {
				if reply.ConversationID != 0 && reply.ConversationID != req.ConversationID {
					sink.ConversationID(reply.ConversationID)
				}
				sink.Text(req.MessageID, text)
			}
		}
	}
	r.settle(ctx, req, sink, text, err)
}

func (r *Runner) settle(ctx context.Context, req Request, sink Sink, text string, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		r.logger.Debug("chat submission cancelled", "message_id", req.MessageID)
		return
	}
	switch {
	case err == nil:
		sink.Done(req.MessageID, text, nil)
	case apierr.IsAuthExpired(err):
		r.logger.Info("session expired, logging out")
		if r.session != nil {
			r.session.Logout()
		}
		sink.Done(req.MessageID, "", err)
	default:
		r.logger.Warn("chat submission failed", "kind", apierr.KindOf(err).String(), "error", err,
			"partial_len", len(apierr.PartialOf(err)))
		sink.Done(req.MessageID, r.notice, err)
	}
}

// =============================================================================
// CHANNEL SINK
// =============================================================================

// EventKind tags an Event.
type EventKind int

const (
	EventText EventKind = iota
	EventConversationID
	EventDone
)

// Event is one Sink call captured by ChanSink.
type Event struct {
	Kind           EventKind
	MessageID      string
	Text           string
	ConversationID int64
	Err            error
}

// ChanSink forwards Sink calls to a channel. Sends give up once ctx is
// done, so a consumer that stops reading never blocks the runner.
type ChanSink struct {
	ctx context.Context
	ch  chan<- Event
}

// NewChanSink returns a sink writing to ch until ctx is done.
func NewChanSink(ctx context.Context, ch chan<- Event) *ChanSink {
	return &ChanSink{ctx: ctx, ch: ch}
}

func (s *ChanSink) send(ev Event) {
	select {
	case s.ch <- ev:
	case <-s.ctx.Done():
	}
}

func (s *ChanSink) Text(id, text string) {
	s.send(Event{Kind: EventText, MessageID: id, Text: text})
}

func (s *ChanSink) ConversationID(id int64) {
	s.send(Event{Kind: EventConversationID, ConversationID: id})
}

func (s *ChanSink) Done(id, text string, err error) {
	s.send(Event{Kind: EventDone, MessageID: id, Text: text, Err: err})
}
