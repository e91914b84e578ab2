// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/sse"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeAPI struct {
	fragments []string
	convID    int64
	streamErr error
	reply     backend.Reply
	sendErr   error

	streamCalls int
	sendCalls   int
}

func (f *fakeAPI) StreamMessage(ctx context.Context, msg string, known int64, h sse.Handler) (string, error) {
	f.streamCalls++
	acc := ""
	if f.convID != 0 && f.convID != known {
		h.OnConversationID(f.convID)
	}
	for _, frag := range f.fragments {
		acc += frag
		h.OnFragment(acc)
	}
	if f.streamErr != nil {
		return acc, f.streamErr
	}
	return acc, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, msg string, known int64) (backend.Reply, error) {
	f.sendCalls++
	return f.reply, f.sendErr
}

// recordSink collects events synchronously.
type recordSink struct {
	texts []string
	ids   []int64
	done  []Event
}

func (s *recordSink) Text(id, text string)    { s.texts = append(s.texts, text) }
func (s *recordSink) ConversationID(id int64) { s.ids = append(s.ids, id) }
func (s *recordSink) Done(id, text string, err error) {
	s.done = append(s.done, Event{Kind: EventDone, MessageID: id, Text: text, Err: err})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func streaming(on bool) func() bool { return func() bool { return on } }

// =============================================================================
// RUN
// =============================================================================

func TestRun_StreamingSuccess(t *testing.T) {
	api := &fakeAPI{fragments: []string{"Hel", "lo"}, convID: 42}
	sess := session.New("tok", "", session.User{})
	r := NewRunner(api, sess, streaming(true), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(context.Background(), Request{MessageID: "b1", Text: "hi"}, &sink)

	assert.Equal(t, []string{"Hel", "Hello"}, sink.texts)
	assert.Equal(t, []int64{42}, sink.ids)
	require.Len(t, sink.done, 1)
	assert.Equal(t, "Hello", sink.done[0].Text)
	assert.NoError(t, sink.done[0].Err)
	assert.Equal(t, 1, api.streamCalls)
	assert.Equal(t, 0, api.sendCalls)
}

func TestRun_NonStreaming(t *testing.T) {
	api := &fakeAPI{reply: backend.Reply{Text: "Full answer", ConversationID: 9}}
	r := NewRunner(api, nil, streaming(false), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(context.Background(), Request{MessageID: "b1", Text: "hi"}, &sink)

	assert.Equal(t, []string{"Full answer"}, sink.texts)
	assert.Equal(t, []int64{9}, sink.ids)
	require.Len(t, sink.done, 1)
	assert.Equal(t, "Full answer", sink.done[0].Text)
	assert.Equal(t, 1, api.sendCalls)
}

func TestRun_NonStreamingKnownConversation(t *testing.T) {
	api := &fakeAPI{reply: backend.Reply{Text: "x", ConversationID: 9}}
	r := NewRunner(api, nil, streaming(false), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(context.Background(), Request{MessageID: "b1", Text: "hi", ConversationID: 9}, &sink)
	assert.Empty(t, sink.ids)
}

func TestRun_StreamAbortReplacesPartial(t *testing.T) {
	api := &fakeAPI{
		fragments: []string{"Par"},
		streamErr: apierr.StreamAbort("read stream", "Par", io.ErrUnexpectedEOF),
	}
	r := NewRunner(api, nil, streaming(true), WithFailureNotice("failed!"), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(context.Background(), Request{MessageID: "b1"}, &sink)

	require.Len(t, sink.done, 1)
	assert.Equal(t, "failed!", sink.done[0].Text)
	assert.True(t, apierr.IsStreamAbort(sink.done[0].Err))
}

func TestRun_TransportError(t *testing.T) {
	api := &fakeAPI{sendErr: apierr.FromStatus("send message", http.StatusBadGateway, nil)}
	r := NewRunner(api, nil, streaming(false), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(context.Background(), Request{MessageID: "b1"}, &sink)

	require.Len(t, sink.done, 1)
	assert.Equal(t, DefaultFailureNotice, sink.done[0].Text)
	assert.Empty(t, sink.texts)
}

func TestRun_AuthExpiredLogsOut(t *testing.T) {
	api := &fakeAPI{streamErr: apierr.FromStatus("stream message", http.StatusUnauthorized, nil)}
	sess := session.New("tok", "", session.User{})
	loggedOut := false
	sess.OnLogout(func() { loggedOut = true })
	r := NewRunner(api, sess, streaming(true), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(context.Background(), Request{MessageID: "b1"}, &sink)

	assert.True(t, loggedOut)
	assert.False(t, sess.Authenticated())
	require.Len(t, sink.done, 1)
	assert.Empty(t, sink.done[0].Text)
	assert.True(t, apierr.IsAuthExpired(sink.done[0].Err))
}

func TestRun_ExpiredTokenSkipsNetwork(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	api := &fakeAPI{}
	sess := session.New(tok, "", session.User{})
	r := NewRunner(api, sess, streaming(true), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(context.Background(), Request{MessageID: "b1"}, &sink)

	assert.Equal(t, 0, api.streamCalls)
	require.Len(t, sink.done, 1)
	assert.True(t, errors.Is(sink.done[0].Err, apierr.ErrAuthExpired))
	assert.False(t, sess.Authenticated())
}

func TestRun_CancelledReportsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeAPI{fragments: []string{"a"}, streamErr: context.Canceled}
	r := NewRunner(api, nil, streaming(true), WithLogger(quietLogger()))

	var sink recordSink
	r.Run(ctx, Request{MessageID: "b1"}, &sink)

	assert.Empty(t, sink.texts)
	assert.Empty(t, sink.done)
}

func TestRun_StreamingToggleReadEachTime(t *testing.T) {
	api := &fakeAPI{fragments: []string{"s"}, reply: backend.Reply{Text: "n"}}
	on := true
	r := NewRunner(api, nil, func() bool { return on }, WithLogger(quietLogger()))

	r.Run(context.Background(), Request{MessageID: "1"}, &recordSink{})
	on = false
	r.Run(context.Background(), Request{MessageID: "2"}, &recordSink{})

	assert.Equal(t, 1, api.streamCalls)
	assert.Equal(t, 1, api.sendCalls)
}

func TestChanSink(t *testing.T) {
	api := &fakeAPI{fragments: []string{"a", "b"}}
	r := NewRunner(api, nil, streaming(true), WithLogger(quietLogger()))

	ch := make(chan Event, 8)
	r.Run(context.Background(), Request{MessageID: "m"}, NewChanSink(context.Background(), ch))
	close(ch)

	var kinds []EventKind
	for ev := range ch {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EventText, EventText, EventDone}, kinds)
}

func TestChanSink_GivesUpAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan Event)
	sink := NewChanSink(ctx, ch)

	done := make(chan struct{})
	go func() {
		sink.Text("m", "nobody reads this")
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send blocked after cancellation")
	}
}
