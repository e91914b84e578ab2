// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/chatflow"
	"github.com/rln-tomas/chatbot-rag-front/internal/logging"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/reveal"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/sse"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
)

type fakeChat struct {
	fragments []string
	convID    int64
	err       error
	block     bool

	gotConv []int64
}

func (f *fakeChat) StreamMessage(ctx context.Context, message string, conversationID int64, h sse.Handler) (string, error) {
	f.gotConv = append(f.gotConv, conversationID)
	if f.convID != 0 {
		h.OnConversationID(f.convID)
	}
	acc := ""
	for _, frag := range f.fragments {
		acc += frag
		h.OnFragment(acc)
	}
	if f.block {
		<-ctx.Done()
		return acc, ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return acc, nil
}

func (f *fakeChat) SendMessage(ctx context.Context, message string, conversationID int64) (backend.Reply, error) {
	f.gotConv = append(f.gotConv, conversationID)
	if f.err != nil {
		return backend.Reply{}, f.err
	}
	return backend.Reply{Text: strings.Join(f.fragments, ""), ConversationID: f.convID}, nil
}

func newTestREPL(api chatflow.ChatAPI, streaming bool) (*repl, *bytes.Buffer) {
	var out bytes.Buffer
	stream := func() bool { return streaming }
	return &repl{
		runner:     chatflow.NewRunner(api, session.New("tok", "", session.User{}), stream, chatflow.WithLogger(logging.Discard())),
		transcript: model.NewTranscript(),
		out:        &out,
		theme:      styles.NewTheme(),
		frame:      time.Millisecond,
		options: []reveal.Option{
			reveal.WithInterval(time.Millisecond),
			reveal.WithRunLength(2, 3),
		},
		stream: stream,
	}, &out
}

func TestAsk_TypesOutStreamedAnswer(t *testing.T) {
	api := &fakeChat{fragments: []string{"Hello", ", ", "world"}, convID: 42}
	r, out := newTestREPL(api, true)

	require.NoError(t, r.ask(context.Background(), "  hi  "))
	assert.Contains(t, out.String(), "Hello, world")
	assert.Equal(t, int64(42), r.conversation)

	msgs := r.transcript.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "Hello, world", msgs[1].Text)

	// The follow-up continues the same conversation.
	require.NoError(t, r.ask(context.Background(), "more"))
	assert.Equal(t, []int64{0, 42}, api.gotConv)
}

func TestAsk_NonStreaming(t *testing.T) {
	api := &fakeChat{fragments: []string{"Whole answer"}, convID: 3}
	r, out := newTestREPL(api, false)

	require.NoError(t, r.ask(context.Background(), "hi"))
	assert.Contains(t, out.String(), "Whole answer")
	assert.Equal(t, int64(3), r.conversation)
}

func TestAsk_FailureShowsNotice(t *testing.T) {
	api := &fakeChat{fragments: []string{"Par"}, err: apierr.StreamAbort("stream", "Par", errors.New("reset"))}
	r, out := newTestREPL(api, true)

	require.NoError(t, r.ask(context.Background(), "hi"))
	assert.Contains(t, out.String(), chatflow.DefaultFailureNotice)
	last, ok := r.transcript.Last()
	require.True(t, ok)
	assert.Equal(t, chatflow.DefaultFailureNotice, last.Text)
}

func TestAsk_AuthExpiredEndsSession(t *testing.T) {
	api := &fakeChat{err: apierr.FromStatus("stream", 401, nil)}
	r, _ := newTestREPL(api, true)

	err := r.ask(context.Background(), "hi")
	assert.ErrorIs(t, err, errSessionEnded)
}

func TestAsk_CancelKeepsPartial(t *testing.T) {
	api := &fakeChat{fragments: []string{"Partial answer"}, block: true}
	r, out := newTestREPL(api, true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, r.ask(ctx, "hi"))
	assert.Contains(t, out.String(), "(stopped)")

	last, ok := r.transcript.Last()
	require.True(t, ok)
	assert.Equal(t, "Partial answer", last.Text)
}

func TestAsk_RejectsBlank(t *testing.T) {
	r, out := newTestREPL(&fakeChat{}, true)
	assert.Error(t, r.ask(context.Background(), "   "))
	assert.Empty(t, out.String())
	assert.Equal(t, 0, r.transcript.Len())
}

func TestReset(t *testing.T) {
	r, _ := newTestREPL(&fakeChat{fragments: []string{"ok"}, convID: 9}, true)
	require.NoError(t, r.ask(context.Background(), "hi"))
	r.reset()
	assert.Zero(t, r.conversation)
	assert.Equal(t, 0, r.transcript.Len())
}
