// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_Order(t *testing.T) {
	tr := NewTranscript()
	u := tr.AddUser("hi")
	b := tr.AddBotPlaceholder()

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, u.ID, msgs[0].ID)
	assert.Equal(t, b.ID, msgs[1].ID)
	assert.True(t, msgs[0].IsUser())
	assert.True(t, msgs[1].IsBot())
	assert.Empty(t, msgs[1].Text)
	assert.NotEqual(t, u.ID, b.ID)
}

func TestTranscript_SetTextBotOnly(t *testing.T) {
	tr := NewTranscript()
	u := tr.AddUser("question")
	b := tr.AddBotPlaceholder()

	assert.True(t, tr.SetText(b.ID, "answer"))
	assert.False(t, tr.SetText(u.ID, "edited"))
	assert.False(t, tr.SetText("missing", "x"))

	got, ok := tr.Find(b.ID)
	require.True(t, ok)
	assert.Equal(t, "answer", got.Text)
	got, _ = tr.Find(u.ID)
	assert.Equal(t, "question", got.Text)
}

func TestTranscript_ReplaceAndClear(t *testing.T) {
	tr := NewTranscript()
	tr.AddUser("old")
	tr.Replace([]Message{
		{ID: "1", Text: "q", Sender: SenderUser},
		{ID: "2", Text: "a", Sender: SenderBot},
	})
	assert.Equal(t, 2, tr.Len())
	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "2", last.ID)

	tr.Clear()
	assert.True(t, tr.IsEmpty())
	_, ok = tr.Last()
	assert.False(t, ok)
}

func TestTranscript_AppendSameIDReplaces(t *testing.T) {
	var tr Transcript
	tr.Append(Message{ID: "x", Text: "one", Sender: SenderBot})
	tr.Append(Message{ID: "x", Text: "two", Sender: SenderBot})
	assert.Equal(t, 1, tr.Len())
	m, _ := tr.Find("x")
	assert.Equal(t, "two", m.Text)
}

func TestNewID_Ordered(t *testing.T) {
	a := NewID()
	time.Sleep(2 * time.Millisecond)
	b := NewID()
	assert.Less(t, a, b)
}

// =============================================================================
// SUMMARY / CONFIG TESTS
// =============================================================================

func TestConversationSummary_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Conversation #4", ConversationSummary{ID: 4}.DisplayTitle())
	assert.Equal(t, "Pricing", ConversationSummary{ID: 4, Title: "Pricing"}.DisplayTitle())
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", RelativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", RelativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", RelativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", RelativeTime(now.Add(-49*time.Hour), now))
	assert.Equal(t, "Apr 1", RelativeTime(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "", RelativeTime(time.Time{}, now))
}

func TestURLConfig_CanScrape(t *testing.T) {
	assert.True(t, URLConfig{Status: StatusPending}.CanScrape())
	assert.True(t, URLConfig{Status: StatusFailed}.CanScrape())
	assert.False(t, URLConfig{Status: StatusProcessing}.CanScrape())
	assert.False(t, URLConfig{Status: StatusCompleted}.CanScrape())
	assert.Equal(t, "Processing", StatusProcessing.Label())
}
