// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Assistant"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry of the transcript.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message with a fresh id.
func NewUserMessage(text string) Message {
	return Message{ID: NewID(), Text: text, Sender: SenderUser, Timestamp: time.Now()}
}

// NewBotMessage creates a bot message with a fresh id.
func NewBotMessage(text string) Message {
	return Message{ID: NewID(), Text: text, Sender: SenderBot, Timestamp: time.Now()}
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsBot reports whether the message was written by the bot.
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}

// NewID returns a time-ordered unique message id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
