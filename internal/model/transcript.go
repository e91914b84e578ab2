// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Transcript is the ordered list of messages of the open conversation.
// It is owned by the view that displays it and is not safe for concurrent use.
type Transcript struct {
	messages []Message
	index    map[string]int
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{index: make(map[string]int)}
}

// AddUser appends a user message.
func (t *Transcript) AddUser(text string) Message {
	return t.Append(NewUserMessage(text))
}

// AddBotPlaceholder appends an empty bot message to be filled by a response.
func (t *Transcript) AddBotPlaceholder() Message {
	return t.Append(NewBotMessage(""))
}

// Append adds msg, keeping its id. A message whose id is already present
// replaces the existing one in place.
func (t *Transcript) Append(msg Message) Message {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[msg.ID]; ok {
		t.messages[i] = msg
		return msg
	}
	t.index[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
	return msg
}

// SetText replaces the text of a bot message. It reports false when id is
// unknown or names a user message.
func (t *Transcript) SetText(id, text string) bool {
	i, ok := t.index[id]
	if !ok || !t.messages[i].IsBot() {
		return false
	}
	t.messages[i].Text = text
	return true
}

// Find returns the message with the given id.
func (t *Transcript) Find(id string) (Message, bool) {
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[i], true
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Messages returns a copy of the messages in order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// IsEmpty reports whether the transcript has no messages.
func (t *Transcript) IsEmpty() bool {
	return len(t.messages) == 0
}

// Clear removes every message.
func (t *Transcript) Clear() {
	t.messages = nil
	t.index = make(map[string]int)
}

// Replace swaps the whole content, used when a stored conversation is opened.
func (t *Transcript) Replace(msgs []Message) {
	t.Clear()
	for _, m := range msgs {
		t.Append(m)
	}
}
