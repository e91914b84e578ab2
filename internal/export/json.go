// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
)

// JSONExporter exports conversations to JSON. It always writes every field.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonMessage struct {
	ID        string     `json:"id"`
	Sender    string     `json:"sender"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type jsonConversation struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Exported time.Time     `json:"exported"`
	Messages []jsonMessage `json:"messages"`
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(conv *backend.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, errors.New("conversation is nil")
	}
	out := jsonConversation{
		ID:       conv.ID,
		Title:    conv.Title,
		Exported: e.options.now().UTC(),
		Messages: make([]jsonMessage, 0, len(conv.Messages)),
	}
	for _, m := range conv.Messages {
		jm := jsonMessage{ID: m.ID, Sender: string(m.Sender), Text: m.Text}
		if !m.Timestamp.IsZero() {
			ts := m.Timestamp
			jm.Timestamp = &ts
		}
		out.Messages = append(out.Messages, jm)
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
