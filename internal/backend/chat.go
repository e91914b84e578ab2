// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"net/http"

	"github.com/rln-tomas/chatbot-rag-front/internal/sse"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID int64  `json:"conversation_id"`
}

// Reply is the result of a non-streaming chat request.
type Reply struct {
	Text           string
	ConversationID int64
}

type replyPayload struct {
	Response       string `json:"response"`
	Content        string `json:"content"`
	ConversationID flexID `json:"conversation_id"`
	BotMessage     *struct {
		Content string `json:"content"`
	} `json:"bot_message"`
}

// StreamMessage posts message to the streaming endpoint and feeds the answer
// stream to h. conversationID 0 asks the server to start a new conversation.
// It returns the full answer.
func (c *Client) StreamMessage(ctx context.Context, message string, conversationID int64, h sse.Handler) (string, error) {
	const op = "stream message"
	req, err := c.newRequest(ctx, op, http.MethodPost, "/api/v1/chat/stream",
		chatRequest{Message: message, ConversationID: conversationID})
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.send(ctx, c.streamClient, op, req)
	if err != nil {
		return "", err
	}
	return sse.Ingest(ctx, resp.Body, conversationID, h, sse.WithLogger(c.logger))
}

// SendMessage posts message and waits for the complete answer.
func (c *Client) SendMessage(ctx context.Context, message string, conversationID int64) (Reply, error) {
	var out replyPayload
	err := c.doJSON(ctx, "send message", http.MethodPost, "/api/v1/chat",
		chatRequest{Message: message, ConversationID: conversationID}, &out)
	if err != nil {
		return Reply{}, err
	}

	text := out.Response
	if text == "" && out.BotMessage != nil {
		text = out.BotMessage.Content
	}
	if text == "" {
		text = out.Content
	}
	return Reply{Text: text, ConversationID: int64(out.ConversationID)}, nil
}
