// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

type summaryPayload struct {
	ID           flexID   `json:"id"`
	Title        string   `json:"title"`
	MessageCount int      `json:"message_count"`
	UpdatedAt    flexTime `json:"updated_at"`
}

type messagePayload struct {
	ID            flexID   `json:"id"`
	Content       string   `json:"content"`
	IsUserMessage *bool    `json:"is_user_message"`
	Role          string   `json:"role"`
	Sender        string   `json:"sender"`
	CreatedAt     flexTime `json:"created_at"`
}

func (p messagePayload) sender() model.Sender {
	switch {
	case p.IsUserMessage != nil:
		if *p.IsUserMessage {
			return model.SenderUser
		}
		return model.SenderBot
	case p.Sender == "user" || p.Role == "user":
		return model.SenderUser
	default:
		return model.SenderBot
	}
}

// Conversation is a stored conversation with its messages.
type Conversation struct {
	ID       int64
	Title    string
	Messages []model.Message
}

// ListConversations returns the user's conversations, most recent first as
// ordered by the server.
func (c *Client) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var out []summaryPayload
	if err := c.doJSON(ctx, "list conversations", http.MethodGet, "/api/v1/chat/conversations", nil, &out); err != nil {
		return nil, err
	}
	list := make([]model.ConversationSummary, 0, len(out))
	for _, p := range out {
		list = append(list, model.ConversationSummary{
			ID:           int64(p.ID),
			Title:        p.Title,
			MessageCount: p.MessageCount,
			UpdatedAt:    p.UpdatedAt.Time(),
		})
	}
	return list, nil
}

// GetConversation loads one conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var out struct {
		ID       flexID           `json:"id"`
		Title    string           `json:"title"`
		Messages []messagePayload `json:"messages"`
	}
	path := "/api/v1/chat/conversations/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, "get conversation", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	conv := &Conversation{ID: int64(out.ID), Title: out.Title}
	if conv.ID == 0 {
		conv.ID = id
	}
	for i, p := range out.Messages {
		msgID := strconv.FormatInt(int64(p.ID), 10)
		if p.ID == 0 {
			msgID = fmt.Sprintf("%d-%d", id, i)
		}
		conv.Messages = append(conv.Messages, model.Message{
			ID:        msgID,
			Text:      p.Content,
			Sender:    p.sender(),
			Timestamp: p.CreatedAt.Time(),
		})
	}
	return conv, nil
}

// DeleteAllConversations removes every conversation of the user and returns
// how many were deleted, when the server reports it.
func (c *Client) DeleteAllConversations(ctx context.Context) (int, error) {
	var out struct {
		DeletedCount *int `json:"deleted_count"`
		Count        *int `json:"count"`
	}
	if err := c.doJSON(ctx, "delete conversations", http.MethodDelete, "/api/v1/chat/conversations", nil, &out); err != nil {
		return 0, err
	}
	switch {
	case out.DeletedCount != nil:
		return *out.DeletedCount, nil
	case out.Count != nil:
		return *out.Count, nil
	default:
		return 0, nil
	}
}
