// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/sse"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL, session.New("tok-123", "", session.User{})).
		WithHTTPClient(srv.Client()).
		WithLogger(logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// AUTH / HEADERS
// =============================================================================

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []any{})
	})
	_, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got)
}

func TestClient_AuthStatusesMapToAuthExpired(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]string{"detail": "Could not validate credentials"})
		})

		_, err := c.ListConversations(context.Background())
		assert.True(t, apierr.IsAuthExpired(err), "status %d", status)

		_, err = c.StreamMessage(context.Background(), "hi", 0, sse.Handler{})
		assert.True(t, apierr.IsAuthExpired(err), "stream status %d", status)

		_, err = c.StartScraping(context.Background(), 1)
		assert.True(t, apierr.IsAuthExpired(err))
	}
}

func TestClient_ServerErrorIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	})
	_, err := c.DeleteAllConversations(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierr.KindTransport, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_NetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil).WithTimeout(time.Second)
	_, err := c.ListConversations(context.Background())
	assert.Equal(t, apierr.KindTransport, apierr.KindOf(err))
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "new-token",
			"refresh_token": "refresh",
			"user":          map[string]string{"name": "Ana"},
		})
	})
	c = NewClient(c.BaseURL(), nil).WithHTTPClient(c.httpClient)

	sess, err := c.Login(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "new-token", sess.Token())
	assert.Equal(t, "Ana", sess.User().Name)
	assert.Equal(t, "ana@example.com", sess.User().Email)
}

func TestLogin_MissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	_, err := c.Login(context.Background(), "a@b.co", "x")
	assert.ErrorIs(t, err, ErrNoToken)
}

// =============================================================================
// CHAT
// =============================================================================

func TestStreamMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Message)
		assert.Equal(t, int64(0), body.ConversationID)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			`data: {"conversation_id": 42}`,
			`data: {"content": "Hi "}`,
			`data: {"content": "there", "conversation_id": 42}`,
			`data: [DONE]`,
		} {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	})

	var fragments []string
	var ids []int64
	final, err := c.StreamMessage(context.Background(), "hello", 0, sse.Handler{
		OnFragment:       func(s string) { fragments = append(fragments, s) },
		OnConversationID: func(id int64) { ids = append(ids, id) },
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", final)
	assert.Equal(t, []string{"Hi ", "Hi there"}, fragments)
	assert.Equal(t, []int64{42}, ids)
}

func TestSendMessage(t *testing.T) {
	tests := []struct {
		name string
		resp map[string]any
		want Reply
	}{
		{"response field", map[string]any{"response": "Answer", "conversation_id": 5}, Reply{"Answer", 5}},
		{"bot message", map[string]any{"bot_message": map[string]string{"content": "Nested"}, "conversation_id": "6"}, Reply{"Nested", 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/chat", r.URL.Path)
				writeJSON(w, http.StatusOK, tt.resp)
			})
			got, err := c.SendMessage(context.Background(), "q", 5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestListConversations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/chat/conversations", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 2, "title": "Pricing", "message_count": 4, "updated_at": "2025-01-02T10:00:00.123456"},
			{"id": 1, "title": "", "message_count": 2, "updated_at": "2025-01-01T10:00:00Z"},
		})
	})
	list, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, "Pricing", list[0].Title)
	assert.Equal(t, 4, list[0].MessageCount)
	assert.Equal(t, 2025, list[0].UpdatedAt.Year())
	assert.Equal(t, "Conversation #1", list[1].DisplayTitle())
}

func TestGetConversation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/conversations/9", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 9,
			"messages": []map[string]any{
				{"id": 100, "content": "q", "is_user_message": true},
				{"id": 101, "content": "a", "is_user_message": false},
				{"content": "legacy", "role": "user"},
			},
		})
	})
	conv, err := c.GetConversation(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "100", conv.Messages[0].ID)
	assert.Equal(t, model.SenderUser, conv.Messages[0].Sender)
	assert.Equal(t, model.SenderBot, conv.Messages[1].Sender)
	assert.Equal(t, model.SenderUser, conv.Messages[2].Sender)
	assert.Equal(t, "9-2", conv.Messages[2].ID)
}

func TestDeleteAllConversations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "deleted_count": 3})
	})
	n, err := c.DeleteAllConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// =============================================================================
// CONFIGS
// =============================================================================

func TestListConfigs_DefaultsPaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": 1, "url": "https://a.example", "status": "completed"},
				{"id": 2, "url": "https://b.example", "status": "failed", "error_message": "timeout"},
			},
		})
	})
	page, err := c.ListConfigs(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, model.StatusCompleted, page.Items[0].Status)
	assert.Equal(t, "timeout", page.Items[1].ErrorMessage)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
}

func TestCreateURLConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://docs.example", body["url"])
		writeJSON(w, http.StatusCreated, map[string]any{"id": 7, "url": body["url"]})
	})
	cfg, err := c.CreateURLConfig(context.Background(), "https://docs.example")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.ID)
	assert.Equal(t, model.StatusPending, cfg.Status)
}

func TestStartScraping(t *testing.T) {
	tests := []struct {
		name string
		resp map[string]any
		want string
	}{
		{"task_id", map[string]any{"task_id": "abc"}, "abc"},
		{"numeric id", map[string]any{"id": 12}, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]int64
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, int64(3), body["config_id"])
				writeJSON(w, http.StatusAccepted, tt.resp)
			})
			id, err := c.StartScraping(context.Background(), 3)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
