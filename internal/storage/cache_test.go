// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

// =============================================================================
// HELPERS
// =============================================================================

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// =============================================================================
// CACHE TESTS
// =============================================================================

func TestCache_ReplaceAndList(t *testing.T) {
	c := openTestCache(t)
	fixed := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	c.now = func() time.Time { return fixed }
	ctx := context.Background()

	updated := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	in := []model.ConversationSummary{
		{ID: 9, Title: "Newest", MessageCount: 2, UpdatedAt: updated},
		{ID: 3, Title: "Older", MessageCount: 6},
	}
	if err := c.ReplaceConversations(ctx, "ana@example.com", in); err != nil {
		t.Fatalf("ReplaceConversations failed: %v", err)
	}

	got, synced, err := c.Conversations(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(got))
	}
	if got[0].ID != 9 || got[1].ID != 3 {
		t.Errorf("order not preserved: %+v", got)
	}
	if !got[0].UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", got[0].UpdatedAt, updated)
	}
	if !got[1].UpdatedAt.IsZero() {
		t.Errorf("expected zero UpdatedAt, got %v", got[1].UpdatedAt)
	}
	if !synced.Equal(fixed) {
		t.Errorf("synced = %v, want %v", synced, fixed)
	}
}

func TestCache_AccountsAreSeparate(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	_ = c.ReplaceConversations(ctx, "a", []model.ConversationSummary{{ID: 1, Title: "A"}})
	_ = c.ReplaceConversations(ctx, "b", []model.ConversationSummary{{ID: 1, Title: "B"}, {ID: 2}})

	a, _, _ := c.Conversations(ctx, "a")
	b, _, _ := c.Conversations(ctx, "b")
	if len(a) != 1 || a[0].Title != "A" {
		t.Errorf("account a = %+v", a)
	}
	if len(b) != 2 {
		t.Errorf("account b = %+v", b)
	}
}

func TestCache_ReplaceDropsStaleRows(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	_ = c.ReplaceConversations(ctx, "a", []model.ConversationSummary{{ID: 1}, {ID: 2}})
	_ = c.ReplaceConversations(ctx, "a", []model.ConversationSummary{{ID: 2}})

	got, _, _ := c.Conversations(ctx, "a")
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("expected only id 2, got %+v", got)
	}
}

func TestCache_Clear(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	_ = c.ReplaceConversations(ctx, "a", []model.ConversationSummary{{ID: 1}})
	if err := c.ClearConversations(ctx, "a"); err != nil {
		t.Fatalf("ClearConversations failed: %v", err)
	}
	got, synced, err := c.Conversations(ctx, "a")
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
	if synced.IsZero() {
		t.Error("clearing is a sync and should record a time")
	}
}

func TestCache_NeverSynced(t *testing.T) {
	c := openTestCache(t)
	got, synced, err := c.Conversations(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(got) != 0 || !synced.IsZero() {
		t.Errorf("expected empty, never synced; got %+v at %v", got, synced)
	}
}

func TestCache_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = c.ReplaceConversations(context.Background(), "a", []model.ConversationSummary{{ID: 5, Title: "Kept"}})
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()
	got, _, _ := c.Conversations(context.Background(), "a")
	if len(got) != 1 || got[0].Title != "Kept" {
		t.Errorf("expected persisted row, got %+v", got)
	}
}
