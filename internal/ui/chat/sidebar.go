// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
)

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

// account keys the local cache.
func (m Model) account() string {
	if m.session == nil {
		return ""
	}
	return m.session.User().Email
}

// loadConversations fetches the sidebar list, falling back to the cache
// when the backend is unreachable.
func (m *Model) loadConversations() tea.Cmd {
	m.listLoading = true
	api, cache, account, logger := m.api, m.cache, m.account(), m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
		defer cancel()

		list, err := api.ListConversations(ctx)
		if err == nil {
			if cache != nil {
				if cerr := cache.ReplaceConversations(ctx, account, list); cerr != nil {
					logger.Warn("failed to cache conversations", "error", cerr)
				}
			}
			return ConversationsLoadedMsg{List: list}
		}
		if apierr.IsAuthExpired(err) || cache == nil {
			return ConversationsLoadedMsg{Err: err}
		}

		cached, syncedAt, cerr := cache.Conversations(ctx, account)
		if cerr != nil || syncedAt.IsZero() {
			return ConversationsLoadedMsg{Err: err}
		}
		return ConversationsLoadedMsg{List: cached, Cached: true, SyncedAt: syncedAt, Err: err}
	}
}

func (m Model) handleConversationsLoaded(msg ConversationsLoadedMsg) (tea.Model, tea.Cmd) {
	m.listLoading = false
	if msg.Err != nil && apierr.IsAuthExpired(msg.Err) {
		cmd := m.authExpired(msg.Err)
		return m, cmd
	}

	var cmd tea.Cmd
	switch {
	case msg.Cached:
		m.conversations = msg.List
		m.listCached = true
		m.listSyncedAt = msg.SyncedAt
		m.logger.Warn("showing cached conversations", "error", msg.Err)
	case msg.Err != nil:
		m.logger.Error("failed to load conversations", "error", msg.Err)
		cmd = m.setNotice("Could not load conversations", true)
	default:
		m.conversations = msg.List
		m.listCached = false
		m.listSyncedAt = m.now()
	}
	m.cursor = min(m.cursor, max(len(m.conversations)-1, 0))
	return m, cmd
}

func (m *Model) openConversation(id int64) tea.Cmd {
	if id == m.conversationID && !m.transcript.IsEmpty() {
		return nil
	}
	m.abandon()
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
		defer cancel()
		conv, err := api.GetConversation(ctx, id)
		return ConversationLoadedMsg{ID: id, Conversation: conv, Err: err}
	}
}

func (m Model) handleConversationLoaded(msg ConversationLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if apierr.IsAuthExpired(msg.Err) {
			cmd := m.authExpired(msg.Err)
			return m, cmd
		}
		m.logger.Error("failed to load conversation", "id", msg.ID, "error", msg.Err)
		cmd := m.setNotice("Could not load the conversation", true)
		return m, cmd
	}

	m.reveals.Reset()
	clear(m.rendered)
	m.transcript.Replace(msg.Conversation.Messages)
	m.conversationID = msg.ID
	m.focus = focusInput
	cmd := m.input.Focus()
	m.refresh()
	m.viewport.GotoBottom()
	return m, cmd
}

func (m *Model) deleteAllConversations() tea.Cmd {
	api, cache, account := m.api, m.cache, m.account()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
		defer cancel()
		n, err := api.DeleteAllConversations(ctx)
		if err == nil && cache != nil {
			_ = cache.ClearConversations(ctx, account)
		}
		return ConversationsDeletedMsg{Count: n, Err: err}
	}
}

func (m Model) handleConversationsDeleted(msg ConversationsDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if apierr.IsAuthExpired(msg.Err) {
			cmd := m.authExpired(msg.Err)
			return m, cmd
		}
		m.logger.Error("failed to delete conversations", "error", msg.Err)
		cmd := m.setNotice("Could not delete conversations", true)
		return m, cmd
	}
	m.conversations = nil
	m.cursor = 0
	m.newConversation()
	cmd := m.setNotice(fmt.Sprintf("Deleted %d conversations", msg.Count), false)
	return m, cmd
}

// authExpired ends the session and tells the app to show the login screen.
func (m *Model) authExpired(err error) tea.Cmd {
	m.abandon()
	if m.session != nil {
		m.session.Logout()
	}
	return func() tea.Msg { return AuthExpiredMsg{Err: err} }
}

// =============================================================================
// SIDEBAR NAVIGATION
// =============================================================================

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.conversations)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.conversations) {
			cmd := m.openConversation(m.conversations[m.cursor].ID)
			return m, cmd
		}
	}
	return m, nil
}

// activeIndex returns the sidebar row of the open conversation, or 0.
func (m Model) activeIndex() int {
	for i, c := range m.conversations {
		if c.ID == m.conversationID {
			return i
		}
	}
	return 0
}
