// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/chatflow"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamEventMsg carries one runner event. sub identifies the submission so
// events of an abandoned submission are dropped.
type streamEventMsg struct {
	sub int
	ev  chatflow.Event
	ch  <-chan chatflow.Event
}

// streamClosedMsg reports that a submission's event channel closed.
type streamClosedMsg struct {
	sub int
}

// RevealTickMsg runs one typewriter frame for a bot message.
type RevealTickMsg struct {
	MessageID string
	At        time.Time
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationsLoadedMsg delivers the sidebar list. Cached is set when the
// backend failed and the list came from the local cache.
type ConversationsLoadedMsg struct {
	List     []model.ConversationSummary
	Cached   bool
	SyncedAt time.Time
	Err      error
}

// ConversationLoadedMsg delivers a conversation picked in the sidebar.
type ConversationLoadedMsg struct {
	ID           int64
	Conversation *backend.Conversation
	Err          error
}

// ConversationsDeletedMsg reports the result of delete-all.
type ConversationsDeletedMsg struct {
	Count int
	Err   error
}

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// AuthExpiredMsg asks the app to return to the login screen.
type AuthExpiredMsg struct {
	Err error
}

// OpenSettingsMsg asks the app to show the settings view.
type OpenSettingsMsg struct{}

// LogoutMsg asks the app to end the session.
type LogoutMsg struct{}

// noticeExpiredMsg clears the status notice with the given id.
type noticeExpiredMsg struct {
	id int
}
