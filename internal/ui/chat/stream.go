// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/chatflow"
	"github.com/rln-tomas/chatbot-rag-front/internal/validate"
)

// =============================================================================
// SUBMISSION
// =============================================================================

// submit appends the user message and a bot placeholder, then starts the
// runner in the background.
func (m Model) submit(raw string) (tea.Model, tea.Cmd) {
	text, err := validate.Message(raw)
	if err != nil {
		return m, nil
	}

	m.transcript.AddUser(text)
	bot := m.transcript.AddBotPlaceholder()
	m.reveals.Ensure(bot.ID).SetTarget("", true)

	ctx, cancel := context.WithCancel(context.Background())
	m.sub++
	m.cancel = cancel
	m.activeID = bot.ID
	m.loading = true
	m.streamMode = m.streaming()
	m.suggestion = -1
	m.input.Reset()

	req := chatflow.Request{MessageID: bot.ID, Text: text, ConversationID: m.conversationID}
	ch := make(chan chatflow.Event, eventBuffer)
	runner := m.runner
	start := func() tea.Msg {
		go func() {
			defer close(ch)
			runner.Run(ctx, req, chatflow.NewChanSink(ctx, ch))
		}()
		return nil
	}

	m.logger.Debug("chat submission started", "message_id", bot.ID,
		"conversation_id", m.conversationID, "streaming", m.streamMode)
	m.refresh()
	m.viewport.GotoBottom()
	return m, tea.Batch(start, waitForEvent(m.sub, ch), m.spinner.Tick)
}

// waitForEvent returns a command that delivers the next runner event.
func waitForEvent(sub int, ch <-chan chatflow.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{sub: sub}
		}
		return streamEventMsg{sub: sub, ev: ev, ch: ch}
	}
}

func (m Model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if msg.sub != m.sub {
		return m, nil
	}

	var cmds []tea.Cmd
	switch msg.ev.Kind {
	case chatflow.EventText:
		if msg.ev.MessageID != m.activeID {
			break
		}
		m.transcript.SetText(msg.ev.MessageID, msg.ev.Text)
		if r := m.reveals.Get(msg.ev.MessageID); r != nil && r.SetTarget(msg.ev.Text, true) {
			cmds = append(cmds, m.revealTick(msg.ev.MessageID))
		}
		m.refresh()

	case chatflow.EventConversationID:
		if m.conversationID == 0 {
			m.conversationID = msg.ev.ConversationID
			cmds = append(cmds, m.loadConversations())
		}

	case chatflow.EventDone:
		return m.finishSubmission(msg.ev)
	}

	cmds = append(cmds, waitForEvent(msg.sub, msg.ch))
	return m, tea.Batch(cmds...)
}

// handleStreamClosed covers a runner that ended without Done, which only
// happens after cancellation.
func (m Model) handleStreamClosed(msg streamClosedMsg) (tea.Model, tea.Cmd) {
	if msg.sub != m.sub || !m.loading {
		return m, nil
	}
	m.stopSubmission()
	return m, nil
}

func (m Model) finishSubmission(ev chatflow.Event) (tea.Model, tea.Cmd) {
	id := ev.MessageID
	m.releaseSubmission()

	if ev.Err != nil && apierr.IsAuthExpired(ev.Err) {
		m.reveals.Remove(id)
		m.refresh()
		err := ev.Err
		return m, func() tea.Msg { return AuthExpiredMsg{Err: err} }
	}

	m.transcript.SetText(id, ev.Text)
	var cmds []tea.Cmd
	if r := m.reveals.Get(id); r != nil {
		schedule := r.SetTarget(ev.Text, false)
		if ev.Err != nil || !m.streamMode {
			r.Finish()
		}
		switch {
		case !r.Pending():
			m.reveals.Remove(id)
		case schedule:
			cmds = append(cmds, m.revealTick(id))
		}
	}
	if ev.Err == nil {
		cmds = append(cmds, m.loadConversations())
	}

	m.refresh()
	m.viewport.GotoBottom()
	return m, tea.Batch(cmds...)
}

// stopSubmission cancels the in-flight submission and keeps whatever text
// arrived so far.
func (m *Model) stopSubmission() {
	id := m.activeID
	m.abandon()
	if r := m.reveals.Get(id); r != nil {
		text := r.Target()
		m.reveals.Remove(id)
		if text == "" {
			text = "(stopped)"
		}
		m.transcript.SetText(id, text)
	}
	m.refresh()
}

// abandon cancels the in-flight submission. Its later events are ignored.
func (m *Model) abandon() {
	m.releaseSubmission()
	m.sub++
}

func (m *Model) releaseSubmission() {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.loading = false
	m.activeID = ""
}

// newConversation resets the view to an empty conversation.
func (m *Model) newConversation() {
	m.abandon()
	m.reveals.Reset()
	m.transcript.Clear()
	clear(m.rendered)
	m.conversationID = 0
	m.suggestion = -1
	m.input.Reset()
	m.refresh()
}

// =============================================================================
// TYPEWRITER FRAMES
// =============================================================================

func (m Model) revealTick(id string) tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return RevealTickMsg{MessageID: id, At: t}
	})
}

func (m Model) handleRevealTick(msg RevealTickMsg) (tea.Model, tea.Cmd) {
	r := m.reveals.Get(msg.MessageID)
	if r == nil {
		return m, nil
	}
	again := r.Frame(msg.At)
	if !again && !r.Revealing() && !r.Pending() {
		m.reveals.Remove(msg.MessageID)
	}
	follow := m.viewport.AtBottom()
	m.refresh()
	if follow {
		m.viewport.GotoBottom()
	}
	if again {
		cmd := m.revealTick(msg.MessageID)
		return m, cmd
	}
	return m, nil
}
