// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/reveal"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/render"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
)

const caretGlyph = "▌"

// renderedMessage caches the rendered body of a settled message.
type renderedMessage struct {
	text  string
	width int
	out   string
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refresh rebuilds the viewport content.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m *Model) renderTranscript() string {
	if m.transcript.IsEmpty() {
		return m.renderWelcome()
	}
	var b strings.Builder
	for i, msg := range m.transcript.Messages() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m *Model) renderMessage(msg model.Message) string {
	width := max(m.viewport.Width-4, 10)
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	if msg.IsUser() {
		label := m.theme.UserLabel.Render(msg.Sender.DisplayName()) + " " + stamp
		lines := strings.Split(msg.Text, "\n")
		for i, l := range lines {
			lines[i] = render.Wrap(l, width-2)
		}
		return label + "\n" + m.theme.UserBubble.Render(strings.Join(lines, "\n"))
	}

	label := m.theme.BotLabel.Render(msg.Sender.DisplayName()) + " " + stamp
	text, caret := msg.Text, ""
	if r := m.reveals.Get(msg.ID); r != nil {
		switch r.Phase() {
		case reveal.PhaseWaiting:
			return label + "\n" + m.theme.BotBubble.Render(m.spinner.View()+m.theme.Waiting.Render(" Thinking..."))
		case reveal.PhaseTyping:
			text = r.Displayed()
			caret = m.theme.Caret.Render(caretGlyph)
		}
	}
	body := strings.TrimRight(m.renderBody(msg.ID, text, width-4, caret == ""), "\n ")
	return label + "\n" + m.theme.BotBubble.Render(body+caret)
}

// renderBody renders bot text. Settled text is cached per message.
func (m *Model) renderBody(id, text string, width int, settled bool) string {
	if c, ok := m.rendered[id]; ok && c.text == text && c.width == width {
		return c.out
	}
	out := m.renderer.Render(text, width)
	if settled {
		m.rendered[id] = renderedMessage{text: text, width: width, out: out}
	}
	return out
}

func (m *Model) renderWelcome() string {
	name := "there"
	if m.session != nil {
		name = m.session.User().DisplayName()
	}

	cards := make([]string, 0, len(suggestions))
	for i, s := range suggestions {
		style := m.theme.Card
		if i == m.suggestion {
			style = m.theme.CardFocus
		}
		cards = append(cards, style.Width(min(m.viewport.Width-4, 60)).Render(s))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.Title.Render(fmt.Sprintf("Hello, %s!", name)),
		m.theme.Subtitle.Render("How can I help you today?"),
		"",
		lipgloss.JoinVertical(lipgloss.Left, cards...),
		m.theme.Muted.Render("up/down picks a suggestion, Enter sends it"),
	)
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, content)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat view.
func (m Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.viewport.View(),
		m.viewNotice(),
		m.viewInput(),
		m.viewHelp(),
	)
	if !m.sidebarVisible() {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), main)
}

func (m Model) viewHeader() string {
	title := "New conversation"
	for _, c := range m.conversations {
		if c.ID == m.conversationID {
			title = c.DisplayTitle()
			break
		}
	}
	width := m.mainWidth()
	return m.theme.Header.Width(width).Render(
		m.theme.HeaderTitle.Render(render.Truncate(title, max(width-4, 1))))
}

func (m Model) viewNotice() string {
	switch {
	case m.confirmDelete:
		return m.theme.Error.Render(" Delete all conversations? (y/n)")
	case m.notice != "" && m.noticeErr:
		return m.theme.Error.Render(" " + m.notice)
	case m.notice != "":
		return m.theme.Success.Render(" " + m.notice)
	case m.loading:
		return m.theme.Muted.Render(" Waiting for the answer, Esc to stop")
	case m.listCached:
		return m.theme.Muted.Render(" Offline: history from " + model.RelativeTime(m.listSyncedAt, m.now()))
	}
	return ""
}

func (m Model) viewInput() string {
	style := m.theme.Input
	if m.focus == focusInput && !m.loading {
		style = m.theme.InputFocus
	}
	return style.Width(max(m.mainWidth()-2, 10)).Render(m.input.View())
}

func (m Model) viewHelp() string {
	h := help.New()
	h.Width = m.mainWidth()
	return " " + h.ShortHelpView(m.keys.ShortHelp())
}

// =============================================================================
// SIDEBAR
// =============================================================================

// sidebarFooterRows is the height of the sidebar footer block.
const sidebarFooterRows = 6

func (m Model) viewSidebar() string {
	inner := styles.SidebarWidth - 2
	avail := max(m.height-2, 1)

	lines := []string{
		m.theme.SidebarButton.Render("+ New chat  C-n"),
		m.theme.SidebarHeading.Render("HISTORY"),
	}
	switch {
	case m.listLoading && len(m.conversations) == 0:
		lines = append(lines, m.theme.SidebarMeta.Render("Loading..."))
	case len(m.conversations) == 0:
		lines = append(lines, m.theme.SidebarMeta.Render("No conversations yet"))
	default:
		// Each row takes two lines.
		rows := max((avail-len(lines)-1-sidebarFooterRows)/2, 1)
		start := 0
		if m.cursor >= rows {
			start = m.cursor - rows + 1
		}
		end := min(start+rows, len(m.conversations))
		now := m.now()
		for i := start; i < end; i++ {
			c := m.conversations[i]
			prefix := "  "
			if m.focus == focusSidebar && i == m.cursor {
				prefix = "› "
			}
			style := m.theme.SidebarItem
			if c.ID == m.conversationID {
				style = m.theme.SidebarItemActive
			}
			lines = append(lines,
				style.Render(prefix+render.Truncate(c.DisplayTitle(), inner-3)),
				m.theme.SidebarMeta.Render(fmt.Sprintf("  %d msgs · %s", c.MessageCount, model.RelativeTime(c.UpdatedAt, now))),
			)
		}
	}
	body := lipgloss.JoinVertical(lipgloss.Left, lines...)

	name, email := "", ""
	if m.session != nil {
		u := m.session.User()
		name, email = u.DisplayName(), u.Email
	}
	footer := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.SidebarDanger.Render("Delete all  C-d"),
		m.theme.SidebarButton.Render("Settings    C-s"),
		"",
		m.theme.UserName.Render(render.Truncate(name, inner)),
		m.theme.UserEmail.Render(render.Truncate(email, inner)),
		m.theme.Muted.Render("Log out     C-l"),
	)

	if gap := avail - lipgloss.Height(body) - lipgloss.Height(footer); gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return m.theme.SidebarPane.Height(m.height).Render(body + "\n" + footer)
}
