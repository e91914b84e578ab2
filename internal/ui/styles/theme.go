// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

// SidebarWidth is the width of the chat and settings sidebars.
const SidebarWidth = 30

// Theme holds every style of the TUI.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	StatusBar   lipgloss.Style
	Help        lipgloss.Style

	// Sidebar
	SidebarPane       lipgloss.Style
	SidebarHeading    lipgloss.Style
	SidebarItem       lipgloss.Style
	SidebarItemActive lipgloss.Style
	SidebarMeta       lipgloss.Style
	SidebarButton     lipgloss.Style
	SidebarDanger     lipgloss.Style
	UserName          lipgloss.Style
	UserEmail         lipgloss.Style

	// Messages
	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Caret      lipgloss.Style
	Waiting    lipgloss.Style
	Timestamp  lipgloss.Style

	// Forms and notices
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Label      lipgloss.Style
	Input      lipgloss.Style
	InputFocus lipgloss.Style
	Button     lipgloss.Style
	ButtonOff  lipgloss.Style
	Success    lipgloss.Style
	Error      lipgloss.Style
	Muted      lipgloss.Style
	Card       lipgloss.Style
	CardFocus  lipgloss.Style
	Badge      lipgloss.Style
}

// NewTheme detects the terminal and builds the styles.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 2)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.StatusBar = lipgloss.NewStyle().Foreground(TextMuted).Padding(0, 1)
	t.Help = lipgloss.NewStyle().Foreground(TextMuted)

	t.SidebarPane = lipgloss.NewStyle().
		Width(SidebarWidth).
		Background(Sidebar).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(1, 1)
	t.SidebarHeading = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true).
		MarginTop(1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextSecondary).PaddingLeft(1)
	t.SidebarItemActive = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SidebarActive).
		Bold(true).
		PaddingLeft(1)
	t.SidebarMeta = lipgloss.NewStyle().Foreground(TextMuted).PaddingLeft(1)
	t.SidebarButton = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	t.SidebarDanger = lipgloss.NewStyle().Foreground(Rose)
	t.UserName = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.UserEmail = lipgloss.NewStyle().Foreground(TextMuted)

	t.UserLabel = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	t.BotLabel = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(UserBubbleBg).
		Padding(0, 1)
	t.BotBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.Caret = lipgloss.NewStyle().Foreground(Purple).Blink(true)
	t.Waiting = lipgloss.NewStyle().Foreground(Purple)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary).MarginBottom(1)
	t.Subtitle = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Label = lipgloss.NewStyle().Foreground(TextSecondary).Bold(true)
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputFocus = t.Input.BorderForeground(Blue)
	t.Button = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Blue).
		Bold(true).
		Padding(0, 2)
	t.ButtonOff = t.Button.Background(Overlay).Foreground(TextMuted)
	t.Success = lipgloss.NewStyle().Foreground(Emerald)
	t.Error = lipgloss.NewStyle().Foreground(Rose)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CardFocus = t.Card.BorderForeground(Blue)
	t.Badge = lipgloss.NewStyle().Padding(0, 1).Bold(true)
}

// StatusBadge renders a URL configuration status badge.
func (t *Theme) StatusBadge(s model.ScrapeStatus) string {
	color := TextMuted
	switch s {
	case model.StatusPending, model.StatusProcessing:
		color = Amber
	case model.StatusCompleted:
		color = Emerald
	case model.StatusFailed:
		color = Rose
	}
	return t.Badge.Foreground(color).Render(s.Label())
}
