// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the sign-in view.
package login

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
	"github.com/rln-tomas/chatbot-rag-front/internal/validate"
)

const loginTimeout = 20 * time.Second

// API signs a user in.
type API interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
}

// LoggedInMsg carries the new session to the app.
type LoggedInMsg struct {
	Session *session.Session
}

type loginResultMsg struct {
	session *session.Session
	err     error
}

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// Model is the login view.
type Model struct {
	api    API
	theme  *styles.Theme
	logger *slog.Logger

	inputs  [fieldCount]textinput.Model
	focused int

	submitting bool
	err        string
	notice     string
	spinner    spinner.Model

	width  int
	height int
}

// New creates the login view.
func New(api API, theme *styles.Theme, logger *slog.Logger) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}
	if logger == nil {
		logger = slog.Default()
	}
	var inputs [fieldCount]textinput.Model

	inputs[fieldEmail] = textinput.New()
	inputs[fieldEmail].Placeholder = "you@example.com"
	inputs[fieldEmail].CharLimit = 254
	inputs[fieldEmail].Prompt = ""
	inputs[fieldEmail].Focus()

	inputs[fieldPassword] = textinput.New()
	inputs[fieldPassword].Placeholder = "password"
	inputs[fieldPassword].CharLimit = 256
	inputs[fieldPassword].Prompt = ""
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Waiting

	return Model{api: api, theme: theme, logger: logger, inputs: inputs, spinner: sp}
}

// SetNotice shows a message above the form, e.g. after a forced logout.
func (m *Model) SetNotice(s string) { m.notice = s }

// SetEmail pre-fills the email field.
func (m *Model) SetEmail(s string) {
	m.inputs[fieldEmail].SetValue(s)
	if s != "" {
		m.focusField(fieldPassword)
	}
}

// Reset clears the password and any error.
func (m *Model) Reset() {
	m.inputs[fieldPassword].Reset()
	m.err = ""
	m.submitting = false
}

// SetSize sets the view size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	for i := range m.inputs {
		m.inputs[i].Width = min(max(width-20, 20), 48)
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyTab, tea.KeyDown:
			cmd := m.focusField((m.focused + 1) % fieldCount)
			return m, cmd
		case tea.KeyShiftTab, tea.KeyUp:
			cmd := m.focusField((m.focused + fieldCount - 1) % fieldCount)
			return m, cmd
		case tea.KeyEnter:
			if m.focused == fieldEmail {
				cmd := m.focusField(fieldPassword)
				return m, cmd
			}
			return m.submit()
		}
		m.err = ""

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = describe(msg.err)
			m.logger.Warn("login failed", "kind", apierr.KindOf(msg.err).String(), "error", msg.err)
			return m, nil
		}
		m.inputs[fieldPassword].Reset()
		m.notice = ""
		sess := msg.session
		return m, func() tea.Msg { return LoggedInMsg{Session: sess} }
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	m.inputs[m.focused].Blur()
	m.focused = i
	return m.inputs[i].Focus()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()
	if err := validate.Login(email, password); err != nil {
		m.err = err.Error()
		return m, nil
	}

	m.err = ""
	m.submitting = true
	api := m.api
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		sess, err := api.Login(ctx, email, password)
		return loginResultMsg{session: sess, err: err}
	})
}

// describe turns a login error into text for the form.
func describe(err error) string {
	var e *apierr.Error
	if !errors.As(err, &e) {
		return "Login failed, please try again"
	}
	switch {
	case e.Kind == apierr.KindAuthExpired:
		return "Invalid email or password"
	case e.Kind == apierr.KindTransport && e.Status == 0:
		return "Could not reach the server"
	case e.Message != "":
		return e.Message
	}
	return "Login failed, please try again"
}

// View renders the form centered in the terminal.
func (m Model) View() string {
	st := m.theme
	field := func(i int, label string) string {
		style := st.Input
		if m.focused == i {
			style = st.InputFocus
		}
		return lipgloss.JoinVertical(lipgloss.Left, st.Label.Render(label), style.Render(m.inputs[i].View()))
	}

	button := st.Button.Render("Sign in")
	if m.submitting {
		button = st.ButtonOff.Render(m.spinner.View() + " Signing in")
	}

	parts := []string{
		st.Title.Render("RAG Chat"),
		st.Subtitle.Render("Sign in to continue"),
		"",
	}
	if m.notice != "" {
		parts = append(parts, st.Muted.Render(m.notice), "")
	}
	parts = append(parts,
		field(fieldEmail, "Email"),
		field(fieldPassword, "Password"),
		"",
		button,
	)
	if m.err != "" {
		parts = append(parts, "", st.Error.Render(m.err))
	}
	parts = append(parts, "", st.Muted.Render("Tab next field  Enter sign in  Ctrl+C quit"))

	form := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.width == 0 || m.height == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}
