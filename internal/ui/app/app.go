// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model. It gates the chat behind a
// session and routes between the login, chat and settings views.
package app

import (
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/config"
	"github.com/rln-tomas/chatbot-rag-front/internal/reveal"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/chat"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/login"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/render"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/settings"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
)

// State is the visible view.
type State int

const (
	StateLogin State = iota
	StateChat
	StateSettings
)

func (s State) String() string {
	switch s {
	case StateLogin:
		return "login"
	case StateChat:
		return "chat"
	case StateSettings:
		return "settings"
	default:
		return "unknown"
	}
}

const (
	noticeLoggedOut = "You have been logged out."
	noticeExpired   = "Your session expired. Please sign in again."
)

var timeNow = time.Now

// ConfigReloadedMsg delivers a config file change.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// Options wires the app.
type Options struct {
	Config *config.Config
	Client *backend.Client
	// Session is a restored session, nil to start at the login screen.
	Session *session.Session
	Cache   chat.HistoryCache
	Theme   *styles.Theme
	Logger  *slog.Logger
	// Save persists config changes. Defaults to config.Save.
	Save func(*config.Config) error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root model.
type Model struct {
	state State

	cfg       *config.Config
	client    *backend.Client
	session   *session.Session
	email     string
	cache     chat.HistoryCache
	theme     *styles.Theme
	logger    *slog.Logger
	save      func(*config.Config) error
	streaming *atomic.Bool

	login    login.Model
	chat     chat.Model
	settings settings.Model
	hasChat  bool

	width  int
	height int
}

// New creates the root model.
func New(opts Options) *Model {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Save == nil {
		opts.Save = config.Save
	}

	streaming := &atomic.Bool{}
	streaming.Store(opts.Config.Chat.Streaming)

	m := &Model{
		state:     StateLogin,
		cfg:       opts.Config,
		client:    opts.Client,
		cache:     opts.Cache,
		theme:     opts.Theme,
		logger:    opts.Logger,
		save:      opts.Save,
		streaming: streaming,
		login:     login.New(opts.Client, opts.Theme, opts.Logger),
	}
	if s := opts.Session; s != nil && s.Authenticated() && !s.Expired(timeNow()) {
		m.startChat(s)
	}
	return m
}

// State returns the visible view.
func (m *Model) State() State { return m.state }

// Session returns the active session, nil when signed out.
func (m *Model) Session() *session.Session { return m.session }

// Streaming reports the current streaming toggle.
func (m *Model) Streaming() bool { return m.streaming.Load() }

// Shutdown stops background work of the chat view.
func (m *Model) Shutdown() {
	if m.hasChat {
		m.chat.Shutdown()
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the visible view.
func (m *Model) Init() tea.Cmd {
	if m.state == StateChat {
		return m.chat.Init()
	}
	return m.login.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.login.SetSize(msg.Width, msg.Height)
		m.settings.SetSize(msg.Width, msg.Height)
		if m.hasChat {
			next, cmd := m.chat.Update(msg)
			m.chat = next.(chat.Model)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Shutdown()
			return m, tea.Quit
		}
		return m.updateActive(msg)

	case login.LoggedInMsg:
		return m, m.loggedIn(msg.Session)

	case chat.LogoutMsg:
		m.logger.Info("user logged out")
		return m, m.toLogin(noticeLoggedOut)

	case chat.AuthExpiredMsg:
		m.logger.Warn("session expired", "error", msg.Err)
		return m, m.toLogin(noticeExpired)

	case settings.AuthExpiredMsg:
		m.logger.Warn("session expired", "error", msg.Err)
		return m, m.toLogin(noticeExpired)

	case chat.OpenSettingsMsg:
		return m, m.openSettings()

	case settings.BackMsg:
		m.state = StateChat
		return m, nil

	case settings.StreamingToggledMsg:
		m.setStreaming(msg.Enabled)
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg)
		return m, nil
	}

	// Background messages (stream events, reveal frames, list results)
	// belong to the chat view even while settings is showing.
	var cmds []tea.Cmd
	if m.hasChat {
		next, cmd := m.chat.Update(msg)
		m.chat = next.(chat.Model)
		cmds = append(cmds, cmd)
	}
	switch m.state {
	case StateLogin:
		next, cmd := m.login.Update(msg)
		m.login = next.(login.Model)
		cmds = append(cmds, cmd)
	case StateSettings:
		next, cmd := m.settings.Update(msg)
		m.settings = next.(settings.Model)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var next tea.Model
	switch m.state {
	case StateLogin:
		next, cmd = m.login.Update(msg)
		m.login = next.(login.Model)
	case StateChat:
		next, cmd = m.chat.Update(msg)
		m.chat = next.(chat.Model)
	case StateSettings:
		next, cmd = m.settings.Update(msg)
		m.settings = next.(settings.Model)
	}
	return m, cmd
}

// View renders the visible view.
func (m *Model) View() string {
	switch m.state {
	case StateChat:
		return m.chat.View()
	case StateSettings:
		return m.settings.View()
	default:
		return m.login.View()
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (m *Model) startChat(sess *session.Session) {
	m.session = sess
	m.email = sess.User().Email
	api := m.client.WithSession(sess)
	m.chat = chat.New(chat.Deps{
		API:           api,
		Session:       sess,
		Cache:         m.cache,
		Theme:         m.theme,
		Renderer:      render.New(m.cfg.Chat.Render, m.theme.IsDark),
		Streaming:     m.streaming.Load,
		FailureNotice: m.cfg.Chat.FailureNotice,
		RevealOptions: revealOptions(m.cfg),
		FrameInterval: m.cfg.FrameInterval(),
		Logger:        m.logger,
	})
	m.hasChat = true
	m.state = StateChat
}

func (m *Model) loggedIn(sess *session.Session) tea.Cmd {
	m.logger.Info("user logged in", "email", sess.User().Email)
	if m.cfg.Session.Remember {
		m.cfg.Session.Token = sess.Token()
		m.cfg.Session.RefreshToken = sess.RefreshToken()
		m.persist()
	}
	m.startChat(sess)

	var cmds []tea.Cmd
	cmds = append(cmds, m.chat.Init())
	if m.width > 0 {
		next, cmd := m.chat.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.chat = next.(chat.Model)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// toLogin ends the session and shows the login screen with notice.
func (m *Model) toLogin(notice string) tea.Cmd {
	email := m.email
	if m.session != nil {
		m.session.Logout()
	}
	if m.hasChat {
		m.chat.Shutdown()
	}
	m.hasChat = false
	m.session = nil

	if m.cfg.Session.Token != "" || m.cfg.Session.RefreshToken != "" {
		m.cfg.Session.Token = ""
		m.cfg.Session.RefreshToken = ""
		m.persist()
	}

	m.login.Reset()
	m.login.SetNotice(notice)
	if email != "" {
		m.login.SetEmail(email)
	}
	m.state = StateLogin
	return m.login.Init()
}

func (m *Model) openSettings() tea.Cmd {
	m.settings = settings.New(m.client.WithSession(m.session), m.theme, m.streaming.Load(), m.logger)
	m.settings.SetSize(m.width, m.height)
	m.state = StateSettings
	return m.settings.Init()
}

func (m *Model) setStreaming(on bool) {
	m.streaming.Store(on)
	m.cfg.Chat.Streaming = on
	m.persist()
}

func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", "error", msg.Err)
		return
	}
	cfg := msg.Config
	// Credentials and the backend address only change on restart.
	cfg.Session = m.cfg.Session
	cfg.API = m.cfg.API
	m.cfg = cfg

	m.streaming.Store(cfg.Chat.Streaming)
	m.settings.SetStreaming(cfg.Chat.Streaming)
	if m.hasChat {
		m.chat.SetRenderer(render.New(cfg.Chat.Render, m.theme.IsDark))
		m.chat.SetRevealOptions(cfg.FrameInterval(), revealOptions(cfg)...)
	}
	m.logger.Info("config reloaded", "streaming", cfg.Chat.Streaming, "render", cfg.Chat.Render)
}

func (m *Model) persist() {
	if err := m.save(m.cfg); err != nil {
		m.logger.Error("failed to save config", "error", err)
	}
}

func revealOptions(cfg *config.Config) []reveal.Option {
	return []reveal.Option{
		reveal.WithInterval(cfg.RevealInterval()),
		reveal.WithRunLength(cfg.Reveal.MinRun, cfg.Reveal.MaxRun),
	}
}
