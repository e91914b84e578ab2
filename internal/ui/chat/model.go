// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/chatflow"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/reveal"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/render"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
)

const (
	eventBuffer  = 64
	listTimeout  = 15 * time.Second
	noticeTTL    = 3 * time.Second
	inputLimit   = 4000
	minMainWidth = 30
)

// suggestions are offered on the welcome screen.
var suggestions = []string{
	"What topics can you answer questions about?",
	"Summarize the most recent documents you have indexed.",
	"Which sources did you use for your last answer?",
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// API is the part of the backend client the chat view uses.
type API interface {
	chatflow.ChatAPI
	ListConversations(ctx context.Context) ([]model.ConversationSummary, error)
	GetConversation(ctx context.Context, id int64) (*backend.Conversation, error)
	DeleteAllConversations(ctx context.Context) (int, error)
}

// HistoryCache keeps the last conversation list for offline use.
type HistoryCache interface {
	ReplaceConversations(ctx context.Context, account string, list []model.ConversationSummary) error
	Conversations(ctx context.Context, account string) ([]model.ConversationSummary, time.Time, error)
	ClearConversations(ctx context.Context, account string) error
}

// Deps wires a chat view. API and Session are required.
type Deps struct {
	API      API
	Session  *session.Session
	Cache    HistoryCache
	Theme    *styles.Theme
	Renderer render.Strategy

	// Streaming is consulted on every submission.
	Streaming     func() bool
	FailureNotice string
	RevealOptions []reveal.Option
	FrameInterval time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// =============================================================================
// MODEL
// =============================================================================

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Model is the chat view.
type Model struct {
	api       API
	session   *session.Session
	cache     HistoryCache
	runner    *chatflow.Runner
	streaming func() bool
	logger    *slog.Logger
	now       func() time.Time

	theme    *styles.Theme
	renderer render.Strategy
	keys     KeyMap

	transcript *model.Transcript
	reveals    *reveal.Set
	frame      time.Duration
	rendered   map[string]renderedMessage

	// Sidebar
	conversationID int64
	conversations  []model.ConversationSummary
	listLoading    bool
	listCached     bool
	listSyncedAt   time.Time
	cursor         int
	confirmDelete  bool

	focus      focusArea
	suggestion int

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	// In-flight submission
	loading    bool
	sub        int
	activeID   string
	streamMode bool
	cancel     context.CancelFunc

	notice    string
	noticeErr bool
	noticeID  int

	width  int
	height int
}

// New creates a chat view.
func New(d Deps) Model {
	if d.Theme == nil {
		d.Theme = styles.NewTheme()
	}
	if d.Renderer == nil {
		d.Renderer = render.Plain{}
	}
	if d.Streaming == nil {
		d.Streaming = func() bool { return true }
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.FrameInterval <= 0 {
		d.FrameInterval = reveal.DefaultFrame
	}

	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.CharLimit = inputLimit
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = d.Theme.Waiting

	return Model{
		api:       d.API,
		session:   d.Session,
		cache:     d.Cache,
		streaming: d.Streaming,
		logger:    d.Logger,
		now:       d.Now,
		runner: chatflow.NewRunner(d.API, d.Session, d.Streaming,
			chatflow.WithFailureNotice(d.FailureNotice),
			chatflow.WithLogger(d.Logger)),
		theme:       d.Theme,
		renderer:    d.Renderer,
		keys:        DefaultKeyMap(),
		transcript:  model.NewTranscript(),
		reveals:     reveal.NewSet(d.RevealOptions...),
		frame:       d.FrameInterval,
		rendered:    make(map[string]renderedMessage),
		suggestion:  -1,
		listLoading: true,
		input:       ti,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
	}
}

// SetRenderer swaps the answer render strategy.
func (m *Model) SetRenderer(s render.Strategy) {
	if s == nil {
		return
	}
	m.renderer = s
	clear(m.rendered)
	m.refresh()
}

// SetRevealOptions applies typewriter settings to answers started later.
func (m *Model) SetRevealOptions(frame time.Duration, opts ...reveal.Option) {
	if frame > 0 {
		m.frame = frame
	}
	m.reveals.Configure(opts...)
}

// ConversationID returns the open conversation, 0 for a new one.
func (m Model) ConversationID() int64 { return m.conversationID }

// Loading reports whether a submission is in flight.
func (m Model) Loading() bool { return m.loading }

// Transcript exposes the message list.
func (m Model) Transcript() *model.Transcript { return m.transcript }

// Conversations returns the sidebar list.
func (m Model) Conversations() []model.ConversationSummary { return m.conversations }

// Shutdown cancels any in-flight submission and stops every typewriter.
func (m *Model) Shutdown() {
	m.abandon()
	m.reveals.Reset()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init loads the conversation list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadConversations())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case streamClosedMsg:
		return m.handleStreamClosed(msg)

	case RevealTickMsg:
		return m.handleRevealTick(msg)

	case ConversationsLoadedMsg:
		return m.handleConversationsLoaded(msg)

	case ConversationLoadedMsg:
		return m.handleConversationLoaded(msg)

	case ConversationsDeletedMsg:
		return m.handleConversationsDeleted(msg)

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmDelete = false
			cmd := m.deleteAllConversations()
			return m, cmd
		case key.Matches(msg, m.keys.Deny):
			m.confirmDelete = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel) && m.loading:
		m.stopSubmission()
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		m.newConversation()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		cmd := m.toggleFocus()
		return m, cmd
	case key.Matches(msg, m.keys.DeleteAll):
		if len(m.conversations) > 0 {
			m.confirmDelete = true
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.loadConversations()
		return m, cmd
	case key.Matches(msg, m.keys.Settings):
		return m, func() tea.Msg { return OpenSettingsMsg{} }
	case key.Matches(msg, m.keys.Logout):
		return m, func() tea.Msg { return LogoutMsg{} }
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.loading {
			return m, nil
		}
		return m.submit(m.input.Value())
	case key.Matches(msg, m.keys.Up, m.keys.Down) && m.transcript.IsEmpty():
		m.cycleSuggestion(key.Matches(msg, m.keys.Down))
		return m, nil
	case key.Matches(msg, m.keys.Up, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if m.loading {
		// Input is read-only while an answer is pending.
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) cycleSuggestion(forward bool) {
	n := len(suggestions)
	switch {
	case m.suggestion < 0 && forward:
		m.suggestion = 0
	case m.suggestion < 0:
		m.suggestion = n - 1
	case forward:
		m.suggestion = (m.suggestion + 1) % n
	default:
		m.suggestion = (m.suggestion + n - 1) % n
	}
	m.input.SetValue(suggestions[m.suggestion])
	m.input.CursorEnd()
	m.refresh()
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusInput {
		m.focus = focusSidebar
		m.input.Blur()
		m.cursor = m.activeIndex()
		return nil
	}
	m.focus = focusInput
	return m.input.Focus()
}

// =============================================================================
// NOTICES AND LAYOUT
// =============================================================================

func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeID++
	m.notice = text
	m.noticeErr = isErr
	id := m.noticeID
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{id: id} })
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height

	mainWidth := m.mainWidth()
	m.input.Width = max(mainWidth-8, 10)

	// header(2) + input box(3) + notice(1) + help(1)
	m.viewport.Width = mainWidth
	m.viewport.Height = max(height-7, 3)
	clear(m.rendered)
	m.refresh()
}

func (m Model) mainWidth() int {
	w := m.width - styles.SidebarWidth - 1
	if w < minMainWidth {
		return max(m.width, minMainWidth)
	}
	return w
}

// sidebarVisible reports whether the terminal is wide enough for both panes.
func (m Model) sidebarVisible() bool {
	return m.width-styles.SidebarWidth-1 >= minMainWidth
}
