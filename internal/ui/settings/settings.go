// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides the settings view: URL configurations for the
// knowledge base, scrape triggers and the streaming toggle.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/render"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
	"github.com/rln-tomas/chatbot-rag-front/internal/validate"
)

const (
	// PageSize is the number of configs shown per page.
	PageSize = 10

	addNoticeTTL    = 3 * time.Second
	scrapeNoticeTTL = 5 * time.Second
	requestTimeout  = 15 * time.Second
)

// API is the part of the backend client the settings view uses.
type API interface {
	ListConfigs(ctx context.Context, page, pageSize int) (model.ConfigPage, error)
	CreateURLConfig(ctx context.Context, rawURL string) (model.URLConfig, error)
	StartScraping(ctx context.Context, configID int64) (string, error)
}

// =============================================================================
// MESSAGES
// =============================================================================

// ConfigsLoadedMsg delivers a page of URL configurations.
type ConfigsLoadedMsg struct {
	Page model.ConfigPage
	Err  error
}

// ConfigCreatedMsg reports the result of adding a URL.
type ConfigCreatedMsg struct {
	Config model.URLConfig
	Err    error
}

// ScrapeStartedMsg reports the result of a scrape trigger.
type ScrapeStartedMsg struct {
	ConfigID int64
	TaskID   string
	Err      error
}

// StreamingToggledMsg asks the app to persist the streaming setting.
type StreamingToggledMsg struct {
	Enabled bool
}

// BackMsg asks the app to return to the chat view.
type BackMsg struct{}

// AuthExpiredMsg asks the app to return to the login screen.
type AuthExpiredMsg struct {
	Err error
}

type noticeExpiredMsg struct {
	id int
}

// =============================================================================
// KEYS
// =============================================================================

// KeyMap defines the settings view bindings.
type KeyMap struct {
	Back      key.Binding
	Focus     key.Binding
	Submit    key.Binding
	Up        key.Binding
	Down      key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	Scrape    key.Binding
	Streaming key.Binding
	Refresh   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "back")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "switch")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "add")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up", "previous")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down", "next")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("left", "prev page")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("right", "next page")),
		Scrape:    key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "scrape")),
		Streaming: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("C-t", "streaming")),
		Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "refresh")),
	}
}

// =============================================================================
// MODEL
// =============================================================================

type focusArea int

const (
	focusForm focusArea = iota
	focusList
)

// Model is the settings view.
type Model struct {
	api    API
	theme  *styles.Theme
	keys   KeyMap
	logger *slog.Logger

	configs  []model.URLConfig
	total    int
	page     int
	loading  bool
	cursor   int
	scraping map[int64]bool

	focus     focusArea
	urlInput  textinput.Model
	adding    bool
	formErr   string
	streaming bool

	spinner spinner.Model

	notice    string
	noticeErr bool
	noticeID  int

	width  int
	height int
}

// New creates a settings view. streaming is the current toggle value.
func New(api API, theme *styles.Theme, streaming bool, logger *slog.Logger) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ti := textinput.New()
	ti.Placeholder = "https://example.com/docs"
	ti.CharLimit = 2048
	ti.Prompt = ""
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Waiting

	return Model{
		api:       api,
		theme:     theme,
		keys:      DefaultKeyMap(),
		logger:    logger,
		page:      1,
		loading:   true,
		scraping:  make(map[int64]bool),
		urlInput:  ti,
		streaming: streaming,
		spinner:   sp,
	}
}

// Configs returns the configs on the current page.
func (m Model) Configs() []model.URLConfig { return m.configs }

// Streaming returns the toggle value.
func (m Model) Streaming() bool { return m.streaming }

// SetStreaming updates the toggle, e.g. after a config file reload.
func (m *Model) SetStreaming(on bool) { m.streaming = on }

// SetSize sets the view size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.urlInput.Width = max(width-styles.SidebarWidth-12, 20)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadConfigs(1), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ConfigsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail("Could not load URL configurations", msg.Err)
		}
		m.configs = msg.Page.Items
		m.total = msg.Page.Total
		m.page = max(msg.Page.Page, 1)
		m.cursor = min(m.cursor, max(len(m.configs)-1, 0))
		return m, nil

	case ConfigCreatedMsg:
		m.adding = false
		if msg.Err != nil {
			return m.fail("Could not add the URL", msg.Err)
		}
		m.urlInput.Reset()
		m.logger.Info("url config added", "id", msg.Config.ID, "url", msg.Config.URL)
		notice := m.setNotice("URL added successfully", false, addNoticeTTL)
		reload := m.loadConfigs(m.page)
		return m, tea.Batch(notice, reload)

	case ScrapeStartedMsg:
		delete(m.scraping, msg.ConfigID)
		if msg.Err != nil {
			return m.fail("Could not start scraping", msg.Err)
		}
		m.logger.Info("scrape started", "config_id", msg.ConfigID, "task_id", msg.TaskID)
		notice := m.setNotice("Scraping started", false, scrapeNoticeTTL)
		reload := m.loadConfigs(m.page)
		return m, tea.Batch(notice, reload)

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil
	}

	if m.focus == focusForm {
		var cmd tea.Cmd
		m.urlInput, cmd = m.urlInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusForm {
			m.focus = focusList
			m.urlInput.Blur()
			return m, nil
		}
		m.focus = focusForm
		cmd := m.urlInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Streaming):
		m.streaming = !m.streaming
		on := m.streaming
		state := "off"
		if on {
			state = "on"
		}
		notice := m.setNotice("Streaming turned "+state, false, addNoticeTTL)
		return m, tea.Batch(func() tea.Msg { return StreamingToggledMsg{Enabled: on} }, notice)
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.loadConfigs(m.page)
		return m, cmd
	}

	if m.focus == focusForm {
		if key.Matches(msg, m.keys.Submit) {
			return m.addURL()
		}
		var cmd tea.Cmd
		m.urlInput, cmd = m.urlInput.Update(msg)
		m.formErr = ""
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.configs)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.page > 1 {
			cmd := m.loadConfigs(m.page - 1)
			return m, cmd
		}
	case key.Matches(msg, m.keys.NextPage):
		if m.page < m.pages() {
			cmd := m.loadConfigs(m.page + 1)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Scrape):
		return m.scrapeSelected()
	}
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) addURL() (tea.Model, tea.Cmd) {
	if m.adding {
		return m, nil
	}
	raw := strings.TrimSpace(m.urlInput.Value())
	if err := validate.URL(raw); err != nil {
		m.formErr = err.Error()
		return m, nil
	}
	m.formErr = ""
	m.adding = true
	api := m.api
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cfg, err := api.CreateURLConfig(ctx, raw)
		return ConfigCreatedMsg{Config: cfg, Err: err}
	})
}

func (m Model) scrapeSelected() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.configs) {
		return m, nil
	}
	cfg := m.configs[m.cursor]
	if !cfg.CanScrape() || m.scraping[cfg.ID] {
		return m, nil
	}
	m.scraping[cfg.ID] = true
	api := m.api
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		task, err := api.StartScraping(ctx, cfg.ID)
		return ScrapeStartedMsg{ConfigID: cfg.ID, TaskID: task, Err: err}
	})
}

func (m *Model) loadConfigs(page int) tea.Cmd {
	m.loading = true
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := api.ListConfigs(ctx, page, PageSize)
		return ConfigsLoadedMsg{Page: p, Err: err}
	}
}

// fail reports err, turning an expired session into AuthExpiredMsg.
func (m Model) fail(notice string, err error) (tea.Model, tea.Cmd) {
	if apierr.IsAuthExpired(err) {
		return m, func() tea.Msg { return AuthExpiredMsg{Err: err} }
	}
	m.logger.Error(strings.ToLower(notice), "error", err)
	cmd := m.setNotice(notice, true, addNoticeTTL)
	return m, cmd
}

func (m *Model) setNotice(text string, isErr bool, ttl time.Duration) tea.Cmd {
	m.noticeID++
	m.notice = text
	m.noticeErr = isErr
	id := m.noticeID
	return tea.Tick(ttl, func(time.Time) tea.Msg { return noticeExpiredMsg{id: id} })
}

func (m Model) busy() bool {
	return m.loading || m.adding || len(m.scraping) > 0
}

func (m Model) pages() int {
	if m.total <= 0 {
		return 1
	}
	return (m.total + PageSize - 1) / PageSize
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the settings view.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Settings"))
	b.WriteString("\n")

	// Streaming toggle
	toggle := m.theme.ButtonOff.Render("OFF")
	if m.streaming {
		toggle = m.theme.Button.Render("ON")
	}
	b.WriteString(m.theme.Label.Render("Streaming answers ") + toggle + m.theme.Muted.Render("  C-t to toggle"))
	b.WriteString("\n\n")

	// Add URL form
	inputStyle := m.theme.Input
	if m.focus == focusForm {
		inputStyle = m.theme.InputFocus
	}
	b.WriteString(m.theme.Label.Render("Add a URL to the knowledge base"))
	b.WriteString("\n")
	button := m.theme.Button.Render("Add")
	if m.adding {
		button = m.theme.ButtonOff.Render(m.spinner.View() + " Adding")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, inputStyle.Render(m.urlInput.View()), " ", button))
	b.WriteString("\n")
	if m.formErr != "" {
		b.WriteString(m.theme.Error.Render(m.formErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Config list
	heading := fmt.Sprintf("URL configurations (%d)", m.total)
	if m.loading {
		heading += " " + m.spinner.View()
	}
	b.WriteString(m.theme.Label.Render(heading))
	b.WriteString("\n")
	b.WriteString(m.viewConfigs())
	b.WriteString("\n")

	switch {
	case m.notice != "" && m.noticeErr:
		b.WriteString(m.theme.Error.Render(m.notice))
	case m.notice != "":
		b.WriteString(m.theme.Success.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render("Tab switch  Enter add/scrape  left/right page  C-r refresh  Esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) viewConfigs() string {
	if len(m.configs) == 0 {
		if m.loading {
			return m.theme.Muted.Render("Loading...")
		}
		return m.theme.Muted.Render("No URLs configured yet")
	}

	urlWidth := max(m.width-40, 20)
	rows := make([]string, 0, len(m.configs)+1)
	for i, c := range m.configs {
		marker := "  "
		if m.focus == focusList && i == m.cursor {
			marker = "› "
		}
		action := ""
		switch {
		case m.scraping[c.ID]:
			action = m.spinner.View() + " starting"
		case c.CanScrape():
			action = m.theme.SidebarButton.Render("[scrape]")
		}
		line := marker + render.Truncate(c.URL, urlWidth) + " " + m.theme.StatusBadge(c.Status) + " " + action
		rows = append(rows, line)
		if c.Status == model.StatusFailed && c.ErrorMessage != "" {
			rows = append(rows, m.theme.Error.Render("    "+render.Truncate(c.ErrorMessage, urlWidth)))
		}
	}
	if p := m.pages(); p > 1 {
		rows = append(rows, m.theme.Muted.Render(fmt.Sprintf("Page %d of %d", m.page, p)))
	}
	return strings.Join(rows, "\n")
}
