// Package app wires the views together into the root Bubble Tea model.
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/otg002/Lumabot/internal/keys"
	"github.com/otg002/Lumabot/internal/logging"
	"github.com/otg002/Lumabot/internal/model"
	"github.com/otg002/Lumabot/internal/session"
	"github.com/otg002/Lumabot/internal/ui"
	"github.com/otg002/Lumabot/internal/ui/chat"
	helpview "github.com/otg002/Lumabot/internal/ui/help"
	logsview "github.com/otg002/Lumabot/internal/ui/logs"
	setupview "github.com/otg002/Lumabot/internal/ui/setup"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewChat ViewState = iota
	ViewLogs
	ViewSetup
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing and
// layout.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	chatView  chat.Model
	logsView  logsview.Model
	setupView setupview.Model
	helpView  helpview.Model

	ready     bool
	statusMsg string
}

// New creates the root application model. engine may be nil when no API
// key is configured; the chat view then shows setup instructions.
func New(
	engine *session.Engine,
	cfg *model.AppConfig,
	configPath string,
	ring *logging.Ring,
) Model {
	k := keys.DefaultKeyMap()

	initial := ViewChat
	if !cfg.Complete() {
		initial = ViewSetup
	}

	return Model{
		currentView: initial,
		keys:        k,
		chatView:    chat.New(engine, k, 80, 24),
		logsView:    logsview.New(ring, 80, 24),
		setupView:   setupview.New(cfg, configPath, 80, 24),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewSetup {
		return m.setupView.Init()
	}
	return m.chatView.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.chatView.SetSize(contentWidth, contentHeight)
		m.logsView.SetSize(contentWidth, contentHeight)
		m.setupView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay out.
		return m.updateActiveView(msg)

	case setupview.DoneMsg:
		if msg.Saved {
			m.statusMsg = "Configuration saved. Restart to apply new credentials."
		}
		m.currentView = ViewChat
		return m, m.chatView.Focus()

	case chat.TurnResultMsg:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveView(msg)
}

// handleKeyMsg routes global keybindings before delegating to the
// active view.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+l":
		if m.currentView == ViewLogs {
			m.currentView = m.previousView
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewLogs
		m.logsView.Refresh()
		return m, nil

	case "ctrl+s":
		if m.currentView != ViewSetup {
			m.previousView = m.currentView
			m.currentView = ViewSetup
			m.setupView.Reset()
			return m, m.setupView.Init()
		}
		return m, nil

	case "ctrl+h":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case "ctrl+n":
		if m.currentView == ViewChat {
			m.chatView.Reset()
			m.statusMsg = "Started a new conversation."
		}
		return m, nil

	case "esc":
		switch m.currentView {
		case ViewLogs, ViewHelp:
			m.currentView = m.previousView
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches a message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewLogs:
		m.logsView, cmd = m.logsView.Update(msg)
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full application frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var content string
	switch m.currentView {
	case ViewChat:
		content = m.chatView.View()
	case ViewLogs:
		content = m.logsView.View()
	case ViewSetup:
		content = m.setupView.View()
	case ViewHelp:
		content = m.helpView.View()
	}

	var state string
	if m.chatView.AwaitingConfirmation() {
		state = "awaiting confirmation"
	}

	header := m.layout.RenderHeader("📧 Lumabot", state)
	statusBar := m.layout.RenderStatusBar(m.statusHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// statusHints returns the keyboard hints for the current view.
func (m Model) statusHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewChat:
		return "enter: send • ctrl+n: new conversation • ctrl+l: logs • ctrl+h: help • ctrl+c: quit"
	case ViewLogs:
		return "esc: back • ctrl+c: quit"
	case ViewSetup:
		return "enter: next field • esc: cancel • ctrl+c: quit"
	case ViewHelp:
		return "esc: back • ctrl+c: quit"
	}
	return ""
}
