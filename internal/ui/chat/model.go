// Package chat implements the main conversation view.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/otg002/Lumabot/internal/keys"
	"github.com/otg002/Lumabot/internal/session"
	"github.com/otg002/Lumabot/internal/theme"
)

// TurnResultMsg carries the outcome of one processed utterance back to
// the UI.
type TurnResultMsg struct {
	Turn session.Turn
	Err  error
}

// displayMessage represents a message rendered in the conversation viewport.
type displayMessage struct {
	Role    string
	Content string
	IsError bool
}

// Model is the chat view: a conversation viewport over a text input,
// with every submitted utterance routed through the session engine.
type Model struct {
	engine   *session.Engine
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	messages []displayMessage
	busy     bool
	note     string
	keys     *keys.KeyMap
	width    int
	height   int
	noAPIKey bool
}

// New creates a new chat model. If engine is nil (no API key configured),
// the view displays a configuration prompt instead.
func New(engine *session.Engine, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "How can I help with your email?"
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vpHeight := height - 8 // space for input area + borders
	if vpHeight < 4 {
		vpHeight = 4
	}

	vp := viewport.New(width-4, vpHeight)
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.PendingStyle

	return Model{
		engine:   engine,
		input:    ta,
		viewport: vp,
		spinner:  sp,
		messages: make([]displayMessage, 0),
		keys:     k,
		width:    width,
		height:   height,
		noAPIKey: engine == nil,
	}
}

// Init returns the initial command for the chat view.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// AwaitingConfirmation reports whether a draft is pending approval.
func (m Model) AwaitingConfirmation() bool {
	return m.engine != nil && m.engine.AwaitingConfirmation()
}

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TurnResultMsg:
		return m.handleTurnResult(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the chat view.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.noAPIKey || m.busy {
			return m, nil
		}

		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		m.input.Reset()
		m.note = ""
		m.messages = append(m.messages, displayMessage{
			Role:    "You",
			Content: text,
		})
		m.busy = true
		m.refreshViewport()

		return m, tea.Batch(m.processUtterance(text), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleTurnResult renders the engine's replies for one turn.
func (m Model) handleTurnResult(msg TurnResultMsg) (Model, tea.Cmd) {
	m.busy = false

	if msg.Turn.DraftDiscarded {
		m.note = "Draft discarded."
	}

	for _, reply := range msg.Turn.Replies {
		m.messages = append(m.messages, displayMessage{
			Role:    "Assistant",
			Content: reply,
		})
	}

	if msg.Err != nil {
		m.messages = append(m.messages, displayMessage{
			Role:    "Assistant",
			Content: fmt.Sprintf("Error: %v", msg.Err),
			IsError: true,
		})
	}

	m.refreshViewport()
	return m, nil
}

// processUtterance returns a command that runs one turn through the
// session engine.
func (m Model) processUtterance(text string) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		turn, err := engine.HandleUtterance(context.Background(), text)
		return TurnResultMsg{Turn: turn, Err: err}
	}
}

// Reset clears the conversation display and starts a fresh session.
func (m *Model) Reset() {
	m.messages = m.messages[:0]
	m.busy = false
	m.note = ""
	m.input.Reset()
	if m.engine != nil {
		m.engine.NewSession()
	}
	m.refreshViewport()
}

// refreshViewport re-renders the conversation content and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation builds the conversation display string.
func (m Model) renderConversation() string {
	if len(m.messages) == 0 && !m.noAPIKey {
		return theme.HelpStyle.Render(
			"Describe the email you want to send, e.g. " +
				"\"Email Bob at bob@co.com about the meeting tomorrow " +
				"at 3pm, subject Meeting Reminder\".")
	}

	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	var sections []string
	for _, msg := range m.messages {
		var label string
		switch {
		case msg.IsError:
			label = theme.ErrorStyle.Render("Assistant:")
		case msg.Role == "You":
			label = theme.UserLabelStyle.Render("You:")
		default:
			label = theme.AssistantLabelStyle.Render("Assistant:")
		}

		body := contentStyle.Render(msg.Content)
		if msg.IsError {
			body = theme.ErrorStyle.Render(msg.Content)
		}

		sections = append(sections, label, body, "")
	}

	if m.busy {
		sections = append(sections, m.spinner.View()+theme.HelpStyle.Render("thinking"))
	}

	return strings.Join(sections, "\n")
}

// View renders the chat view.
func (m Model) View() string {
	if m.noAPIKey {
		return m.renderNoAPIKey()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("AI Email Assistant")

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", min(m.width-6, 80)),
	)

	var footer string
	switch {
	case m.AwaitingConfirmation():
		footer = theme.PendingStyle.Render(
			"A draft is waiting. Reply 'yes' or 'send it' to dispatch it.")
	case m.note != "":
		footer = theme.HelpStyle.Render(m.note)
	}

	parts := []string{title, m.viewport.View(), separator, m.input.View()}
	if footer != "" {
		parts = append(parts, footer)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// renderNoAPIKey shows a message when the API key is not configured.
func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width - 4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "Lumabot requires an OpenAI API key.\n\n" +
		"To configure, store your API key in the system keyring:\n" +
		"  Key name: openai-api-key\n\n" +
		"Or set the OPENAI_API_KEY environment variable.\n\n" +
		"Press ctrl+s for account setup."

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the chat view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)

	vpHeight := height - 8
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
