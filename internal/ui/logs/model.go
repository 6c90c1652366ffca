// Package logs implements the log pane over the in-memory ring buffer.
package logs

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/otg002/Lumabot/internal/logging"
	"github.com/otg002/Lumabot/internal/theme"
)

// Model is the logs view: a scrollable viewport over the most recent
// log lines.
type Model struct {
	ring     *logging.Ring
	viewport viewport.Model
	width    int
	height   int
}

// New creates a logs view over the given ring buffer.
func New(ring *logging.Ring, width, height int) Model {
	vp := viewport.New(width-4, contentHeight(height))
	return Model{
		ring:     ring,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the logs view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Refresh reloads the viewport content from the ring buffer and scrolls
// to the newest line.
func (m *Model) Refresh() {
	lines := m.ring.Lines()
	if len(lines) == 0 {
		m.viewport.SetContent(theme.HelpStyle.Render("No log entries yet."))
		return
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// View renders the logs view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Logs")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the logs view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = contentHeight(height)
}

func contentHeight(height int) int {
	h := height - 6
	if h < 4 {
		h = 4
	}
	return h
}
