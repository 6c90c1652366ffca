// Package setup implements the account configuration form.
package setup

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/otg002/Lumabot/internal/credential"
	"github.com/otg002/Lumabot/internal/model"
	"github.com/otg002/Lumabot/internal/theme"
)

// DoneMsg signals the setup view should close. Saved reports whether a
// configuration was written (a restart picks up new credentials).
type DoneMsg struct {
	Saved bool
}

// values holds the form field bindings. It sits behind a pointer so huh's
// bindings stay valid as the model is copied between updates.
type values struct {
	from     string
	smtpHost string
	smtpPort string
	password string
	imapHost string
	apiKey   string
}

// Model is the Bubble Tea model for the account setup form.
type Model struct {
	cfg        *model.AppConfig
	configPath string

	form *huh.Form
	vals *values

	statusMsg string
	width     int
	height    int
}

// New creates a setup view pre-filled from the current configuration.
func New(cfg *model.AppConfig, configPath string, width, height int) Model {
	m := Model{
		cfg:        cfg,
		configPath: configPath,
		vals:       &values{},
		width:      width,
		height:     height,
	}
	m.prefill()
	m.form = newForm(m.vals, m.formWidth())
	return m
}

// prefill copies the current configuration into the form bindings.
// Secrets are never read back out of the keyring; their fields start
// empty and are only written when the user enters something.
func (m *Model) prefill() {
	m.vals.from = m.cfg.SMTP.From
	m.vals.smtpHost = m.cfg.SMTP.Host
	m.vals.smtpPort = ""
	if m.cfg.SMTP.Port > 0 {
		m.vals.smtpPort = strconv.Itoa(m.cfg.SMTP.Port)
	}
	m.vals.imapHost = m.cfg.IMAP.Host
	m.vals.password = ""
	m.vals.apiKey = ""
}

// Reset rebuilds the form from the current configuration, discarding any
// half-entered state from a previous visit.
func (m *Model) Reset() {
	m.prefill()
	m.statusMsg = ""
	m.form = newForm(m.vals, m.formWidth())
}

// Init returns the form's initial command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

func newForm(v *values, width int) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Mail account address").
				Description("Used as the From address and SMTP username").
				Placeholder("you@example.com").
				Value(&v.from).
				Validate(validateRequired("Address")),
			huh.NewInput().
				Title("SMTP relay host").
				Placeholder("smtp.gmail.com").
				Value(&v.smtpHost).
				Validate(validateRequired("Host")),
			huh.NewInput().
				Title("SMTP port").
				Placeholder("587").
				Value(&v.smtpPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Mail account password").
				Description("Stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&v.password),
			huh.NewInput().
				Title("IMAP host").
				Description("Optional; enables saving sent mail to the Sent folder").
				Placeholder("imap.gmail.com").
				Value(&v.imapHost),
			huh.NewInput().
				Title("OpenAI API key").
				Description("Stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&v.apiKey),
		),
	).WithWidth(width)
}

// Update handles messages for the setup view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.save()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

// save persists the configuration and credentials and closes the view.
func (m Model) save() (Model, tea.Cmd) {
	m.cfg.SMTP.From = strings.TrimSpace(m.vals.from)
	m.cfg.SMTP.Host = strings.TrimSpace(m.vals.smtpHost)
	if port, err := strconv.Atoi(strings.TrimSpace(m.vals.smtpPort)); err == nil {
		m.cfg.SMTP.Port = port
	}
	m.cfg.IMAP.Host = strings.TrimSpace(m.vals.imapHost)

	if m.vals.password != "" {
		if err := credential.Set(credential.KeySMTPPassword, m.vals.password); err != nil {
			m.statusMsg = fmt.Sprintf("Error saving password: %v", err)
			return m, nil
		}
	}
	if m.vals.apiKey != "" {
		if err := credential.Set(credential.KeyOpenAIAPIKey, m.vals.apiKey); err != nil {
			m.statusMsg = fmt.Sprintf("Error saving API key: %v", err)
			return m, nil
		}
	}

	if err := model.SaveConfig(m.configPath, m.cfg); err != nil {
		m.statusMsg = fmt.Sprintf("Error saving config: %v", err)
		return m, nil
	}

	return m, func() tea.Msg { return DoneMsg{Saved: true} }
}

// View renders the setup form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Account Setup")

	parts := []string{title, m.form.View()}
	if m.statusMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.statusMsg))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the setup view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

func validateRequired(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validatePort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
