package app

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"niftydesk/internal/api"
	"niftydesk/internal/session"
)

var formBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("4")).
	Padding(1, 3)

func newAuthInput(placeholder string, password bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.Width = 32
	if password {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

type loginModel struct {
	inputs     []textinput.Model // email, password
	focus      int
	submitting bool
	errText    string
}

func newLoginModel() loginModel {
	m := loginModel{
		inputs: []textinput.Model{
			newAuthInput("email", false),
			newAuthInput("password", true),
		},
	}
	m.inputs[0].Focus()
	return m
}

func (m loginModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) setFocus(i int) loginModel {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

func (m loginModel) update(msg tea.Msg, client *api.Client, store *session.Store, log *slog.Logger) (loginModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return m.setFocus((m.focus + 1) % len(m.inputs)), nil
		case "shift+tab", "up":
			return m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs)), nil
		case "ctrl+n":
			return m, func() tea.Msg { return gotoSignupMsg{} }
		case "ctrl+d":
			// Straight to the dashboard without logging in. Requests
			// made without a session fail server-side, not here.
			return m, func() tea.Msg { return loginDoneMsg{} }
		case "enter":
			if m.submitting {
				return m, nil
			}
			email := strings.TrimSpace(m.inputs[0].Value())
			password := m.inputs[1].Value()
			if email == "" || password == "" {
				m.errText = "Email and password are required"
				return m, nil
			}
			m.submitting = true
			m.errText = ""
			return m, loginCmd(client, store, log, email, password)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m loginModel) handleDone(msg loginDoneMsg) loginModel {
	m.submitting = false
	if msg.err != nil {
		m.errText = authErrorText(msg.err)
	}
	return m
}

func (m loginModel) view(width, height int) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("NIFTY Advisor — Sign In"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.submitting {
		b.WriteString("\n" + subtleStyle.Render("Signing in..."))
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	}
	b.WriteString("\n\n" + subtleStyle.Render("enter: sign in · ctrl+n: create account · ctrl+d: skip · ctrl+c: quit"))
	return centerBox(width, height, formBoxStyle.Render(b.String()))
}

type signupModel struct {
	inputs     []textinput.Model // name, email, password
	focus      int
	submitting bool
	okText     string
	errText    string
}

func newSignupModel() signupModel {
	m := signupModel{
		inputs: []textinput.Model{
			newAuthInput("name", false),
			newAuthInput("email", false),
			newAuthInput("password", true),
		},
	}
	m.inputs[0].Focus()
	return m
}

func (m signupModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m signupModel) setFocus(i int) signupModel {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

func (m signupModel) update(msg tea.Msg, client *api.Client, log *slog.Logger) (signupModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return m.setFocus((m.focus + 1) % len(m.inputs)), nil
		case "shift+tab", "up":
			return m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs)), nil
		case "esc":
			return m, func() tea.Msg { return gotoLoginMsg{} }
		case "enter":
			if m.submitting || m.okText != "" {
				return m, nil
			}
			name := strings.TrimSpace(m.inputs[0].Value())
			email := strings.TrimSpace(m.inputs[1].Value())
			password := m.inputs[2].Value()
			if name == "" || email == "" || password == "" {
				m.errText = "All fields are required"
				return m, nil
			}
			m.submitting = true
			m.errText = ""
			return m, signupCmd(client, name, email, password)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m signupModel) handleDone(msg signupDoneMsg) signupModel {
	m.submitting = false
	if msg.err != nil {
		m.errText = authErrorText(msg.err)
		return m
	}
	m.okText = msg.message
	if m.okText == "" {
		m.okText = "Account created."
	}
	return m
}

func (m signupModel) view(width, height int) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("NIFTY Advisor — Create Account"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.submitting {
		b.WriteString("\n" + subtleStyle.Render("Creating account..."))
	}
	if m.okText != "" {
		b.WriteString("\n" + successStyle.Render(m.okText+" Redirecting to sign in..."))
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	}
	b.WriteString("\n\n" + subtleStyle.Render("enter: create account · esc: back to sign in · ctrl+c: quit"))
	return centerBox(width, height, formBoxStyle.Render(b.String()))
}

func centerBox(width, height int, content string) string {
	if width <= 0 || height <= 0 {
		return content
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
