package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pschneider14/venturelens/internal/app"
)

const authTimeout = 15 * time.Second

// authResultMsg carries the outcome of a login or signup attempt.
type authResultMsg struct {
	signup bool
	err    error
}

type loginField int

const (
	fieldUsername loginField = iota
	fieldEmail
	fieldPassword
)

// loginModel is the combined login/signup form.
type loginModel struct {
	signupMode bool
	focus      loginField
	username   string
	email      string
	password   string
	busy       bool
	notice     string
	errText    string
}

func newLoginModel() loginModel {
	return loginModel{}
}

func (m loginModel) update(msg tea.KeyMsg, svc *app.Service) (loginModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.focus = m.nextField(m.focus)
		return m, nil
	case "shift+tab", "up":
		m.focus = m.prevField(m.focus)
		return m, nil
	case "ctrl+s":
		m.signupMode = !m.signupMode
		m.focus = fieldUsername
		m.errText = ""
		return m, nil
	case "enter":
		return m.submit(svc)
	case "backspace":
		m.setActive(trimLast(m.active()))
		return m, nil
	}

	if len(msg.Runes) > 0 {
		m.setActive(m.active() + string(msg.Runes))
	}
	return m, nil
}

func (m loginModel) submit(svc *app.Service) (loginModel, tea.Cmd) {
	username := strings.TrimSpace(m.username)
	password := m.password
	if username == "" || password == "" {
		m.errText = "username and password are required"
		return m, nil
	}

	m.busy = true
	m.errText = ""

	if m.signupMode {
		email := strings.TrimSpace(m.email)
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
			defer cancel()
			return authResultMsg{signup: true, err: svc.Signup(ctx, username, email, password)}
		}
	}

	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		_, err := svc.Login(ctx, username, password)
		return authResultMsg{err: err}
	}
}

func (m loginModel) handleAuthResult(msg authResultMsg) (loginModel, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.errText = msg.err.Error()
		return m, nil
	}
	if msg.signup {
		// Mirror the web client: register, then return to the login form.
		m.signupMode = false
		m.password = ""
		m.focus = fieldPassword
		m.notice = "Account created, log in to continue"
	}
	return m, nil
}

func (m loginModel) nextField(f loginField) loginField {
	switch f {
	case fieldUsername:
		if m.signupMode {
			return fieldEmail
		}
		return fieldPassword
	case fieldEmail:
		return fieldPassword
	default:
		return fieldUsername
	}
}

func (m loginModel) prevField(f loginField) loginField {
	switch f {
	case fieldPassword:
		if m.signupMode {
			return fieldEmail
		}
		return fieldUsername
	case fieldEmail:
		return fieldUsername
	default:
		return fieldPassword
	}
}

func (m loginModel) active() string {
	switch m.focus {
	case fieldEmail:
		return m.email
	case fieldPassword:
		return m.password
	default:
		return m.username
	}
}

func (m *loginModel) setActive(v string) {
	switch m.focus {
	case fieldEmail:
		m.email = v
	case fieldPassword:
		m.password = v
	default:
		m.username = v
	}
}

func trimLast(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}

func (m loginModel) view() string {
	var b strings.Builder

	if m.signupMode {
		b.WriteString(titleStyle.Render("Sign up") + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Log in") + "\n\n")
	}

	if m.notice != "" {
		b.WriteString(warnStyle.Render(m.notice) + "\n\n")
	}

	b.WriteString(renderField("Username", m.username, m.focus == fieldUsername, false) + "\n")
	if m.signupMode {
		b.WriteString(renderField("Email", m.email, m.focus == fieldEmail, false) + "\n")
	}
	b.WriteString(renderField("Password", m.password, m.focus == fieldPassword, true) + "\n\n")

	if m.busy {
		b.WriteString(subtleStyle.Render("Authenticating...") + "\n")
	}
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText) + "\n")
	}

	b.WriteString("\n" + subtleStyle.Render("enter submit · tab next field · ctrl+s switch login/signup · ctrl+c quit"))
	return b.String()
}

func renderField(label, value string, focused, secret bool) string {
	shown := value
	if secret {
		shown = strings.Repeat("*", len([]rune(value)))
	}
	line := label + ": " + shown
	if focused {
		return selectedStyle.Render("> " + line + "▎")
	}
	return "  " + line
}
