package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type authMode int

const (
	modeLogin authMode = iota
	modeRegister
)

func (m authMode) String() string {
	if m == modeRegister {
		return "register"
	}
	return "login"
}

func (m authMode) fallback() string {
	if m == modeRegister {
		return "Register failed"
	}
	return "Login failed"
}

const (
	loginEmail = iota
	loginPassword
)

// authDoneMsg carries the result of a register or login call.
type authDoneMsg struct {
	mode  authMode
	email string
	err   error
}

type loginModel struct {
	session Session
	form    form
	mode    authMode
	editing bool
	busy    bool
	status  string
}

func newLoginModel(s Session) loginModel {
	return loginModel{
		session: s,
		form: form{fields: []field{
			{label: "email"},
			{label: "password", secret: true},
		}},
		editing: true,
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		m.busy = false
		m.form.fields[loginPassword].value = ""
		if msg.err != nil {
			m.status = ""
			m.form.focus = loginPassword
			return m, nil
		}
		if msg.mode == modeRegister {
			m.mode = modeLogin
			m.status = "Registered " + msg.email + ". Log in to continue."
		} else {
			m.status = "Logged in as " + msg.email
			m.editing = false
		}
		m.form.focus = loginPassword
		return m, nil

	case tea.KeyMsg:
		if !m.editing {
			if msg.String() == "enter" || msg.String() == "i" {
				m.editing = true
			}
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
	case "tab", "down":
		m.form.next()
	case "shift+tab", "up":
		m.form.prev()
	case "ctrl+r":
		if m.mode == modeLogin {
			m.mode = modeRegister
		} else {
			m.mode = modeLogin
		}
		m.status = ""
	case "enter":
		if !m.form.last() {
			m.form.next()
			return m, nil
		}
		return m.submit()
	default:
		m.form.edit(msg.String())
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	email := m.form.value(loginEmail)
	password := m.form.fields[loginPassword].value
	if email == "" || password == "" {
		m.status = "Email and password are required"
		return m, nil
	}
	m.busy = true
	m.status = ""
	s, mode := m.session, m.mode
	return m, func() tea.Msg {
		var err error
		if mode == modeRegister {
			_, err = s.Register(context.Background(), email, password)
		} else {
			_, err = s.Login(context.Background(), email, password)
		}
		return authDoneMsg{mode: mode, email: email, err: err}
	}
}

func (m loginModel) View(frame int) string {
	var b strings.Builder
	title := "Log in"
	other := "register"
	if m.mode == modeRegister {
		title = "Create an account"
		other = "log in"
	}
	b.WriteString("\n " + selectedStyle.Render(title) + "  " + metaStyle.Render("ctrl+r to "+other) + "\n\n")
	b.WriteString(m.form.view(frame, m.editing))
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("working...") + "\n")
	case m.status != "":
		b.WriteString(" " + accentStyle.Render(m.status) + "\n")
	}
	return b.String()
}
