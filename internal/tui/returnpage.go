package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type returnOpenedMsg struct {
	url string
	err error
}

// returnModel opens the gateway's return page for an order. The page itself
// is served by the backend; nothing here interprets it.
type returnModel struct {
	api     DataAPI
	open    func(string) error
	orderID string
	editing bool
	opened  string
}

func newReturnModel(api DataAPI, open func(string) error) returnModel {
	return returnModel{api: api, open: open}
}

func (m returnModel) Update(msg tea.Msg) (returnModel, tea.Cmd) {
	switch msg := msg.(type) {
	case returnOpenedMsg:
		if msg.err == nil {
			m.opened = msg.url
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			switch msg.String() {
			case "esc":
				m.editing = false
			case "enter":
				m.editing = false
				return m, m.openPage()
			default:
				m.orderID = editRune(m.orderID, msg.String())
			}
			return m, nil
		}
		switch msg.String() {
		case "e", "i":
			m.editing = true
		case "enter", "o":
			return m, m.openPage()
		}
	}
	return m, nil
}

func (m returnModel) openPage() tea.Cmd {
	id := strings.TrimSpace(m.orderID)
	if id == "" {
		return nil
	}
	u := m.api.ReturnURL(id)
	open := m.open
	return func() tea.Msg {
		return returnOpenedMsg{url: u, err: open(u)}
	}
}

func (m returnModel) View(frame int) string {
	var b strings.Builder
	b.WriteString("\n " + sectionHeaderStyle.Render("PAYMENT RETURN") + "\n\n")
	b.WriteString(renderField(field{label: "order id", value: m.orderID}, m.editing, frame) + "\n\n")
	b.WriteString(" " + dimStyle.Render("Payment status is settled by the gateway and the backend.") + "\n")
	if m.opened != "" {
		b.WriteString(" " + accentStyle.Render("Opened "+m.opened) + "\n")
	}
	return b.String()
}
