package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/plangate/pkg/domain"
)

type apiTestDoneMsg struct {
	data *domain.ProtectedData
	err  error
}

// apiTestModel calls the API-key protected endpoint the way a third-party
// integration would.
type apiTestModel struct {
	api     DataAPI
	key     string
	editing bool
	busy    bool
	result  *domain.ProtectedData
}

func newAPITestModel(api DataAPI, key string) apiTestModel {
	return apiTestModel{api: api, key: key}
}

func (m apiTestModel) Update(msg tea.Msg) (apiTestModel, tea.Cmd) {
	switch msg := msg.(type) {
	case apiTestDoneMsg:
		m.busy = false
		if msg.err == nil {
			m.result = msg.data
		} else {
			m.result = nil
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			switch msg.String() {
			case "esc":
				m.editing = false
			case "enter":
				m.editing = false
				return m.run()
			default:
				m.key = editRune(m.key, msg.String())
			}
			return m, nil
		}
		switch msg.String() {
		case "e", "i":
			m.editing = true
		case "enter", "r":
			return m.run()
		}
	}
	return m, nil
}

func (m apiTestModel) run() (apiTestModel, tea.Cmd) {
	key := strings.TrimSpace(m.key)
	if m.busy || key == "" {
		return m, nil
	}
	m.busy = true
	api := m.api
	return m, func() tea.Msg {
		data, err := api.ProtectedData(context.Background(), key)
		return apiTestDoneMsg{data: data, err: err}
	}
}

// maskKey keeps the last four characters of an API key visible.
func maskKey(key string) string {
	r := []rune(key)
	if len(r) <= 4 {
		return strings.Repeat("•", len(r))
	}
	return strings.Repeat("•", len(r)-4) + string(r[len(r)-4:])
}

func (m apiTestModel) View(frame int) string {
	var b strings.Builder
	b.WriteString("\n " + sectionHeaderStyle.Render("API KEY TEST") + "  " + metaStyle.Render("GET /v1/data") + "\n\n")

	shown := maskKey(m.key)
	if m.editing {
		shown = m.key
	}
	b.WriteString(renderField(field{label: "x-api-key", value: shown}, m.editing, frame) + "\n\n")

	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("calling...") + "\n")
	case m.result != nil:
		if m.result.Msg != "" {
			b.WriteString(" " + accentStyle.Render(m.result.Msg) + "\n")
		}
		if m.result.QuotaLeft != nil {
			b.WriteString(" " + dimStyle.Render("quota left: ") + goldStyle.Render(fmt.Sprint(*m.result.QuotaLeft)) + "\n")
		}
		var pretty bytes.Buffer
		if json.Indent(&pretty, m.result.Raw, " ", "  ") == nil {
			b.WriteString("\n " + metaStyle.Render(pretty.String()) + "\n")
		}
	}
	return b.String()
}
