package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/plangate/internal/checkout"
	"github.com/naveenspark/plangate/internal/handoff"
	"github.com/naveenspark/plangate/pkg/domain"
)

const (
	buyFirst = iota
	buyLast
	buyEmail
	buyPhone
	buyAddress
	buyCity
)

// plansLoadedMsg carries a plan listing. Stale listings arrive with
// checkout.ErrStalePlans and are ignored.
type plansLoadedMsg struct {
	plans []domain.Plan
	err   error
}

// checkoutDoneMsg carries the outcome of submit + handoff.
type checkoutDoneMsg struct {
	delivery handoff.Delivery
	err      error
}

type plansModel struct {
	checkout *checkout.Checkout
	plans    []domain.Plan
	cursor   int
	loading  bool
	buying   bool
	busy     bool
	form     form
	status   string
	// stop ends the last checkout's delivery, e.g. a local server still
	// waiting for its page to be fetched.
	stop context.CancelFunc
}

func newPlansModel(c *checkout.Checkout) plansModel {
	return plansModel{checkout: c, form: newBuyerForm()}
}

func newBuyerForm() form {
	return form{fields: []field{
		{label: "first name"},
		{label: "last name"},
		{label: "email"},
		{label: "phone (optional)"},
		{label: "address (optional)"},
		{label: "city (optional)"},
	}}
}

func (m plansModel) load() tea.Cmd {
	c := m.checkout
	return func() tea.Msg {
		plans, err := c.ListPlans(context.Background())
		return plansLoadedMsg{plans: plans, err: err}
	}
}

// stopCheckout cancels the context of the last checkout, if any.
func (m *plansModel) stopCheckout() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

// prefillEmail seeds the buyer email when the form is still blank.
func (m *plansModel) prefillEmail(email string) {
	if m.form.fields[buyEmail].value == "" {
		m.form.fields[buyEmail].value = email
	}
}

func (m plansModel) Update(msg tea.Msg) (plansModel, tea.Cmd) {
	switch msg := msg.(type) {
	case plansLoadedMsg:
		if errors.Is(msg.err, checkout.ErrStalePlans) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m, nil
		}
		m.plans = msg.plans
		if m.cursor >= len(m.plans) {
			m.cursor = max(len(m.plans)-1, 0)
		}
		return m, nil

	case checkoutDoneMsg:
		m.busy = false
		m.checkout.Reset() //nolint:errcheck // Idle again either way
		if msg.err != nil {
			m.stopCheckout()
			m.status = ""
			return m, nil
		}
		m.buying = false
		m.status = deliveryStatus(msg.delivery)
		return m, nil

	case tea.KeyMsg:
		if m.buying {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m plansModel) updateList(msg tea.KeyMsg) (plansModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.plans)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.loading = true
		return m, m.load()
	case "enter":
		if len(m.plans) > 0 {
			m.buying = true
			m.status = ""
		}
	}
	return m, nil
}

func (m plansModel) updateForm(msg tea.KeyMsg) (plansModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.busy {
			m.buying = false
		}
	case "tab", "down":
		m.form.next()
	case "shift+tab", "up":
		m.form.prev()
	case "ctrl+s":
		return m.submit()
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

func (m plansModel) submit() (plansModel, tea.Cmd) {
	if m.busy || len(m.plans) == 0 {
		return m, nil
	}
	req := domain.SubscriptionRequest{
		FirstName: m.form.value(buyFirst),
		LastName:  m.form.value(buyLast),
		Email:     m.form.value(buyEmail),
		PlanID:    m.plans[m.cursor].ID,
		Phone:     m.form.value(buyPhone),
		Address:   m.form.value(buyAddress),
		City:      m.form.value(buyCity),
	}
	m.busy = true
	m.status = ""
	m.stopCheckout()
	ctx, cancel := context.WithCancel(context.Background())
	m.stop = cancel
	c := m.checkout
	return m, func() tea.Msg {
		d, err := c.Purchase(ctx, req)
		return checkoutDoneMsg{delivery: d, err: err}
	}
}

func deliveryStatus(d handoff.Delivery) string {
	switch d.Strategy {
	case "browser":
		return "Checkout opened in your browser. The backend confirms payment."
	case "local":
		return "Open " + d.Location + " to pay (copied to clipboard)."
	default:
		return "Checkout delivered: " + d.Location
	}
}

func (m plansModel) View(frame int) string {
	var b strings.Builder
	b.WriteString("\n " + sectionHeaderStyle.Render("PLANS") + "\n\n")

	switch {
	case m.loading && len(m.plans) == 0:
		b.WriteString(" " + dimStyle.Render("loading plans...") + "\n")
	case len(m.plans) == 0:
		b.WriteString(" " + dimStyle.Render("no plans available") + "\n")
	}

	for i, p := range m.plans {
		name := fmt.Sprintf("%-20s", truncStr(p.Name, 20))
		line := fmt.Sprintf(" %s  %s  %s",
			name,
			goldStyle.Render(fmt.Sprintf("%14s", p.PriceLabel())),
			dimStyle.Render(strings.TrimSpace(string(p.Recurrence)+" · "+p.Duration)),
		)
		if i == m.cursor {
			line = selectedRowBg.Render(accentStyle.Render(">") + selectedStyle.Render(line))
		} else {
			line = " " + normalStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if m.buying && len(m.plans) > 0 {
		p := m.plans[m.cursor]
		b.WriteString("\n " + selectedStyle.Render("Subscribe to "+p.Name) + "  " + goldStyle.Render(p.PriceLabel()) + "\n\n")
		b.WriteString(m.form.view(frame, !m.busy))
		if m.busy {
			b.WriteString("\n " + dimStyle.Render("starting checkout...") + "\n")
		}
	}
	if m.status != "" {
		b.WriteString("\n " + accentStyle.Render(m.status) + "\n")
	}
	return b.String()
}
