package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/plangate/internal/browser"
	"github.com/naveenspark/plangate/internal/checkout"
	"github.com/naveenspark/plangate/internal/gate"
	"github.com/naveenspark/plangate/internal/session"
	"github.com/naveenspark/plangate/pkg/domain"
)

// Session is what the TUI needs from the session manager.
type Session interface {
	IsLoggedIn() bool
	Status() session.Status
	Claims() (session.Claims, bool)
	Register(ctx context.Context, email, password string) (*domain.Ack, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context)
	Invalidate(ctx context.Context, err error) bool
	Confirm()
}

// DataAPI is the part of the backend client the TUI calls directly.
type DataAPI interface {
	ProtectedData(ctx context.Context, apiKey string) (*domain.ProtectedData, error)
	ReturnURL(orderID string) string
}

// Deps wires the App to the rest of the program.
type Deps struct {
	Session  Session
	Checkout *checkout.Checkout
	API      DataAPI
	// APIKey pre-fills the api-test view.
	APIKey string
	// Open launches a URL; defaults to the OS browser.
	Open func(string) error
	// Version is the running build, checked against the latest release.
	Version string
}

// App is the root Bubbletea model.
type App struct {
	session  Session
	gate     *gate.Gate
	checkout *checkout.Checkout
	route    gate.Route
	login    loginModel
	plans    plansModel
	apiTest  apiTestModel
	ret      returnModel
	notice   string // blocking; dismissed with enter/esc
	flash    string
	helpOpen bool
	version  string
	update   string
	width    int
	height   int
	frame    int
}

// NewApp creates a new TUI application starting on the login view, or on
// plans when a session already exists.
func NewApp(d Deps) App {
	if d.Open == nil {
		d.Open = browser.Open
	}
	a := App{
		session:  d.Session,
		gate:     gate.New(d.Session),
		checkout: d.Checkout,
		login:    newLoginModel(d.Session),
		plans:    newPlansModel(d.Checkout),
		apiTest:  newAPITestModel(d.API, d.APIKey),
		ret:      newReturnModel(d.API, d.Open),
		version:  d.Version,
	}
	a.route = a.gate.Resolve(gate.Plans)
	if a.route == gate.Plans {
		a.login.editing = false
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd(), checkVersion(a.version)}
	if a.route == gate.Plans {
		cmds = append(cmds, a.plans.load())
	}
	return tea.Batch(cmds...)
}

// navigate moves to r through the gate. Denied or unknown routes land on the
// login view.
func (a App) navigate(r gate.Route) (App, tea.Cmd) {
	target := a.gate.Resolve(r)
	if target != r {
		a.flash = "Log in to open " + string(r)
		a.login.editing = true
	} else {
		a.flash = ""
	}
	a.route = target
	if target == gate.Plans {
		a.plans.loading = true
		if c, ok := a.session.Claims(); ok {
			a.plans.prefillEmail(c.Subject)
		}
		return a, a.plans.load()
	}
	return a, nil
}

// fail shows err as a blocking notice. A 401 on a call that carried the
// session token also drops the session and returns to login.
func (a App) fail(err error, fallback string, withSession bool) App {
	a.notice = errorText(err, fallback)
	if withSession && a.session.Invalidate(context.Background(), err) {
		a.notice = "Session expired. Log in again."
		a.route = gate.Login
		a.login.editing = true
	}
	return a
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case versionCheckMsg:
		if msg.hasUpdate {
			a.update = msg.latestVersion
		}
		return a, nil

	case authDoneMsg:
		a.login, _ = a.login.Update(msg)
		if msg.err != nil {
			return a.fail(msg.err, msg.mode.fallback(), false), nil
		}
		if msg.mode == modeLogin {
			return a.navigate(gate.Plans)
		}
		return a, nil

	case plansLoadedMsg:
		a.plans, _ = a.plans.Update(msg)
		if errors.Is(msg.err, checkout.ErrStalePlans) {
			return a, nil
		}
		if msg.err != nil {
			return a.fail(msg.err, "Could not load plans", true), nil
		}
		if a.session.IsLoggedIn() {
			a.session.Confirm()
		}
		return a, nil

	case checkoutDoneMsg:
		a.plans, _ = a.plans.Update(msg)
		if msg.err != nil {
			return a.fail(msg.err, "Subscription failed", true), nil
		}
		return a, nil

	case apiTestDoneMsg:
		a.apiTest, _ = a.apiTest.Update(msg)
		if msg.err != nil {
			return a.fail(msg.err, "Request failed", false), nil
		}
		return a, nil

	case returnOpenedMsg:
		a.ret, _ = a.ret.Update(msg)
		if msg.err != nil {
			a.notice = "Could not open " + msg.url
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a.quit()
		}
		if a.notice != "" {
			switch msg.String() {
			case "enter", "esc":
				a.notice = ""
			}
			return a, nil
		}
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q":
				return a.quit()
			}
			return a, nil
		}

		if !a.isEditing() {
			switch msg.String() {
			case "q":
				return a.quit()
			case "h":
				a.helpOpen = true
				return a, nil
			case "1":
				return a.navigate(gate.Login)
			case "2":
				return a.navigate(gate.Plans)
			case "3":
				return a.navigate(gate.APITest)
			case "4":
				return a.navigate(gate.Return)
			case "L":
				a.session.Logout(context.Background())
				a.flash = "Logged out"
				if gate.Protected(a.route) {
					a.route = gate.Login
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.route {
	case gate.Login:
		a.login, cmd = a.login.Update(msg)
	case gate.Plans:
		a.plans, cmd = a.plans.Update(msg)
	case gate.APITest:
		a.apiTest, cmd = a.apiTest.Update(msg)
	case gate.Return:
		a.ret, cmd = a.ret.Update(msg)
	}
	return a, cmd
}

// quit stops any pending checkout delivery before exiting.
func (a App) quit() (tea.Model, tea.Cmd) {
	a.plans.stopCheckout()
	return a, tea.Quit
}

func (a App) isEditing() bool {
	switch a.route {
	case gate.Login:
		return a.login.editing
	case gate.Plans:
		return a.plans.buying
	case gate.APITest:
		return a.apiTest.editing
	case gate.Return:
		return a.ret.editing
	}
	return false
}

func (a App) sessionLine() string {
	status := a.session.Status()
	line := statusStyle(status.String()).Render("session " + status.String())
	if c, ok := a.session.Claims(); ok {
		if c.Subject != "" {
			line += metaStyle.Render(" · ") + dimStyle.Render(c.Subject)
		}
		line += metaStyle.Render(" · " + formatExpiry(c.ExpiresAt, time.Now()))
	}
	if !a.checkout.GuestAllowed() {
		line += metaStyle.Render(" · login required to subscribe")
	}
	if a.update != "" {
		line += metaStyle.Render(" · ") + goldStyle.Render(a.update+" available")
	}
	return line
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

func (a App) tabBar() string {
	tabs := []struct {
		key   string
		name  string
		route gate.Route
	}{
		{"1", "Login", gate.Login},
		{"2", "Plans", gate.Plans},
		{"3", "API test", gate.APITest},
		{"4", "Return", gate.Return},
	}
	colWidth := a.width / len(tabs)
	var b strings.Builder
	for _, t := range tabs {
		var label string
		if t.route == a.route {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		if !a.gate.CanEnter(t.route) {
			label += metaStyle.Render(" ·")
		}
		w := lipgloss.Width(label)
		left := max((colWidth-w)/2, 0)
		right := max(colWidth-w-left, 0)
		b.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}
	return b.String()
}

func (a App) View() string {
	header := center(renderShimmerLogo(a.frame), a.width) + "\n" + center(a.sessionLine(), a.width)

	var body, help string
	switch a.route {
	case gate.Login:
		body = a.login.View(a.frame)
		if a.login.editing {
			help = helpBar([2]string{"tab", "next"}, [2]string{"enter", "submit"}, [2]string{"ctrl+r", "mode"}, [2]string{"esc", "nav"})
		} else {
			help = helpBar([2]string{"1-4", "tabs"}, [2]string{"enter", "edit"}, [2]string{"L", "logout"}, [2]string{"h", "help"}, [2]string{"q", "quit"})
		}
	case gate.Plans:
		body = a.plans.View(a.frame)
		if a.plans.buying {
			help = helpBar([2]string{"tab", "next"}, [2]string{"ctrl+s", "checkout"}, [2]string{"esc", "cancel"})
		} else {
			help = helpBar([2]string{"1-4", "tabs"}, [2]string{"j/k", "nav"}, [2]string{"enter", "buy"}, [2]string{"r", "refresh"}, [2]string{"L", "logout"}, [2]string{"q", "quit"})
		}
	case gate.APITest:
		body = a.apiTest.View(a.frame)
		help = helpBar([2]string{"1-4", "tabs"}, [2]string{"e", "edit key"}, [2]string{"enter", "call"}, [2]string{"q", "quit"})
	case gate.Return:
		body = a.ret.View(a.frame)
		help = helpBar([2]string{"1-4", "tabs"}, [2]string{"e", "edit"}, [2]string{"enter", "open"}, [2]string{"q", "quit"})
	}

	if a.helpOpen {
		body = helpView()
		help = helpBar([2]string{"esc", "close"})
	}
	if a.notice != "" {
		body = "\n" + center(noticeStyle.Render(a.notice), a.width) + "\n"
		help = helpBar([2]string{"enter", "dismiss"})
	}

	flash := ""
	if a.flash != "" {
		flash = " " + goldStyle.Render(a.flash)
	}

	// Chrome: header(2) + tabs(1) + flash(1) + help(1)
	const chrome = 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return header + "\n" + a.tabBar() + "\n" + body + "\n" + flash + "\n" + help
}
