package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/naveenspark/plangate/internal/checkout"
	"github.com/naveenspark/plangate/internal/gate"
	"github.com/naveenspark/plangate/internal/handoff"
	"github.com/naveenspark/plangate/internal/session"
	"github.com/naveenspark/plangate/pkg/client"
	"github.com/naveenspark/plangate/pkg/domain"
)

var errSessionExpired = errors.New("session expired, run plangate login")

func (e *env) register(ctx context.Context, args []string) error {
	email, err := emailArg("register", args)
	if err != nil {
		return err
	}
	password, err := e.password()
	if err != nil {
		return err
	}
	if _, err := e.session.Register(ctx, email, password); err != nil {
		return userError(err, "Register failed")
	}
	okLine(e.h.stdout, "Registered %s. Run plangate login %s to continue.", email, email)
	return nil
}

func (e *env) login(ctx context.Context, args []string) error {
	email, err := emailArg("login", args)
	if err != nil {
		return err
	}
	if e.cfg.Token != "" {
		warnLine(e.h.stdout, "PLANGATE_TOKEN is set; this session will not be saved.")
	}
	password, err := e.password()
	if err != nil {
		return err
	}
	if _, err := e.session.Login(ctx, email, password); err != nil {
		return userError(err, "Login failed")
	}
	okLine(e.h.stdout, "Logged in as %s", email)
	return nil
}

func (e *env) logout(ctx context.Context) error {
	if !e.session.IsLoggedIn() {
		fmt.Fprintln(e.h.stdout, "Already logged out.")
		return nil
	}
	e.session.Logout(ctx)
	fmt.Fprintln(e.h.stdout, "Logged out.")
	return nil
}

func (e *env) status() error {
	w := e.h.stdout
	printLogo(w)
	st := e.session.Status()
	if st == session.StatusAbsent {
		fmt.Fprintln(w, "Not logged in.")
	} else {
		fmt.Fprintf(w, "Logged in (token %s)\n", st)
		if c, ok := e.session.Claims(); ok {
			if c.Subject != "" {
				dimLine(w, "subject  %s", c.Subject)
			}
			if !c.ExpiresAt.IsZero() {
				dimLine(w, "expires  %s", c.ExpiresAt.Local().Format(time.RFC1123))
			}
		}
	}
	dimLine(w, "api      %s", e.api.BaseURL())
	dimLine(w, "store    %s", e.cfg.Store)
	if e.checkout.GuestAllowed() {
		dimLine(w, "checkout open to guests")
	}
	return nil
}

func (e *env) plans(ctx context.Context) error {
	if err := e.enter(gate.Plans); err != nil {
		return err
	}
	plans, err := e.checkout.ListPlans(ctx)
	if err != nil {
		return e.protectedFailure(ctx, err, "Could not load plans")
	}
	e.session.Confirm()

	w := e.h.stdout
	if len(plans) == 0 {
		fmt.Fprintln(w, "No plans available.")
		return nil
	}
	fmt.Fprintf(w, "%-5s %-24s %-16s %s\n", "ID", "NAME", "PRICE", "BILLING")
	for _, p := range plans {
		billing := string(p.Recurrence)
		if p.Duration != "" {
			billing += " / " + p.Duration
		}
		fmt.Fprintf(w, "%-5d %-24s %-16s %s\n", p.ID, p.Name, p.PriceLabel(), billing)
	}
	return nil
}

func (e *env) subscribe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("subscribe", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var req domain.SubscriptionRequest
	fs.IntVar(&req.PlanID, "plan", 0, "plan id")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Phone, "phone", "", "phone")
	fs.StringVar(&req.Address, "address", "", "address")
	fs.StringVar(&req.City, "city", "", "city")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	planSet := false
	fs.Visit(func(f *flag.Flag) { planSet = planSet || f.Name == "plan" })
	if !planSet {
		return errors.New("usage: plangate subscribe --plan N --first A --last B --email E")
	}

	delivery, err := e.checkout.Purchase(ctx, req)
	if err != nil {
		if errors.Is(err, checkout.ErrLoginRequired) {
			return errors.New("log in to subscribe (guest checkout is disabled)")
		}
		if errors.Is(err, handoff.ErrNoRenderer) {
			return errors.New("could not deliver the checkout page: no browser and no local listener")
		}
		return e.protectedFailure(ctx, err, "Subscription failed")
	}

	w := e.h.stdout
	switch delivery.Strategy {
	case "local":
		okLine(w, "Open this URL to pay (copied to clipboard):")
		fmt.Fprintf(w, "  %s\n", delivery.Location)
		dimLine(w, "waiting for the page to be opened, ctrl+c to stop")
		select {
		case <-delivery.Done:
		case <-ctx.Done():
		}
	default:
		okLine(w, "Checkout opened in your browser.")
		dimLine(w, "%s", delivery.Location)
	}
	dimLine(w, "Payment is confirmed by the backend once the gateway notifies it.")
	return nil
}

func (e *env) apiTest(ctx context.Context, args []string) error {
	if err := e.enter(gate.APITest); err != nil {
		return err
	}
	key := e.cfg.APIKey
	if len(args) > 0 {
		key = args[0]
	}
	if key == "" {
		return errors.New("usage: plangate api-test <key> (or set PLANGATE_API_KEY)")
	}
	data, err := e.api.ProtectedData(ctx, key)
	if err != nil {
		return userError(err, "API call failed")
	}

	w := e.h.stdout
	if data.Msg != "" {
		okLine(w, "%s", data.Msg)
	} else {
		okLine(w, "OK")
	}
	if data.QuotaLeft != nil {
		dimLine(w, "quota left  %d", *data.QuotaLeft)
	}
	var pretty strings.Builder
	enc := json.NewEncoder(&pretty)
	enc.SetIndent("", "  ")
	var v any
	if json.Unmarshal(data.Raw, &v) == nil && enc.Encode(v) == nil {
		fmt.Fprint(w, pretty.String())
	}
	return nil
}

func (e *env) openReturn(args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return errors.New("usage: plangate return <order_id>")
	}
	u := e.api.ReturnURL(strings.TrimSpace(args[0]))
	if err := e.open(u); err != nil {
		fmt.Fprintf(e.h.stdout, "Could not open browser. Visit this URL manually:\n  %s\n", u)
		return nil
	}
	fmt.Fprintf(e.h.stdout, "Opened %s\n", u)
	return nil
}

// enter applies the route gate the same way the TUI does.
func (e *env) enter(r gate.Route) error {
	if e.gate.CanEnter(r) {
		return nil
	}
	return fmt.Errorf("%s requires a session, run plangate login <email>", r)
}

// protectedFailure drops a session the backend rejected before reporting err.
func (e *env) protectedFailure(ctx context.Context, err error, fallback string) error {
	if e.session.Invalidate(ctx, err) {
		return errSessionExpired
	}
	return userError(err, fallback)
}

// password reads the account password from PLANGATE_PASSWORD, the terminal
// without echo, or the first line of piped stdin.
func (e *env) password() (string, error) {
	if e.cfg.Password != "" {
		return e.cfg.Password, nil
	}
	if f, ok := e.h.stdin.(*os.File); ok && term.IsTerminal(f.Fd()) {
		fmt.Fprint(e.h.stdout, "Password: ")
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(e.h.stdout)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(e.h.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password given (set PLANGATE_PASSWORD or pipe it on stdin)")
	}
	return line, nil
}

func emailArg(cmd string, args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("usage: plangate %s <email>", cmd)
	}
	return strings.TrimSpace(args[0]), nil
}

// userError reduces err to the line shown to the user: the server detail
// when there is one, otherwise fallback.
func userError(err error, fallback string) error {
	var authErr *session.AuthError
	var submitErr *checkout.SubmitError
	switch {
	case errors.As(err, &authErr):
		return errors.New(authErr.Detail)
	case errors.As(err, &submitErr):
		return errors.New(submitErr.Message)
	case client.IsTransport(err):
		return errors.New("Could not reach the server")
	default:
		return errors.New(client.Message(err, fallback))
	}
}
