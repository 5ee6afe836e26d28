package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/plangate/internal/config"
	"github.com/naveenspark/plangate/internal/handoff"
	"github.com/naveenspark/plangate/internal/tui"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// host is the process surroundings a command runs in.
type host struct {
	stdin  io.Reader
	stdout io.Writer
	// renderers overrides the checkout handoff strategies.
	renderers []handoff.PayloadRenderer
	// open launches a URL in a browser.
	open func(string) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], host{stdin: os.Stdin, stdout: os.Stdout}); err != nil {
		failLine(os.Stderr, "error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, h host) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Fprintln(h.stdout, "plangate "+version)
			return nil
		case "help", "--help", "-h":
			printHelp(h.stdout)
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return runWith(ctx, cfg, args, h)
}

func runWith(ctx context.Context, cfg config.Config, args []string, h host) error {
	e, err := newEnv(ctx, cfg, h)
	if err != nil {
		return err
	}
	defer e.close()

	if len(args) == 0 {
		return e.runTUI()
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return e.register(ctx, rest)
	case "login":
		return e.login(ctx, rest)
	case "logout":
		return e.logout(ctx)
	case "status":
		return e.status()
	case "plans":
		return e.plans(ctx)
	case "subscribe":
		return e.subscribe(ctx, rest)
	case "api-test":
		return e.apiTest(ctx, rest)
	case "return":
		return e.openReturn(rest)
	default:
		return fmt.Errorf("unknown command %q (see plangate help)", cmd)
	}
}

func (e *env) runTUI() error {
	app := tui.NewApp(tui.Deps{
		Session:  e.session,
		Checkout: e.checkout,
		API:      e.api,
		APIKey:   e.cfg.APIKey,
		Open:     e.open,
		Version:  version,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
