package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/naveenspark/plangate/internal/browser"
	"github.com/naveenspark/plangate/internal/checkout"
	"github.com/naveenspark/plangate/internal/config"
	"github.com/naveenspark/plangate/internal/gate"
	"github.com/naveenspark/plangate/internal/handoff"
	"github.com/naveenspark/plangate/internal/logger"
	"github.com/naveenspark/plangate/internal/session"
	"github.com/naveenspark/plangate/pkg/client"
)

// env is everything a command needs, built once per invocation.
type env struct {
	cfg      config.Config
	h        host
	logger   *slog.Logger
	api      *client.Client
	store    session.Store
	session  *session.Manager
	gate     *gate.Gate
	checkout *checkout.Checkout
	open     func(string) error
	closers  []io.Closer
}

func newEnv(ctx context.Context, cfg config.Config, h host) (*env, error) {
	e := &env{cfg: cfg, h: h, open: h.open}
	if e.open == nil {
		e.open = browser.Open
	}

	logOut, err := logger.Open(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, logOut)
	e.logger = logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithOutput(logOut),
		logger.WithAttr(slog.String("version", version)),
	)

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		e.close()
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	e.store = store

	e.api = client.New(cfg.APIURL,
		client.WithTokenSource(e.token),
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(e.logger),
	)
	e.session = session.NewManager(e.api, store, e.logger)
	e.gate = gate.New(e.session)

	renderers := h.renderers
	if renderers == nil {
		renderers = []handoff.PayloadRenderer{
			handoff.NewBrowserRenderer(""),
			handoff.NewLocalRenderer(e.logger),
		}
	}
	e.checkout = checkout.New(e.api, handoff.NewSelector(e.logger, renderers...),
		checkout.WithGuestCheckout(cfg.GuestCheckout),
		checkout.WithSession(e.session),
		checkout.WithLogger(e.logger),
	)

	e.logger.Debug("environment ready",
		slog.String("api_url", cfg.APIURL),
		slog.String("store", string(cfg.Store)),
		slog.Bool("token_override", cfg.Token != ""),
	)
	return e, nil
}

// token feeds the client's bearer header from the session on every call.
func (e *env) token() string {
	tok, _ := e.session.Token()
	return tok
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close() //nolint:errcheck // best-effort close
	}
}

// openStore builds the configured session store. PLANGATE_TOKEN replaces it
// with an in-memory store holding that token, so nothing is persisted.
func openStore(ctx context.Context, cfg config.Config) (session.Store, io.Closer, error) {
	if cfg.Token != "" {
		return session.NewMemoryStore(cfg.Token), nil, nil
	}
	switch cfg.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(""), nil, nil
	case config.StoreKeyring:
		return session.NewKeyringStore(""), nil, nil
	case config.StoreRedis:
		rc, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rc, ""), rc, nil
	case config.StoreFile:
		return session.NewFileStore(cfg.Home), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidStore, cfg.Store)
	}
}
