package handoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/naveenspark/plangate/pkg/domain"
)

const shutdownTimeout = 2 * time.Second

// LocalRenderer serves the document from a loopback HTTP server at an
// unguessable one-shot path. The user opens the URL in any browser; it is
// copied to the clipboard when possible.
type LocalRenderer struct {
	addr   string
	copy   func(string) error
	logger *slog.Logger
}

// NewLocalRenderer listens on an ephemeral 127.0.0.1 port.
func NewLocalRenderer(logger *slog.Logger) *LocalRenderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LocalRenderer{addr: "127.0.0.1:0", copy: copyURL, logger: logger}
}

func copyURL(u string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard unsupported")
	}
	return clipboard.WriteAll(u)
}

func (r *LocalRenderer) Name() string { return "local" }

// Available reports whether a loopback listener can be opened.
func (r *LocalRenderer) Available() bool {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return false
	}
	ln.Close() //nolint:errcheck
	return true
}

// Render starts serving and returns immediately. The server stops after the
// first successful fetch or when ctx ends, whichever comes first.
func (r *LocalRenderer) Render(ctx context.Context, payload domain.CheckoutPayload) (Delivery, error) {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return Delivery{}, fmt.Errorf("listen: %w", err)
	}

	path := "/checkout/" + uuid.NewString()
	fetched := make(chan struct{})
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		served := false
		once.Do(func() {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.Write(payload) //nolint:errcheck
			served = true
			close(fetched)
		})
		if !served {
			http.Error(w, "checkout already opened", http.StatusGone)
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("checkout server", slog.String("error", err.Error()))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-fetched:
			r.logger.Info("checkout fetched")
		case <-ctx.Done():
			r.logger.Info("checkout server stopped before fetch")
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(sctx) //nolint:errcheck
	}()

	u := "http://" + ln.Addr().String() + path
	if err := r.copy(u); err != nil {
		r.logger.Debug("copy checkout url", slog.String("error", err.Error()))
	}
	return Delivery{Strategy: r.Name(), Location: u, Done: done}, nil
}
