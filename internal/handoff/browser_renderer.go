package handoff

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/naveenspark/plangate/internal/browser"
	"github.com/naveenspark/plangate/pkg/domain"
)

const (
	payloadPattern = "plangate-checkout-*.html"
	// payloadTTL is how long a payload file outlives the browser launch.
	payloadTTL = 2 * time.Minute
)

// BrowserRenderer writes the document to a private temp file and opens it in
// the user's own browser, which then runs the gateway's auto-submitting form.
//
// The file is removed payloadTTL after the launch, or when the render context
// ends. Files left by a process that exited sooner are swept on the next
// Render.
type BrowserRenderer struct {
	dir   string
	ttl   time.Duration
	open  func(string) error
	probe func() bool
}

// NewBrowserRenderer stores payload files under dir ("" for the OS temp dir).
func NewBrowserRenderer(dir string) *BrowserRenderer {
	return &BrowserRenderer{dir: dir, ttl: payloadTTL, open: browser.Open, probe: browser.Available}
}

func (r *BrowserRenderer) Name() string { return "browser" }

func (r *BrowserRenderer) Available() bool { return r.probe() }

// Render returns once the browser is launched. The file stays until the
// browser has had time to read it.
func (r *BrowserRenderer) Render(ctx context.Context, payload domain.CheckoutPayload) (Delivery, error) {
	r.sweep()
	f, err := os.CreateTemp(r.dir, payloadPattern)
	if err != nil {
		return Delivery{}, fmt.Errorf("create payload file: %w", err)
	}
	path := f.Name()
	if err := f.Chmod(0o600); err != nil {
		f.Close()       //nolint:errcheck
		os.Remove(path) //nolint:errcheck
		return Delivery{}, fmt.Errorf("chmod payload file: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()       //nolint:errcheck
		os.Remove(path) //nolint:errcheck
		return Delivery{}, fmt.Errorf("write payload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path) //nolint:errcheck
		return Delivery{}, fmt.Errorf("close payload file: %w", err)
	}
	if err := r.open(path); err != nil {
		os.Remove(path) //nolint:errcheck
		return Delivery{}, err
	}
	go r.expire(ctx, path)
	return Delivery{Strategy: r.Name(), Location: path, Done: closedChan()}, nil
}

func (r *BrowserRenderer) expire(ctx context.Context, path string) {
	t := time.NewTimer(r.ttl)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	os.Remove(path) //nolint:errcheck // may already be swept
}

// sweep removes payload files older than the TTL.
func (r *BrowserRenderer) sweep() {
	dir := r.dir
	if dir == "" {
		dir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(dir, payloadPattern))
	if err != nil {
		return
	}
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && time.Since(info.ModTime()) > r.ttl {
			os.Remove(m) //nolint:errcheck
		}
	}
}
