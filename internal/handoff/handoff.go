// Package handoff delivers a checkout document to the user unmodified.
//
// A Selector tries each PayloadRenderer in order. Renderers that report
// themselves unavailable are skipped, and a render error falls through to
// the next one. The first success wins.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/naveenspark/plangate/pkg/domain"
)

// ErrNoRenderer is returned when no renderer could deliver the payload.
var ErrNoRenderer = errors.New("handoff: no renderer available")

// PayloadRenderer is one way of putting the checkout document in front of
// the user.
type PayloadRenderer interface {
	Name() string
	// Available probes, at call time, whether Render can work here.
	Available() bool
	Render(ctx context.Context, payload domain.CheckoutPayload) (Delivery, error)
}

// Delivery describes where a payload went.
type Delivery struct {
	Strategy string
	// Location is the file path or URL the document can be reached at.
	Location string
	// Done is closed once the document has been picked up or the render
	// context ended. It is already closed for fire-and-forget strategies.
	Done <-chan struct{}
}

// Selector picks a renderer per handoff.
type Selector struct {
	renderers []PayloadRenderer
	logger    *slog.Logger
}

// NewSelector returns a Selector trying renderers in the given order.
func NewSelector(logger *slog.Logger, renderers ...PayloadRenderer) *Selector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Selector{renderers: renderers, logger: logger}
}

// Handoff delivers payload with the first renderer that is available and
// succeeds.
func (s *Selector) Handoff(ctx context.Context, payload domain.CheckoutPayload) (Delivery, error) {
	var errs []error
	for _, r := range s.renderers {
		if !r.Available() {
			s.logger.DebugContext(ctx, "renderer unavailable", slog.String("strategy", r.Name()))
			continue
		}
		d, err := r.Render(ctx, payload)
		if err != nil {
			s.logger.WarnContext(ctx, "renderer failed",
				slog.String("strategy", r.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			continue
		}
		if d.Strategy == "" {
			d.Strategy = r.Name()
		}
		s.logger.InfoContext(ctx, "checkout handed off",
			slog.String("strategy", d.Strategy),
			slog.Int("bytes", len(payload)),
		)
		return d, nil
	}
	return Delivery{}, errors.Join(append([]error{ErrNoRenderer}, errs...)...)
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
