// Package checkout runs the purchase flow: list plans, submit the buyer's
// request, and hand the returned checkout document to the user.
//
// The flow ends at handoff. Whether the payment went through is settled
// between the gateway and the backend; nothing here waits for it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/naveenspark/plangate/internal/handoff"
	"github.com/naveenspark/plangate/pkg/domain"
)

// API is the billing half of the backend.
type API interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	Subscribe(ctx context.Context, req domain.SubscriptionRequest) (domain.CheckoutPayload, error)
}

// Deliverer puts a checkout document in front of the user.
type Deliverer interface {
	Handoff(ctx context.Context, payload domain.CheckoutPayload) (handoff.Delivery, error)
}

// Presence reports whether a session exists.
type Presence interface {
	IsLoggedIn() bool
}

// Checkout drives one buyer through the flow.
type Checkout struct {
	api       API
	deliverer Deliverer
	session   Presence
	guest     bool
	machine   *Machine
	feed      PlanFeed
	logger    *slog.Logger
}

// Option configures a Checkout.
type Option func(*Checkout)

// WithGuestCheckout sets whether Submit works without a session. The default
// is true.
func WithGuestCheckout(allowed bool) Option {
	return func(c *Checkout) { c.guest = allowed }
}

// WithSession sets the presence check used when guest checkout is off.
func WithSession(p Presence) Option {
	return func(c *Checkout) { c.session = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checkout) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Checkout in StateIdle.
func New(api API, deliverer Deliverer, opts ...Option) *Checkout {
	c := &Checkout{
		api:       api,
		deliverer: deliverer,
		guest:     true,
		machine:   NewMachine(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current stage.
func (c *Checkout) State() State { return c.machine.Current() }

// Plans returns the most recent listing that was applied.
func (c *Checkout) Plans() ([]domain.Plan, bool) { return c.feed.Plans() }

// GuestAllowed reports whether Submit works without a session.
func (c *Checkout) GuestAllowed() bool { return c.guest }

// ListPlans fetches the catalog fresh from the backend. When a later call
// was started before this one finished, the result is discarded and
// ErrStalePlans is returned.
func (c *Checkout) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	seq := c.feed.Begin()
	plans, err := c.api.ListPlans(ctx)
	if err != nil {
		if !c.feed.Latest(seq) {
			return nil, ErrStalePlans
		}
		return nil, fmt.Errorf("checkout.ListPlans: %w", err)
	}
	if !c.feed.Complete(seq, plans) {
		c.logger.DebugContext(ctx, "discarded stale plan listing", slog.Uint64("seq", seq))
		return nil, ErrStalePlans
	}
	if c.machine.CanFire(EventPlansLoaded) {
		c.machine.Fire(EventPlansLoaded) //nolint:errcheck // checked above
	}
	return plans, nil
}

// Submit sends the purchase request and returns the checkout document
// exactly as received. The plan id is not checked against any listing; the
// backend decides whether it exists.
func (c *Checkout) Submit(ctx context.Context, req domain.SubscriptionRequest) (domain.CheckoutPayload, error) {
	if !c.guest && (c.session == nil || !c.session.IsLoggedIn()) {
		return nil, ErrLoginRequired
	}
	req = trimRequest(req)
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, &SubmitError{
			Kind:    KindValidation,
			Message: "Missing " + strings.Join(missing, ", "),
		}
	}
	if _, err := c.machine.Fire(EventSubmit); err != nil {
		return nil, err
	}

	payload, err := c.api.Subscribe(ctx, req)
	if err != nil {
		c.machine.Fire(EventSubmitFailed) //nolint:errcheck // Submitting always accepts it
		se := classify(err)
		c.logger.WarnContext(ctx, "subscription rejected",
			slog.Int("plan_id", req.PlanID),
			slog.String("kind", se.Kind.String()),
			slog.Int("status", se.StatusCode),
		)
		return nil, se
	}
	c.machine.Fire(EventPayloadReceived) //nolint:errcheck // Submitting always accepts it
	c.logger.InfoContext(ctx, "checkout payload received",
		slog.Int("plan_id", req.PlanID),
		slog.Int("bytes", len(payload)),
	)
	return payload, nil
}

// Handoff delivers payload unmodified.
func (c *Checkout) Handoff(ctx context.Context, payload domain.CheckoutPayload) (handoff.Delivery, error) {
	d, err := c.deliverer.Handoff(ctx, payload)
	if err != nil {
		if c.machine.CanFire(EventHandoffFailed) {
			c.machine.Fire(EventHandoffFailed) //nolint:errcheck // checked above
		}
		return handoff.Delivery{}, fmt.Errorf("checkout.Handoff: %w", err)
	}
	return d, nil
}

// Purchase is Submit followed by Handoff.
func (c *Checkout) Purchase(ctx context.Context, req domain.SubscriptionRequest) (handoff.Delivery, error) {
	payload, err := c.Submit(ctx, req)
	if err != nil {
		return handoff.Delivery{}, err
	}
	return c.Handoff(ctx, payload)
}

// Reset returns a finished or failed checkout to StateIdle.
func (c *Checkout) Reset() error {
	if _, err := c.machine.Fire(EventReset); err != nil {
		return err
	}
	return nil
}

func trimRequest(r domain.SubscriptionRequest) domain.SubscriptionRequest {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	return r
}

// IsSubmitError reports whether err is a SubmitError of the given kind.
func IsSubmitError(err error, kind Kind) bool {
	var se *SubmitError
	return errors.As(err, &se) && se.Kind == kind
}
