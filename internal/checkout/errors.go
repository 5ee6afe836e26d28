package checkout

import (
	"errors"
	"net/http"

	"github.com/naveenspark/plangate/pkg/client"
)

var (
	// ErrStalePlans means a plan listing finished after a newer one was
	// started and was discarded.
	ErrStalePlans = errors.New("checkout: stale plan listing discarded")
	// ErrLoginRequired means guest checkout is disabled and there is no session.
	ErrLoginRequired = errors.New("checkout: login required")
)

// Kind classifies a submit failure.
type Kind int

const (
	KindValidation Kind = iota
	KindInvalidPlan
	KindTransport
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPlan:
		return "invalid_plan"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	default:
		return "validation"
	}
}

// SubmitError is a failed subscription request. Error returns the text to
// show the user.
type SubmitError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

const submitFallback = "Subscription failed"

func classify(err error) *SubmitError {
	se := &SubmitError{Err: err}
	var httpErr *client.HTTPError
	switch {
	case client.IsTransport(err):
		se.Kind = KindTransport
		se.Message = "Could not reach the server"
	case errors.As(err, &httpErr):
		se.StatusCode = httpErr.StatusCode
		se.Message = client.Message(err, submitFallback)
		switch {
		case httpErr.StatusCode == http.StatusNotFound:
			se.Kind = KindInvalidPlan
		case httpErr.StatusCode >= 500:
			se.Kind = KindServer
		default:
			se.Kind = KindValidation
		}
	default:
		se.Kind = KindServer
		se.Message = submitFallback
	}
	return se
}
