package tui

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/naveenspark/plangate/internal/checkout"
	"github.com/naveenspark/plangate/internal/session"
	"github.com/naveenspark/plangate/pkg/client"
)

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// errorText is what the notice shows for err: the server's detail when there
// was one, otherwise fallback.
func errorText(err error, fallback string) string {
	var authErr *session.AuthError
	var submitErr *checkout.SubmitError
	switch {
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &submitErr):
		return submitErr.Error()
	case errors.Is(err, checkout.ErrLoginRequired):
		return "Log in to subscribe"
	case client.IsTransport(err):
		return "Could not reach the server"
	}
	return client.Message(err, fallback)
}

// formatExpiry renders a token expiry relative to now.
func formatExpiry(exp, now time.Time) string {
	if exp.IsZero() {
		return "no expiry"
	}
	d := exp.Sub(now)
	switch {
	case d <= 0:
		return "expired"
	case d < time.Hour:
		return fmt.Sprintf("expires in %dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("expires in %dh", int(d.Hours()))
	default:
		return fmt.Sprintf("expires in %dd", int(d.Hours()/24))
	}
}
