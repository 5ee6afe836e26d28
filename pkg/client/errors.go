package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrBodyTooLarge is returned when a raw response body exceeds the read cap.
var ErrBodyTooLarge = errors.New("response body too large")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	// Message is the server-supplied detail when the body carried one,
	// otherwise the raw body.
	Message string
	// Detail reports whether Message came from a structured error body.
	Detail bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// TransportError is returned when the request never produced an HTTP response:
// connection refused, DNS failure, canceled context, broken body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsTransport reports whether err (or any wrapped error) is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Message returns the text to show a user for err: the server's detail when
// the backend supplied one, fallback otherwise.
func Message(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}

// parseErrorBody extracts a human-readable message from an error body.
// FastAPI style {"detail": "..."} and validation lists {"detail": [{"msg": ...}]}
// are recognised, as are {"error": "..."} and {"reason": "..."}.
func parseErrorBody(body []byte) (string, bool) {
	var apiErr struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
		Reason string          `json:"reason"`
	}
	if json.Unmarshal(body, &apiErr) != nil {
		return "", false
	}
	if len(apiErr.Detail) > 0 {
		var s string
		if json.Unmarshal(apiErr.Detail, &s) == nil && s != "" {
			return s, true
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(apiErr.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; "), true
			}
		}
	}
	if apiErr.Error != "" {
		return apiErr.Error, true
	}
	if apiErr.Reason != "" {
		return apiErr.Reason, true
	}
	return "", false
}
