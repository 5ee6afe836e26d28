package domain

import "encoding/json"

// ProtectedData is the response of the API-key protected smoke-test endpoint.
// QuotaLeft is nil when the backend does not report a quota. Raw holds the
// body as received since the backend may return any JSON.
type ProtectedData struct {
	Msg       string          `json:"msg"`
	QuotaLeft *int            `json:"quota_left,omitempty"`
	Raw       json.RawMessage `json:"-"`
}
