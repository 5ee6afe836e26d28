package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/plangate/pkg/domain"
)

// maxBodySize caps how much of any response body is read. Raw bodies over
// the cap are rejected rather than truncated.
const maxBodySize = 1 << 20 // 1 MB

// TokenSource yields the current bearer token, or "" when there is no session.
// It is consulted on every request so login and logout take effect immediately.
type TokenSource func() string

// Client is the plangate API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithToken uses a fixed bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.tokens = func() string { return token } }
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     func() string { return "" },
		httpClient: &http.Client{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.Ack, error) {
	var ack domain.Ack
	if err := c.post(ctx, "/register", domain.Credentials{Email: email, Password: password}, &ack); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &ack, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var tok domain.TokenResponse
	if err := c.post(ctx, "/login", domain.Credentials{Email: email, Password: password}, &tok); err != nil {
		return "", fmt.Errorf("client.Login: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("client.Login: response missing access_token")
	}
	return tok.AccessToken, nil
}

// ListPlans fetches the current plan catalog. Nothing is cached.
func (c *Client) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	if err := c.get(ctx, "/plans", &plans); err != nil {
		return nil, fmt.Errorf("client.ListPlans: %w", err)
	}
	return plans, nil
}

// ListSubscriptions fetches the backend's subscription records.
func (c *Client) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	if err := c.get(ctx, "/subscriptions", &subs); err != nil {
		return nil, fmt.Errorf("client.ListSubscriptions: %w", err)
	}
	return subs, nil
}

// Subscribe posts the purchase request as a multipart form and returns the
// backend's checkout document byte for byte.
func (c *Client) Subscribe(ctx context.Context, r domain.SubscriptionRequest) (domain.CheckoutPayload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"first_name", r.FirstName},
		{"last_name", r.LastName},
		{"email", r.Email},
		{"plan_id", strconv.Itoa(r.PlanID)},
	}
	for _, opt := range []struct{ name, value string }{
		{"phone", r.Phone},
		{"address", r.Address},
		{"city", r.City},
	} {
		if opt.value != "" {
			fields = append(fields, opt)
		}
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("client.Subscribe: write %s: %w", f.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client.Subscribe: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/subscribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("client.Subscribe: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "text/html")

	var body []byte
	if err := c.do(req, &body); err != nil {
		return nil, fmt.Errorf("client.Subscribe: %w", err)
	}
	return domain.CheckoutPayload(body), nil
}

// ProtectedData calls the API-key protected endpoint, the way a third-party
// consumer would. The session token is not sent.
func (c *Client) ProtectedData(ctx context.Context, apiKey string) (*domain.ProtectedData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/data", nil)
	if err != nil {
		return nil, fmt.Errorf("client.ProtectedData: create request: %w", err)
	}
	req.Header.Set("x-api-key", apiKey)

	var raw []byte
	if err := c.send(req, &raw, false); err != nil {
		return nil, fmt.Errorf("client.ProtectedData: %w", err)
	}
	data := domain.ProtectedData{Raw: json.RawMessage(raw)}
	// Arbitrary JSON is allowed; the typed fields are best-effort.
	_ = json.Unmarshal(raw, &data) //nolint:errcheck
	return &data, nil
}

// ReturnURL is the page the payment gateway sends the buyer back to.
func (c *Client) ReturnURL(orderID string) string {
	params := url.Values{}
	params.Set("order_id", orderID)
	return c.baseURL + "/subscribe/return?" + params.Encode()
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	return c.send(req, out, true)
}

// send executes req and decodes the response into out. out may be nil, a
// *[]byte for the raw body, or any JSON target. The bearer token is attached
// only when withSession is set.
func (c *Client) send(req *http.Request, out any, withSession bool) error {
	if tok := c.tokens(); tok != "" && withSession {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(req.Context(), "api request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		return &TransportError{Op: "do request", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.logger.DebugContext(req.Context(), "api request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", reqID),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		if msg, ok := parseErrorBody(respBody); ok {
			return &HTTPError{StatusCode: resp.StatusCode, Message: msg, Detail: true}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *[]byte:
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
		if err != nil {
			return &TransportError{Op: "read response", Err: err}
		}
		if len(data) > maxBodySize {
			return fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxBodySize)
		}
		*dst = data
		return nil
	default:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}
