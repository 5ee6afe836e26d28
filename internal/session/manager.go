package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/plangate/pkg/client"
	"github.com/naveenspark/plangate/pkg/domain"
)

// Authenticator is the identity half of the backend API.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*domain.Ack, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// Status describes how much is known about the current token.
type Status int

const (
	// StatusAbsent means there is no session.
	StatusAbsent Status = iota
	// StatusUnknown means a token is present but nothing has vouched for it
	// since it was loaded; it may have expired server-side.
	StatusUnknown
	// StatusValid means the token was issued by Login in this process or
	// has since been accepted by a protected call.
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusUnknown:
		return "unknown"
	default:
		return "absent"
	}
}

// AuthError is a rejection from the identity endpoints. Its message is the
// server-supplied detail, or a generic fallback when there was none.
type AuthError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *AuthError) Error() string { return e.Detail }

func (e *AuthError) Unwrap() error { return e.Err }

// Claims is what the client can read from a JWT token without verifying it.
// It is for display only and never decides whether a session exists.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Manager is the sole writer of the session store.
type Manager struct {
	auth   Authenticator
	store  Store
	logger *slog.Logger

	// mu serialises Login/Logout writes against readers.
	mu sync.RWMutex
	// vouched is the token last confirmed good; Status is Valid only while
	// the stored token still equals it.
	vouched string
}

// NewManager wires a Manager to its backend and store. A nil logger discards.
func NewManager(auth Authenticator, store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{auth: auth, store: store, logger: logger}
}

// Register creates an account. It never establishes a session.
func (m *Manager) Register(ctx context.Context, email, password string) (*domain.Ack, error) {
	ack, err := m.auth.Register(ctx, email, password)
	if err != nil {
		return nil, authError(err, "Register failed")
	}
	m.logger.InfoContext(ctx, "account registered")
	return ack, nil
}

// Login exchanges credentials for a token and makes it the active session.
// On any failure the previous session, if any, is left exactly as it was.
func (m *Manager) Login(ctx context.Context, email, password string) (string, error) {
	token, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return "", authError(err, "Login failed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(ctx, token); err != nil {
		return "", fmt.Errorf("session.Login: persist token: %w", err)
	}
	m.vouched = token
	m.logger.InfoContext(ctx, "session established", slog.String("subject", subjectOf(token)))
	return token, nil
}

// Token returns the current token, if any. It has no side effects.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read()
}

// IsLoggedIn reports whether a token is present.
func (m *Manager) IsLoggedIn() bool {
	_, ok := m.Token()
	return ok
}

// Status reports what is known about the current token.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.read()
	switch {
	case !ok:
		return StatusAbsent
	case tok == m.vouched:
		return StatusValid
	default:
		return StatusUnknown
	}
}

// Logout clears the session. Calling it without a session is a no-op.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear(ctx, "logout")
}

// Confirm records that a protected call succeeded with the current token.
func (m *Manager) Confirm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tok, ok := m.read(); ok {
		m.vouched = tok
	}
}

// Invalidate drops the session when err shows the backend rejected the
// token (HTTP 401). It reports whether the session was cleared.
func (m *Manager) Invalidate(ctx context.Context, err error) bool {
	if !client.IsStatus(err, http.StatusUnauthorized) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.read(); !ok {
		return false
	}
	m.clear(ctx, "rejected by backend")
	return true
}

// Claims decodes the token's subject and expiry, if the token is a JWT.
func (m *Manager) Claims() (Claims, bool) {
	tok, ok := m.Token()
	if !ok {
		return Claims{}, false
	}
	return parseClaims(tok)
}

func (m *Manager) read() (string, bool) {
	tok, ok, err := m.store.Get(context.Background())
	if err != nil {
		m.logger.Warn("read session store", slog.String("error", err.Error()))
		return "", false
	}
	return tok, ok
}

func (m *Manager) clear(ctx context.Context, reason string) {
	if _, ok := m.read(); !ok {
		return
	}
	if err := m.store.Clear(ctx); err != nil {
		m.logger.ErrorContext(ctx, "clear session store", slog.String("error", err.Error()))
		return
	}
	m.vouched = ""
	m.logger.InfoContext(ctx, "session cleared", slog.String("reason", reason))
}

// authError turns a 4xx from the identity endpoints into an AuthError and
// passes everything else (transport failures, 5xx) through wrapped.
func authError(err error, fallback string) error {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
		return &AuthError{
			StatusCode: httpErr.StatusCode,
			Detail:     client.Message(err, fallback),
			Err:        err,
		}
	}
	return fmt.Errorf("session: %w", err)
}

func parseClaims(token string) (Claims, bool) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}, false
	}
	c := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, true
}

func subjectOf(token string) string {
	if c, ok := parseClaims(token); ok {
		return c.Subject
	}
	return ""
}
