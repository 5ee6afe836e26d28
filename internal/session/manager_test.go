package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/plangate/pkg/client"
	"github.com/naveenspark/plangate/pkg/domain"
)

type fakeAuth struct {
	token    string
	loginErr error
	regErr   error
	logins   int
}

func (f *fakeAuth) Register(context.Context, string, string) (*domain.Ack, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &domain.Ack{Msg: "registered"}, nil
}

func (f *fakeAuth) Login(context.Context, string, string) (string, error) {
	f.logins++
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

// failingStore refuses writes.
type failingStore struct{ *MemoryStore }

func (failingStore) Set(context.Context, string) error { return errors.New("disk full") }

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds) //nolint:errcheck
		switch r.URL.Path {
		case "/login":
			if creds.Password != "x" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "T1"}) //nolint:errcheck
		case "/register":
			if creds.Email == "taken@b.com" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Email already registered"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"msg": "registered"}) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin_StoresToken(t *testing.T) {
	srv := newBackend(t)
	m := NewManager(client.New(srv.URL), NewMemoryStore(""), nil)

	tok, err := m.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "T1", tok)

	got, ok := m.Token()
	assert.True(t, ok)
	assert.Equal(t, "T1", got)
	assert.True(t, m.IsLoggedIn())
	assert.Equal(t, StatusValid, m.Status())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := newBackend(t)
	m := NewManager(client.New(srv.URL), NewMemoryStore(""), nil)

	_, err := m.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.False(t, m.IsLoggedIn())
}

func TestLogin_FailureKeepsPriorSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rejected", &client.HTTPError{StatusCode: 423, Message: "Account locked", Detail: true}},
		{"transport", &client.TransportError{Op: "do request", Err: errors.New("connection refused")}},
		{"server", &client.HTTPError{StatusCode: 500, Message: "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore("OLD")
			m := NewManager(&fakeAuth{loginErr: tt.err}, store, nil)

			_, err := m.Login(context.Background(), "a@b.com", "x")
			require.Error(t, err)

			tok, ok := m.Token()
			assert.True(t, ok)
			assert.Equal(t, "OLD", tok)
		})
	}
}

func TestLogin_TransportErrorIsNotAuthError(t *testing.T) {
	m := NewManager(&fakeAuth{loginErr: &client.TransportError{Op: "do request", Err: errors.New("refused")}}, NewMemoryStore(""), nil)
	_, err := m.Login(context.Background(), "a@b.com", "x")

	var authErr *AuthError
	assert.False(t, errors.As(err, &authErr))
	assert.True(t, client.IsTransport(err))
}

func TestLogin_StoreFailureKeepsPriorSession(t *testing.T) {
	store := failingStore{NewMemoryStore("OLD")}
	m := NewManager(&fakeAuth{token: "NEW"}, store, nil)

	_, err := m.Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)

	tok, _ := m.Token()
	assert.Equal(t, "OLD", tok)
}

func TestLoginLogoutBracket(t *testing.T) {
	m := NewManager(&fakeAuth{token: "T1"}, NewMemoryStore(""), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.False(t, m.IsLoggedIn(), "before login, round %d", i)
		_, err := m.Login(ctx, "a@b.com", "x")
		require.NoError(t, err)
		assert.True(t, m.IsLoggedIn(), "between login and logout, round %d", i)
		m.Logout(ctx)
		assert.False(t, m.IsLoggedIn(), "after logout, round %d", i)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	m := NewManager(&fakeAuth{}, NewMemoryStore(""), nil)
	m.Logout(context.Background())
	m.Logout(context.Background())
	assert.False(t, m.IsLoggedIn())
	assert.Equal(t, StatusAbsent, m.Status())
}

func TestRegister(t *testing.T) {
	srv := newBackend(t)
	m := NewManager(client.New(srv.URL), NewMemoryStore(""), nil)

	ack, err := m.Register(context.Background(), "new@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "registered", ack.Msg)
	assert.False(t, m.IsLoggedIn(), "register must not create a session")

	_, err = m.Register(context.Background(), "taken@b.com", "x")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
}

func TestRegister_FallbackMessage(t *testing.T) {
	m := NewManager(&fakeAuth{regErr: &client.HTTPError{StatusCode: 400, Message: "<html>bad</html>"}}, NewMemoryStore(""), nil)
	_, err := m.Register(context.Background(), "a@b.com", "x")
	assert.Equal(t, "Register failed", err.Error())
}

func TestStatus_LoadedTokenIsUnknownUntilConfirmed(t *testing.T) {
	m := NewManager(&fakeAuth{}, NewMemoryStore("persisted"), nil)
	assert.Equal(t, StatusUnknown, m.Status())
	assert.True(t, m.IsLoggedIn())

	m.Confirm()
	assert.Equal(t, StatusValid, m.Status())
}

func TestStatus_ExternalChangeIsUnknown(t *testing.T) {
	store := NewMemoryStore("")
	m := NewManager(&fakeAuth{token: "T1"}, store, nil)
	_, err := m.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	// Another context sharing the store swaps the token.
	require.NoError(t, store.Set(context.Background(), "T2"))
	assert.Equal(t, StatusUnknown, m.Status())
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&fakeAuth{}, NewMemoryStore("stale"), nil)

	assert.False(t, m.Invalidate(ctx, &client.HTTPError{StatusCode: 500}))
	assert.False(t, m.Invalidate(ctx, &client.TransportError{Op: "do request", Err: errors.New("x")}))
	assert.True(t, m.IsLoggedIn())

	assert.True(t, m.Invalidate(ctx, &client.HTTPError{StatusCode: http.StatusUnauthorized}))
	assert.False(t, m.IsLoggedIn())

	assert.False(t, m.Invalidate(ctx, &client.HTTPError{StatusCode: http.StatusUnauthorized}), "nothing left to clear")
}

func TestClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "a@b.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	m := NewManager(&fakeAuth{}, NewMemoryStore(signed), nil)
	c, ok := m.Claims()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", c.Subject)
	assert.True(t, c.ExpiresAt.Equal(exp))

	opaque := NewManager(&fakeAuth{}, NewMemoryStore("T1"), nil)
	_, ok = opaque.Claims()
	assert.False(t, ok, "opaque tokens carry no claims")

	empty := NewManager(&fakeAuth{}, NewMemoryStore(""), nil)
	_, ok = empty.Claims()
	assert.False(t, ok)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
	assert.Equal(t, "valid", StatusValid.String())
}
