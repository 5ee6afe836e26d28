package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// toggle is a Presence whose answer can change between calls.
type toggle struct {
	on    bool
	calls int
}

func (t *toggle) IsLoggedIn() bool {
	t.calls++
	return t.on
}

func TestCanEnter(t *testing.T) {
	tests := []struct {
		route    Route
		loggedIn bool
		want     bool
	}{
		{Login, false, true},
		{Login, true, true},
		{Return, false, true},
		{Plans, false, false},
		{Plans, true, true},
		{APITest, false, false},
		{APITest, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.route), func(t *testing.T) {
			g := New(&toggle{on: tt.loggedIn})
			assert.Equal(t, tt.want, g.CanEnter(tt.route))
		})
	}
}

func TestCanEnter_NoMemoization(t *testing.T) {
	s := &toggle{}
	g := New(s)

	assert.False(t, g.CanEnter(Plans))
	s.on = true
	assert.True(t, g.CanEnter(Plans))
	s.on = false
	assert.False(t, g.CanEnter(Plans))
	assert.Equal(t, 3, s.calls, "each decision must consult the session")
}

func TestCanEnter_MatchesPresenceForProtected(t *testing.T) {
	s := &toggle{}
	g := New(s)
	for _, on := range []bool{false, true, true, false} {
		s.on = on
		for _, r := range Routes {
			if Protected(r) {
				assert.Equal(t, on, g.CanEnter(r), "route %s", r)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		route    Route
		loggedIn bool
		want     Route
	}{
		{"denied redirects to login", Plans, false, Login},
		{"allowed", Plans, true, Plans},
		{"api test denied", APITest, false, Login},
		{"return is public", Return, false, Return},
		{"unknown route", Route("/nowhere"), true, Login},
		{"empty route", Route(""), false, Login},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(&toggle{on: tt.loggedIn}).Resolve(tt.route))
		})
	}
}
