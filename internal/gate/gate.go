// Package gate decides whether a view may be entered. The decision depends
// only on whether a session token is present at the moment it is asked.
package gate

// Route names a navigable view.
type Route string

const (
	Login   Route = "/login"
	Plans   Route = "/plans"
	Return  Route = "/subscribe/return"
	APITest Route = "/api-test"
)

// Presence is the one question the gate asks of the session.
type Presence interface {
	IsLoggedIn() bool
}

// Routes lists every known route in navigation order.
var Routes = []Route{Login, Plans, Return, APITest}

var protected = map[Route]bool{
	Plans:   true,
	APITest: true,
}

// Gate guards protected routes. It holds no state of its own.
type Gate struct {
	session Presence
}

// New returns a Gate that consults session on every call.
func New(session Presence) *Gate {
	return &Gate{session: session}
}

// Known reports whether r is in the route table.
func Known(r Route) bool {
	for _, k := range Routes {
		if k == r {
			return true
		}
	}
	return false
}

// Protected reports whether entering r requires a session.
func Protected(r Route) bool {
	return protected[r]
}

// CanEnter reports whether r may be entered right now. Unprotected routes are
// always open; protected ones are open exactly when a session exists.
func (g *Gate) CanEnter(r Route) bool {
	if !Protected(r) {
		return true
	}
	return g.session.IsLoggedIn()
}

// Resolve returns the route navigation to r actually lands on. Unknown routes
// and denied protected routes land on Login; the requested route is dropped.
func (g *Gate) Resolve(r Route) Route {
	if !Known(r) || !g.CanEnter(r) {
		return Login
	}
	return r
}
