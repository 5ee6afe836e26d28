// Package session owns the client-side bearer token: how it is obtained,
// where it is persisted and when it is dropped.
package session

import "context"

// TokenKey is the fixed name the token is persisted under in every store.
const TokenKey = "access_token"

// Store is the persistence capability behind a session. The Manager is its
// only writer; everything else reads through the Manager.
type Store interface {
	// Get returns the stored token and whether one exists.
	Get(ctx context.Context) (string, bool, error)
	// Set replaces the stored token in one step.
	Set(ctx context.Context, token string) error
	// Clear removes the token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
