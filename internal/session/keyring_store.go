package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keychain service name tokens are filed under.
const KeyringService = "plangate"

// KeyringStore keeps the token in the OS keychain (macOS Keychain, Secret
// Service on Linux, Windows Credential Manager).
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a keychain-backed store. An empty service uses KeyringService.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = KeyringService
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(context.Context) (string, bool, error) {
	tok, err := keyring.Get(s.service, TokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session.KeyringStore.Get: %w", err)
	}
	return tok, tok != "", nil
}

func (s *KeyringStore) Set(_ context.Context, token string) error {
	if err := keyring.Set(s.service, TokenKey, token); err != nil {
		return fmt.Errorf("session.KeyringStore.Set: %w", err)
	}
	return nil
}

func (s *KeyringStore) Clear(context.Context) error {
	err := keyring.Delete(s.service, TokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("session.KeyringStore.Clear: %w", err)
	}
	return nil
}
