package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists the token as a 0600 file named TokenKey inside dir.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir (typically ~/.plangate).
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, TokenKey)
}

func (s *FileStore) Get(context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session.FileStore.Get: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	return tok, tok != "", nil
}

// Set writes to a temp file and renames it over the token file, so readers
// see either the old token or the new one.
func (s *FileStore) Set(_ context.Context, token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("session.FileStore.Set: create %s: %w", s.dir, err)
	}
	tmp, err := os.CreateTemp(s.dir, TokenKey+".*.tmp")
	if err != nil {
		return fmt.Errorf("session.FileStore.Set: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("session.FileStore.Set: chmod: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("session.FileStore.Set: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session.FileStore.Set: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("session.FileStore.Set: rename: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(context.Context) error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session.FileStore.Clear: %w", err)
	}
	return nil
}
