package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bumdes/internal/mirror"
)

// Store mirrors the ledger into a single JSON file.
type Store struct {
	path string
}

var _ mirror.Mirror = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, mirror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read mirror file: %w", err)
	}
	return b, nil
}

// Save writes to a temporary file and renames it over the target, so a
// reader never sees a half-written document.
func (s *Store) Save(_ context.Context, doc []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create mirror directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".mirror-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace mirror file: %w", err)
	}
	return nil
}
