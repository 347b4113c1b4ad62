package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage keeps objects as files under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage returns a LocalStorage rooted at baseDir. The directory is
// created on first write.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

var _ Storage = (*LocalStorage)(nil)

func (s *LocalStorage) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	return data, nil
}

func (s *LocalStorage) Write(_ context.Context, key string, data []byte) error {
	dest := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("storage: create: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	return nil
}

func (s *LocalStorage) Location(key string) string {
	return s.path(key)
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.baseDir, filepath.Clean("/"+key))
}
