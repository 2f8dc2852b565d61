// Package file provides a file-based store, one JSON document per key.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/autoflow/pkg/persistence"
)

const extension = ".json"

// Store implements persistence.Store on the file system. A key such as
// "session:ana:sales" is stored at <root>/session/ana/sales.json.
type Store struct {
	root string
	mu   sync.RWMutex
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	if err := os.MkdirAll(cleanRoot, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store root %s: %w", cleanRoot, err)
	}

	return &Store{root: cleanRoot}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}

// Put writes to a temporary file and renames it, so readers never see a
// partial document.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)

	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || !strings.HasSuffix(path, extension) {
			return nil
		}

		key, err := s.key(path)
		if err != nil {
			return nil //nolint:nilerr // foreign files under the root are ignored
		}

		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	slices.Sort(keys)

	return keys, nil
}

// HealthCheck verifies the root directory exists.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (s *Store) Close(_ context.Context) error {
	return nil
}

// path maps a key to a file below root, escaping every segment.
func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", persistence.NewStoreError("Path", key, persistence.ErrInvalidKey)
	}

	segments := strings.Split(key, ":")
	for i, segment := range segments {
		if segment == "" {
			return "", persistence.NewStoreError("Path", key, persistence.ErrInvalidKey)
		}

		segments[i] = url.PathEscape(segment)
		if segments[i] == "." || segments[i] == ".." {
			return "", persistence.NewStoreError("Path", key, persistence.ErrInvalidKey)
		}
	}

	return filepath.Join(append([]string{s.root}, segments...)...) + extension, nil
}

func (s *Store) key(path string) (string, error) {
	rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, extension))
	if err != nil {
		return "", err
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, segment := range segments {
		unescaped, err := url.PathUnescape(segment)
		if err != nil {
			return "", err
		}

		segments[i] = unescaped
	}

	return strings.Join(segments, ":"), nil
}
