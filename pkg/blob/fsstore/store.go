// Package fsstore is the primary blob.Store backend: bodies are stored
// as files on local disk, sharded by the first two characters of the
// opaque identifier (root/xy/id). Adapted from the teacher's
// pkg/payload/store/fs package: same temp-file-then-rename atomic
// write, same empty-directory cleanup on delete.
package fsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fileshare/fileshared/pkg/blob"
)

// Store is a filesystem-backed blob.Store.
type Store struct {
	basePath string
	closed   bool
}

// Open creates the base directory (mode 0755) if missing and returns a
// ready Store.
func Open(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, errors.New("fsstore: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("fsstore: base path is not a directory")
	}
	return &Store{basePath: basePath}, nil
}

// shardPath returns root/xy/id for an opaque id, where xy is its first
// two characters. Ids never contain path separators, so this never
// escapes basePath.
func (s *Store) shardPath(id string) string {
	shard := id
	if len(id) >= 2 {
		shard = id[:2]
	}
	return filepath.Join(s.basePath, shard, id)
}

func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	if s.closed {
		return blob.ErrClosed
	}

	path := s.shardPath(id)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	if s.closed {
		return nil, blob.ErrClosed
	}

	data, err := os.ReadFile(s.shardPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, blob.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if s.closed {
		return blob.ErrClosed
	}

	path := s.shardPath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return blob.ErrNotFound
		}
		return err
	}
	s.cleanEmptyDirs(filepath.Dir(path))
	return nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if s.closed {
		return false, blob.ErrClosed
	}

	_, err := os.Stat(s.shardPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// cleanEmptyDirs removes empty shard directories up to basePath.
func (s *Store) cleanEmptyDirs(dir string) {
	base := filepath.Clean(s.basePath)
	for dir != base && strings.HasPrefix(dir, base) {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
}

func (s *Store) Close() error {
	s.closed = true
	return nil
}

var _ blob.Store = (*Store)(nil)
