package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileStore keeps one <key>.json file per key in a directory. Each file is
// replaced atomically.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file storage dir must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating storage dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed reading %s: %w", key, err)
	}
	return data, true, nil
}

func (f *FileStore) Save(ctx context.Context, entries map[string][]byte) error {
	keys, err := orderedKeys(entries)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := atomic.WriteFile(f.path(key), bytes.NewReader(entries[key])); err != nil {
			return fmt.Errorf("failed writing %s: %w", key, err)
		}
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)
