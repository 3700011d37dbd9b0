package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/config"
)

// Keys of the two persisted collections.
const (
	KeyInventory    = "inventory"
	KeyTransactions = "transactions"
)

// Store is a whole-blob key/value store. Every Save replaces the full value
// of each given key.
type Store interface {
	// Load returns the blob for key; ok is false when nothing was saved yet.
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Save writes every entry. The memory, sqlite/postgres and redis backends
	// write all entries atomically. The file and minio backends write one key
	// at a time, transactions first, so a failed save can leave the ledger
	// ahead of the inventory but never an inventory change without its
	// ledger entry.
	Save(ctx context.Context, entries map[string][]byte) error
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "memory":
		return NewMemoryStore(), nil
	case "", "file":
		return NewFileStore(cfg.Dir)
	case "sqlite3", "sqlite":
		return NewSQLStore(ctx, "sqlite3", SQLiteDSN(cfg.SQLitePath))
	case "postgres":
		return NewSQLStore(ctx, "postgres", PostgresDSN(cfg.Database))
	case "pgx":
		return NewSQLStore(ctx, "pgx", PostgresDSN(cfg.Database))
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "minio", "s3":
		return NewMinioStore(ctx, cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

// orderedKeys validates the keys of entries and returns them in write order:
// the transaction ledger first, the rest sorted.
func orderedKeys(entries map[string][]byte) ([]string, error) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		if err := validateKey(key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == KeyTransactions) != (keys[j] == KeyTransactions) {
			return keys[i] == KeyTransactions
		}
		return keys[i] < keys[j]
	})
	return keys, nil
}
