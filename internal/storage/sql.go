package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/stockwatch/internal/config"
)

const createBlobsTable = `
	CREATE TABLE IF NOT EXISTS kv_blobs (
		blob_key   TEXT PRIMARY KEY,
		blob_value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)
`

const upsertBlob = `
	INSERT INTO kv_blobs (blob_key, blob_value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (blob_key) DO UPDATE
	SET blob_value = excluded.blob_value, updated_at = excluded.updated_at
`

// SQLStore keeps blobs in a kv_blobs table. It works with the sqlite3,
// postgres (lib/pq) and pgx drivers.
type SQLStore struct {
	db  *sqlx.DB
	sem *semaphore.Weighted
}

// NewSQLStore connects with the given driver and creates the table if needed.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	// Configure connection pool
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLStore{
		db:  db,
		sem: semaphore.NewWeighted(10),
	}

	if _, err := db.ExecContext(ctx, createBlobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_blobs table: %w", err)
	}

	return s, nil
}

// SQLiteDSN returns the sqlite3 connection string for path.
func SQLiteDSN(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// PostgresDSN returns a key/value connection string accepted by both lib/pq
// and pgx.
func PostgresDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	query := s.db.Rebind("SELECT blob_value FROM kv_blobs WHERE blob_key = ?")
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error loading %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *SQLStore) Save(ctx context.Context, entries map[string][]byte) error {
	keys, err := orderedKeys(entries)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(upsertBlob)
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, query, key, string(entries[key]), now); err != nil {
				return fmt.Errorf("error saving %s: %w", key, err)
			}
		}
		return nil
	})
}

// WithTx executes a function within a transaction
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer s.sem.Release(1)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
