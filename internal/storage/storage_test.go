package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockwatch/internal/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, KeyInventory)
	require.NoError(t, err)
	assert.False(t, ok, "fresh store has no inventory")

	err = s.Save(ctx, map[string][]byte{
		KeyInventory:    []byte(`[{"id":"1"}]`),
		KeyTransactions: []byte(`[]`),
	})
	require.NoError(t, err)

	got, ok, err := s.Load(ctx, KeyInventory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"1"}]`, string(got))

	require.NoError(t, s.Save(ctx, map[string][]byte{KeyInventory: []byte(`[]`)}))

	got, ok, err = s.Load(ctx, KeyInventory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got), "save replaces the whole blob")

	got, ok, err = s.Load(ctx, KeyTransactions)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got), "untouched keys survive")

	assert.Error(t, s.Save(ctx, map[string][]byte{"../escape": []byte(`x`)}))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	value := []byte(`[1]`)
	require.NoError(t, s.Save(context.Background(), map[string][]byte{KeyInventory: value}))

	value[1] = '2'
	got, _, err := s.Load(context.Background(), KeyInventory)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	exerciseStore(t, s)

	data, err := os.ReadFile(filepath.Join(dir, "transactions.json"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestOrderedKeysWritesLedgerFirst(t *testing.T) {
	keys, err := orderedKeys(map[string][]byte{
		"audit":         nil,
		KeyInventory:    nil,
		KeyTransactions: nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{KeyTransactions, "audit", KeyInventory}, keys)

	_, err = orderedKeys(map[string][]byte{"../etc": nil})
	assert.Error(t, err)
}

func TestFileStoreFailedLedgerWriteSkipsInventory(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	// a directory in place of the ledger file makes its write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "transactions.json"), 0o755))

	err = s.Save(context.Background(), map[string][]byte{
		KeyInventory:    []byte(`[{"id":"1"}]`),
		KeyTransactions: []byte(`[]`),
	})
	require.Error(t, err)

	_, ok, err := s.Load(context.Background(), KeyInventory)
	require.NoError(t, err)
	assert.False(t, ok, "inventory is not written ahead of its ledger")
}

func TestFileStoreRequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stockwatch.db")

	s, err := NewSQLStore(ctx, "sqlite3", SQLiteDSN(path))
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	reopened, err := NewSQLStore(ctx, "sqlite3", SQLiteDSN(path))
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Load(ctx, KeyTransactions)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Driver: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Driver: "SQLite3", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StorageConfig{Driver: "floppy"})
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "stock", SSLMode: "disable",
	})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=stock sslmode=disable", dsn)
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions(config.RedisConfig{Password: "secret", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = RedisOptions(config.RedisConfig{URL: "redis://cache:6380/4"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 4, opts.DB)

	_, err = RedisOptions(config.RedisConfig{URL: "://bad"})
	assert.Error(t, err)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"localhost:9000", true, "localhost:9000", true},
		{"//minio:9000", false, "minio:9000", false},
	}

	for _, tt := range tests {
		host, secure := normalizeEndpoint(tt.in, tt.useSSL)
		assert.Equal(t, tt.wantHost, host, tt.in)
		assert.Equal(t, tt.wantSecure, secure, tt.in)
	}
}

func TestNewMinioStoreValidatesConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewMinioStore(ctx, config.MinioConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioStore(ctx, config.MinioConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewMinioStore(ctx, config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")
}
