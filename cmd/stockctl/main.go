package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/inventory"
	"github.com/andresuchdata/stockwatch/internal/service"
	"github.com/andresuchdata/stockwatch/internal/storage"
	"github.com/andresuchdata/stockwatch/pkg/logger"
)

type contextKey string

const (
	serviceKey contextKey = "inventory-service"
	backendKey contextKey = "storage-backend"
)

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "driver",
			Usage:   "Storage driver (memory, file, sqlite3, postgres, pgx, redis, minio)",
			EnvVars: []string{"STORAGE_DRIVER"},
		},
		&cli.StringFlag{
			Name:    "dir",
			Usage:   "Directory for the file driver",
			EnvVars: []string{"STORAGE_DIR"},
		},
		&cli.StringFlag{
			Name:    "sqlite-path",
			Usage:   "Database file for the sqlite3 driver",
			EnvVars: []string{"SQLITE_PATH"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level",
			Value:   "warn",
			EnvVars: []string{"LOG_LEVEL"},
		},
	}
}

// storageConfig starts from the environment defaults and applies any flags
// given on the command line.
func storageConfig(c *cli.Context) config.StorageConfig {
	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()
	cfg := config.FromViper(v).Storage

	if c.IsSet("driver") {
		cfg.Driver = c.String("driver")
	}
	if c.IsSet("dir") {
		cfg.Dir = c.String("dir")
	}
	if c.IsSet("sqlite-path") {
		cfg.SQLitePath = c.String("sqlite-path")
	}
	return cfg
}

func openService(c *cli.Context) error {
	logger.Setup(c.String("log-level"), "console", c.App.ErrWriter)

	backend, err := storage.Open(c.Context, storageConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	store, err := inventory.Open(c.Context, backend)
	if err != nil {
		backend.Close()
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	c.Context = context.WithValue(c.Context, backendKey, backend)
	c.Context = context.WithValue(c.Context, serviceKey, service.NewInventoryService(store, nil))
	return nil
}

func closeService(c *cli.Context) error {
	if svc, ok := c.Context.Value(serviceKey).(*service.InventoryService); ok && svc != nil {
		svc.Close()
	}
	if backend, ok := c.Context.Value(backendKey).(storage.Store); ok && backend != nil {
		return backend.Close()
	}
	return nil
}

func inventoryService(c *cli.Context) *service.InventoryService {
	return c.Context.Value(serviceKey).(*service.InventoryService)
}

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "stockctl",
		Usage:     "Track stock levels, expiry dates and inventory movements",
		Writer:    out,
		ErrWriter: errOut,
		Flags:     storageFlags(),
		Before:    openService,
		After:     closeService,
		Commands: []*cli.Command{
			addCommand(),
			updateCommand(),
			deleteCommand(),
			listCommand(),
			alertsCommand(),
			dashboardCommand(),
			transactionsCommand(),
			seedCommand(),
			exportCommand(),
		},
	}
}

func main() {
	_ = godotenv.Load()

	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
