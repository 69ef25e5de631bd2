package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds database configuration.
type Config struct {
	// Driver selects the backend. Empty or "auto" detects it from URL.
	Driver Driver

	// URL is the PostgreSQL connection string.
	URL string

	// SQLitePath is the database file used in local mode.
	// Defaults to ~/.ganttline/ganttline.db
	SQLitePath string

	// MaxConns caps the PostgreSQL pool size.
	MaxConns int
}

type connectFunc func(ctx context.Context, cfg Config) (Connection, error)

var drivers = map[Driver]connectFunc{}

// RegisterDriver registers the connection factory for a driver. Driver
// packages call it from init.
func RegisterDriver(d Driver, fn func(ctx context.Context, cfg Config) (Connection, error)) {
	drivers[d] = fn
}

// NewConnection opens a connection for the configured driver. The driver
// package must be imported for its factory to be registered.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = DetectDriver(cfg.URL)
	}

	connect, ok := drivers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return connect(ctx, cfg)
}

// DefaultSQLitePath returns the default SQLite database path.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".ganttline", "ganttline.db")
}

// EnsureDirectory creates the parent directory for a file path if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
