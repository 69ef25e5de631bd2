package persistence_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "planning.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}

func setupPostgres(t *testing.T) database.Connection {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	conn, err := postgres.NewConnection(ctx, database.Config{URL: dbURL})
	if err != nil {
		t.Skipf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))

	for _, table := range []string{"record_dependencies", "record_dates", "records", "undo_logs", "reschedule_attempts"} {
		_, _ = conn.Exec(ctx, "DELETE FROM "+table)
	}
	return conn
}

func at(hour int) *time.Time {
	t := time.Date(2025, 1, 10, hour, 0, 0, 0, time.UTC)
	return &t
}

func newTask(t *testing.T, name string, start, stop *time.Time) *domain.Record {
	t.Helper()
	fields := domain.DefaultFieldSet()
	r, err := domain.NewRecord("project.task", name)
	require.NoError(t, err)
	fields.Start.Set(r, start)
	fields.Stop.Set(r, stop)
	return r
}
