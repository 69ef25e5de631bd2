package migrations_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/migrations"
)

func TestRun_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, migrations.Run(ctx, conn))
	// second run is a no-op
	require.NoError(t, migrations.Run(ctx, conn))

	var versions int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
	assert.Equal(t, 2, versions)

	for _, table := range []string{"records", "record_dates", "record_dependencies", "undo_logs", "reschedule_attempts", "outbox"} {
		var name string
		err := conn.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}
