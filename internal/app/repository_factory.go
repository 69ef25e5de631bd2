package app

import (
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/outbox"
	"github.com/redis/go-redis/v9"
)

// RepositoryFactory creates repositories for a connection. Undo logs move to
// Redis when a client is configured.
type RepositoryFactory struct {
	conn  database.Connection
	redis *redis.Client
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// WithRedis stores undo logs in Redis instead of the database.
func (f *RepositoryFactory) WithRedis(client *redis.Client) *RepositoryFactory {
	f.redis = client
	return f
}

// Driver returns the driver of the underlying connection.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.conn.Driver()
}

// RecordRepository creates the record repository.
func (f *RepositoryFactory) RecordRepository() domain.RecordRepository {
	return persistence.NewSQLRecordRepository(f.conn)
}

// UndoLogRepository creates the undo log store.
func (f *RepositoryFactory) UndoLogRepository() domain.UndoLogRepository {
	if f.redis != nil {
		return persistence.NewRedisUndoLogRepository(f.redis)
	}
	return persistence.NewSQLUndoLogRepository(f.conn)
}

// ExpiringUndoLogs returns the SQL undo log store when it needs periodic
// cleanup, or nil when Redis expires the logs itself.
func (f *RepositoryFactory) ExpiringUndoLogs() *persistence.SQLUndoLogRepository {
	if f.redis != nil {
		return nil
	}
	return persistence.NewSQLUndoLogRepository(f.conn)
}

// AttemptRepository creates the reschedule attempt repository.
func (f *RepositoryFactory) AttemptRepository() domain.RescheduleAttemptRepository {
	return persistence.NewSQLRescheduleAttemptRepository(f.conn)
}

// OutboxRepository creates the outbox repository.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	return outbox.NewSQLRepository(f.conn)
}

// UnitOfWork creates a unit of work bound to the connection.
func (f *RepositoryFactory) UnitOfWork() *database.GenericUnitOfWork {
	return database.NewUnitOfWork(f.conn)
}
