package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sqliteStack struct {
	records  *persistence.SQLRecordRepository
	undoLogs *persistence.SQLUndoLogRepository
	attempts *persistence.SQLRescheduleAttemptRepository
	outbox   *outbox.SQLRepository
	uow      *database.GenericUnitOfWork
	fields   domain.FieldSet
}

func newSQLiteStack(t *testing.T) *sqliteStack {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "ganttline.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))

	return &sqliteStack{
		records:  persistence.NewSQLRecordRepository(conn),
		undoLogs: persistence.NewSQLUndoLogRepository(conn),
		attempts: persistence.NewSQLRescheduleAttemptRepository(conn),
		outbox:   outbox.NewSQLRepository(conn),
		uow:      database.NewUnitOfWork(conn),
		fields:   domain.DefaultFieldSet(),
	}
}

func (s *sqliteStack) create(t *testing.T, name string, start, stop *time.Time) uuid.UUID {
	t.Helper()
	out, err := NewCreateRecordHandler(s.records, s.uow).Handle(context.Background(), CreateRecordCommand{
		Model: "project.task", Name: name, Start: start, Stop: stop,
	})
	require.NoError(t, err)
	return out.RecordID
}

func (s *sqliteStack) link(t *testing.T, pred, succ uuid.UUID) {
	t.Helper()
	require.NoError(t, NewLinkRecordsHandler(s.records, s.uow).Handle(context.Background(), LinkRecordsCommand{RecordID: succ, DependsOnID: pred}))
}

func (s *sqliteStack) start(t *testing.T, id uuid.UUID) time.Time {
	t.Helper()
	got, err := s.records.Browse(context.Background(), s.fields, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	return *s.fields.Start.Get(got[0])
}

func (s *sqliteStack) handler() *RescheduleHandler {
	return NewRescheduleHandler(s.records, s.uow, nil, nil).
		WithClock(clock).
		WithUndoLogs(s.undoLogs).
		WithAttempts(s.attempts).
		WithOutbox(s.outbox)
}

func TestRescheduleSQLite_SuccessAndTokenRollback(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStack(t)
	a := s.create(t, "A", at(10, 8), at(10, 10))
	b := s.create(t, "B", at(10, 9), at(10, 11))
	s.link(t, a, b)

	result, err := s.handler().Handle(ctx, RescheduleCommand{Direction: "forward", MasterID: a, SlaveID: b})
	require.NoError(t, err)
	require.Equal(t, domain.ResultSuccess, result.Type)
	require.NotEmpty(t, result.UndoToken)
	assert.Equal(t, *at(10, 10), s.start(t, b))

	pending, err := s.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.RoutingKeyRecordsRescheduled, pending[0].RoutingKey)

	attempts, err := s.attempts.List(ctx, "project.task", 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, b, attempts[0].TriggerID)

	out, err := NewRollbackHandler(s.records, s.uow, nil).WithUndoLogs(s.undoLogs).WithOutbox(s.outbox).
		Handle(ctx, RollbackCommand{Token: result.UndoToken})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, out.Restored)
	assert.Equal(t, *at(10, 9), s.start(t, b))

	_, err = s.undoLogs.Take(ctx, result.UndoToken)
	assert.ErrorIs(t, err, domain.ErrUndoLogNotFound)
}

func TestRescheduleSQLite_SavepointUndoesPartialCascade(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStack(t)
	tr := s.create(t, "T", at(1, 1), at(1, 3))
	x := s.create(t, "X", at(1, 3), at(1, 6))
	r := s.create(t, "R", at(1, 4), at(1, 8))
	s.link(t, tr, x)
	s.link(t, x, r)
	s.link(t, tr, r)

	result, err := s.handler().Handle(ctx, RescheduleCommand{Direction: "forward", MasterID: tr, SlaveID: r})
	require.NoError(t, err)

	assert.Equal(t, domain.ResultWarning, result.Type)
	assert.Equal(t, domain.PastMessage("T"), result.Message)
	assert.Equal(t, *at(1, 3), s.start(t, x), "X is back where it was")
	assert.Equal(t, *at(1, 1), s.start(t, tr))

	attempts, err := s.attempts.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1, "the attempt survives the savepoint rollback")
	assert.Equal(t, domain.ResultWarning, attempts[0].ResultType)

	pending, err := s.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRescheduleSQLite_LinkRejectsCycle(t *testing.T) {
	s := newSQLiteStack(t)
	a := s.create(t, "A", at(10, 8), at(10, 10))
	b := s.create(t, "B", at(10, 10), at(10, 11))
	s.link(t, a, b)

	err := NewLinkRecordsHandler(s.records, s.uow).Handle(context.Background(), LinkRecordsCommand{RecordID: a, DependsOnID: b})
	assert.ErrorIs(t, err, domain.ErrDependencyCycle)
}
