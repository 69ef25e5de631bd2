package commands

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func at(day, hour int) *time.Time {
	t := time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC)
	return &t
}

// memoryRecords is an in-memory domain.RecordRepository.
type memoryRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.Record
	order   []uuid.UUID
	edges   map[string]map[uuid.UUID][]uuid.UUID
	writes  []uuid.UUID
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{
		records: make(map[uuid.UUID]*domain.Record),
		edges:   make(map[string]map[uuid.UUID][]uuid.UUID),
	}
}

func (m *memoryRecords) Save(_ context.Context, r *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID()]; !ok {
		m.order = append(m.order, r.ID())
	}
	m.records[r.ID()] = r.Clone()
	return nil
}

func (m *memoryRecords) hydrate(r *domain.Record, fields domain.FieldSet) *domain.Record {
	out := r.Clone()
	out.SetRelation(fields.Dependency.Name, m.edges[fields.Dependency.Name][r.ID()])
	var succs []uuid.UUID
	for _, id := range m.order {
		if slices.Contains(m.edges[fields.Dependency.Name][id], r.ID()) {
			succs = append(succs, id)
		}
	}
	out.SetRelation(fields.DependencyInverted.Name, succs)
	return out
}

func (m *memoryRecords) Browse(_ context.Context, fields domain.FieldSet, ids ...uuid.UUID) ([]*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Record
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			out = append(out, m.hydrate(r, fields))
		}
	}
	return out, nil
}

func (m *memoryRecords) WriteDates(_ context.Context, id uuid.UUID, values map[string]*time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	m.writes = append(m.writes, id)
	for field, value := range values {
		if r.HasDate(field) {
			r.SetDate(field, value)
		}
	}
	return nil
}

func (m *memoryRecords) AddDependency(_ context.Context, relation string, recordID, dependsOnID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edges[relation] == nil {
		m.edges[relation] = make(map[uuid.UUID][]uuid.UUID)
	}
	if !slices.Contains(m.edges[relation][recordID], dependsOnID) {
		m.edges[relation][recordID] = append(m.edges[relation][recordID], dependsOnID)
	}
	return nil
}

func (m *memoryRecords) ListByModel(_ context.Context, model string, fields domain.FieldSet) ([]*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Record
	for _, id := range m.order {
		if r := m.records[id]; r.Model() == model {
			out = append(out, m.hydrate(r, fields))
		}
	}
	return out, nil
}

type span struct{ start, stop *time.Time }

// snapshot returns every record's dates.
func (m *memoryRecords) snapshot(fields domain.FieldSet) map[uuid.UUID]span {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]span, len(m.records))
	for id, r := range m.records {
		out[id] = span{fields.Start.Get(r), fields.Stop.Get(r)}
	}
	return out
}

func (m *memoryRecords) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

// graph builds records and edges in a memoryRecords store.
type graph struct {
	t      *testing.T
	repo   *memoryRecords
	fields domain.FieldSet
	ids    map[string]uuid.UUID
}

func newGraph(t *testing.T) *graph {
	return &graph{t: t, repo: newMemoryRecords(), fields: domain.DefaultFieldSet(), ids: make(map[string]uuid.UUID)}
}

func (g *graph) add(name string, start, stop *time.Time) uuid.UUID {
	g.t.Helper()
	r, err := domain.NewRecord("project.task", name)
	require.NoError(g.t, err)
	g.fields.Start.Set(r, start)
	g.fields.Stop.Set(r, stop)
	require.NoError(g.t, g.repo.Save(context.Background(), r))
	g.ids[name] = r.ID()
	return r.ID()
}

// link makes pred a predecessor of succ.
func (g *graph) link(pred, succ string) {
	g.t.Helper()
	require.NoError(g.t, g.repo.AddDependency(context.Background(), g.fields.Dependency.Name, g.ids[succ], g.ids[pred]))
}

func (g *graph) dates(name string) (time.Time, time.Time) {
	g.t.Helper()
	s := g.repo.snapshot(g.fields)[g.ids[name]]
	require.NotNil(g.t, s.start)
	require.NotNil(g.t, s.stop)
	return *s.start, *s.stop
}

func (g *graph) names(ids []uuid.UUID) []string {
	byID := make(map[uuid.UUID]string, len(g.ids))
	for name, id := range g.ids {
		byID[id] = name
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

func (g *graph) handler() *RescheduleHandler {
	return NewRescheduleHandler(g.repo, nil, nil, nil).WithClock(clock)
}

func (g *graph) reschedule(dir, master, slave string) *domain.RescheduleResult {
	g.t.Helper()
	result, err := g.handler().Handle(context.Background(), RescheduleCommand{
		Direction: dir,
		MasterID:  g.ids[master],
		SlaveID:   g.ids[slave],
		Hooks:     domain.DefaultHooks{Now: clock},
	})
	require.NoError(g.t, err)
	return result
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return ctx, args.Error(1)
	}
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memoryUndoLogs is an in-memory domain.UndoLogRepository.
type memoryUndoLogs struct {
	logs map[string]domain.UndoLog
	ttls map[string]time.Duration
}

func newMemoryUndoLogs() *memoryUndoLogs {
	return &memoryUndoLogs{logs: make(map[string]domain.UndoLog), ttls: make(map[string]time.Duration)}
}

func (m *memoryUndoLogs) Save(_ context.Context, token string, log domain.UndoLog, ttl time.Duration) error {
	m.logs[token] = log
	m.ttls[token] = ttl
	return nil
}

func (m *memoryUndoLogs) Take(_ context.Context, token string) (domain.UndoLog, error) {
	log, ok := m.logs[token]
	if !ok {
		return nil, domain.ErrUndoLogNotFound
	}
	delete(m.logs, token)
	return log, nil
}

// memoryAttempts is an in-memory domain.RescheduleAttemptRepository.
type memoryAttempts struct {
	created []domain.RescheduleAttempt
}

func (m *memoryAttempts) Create(_ context.Context, a domain.RescheduleAttempt) error {
	m.created = append(m.created, a)
	return nil
}

func (m *memoryAttempts) List(_ context.Context, model string, limit int) ([]domain.RescheduleAttempt, error) {
	var out []domain.RescheduleAttempt
	for i := len(m.created) - 1; i >= 0 && len(out) < limit; i-- {
		if model == "" || m.created[i].Model == model {
			out = append(out, m.created[i])
		}
	}
	return out, nil
}

// memoryOutbox is an in-memory outbox.Repository that only records saves.
type memoryOutbox struct {
	messages []*outbox.Message
}

func (m *memoryOutbox) Save(_ context.Context, msg *outbox.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memoryOutbox) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	for _, msg := range msgs {
		if err := m.Save(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryOutbox) GetUnpublished(context.Context, int) ([]*outbox.Message, error) {
	return nil, nil
}
func (m *memoryOutbox) MarkPublished(context.Context, int64) error { return nil }
func (m *memoryOutbox) MarkFailed(context.Context, int64, string, time.Time) error {
	return nil
}
func (m *memoryOutbox) MarkDead(context.Context, int64, string) error { return nil }
func (m *memoryOutbox) DeleteOld(context.Context, int) (int64, error) { return 0, nil }
