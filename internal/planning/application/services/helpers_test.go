package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/services"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// day10 returns 2025-01-10 at the given hour.
func day10(hour int) *time.Time {
	t := time.Date(2025, 1, 10, hour, 0, 0, 0, time.UTC)
	return &t
}

// memoryRecords is an in-memory domain.RecordRepository.
type memoryRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.Record
	edges   map[string]map[uuid.UUID][]uuid.UUID
	writes  int
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
	m.records[r.ID()] = r.Clone()
	return nil
}

func (m *memoryRecords) hydrate(r *domain.Record, fields domain.FieldSet) *domain.Record {
	out := r.Clone()
	out.SetRelation(fields.Dependency.Name, m.edges[fields.Dependency.Name][r.ID()])
	var succs []uuid.UUID
	for id, deps := range m.edges[fields.Dependency.Name] {
		for _, dep := range deps {
			if dep == r.ID() {
				succs = append(succs, id)
			}
		}
	}
	sortIDs(succs)
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
	m.writes++
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
	m.edges[relation][recordID] = append(m.edges[relation][recordID], dependsOnID)
	return nil
}

func (m *memoryRecords) ListByModel(_ context.Context, model string, fields domain.FieldSet) ([]*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Record
	for _, r := range m.records {
		if r.Model() == model {
			out = append(out, m.hydrate(r, fields))
		}
	}
	return out, nil
}

func (m *memoryRecords) dates(id uuid.UUID, fields domain.FieldSet) (*time.Time, *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.records[id]
	return fields.Start.Get(r), fields.Stop.Get(r)
}

func sortIDs(ids []uuid.UUID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].String() < ids[j-1].String(); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
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
	r, err := domain.NewRecord("task", name)
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

func (g *graph) set() *services.RecordSet {
	return services.NewRecordSet(g.repo, g.fields, clock, services.DefaultPastTolerance)
}

func (g *graph) get(set *services.RecordSet, name string) *domain.Record {
	g.t.Helper()
	r, err := set.Get(context.Background(), g.ids[name])
	require.NoError(g.t, err)
	return r
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

func (g *graph) dates(name string) (time.Time, time.Time) {
	start, stop := g.repo.dates(g.ids[name], g.fields)
	return *start, *stop
}

func defaultHooks() domain.DefaultHooks {
	return domain.DefaultHooks{Now: clock}
}
