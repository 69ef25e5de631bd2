package commands

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRecords(t *testing.T) {
	g := newGraph(t)
	g.add("A", at(10, 8), at(10, 10))
	g.add("B", at(10, 10), at(10, 11))
	g.add("C", at(10, 11), at(10, 12))
	handler := NewLinkRecordsHandler(g.repo, nil)
	ctx := context.Background()

	link := func(pred, succ string) error {
		return handler.Handle(ctx, LinkRecordsCommand{RecordID: g.ids[succ], DependsOnID: g.ids[pred]})
	}

	require.NoError(t, link("A", "B"))
	require.NoError(t, link("B", "C"))
	require.NoError(t, link("A", "B"), "linking twice is a no-op")

	got, err := g.repo.Browse(ctx, g.fields, g.ids["B"])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []uuid.UUID{g.ids["A"]}, g.fields.Dependency.Get(got[0]))
	assert.Equal(t, []uuid.UUID{g.ids["C"]}, g.fields.DependencyInverted.Get(got[0]))

	t.Run("cycle", func(t *testing.T) {
		assert.ErrorIs(t, link("C", "A"), domain.ErrDependencyCycle)
	})

	t.Run("self", func(t *testing.T) {
		assert.ErrorIs(t, link("A", "A"), domain.ErrSelfDependency)
	})

	t.Run("missing", func(t *testing.T) {
		err := handler.Handle(ctx, LinkRecordsCommand{RecordID: g.ids["A"], DependsOnID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})
}
