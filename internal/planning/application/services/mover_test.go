package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/services"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMover_InConflictCascade(t *testing.T) {
	// A(8-10) -> B(9-11) -> C(10-12) -> D(15-16): B and C overlap their
	// predecessors, D has slack and stays.
	g := newGraph(t)
	g.add("A", day10(8), day10(10))
	g.add("B", day10(9), day10(11))
	g.add("C", day10(10), day10(12))
	g.add("D", day10(15), day10(16))
	g.link("A", "B")
	g.link("B", "C")
	g.link("C", "D")
	set := g.set()

	step := services.PlanStep{
		Candidates: []uuid.UUID{g.ids["B"], g.ids["C"], g.ids["D"]},
		Direction:  domain.Forward,
	}
	result, err := services.NewMover(nil).Move(context.Background(), set, defaultHooks(), step, *day10(10))
	require.NoError(t, err)

	assert.False(t, result.Messages.HasErrors())
	assert.Equal(t, []string{"B", "C"}, g.names(result.Moved))
	assert.Len(t, result.UndoLog, 2)
	assert.Equal(t, *day10(9), *result.UndoLog[g.ids["B"]][g.fields.Start.Name])

	start, stop := g.dates("B")
	assert.Equal(t, *day10(10), start)
	assert.Equal(t, *day10(12), stop)
	start, stop = g.dates("C")
	assert.Equal(t, *day10(12), start)
	assert.Equal(t, *day10(14), stop)
	start, _ = g.dates("D")
	assert.Equal(t, *day10(15), start)
}

func TestMover_AnchorFollowsLatestPredecessor(t *testing.T) {
	// B and Late both precede C. After moving B to 10-11, C must start after
	// Late which stops at 13.
	g := newGraph(t)
	g.add("B", day10(9), day10(10))
	g.add("Late", day10(11), day10(13))
	g.add("C", day10(10), day10(11))
	g.link("B", "C")
	g.link("Late", "C")
	set := g.set()

	step := services.PlanStep{
		Candidates:       []uuid.UUID{g.ids["B"], g.ids["C"]},
		Direction:        domain.Forward,
		MoveUnconflicted: true,
	}
	_, err := services.NewMover(nil).Move(context.Background(), set, defaultHooks(), step, *day10(10))
	require.NoError(t, err)

	start, stop := g.dates("C")
	assert.Equal(t, *day10(13), start)
	assert.Equal(t, *day10(14), stop)
}

func TestMover_BackwardAnchorFollowsEarliestSuccessor(t *testing.T) {
	g := newGraph(t)
	g.add("P", day10(10), day10(12))
	g.add("S", day10(13), day10(14))
	g.add("Early", day10(11), day10(15))
	g.link("P", "S")
	g.link("P", "Early")
	set := g.set()

	step := services.PlanStep{
		Candidates:       []uuid.UUID{g.ids["S"], g.ids["P"]},
		Direction:        domain.Backward,
		MoveUnconflicted: true,
	}
	_, err := services.NewMover(nil).Move(context.Background(), set, defaultHooks(), step, *day10(14))
	require.NoError(t, err)

	start, _ := g.dates("S")
	assert.Equal(t, *day10(13), start)
	start, stop := g.dates("P")
	assert.Equal(t, *day10(9), start, "P ends where Early starts")
	assert.Equal(t, *day10(11), stop)
}

func TestMover_StopsOnPastError(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(8), day10(10))
	g.add("B", day10(9), day10(11))
	g.link("A", "B")
	set := g.set()

	step := services.PlanStep{
		Candidates:       []uuid.UUID{g.ids["B"], g.ids["A"]},
		Direction:        domain.Backward,
		MoveUnconflicted: true,
	}
	past := now.Add(-time.Hour)
	result, err := services.NewMover(nil).Move(context.Background(), set, defaultHooks(), step, past)
	require.NoError(t, err)

	require.True(t, result.Messages.HasErrors())
	assert.Equal(t, domain.KindPastError, result.Messages.Errors[0].Kind)
	assert.Equal(t, "B cannot be scheduled in the past.", result.Messages.Text())
	assert.Empty(t, result.Moved)
	assert.Zero(t, g.repo.writes)
}

func TestMover_WarnsWhenStillInConflict(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(8), day10(12))
	g.add("B", day10(9), day10(11))
	g.link("A", "B")
	set := g.set()

	step := services.PlanStep{
		Candidates:       []uuid.UUID{g.ids["B"]},
		Direction:        domain.Forward,
		MoveUnconflicted: true,
	}
	result, err := services.NewMover(nil).Move(context.Background(), set, defaultHooks(), step, *day10(10))
	require.NoError(t, err)

	assert.False(t, result.Messages.HasErrors())
	require.Len(t, result.Messages.Warnings, 1)
	assert.Equal(t, "B is still in conflict with A.", result.Messages.Warnings[0].Text)
}

func TestRecordSet_PastTolerance(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(8), day10(10))
	set := g.set()
	a := g.get(set, "A")

	err := set.WriteDates(context.Background(), a, now.Add(-29*time.Second), now.Add(time.Hour))
	require.NoError(t, err)

	err = set.WriteDates(context.Background(), a, now.Add(-31*time.Second), now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrScheduledInPast)
	assert.Equal(t, 1, g.repo.writes)
}

func TestRecordSet_ReadsStayConsistent(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(8), day10(10))
	g.add("B", day10(9), day10(11))
	g.link("A", "B")
	set := g.set()

	a := g.get(set, "A")
	require.NoError(t, set.WriteDates(context.Background(), a, *day10(12), *day10(14)))

	b := g.get(set, "B")
	preds, err := set.Predecessors(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Same(t, a, preds[0])
	assert.Equal(t, *day10(12), *set.Start(preds[0]))

	require.NoError(t, set.Restore(context.Background(), a.ID(), domain.UndoEntry{
		g.fields.Start.Name: day10(8),
		g.fields.Stop.Name:  day10(10),
		"unknown":           day10(1),
	}))
	assert.Equal(t, *day10(8), *set.Start(a))
	assert.False(t, a.HasDate("unknown"))

	_, err = set.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
