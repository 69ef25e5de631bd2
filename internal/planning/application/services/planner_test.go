package services_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/services"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFor(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(8), day10(10))
	g.add("B", day10(11), day10(12))
	g.add("C", day10(9), day10(12))
	g.link("A", "B")
	g.link("A", "C")
	set := g.set()
	a, b, c := g.get(set, "A"), g.get(set, "B"), g.get(set, "C")

	assert.Equal(t, domain.ModeConflictFreeForward, services.ModeFor(set, a, b, domain.Forward))
	assert.Equal(t, domain.ModeInConflictForward, services.ModeFor(set, a, c, domain.Forward))
	assert.Equal(t, domain.ModeConflictFreeBackward, services.ModeFor(set, b, a, domain.Backward))
	assert.Equal(t, domain.ModeInConflictBackward, services.ModeFor(set, c, a, domain.Backward))
	assert.Equal(t, domain.ModeInConflictForward, services.ModeFor(set, b, a, domain.Forward), "related must be a successor")
}

func TestPlanner_ConflictFreeForward(t *testing.T) {
	// T -> X -> R, T -> R, T -> Y: X lies between T and R, Y does not.
	g := newGraph(t)
	g.add("T", day10(9), day10(10))
	g.add("X", day10(11), day10(12))
	g.add("R", day10(14), day10(15))
	g.add("Y", day10(16), day10(17))
	g.add("Z", day10(18), day10(19))
	g.link("T", "X")
	g.link("X", "R")
	g.link("T", "R")
	g.link("T", "Y")
	g.link("R", "Z")
	set := g.set()

	plan, err := services.NewPlanner(nil).Plan(context.Background(), set, defaultHooks(), g.get(set, "T"), g.get(set, "R"), domain.Forward)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeConflictFreeForward, plan.Mode)
	assert.False(t, plan.HasCycle)
	require.Len(t, plan.Steps, 2)

	squeeze := plan.Steps[0]
	assert.Equal(t, []string{"X", "T"}, g.names(squeeze.Candidates))
	assert.Equal(t, services.AnchorRelatedStart, squeeze.Anchor)
	assert.Equal(t, domain.Backward, squeeze.Direction)
	assert.True(t, squeeze.MoveUnconflicted)

	push := plan.Steps[1]
	assert.Equal(t, []string{"Y"}, g.names(push.Candidates), "successors of related stay out")
	assert.Equal(t, services.AnchorTriggerStop, push.Anchor)
	assert.Equal(t, domain.Forward, push.Direction)
	assert.Equal(t, 3, plan.CandidateCount())
}

func TestPlanner_ConflictFreeBackward(t *testing.T) {
	g := newGraph(t)
	g.add("M", day10(10), day10(11))
	g.add("Y", day10(12), day10(13))
	g.add("S", day10(14), day10(15))
	g.link("M", "Y")
	g.link("Y", "S")
	g.link("M", "S")
	set := g.set()

	plan, err := services.NewPlanner(nil).Plan(context.Background(), set, defaultHooks(), g.get(set, "S"), g.get(set, "M"), domain.Backward)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeConflictFreeBackward, plan.Mode)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, []string{"Y", "S"}, g.names(plan.Steps[0].Candidates))
	assert.Equal(t, services.AnchorRelatedStop, plan.Steps[0].Anchor)
	assert.Equal(t, domain.Forward, plan.Steps[0].Direction)
}

func TestPlanner_InConflict(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(8), day10(10))
	g.add("B", day10(9), day10(11))
	g.add("C", day10(12), day10(13))
	g.link("A", "B")
	g.link("B", "C")
	set := g.set()

	plan, err := services.NewPlanner(nil).Plan(context.Background(), set, defaultHooks(), g.get(set, "B"), g.get(set, "A"), domain.Forward)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeInConflictForward, plan.Mode)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, []string{"B", "C"}, g.names(plan.Steps[0].Candidates))
	assert.Equal(t, services.AnchorRelatedStop, plan.Steps[0].Anchor)
	assert.False(t, plan.Steps[0].MoveUnconflicted)

	anchor := services.ResolveAnchor(set, plan.Steps[0].Anchor, g.get(set, "B"), g.get(set, "A"))
	require.NotNil(t, anchor)
	assert.Equal(t, *day10(10), *anchor)
}

func TestPlanner_ReportsCycle(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(10), day10(12))
	g.add("B", day10(11), day10(13))
	g.add("C", day10(12), day10(14))
	g.link("A", "B")
	g.link("B", "C")
	g.link("C", "A")
	set := g.set()

	plan, err := services.NewPlanner(nil).Plan(context.Background(), set, defaultHooks(), g.get(set, "B"), g.get(set, "A"), domain.Forward)
	require.NoError(t, err)
	assert.True(t, plan.HasCycle)
	assert.Empty(t, plan.Steps)
}

func TestPlanner_NoCandidates(t *testing.T) {
	g := newGraph(t)
	g.add("A", day10(8), day10(10))
	g.add("B", day10(9), day10(11))
	g.link("A", "B")
	set := g.set()

	hooks := rejectAll{defaultHooks()}
	plan, err := services.NewPlanner(nil).Plan(context.Background(), set, hooks, g.get(set, "B"), g.get(set, "A"), domain.Forward)
	require.NoError(t, err)
	assert.Zero(t, plan.CandidateCount())
}

type rejectAll struct{ domain.DefaultHooks }

func (rejectAll) IsRecordCandidate(*domain.Record, domain.FieldSet) bool { return false }
