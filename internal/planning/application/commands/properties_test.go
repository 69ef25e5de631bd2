package commands

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomDAG adds n records on January 1st to 3rd and links lower indexes to
// higher ones only, so the graph has no cycle.
func randomDAG(t *testing.T, rng *rand.Rand, n int) (*graph, [][2]string) {
	g := newGraph(t)
	names := make([]string, n)
	for i := range n {
		names[i] = fmt.Sprintf("R%02d", i)
		start := now.Add(time.Duration(1+rng.Intn(48*4)) * 15 * time.Minute)
		stop := start.Add(time.Duration(1+rng.Intn(16)) * 15 * time.Minute)
		g.add(names[i], &start, &stop)
	}

	var edges [][2]string
	for i := range n {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < 3.0/float64(n) {
				g.link(names[i], names[j])
				edges = append(edges, [2]string{names[i], names[j]})
			}
		}
	}
	return g, edges
}

func TestReschedule_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(20250101))
	limit := now.Add(-30 * time.Second)

	for round := range 60 {
		n := 2 + rng.Intn(49)
		g, edges := randomDAG(t, rng, n)
		if len(edges) == 0 {
			continue
		}
		edge := edges[rng.Intn(len(edges))]
		dir := "forward"
		if rng.Intn(2) == 1 {
			dir = "backward"
		}

		name := fmt.Sprintf("round %d %s %s->%s", round, dir, edge[0], edge[1])
		t.Run(name, func(t *testing.T) {
			before := g.repo.snapshot(g.fields)
			result := g.reschedule(dir, edge[0], edge[1])
			after := g.repo.snapshot(g.fields)

			for id, s := range after {
				if s.start != nil && before[id].start != nil && !s.start.Equal(*before[id].start) {
					assert.False(t, s.start.Before(limit), "%s written in the past", g.names([]uuid.UUID{id}))
				}
			}

			switch result.Type {
			case domain.ResultError, domain.ResultWarning:
				assert.Equal(t, before, after, "failed calls leave the store unchanged")
				assert.Empty(t, result.UndoLog)
				return
			}

			for _, id := range result.Moved {
				old, moved := before[id], after[id]
				require.NotNil(t, old.start)
				assert.Equal(t, old.stop.Sub(*old.start), moved.stop.Sub(*moved.start), "duration of %s", g.names([]uuid.UUID{id}))
			}

			if !result.Mode.ConflictFree() {
				assertTopologicalWrites(t, g, result.Moved, dir)
			}

			_, err := NewRollbackHandler(g.repo, nil, nil).Handle(context.Background(), RollbackCommand{UndoLog: result.UndoLog})
			require.NoError(t, err)
			assert.Equal(t, before, g.repo.snapshot(g.fields), "rollback restores every record")
		})
	}
}

// assertTopologicalWrites checks that a predecessor is written before its
// successor going forward and after it going backward.
func assertTopologicalWrites(t *testing.T, g *graph, moved []uuid.UUID, dir string) {
	t.Helper()
	records, err := g.repo.Browse(context.Background(), g.fields, moved...)
	require.NoError(t, err)
	for _, u := range records {
		ui := slices.Index(moved, u.ID())
		for _, v := range g.fields.DependencyInverted.Get(u) {
			vi := slices.Index(moved, v)
			if vi < 0 {
				continue
			}
			if dir == "forward" {
				assert.Less(t, ui, vi)
			} else {
				assert.Greater(t, ui, vi)
			}
		}
	}
}

func TestReschedule_CycleWritesNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 20 {
		g, edges := randomDAG(t, rng, 3+rng.Intn(10))
		if len(edges) == 0 {
			continue
		}
		// Close a cycle through the chosen edge.
		edge := edges[rng.Intn(len(edges))]
		g.link(edge[1], edge[0])
		before := g.repo.snapshot(g.fields)

		result := g.reschedule("forward", edge[0], edge[1])

		if result.Type == domain.ResultError {
			assert.Equal(t, domain.MsgDependencyLoop, result.Message)
		}
		assert.NotEqual(t, domain.ResultSuccess, result.Type)
		assert.Equal(t, before, g.repo.snapshot(g.fields))
	}
}
