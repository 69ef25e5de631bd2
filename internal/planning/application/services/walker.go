package services

import (
	"context"
	"slices"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
)

// Relation selects which neighbours the walker follows.
type Relation int

const (
	Successors Relation = iota
	Predecessors
)

func (r Relation) String() string {
	if r == Predecessors {
		return "predecessors"
	}
	return "successors"
}

func (r Relation) neighbours(ctx context.Context, set *RecordSet, rec *domain.Record) ([]*domain.Record, error) {
	if r == Predecessors {
		return set.Predecessors(ctx, rec)
	}
	return set.Successors(ctx, rec)
}

// IDSet is a set of record ids.
type IDSet map[uuid.UUID]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...uuid.UUID) IDSet {
	s := make(IDSet, len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids.
func (s IDSet) Add(ids ...uuid.UUID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports membership.
func (s IDSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

type walkFrame struct {
	record     *domain.Record
	neighbours []*domain.Record
	next       int
}

// CollectCandidates walks the graph from seed along relation depth first and
// returns the reachable candidates in topological order for that relation.
// Excluded records are neither entered nor returned; the seed is always
// entered. Meeting a record that is on the current path reports a cycle.
func CollectCandidates(
	ctx context.Context,
	set *RecordSet,
	hooks domain.Hooks,
	seed *domain.Record,
	relation Relation,
	excluded IDSet,
) (bool, []uuid.UUID, error) {
	visited := NewIDSet(seed.ID())
	onPath := NewIDSet(seed.ID())

	first, err := relation.neighbours(ctx, set, seed)
	if err != nil {
		return false, nil, err
	}
	stack := []*walkFrame{{record: seed, neighbours: first}}

	var postOrder []uuid.UUID
	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.next < len(top.neighbours) {
			n := top.neighbours[top.next]
			top.next++

			if onPath.Has(n.ID()) {
				return true, nil, nil
			}
			if visited.Has(n.ID()) || excluded.Has(n.ID()) {
				continue
			}

			neighbours, err := relation.neighbours(ctx, set, n)
			if err != nil {
				return false, nil, err
			}
			visited.Add(n.ID())
			onPath.Add(n.ID())
			stack = append(stack, &walkFrame{record: n, neighbours: neighbours})
			continue
		}

		stack = stack[:len(stack)-1]
		delete(onPath, top.record.ID())
		if !excluded.Has(top.record.ID()) && hooks.IsRecordCandidate(top.record, set.Fields()) {
			postOrder = append(postOrder, top.record.ID())
		}
	}

	slices.Reverse(postOrder)
	return false, postOrder, nil
}
