package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
)

// AnchorSource names the date a plan step is laid out from. It is read when
// the step runs, after earlier steps have written.
type AnchorSource string

const (
	AnchorRelatedStart AnchorSource = "related.start"
	AnchorRelatedStop  AnchorSource = "related.stop"
	AnchorTriggerStart AnchorSource = "trigger.start"
	AnchorTriggerStop  AnchorSource = "trigger.stop"
)

// PlanStep is one ordered run of the mover.
type PlanStep struct {
	Candidates       []uuid.UUID
	Anchor           AnchorSource
	Direction        domain.Direction
	MoveUnconflicted bool
}

// Plan is what the planner decided for one call.
type Plan struct {
	Mode     domain.Mode
	HasCycle bool
	Steps    []PlanStep
}

// CandidateCount returns the number of candidates over all steps.
func (p Plan) CandidateCount() int {
	n := 0
	for _, step := range p.Steps {
		n += len(step.Candidates)
	}
	return n
}

// ResolveAnchor reads the step's anchor date, nil when the record lacks it.
func ResolveAnchor(set *RecordSet, source AnchorSource, trigger, related *domain.Record) *time.Time {
	switch source {
	case AnchorRelatedStart:
		return set.Start(related)
	case AnchorRelatedStop:
		return set.Stop(related)
	case AnchorTriggerStart:
		return set.Start(trigger)
	case AnchorTriggerStop:
		return set.Stop(trigger)
	}
	return nil
}

// Planner picks the sub-mode of a call and builds its candidate lists.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner creates a new planner.
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// ModeFor reports which sub-mode applies to trigger and related. The call is
// conflict free when the pair already respects precedence in dir.
func ModeFor(set *RecordSet, trigger, related *domain.Record, dir domain.Direction) domain.Mode {
	fields := set.Fields()
	if dir.IsForward() {
		stop, start := set.Stop(trigger), set.Start(related)
		if stop != nil && start != nil && !stop.After(*start) && fields.DependencyInverted.Contains(trigger, related.ID()) {
			return domain.ModeConflictFreeForward
		}
		return domain.ModeInConflictForward
	}
	stop, start := set.Stop(related), set.Start(trigger)
	if stop != nil && start != nil && !stop.After(*start) && fields.Dependency.Contains(trigger, related.ID()) {
		return domain.ModeConflictFreeBackward
	}
	return domain.ModeInConflictBackward
}

// Plan builds the steps for moving trigger relative to related.
func (p *Planner) Plan(ctx context.Context, set *RecordSet, hooks domain.Hooks, trigger, related *domain.Record, dir domain.Direction) (Plan, error) {
	mode := ModeFor(set, trigger, related, dir)
	var (
		plan Plan
		err  error
	)
	switch mode {
	case domain.ModeConflictFreeForward, domain.ModeConflictFreeBackward:
		plan, err = p.planConflictFree(ctx, set, hooks, trigger, related, dir)
	default:
		plan, err = p.planInConflict(ctx, set, hooks, trigger, dir)
	}
	if err != nil {
		return Plan{}, fmt.Errorf("plan %s: %w", mode, err)
	}
	plan.Mode = mode

	p.logger.Debug("reschedule planned",
		"mode", mode,
		"trigger", trigger.ID(),
		"related", related.ID(),
		"has_cycle", plan.HasCycle,
		"candidates", plan.CandidateCount(),
	)
	return plan, nil
}

func (p *Planner) planInConflict(ctx context.Context, set *RecordSet, hooks domain.Hooks, trigger *domain.Record, dir domain.Direction) (Plan, error) {
	relation, anchor := Successors, AnchorRelatedStop
	if !dir.IsForward() {
		relation, anchor = Predecessors, AnchorRelatedStart
	}

	hasCycle, ordered, err := CollectCandidates(ctx, set, hooks, trigger, relation, NewIDSet())
	if err != nil || hasCycle {
		return Plan{HasCycle: hasCycle}, err
	}
	if len(ordered) == 0 {
		return Plan{}, nil
	}
	return Plan{Steps: []PlanStep{{
		Candidates: ordered,
		Anchor:     anchor,
		Direction:  dir,
	}}}, nil
}

// planConflictFree squeezes the records lying between trigger and related
// against related, then pushes the rest of trigger's side away from trigger.
func (p *Planner) planConflictFree(ctx context.Context, set *RecordSet, hooks domain.Hooks, trigger, related *domain.Record, dir domain.Direction) (Plan, error) {
	fields := set.Fields()

	away, towards := Successors, Predecessors
	relatedAway, triggerTowards := fields.DependencyInverted, fields.Dependency
	squeezeAnchor, pushAnchor := AnchorRelatedStart, AnchorTriggerStop
	if !dir.IsForward() {
		away, towards = Predecessors, Successors
		relatedAway, triggerTowards = fields.Dependency, fields.DependencyInverted
		squeezeAnchor, pushAnchor = AnchorRelatedStop, AnchorTriggerStart
	}

	childExcl := NewIDSet(related.ID())
	childExcl.Add(relatedAway.Get(related)...)
	hasCycle, children, err := CollectCandidates(ctx, set, hooks, trigger, away, childExcl)
	if err != nil || hasCycle {
		return Plan{HasCycle: hasCycle}, err
	}

	betweenExcl := NewIDSet(related.ID())
	betweenExcl.Add(triggerTowards.Get(trigger)...)
	hasCycle, between, err := CollectCandidates(ctx, set, hooks, related, towards, betweenExcl)
	if err != nil || hasCycle {
		return Plan{HasCycle: hasCycle}, err
	}

	inBetween := NewIDSet(between...)
	seen := NewIDSet()
	var before, after []uuid.UUID
	for _, id := range children {
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		if inBetween.Has(id) {
			before = append(before, id)
		} else {
			after = append(after, id)
		}
	}
	if len(before)+len(after) == 0 {
		return Plan{}, nil
	}

	// The squeezed records are laid out from related back towards trigger.
	squeeze := make([]uuid.UUID, 0, len(before))
	for i := len(before) - 1; i >= 0; i-- {
		squeeze = append(squeeze, before[i])
	}

	var steps []PlanStep
	if len(squeeze) > 0 {
		steps = append(steps, PlanStep{
			Candidates:       squeeze,
			Anchor:           squeezeAnchor,
			Direction:        dir.Opposite(),
			MoveUnconflicted: true,
		})
	}
	if len(after) > 0 {
		steps = append(steps, PlanStep{
			Candidates:       after,
			Anchor:           pushAnchor,
			Direction:        dir,
			MoveUnconflicted: true,
		})
	}
	return Plan{Steps: steps}, nil
}
