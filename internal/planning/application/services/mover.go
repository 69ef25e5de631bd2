package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
)

// MoveResult is the outcome of one mover run.
type MoveResult struct {
	Messages domain.LogMessages
	UndoLog  domain.UndoLog
	// Moved lists the written records in write order.
	Moved []uuid.UUID
}

// Mover writes a plan step's candidates in order and carries the anchor from
// one candidate to the next.
type Mover struct {
	logger *slog.Logger
}

// NewMover creates a new mover.
func NewMover(logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mover{logger: logger}
}

// Move runs one step from anchor. A candidate that would start in the past
// ends the run with a past error; the caller is expected to undo the run.
// Any other returned error comes from the store.
func (m *Mover) Move(ctx context.Context, set *RecordSet, hooks domain.Hooks, step PlanStep, anchor time.Time) (MoveResult, error) {
	result := MoveResult{UndoLog: domain.UndoLog{}}
	fields := set.Fields()

	for i, id := range step.Candidates {
		record, err := set.Get(ctx, id)
		if err != nil {
			return result, err
		}

		move := step.MoveUnconflicted
		if !move {
			if move, err = m.inConflict(ctx, set, hooks, record); err != nil {
				return result, err
			}
		}

		if move {
			start, stop := hooks.ComputeDates(record, anchor, step.Direction, fields)
			result.UndoLog.Remember(record, fields)

			if err := set.WriteDates(ctx, record, start, stop); err != nil {
				if errors.Is(err, domain.ErrScheduledInPast) {
					m.logger.Info("candidate would start in the past",
						"record", record.ID(),
						"start", start,
					)
					result.Messages.AddError(domain.LogMessage{
						Kind:     domain.KindPastError,
						RecordID: record.ID(),
						Text:     domain.PastMessage(record.DisplayName()),
					})
					return result, nil
				}
				return result, err
			}
			result.Moved = append(result.Moved, record.ID())

			if err := m.warnStillInConflict(ctx, set, hooks, record, step.Direction, &result.Messages); err != nil {
				return result, err
			}
		}

		if i+1 == len(step.Candidates) {
			break
		}
		next, err := set.Get(ctx, step.Candidates[i+1])
		if err != nil {
			return result, err
		}
		if anchor, err = m.nextAnchor(ctx, set, record, next, anchor, step.Direction); err != nil {
			return result, err
		}
	}
	return result, nil
}

// nextAnchor keeps next tight against its own neighbours: forward it is the
// latest stop among next's predecessors and the last record, backward the
// earliest start among next's successors and the last record.
func (m *Mover) nextAnchor(ctx context.Context, set *RecordSet, last, next *domain.Record, current time.Time, dir domain.Direction) (time.Time, error) {
	if dir.IsForward() {
		anchor := current
		if stop := set.Stop(last); stop != nil {
			anchor = *stop
		}
		preds, err := set.Predecessors(ctx, next)
		if err != nil {
			return current, err
		}
		for _, p := range preds {
			if stop := set.Stop(p); stop != nil && stop.After(anchor) {
				anchor = *stop
			}
		}
		return anchor, nil
	}

	anchor := current
	if start := set.Start(last); start != nil {
		anchor = *start
	}
	succs, err := set.Successors(ctx, next)
	if err != nil {
		return current, err
	}
	for _, s := range succs {
		if start := set.Start(s); start != nil && start.Before(anchor) {
			anchor = *start
		}
	}
	return anchor, nil
}

// inConflict reports whether record overlaps any predecessor or successor.
func (m *Mover) inConflict(ctx context.Context, set *RecordSet, hooks domain.Hooks, record *domain.Record) (bool, error) {
	fields := set.Fields()
	preds, err := set.Predecessors(ctx, record)
	if err != nil {
		return false, err
	}
	for _, p := range preds {
		if hooks.IsInConflict(p, record, fields) {
			return true, nil
		}
	}
	succs, err := set.Successors(ctx, record)
	if err != nil {
		return false, err
	}
	for _, s := range succs {
		if hooks.IsInConflict(record, s, fields) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Mover) warnStillInConflict(ctx context.Context, set *RecordSet, hooks domain.Hooks, record *domain.Record, dir domain.Direction, log *domain.LogMessages) error {
	fields := set.Fields()
	if dir.IsForward() {
		preds, err := set.Predecessors(ctx, record)
		if err != nil {
			return err
		}
		for _, p := range preds {
			if hooks.IsInConflict(p, record, fields) {
				log.AddWarning(domain.LogMessage{
					Kind:     domain.KindStillInConflict,
					RecordID: record.ID(),
					Text:     domain.StillInConflictMessage(record.DisplayName(), p.DisplayName()),
				})
			}
		}
		return nil
	}

	succs, err := set.Successors(ctx, record)
	if err != nil {
		return err
	}
	for _, s := range succs {
		if hooks.IsInConflict(record, s, fields) {
			log.AddWarning(domain.LogMessage{
				Kind:     domain.KindStillInConflict,
				RecordID: record.ID(),
				Text:     domain.StillInConflictMessage(record.DisplayName(), s.DisplayName()),
			})
		}
	}
	return nil
}
