package services

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
)

// DefaultPastTolerance absorbs clock skew between validating and writing.
const DefaultPastTolerance = 30 * time.Second

// RecordSet is the per-call view over the record store. Every record is
// loaded at most once and writes update the loaded copy, so reads stay
// consistent for the whole call.
type RecordSet struct {
	repo      domain.RecordRepository
	fields    domain.FieldSet
	now       func() time.Time
	tolerance time.Duration
	loaded    map[uuid.UUID]*domain.Record
}

// NewRecordSet creates a record set. A nil clock means time.Now and a
// negative tolerance means DefaultPastTolerance.
func NewRecordSet(repo domain.RecordRepository, fields domain.FieldSet, now func() time.Time, tolerance time.Duration) *RecordSet {
	if now == nil {
		now = time.Now
	}
	if tolerance < 0 {
		tolerance = DefaultPastTolerance
	}
	return &RecordSet{
		repo:      repo,
		fields:    fields,
		now:       now,
		tolerance: tolerance,
		loaded:    make(map[uuid.UUID]*domain.Record),
	}
}

// Fields returns the field set the call works on.
func (s *RecordSet) Fields() domain.FieldSet { return s.fields }

// Get returns one record or ErrRecordNotFound.
func (s *RecordSet) Get(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	records, err := s.Browse(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return records[0], nil
}

// Browse returns the records in the order of ids, skipping missing ones.
func (s *RecordSet) Browse(ctx context.Context, ids ...uuid.UUID) ([]*domain.Record, error) {
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := s.loaded[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		records, err := s.repo.Browse(ctx, s.fields, missing...)
		if err != nil {
			return nil, fmt.Errorf("browse records: %w", err)
		}
		for _, r := range records {
			s.loaded[r.ID()] = r
		}
	}

	out := make([]*domain.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.loaded[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RecordSet) Start(r *domain.Record) *time.Time { return s.fields.Start.Get(r) }
func (s *RecordSet) Stop(r *domain.Record) *time.Time  { return s.fields.Stop.Get(r) }

// Predecessors returns the records r depends on.
func (s *RecordSet) Predecessors(ctx context.Context, r *domain.Record) ([]*domain.Record, error) {
	return s.Browse(ctx, s.fields.Dependency.Get(r)...)
}

// Successors returns the records that depend on r.
func (s *RecordSet) Successors(ctx context.Context, r *domain.Record) ([]*domain.Record, error) {
	return s.Browse(ctx, s.fields.DependencyInverted.Get(r)...)
}

// WriteDates persists new dates for r. A start earlier than now minus the
// tolerance is refused with ErrScheduledInPast and nothing is written.
func (s *RecordSet) WriteDates(ctx context.Context, r *domain.Record, start, stop time.Time) error {
	if start.Before(s.now().Add(-s.tolerance)) {
		return fmt.Errorf("%s at %s: %w", r.DisplayName(), start.Format(time.RFC3339), domain.ErrScheduledInPast)
	}

	values := map[string]*time.Time{
		s.fields.Start.Name: &start,
		s.fields.Stop.Name:  &stop,
	}
	if err := s.repo.WriteDates(ctx, r.ID(), values); err != nil {
		return fmt.Errorf("write dates of %s: %w", r.DisplayName(), err)
	}
	s.fields.Start.Set(r, &start)
	s.fields.Stop.Set(r, &stop)
	return nil
}

// Restore writes logged values back without the past check.
func (s *RecordSet) Restore(ctx context.Context, id uuid.UUID, entry domain.UndoEntry) error {
	if err := s.repo.WriteDates(ctx, id, entry); err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	if r, ok := s.loaded[id]; ok {
		for field, value := range entry {
			if r.HasDate(field) {
				r.SetDate(field, value)
			}
		}
	}
	return nil
}
