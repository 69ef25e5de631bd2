package domain

import (
	"slices"
	"sort"
	"time"

	sharedDomain "github.com/felixgeelhaar/ganttline/internal/shared/domain"
	"github.com/google/uuid"
)

// Record is a scheduled unit on the chart. Date and relation values are keyed
// by field name so one engine can serve several record models.
type Record struct {
	sharedDomain.BaseEntity
	model       string
	displayName string
	dates       map[string]*time.Time
	relations   map[string][]uuid.UUID
}

// NewRecord creates a record with no dates and no relations.
func NewRecord(model, displayName string) (*Record, error) {
	if model == "" || displayName == "" {
		return nil, ErrInvalidRecord
	}
	return &Record{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		model:       model,
		displayName: displayName,
		dates:       make(map[string]*time.Time),
		relations:   make(map[string][]uuid.UUID),
	}, nil
}

// RehydrateRecord recreates a record from persisted state.
func RehydrateRecord(
	id uuid.UUID,
	model, displayName string,
	createdAt, updatedAt time.Time,
	dates map[string]*time.Time,
	relations map[string][]uuid.UUID,
) *Record {
	r := &Record{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		model:       model,
		displayName: displayName,
		dates:       make(map[string]*time.Time, len(dates)),
		relations:   make(map[string][]uuid.UUID, len(relations)),
	}
	for field, value := range dates {
		r.dates[field] = utcCopy(value)
	}
	for name, ids := range relations {
		r.relations[name] = slices.Clone(ids)
	}
	return r
}

func (r *Record) Model() string       { return r.model }
func (r *Record) DisplayName() string { return r.displayName }

// Date returns a copy of the named date, nil when unset or unknown.
func (r *Record) Date(field string) *time.Time {
	return utcCopy(r.dates[field])
}

// HasDate reports whether the record carries the named date field at all.
func (r *Record) HasDate(field string) bool {
	_, ok := r.dates[field]
	return ok
}

// DateFields returns the sorted names of the record's date fields.
func (r *Record) DateFields() []string {
	fields := make([]string, 0, len(r.dates))
	for field := range r.dates {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// SetDate sets (or adds) a date field. A nil value clears it.
func (r *Record) SetDate(field string, value *time.Time) {
	r.dates[field] = utcCopy(value)
	r.Touch()
}

// Relation returns the ids held by the named relation.
func (r *Record) Relation(name string) []uuid.UUID {
	return slices.Clone(r.relations[name])
}

// SetRelation replaces the ids held by the named relation.
func (r *Record) SetRelation(name string, ids []uuid.UUID) {
	r.relations[name] = slices.Clone(ids)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	return RehydrateRecord(r.ID(), r.model, r.displayName, r.CreatedAt(), r.UpdatedAt(), r.dates, r.relations)
}

func utcCopy(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
