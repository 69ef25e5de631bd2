package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordRepository persists records. Reads fill the relations named by the
// field set: Dependency holds predecessors, DependencyInverted successors.
type RecordRepository interface {
	// Save creates or updates a record with all its date fields.
	Save(ctx context.Context, record *Record) error

	// Browse loads the records with the given ids. Missing ids are skipped.
	Browse(ctx context.Context, fields FieldSet, ids ...uuid.UUID) ([]*Record, error)

	// WriteDates updates the named date fields. Fields the record does not
	// carry are ignored; an unknown record yields ErrRecordNotFound.
	WriteDates(ctx context.Context, id uuid.UUID, values map[string]*time.Time) error

	// AddDependency records that recordID depends on dependsOnID through relation.
	AddDependency(ctx context.Context, relation string, recordID, dependsOnID uuid.UUID) error

	// ListByModel loads every record of a model.
	ListByModel(ctx context.Context, model string, fields FieldSet) ([]*Record, error)
}

// UndoLogRepository keeps undo logs under a token for a later rollback.
type UndoLogRepository interface {
	// Save stores log under token for ttl.
	Save(ctx context.Context, token string, log UndoLog, ttl time.Duration) error
	// Take returns and deletes the log, or ErrUndoLogNotFound.
	Take(ctx context.Context, token string) (UndoLog, error)
}

// RescheduleAttemptRepository defines persistence for reschedule attempts.
type RescheduleAttemptRepository interface {
	// Create stores a new reschedule attempt.
	Create(ctx context.Context, attempt RescheduleAttempt) error
	// List returns the latest attempts first; an empty model lists all.
	List(ctx context.Context, model string, limit int) ([]RescheduleAttempt, error)
}
