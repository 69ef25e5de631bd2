package domain

import "errors"

var (
	ErrInvalidDirection   = errors.New("direction must be forward or backward")
	ErrRecordsNotRelated  = errors.New("master is not a predecessor of slave")
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidFieldSet    = errors.New("invalid field set")
	ErrInvalidRecord      = errors.New("record needs a model and a name")
	ErrInvalidDateRange   = errors.New("start must not be after stop")
	ErrSelfDependency     = errors.New("a record cannot depend on itself")
	ErrScheduledInPast    = errors.New("record cannot be scheduled in the past")
	ErrDependencyCycle    = errors.New("dependency graph contains a cycle")
	ErrUndoLogNotFound    = errors.New("undo log not found or expired")
	ErrUndoLogUnspecified = errors.New("rollback needs an undo log or a token")
)
