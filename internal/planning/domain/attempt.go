package domain

import (
	"time"

	"github.com/google/uuid"
)

// RescheduleAttempt audits one rescheduling call that reached its savepoint,
// whatever its outcome.
type RescheduleAttempt struct {
	ID          uuid.UUID
	Model       string
	MasterID    uuid.UUID
	SlaveID     uuid.UUID
	TriggerID   uuid.UUID
	RelatedID   uuid.UUID
	Direction   Direction
	Mode        Mode
	ResultType  ResultType
	Message     string
	MovedCount  int
	AttemptedAt time.Time
}
