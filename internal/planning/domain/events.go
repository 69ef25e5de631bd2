package domain

import (
	sharedDomain "github.com/felixgeelhaar/ganttline/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Record"

	RoutingKeyRecordsRescheduled = "planning.records.rescheduled"
	RoutingKeyRecordsRestored    = "planning.records.restored"
)

// RecordsRescheduled is emitted when a rescheduling call committed writes.
// The aggregate is the trigger record.
type RecordsRescheduled struct {
	sharedDomain.BaseEvent
	Model     string      `json:"model"`
	TriggerID uuid.UUID   `json:"trigger_id"`
	RelatedID uuid.UUID   `json:"related_id"`
	Direction Direction   `json:"direction"`
	Mode      Mode        `json:"mode"`
	Moved     []uuid.UUID `json:"moved"`
	UndoToken string      `json:"undo_token,omitempty"`
}

// NewRecordsRescheduled creates a RecordsRescheduled event.
func NewRecordsRescheduled(trigger, related *Record, dir Direction, mode Mode, moved []uuid.UUID, undoToken string) *RecordsRescheduled {
	return &RecordsRescheduled{
		BaseEvent: sharedDomain.NewBaseEvent(trigger.ID(), AggregateType, RoutingKeyRecordsRescheduled),
		Model:     trigger.Model(),
		TriggerID: trigger.ID(),
		RelatedID: related.ID(),
		Direction: dir,
		Mode:      mode,
		Moved:     moved,
		UndoToken: undoToken,
	}
}

// RecordsRestored is emitted when an undo log was written back.
type RecordsRestored struct {
	sharedDomain.BaseEvent
	Restored  []uuid.UUID `json:"restored"`
	UndoToken string      `json:"undo_token,omitempty"`
}

// NewRecordsRestored creates a RecordsRestored event. Its aggregate is the
// first restored record.
func NewRecordsRestored(restored []uuid.UUID, undoToken string) *RecordsRestored {
	var aggregateID uuid.UUID
	if len(restored) > 0 {
		aggregateID = restored[0]
	}
	return &RecordsRestored{
		BaseEvent: sharedDomain.NewBaseEvent(aggregateID, AggregateType, RoutingKeyRecordsRestored),
		Restored:  restored,
		UndoToken: undoToken,
	}
}
