package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
)

// DefaultAttemptsLimit caps ListRescheduleAttempts when no limit is given.
const DefaultAttemptsLimit = 20

// AttemptDTO is a data transfer object for reschedule attempts.
type AttemptDTO struct {
	ID          uuid.UUID `json:"id"`
	Model       string    `json:"model"`
	MasterID    uuid.UUID `json:"master_id"`
	SlaveID     uuid.UUID `json:"slave_id"`
	TriggerID   uuid.UUID `json:"trigger_id"`
	Direction   string    `json:"direction"`
	Mode        string    `json:"mode,omitempty"`
	ResultType  string    `json:"type"`
	Message     string    `json:"message"`
	MovedCount  int       `json:"moved_count"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// ListRescheduleAttemptsQuery contains the parameters for listing attempts.
type ListRescheduleAttemptsQuery struct {
	Model string // empty lists every model
	Limit int
}

// ListRescheduleAttemptsHandler handles the ListRescheduleAttemptsQuery.
type ListRescheduleAttemptsHandler struct {
	attempts domain.RescheduleAttemptRepository
}

// NewListRescheduleAttemptsHandler creates a new ListRescheduleAttemptsHandler.
func NewListRescheduleAttemptsHandler(attempts domain.RescheduleAttemptRepository) *ListRescheduleAttemptsHandler {
	return &ListRescheduleAttemptsHandler{attempts: attempts}
}

// Handle executes the ListRescheduleAttemptsQuery.
func (h *ListRescheduleAttemptsHandler) Handle(ctx context.Context, query ListRescheduleAttemptsQuery) ([]AttemptDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultAttemptsLimit
	}
	attempts, err := h.attempts.List(ctx, query.Model, limit)
	if err != nil {
		return nil, err
	}

	out := make([]AttemptDTO, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, AttemptDTO{
			ID:          a.ID,
			Model:       a.Model,
			MasterID:    a.MasterID,
			SlaveID:     a.SlaveID,
			TriggerID:   a.TriggerID,
			Direction:   string(a.Direction),
			Mode:        string(a.Mode),
			ResultType:  string(a.ResultType),
			Message:     a.Message,
			MovedCount:  a.MovedCount,
			AttemptedAt: a.AttemptedAt,
		})
	}
	return out, nil
}
