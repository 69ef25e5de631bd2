package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
)

// RecordDTO is a data transfer object for records.
type RecordDTO struct {
	ID           uuid.UUID   `json:"id"`
	Model        string      `json:"model,omitempty"`
	Name         string      `json:"name,omitempty"`
	Start        *time.Time  `json:"start,omitempty"`
	Stop         *time.Time  `json:"stop,omitempty"`
	Predecessors []uuid.UUID `json:"predecessors,omitempty"`
	Successors   []uuid.UUID `json:"successors,omitempty"`
}

func toRecordDTO(r *domain.Record, fields domain.FieldSet) RecordDTO {
	return RecordDTO{
		ID:           r.ID(),
		Model:        r.Model(),
		Name:         r.DisplayName(),
		Start:        fields.Start.Get(r),
		Stop:         fields.Stop.Get(r),
		Predecessors: fields.Dependency.Get(r),
		Successors:   fields.DependencyInverted.Get(r),
	}
}

// ListRecordsQuery contains the parameters for listing records.
type ListRecordsQuery struct {
	Model string
	// Fields defaults to domain.DefaultFieldSet when zero.
	Fields domain.FieldSet
}

// ListRecordsHandler handles the ListRecordsQuery.
type ListRecordsHandler struct {
	records domain.RecordRepository
}

// NewListRecordsHandler creates a new ListRecordsHandler.
func NewListRecordsHandler(records domain.RecordRepository) *ListRecordsHandler {
	return &ListRecordsHandler{records: records}
}

// Handle executes the ListRecordsQuery.
func (h *ListRecordsHandler) Handle(ctx context.Context, query ListRecordsQuery) ([]RecordDTO, error) {
	fields := query.Fields
	if fields == (domain.FieldSet{}) {
		fields = domain.DefaultFieldSet()
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	records, err := h.records.ListByModel(ctx, query.Model, fields)
	if err != nil {
		return nil, err
	}
	out := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordDTO(r, fields))
	}
	return out, nil
}
