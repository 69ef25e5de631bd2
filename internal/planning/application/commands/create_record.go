package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/ganttline/internal/shared/application"
	"github.com/google/uuid"
)

// CreateRecordCommand contains the data needed to create a record.
type CreateRecordCommand struct {
	Model string
	Name  string
	Start *time.Time
	Stop  *time.Time
	// Fields defaults to domain.DefaultFieldSet when zero.
	Fields domain.FieldSet
}

// CreateRecordResult contains the result of creating a record.
type CreateRecordResult struct {
	RecordID uuid.UUID
}

// CreateRecordHandler handles the CreateRecordCommand.
type CreateRecordHandler struct {
	records domain.RecordRepository
	uow     sharedApplication.UnitOfWork
}

// NewCreateRecordHandler creates a new CreateRecordHandler.
func NewCreateRecordHandler(records domain.RecordRepository, uow sharedApplication.UnitOfWork) *CreateRecordHandler {
	return &CreateRecordHandler{records: records, uow: uow}
}

// Handle executes the CreateRecordCommand. Both date fields are created,
// even when unset, so later writes can fill them.
func (h *CreateRecordHandler) Handle(ctx context.Context, cmd CreateRecordCommand) (*CreateRecordResult, error) {
	fields := cmd.Fields
	if fields == (domain.FieldSet{}) {
		fields = domain.DefaultFieldSet()
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if cmd.Start != nil && cmd.Stop != nil && cmd.Stop.Before(*cmd.Start) {
		return nil, domain.ErrInvalidDateRange
	}

	record, err := domain.NewRecord(cmd.Model, cmd.Name)
	if err != nil {
		return nil, err
	}
	fields.Start.Set(record, cmd.Start)
	fields.Stop.Set(record, cmd.Stop)

	err = sharedApplication.RunInUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.records.Save(txCtx, record)
	})
	if err != nil {
		return nil, err
	}
	return &CreateRecordResult{RecordID: record.ID()}, nil
}
