package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/ganttline/internal/shared/application"
	"github.com/google/uuid"
)

// LinkRecordsCommand makes RecordID depend on DependsOnID.
type LinkRecordsCommand struct {
	RecordID    uuid.UUID
	DependsOnID uuid.UUID
	// Fields defaults to domain.DefaultFieldSet when zero.
	Fields domain.FieldSet
}

// LinkRecordsHandler handles the LinkRecordsCommand.
type LinkRecordsHandler struct {
	records domain.RecordRepository
	uow     sharedApplication.UnitOfWork
}

// NewLinkRecordsHandler creates a new LinkRecordsHandler.
func NewLinkRecordsHandler(records domain.RecordRepository, uow sharedApplication.UnitOfWork) *LinkRecordsHandler {
	return &LinkRecordsHandler{records: records, uow: uow}
}

// Handle executes the LinkRecordsCommand. A link that would close a cycle
// in the model's graph is refused with ErrDependencyCycle.
func (h *LinkRecordsHandler) Handle(ctx context.Context, cmd LinkRecordsCommand) error {
	if cmd.RecordID == cmd.DependsOnID {
		return domain.ErrSelfDependency
	}
	fields := cmd.Fields
	if fields == (domain.FieldSet{}) {
		fields = domain.DefaultFieldSet()
	}
	if err := fields.Validate(); err != nil {
		return err
	}

	return sharedApplication.RunInUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		found, err := h.records.Browse(txCtx, fields, cmd.RecordID, cmd.DependsOnID)
		if err != nil {
			return err
		}
		if len(found) != 2 {
			return fmt.Errorf("%w: link %s -> %s", domain.ErrRecordNotFound, cmd.DependsOnID, cmd.RecordID)
		}
		record, dependsOn := found[0], found[1]
		if fields.Dependency.Contains(record, dependsOn.ID()) {
			return nil
		}

		graph, err := h.records.ListByModel(txCtx, record.Model(), fields)
		if err != nil {
			return err
		}
		edges := queries.DependencyEdges(graph, fields)
		edges = append(edges, queries.Edge{From: dependsOn.ID(), To: record.ID()})
		if _, err := queries.TopologicalOrder(edges); err != nil {
			return fmt.Errorf("link %s -> %s: %w", dependsOn.DisplayName(), record.DisplayName(), err)
		}

		return h.records.AddDependency(txCtx, fields.Dependency.Name, record.ID(), dependsOn.ID())
	})
}
