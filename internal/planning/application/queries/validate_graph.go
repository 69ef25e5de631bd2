package queries

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"github.com/gammazero/toposort"
	"github.com/google/uuid"
)

// Edge says From must be scheduled before To. A nil From only registers To.
type Edge struct {
	From uuid.UUID
	To   uuid.UUID
}

// DependencyEdges returns one edge per predecessor link between records,
// plus a registering edge for every record so isolated records are ordered too.
func DependencyEdges(records []*domain.Record, fields domain.FieldSet) []Edge {
	edges := make([]Edge, 0, len(records))
	for _, r := range records {
		edges = append(edges, Edge{To: r.ID()})
		for _, dep := range fields.Dependency.Get(r) {
			edges = append(edges, Edge{From: dep, To: r.ID()})
		}
	}
	return edges
}

// TopologicalOrder sorts the records named by edges so every record comes
// after its predecessors, or fails with domain.ErrDependencyCycle.
func TopologicalOrder(edges []Edge) ([]uuid.UUID, error) {
	sortable := make([]toposort.Edge, 0, len(edges))
	for _, e := range edges {
		if e.From == uuid.Nil {
			sortable = append(sortable, toposort.Edge{nil, e.To})
			continue
		}
		sortable = append(sortable, toposort.Edge{e.From, e.To})
	}

	sorted, err := toposort.Toposort(sortable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependencyCycle, err)
	}

	order := make([]uuid.UUID, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(uuid.UUID))
		}
	}
	return order, nil
}

// ValidateGraphQuery contains the parameters for validating a model's graph.
type ValidateGraphQuery struct {
	Model string
	// Fields defaults to domain.DefaultFieldSet when zero.
	Fields domain.FieldSet
}

// GraphDTO is a validated graph in schedulable order.
type GraphDTO struct {
	Model string      `json:"model"`
	Order []RecordDTO `json:"order"`
	Edges int         `json:"edges"`
}

// ValidateGraphHandler handles the ValidateGraphQuery.
type ValidateGraphHandler struct {
	records domain.RecordRepository
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewValidateGraphHandler creates a new ValidateGraphHandler.
func NewValidateGraphHandler(records domain.RecordRepository) *ValidateGraphHandler {
	return &ValidateGraphHandler{records: records}
}

// WithLogger logs every validation with its duration.
func (h *ValidateGraphHandler) WithLogger(logger *slog.Logger) *ValidateGraphHandler {
	h.logger = logger
	return h
}

// WithMetrics times validations as the graph.validate operation.
func (h *ValidateGraphHandler) WithMetrics(metrics observability.Metrics) *ValidateGraphHandler {
	h.metrics = metrics
	return h
}

// Handle executes the ValidateGraphQuery. Predecessors outside the model
// appear in the order but carry no record data.
func (h *ValidateGraphHandler) Handle(ctx context.Context, query ValidateGraphQuery) (*GraphDTO, error) {
	return observability.TimeOperationResult(h.logger, h.metrics, "graph.validate", func() (*GraphDTO, error) {
		return h.validate(ctx, query)
	})
}

func (h *ValidateGraphHandler) validate(ctx context.Context, query ValidateGraphQuery) (*GraphDTO, error) {
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
	edges := DependencyEdges(records, fields)
	order, err := TopologicalOrder(edges)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*domain.Record, len(records))
	for _, r := range records {
		byID[r.ID()] = r
	}
	dto := &GraphDTO{Model: query.Model, Order: make([]RecordDTO, 0, len(order)), Edges: len(edges) - len(records)}
	for _, id := range order {
		if r, ok := byID[id]; ok {
			dto.Order = append(dto.Order, toRecordDTO(r, fields))
			continue
		}
		dto.Order = append(dto.Order, RecordDTO{ID: id})
	}
	return dto, nil
}
