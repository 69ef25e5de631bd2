package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/ganttline/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/ganttline/internal/shared/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"github.com/google/uuid"
)

// RollbackCommand restores the values of an undo log. Either UndoLog or
// Token must be set; a token is consumed.
type RollbackCommand struct {
	UndoLog domain.UndoLog
	Token   string

	CorrelationID uuid.UUID
	Actor         string
}

// RollbackResult lists the records that were written back and the logged
// records that no longer exist.
type RollbackResult struct {
	Restored []uuid.UUID
	Skipped  []uuid.UUID
}

// RollbackHandler handles the RollbackCommand.
type RollbackHandler struct {
	records    domain.RecordRepository
	uow        sharedApplication.UnitOfWork
	undoLogs   domain.UndoLogRepository
	outboxRepo outbox.Repository
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewRollbackHandler creates a new RollbackHandler.
func NewRollbackHandler(records domain.RecordRepository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *RollbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RollbackHandler{
		records: records,
		uow:     uow,
		metrics: observability.NoopMetrics{},
		logger:  logger,
	}
}

// WithUndoLogs resolves tokens against repo.
func (h *RollbackHandler) WithUndoLogs(repo domain.UndoLogRepository) *RollbackHandler {
	h.undoLogs = repo
	return h
}

// WithOutbox emits a RecordsRestored event for every rollback that wrote.
func (h *RollbackHandler) WithOutbox(repo outbox.Repository) *RollbackHandler {
	h.outboxRepo = repo
	return h
}

// WithMetrics sets the metrics sink.
func (h *RollbackHandler) WithMetrics(metrics observability.Metrics) *RollbackHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// Handle executes the RollbackCommand.
func (h *RollbackHandler) Handle(ctx context.Context, cmd RollbackCommand) (*RollbackResult, error) {
	if cmd.UndoLog == nil && cmd.Token == "" {
		return nil, domain.ErrUndoLogUnspecified
	}

	result := &RollbackResult{}
	err := sharedApplication.RunInUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		log := cmd.UndoLog
		if log == nil {
			if h.undoLogs == nil {
				return domain.ErrUndoLogNotFound
			}
			var err error
			if log, err = h.undoLogs.Take(txCtx, cmd.Token); err != nil {
				return err
			}
		}

		for _, id := range log.IDs() {
			err := h.records.WriteDates(txCtx, id, log[id])
			if errors.Is(err, domain.ErrRecordNotFound) {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			if err != nil {
				return err
			}
			result.Restored = append(result.Restored, id)
		}

		if h.outboxRepo == nil || len(result.Restored) == 0 {
			return nil
		}
		events := []sharedDomain.DomainEvent{domain.NewRecordsRestored(result.Restored, cmd.Token)}
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.CorrelationID, cmd.Actor))
		msgs, err := outbox.NewMessages(events)
		if err != nil {
			return err
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
	if err != nil {
		h.metrics.Counter(observability.MetricOperationErrors, 1, observability.T("operation", "rollback"))
		return nil, err
	}

	h.metrics.Counter(observability.MetricRollbacks, 1)
	h.logger.Info("rollback finished", "restored", len(result.Restored), "skipped", len(result.Skipped))
	return result, nil
}
