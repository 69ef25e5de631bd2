package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/services"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/ganttline/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/ganttline/internal/shared/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"github.com/google/uuid"
)

// DefaultUndoLogTTL is how long an undo token stays valid.
const DefaultUndoLogTTL = 24 * time.Hour

// RescheduleCommand contains the data needed to reschedule around one
// dependency edge, master -> slave.
type RescheduleCommand struct {
	Direction string
	MasterID  uuid.UUID
	SlaveID   uuid.UUID
	// Fields defaults to domain.DefaultFieldSet when zero.
	Fields domain.FieldSet
	// Hooks overrides the registered hooks of the master's model.
	Hooks domain.Hooks

	CorrelationID uuid.UUID
	Actor         string
}

// RescheduleHandler handles the RescheduleCommand.
type RescheduleHandler struct {
	records    domain.RecordRepository
	uow        sharedApplication.UnitOfWork
	hooks      *services.HookRegistry
	planner    *services.Planner
	mover      *services.Mover
	undoLogs   domain.UndoLogRepository
	attempts   domain.RescheduleAttemptRepository
	outboxRepo outbox.Repository
	metrics    observability.Metrics
	now        func() time.Time
	tolerance  time.Duration
	undoTTL    time.Duration
	logger     *slog.Logger
}

// NewRescheduleHandler creates a new RescheduleHandler. A nil unit of work
// makes the handler undo failed calls by writing the undo log back. A nil
// registry answers domain.DefaultHooks on the handler's clock.
func NewRescheduleHandler(
	records domain.RecordRepository,
	uow sharedApplication.UnitOfWork,
	hooks *services.HookRegistry,
	logger *slog.Logger,
) *RescheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &RescheduleHandler{
		records:   records,
		uow:       uow,
		hooks:     hooks,
		planner:   services.NewPlanner(logger),
		mover:     services.NewMover(logger),
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
		tolerance: services.DefaultPastTolerance,
		undoTTL:   DefaultUndoLogTTL,
		logger:    logger,
	}
	if h.hooks == nil {
		h.hooks = services.NewHookRegistry(domain.DefaultHooks{Now: func() time.Time { return h.now() }})
	}
	return h
}

// WithUndoLogs stores the undo log of every successful call under a token.
func (h *RescheduleHandler) WithUndoLogs(repo domain.UndoLogRepository) *RescheduleHandler {
	h.undoLogs = repo
	return h
}

// WithAttempts audits every call that reaches its savepoint.
func (h *RescheduleHandler) WithAttempts(repo domain.RescheduleAttemptRepository) *RescheduleHandler {
	h.attempts = repo
	return h
}

// WithOutbox emits a RecordsRescheduled event for every call that moved records.
func (h *RescheduleHandler) WithOutbox(repo outbox.Repository) *RescheduleHandler {
	h.outboxRepo = repo
	return h
}

// WithMetrics sets the metrics sink.
func (h *RescheduleHandler) WithMetrics(metrics observability.Metrics) *RescheduleHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// WithClock sets the clock used by the no-past rule.
func (h *RescheduleHandler) WithClock(now func() time.Time) *RescheduleHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// WithPastTolerance sets how far before now a start may still be written.
func (h *RescheduleHandler) WithPastTolerance(tolerance time.Duration) *RescheduleHandler {
	if tolerance >= 0 {
		h.tolerance = tolerance
	}
	return h
}

// WithUndoLogTTL sets how long undo tokens stay valid.
func (h *RescheduleHandler) WithUndoLogTTL(ttl time.Duration) *RescheduleHandler {
	if ttl > 0 {
		h.undoTTL = ttl
	}
	return h
}

// Handle executes the RescheduleCommand. Input errors are returned as
// errors; every user condition is a result.
func (h *RescheduleHandler) Handle(ctx context.Context, cmd RescheduleCommand) (*domain.RescheduleResult, error) {
	started := h.now()

	dir, err := domain.ParseDirection(cmd.Direction)
	if err != nil {
		return nil, err
	}
	fields := cmd.Fields
	if fields == (domain.FieldSet{}) {
		fields = domain.DefaultFieldSet()
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	var result *domain.RescheduleResult
	err = sharedApplication.RunInUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		var err error
		result, err = h.reschedule(txCtx, cmd, dir, fields)
		return err
	})
	if err != nil {
		h.metrics.Counter(observability.MetricOperationErrors, 1, observability.T("operation", "reschedule"))
		return nil, err
	}

	h.metrics.Counter(observability.MetricReschedules, 1, observability.T("type", string(result.Type)))
	h.metrics.Timing(observability.MetricRescheduleDuration, h.now().Sub(started))
	h.metrics.Histogram(observability.MetricRecordsMoved, float64(len(result.Moved)))

	h.logger.Info("reschedule finished",
		"master", cmd.MasterID,
		"slave", cmd.SlaveID,
		"direction", dir,
		"mode", result.Mode,
		"type", result.Type,
		"moved", len(result.Moved),
	)
	return result, nil
}

func (h *RescheduleHandler) reschedule(ctx context.Context, cmd RescheduleCommand, dir domain.Direction, fields domain.FieldSet) (*domain.RescheduleResult, error) {
	set := services.NewRecordSet(h.records, fields, h.now, h.tolerance)

	master, err := set.Get(ctx, cmd.MasterID)
	if err != nil {
		return nil, err
	}
	slave, err := set.Get(ctx, cmd.SlaveID)
	if err != nil {
		return nil, err
	}
	if !fields.Dependency.Contains(slave, master.ID()) {
		return nil, fmt.Errorf("%w: %s does not depend on %s", domain.ErrRecordsNotRelated, slave.DisplayName(), master.DisplayName())
	}

	hooks := cmd.Hooks
	if hooks == nil {
		hooks = h.hooks.For(master.Model())
	}

	if !hooks.IsRelationCandidate(master, slave, fields) {
		return domain.NewWarningResult(domain.KindNotCandidate, domain.RelationRejectedMessage(master.DisplayName(), slave.DisplayName())), nil
	}

	trigger, related := pickEndpoints(set, master, slave, dir)
	if !hooks.IsRecordCandidate(trigger, fields) {
		return domain.NewWarningResult(domain.KindNotCandidate, domain.TriggerRejectedMessage(trigger.DisplayName())), nil
	}

	spCtx, err := h.begin(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := h.planner.Plan(spCtx, set, hooks, trigger, related, dir)
	if err != nil {
		h.abandon(spCtx)
		return nil, err
	}
	h.logger.Debug("reschedule planned",
		"mode", plan.Mode,
		"trigger", trigger.ID(),
		"related", related.ID(),
		"steps", len(plan.Steps),
		"candidates", plan.CandidateCount(),
	)

	var result *domain.RescheduleResult
	switch {
	case plan.HasCycle:
		h.abandon(spCtx)
		result = &domain.RescheduleResult{Type: domain.ResultError, Kind: domain.KindLoopError, Message: domain.MsgDependencyLoop, UndoLog: domain.UndoLog{}, Mode: plan.Mode}
	case plan.CandidateCount() == 0:
		h.abandon(spCtx)
		result = domain.NewWarningResult(domain.KindNoPossibleAction, domain.MsgNoCandidates)
		result.Mode = plan.Mode
	default:
		if result, err = h.run(spCtx, set, hooks, plan, trigger, related); err != nil {
			return nil, err
		}
	}

	if result.Type == domain.ResultSuccess || result.Type == domain.ResultInfo {
		if err := h.publish(ctx, cmd, trigger, related, dir, result); err != nil {
			return nil, err
		}
	}
	h.audit(ctx, cmd, master, trigger, related, dir, result)
	return result, nil
}

// pickEndpoints chooses which record drives the call. When the pair is in
// conflict the roles swap, so the record the user dragged is the one that
// pulls the other along.
func pickEndpoints(set *services.RecordSet, master, slave *domain.Record, dir domain.Direction) (trigger, related *domain.Record) {
	stop, start := set.Stop(master), set.Start(slave)
	masterPrior := stop != nil && start != nil && !stop.After(*start)
	if masterPrior != (dir == domain.Backward) {
		return master, slave
	}
	return slave, master
}

// run executes the plan steps inside the savepoint and closes it.
func (h *RescheduleHandler) run(
	ctx context.Context,
	set *services.RecordSet,
	hooks domain.Hooks,
	plan services.Plan,
	trigger, related *domain.Record,
) (*domain.RescheduleResult, error) {
	undo := domain.UndoLog{}
	var (
		moved    []uuid.UUID
		messages domain.LogMessages
	)

	for _, step := range plan.Steps {
		anchor := services.ResolveAnchor(set, step.Anchor, trigger, related)
		if anchor == nil {
			h.logger.Info("reschedule step has no anchor date", "anchor", step.Anchor, "candidates", len(step.Candidates))
			continue
		}

		res, err := h.mover.Move(ctx, set, hooks, step, *anchor)
		undo.Merge(res.UndoLog)
		moved = append(moved, res.Moved...)
		messages.Merge(res.Messages)
		if err != nil {
			if undoErr := h.discard(ctx, set, undo, moved); undoErr != nil {
				h.logger.Error("failed to undo reschedule", "error", undoErr)
			}
			return nil, err
		}
		if messages.HasErrors() {
			break
		}
	}

	if messages.HasErrors() {
		if err := h.discard(ctx, set, undo, moved); err != nil {
			return nil, err
		}
		result := domain.NewWarningResult(messages.Kind(), messages.Text())
		result.Mode = plan.Mode
		return result, nil
	}

	// Every step was skipped or found nothing in conflict.
	if len(moved) == 0 {
		h.abandon(ctx)
		result := domain.NewWarningResult(domain.KindNoPossibleAction, domain.MsgNoCandidates)
		result.Mode = plan.Mode
		return result, nil
	}

	if h.uow != nil {
		if err := h.uow.Commit(ctx); err != nil {
			return nil, err
		}
	}

	result := &domain.RescheduleResult{
		Type:    domain.ResultSuccess,
		Message: domain.MsgSuccess,
		UndoLog: undo,
		Mode:    plan.Mode,
		Moved:   moved,
	}
	if messages.HasWarnings() {
		result.Type = domain.ResultInfo
		result.Kind = messages.Kind()
		result.Message = messages.Text()
	}
	return result, nil
}

// begin opens the savepoint of one call.
func (h *RescheduleHandler) begin(ctx context.Context) (context.Context, error) {
	if h.uow == nil {
		return ctx, nil
	}
	return h.uow.Begin(ctx)
}

// abandon closes a savepoint that wrote nothing.
func (h *RescheduleHandler) abandon(ctx context.Context) {
	if h.uow == nil {
		return
	}
	if err := h.uow.Rollback(ctx); err != nil {
		h.logger.Warn("failed to roll back savepoint", "error", err)
	}
}

// discard undoes the writes of a failed call: it rolls the savepoint back,
// or writes the undo log back in reverse order when there is no unit of work.
func (h *RescheduleHandler) discard(ctx context.Context, set *services.RecordSet, undo domain.UndoLog, moved []uuid.UUID) error {
	if h.uow != nil {
		return h.uow.Rollback(ctx)
	}
	for i := len(moved) - 1; i >= 0; i-- {
		if err := set.Restore(ctx, moved[i], undo[moved[i]]); err != nil {
			return err
		}
	}
	return nil
}

// publish stores the undo token and the outbox event of a committed call.
func (h *RescheduleHandler) publish(ctx context.Context, cmd RescheduleCommand, trigger, related *domain.Record, dir domain.Direction, result *domain.RescheduleResult) error {
	if len(result.Moved) == 0 {
		return nil
	}

	if h.undoLogs != nil {
		token := uuid.NewString()
		if err := h.undoLogs.Save(ctx, token, result.UndoLog, h.undoTTL); err != nil {
			return fmt.Errorf("store undo log: %w", err)
		}
		result.UndoToken = token
	}

	if h.outboxRepo == nil {
		return nil
	}
	event := domain.NewRecordsRescheduled(trigger, related, dir, result.Mode, result.Moved, result.UndoToken)
	events := []sharedDomain.DomainEvent{event}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.CorrelationID, cmd.Actor))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return h.outboxRepo.SaveBatch(ctx, msgs)
}

// audit records the attempt in the outer unit of work.
func (h *RescheduleHandler) audit(ctx context.Context, cmd RescheduleCommand, master, trigger, related *domain.Record, dir domain.Direction, result *domain.RescheduleResult) {
	if h.attempts == nil {
		return
	}
	attempt := domain.RescheduleAttempt{
		ID:          uuid.New(),
		Model:       master.Model(),
		MasterID:    cmd.MasterID,
		SlaveID:     cmd.SlaveID,
		TriggerID:   trigger.ID(),
		RelatedID:   related.ID(),
		Direction:   dir,
		Mode:        result.Mode,
		ResultType:  result.Type,
		Message:     result.Message,
		MovedCount:  len(result.Moved),
		AttemptedAt: h.now(),
	}
	if err := h.attempts.Create(ctx, attempt); err != nil {
		h.logger.Warn("failed to record reschedule attempt", "error", err, "master", cmd.MasterID)
	}
}
