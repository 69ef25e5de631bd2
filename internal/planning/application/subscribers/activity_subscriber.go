package subscribers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"github.com/google/uuid"
)

// DefaultActivityCapacity is how many entries ActivitySubscriber keeps.
const DefaultActivityCapacity = 100

// Activity is one rescheduling or restore seen on the bus.
type Activity struct {
	RoutingKey string
	Model      string
	TriggerID  uuid.UUID
	Direction  domain.Direction
	Records    []uuid.UUID
	UndoToken  string
	OccurredAt time.Time
}

// ActivitySubscriber logs planning events and keeps the latest ones in memory
// for the worker's local relay.
type ActivitySubscriber struct {
	logger   *slog.Logger
	metrics  observability.Metrics
	capacity int

	mu     sync.Mutex
	recent []Activity
}

// NewActivitySubscriber creates a new activity subscriber.
func NewActivitySubscriber(logger *slog.Logger) *ActivitySubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivitySubscriber{
		logger:   logger,
		metrics:  observability.NoopMetrics{},
		capacity: DefaultActivityCapacity,
	}
}

// WithMetrics makes the subscriber count consumed events.
func (s *ActivitySubscriber) WithMetrics(metrics observability.Metrics) *ActivitySubscriber {
	if metrics != nil {
		s.metrics = metrics
	}
	return s
}

// WithCapacity bounds the number of entries kept.
func (s *ActivitySubscriber) WithCapacity(n int) *ActivitySubscriber {
	if n > 0 {
		s.capacity = n
	}
	return s
}

// EventTypes returns the event types this subscriber handles.
func (s *ActivitySubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeyRecordsRescheduled,
		domain.RoutingKeyRecordsRestored,
	}
}

type rescheduledPayload struct {
	Model     string           `json:"model"`
	TriggerID uuid.UUID        `json:"trigger_id"`
	Direction domain.Direction `json:"direction"`
	Moved     []uuid.UUID      `json:"moved"`
	UndoToken string           `json:"undo_token"`
}

type restoredPayload struct {
	Restored  []uuid.UUID `json:"restored"`
	UndoToken string      `json:"undo_token"`
}

// Handle processes an event. Undecodable payloads are logged and dropped.
func (s *ActivitySubscriber) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	entry := Activity{RoutingKey: event.RoutingKey, OccurredAt: event.OccurredAt}

	switch event.RoutingKey {
	case domain.RoutingKeyRecordsRescheduled:
		var payload rescheduledPayload
		if err := event.Decode(&payload); err != nil {
			s.logger.Warn("dropping undecodable planning event", "routing_key", event.RoutingKey, "error", err)
			return nil
		}
		entry.Model = payload.Model
		entry.TriggerID = payload.TriggerID
		entry.Direction = payload.Direction
		entry.Records = payload.Moved
		entry.UndoToken = payload.UndoToken
		s.logger.Info("records rescheduled",
			"model", payload.Model,
			"trigger_id", payload.TriggerID,
			"direction", payload.Direction,
			"moved", len(payload.Moved),
		)

	case domain.RoutingKeyRecordsRestored:
		var payload restoredPayload
		if err := event.Decode(&payload); err != nil {
			s.logger.Warn("dropping undecodable planning event", "routing_key", event.RoutingKey, "error", err)
			return nil
		}
		entry.Records = payload.Restored
		entry.UndoToken = payload.UndoToken
		s.logger.Info("records restored", "restored", len(payload.Restored))

	default:
		s.logger.Warn("unknown event type", "routing_key", event.RoutingKey)
		return nil
	}

	s.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("routing_key", event.RoutingKey))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, entry)
	if over := len(s.recent) - s.capacity; over > 0 {
		s.recent = append([]Activity(nil), s.recent[over:]...)
	}
	return nil
}

// Recent returns the kept entries, newest last.
func (s *ActivitySubscriber) Recent() []Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Activity(nil), s.recent...)
}
