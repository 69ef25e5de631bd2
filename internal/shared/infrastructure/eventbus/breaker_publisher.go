package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// ErrPublisherUnavailable is returned while the breaker is open.
var ErrPublisherUnavailable = errors.New("publisher unavailable: circuit open")

// BreakerConfig configures the circuit breaker around a publisher.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	MaxRequests uint32
	Timeout     time.Duration
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:        "broker",
		MaxFailures: 5,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
	}
}

// BreakerPublisher stops calling a failing broker until the breaker's timeout
// has elapsed. While open, publishes fail fast and the outbox keeps the
// messages for a later retry.
type BreakerPublisher struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewBreakerPublisher wraps next with a circuit breaker.
func NewBreakerPublisher(next Publisher, config BreakerConfig, metrics observability.Metrics, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if config.MaxFailures == 0 {
		config.MaxFailures = DefaultBreakerConfig().MaxFailures
	}

	p := &BreakerPublisher{next: next, logger: logger, metrics: metrics}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("publisher circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			p.metrics.Counter(observability.MetricBreakerStateChange, 1, observability.T("to", to.String()))
		},
	})
	return p
}

// Publish forwards to the wrapped publisher unless the breaker is open.
func (p *BreakerPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.next.Publish(ctx, routingKey, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrPublisherUnavailable
	}
	return err
}

// State reports the breaker state, e.g. "closed" or "open".
func (p *BreakerPublisher) State() string {
	return p.breaker.State().String()
}

// Close closes the wrapped publisher.
func (p *BreakerPublisher) Close() error {
	return p.next.Close()
}
