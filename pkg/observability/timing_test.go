package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeOperationResult(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	metrics := NewInMemoryMetrics()

	got, err := TimeOperationResult(logger, metrics, "graph.validate", func() (int, error) { return 7, nil })

	assert.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Contains(t, buf.String(), "operation completed")
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationTotal, T("operation", "graph.validate")))
}

func TestTimer_StopWithError(t *testing.T) {
	var buf bytes.Buffer
	metrics := NewInMemoryMetrics()

	StartTimer("reschedule").
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))).
		WithMetrics(metrics).
		WithTags(T("model", "task")).
		StopWithError(errors.New("boom"))

	assert.Contains(t, buf.String(), "operation failed")
	assert.Contains(t, buf.String(), "boom")
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationErrors, T("model", "task"), T("operation", "reschedule")))
}
