package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthRegistry_Check(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return nil }))
	registry.Register("broker", PingChecker("broker", HealthStatusDegraded, func(context.Context) error { return errors.New("refused") }))

	health := registry.Check(context.Background())

	assert.Equal(t, HealthStatusDegraded, health.Status)
	assert.Equal(t, HealthStatusHealthy, health.Checks["database"].Status)
	assert.Contains(t, health.Checks["broker"].Message, "refused")
}

func TestHealthRegistry_Handler(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return errors.New("closed") }))

	rec := httptest.NewRecorder()
	registry.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}
