package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spicefactory/backend-dine/internal/health"
)

type upChecker struct{}

func (upChecker) PingDB(context.Context, time.Duration) error    { return nil }
func (upChecker) PingRedis(context.Context, time.Duration) error { return nil }

// Draining starts by flipping the gate off; readiness must go 503 immediately
// even while Mongo and Redis still answer pings.
func TestReadinessGateDuringDrain(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })

	h := health.Handler{Checker: upChecker{}}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	health.SetReady(true)
	rr := httptest.NewRecorder()
	h.Ready(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	health.SetReady(false)
	rr = httptest.NewRecorder()
	h.Ready(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
