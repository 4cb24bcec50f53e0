package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/spicefactory/backend-dine/internal/common"
)

func newIdem(t *testing.T) common.Idem {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idem{R: client, TTL: time.Minute}
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusCreated)
	})
}

func TestIdemWithoutHeaderPassesThrough(t *testing.T) {
	var calls int
	h := newIdem(t).Middleware(countingHandler(&calls))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	require.Equal(t, 3, calls)
}

func TestIdemRejectsReplay(t *testing.T) {
	var calls int
	h := newIdem(t).Middleware(countingHandler(&calls))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	first.Header.Set("Idempotency-Key", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, first)
	require.Equal(t, http.StatusCreated, rr.Code)

	replay := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	replay.Header.Set("Idempotency-Key", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, replay)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "IDEMPOTENT_REPLAY")

	require.Equal(t, 1, calls)
}

func TestIdemDistinctKeysAreIndependent(t *testing.T) {
	var calls int
	h := newIdem(t).Middleware(countingHandler(&calls))

	for _, key := range []string{"k1", "k2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req.Header.Set("Idempotency-Key", key)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	require.Equal(t, 2, calls)
}
