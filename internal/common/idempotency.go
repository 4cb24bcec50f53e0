package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem rejects duplicate write requests that carry the same Idempotency-Key
// header within the TTL. The key is claimed in Redis with SETNX; requests
// without the header, or with no Redis client wired, pass straight through.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// Middleware guards a write endpoint with the Idempotency-Key contract.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Idempotency-Key")
		if token == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := idemKey(token)
		claimed, err := i.R.SetNX(r.Context(), key, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		defer func() {
			// re-arm the TTL so the claim expires even if the handler panics
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}

func idemKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "idem:" + hex.EncodeToString(sum[:])
}
