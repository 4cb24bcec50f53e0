package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/spicefactory/backend-dine/internal/common"
)

// AdminKey gates admin-only routes behind a shared key supplied in the
// X-Admin-Key header. An empty configured key disables the routes entirely.
type AdminKey struct {
	Key string
}

// Middleware rejects requests whose admin key does not match.
func (a AdminKey) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		configured := strings.TrimSpace(a.Key)
		if configured == "" {
			common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "admin access not configured", nil)
			return
		}
		provided := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) != 1 {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "invalid admin key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
