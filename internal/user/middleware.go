package user

import (
	"net/http"

	"github.com/spicefactory/backend-dine/internal/common"
)

// RequireSession resolves the X-User-ID header against the session store and
// rejects requests without a live table session.
func RequireSession(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing X-User-ID header", nil)
				return
			}
			_, found, err := svc.Lookup(r.Context(), userID)
			if err != nil {
				common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session lookup failed", nil)
				return
			}
			if !found {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no active session, log in first", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
		})
	}
}
