package common

import "context"

type ctxKey string

const userIDKey ctxKey = "session/user-id"

// WithUserID stores the table-session user identifier on the context. The
// session middleware sets it after validating the X-User-ID header.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the table-session user identifier, if one was set.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}
