package backend

import "context"

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// WithUser attaches the acting user id.  "Current user" calls such as
// GetAllHeldSeatsByCurrentUser resolve the user from here.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserFrom returns the user id set by WithUser.
func UserFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userKey).(string)
	return v, ok && v != ""
}

// WithToken attaches the caller's bearer token so the REST adapter can
// forward it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func TokenFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey).(string)
	return v, ok && v != ""
}

// Detach keeps identity values but drops ctx's deadline and cancellation.
// Used for the best-effort cancel that runs after a request is gone.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
