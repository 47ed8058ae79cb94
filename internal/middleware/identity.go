package middleware

// identity.go holds the accessors for the identity JWTAuth stores on the
// echo context.

import (
	"github.com/labstack/echo/v4"
)

const (
	ctxUserID = "user_id"
	ctxToken  = "token"
)

// UserID returns the authenticated operator id, or false when the request
// did not pass JWTAuth.
func UserID(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxUserID).(string)
	return s, ok && s != ""
}

// userKey is the identity used in rate limit keys; "anon" when absent.
func userKey(c echo.Context) string {
	if uid, ok := UserID(c); ok {
		return uid
	}
	return "anon"
}
