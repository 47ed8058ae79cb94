package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and exposes the operator's identity two ways: on the echo context
// (UserID) and on the request context (backend.WithUser/WithToken), so the
// REST backend forwards the same token on behalf of the operator.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ctxUserID, userID)
			c.Set(ctxToken, raw)
			ctx := backend.WithToken(backend.WithUser(c.Request().Context(), userID), raw)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
