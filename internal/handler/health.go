package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Check pings one dependency.  A non-nil error marks it down.
type Check func(ctx context.Context) error

// Health is the health-check endpoint used by load balancers and
// monitoring.  With no checks it always answers 200 "ok".  Each named
// check runs with a short timeout; any failure answers 503 with the
// failing dependencies.  The cinema backend is not checked.
func Health(checks map[string]Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(checks) == 0 {
			return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		down := echo.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				down[name] = err.Error()
			}
		}
		if len(down) > 0 {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "down": down})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
