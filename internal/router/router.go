package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cinema-box-office/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check; checks names the
// dependencies it reports on.
func RegisterRoutes(e *echo.Echo, checks map[string]handler.Check) {
	e.GET("/healthz", handler.Health(checks))
}
