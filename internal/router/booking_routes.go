package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/handler"
	"github.com/iliyamo/cinema-box-office/internal/middleware"
)

// RegisterBooking registers the operator endpoints under /v1.  Every route
// requires a valid JWT.  limiter guards the routes that hit the backend's
// hold and cancel calls; pass nil to leave them unthrottled.
func RegisterBooking(e *echo.Echo, s *handler.SessionHandler, cat *handler.CatalogHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	var throttled []echo.MiddlewareFunc
	if limiter != nil {
		throttled = append(throttled, limiter)
	}

	g.POST("/showtimes/:id/sessions", s.Open)
	g.GET("/sessions/:sid", s.Get)
	g.DELETE("/sessions/:sid", s.Close, throttled...)

	g.PUT("/sessions/:sid/seats/:seatId", s.SelectSeat)
	g.DELETE("/sessions/:sid/seats/:seatId", s.DeselectSeat)

	g.POST("/sessions/:sid/hold", s.Hold, throttled...)
	g.DELETE("/sessions/:sid/hold", s.CancelHold, throttled...)
	g.POST("/sessions/:sid/resync", s.Resync)
	g.POST("/sessions/:sid/layout/refresh", s.RefreshLayout)

	g.PUT("/sessions/:sid/combos", s.SetCombos)
	g.PUT("/sessions/:sid/menu-items", s.SetMenuItems)
	g.PUT("/sessions/:sid/event", s.SelectEvent)
	g.GET("/sessions/:sid/quote", s.Quote)

	if cat != nil {
		g.GET("/catalog/combos", cat.Combos)
		g.GET("/catalog/menu-items", cat.MenuItems)
		g.GET("/catalog/events", cat.Events)
	}
}
