package router

import (
	"github.com/labstack/echo/v4"

	"github.com/LytheanSem/emotionwork-sub001/internal/handler"
)

// RegisterBookings registers the public booking endpoints.  limit guards
// every route: the (booking id, email) pair is the only credential, so
// lookups must not be enumerable at speed.  cache wraps the availability
// view only.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, q *handler.QuoteHandler, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", limit)

	g.POST("/bookings", b.Create)
	g.POST("/bookings/lookup", b.Lookup)
	g.PUT("/bookings/:id", b.Update)
	g.DELETE("/bookings/:id", b.Cancel)

	g.GET("/slots", b.Slots, cache)

	g.POST("/quotes", q.Quote)
}
