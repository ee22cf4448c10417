package router

import (
	"github.com/labstack/echo/v4"

	"github.com/LytheanSem/emotionwork-sub001/internal/handler"
	"github.com/LytheanSem/emotionwork-sub001/internal/middleware"
	"github.com/LytheanSem/emotionwork-sub001/internal/utils"
)

// RegisterAdmin registers staff endpoints under /v1/admin.  All routes
// require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.GET("/bookings", h.List)
	g.PATCH("/bookings/:id/status", h.SetStatus)
	g.GET("/reconcile", h.Reconcile)
}
