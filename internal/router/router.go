// Package router registers the HTTP routes of the booking API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/handler"
	"github.com/LytheanSem/emotionwork-sub001/internal/middleware"
)

// New returns an Echo instance with the shared middleware chain: panic
// recovery, zap request logging and the booking request validator.
func New(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.BodyLimit("64K"))
	return e
}

// RegisterRoutes registers routes that need no dependencies.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the staff login endpoint.  It shares the
// booking rate limit so passwords cannot be guessed quickly.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/login", a.Login)
}
