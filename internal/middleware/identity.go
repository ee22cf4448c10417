package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/LytheanSem/emotionwork-sub001/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxSubject = "user_id"
	ctxRole    = "role"
)

// Subject returns the authenticated staff email, or "" for anonymous
// requests.
func Subject(c echo.Context) string {
	if s, ok := c.Get(ctxSubject).(string); ok {
		return s
	}
	return ""
}

// Role returns the role claim of the authenticated caller, or "".
func Role(c echo.Context) string {
	if s, ok := c.Get(ctxRole).(string); ok {
		return s
	}
	return ""
}

// Staff returns the caller's email and whether it holds the admin role.
func Staff(c echo.Context) (email string, isAdmin bool) {
	return Subject(c), Role(c) == utils.RoleAdmin
}

// callerKey identifies the caller for rate limiting.
func callerKey(c echo.Context) string {
	if s := Subject(c); s != "" {
		return s
	}
	return "anon"
}
