package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/config"
	"github.com/LytheanSem/emotionwork-sub001/internal/utils"
)

// AuthHandler issues staff access tokens.  The single staff account is
// configured through ADMIN_EMAIL and ADMIN_PASSWORD_HASH.
type AuthHandler struct {
	Cfg config.Config
	Log *zap.Logger
}

func NewAuthHandler(cfg config.Config, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Cfg: cfg, Log: log}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *loginReq) normalize() { r.Email = cleanEmail(r.Email) }

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	admin := cleanEmail(h.Cfg.AdminEmail)
	if admin == "" || req.Email != admin || !utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) {
		h.Log.Warn("staff login rejected", zap.String("ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, admin, utils.RoleAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		h.Log.Error("issue access token failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"role":   utils.RoleAdmin,
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}
