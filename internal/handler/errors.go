package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
)

// defaultTimeout bounds backing-store work per request.
const defaultTimeout = 15 * time.Second

func requestCtx(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), d)
}

// bindAndValidate decodes the body into req and runs the registered
// validator.  The returned error is already written to the client.
func bindAndValidate(c echo.Context, req interface{ normalize() }) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.normalize()
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fieldErrors(err)})
	}
	return true, nil
}

// ledgerError maps ledger errors onto responses.  Store failures are
// logged here and reach the client only as a generic retry hint.
func ledgerError(c echo.Context, log *zap.Logger, op string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot already booked"})
	case errors.Is(err, ledger.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, ledger.ErrBackingStore), errors.Is(err, context.DeadlineExceeded):
		log.Error("booking store unavailable", zap.String("op", op), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking service temporarily unavailable, please retry"})
	default:
		log.Error("booking operation failed", zap.String("op", op), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
