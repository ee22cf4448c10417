package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/middleware"
	"github.com/LytheanSem/emotionwork-sub001/internal/service"
)

// AdminHandler serves the staff endpoints.  Routes are expected behind
// JWTAuth and RequireRole(utils.RoleAdmin).
type AdminHandler struct {
	Svc     *service.BookingSvc
	Log     *zap.Logger
	Timeout time.Duration
}

func NewAdminHandler(svc *service.BookingSvc, log *zap.Logger, timeout time.Duration) *AdminHandler {
	if svc == nil {
		panic("nil service passed to NewAdminHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{Svc: svc, Log: log, Timeout: timeout}
}

type statusReq struct {
	Confirmed *bool `json:"confirmed" validate:"required"`
	Completed *bool `json:"completed" validate:"required"`
}

func (r *statusReq) normalize() {}

// List handles GET /v1/admin/bookings.  An optional ?date= narrows the
// result to one day.
func (h *AdminHandler) List(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date != "" && !validDate(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	all, err := h.Svc.List(ctx)
	if err != nil {
		return ledgerError(c, h.Log, "admin list", err)
	}
	out := all[:0]
	for _, b := range all {
		if date == "" || b.SlotDate == date {
			out = append(out, b)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out, "count": len(out)})
}

// SetStatus handles PATCH /v1/admin/bookings/:id/status.
func (h *AdminHandler) SetStatus(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	staff, isAdmin := middleware.Staff(c)
	if !isAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req statusReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	b, err := h.Svc.SetStatus(ctx, id, *req.Confirmed, *req.Completed)
	if err != nil {
		return ledgerError(c, h.Log, "set status", err)
	}
	h.Log.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("by", staff),
		zap.Bool("confirmed", b.Confirmed),
		zap.Bool("completed", b.Completed))
	return c.JSON(http.StatusOK, b)
}

// Reconcile handles GET /v1/admin/reconcile: slots held by more than one
// booking, keyed by slot.
func (h *AdminHandler) Reconcile(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	dups, err := h.Svc.Reconcile(ctx)
	if err != nil {
		return ledgerError(c, h.Log, "reconcile", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"duplicates": dups, "count": len(dups)})
}
