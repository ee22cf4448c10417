package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
	"github.com/LytheanSem/emotionwork-sub001/internal/model"
	"github.com/LytheanSem/emotionwork-sub001/internal/service"
)

// BookingHandler serves the public booking endpoints.  Every mutation is
// gated by the booking id together with the email it was made with.
type BookingHandler struct {
	Svc     *service.BookingSvc
	Log     *zap.Logger
	Timeout time.Duration
}

// NewBookingHandler panics on a nil service.
func NewBookingHandler(svc *service.BookingSvc, log *zap.Logger, timeout time.Duration) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Svc: svc, Log: log, Timeout: timeout}
}

// ----- DTOs -----

type bookingReq struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	MiddleName  string `json:"middle_name" validate:"max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Email       string `json:"email" validate:"required,email,max=254"`
	SlotDate    string `json:"slot_date" validate:"required,slotdate"`
	SlotTime    string `json:"slot_time" validate:"required,slottime"`
	Description string `json:"description" validate:"max=2000"`
}

func cleanEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *bookingReq) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.MiddleName = strings.TrimSpace(r.MiddleName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Email = cleanEmail(r.Email)
	r.SlotDate = strings.TrimSpace(r.SlotDate)
	r.SlotTime = strings.TrimSpace(r.SlotTime)
	r.Description = strings.TrimSpace(r.Description)
}

// fields converts a validated request; the time is already known to parse.
func (r *bookingReq) fields() model.BookingFields {
	t, _ := ledger.ParseSlotTime(r.SlotTime)
	return model.BookingFields{
		FirstName:   r.FirstName,
		MiddleName:  r.MiddleName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		SlotDate:    r.SlotDate,
		SlotTime:    t,
		Description: r.Description,
	}
}

// updateReq carries the new booking fields.  Email identifies the booking;
// NewEmail, when set, replaces it.
type updateReq struct {
	bookingReq
	NewEmail string `json:"new_email" validate:"omitempty,email,max=254"`
}

func (r *updateReq) normalize() {
	r.bookingReq.normalize()
	r.NewEmail = cleanEmail(r.NewEmail)
}

type lookupReq struct {
	BookingID string `json:"booking_id" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
}

func (r *lookupReq) normalize() {
	r.BookingID = strings.TrimSpace(r.BookingID)
	r.Email = cleanEmail(r.Email)
}

type cancelReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *cancelReq) normalize() { r.Email = cleanEmail(r.Email) }

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	b, err := h.Svc.Create(ctx, req.fields())
	if err != nil {
		return ledgerError(c, h.Log, "create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id": b.BookingID,
		"slot_date":  b.SlotDate,
		"slot_time":  b.SlotTime,
	})
}

// Lookup handles POST /v1/bookings/lookup.  The pair travels in the body
// so it stays out of access logs.
func (h *BookingHandler) Lookup(c echo.Context) error {
	var req lookupReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	b, err := h.Svc.Get(ctx, req.BookingID, req.Email)
	if err != nil {
		return ledgerError(c, h.Log, "lookup", err)
	}
	return c.JSON(http.StatusOK, b)
}

// Update handles PUT /v1/bookings/:id.
func (h *BookingHandler) Update(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	f := req.fields()
	f.Email = req.NewEmail
	b, err := h.Svc.Update(ctx, id, req.Email, f)
	if err != nil {
		return ledgerError(c, h.Log, "update", err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req cancelReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	if err := h.Svc.Cancel(ctx, id, req.Email); err != nil {
		return ledgerError(c, h.Log, "cancel", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Slots handles GET /v1/slots?date=YYYY-MM-DD.
func (h *BookingHandler) Slots(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if !validDate(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	times, err := h.Svc.BookedTimes(ctx, date)
	if err != nil {
		return ledgerError(c, h.Log, "slots", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "booked_times": times})
}
