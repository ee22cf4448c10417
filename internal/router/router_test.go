package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/LytheanSem/emotionwork-sub001/internal/config"
	"github.com/LytheanSem/emotionwork-sub001/internal/handler"
	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
	"github.com/LytheanSem/emotionwork-sub001/internal/service"
	"github.com/LytheanSem/emotionwork-sub001/internal/utils"
)

const (
	jwtSecret = "router-test-secret"
	adminMail = "staff@example.com"
	adminPass = "correct horse"
)

type api struct {
	t     *testing.T
	e     *echo.Echo
	store *ledger.MemoryRowStore
}

func newAPI(t *testing.T) *api {
	t.Helper()
	hash, err := utils.HashPassword(adminPass, bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{JWTSecret: jwtSecret, AccessTTLMin: 5, AdminEmail: adminMail, AdminPasswordHash: hash}

	log := zap.NewNop()
	store := ledger.NewMemoryRowStore()
	svc := service.NewBookingSvc(ledger.NewSheetLedger(store, ledger.NoRetry, log), nil, log)
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	e := New(log)
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(cfg, log), pass)
	RegisterBookings(e, handler.NewBookingHandler(svc, log, time.Second),
		handler.NewQuoteHandler(service.NewCatalogPricing(service.DefaultCatalog)), pass, pass)
	RegisterAdmin(e, handler.NewAdminHandler(svc, log, time.Second), jwtSecret)
	return &api{t: t, e: e, store: store}
}

func (a *api) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func bookingBody(email, date, tm string) string {
	return `{"first_name":"Ann","last_name":"Lee","phone_number":"+1 (555) 010-0100",` +
		`"email":"` + email + `","slot_date":"` + date + `","slot_time":"` + tm + `","description":"=SUM(A1)"}`
}

func (a *api) create(email, date, tm string) string {
	rec := a.do(http.MethodPost, "/v1/bookings", bookingBody(email, date, tm), "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(a.t, rec)["booking_id"].(string)
}

func TestHealth(t *testing.T) {
	rec := newAPI(t).do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCreateAndLookup(t *testing.T) {
	a := newAPI(t)
	id := a.create("Ann@Example.com ", "2025-06-01", "14:00")

	rec := a.do(http.MethodPost, "/v1/bookings/lookup", `{"booking_id":"`+id+`","email":"ann@example.com"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "ann@example.com", got["email"])
	assert.Equal(t, "2:00 PM", got["slot_time"])
	assert.Equal(t, "=SUM(A1)", got["description"])
	assert.Equal(t, false, got["confirmed"])

	rec = a.do(http.MethodPost, "/v1/bookings/lookup", `{"booking_id":"`+id+`","email":"other@example.com"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateConflictAcrossTimeSpellings(t *testing.T) {
	a := newAPI(t)
	a.create("a@example.com", "2025-06-01", "2pm")

	rec := a.do(http.MethodPost, "/v1/bookings", bookingBody("b@example.com", "2025-06-01", "14:00"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, a.store.Len())
}

func TestCreateValidation(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodPost, "/v1/bookings", bookingBody("not-an-email", "2025-13-01", "25:00"), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "slot_date")
	assert.Contains(t, fields, "slot_time")

	rec = a.do(http.MethodPost, "/v1/bookings", `{"first_name":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, a.store.Len())
}

func TestUpdateAndCancel(t *testing.T) {
	a := newAPI(t)
	id := a.create("a@example.com", "2025-06-01", "9am")
	a.create("b@example.com", "2025-06-01", "10am")

	body := bookingBody("a@example.com", "2025-06-01", "10:00 AM")
	rec := a.do(http.MethodPut, "/v1/bookings/"+id, body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	body = strings.Replace(bookingBody("a@example.com", "2025-06-01", "11am"), `"email"`, `"new_email":"new@example.com","email"`, 1)
	rec = a.do(http.MethodPut, "/v1/bookings/"+id, body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "11:00 AM", decode(t, rec)["slot_time"])
	assert.Equal(t, "new@example.com", decode(t, rec)["email"])

	rec = a.do(http.MethodDelete, "/v1/bookings/"+id, `{"email":"a@example.com"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(http.MethodDelete, "/v1/bookings/"+id, `{"email":"new@example.com"}`, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(http.MethodDelete, "/v1/bookings/"+id, `{"email":"new@example.com"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSlots(t *testing.T) {
	a := newAPI(t)
	a.create("a@example.com", "2025-06-01", "3 pm")
	a.create("b@example.com", "2025-06-01", "9:30")
	a.create("c@example.com", "2025-06-02", "9:30")

	rec := a.do(http.MethodGet, "/v1/slots?date=2025-06-01", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"3:00 PM", "9:30 AM"}, decode(t, rec)["booked_times"])

	rec = a.do(http.MethodGet, "/v1/slots?date=tomorrow", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotes(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodPost, "/v1/quotes",
		`{"items":[{"equipment_id":"led-par","quantity":2,"rental_type":"weekly","days":10,"price":1}]}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7500*2*2), decode(t, rec)["total_cents"])

	rec = a.do(http.MethodPost, "/v1/quotes", `{"items":[{"equipment_id":"ghost","quantity":1,"rental_type":"daily","days":1}]}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, "/v1/quotes", `{"items":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func (a *api) login() string {
	rec := a.do(http.MethodPost, "/v1/auth/login", `{"email":"STAFF@example.com","password":"`+adminPass+`"}`, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(a.t, rec)["access"].(map[string]any)["token"].(string)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	rec := newAPI(t).do(http.MethodPost, "/v1/auth/login", `{"email":"staff@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminFlow(t *testing.T) {
	a := newAPI(t)
	id := a.create("a@example.com", "2025-06-01", "9am")
	a.create("b@example.com", "2025-06-02", "9am")

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/v1/admin/bookings", "", "").Code)

	tok := a.login()
	rec := a.do(http.MethodGet, "/v1/admin/bookings?date=2025-06-01", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = a.do(http.MethodPatch, "/v1/admin/bookings/"+id+"/status", `{"confirmed":true,"completed":false}`, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["confirmed"])

	rec = a.do(http.MethodPatch, "/v1/admin/bookings/"+id+"/status", `{"confirmed":true}`, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPatch, "/v1/admin/bookings/missing/status", `{"confirmed":true,"completed":true}`, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/v1/admin/reconcile", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

type failingStore struct{}

var errQuota = errors.New("quota exceeded")

func (failingStore) ReadRows(context.Context) ([]ledger.Row, error) { return nil, errQuota }
func (failingStore) WriteRow(context.Context, int, []string) error { return errQuota }
func (failingStore) AppendRow(context.Context, []string) (int, error) { return 0, errQuota }
func (failingStore) ClearRow(context.Context, int) error { return errQuota }

func TestStoreOutageIsServiceUnavailable(t *testing.T) {
	log := zap.NewNop()
	svc := service.NewBookingSvc(ledger.NewSheetLedger(failingStore{}, ledger.NoRetry, log), nil, log)
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	e := New(log)
	RegisterBookings(e, handler.NewBookingHandler(svc, log, time.Second),
		handler.NewQuoteHandler(service.NewCatalogPricing(nil)), pass, pass)
	a := &api{t: t, e: e}

	rec := a.do(http.MethodPost, "/v1/bookings", bookingBody("a@example.com", "2025-06-01", "9am"), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "quota")
}
