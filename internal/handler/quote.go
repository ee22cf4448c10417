package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/LytheanSem/emotionwork-sub001/internal/service"
)

// QuoteHandler prices equipment rentals server-side.
type QuoteHandler struct {
	Pricing service.PricingService
}

func NewQuoteHandler(p service.PricingService) *QuoteHandler {
	if p == nil {
		panic("nil pricing passed to NewQuoteHandler")
	}
	return &QuoteHandler{Pricing: p}
}

type quoteItem struct {
	EquipmentID string `json:"equipment_id" validate:"required,max=64"`
	Quantity    int    `json:"quantity" validate:"min=1,max=1000"`
	RentalType  string `json:"rental_type" validate:"required,oneof=daily weekly"`
	Days        int    `json:"days" validate:"min=1,max=366"`
}

type quoteReq struct {
	Items []quoteItem `json:"items" validate:"required,min=1,max=50,dive"`
}

func (r *quoteReq) normalize() {
	for i := range r.Items {
		r.Items[i].EquipmentID = strings.TrimSpace(r.Items[i].EquipmentID)
		r.Items[i].RentalType = strings.ToLower(strings.TrimSpace(r.Items[i].RentalType))
	}
}

// Quote handles POST /v1/quotes.  Prices sent by the client are ignored.
func (h *QuoteHandler) Quote(c echo.Context) error {
	var req quoteReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	lines := make([]service.PriceBreakdown, 0, len(req.Items))
	var total int64
	for _, it := range req.Items {
		pb, err := h.Pricing.ComputePrice(it.EquipmentID, it.Quantity, it.RentalType, it.Days)
		switch {
		case errors.Is(err, service.ErrUnknownEquipment):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown equipment", "equipment_id": it.EquipmentID})
		case err != nil:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		lines = append(lines, pb)
		total += pb.SubtotalCents
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lines, "total_cents": total})
}
