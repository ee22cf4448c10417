package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Rental types accepted by ComputePrice.
const (
	RentalDaily  = "daily"
	RentalWeekly = "weekly"
)

var (
	// ErrUnknownEquipment is returned for ids missing from the catalog.
	ErrUnknownEquipment = errors.New("unknown equipment")
	// ErrInvalidQuote is returned for quantities, days or rental types
	// that cannot be priced.
	ErrInvalidQuote = errors.New("invalid quote request")
)

// Equipment is one rentable catalog item.  Rates are in cents.
type Equipment struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DailyRateCents  int64  `json:"daily_rate_cents"`
	WeeklyRateCents int64  `json:"weekly_rate_cents"`
}

// PriceBreakdown explains how a quote was computed.
type PriceBreakdown struct {
	EquipmentID    string `json:"equipment_id"`
	Name           string `json:"name"`
	RentalType     string `json:"rental_type"`
	Quantity       int    `json:"quantity"`
	Days           int    `json:"days"`
	Periods        int    `json:"periods"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// PricingService computes rental prices on the server.  Client-supplied
// prices are never trusted.
type PricingService interface {
	ComputePrice(equipmentID string, quantity int, rentalType string, days int) (PriceBreakdown, error)
}

// CatalogPricing prices equipment from a fixed catalog.  It is read-only
// after construction and safe for concurrent use.
type CatalogPricing struct {
	items map[string]Equipment
}

// DefaultCatalog is used when no catalog file is configured.
var DefaultCatalog = []Equipment{
	{ID: "stage-deck-2x1", Name: "Stage deck 2x1 m", DailyRateCents: 4500, WeeklyRateCents: 22500},
	{ID: "line-array-top", Name: "Line array speaker", DailyRateCents: 12000, WeeklyRateCents: 60000},
	{ID: "led-par", Name: "LED par light", DailyRateCents: 1500, WeeklyRateCents: 7500},
	{ID: "truss-3m", Name: "Box truss 3 m", DailyRateCents: 2500},
}

// NewCatalogPricing indexes items by id.
func NewCatalogPricing(items []Equipment) *CatalogPricing {
	m := make(map[string]Equipment, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return &CatalogPricing{items: m}
}

// LoadCatalog reads a JSON array of Equipment from path.
func LoadCatalog(path string) ([]Equipment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var items []Equipment
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return items, nil
}

// ComputePrice implements PricingService.  Weekly rentals are billed per
// started week.
func (p *CatalogPricing) ComputePrice(equipmentID string, quantity int, rentalType string, days int) (PriceBreakdown, error) {
	it, ok := p.items[equipmentID]
	if !ok {
		return PriceBreakdown{}, ErrUnknownEquipment
	}
	if quantity < 1 || days < 1 {
		return PriceBreakdown{}, fmt.Errorf("%w: quantity and days must be positive", ErrInvalidQuote)
	}
	rentalType = strings.ToLower(strings.TrimSpace(rentalType))
	var unit int64
	var periods int
	switch rentalType {
	case RentalDaily:
		unit, periods = it.DailyRateCents, days
	case RentalWeekly:
		if it.WeeklyRateCents <= 0 {
			return PriceBreakdown{}, fmt.Errorf("%w: %s has no weekly rate", ErrInvalidQuote, equipmentID)
		}
		unit, periods = it.WeeklyRateCents, (days+6)/7
	default:
		return PriceBreakdown{}, fmt.Errorf("%w: rental type %q", ErrInvalidQuote, rentalType)
	}
	return PriceBreakdown{
		EquipmentID:    it.ID,
		Name:           it.Name,
		RentalType:     rentalType,
		Quantity:       quantity,
		Days:           days,
		Periods:        periods,
		UnitPriceCents: unit,
		SubtotalCents:  unit * int64(periods) * int64(quantity),
	}, nil
}
