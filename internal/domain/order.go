package domain

import (
	"github.com/shopspring/decimal"
)

// AdjustmentType classifies an order or order-item adjustment
type AdjustmentType string

const (
	AdjustmentTax       AdjustmentType = "tax"
	AdjustmentPromotion AdjustmentType = "promotion"
	AdjustmentShipping  AdjustmentType = "shipping"
)

// Adjustment is an immutable price adjustment. Percentage is set only for
// rate-based adjustments; a nil Percentage means the rate is undefined, which
// is distinct from a zero rate.
type Adjustment struct {
	Type       AdjustmentType
	Amount     decimal.Decimal
	Currency   string
	Percentage *decimal.Decimal
	// Included reports whether the adjustment amount is already contained in
	// the price it applies to
	Included bool
}

// Address holds the subset of a shipping profile address the gateway needs
type Address struct {
	PostalCode  string
	CountryCode string
}

// Shipment is a shipment attached to an order
type Shipment struct {
	ShippingAddress Address
}

// DataLevel is the enhanced transaction data level requested for an order
type DataLevel string

const (
	DataLevelNone DataLevel = ""
	DataLevel2    DataLevel = "2"
	DataLevel3    DataLevel = "3"
)

// DataLevelSettings is the per-store or per-purchased-entity enhanced data
// configuration
type DataLevelSettings struct {
	Enabled bool
	Level   DataLevel
}

// PurchasedEntity is the product variation an order item references
type PurchasedEntity struct {
	SKU       string
	DataLevel *DataLevelSettings
}

// OrderItem belongs to exactly one order
type OrderItem struct {
	ID              string
	Title           string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	TotalPrice      decimal.Decimal
	PurchasedEntity *PurchasedEntity
	Adjustments     []Adjustment
}

// AdjustmentsOfType returns the item's adjustments matching any of the given types
func (i *OrderItem) AdjustmentsOfType(types ...AdjustmentType) []Adjustment {
	return filterAdjustments(i.Adjustments, types)
}

// Order is the aggregate root for a purchase. Orders are read-only inputs to
// this service; their lifecycle is owned by the commerce system that posts them.
type Order struct {
	ID          string
	StoreID     string
	Currency    string
	StoreData   *DataLevelSettings
	Items       []*OrderItem
	Adjustments []Adjustment
	Shipments   []Shipment
}

// AdjustmentsOfType returns the order-level adjustments matching any of the
// given types
func (o *Order) AdjustmentsOfType(types ...AdjustmentType) []Adjustment {
	return filterAdjustments(o.Adjustments, types)
}

// CollectAdjustments returns order-level adjustments plus every item's
// adjustments, filtered by type
func (o *Order) CollectAdjustments(types ...AdjustmentType) []Adjustment {
	collected := filterAdjustments(o.Adjustments, types)
	for _, item := range o.Items {
		collected = append(collected, filterAdjustments(item.Adjustments, types)...)
	}
	return collected
}

// LastShipment returns the order's most recent shipment, or nil when the order
// carries none
func (o *Order) LastShipment() *Shipment {
	if len(o.Shipments) == 0 {
		return nil
	}
	return &o.Shipments[len(o.Shipments)-1]
}

func filterAdjustments(adjustments []Adjustment, types []AdjustmentType) []Adjustment {
	var filtered []Adjustment
	for _, adjustment := range adjustments {
		for _, t := range types {
			if adjustment.Type == t {
				filtered = append(filtered, adjustment)
				break
			}
		}
	}
	return filtered
}
