package enhanceddata

import (
	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Card networks eligible at each data level. Discover is deliberately absent
// from both sets: BlueSnap accepts enhanced data only for these networks.
var (
	level2CardTypes = map[domain.CardType]bool{
		domain.CardTypeMastercard: true,
		domain.CardTypeVisa:       true,
		domain.CardTypeAmex:       true,
	}
	level3CardTypes = map[domain.CardType]bool{
		domain.CardTypeMastercard: true,
		domain.CardTypeVisa:       true,
	}
)

// LineItemData is a single order line in the enhanced data payload. All
// amounts are decimal strings, matching BlueSnap's wire format.
type LineItemData struct {
	LineItemTotal     string `json:"lineItemTotal,omitempty"`
	Description       string `json:"description,omitempty"`
	ItemQuantity      string `json:"itemQuantity,omitempty"`
	UnitCost          string `json:"unitCost,omitempty"`
	ProductCode       string `json:"productCode,omitempty"`
	DiscountAmount    string `json:"discountAmount,omitempty"`
	DiscountIndicator string `json:"discountIndicator,omitempty"`
	TaxAmount         string `json:"taxAmount,omitempty"`
	GrossNetIndicator string `json:"grossNetIndicator,omitempty"`
	TaxRate           string `json:"taxRate,omitempty"`
}

// Level2Data is the Level 2 payload. Amex cards additionally carry the
// destination zip and basic line items (TAA addendum requirement).
type Level2Data struct {
	CustomerReferenceNumber string         `json:"customerReferenceNumber,omitempty"`
	DestinationZipCode      string         `json:"destinationZipCode,omitempty"`
	Level3DataItems         []LineItemData `json:"level3DataItem,omitempty"`
}

// Level3Data is the Level 3 payload
type Level3Data struct {
	CustomerReferenceNumber string         `json:"customerReferenceNumber,omitempty"`
	FreightAmount           string         `json:"freightAmount,omitempty"`
	TaxAmount               string         `json:"taxAmount,omitempty"`
	TaxRate                 string         `json:"taxRate,omitempty"`
	DiscountAmount          string         `json:"discountAmount,omitempty"`
	DestinationZipCode      string         `json:"destinationZipCode,omitempty"`
	DestinationCountryCode  string         `json:"destinationCountryCode,omitempty"`
	Level3DataItems         []LineItemData `json:"level3DataItems,omitempty"`
}

// Payload is the enhanced data attached to a card transaction. At most one of
// the two levels is set; an empty payload means no enhanced data is sent.
type Payload struct {
	Level2Data *Level2Data `json:"level2Data,omitempty"`
	Level3Data *Level3Data `json:"level3Data,omitempty"`
}

// IsEmpty reports whether the payload carries no enhanced data
func (p Payload) IsEmpty() bool {
	return p.Level2Data == nil && p.Level3Data == nil
}

// BuildData builds the enhanced data payload for an order and card type. The
// resolved level is gated by card-type eligibility at that exact level; an
// ineligible card yields an empty payload rather than a silent downgrade to a
// lower level.
func BuildData(order *domain.Order, cardType domain.CardType) Payload {
	switch ResolveLevel(order) {
	case domain.DataLevel3:
		if level3CardTypes[cardType] {
			return Payload{Level3Data: level3Data(order, cardType)}
		}
	case domain.DataLevel2:
		if level2CardTypes[cardType] {
			return Payload{Level2Data: level2Data(order, cardType)}
		}
	}
	return Payload{}
}

func level2Data(order *domain.Order, cardType domain.CardType) *Level2Data {
	data := &Level2Data{
		CustomerReferenceNumber: order.ID,
	}

	// Amex transactions carry line items and the destination zip in the TAA
	// addendum even at level 2.
	if cardType == domain.CardTypeAmex {
		if shipment := order.LastShipment(); shipment != nil {
			data.DestinationZipCode = shipment.ShippingAddress.PostalCode
		}
		for _, item := range order.Items {
			data.Level3DataItems = append(data.Level3DataItems, lineItemData(item, cardType))
		}
	}

	return data
}

func level3Data(order *domain.Order, cardType domain.CardType) *Level3Data {
	data := &Level3Data{
		CustomerReferenceNumber: order.ID,
	}

	// Every aggregate below is best-effort: an absent or undefined value
	// omits the key rather than sending a zero.
	if freight := Sum(order.AdjustmentsOfType(domain.AdjustmentShipping)); freight != nil {
		data.FreightAmount = freight.String()
	}
	taxes := order.AdjustmentsOfType(domain.AdjustmentTax)
	if tax := Sum(taxes); tax != nil {
		data.TaxAmount = tax.String()
	}
	if rate := SumRates(taxes); rate != nil {
		data.TaxRate = rate.String()
	}
	if discount := Sum(order.AdjustmentsOfType(domain.AdjustmentPromotion)); discount != nil {
		data.DiscountAmount = discount.Neg().String()
	}

	if shipment := order.LastShipment(); shipment != nil {
		data.DestinationZipCode = shipment.ShippingAddress.PostalCode
		data.DestinationCountryCode = shipment.ShippingAddress.CountryCode
	}

	for _, item := range order.Items {
		data.Level3DataItems = append(data.Level3DataItems, lineItemData(item, cardType))
	}

	return data
}

// lineItemData builds per-line data: the basic fields for amex, extended
// fields for every other network.
func lineItemData(item *domain.OrderItem, cardType domain.CardType) LineItemData {
	data := LineItemData{
		LineItemTotal: lineItemTotal(item).String(),
		Description:   item.Title,
		ItemQuantity:  item.Quantity.StringFixed(2),
	}

	if cardType == domain.CardTypeAmex {
		return data
	}

	data.UnitCost = item.UnitPrice.StringFixed(6)
	if item.PurchasedEntity != nil {
		data.ProductCode = item.PurchasedEntity.SKU
	}

	if discount := Sum(item.AdjustmentsOfType(domain.AdjustmentPromotion)); discount != nil {
		data.DiscountAmount = discount.Neg().String()
		data.DiscountIndicator = "N"
	}

	taxes := item.AdjustmentsOfType(domain.AdjustmentTax)
	if tax := Sum(taxes); tax != nil {
		data.TaxAmount = tax.String()
		data.GrossNetIndicator = "N"
	}
	if rate := SumRates(taxes); rate != nil {
		data.TaxRate = rate.String()
	}

	return data
}

// lineItemTotal reports the line price net of adjustments already included in
// the item price, so included taxes and discounts are not double counted.
func lineItemTotal(item *domain.OrderItem) decimal.Decimal {
	total := item.TotalPrice
	for _, adjustment := range item.AdjustmentsOfType(domain.AdjustmentTax, domain.AdjustmentPromotion) {
		if adjustment.Included {
			total = total.Sub(adjustment.Amount)
		}
	}
	return total
}
