package enhanceddata

import (
	"testing"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// level3Order is an order with one line of two units at 50.95, a 6% included
// sales tax and a 10.00 included promotion on the line, plus order-level
// shipping of 10.00.
func level3Order() *domain.Order {
	includedTax := adj(domain.AdjustmentTax, "6.1")
	includedTax.Percentage = pct("0.06")
	includedTax.Included = true

	promo := adj(domain.AdjustmentPromotion, "-10")
	promo.Included = true

	return &domain.Order{
		ID:        "order-1",
		StoreID:   "store-1",
		Currency:  "USD",
		StoreData: settings(true, domain.DataLevel3),
		Items: []*domain.OrderItem{
			{
				ID:              "item-1",
				Title:           "T-shirt",
				Quantity:        decimal.NewFromInt(2),
				UnitPrice:       decimal.RequireFromString("50.95"),
				TotalPrice:      decimal.RequireFromString("98"),
				PurchasedEntity: &domain.PurchasedEntity{SKU: "TSHIRT-M"},
				Adjustments:     []domain.Adjustment{includedTax, promo},
			},
		},
		Adjustments: []domain.Adjustment{adj(domain.AdjustmentShipping, "10")},
		Shipments: []domain.Shipment{
			{ShippingAddress: domain.Address{PostalCode: "53703", CountryCode: "US"}},
		},
	}
}

func TestBuildDataLevelGating(t *testing.T) {
	order := level3Order()

	t.Run("visa and mastercard get level 3", func(t *testing.T) {
		assert.NotNil(t, BuildData(order, domain.CardTypeVisa).Level3Data)
		assert.NotNil(t, BuildData(order, domain.CardTypeMastercard).Level3Data)
	})

	t.Run("amex at level 3 gets nothing, never a downgrade", func(t *testing.T) {
		payload := BuildData(order, domain.CardTypeAmex)
		assert.True(t, payload.IsEmpty())
	})

	t.Run("discover gets nothing at either level", func(t *testing.T) {
		assert.True(t, BuildData(order, domain.CardTypeDiscover).IsEmpty())

		level2Order := level3Order()
		level2Order.StoreData = settings(true, domain.DataLevel2)
		assert.True(t, BuildData(level2Order, domain.CardTypeDiscover).IsEmpty())
	})

	t.Run("order without enhanced data settings yields empty payload", func(t *testing.T) {
		plain := level3Order()
		plain.StoreData = nil
		assert.True(t, BuildData(plain, domain.CardTypeVisa).IsEmpty())
	})
}

func TestBuildDataLevel3(t *testing.T) {
	payload := BuildData(level3Order(), domain.CardTypeVisa)
	require.NotNil(t, payload.Level3Data)
	data := payload.Level3Data

	assert.Equal(t, "order-1", data.CustomerReferenceNumber)
	assert.Equal(t, "10", data.FreightAmount)
	assert.Equal(t, "53703", data.DestinationZipCode)
	assert.Equal(t, "US", data.DestinationCountryCode)

	// No order-level tax or promotion adjustments, so the order aggregates
	// stay unset rather than reporting zero.
	assert.Empty(t, data.TaxAmount)
	assert.Empty(t, data.TaxRate)
	assert.Empty(t, data.DiscountAmount)

	require.Len(t, data.Level3DataItems, 1)
	item := data.Level3DataItems[0]

	// 98 stored minus included tax 6.1 minus included promotion -10
	assert.Equal(t, "101.9", item.LineItemTotal)
	assert.Equal(t, "T-shirt", item.Description)
	assert.Equal(t, "2.00", item.ItemQuantity)
	assert.Equal(t, "50.950000", item.UnitCost)
	assert.Equal(t, "TSHIRT-M", item.ProductCode)
	assert.Equal(t, "10", item.DiscountAmount)
	assert.Equal(t, "N", item.DiscountIndicator)
	assert.Equal(t, "6.1", item.TaxAmount)
	assert.Equal(t, "N", item.GrossNetIndicator)
	assert.Equal(t, "0.06", item.TaxRate)
}

func TestBuildDataLevel3OrderAggregates(t *testing.T) {
	order := level3Order()
	orderTax := adj(domain.AdjustmentTax, "5.50")
	orderTax.Percentage = pct("0.055")
	orderPromo := adj(domain.AdjustmentPromotion, "-15")
	order.Adjustments = append(order.Adjustments, orderTax, orderPromo)

	data := BuildData(order, domain.CardTypeVisa).Level3Data
	require.NotNil(t, data)

	assert.Equal(t, "5.5", data.TaxAmount)
	assert.Equal(t, "0.055", data.TaxRate)
	assert.Equal(t, "15", data.DiscountAmount)
}

func TestBuildDataLevel2(t *testing.T) {
	order := level3Order()
	order.StoreData = settings(true, domain.DataLevel2)

	t.Run("visa carries only the customer reference", func(t *testing.T) {
		payload := BuildData(order, domain.CardTypeVisa)
		require.NotNil(t, payload.Level2Data)
		assert.Equal(t, "order-1", payload.Level2Data.CustomerReferenceNumber)
		assert.Empty(t, payload.Level2Data.DestinationZipCode)
		assert.Empty(t, payload.Level2Data.Level3DataItems)
	})

	t.Run("amex carries the TAA addendum", func(t *testing.T) {
		payload := BuildData(order, domain.CardTypeAmex)
		require.NotNil(t, payload.Level2Data)
		data := payload.Level2Data

		assert.Equal(t, "53703", data.DestinationZipCode)
		require.Len(t, data.Level3DataItems, 1)

		// Amex line items are the basic triple; extended fields stay unset.
		item := data.Level3DataItems[0]
		assert.Equal(t, "101.9", item.LineItemTotal)
		assert.Equal(t, "T-shirt", item.Description)
		assert.Equal(t, "2.00", item.ItemQuantity)
		assert.Empty(t, item.UnitCost)
		assert.Empty(t, item.ProductCode)
		assert.Empty(t, item.TaxAmount)
	})
}

func TestLineItemTotalNetsIncludedAdjustmentsOnly(t *testing.T) {
	excludedTax := adj(domain.AdjustmentTax, "6.1")
	item := &domain.OrderItem{
		TotalPrice:  decimal.RequireFromString("98"),
		Adjustments: []domain.Adjustment{excludedTax},
	}

	assert.Equal(t, "98", lineItemTotal(item).String())
}
