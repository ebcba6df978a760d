package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the lifecycle state of a recurring subscription
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// ChargeFrequency is BlueSnap's recurring charge interval vocabulary
type ChargeFrequency string

const (
	ChargeMonthly   ChargeFrequency = "MONTHLY"
	ChargeQuarterly ChargeFrequency = "QUARTERLY"
	ChargeAnnually  ChargeFrequency = "ANNUALLY"
)

// Subscription is a local record of a BlueSnap recurring subscription backed
// by a vaulted shopper
type Subscription struct {
	ID            string
	ShopperID     string
	RemoteID      string
	Amount        decimal.Decimal
	Currency      string
	Frequency     ChargeFrequency
	Status        SubscriptionStatus
	LastChargedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanBeCanceled reports whether the subscription is still cancelable
func (s *Subscription) CanBeCanceled() bool {
	return s.Status == SubscriptionActive
}
