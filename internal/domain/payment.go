package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentState represents the lifecycle state of a payment
type PaymentState string

const (
	// Card / hosted-fields states
	PaymentStateNew               PaymentState = "new"
	PaymentStateAuthorization     PaymentState = "authorization"
	PaymentStateCompleted         PaymentState = "completed"
	PaymentStateAuthVoided        PaymentState = "authorization_voided"
	PaymentStatePartiallyRefunded PaymentState = "partially_refunded"
	PaymentStateRefunded          PaymentState = "refunded"

	// ACH/ECP-only states
	PaymentStatePending PaymentState = "pending"
	PaymentStateVoided  PaymentState = "voided"
)

// PaymentMethodType represents the payment method family used
type PaymentMethodType string

const (
	PaymentMethodCard PaymentMethodType = "card"
	PaymentMethodACH  PaymentMethodType = "ach"
)

// CardType identifies a card network in BlueSnap's vocabulary
type CardType string

const (
	CardTypeMastercard CardType = "mastercard"
	CardTypeVisa       CardType = "visa"
	CardTypeAmex       CardType = "amex"
	CardTypeDiscover   CardType = "discover"
)

// Payment is the local record of a BlueSnap transaction
type Payment struct {
	ID             string
	OrderID        string
	StoreID        string
	MethodType     PaymentMethodType
	State          PaymentState
	Amount         decimal.Decimal
	Currency       string
	RemoteID       string
	RefundedAmount decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanBeCreated reports whether a remote transaction may be created for the payment
func (p *Payment) CanBeCreated() bool {
	return p.State == PaymentStateNew
}

// CanBeCaptured reports whether the payment holds funds that may be captured
func (p *Payment) CanBeCaptured() bool {
	if p.MethodType == PaymentMethodACH {
		return p.State == PaymentStatePending
	}
	return p.State == PaymentStateAuthorization
}

// CanBeVoided reports whether the payment may still be voided
func (p *Payment) CanBeVoided() bool {
	if p.MethodType == PaymentMethodACH {
		return p.State == PaymentStatePending
	}
	return p.State == PaymentStateAuthorization
}

// CanBeRefunded reports whether captured funds remain to refund
func (p *Payment) CanBeRefunded() bool {
	return p.State == PaymentStateCompleted || p.State == PaymentStatePartiallyRefunded
}

// RemainingBalance returns the amount still available for refund
func (p *Payment) RemainingBalance() decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}
