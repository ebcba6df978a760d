package domain

import "github.com/shopspring/decimal"

// IPNTransactionType classifies an inbound BlueSnap notification
type IPNTransactionType string

const (
	IPNTypeCharge        IPNTransactionType = "CHARGE"
	IPNTypeRefund        IPNTransactionType = "REFUND"
	IPNTypeCancellation  IPNTransactionType = "CANCELLATION"
	IPNTypeChargeFailure IPNTransactionType = "CHARGE_FAILURE"
)

// IPN is a parsed Instant Payment Notification. ReferenceNumber carries the
// remote transaction ID the notification refers to.
type IPN struct {
	TransactionType IPNTransactionType
	ReferenceNumber string
	InvoiceAmount   decimal.Decimal
	Currency        string
	SubscriptionID  string
	Raw             map[string]string
}
