package domain

import "github.com/shopspring/decimal"

// TransitionIntent is the outcome of a state-machine decision. The state
// machine itself never persists anything; an outer persistence layer applies
// the intent, which keeps the decision logic testable without storage.
type TransitionIntent struct {
	PaymentID string
	ToState   PaymentState
	// RemoteID is set when the transition stores a newly created remote
	// transaction ID
	RemoteID string
	// Amount is set when the transition adjusts the stored payment amount
	// (partial capture)
	Amount *decimal.Decimal
	// RefundedAmount is set when the transition updates refund accounting
	RefundedAmount *decimal.Decimal
}
