// Package payment implements the payment transaction state machine. Decision
// logic is pure: every operation first asserts the payment's source state,
// then computes a TransitionIntent the persistence layer applies. Remote calls
// happen between the assertion and the apply, in Service.
package payment

import (
	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/shopspring/decimal"
)

// currencyExponents lists ISO 4217 minor-unit exceptions; everything else
// rounds to two decimal places.
var currencyExponents = map[string]int32{
	"BHD": 3,
	"JOD": 3,
	"JPY": 0,
	"KRW": 0,
	"KWD": 3,
	"OMR": 3,
	"TND": 3,
	"VND": 0,
}

// RoundToCurrency rounds an amount to the currency's minor-unit precision
// before it is sent to the gateway
func RoundToCurrency(amount decimal.Decimal, currency string) decimal.Decimal {
	exponent, ok := currencyExponents[currency]
	if !ok {
		exponent = 2
	}
	return amount.Round(exponent)
}

func invalidState(p *domain.Payment, operation string) error {
	return domain.ErrPaymentInvalidState.
		WithDetail("payment_id", p.ID).
		WithDetail("state", string(p.State)).
		WithDetail("operation", operation)
}

// EnsureCanCreate asserts the payment may have a remote transaction created
func EnsureCanCreate(p *domain.Payment) error {
	if !p.CanBeCreated() {
		return invalidState(p, "create")
	}
	return nil
}

// EnsureCanCapture asserts the payment holds capturable funds
func EnsureCanCapture(p *domain.Payment) error {
	if !p.CanBeCaptured() {
		return invalidState(p, "capture")
	}
	return nil
}

// EnsureCanVoid asserts the payment may still be voided
func EnsureCanVoid(p *domain.Payment) error {
	if !p.CanBeVoided() {
		return invalidState(p, "void")
	}
	return nil
}

// EnsureCanRefund asserts captured funds remain to refund
func EnsureCanRefund(p *domain.Payment) error {
	if !p.CanBeRefunded() {
		return invalidState(p, "refund")
	}
	return nil
}

// CreateOutcome computes the transition after a successful remote create.
// Cards land in authorization or completed depending on capture; ACH debits
// stay pending until the processor confirms settlement via IPN.
func CreateOutcome(p *domain.Payment, remoteID string, processing, capture bool) (domain.TransitionIntent, error) {
	if err := EnsureCanCreate(p); err != nil {
		return domain.TransitionIntent{}, err
	}

	state := domain.PaymentStateCompleted
	switch {
	case p.MethodType == domain.PaymentMethodACH && processing:
		state = domain.PaymentStatePending
	case p.MethodType != domain.PaymentMethodACH && !capture:
		state = domain.PaymentStateAuthorization
	}

	return domain.TransitionIntent{
		PaymentID: p.ID,
		ToState:   state,
		RemoteID:  remoteID,
	}, nil
}

// CaptureOutcome computes the capture transition and the amount to send.
// A nil amount captures the full authorized amount.
func CaptureOutcome(p *domain.Payment, amount *decimal.Decimal) (domain.TransitionIntent, decimal.Decimal, error) {
	if err := EnsureCanCapture(p); err != nil {
		return domain.TransitionIntent{}, decimal.Zero, err
	}

	captureAmount := p.Amount
	if amount != nil {
		captureAmount = *amount
	}
	captureAmount = RoundToCurrency(captureAmount, p.Currency)

	return domain.TransitionIntent{
		PaymentID: p.ID,
		ToState:   domain.PaymentStateCompleted,
		Amount:    &captureAmount,
	}, captureAmount, nil
}

// VoidOutcome computes the void transition
func VoidOutcome(p *domain.Payment) (domain.TransitionIntent, error) {
	if err := EnsureCanVoid(p); err != nil {
		return domain.TransitionIntent{}, err
	}

	state := domain.PaymentStateAuthVoided
	if p.MethodType == domain.PaymentMethodACH {
		state = domain.PaymentStateVoided
	}

	return domain.TransitionIntent{
		PaymentID: p.ID,
		ToState:   state,
	}, nil
}

// RefundOutcome computes the refund transition, the rounded amount to send and
// the new cumulative refunded amount. A nil amount refunds the full remaining
// balance. A refund exceeding the remaining balance is a fatal precondition
// violation, never clamped.
func RefundOutcome(p *domain.Payment, amount *decimal.Decimal) (domain.TransitionIntent, decimal.Decimal, error) {
	if err := EnsureCanRefund(p); err != nil {
		return domain.TransitionIntent{}, decimal.Zero, err
	}

	refundAmount := p.RemainingBalance()
	if amount != nil {
		refundAmount = *amount
	}
	refundAmount = RoundToCurrency(refundAmount, p.Currency)

	if refundAmount.GreaterThan(p.RemainingBalance()) {
		return domain.TransitionIntent{}, decimal.Zero, domain.ErrRefundExceedsAmount.
			WithDetail("payment_id", p.ID).
			WithDetail("requested", refundAmount.String()).
			WithDetail("remaining", p.RemainingBalance().String())
	}

	refunded := p.RefundedAmount.Add(refundAmount)
	state := domain.PaymentStatePartiallyRefunded
	if refunded.Equal(p.Amount) {
		state = domain.PaymentStateRefunded
	}

	return domain.TransitionIntent{
		PaymentID:      p.ID,
		ToState:        state,
		RefundedAmount: &refunded,
	}, refundAmount, nil
}

// ChargeNotificationOutcome applies an IPN charge confirmation: a pending ACH
// debit completes. A payment already completed is an idempotent no-op.
func ChargeNotificationOutcome(p *domain.Payment) (domain.TransitionIntent, error) {
	switch p.State {
	case domain.PaymentStatePending:
		return domain.TransitionIntent{
			PaymentID: p.ID,
			ToState:   domain.PaymentStateCompleted,
		}, nil
	case domain.PaymentStateCompleted:
		return domain.TransitionIntent{
			PaymentID: p.ID,
			ToState:   domain.PaymentStateCompleted,
		}, nil
	default:
		return domain.TransitionIntent{}, invalidState(p, "charge_notification")
	}
}

// RefundNotificationOutcome reconciles an IPN refund confirmation against the
// local refund accounting. Refunds initiated through this service are recorded
// synchronously, so the confirming notification must not apply them a second
// time: a notification whose amount is already covered by RefundedAmount, or
// that arrives after the payment reached refunded, is an idempotent no-op.
// Anything beyond the recorded amount is a console-initiated refund and flows
// through the same accounting as local ones.
func RefundNotificationOutcome(p *domain.Payment, amount decimal.Decimal) (domain.TransitionIntent, error) {
	amount = RoundToCurrency(amount, p.Currency)
	if p.State == domain.PaymentStateRefunded || !amount.GreaterThan(p.RefundedAmount) {
		return domain.TransitionIntent{
			PaymentID: p.ID,
			ToState:   p.State,
		}, nil
	}

	intent, _, err := RefundOutcome(p, &amount)
	return intent, err
}
