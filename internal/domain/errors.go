package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Payment state errors (PAYMENT_*)
	ErrorCodePaymentNotFound     ErrorCode = "PAYMENT_NOT_FOUND"
	ErrorCodePaymentInvalidState ErrorCode = "PAYMENT_INVALID_STATE"
	ErrorCodePaymentRefundExcess ErrorCode = "PAYMENT_REFUND_EXCEEDS_BALANCE"

	// Gateway errors (GATEWAY_*)
	ErrorCodeGatewayError   ErrorCode = "GATEWAY_ERROR"
	ErrorCodeHardDecline    ErrorCode = "GATEWAY_HARD_DECLINE"
	ErrorCodeShopperFailure ErrorCode = "GATEWAY_SHOPPER_VERIFICATION_FAILED"

	// Vaulted shopper errors (SHOPPER_*)
	ErrorCodeShopperNotFound ErrorCode = "SHOPPER_NOT_FOUND"

	// Subscription errors (SUBSCRIPTION_*)
	ErrorCodeSubscriptionNotFound ErrorCode = "SUBSCRIPTION_NOT_FOUND"

	// IPN errors (IPN_*)
	ErrorCodeIPNUntrustedIP    ErrorCode = "IPN_UNTRUSTED_IP"
	ErrorCodeIPNMissingField   ErrorCode = "IPN_MISSING_FIELD"
	ErrorCodeIPNUnsupported    ErrorCode = "IPN_UNSUPPORTED_TYPE"
	ErrorCodeIPNUnknownPayment ErrorCode = "IPN_UNKNOWN_PAYMENT"

	// Validation errors (VALIDATION_*)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Internal errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of the error with the detail field added. The
// receiver is never mutated: the package-level error instances are shared
// across requests, so details attach to per-call copies only.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	return &DomainError{
		Err:     e.Err,
		Details: details,
		Code:    e.Code,
		Message: e.Message,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsPreconditionError checks if an error is a payment-state precondition violation.
// These are developer/logic errors and must never be retried or coerced.
func IsPreconditionError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodePaymentInvalidState || code == ErrorCodePaymentRefundExcess
}

// IsHardDecline checks if an error is a non-retriable gateway rejection that
// requires new payment details from the shopper
func IsHardDecline(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeHardDecline || code == ErrorCodeShopperFailure
}

// IsIPNError checks if an error belongs to the IPN validation family
func IsIPNError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeIPNUntrustedIP ||
		code == ErrorCodeIPNMissingField ||
		code == ErrorCodeIPNUnsupported ||
		code == ErrorCodeIPNUnknownPayment
}

// Structured error instances
var (
	ErrPaymentNotFound     = NewDomainError(ErrorCodePaymentNotFound, "payment not found")
	ErrPaymentInvalidState = NewDomainError(ErrorCodePaymentInvalidState, "payment is in invalid state for this operation")
	ErrRefundExceedsAmount = NewDomainError(ErrorCodePaymentRefundExcess, "refund amount exceeds remaining refundable balance")

	ErrGatewayError = NewDomainError(ErrorCodeGatewayError, "payment gateway error")
	ErrHardDecline  = NewDomainError(ErrorCodeHardDecline, "payment was declined by the gateway")
	// ErrShopperVerification is the creation-path failure: the payment method
	// could not be verified. Surfaced to the shopper, never retried automatically.
	ErrShopperVerification = NewDomainError(ErrorCodeShopperFailure, "the payment method could not be verified, please check the details and try again")

	ErrShopperNotFound = NewDomainError(ErrorCodeShopperNotFound, "vaulted shopper not found")

	ErrSubscriptionNotFound = NewDomainError(ErrorCodeSubscriptionNotFound, "subscription not found")

	ErrIPNUntrustedIP    = NewDomainError(ErrorCodeIPNUntrustedIP, "notification received from untrusted IP address")
	ErrIPNMissingField   = NewDomainError(ErrorCodeIPNMissingField, "notification is missing a required field")
	ErrIPNUnsupported    = NewDomainError(ErrorCodeIPNUnsupported, "unsupported notification transaction type")
	ErrIPNUnknownPayment = NewDomainError(ErrorCodeIPNUnknownPayment, "notification does not match a known payment")

	ErrValidationFailed = NewDomainError(ErrorCodeValidationFailed, "validation failed")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)

// RefundPendingMessage accompanies every successful refund initiation. The
// synchronous call only initiates the refund; BlueSnap confirms it via IPN, so
// the local payment record must not be presented as already refunded.
const RefundPendingMessage = "the refund has been submitted and changes will be reflected once the processor confirms it"
