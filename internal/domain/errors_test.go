package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetail(t *testing.T) {
	t.Run("leaves the shared instance untouched", func(t *testing.T) {
		derived := ErrPaymentInvalidState.
			WithDetail("payment_id", "pay-1").
			WithDetail("operation", "capture")

		assert.Empty(t, ErrPaymentInvalidState.Details)
		assert.Equal(t, "pay-1", derived.Details["payment_id"])
		assert.Equal(t, "capture", derived.Details["operation"])
		assert.Equal(t, ErrorCodePaymentInvalidState, derived.Code)
	})

	t.Run("derived errors do not share detail maps", func(t *testing.T) {
		first := ErrIPNMissingField.WithDetail("field", "referenceNumber")
		second := ErrIPNMissingField.WithDetail("field", "invoiceAmount")

		assert.Equal(t, "referenceNumber", first.Details["field"])
		assert.Equal(t, "invoiceAmount", second.Details["field"])
	})

	t.Run("keeps the wrapped error chain", func(t *testing.T) {
		cause := errors.New("no rows")
		wrapped := WrapError(ErrorCodePaymentNotFound, "get payment", cause).
			WithDetail("payment_id", "pay-1")

		require.True(t, errors.Is(wrapped, cause))
		assert.True(t, IsDomainError(wrapped, ErrorCodePaymentNotFound))
	})
}
