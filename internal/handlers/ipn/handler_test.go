package ipn

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockPaymentNotifier struct {
	mock.Mock
}

func (m *MockPaymentNotifier) HandleNotification(ctx context.Context, ipn *domain.IPN) error {
	args := m.Called(ctx, ipn)
	return args.Error(0)
}

type MockSubscriptionNotifier struct {
	mock.Mock
}

func (m *MockSubscriptionNotifier) HandleChargeNotification(ctx context.Context, ipn *domain.IPN) error {
	args := m.Called(ctx, ipn)
	return args.Error(0)
}

const trustedAddr = "62.216.234.217:51234"

func postIPN(t *testing.T, h *Handler, remoteAddr string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ipn", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func chargeForm() url.Values {
	return url.Values{
		"transactionType": {"CHARGE"},
		"referenceNumber": {"38293928"},
		"invoiceAmount":   {"50.00"},
	}
}

func TestAllowlist(t *testing.T) {
	production := NewAllowlist(true)

	assert.True(t, production.Contains(net.ParseIP("62.216.234.217")))
	assert.True(t, production.Contains(net.ParseIP("141.226.142.10")))
	assert.False(t, production.Contains(net.ParseIP("8.8.8.8")))
	assert.False(t, production.Contains(nil))

	sandbox := NewAllowlist(false)
	assert.True(t, sandbox.Contains(net.ParseIP("209.128.93.254")))
	assert.False(t, sandbox.Contains(net.ParseIP("209.128.93.233")))
}

func TestHandlerRejectsUntrustedIP(t *testing.T) {
	payments := new(MockPaymentNotifier)
	h := NewHandler(NewAllowlist(true), payments, new(MockSubscriptionNotifier), zap.NewNop())

	rec := postIPN(t, h, "8.8.8.8:4444", chargeForm())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	payments.AssertNotCalled(t, "HandleNotification", mock.Anything, mock.Anything)
}

// Mirrors the server router: RealIP rewrites RemoteAddr from X-Forwarded-For
// on the API group only. A forwarded header naming a BlueSnap address must not
// get an untrusted socket past the allowlist.
func TestForwardedHeaderCannotPassAllowlist(t *testing.T) {
	payments := new(MockPaymentNotifier)
	h := NewHandler(NewAllowlist(true), payments, new(MockSubscriptionNotifier), zap.NewNop())

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.RealIP)
		r.Get("/api/v1/payments/{paymentID}", func(w http.ResponseWriter, r *http.Request) {})
	})
	router.Method(http.MethodPost, "/ipn", h)

	req := httptest.NewRequest(http.MethodPost, "/ipn", strings.NewReader(chargeForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", "141.226.140.10")
	req.RemoteAddr = "203.0.113.50:4444"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	payments.AssertNotCalled(t, "HandleNotification", mock.Anything, mock.Anything)
}

func TestHandlerDispatchesCharge(t *testing.T) {
	payments := new(MockPaymentNotifier)
	h := NewHandler(NewAllowlist(true), payments, new(MockSubscriptionNotifier), zap.NewNop())
	payments.On("HandleNotification", mock.Anything, mock.MatchedBy(func(ipn *domain.IPN) bool {
		return ipn.TransactionType == domain.IPNTypeCharge &&
			ipn.ReferenceNumber == "38293928" &&
			ipn.InvoiceAmount.String() == "50"
	})).Return(nil)

	rec := postIPN(t, h, trustedAddr, chargeForm())

	assert.Equal(t, http.StatusOK, rec.Code)
	payments.AssertExpectations(t)
}

func TestHandlerRoutesSubscriptionCharges(t *testing.T) {
	payments := new(MockPaymentNotifier)
	subscriptions := new(MockSubscriptionNotifier)
	h := NewHandler(NewAllowlist(true), payments, subscriptions, zap.NewNop())
	subscriptions.On("HandleChargeNotification", mock.Anything, mock.MatchedBy(func(ipn *domain.IPN) bool {
		return ipn.SubscriptionID == "777"
	})).Return(nil)

	form := chargeForm()
	form.Set("subscriptionId", "777")
	rec := postIPN(t, h, trustedAddr, form)

	assert.Equal(t, http.StatusOK, rec.Code)
	subscriptions.AssertExpectations(t)
	payments.AssertNotCalled(t, "HandleNotification", mock.Anything, mock.Anything)
}

func TestHandlerValidation(t *testing.T) {
	t.Run("missing transaction type", func(t *testing.T) {
		h := NewHandler(NewAllowlist(true), new(MockPaymentNotifier), new(MockSubscriptionNotifier), zap.NewNop())

		rec := postIPN(t, h, trustedAddr, url.Values{"referenceNumber": {"38293928"}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported transaction type", func(t *testing.T) {
		h := NewHandler(NewAllowlist(true), new(MockPaymentNotifier), new(MockSubscriptionNotifier), zap.NewNop())

		form := chargeForm()
		form.Set("transactionType", "CONTRACT_CHANGE")
		rec := postIPN(t, h, trustedAddr, form)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown payment maps to 404", func(t *testing.T) {
		payments := new(MockPaymentNotifier)
		h := NewHandler(NewAllowlist(true), payments, new(MockSubscriptionNotifier), zap.NewNop())
		payments.On("HandleNotification", mock.Anything, mock.Anything).
			Return(domain.ErrIPNUnknownPayment)

		rec := postIPN(t, h, trustedAddr, chargeForm())

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("state mismatch maps to 409 so bluesnap stops retrying", func(t *testing.T) {
		payments := new(MockPaymentNotifier)
		h := NewHandler(NewAllowlist(true), payments, new(MockSubscriptionNotifier), zap.NewNop())
		payments.On("HandleNotification", mock.Anything, mock.Anything).
			Return(domain.ErrRefundExceedsAmount)

		rec := postIPN(t, h, trustedAddr, chargeForm())

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("internal failure maps to 500 so bluesnap retries", func(t *testing.T) {
		payments := new(MockPaymentNotifier)
		h := NewHandler(NewAllowlist(true), payments, new(MockSubscriptionNotifier), zap.NewNop())
		payments.On("HandleNotification", mock.Anything, mock.Anything).
			Return(domain.ErrDatabaseError)

		rec := postIPN(t, h, trustedAddr, chargeForm())

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestParseIPNKeepsRawFields(t *testing.T) {
	form := chargeForm()
	form.Set("authKey", "abc")

	ipn, err := parseIPN(form)

	require.NoError(t, err)
	assert.Equal(t, "abc", ipn.Raw["authKey"])
	assert.Equal(t, "CHARGE", ipn.Raw["transactionType"])
}
