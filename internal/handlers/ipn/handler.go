// Package ipn receives BlueSnap Instant Payment Notifications: the
// asynchronous callbacks that confirm charges, refunds and cancellations.
package ipn

import (
	"context"
	"net/http"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentNotifier applies a payment-related notification
type PaymentNotifier interface {
	HandleNotification(ctx context.Context, ipn *domain.IPN) error
}

// SubscriptionNotifier records recurring subscription charges
type SubscriptionNotifier interface {
	HandleChargeNotification(ctx context.Context, ipn *domain.IPN) error
}

// Handler terminates BlueSnap's IPN webhook
type Handler struct {
	allowlist     *Allowlist
	payments      PaymentNotifier
	subscriptions SubscriptionNotifier
	logger        *zap.Logger
}

// NewHandler creates a new IPN handler
func NewHandler(allowlist *Allowlist, payments PaymentNotifier, subscriptions SubscriptionNotifier, logger *zap.Logger) *Handler {
	return &Handler{
		allowlist:     allowlist,
		payments:      payments,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// ServeHTTP handles POST callbacks. BlueSnap retries on any non-2xx answer,
// so validation failures return precise statuses: untrusted sources get 403,
// malformed notifications 400, unresolvable payments 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !h.allowlist.Contains(ip) {
		h.logger.Warn("notification from untrusted address",
			zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, domain.ErrIPNUntrustedIP.Message, http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed notification body", http.StatusBadRequest)
		return
	}

	ipn, err := parseIPN(r.PostForm)
	if err != nil {
		h.logger.Warn("notification rejected",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dispatch(r.Context(), ipn); err != nil {
		h.logger.Warn("notification processing failed",
			zap.String("transaction_type", string(ipn.TransactionType)),
			zap.String("reference_number", ipn.ReferenceNumber),
			zap.Error(err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	h.logger.Info("notification processed",
		zap.String("transaction_type", string(ipn.TransactionType)),
		zap.String("reference_number", ipn.ReferenceNumber))
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) dispatch(ctx context.Context, ipn *domain.IPN) error {
	// Recurring charges carry a subscription ID; they feed the subscription
	// ledger instead of the payment state machine.
	if ipn.TransactionType == domain.IPNTypeCharge && ipn.SubscriptionID != "" {
		return h.subscriptions.HandleChargeNotification(ctx, ipn)
	}
	return h.payments.HandleNotification(ctx, ipn)
}

func statusFor(err error) int {
	// State mismatches are not retriable; a 5xx would make BlueSnap resend a
	// notification that can never apply.
	if domain.IsPreconditionError(err) {
		return http.StatusConflict
	}
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeIPNUnknownPayment:
		return http.StatusNotFound
	case domain.ErrorCodeIPNMissingField, domain.ErrorCodeIPNUnsupported:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIPN converts the form-encoded callback into a domain notification
func parseIPN(form map[string][]string) (*domain.IPN, error) {
	get := func(key string) string {
		if values := form[key]; len(values) > 0 {
			return values[0]
		}
		return ""
	}

	txType := get("transactionType")
	if txType == "" {
		return nil, domain.ErrIPNMissingField.WithDetail("field", "transactionType")
	}

	ipn := &domain.IPN{
		TransactionType: domain.IPNTransactionType(txType),
		ReferenceNumber: get("referenceNumber"),
		Currency:        get("invoiceAmountCurrency"),
		SubscriptionID:  get("subscriptionId"),
		Raw:             make(map[string]string, len(form)),
	}
	for key, values := range form {
		if len(values) > 0 {
			ipn.Raw[key] = values[0]
		}
	}

	switch ipn.TransactionType {
	case domain.IPNTypeCharge, domain.IPNTypeRefund, domain.IPNTypeCancellation, domain.IPNTypeChargeFailure:
	default:
		return nil, domain.ErrIPNUnsupported.WithDetail("transaction_type", txType)
	}

	if raw := get("invoiceAmount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, domain.ErrIPNMissingField.WithDetail("field", "invoiceAmount")
		}
		ipn.InvoiceAmount = amount
	}

	return ipn, nil
}
