package payment

import (
	"context"
	"time"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/commercekit/bluesnap-service/internal/domain/ports"
	"github.com/commercekit/bluesnap-service/internal/enhanceddata"
	"github.com/commercekit/bluesnap-service/pkg/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FraudSessions is the per-checkout fraud session store contract
type FraudSessions interface {
	SessionID(orderID string) string
	Clear(orderID string)
}

// Service orchestrates payment transactions against BlueSnap. State decisions
// live in the pure transition functions; Service sequences the precondition
// check, the remote call and the persisted transition.
type Service struct {
	payments ports.PaymentRepository
	gateways map[domain.PaymentMethodType]ports.PaymentGateway
	sessions FraudSessions
	logger   *zap.Logger
}

// NewService creates a new payment service
func NewService(
	payments ports.PaymentRepository,
	cardGateway ports.PaymentGateway,
	achGateway ports.PaymentGateway,
	sessions FraudSessions,
	logger *zap.Logger,
) *Service {
	return &Service{
		payments: payments,
		gateways: map[domain.PaymentMethodType]ports.PaymentGateway{
			domain.PaymentMethodCard: cardGateway,
			domain.PaymentMethodACH:  achGateway,
		},
		sessions: sessions,
		logger:   logger,
	}
}

// CreateRequest carries a new payment and the order it pays for
type CreateRequest struct {
	Order      *domain.Order
	MethodType domain.PaymentMethodType
	CardType   domain.CardType
	ShopperID  string
	Amount     decimal.Decimal
	Capture    bool
}

// RefundResult pairs the updated payment with the user-facing confirmation
// message. The message matters: the refund is only initiated here and settles
// once the IPN round-trip completes.
type RefundResult struct {
	Payment *domain.Payment
	Message string
}

// CreatePayment creates a remote transaction for a new payment. A decline is
// surfaced as a hard decline; card authorization failures are not retriable
// without new input from the shopper.
func (s *Service) CreatePayment(ctx context.Context, req *CreateRequest) (*domain.Payment, error) {
	payment := &domain.Payment{
		ID:             uuid.NewString(),
		OrderID:        req.Order.ID,
		StoreID:        req.Order.StoreID,
		MethodType:     req.MethodType,
		State:          domain.PaymentStateNew,
		Amount:         RoundToCurrency(req.Amount, req.Order.Currency),
		Currency:       req.Order.Currency,
		RefundedAmount: decimal.Zero,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "create payment record", err)
	}

	gatewayReq := &ports.CreatePaymentRequest{
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		ShopperID:      req.ShopperID,
		CardType:       req.CardType,
		Capture:        req.Capture,
		FraudSessionID: s.sessions.SessionID(req.Order.ID),
		Metadata: map[string]string{
			"order_id": req.Order.ID,
			"store_id": req.Order.StoreID,
		},
	}
	if req.MethodType == domain.PaymentMethodCard {
		gatewayReq.EnhancedData = enhanceddata.BuildData(req.Order, req.CardType)
	}

	result, err := s.gateways[req.MethodType].CreatePayment(ctx, gatewayReq)
	observability.ObservePaymentOperation("create", err)
	if err != nil {
		s.logger.Error("create payment declined",
			zap.String("payment_id", payment.ID),
			zap.String("order_id", req.Order.ID),
			zap.Error(err))
		if domain.GetErrorCode(err) == "" {
			err = domain.WrapError(domain.ErrorCodeHardDecline, "payment was declined by the gateway", err)
		}
		return nil, err
	}

	intent, err := CreateOutcome(payment, result.RemoteID, result.Processing, req.Capture)
	if err != nil {
		return nil, err
	}
	if err := s.payments.ApplyTransition(ctx, intent); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "apply create transition", err)
	}

	payment.State = intent.ToState
	payment.RemoteID = result.RemoteID
	if payment.State == domain.PaymentStateCompleted {
		s.sessions.Clear(req.Order.ID)
	}

	s.logger.Info("payment created",
		zap.String("payment_id", payment.ID),
		zap.String("remote_id", payment.RemoteID),
		zap.String("state", string(payment.State)),
		zap.String("amount", payment.Amount.String()))

	return payment, nil
}

// CapturePayment captures an authorized payment. A nil amount captures the
// full authorized amount; the amount is rounded to currency precision before
// it is sent.
func (s *Service) CapturePayment(ctx context.Context, paymentID string, amount *decimal.Decimal) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	intent, captureAmount, err := CaptureOutcome(payment, amount)
	if err != nil {
		return nil, err
	}

	_, err = s.gateways[payment.MethodType].CapturePayment(ctx, payment.RemoteID, captureAmount)
	observability.ObservePaymentOperation("capture", err)
	if err != nil {
		s.logger.Error("capture failed",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
		return nil, err
	}

	if err := s.payments.ApplyTransition(ctx, intent); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "apply capture transition", err)
	}

	payment.State = intent.ToState
	payment.Amount = captureAmount

	s.logger.Info("payment captured",
		zap.String("payment_id", payment.ID),
		zap.String("amount", captureAmount.String()))

	return payment, nil
}

// VoidPayment voids an authorized card payment or a pending ACH debit
func (s *Service) VoidPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	intent, err := VoidOutcome(payment)
	if err != nil {
		return nil, err
	}

	_, err = s.gateways[payment.MethodType].VoidPayment(ctx, payment.RemoteID)
	observability.ObservePaymentOperation("void", err)
	if err != nil {
		s.logger.Error("void failed",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
		return nil, err
	}

	if err := s.payments.ApplyTransition(ctx, intent); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "apply void transition", err)
	}

	payment.State = intent.ToState

	s.logger.Info("payment voided", zap.String("payment_id", payment.ID))

	return payment, nil
}

// RefundPayment initiates a refund. A nil amount refunds the full remaining
// balance. The returned message must reach the user: the refund settles only
// after the processor's IPN confirmation.
func (s *Service) RefundPayment(ctx context.Context, paymentID string, amount *decimal.Decimal) (*RefundResult, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	intent, refundAmount, err := RefundOutcome(payment, amount)
	if err != nil {
		return nil, err
	}

	_, err = s.gateways[payment.MethodType].RefundPayment(ctx, payment.RemoteID, refundAmount)
	observability.ObservePaymentOperation("refund", err)
	if err != nil {
		s.logger.Error("refund failed",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
		return nil, err
	}

	if err := s.payments.ApplyTransition(ctx, intent); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "apply refund transition", err)
	}

	payment.State = intent.ToState
	payment.RefundedAmount = *intent.RefundedAmount

	s.logger.Info("refund initiated",
		zap.String("payment_id", payment.ID),
		zap.String("amount", refundAmount.String()),
		zap.String("state", string(payment.State)))

	return &RefundResult{
		Payment: payment,
		Message: domain.RefundPendingMessage,
	}, nil
}

// GetPayment retrieves a payment by ID
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.getPayment(ctx, paymentID)
}

// CreatePaymentMethod stores a payment source through the gateway variant for
// its method family
func (s *Service) CreatePaymentMethod(ctx context.Context, methodType domain.PaymentMethodType, req *ports.CreatePaymentMethodRequest) (*ports.PaymentMethodResult, error) {
	result, err := s.gateways[methodType].CreatePaymentMethod(ctx, req)
	observability.ObservePaymentOperation("create_method", err)
	if err != nil {
		s.logger.Warn("create payment method failed",
			zap.String("method_type", string(methodType)),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// DeletePaymentMethod removes a stored card identified by its fingerprint
func (s *Service) DeletePaymentMethod(ctx context.Context, methodType domain.PaymentMethodType, shopperID string, fingerprint domain.CardFingerprint) error {
	err := s.gateways[methodType].DeletePaymentMethod(ctx, shopperID, fingerprint)
	observability.ObservePaymentOperation("delete_method", err)
	return err
}

// HandleNotification applies an IPN to the payment it references. This runs
// out-of-band from the synchronous call path: charge and refund completion is
// eventually consistent with the notification round-trip.
func (s *Service) HandleNotification(ctx context.Context, ipn *domain.IPN) error {
	err := s.handleNotification(ctx, ipn)
	observability.ObserveIPN(string(ipn.TransactionType), err)
	return err
}

func (s *Service) handleNotification(ctx context.Context, ipn *domain.IPN) error {
	if ipn.ReferenceNumber == "" {
		return domain.ErrIPNMissingField.WithDetail("field", "referenceNumber")
	}

	payment, err := s.payments.GetByRemoteID(ctx, ipn.ReferenceNumber)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeIPNUnknownPayment, "resolve notification payment", err).
			WithDetail("reference_number", ipn.ReferenceNumber)
	}

	var intent domain.TransitionIntent
	switch ipn.TransactionType {
	case domain.IPNTypeCharge:
		intent, err = ChargeNotificationOutcome(payment)
	case domain.IPNTypeRefund:
		intent, err = RefundNotificationOutcome(payment, ipn.InvoiceAmount)
	case domain.IPNTypeCancellation, domain.IPNTypeChargeFailure:
		// ACH debits that the bank returns or rejects void the pending payment
		intent, err = VoidOutcome(payment)
	default:
		return domain.ErrIPNUnsupported.WithDetail("transaction_type", string(ipn.TransactionType))
	}
	if err != nil {
		return err
	}

	if err := s.payments.ApplyTransition(ctx, intent); err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "apply notification transition", err)
	}

	s.logger.Info("notification applied",
		zap.String("payment_id", payment.ID),
		zap.String("transaction_type", string(ipn.TransactionType)),
		zap.String("state", string(intent.ToState)))

	return nil
}

func (s *Service) getPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodePaymentNotFound, "get payment", err).
			WithDetail("payment_id", paymentID)
	}
	return payment, nil
}
