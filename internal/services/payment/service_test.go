package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/commercekit/bluesnap-service/internal/domain/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPaymentRepository is a mock implementation of ports.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByRemoteID(ctx context.Context, remoteID string) (*domain.Payment, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ApplyTransition(ctx context.Context, intent domain.TransitionIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

// MockGateway is a mock implementation of ports.PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePayment(ctx context.Context, req *ports.CreatePaymentRequest) (*ports.PaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentResult), args.Error(1)
}

func (m *MockGateway) CapturePayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*ports.PaymentResult, error) {
	args := m.Called(ctx, remoteID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentResult), args.Error(1)
}

func (m *MockGateway) VoidPayment(ctx context.Context, remoteID string) (*ports.PaymentResult, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentResult), args.Error(1)
}

func (m *MockGateway) RefundPayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*ports.PaymentResult, error) {
	args := m.Called(ctx, remoteID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentResult), args.Error(1)
}

func (m *MockGateway) CreatePaymentMethod(ctx context.Context, req *ports.CreatePaymentMethodRequest) (*ports.PaymentMethodResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentMethodResult), args.Error(1)
}

func (m *MockGateway) DeletePaymentMethod(ctx context.Context, shopperID string, fingerprint domain.CardFingerprint) error {
	args := m.Called(ctx, shopperID, fingerprint)
	return args.Error(0)
}

// MockFraudSessions is a mock implementation of FraudSessions
type MockFraudSessions struct {
	mock.Mock
}

func (m *MockFraudSessions) SessionID(orderID string) string {
	args := m.Called(orderID)
	return args.String(0)
}

func (m *MockFraudSessions) Clear(orderID string) {
	m.Called(orderID)
}

type serviceFixture struct {
	service  *Service
	payments *MockPaymentRepository
	card     *MockGateway
	ach      *MockGateway
	sessions *MockFraudSessions
}

func newServiceFixture() *serviceFixture {
	payments := new(MockPaymentRepository)
	card := new(MockGateway)
	ach := new(MockGateway)
	sessions := new(MockFraudSessions)
	return &serviceFixture{
		service:  NewService(payments, card, ach, sessions, zap.NewNop()),
		payments: payments,
		card:     card,
		ach:      ach,
		sessions: sessions,
	}
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:       "order-1",
		StoreID:  "store-1",
		Currency: "USD",
		Items: []*domain.OrderItem{
			{
				ID:         "item-1",
				Title:      "T-shirt",
				Quantity:   decimal.NewFromInt(1),
				UnitPrice:  decimal.RequireFromString("50.00"),
				TotalPrice: decimal.RequireFromString("50.00"),
			},
		},
	}
}

func TestServiceCreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("card auth capture completes and clears the fraud session", func(t *testing.T) {
		f := newServiceFixture()
		f.payments.On("Create", ctx, mock.AnythingOfType("*domain.Payment")).Return(nil)
		f.sessions.On("SessionID", "order-1").Return("abc123")
		f.card.On("CreatePayment", ctx, mock.AnythingOfType("*ports.CreatePaymentRequest")).
			Return(&ports.PaymentResult{RemoteID: "38293928"}, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStateCompleted && i.RemoteID == "38293928"
		})).Return(nil)
		f.sessions.On("Clear", "order-1").Return()

		p, err := f.service.CreatePayment(ctx, &CreateRequest{
			Order:      testOrder(),
			MethodType: domain.PaymentMethodCard,
			CardType:   domain.CardTypeVisa,
			ShopperID:  "19549043",
			Amount:     decimal.RequireFromString("50.00"),
			Capture:    true,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStateCompleted, p.State)
		assert.Equal(t, "38293928", p.RemoteID)
		f.sessions.AssertCalled(t, "Clear", "order-1")
		f.payments.AssertExpectations(t)
	})

	t.Run("card auth only keeps the fraud session", func(t *testing.T) {
		f := newServiceFixture()
		f.payments.On("Create", ctx, mock.Anything).Return(nil)
		f.sessions.On("SessionID", "order-1").Return("abc123")
		f.card.On("CreatePayment", ctx, mock.Anything).
			Return(&ports.PaymentResult{RemoteID: "38293928"}, nil)
		f.payments.On("ApplyTransition", ctx, mock.Anything).Return(nil)

		p, err := f.service.CreatePayment(ctx, &CreateRequest{
			Order:      testOrder(),
			MethodType: domain.PaymentMethodCard,
			CardType:   domain.CardTypeVisa,
			Amount:     decimal.RequireFromString("50.00"),
			Capture:    false,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStateAuthorization, p.State)
		f.sessions.AssertNotCalled(t, "Clear", mock.Anything)
	})

	t.Run("processing ach debit stays pending", func(t *testing.T) {
		f := newServiceFixture()
		f.payments.On("Create", ctx, mock.Anything).Return(nil)
		f.sessions.On("SessionID", "order-1").Return("abc123")
		f.ach.On("CreatePayment", ctx, mock.Anything).
			Return(&ports.PaymentResult{RemoteID: "38293928", Processing: true}, nil)
		f.payments.On("ApplyTransition", ctx, mock.Anything).Return(nil)

		p, err := f.service.CreatePayment(ctx, &CreateRequest{
			Order:      testOrder(),
			MethodType: domain.PaymentMethodACH,
			Amount:     decimal.RequireFromString("50.00"),
			Capture:    true,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatePending, p.State)
	})

	t.Run("gateway decline surfaces as hard decline", func(t *testing.T) {
		f := newServiceFixture()
		f.payments.On("Create", ctx, mock.Anything).Return(nil)
		f.sessions.On("SessionID", "order-1").Return("abc123")
		f.card.On("CreatePayment", ctx, mock.Anything).
			Return(nil, errors.New("14002: card declined"))

		_, err := f.service.CreatePayment(ctx, &CreateRequest{
			Order:      testOrder(),
			MethodType: domain.PaymentMethodCard,
			CardType:   domain.CardTypeVisa,
			Amount:     decimal.RequireFromString("50.00"),
			Capture:    true,
		})

		require.Error(t, err)
		assert.True(t, domain.IsHardDecline(err))
		f.payments.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything)
	})
}

func TestServiceCapturePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("captures an authorized card payment", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateAuthorization, "50.00")
		f.payments.On("GetByID", ctx, p.ID).Return(p, nil)
		f.card.On("CapturePayment", ctx, p.RemoteID, mock.Anything).
			Return(&ports.PaymentResult{RemoteID: p.RemoteID}, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStateCompleted
		})).Return(nil)

		got, err := f.service.CapturePayment(ctx, p.ID, nil)

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStateCompleted, got.State)
	})

	t.Run("invalid state never reaches the gateway", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateCompleted, "50.00")
		f.payments.On("GetByID", ctx, p.ID).Return(p, nil)

		_, err := f.service.CapturePayment(ctx, p.ID, nil)

		require.Error(t, err)
		assert.True(t, domain.IsPreconditionError(err))
		f.card.AssertNotCalled(t, "CapturePayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newServiceFixture()
		f.payments.On("GetByID", ctx, "missing").Return(nil, errors.New("no rows"))

		_, err := f.service.CapturePayment(ctx, "missing", nil)

		assert.True(t, domain.IsDomainError(err, domain.ErrorCodePaymentNotFound))
	})
}

func TestServiceRefundPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("refund returns the pending confirmation message", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateCompleted, "50.00")
		f.payments.On("GetByID", ctx, p.ID).Return(p, nil)
		f.card.On("RefundPayment", ctx, p.RemoteID, mock.Anything).
			Return(&ports.PaymentResult{RemoteID: p.RemoteID}, nil)
		f.payments.On("ApplyTransition", ctx, mock.Anything).Return(nil)

		result, err := f.service.RefundPayment(ctx, p.ID, nil)

		require.NoError(t, err)
		assert.Equal(t, domain.RefundPendingMessage, result.Message)
		assert.Equal(t, domain.PaymentStateRefunded, result.Payment.State)
	})

	t.Run("over-refund never reaches the gateway", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateCompleted, "50.00")
		f.payments.On("GetByID", ctx, p.ID).Return(p, nil)
		over := decimal.RequireFromString("60.00")

		_, err := f.service.RefundPayment(ctx, p.ID, &over)

		require.Error(t, err)
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodePaymentRefundExcess))
		f.card.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestServiceHandleNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("charge notification completes a pending ach debit", func(t *testing.T) {
		f := newServiceFixture()
		p := achPayment(domain.PaymentStatePending, "50.00")
		f.payments.On("GetByRemoteID", ctx, p.RemoteID).Return(p, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStateCompleted
		})).Return(nil)

		err := f.service.HandleNotification(ctx, &domain.IPN{
			TransactionType: domain.IPNTypeCharge,
			ReferenceNumber: p.RemoteID,
		})

		require.NoError(t, err)
		f.payments.AssertExpectations(t)
	})

	t.Run("refund notification applies refund accounting", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateCompleted, "50.00")
		f.payments.On("GetByRemoteID", ctx, p.RemoteID).Return(p, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStatePartiallyRefunded
		})).Return(nil)

		err := f.service.HandleNotification(ctx, &domain.IPN{
			TransactionType: domain.IPNTypeRefund,
			ReferenceNumber: p.RemoteID,
			InvoiceAmount:   decimal.RequireFromString("20.00"),
		})

		require.NoError(t, err)
	})

	t.Run("confirmation of a locally initiated refund does not double-apply", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateCompleted, "100.00")
		partial := decimal.RequireFromString("30.00")
		f.payments.On("GetByID", ctx, p.ID).Return(p, nil)
		f.card.On("RefundPayment", ctx, p.RemoteID, mock.Anything).
			Return(&ports.PaymentResult{RemoteID: p.RemoteID}, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStatePartiallyRefunded &&
				i.RefundedAmount != nil && i.RefundedAmount.Equal(partial)
		})).Return(nil).Once()

		_, err := f.service.RefundPayment(ctx, p.ID, &partial)
		require.NoError(t, err)

		f.payments.On("GetByRemoteID", ctx, p.RemoteID).Return(p, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStatePartiallyRefunded && i.RefundedAmount == nil
		})).Return(nil).Once()

		err = f.service.HandleNotification(ctx, &domain.IPN{
			TransactionType: domain.IPNTypeRefund,
			ReferenceNumber: p.RemoteID,
			InvoiceAmount:   partial,
		})

		require.NoError(t, err)
		assert.True(t, p.RefundedAmount.Equal(partial))
		f.payments.AssertExpectations(t)
	})

	t.Run("confirmation of a full local refund succeeds", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateRefunded, "100.00")
		p.RefundedAmount = decimal.RequireFromString("100.00")
		f.payments.On("GetByRemoteID", ctx, p.RemoteID).Return(p, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStateRefunded && i.RefundedAmount == nil
		})).Return(nil)

		err := f.service.HandleNotification(ctx, &domain.IPN{
			TransactionType: domain.IPNTypeRefund,
			ReferenceNumber: p.RemoteID,
			InvoiceAmount:   decimal.RequireFromString("100.00"),
		})

		require.NoError(t, err)
	})

	t.Run("cancellation voids a pending ach debit", func(t *testing.T) {
		f := newServiceFixture()
		p := achPayment(domain.PaymentStatePending, "50.00")
		f.payments.On("GetByRemoteID", ctx, p.RemoteID).Return(p, nil)
		f.payments.On("ApplyTransition", ctx, mock.MatchedBy(func(i domain.TransitionIntent) bool {
			return i.ToState == domain.PaymentStateVoided
		})).Return(nil)

		err := f.service.HandleNotification(ctx, &domain.IPN{
			TransactionType: domain.IPNTypeChargeFailure,
			ReferenceNumber: p.RemoteID,
		})

		require.NoError(t, err)
	})

	t.Run("missing reference number", func(t *testing.T) {
		f := newServiceFixture()

		err := f.service.HandleNotification(ctx, &domain.IPN{TransactionType: domain.IPNTypeCharge})

		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeIPNMissingField))
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newServiceFixture()
		f.payments.On("GetByRemoteID", ctx, "999").Return(nil, errors.New("no rows"))

		err := f.service.HandleNotification(ctx, &domain.IPN{
			TransactionType: domain.IPNTypeCharge,
			ReferenceNumber: "999",
		})

		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeIPNUnknownPayment))
	})

	t.Run("unsupported transaction type", func(t *testing.T) {
		f := newServiceFixture()
		p := cardPayment(domain.PaymentStateCompleted, "50.00")
		f.payments.On("GetByRemoteID", ctx, p.RemoteID).Return(p, nil)

		err := f.service.HandleNotification(ctx, &domain.IPN{
			TransactionType: "CHARGEBACK",
			ReferenceNumber: p.RemoteID,
		})

		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeIPNUnsupported))
	})
}
