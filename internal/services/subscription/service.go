// Package subscription manages BlueSnap recurring subscriptions backed by
// vaulted shoppers
package subscription

import (
	"context"
	"time"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/commercekit/bluesnap-service/internal/domain/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service coordinates the recurring API with the local subscription store
type Service struct {
	subscriptions ports.SubscriptionRepository
	gateway       ports.SubscriptionGateway
	logger        *zap.Logger
}

// NewService creates a new subscription service
func NewService(subscriptions ports.SubscriptionRepository, gateway ports.SubscriptionGateway, logger *zap.Logger) *Service {
	return &Service{
		subscriptions: subscriptions,
		gateway:       gateway,
		logger:        logger,
	}
}

// Create registers a recurring subscription remotely and persists the local record
func (s *Service) Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	sub.ID = uuid.NewString()
	sub.Status = domain.SubscriptionActive
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()

	remoteID, err := s.gateway.CreateSubscription(ctx, sub)
	if err != nil {
		s.logger.Error("create subscription failed",
			zap.String("shopper_id", sub.ShopperID),
			zap.Error(err))
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "create subscription", err)
	}
	sub.RemoteID = remoteID

	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "persist subscription", err)
	}

	s.logger.Info("subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("remote_id", remoteID),
		zap.String("frequency", string(sub.Frequency)))

	return sub, nil
}

// Cancel cancels an active subscription remotely and locally
func (s *Service) Cancel(ctx context.Context, id string) error {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !sub.CanBeCanceled() {
		return domain.ErrPaymentInvalidState.
			WithDetail("subscription_id", sub.ID).
			WithDetail("status", string(sub.Status))
	}

	if err := s.gateway.CancelSubscription(ctx, sub.RemoteID); err != nil {
		s.logger.Error("cancel subscription failed",
			zap.String("subscription_id", sub.ID),
			zap.Error(err))
		return domain.WrapError(domain.ErrorCodeGatewayError, "cancel subscription", err)
	}

	if err := s.subscriptions.UpdateStatus(ctx, sub.ID, domain.SubscriptionCanceled); err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "mark subscription canceled", err)
	}

	s.logger.Info("subscription canceled", zap.String("subscription_id", sub.ID))
	return nil
}

// HandleChargeNotification records a recurring charge reported via IPN. The
// subscription is resolved by the remote subscription ID the notification
// carries.
func (s *Service) HandleChargeNotification(ctx context.Context, ipn *domain.IPN) error {
	if ipn.SubscriptionID == "" {
		return domain.ErrIPNMissingField.WithDetail("field", "subscriptionId")
	}

	sub, err := s.subscriptions.GetByRemoteID(ctx, ipn.SubscriptionID)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeIPNUnknownPayment, "resolve subscription", err).
			WithDetail("subscription_id", ipn.SubscriptionID)
	}

	if err := s.subscriptions.RecordCharge(ctx, sub.ID); err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "record subscription charge", err)
	}

	s.logger.Info("subscription charge recorded",
		zap.String("subscription_id", sub.ID),
		zap.String("amount", ipn.InvoiceAmount.String()))
	return nil
}
