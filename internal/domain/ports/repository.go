package ports

import (
	"context"

	"github.com/commercekit/bluesnap-service/internal/domain"
)

// PaymentRepository persists local payment records and applies state-machine
// transition intents
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	// GetByRemoteID resolves the payment an IPN refers to via its
	// referenceNumber field
	GetByRemoteID(ctx context.Context, remoteID string) (*domain.Payment, error)
	ApplyTransition(ctx context.Context, intent domain.TransitionIntent) error
}

// ShopperIDRepository stores the remote vaulted shopper ID for authenticated
// owners. Anonymous owners are never recorded here.
type ShopperIDRepository interface {
	// GetShopperID returns the stored shopper ID for an owner, or "" when none
	GetShopperID(ctx context.Context, ownerID string) (string, error)
	SetShopperID(ctx context.Context, ownerID, shopperID string) error
}

// SubscriptionRepository persists local subscription records
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
	GetByRemoteID(ctx context.Context, remoteID string) (*domain.Subscription, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error
	RecordCharge(ctx context.Context, id string) error
}
