package ports

import (
	"context"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/commercekit/bluesnap-service/internal/enhanceddata"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest carries everything a gateway variant needs to create a
// remote transaction
type CreatePaymentRequest struct {
	Amount    decimal.Decimal
	Currency  string
	ShopperID string
	CardType  domain.CardType
	// Capture requests auth+capture in one step; false is auth-only. ACH
	// variants ignore it (ECP debits always settle asynchronously).
	Capture        bool
	EnhancedData   enhanceddata.Payload
	FraudSessionID string
	Metadata       map[string]string
}

// PaymentResult is the gateway's view of a completed remote call
type PaymentResult struct {
	RemoteID string
	// Processing is true when the processor accepted the transaction but has
	// not settled it yet (ACH debits); final confirmation arrives via IPN
	Processing   bool
	ResponseCode string
	Message      string
}

// CreatePaymentMethodRequest stores a new payment source for an owner
type CreatePaymentMethodRequest struct {
	Owner   *domain.Owner
	Contact *domain.BillingContact
	Card    *domain.CreditCardInfo
	ECP     *domain.ECPInfo
}

// PaymentMethodResult reports the vaulted shopper the source was stored under
type PaymentMethodResult struct {
	ShopperID string
}

// PaymentGateway is the single polymorphic capability interface every payment
// method family implements. Card, hosted-fields and ECP/ACH variants share the
// state-machine helper by composition; callers never branch on the variant.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentResult, error)
	CapturePayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*PaymentResult, error)
	VoidPayment(ctx context.Context, remoteID string) (*PaymentResult, error)
	RefundPayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*PaymentResult, error)
	CreatePaymentMethod(ctx context.Context, req *CreatePaymentMethodRequest) (*PaymentMethodResult, error)
	DeletePaymentMethod(ctx context.Context, shopperID string, fingerprint domain.CardFingerprint) error
}

// VaultedShopperClient is the raw remote contract for BlueSnap's vaulted
// shopper API. Updates push the whole shopper object back (last-writer-wins);
// concurrent mutation of the same shopper is a documented race the caller
// serializes when operating at scale.
type VaultedShopperClient interface {
	CreateVaultedShopper(ctx context.Context, shopper *domain.VaultedShopper) (*domain.VaultedShopper, error)
	GetVaultedShopper(ctx context.Context, shopperID string) (*domain.VaultedShopper, error)
	UpdateVaultedShopper(ctx context.Context, shopperID string, shopper *domain.VaultedShopper) (*domain.VaultedShopper, error)
}

// ShopperVault is the vaulted-shopper management port the gateway variants
// delegate payment-method storage to
type ShopperVault interface {
	// CreateOrGetShopper resolves the owner's vaulted shopper. created reports
	// whether the given shopper object was stored remotely (payment sources
	// included) or an existing shopper was reused and still needs the source
	// attached.
	CreateOrGetShopper(ctx context.Context, owner *domain.Owner, shopper *domain.VaultedShopper) (shopperID string, created bool, err error)
	AddCard(ctx context.Context, shopperID string, card domain.CreditCardInfo) error
	AddECP(ctx context.Context, shopperID string, ecp domain.ECPInfo) error
	DeleteCard(ctx context.Context, shopperID string, fingerprint domain.CardFingerprint) error
}

// SubscriptionGateway is the remote contract for BlueSnap's recurring API
type SubscriptionGateway interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (remoteID string, err error)
	CancelSubscription(ctx context.Context, remoteID string) error
}
