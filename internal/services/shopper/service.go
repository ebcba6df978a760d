// Package shopper manages BlueSnap vaulted shoppers. A vaulted shopper holds
// every stored payment source for one customer; updates push the whole object
// back, so mutations here are read-modify-write against the remote record.
package shopper

import (
	"context"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/commercekit/bluesnap-service/internal/domain/ports"
	"go.uber.org/zap"
)

// Manager implements ports.ShopperVault on top of the raw vaulted shopper API
// and a local shopper-ID store for authenticated owners
type Manager struct {
	client     ports.VaultedShopperClient
	shopperIDs ports.ShopperIDRepository
	logger     *zap.Logger
}

// NewManager creates a new vaulted shopper manager
func NewManager(client ports.VaultedShopperClient, shopperIDs ports.ShopperIDRepository, logger *zap.Logger) *Manager {
	return &Manager{
		client:     client,
		shopperIDs: shopperIDs,
		logger:     logger,
	}
}

// CreateOrGetShopper resolves the vaulted shopper for an owner, creating one
// remotely when none exists. Authenticated owners get their shopper ID stored
// for reuse; anonymous owners get a throwaway shopper that is never recorded.
func (m *Manager) CreateOrGetShopper(ctx context.Context, owner *domain.Owner, shopper *domain.VaultedShopper) (string, bool, error) {
	if owner != nil && owner.Authenticated {
		shopperID, err := m.shopperIDs.GetShopperID(ctx, owner.ID)
		if err != nil {
			return "", false, domain.WrapError(domain.ErrorCodeDatabaseError, "look up stored shopper ID", err)
		}
		if shopperID != "" {
			return shopperID, false, nil
		}
	}

	created, err := m.client.CreateVaultedShopper(ctx, shopper)
	if err != nil {
		// Creation failures mean the payment details did not verify. The
		// shopper-facing message never exposes the processor response.
		m.logger.Warn("vaulted shopper creation rejected", zap.Error(err))
		return "", false, domain.WrapError(domain.ErrorCodeShopperFailure, domain.ErrShopperVerification.Message, err)
	}

	if owner != nil && owner.Authenticated {
		if err := m.shopperIDs.SetShopperID(ctx, owner.ID, created.ID); err != nil {
			return "", false, domain.WrapError(domain.ErrorCodeDatabaseError, "store shopper ID", err)
		}
	}

	m.logger.Info("vaulted shopper created",
		zap.String("shopper_id", created.ID),
		zap.Bool("authenticated", owner != nil && owner.Authenticated))

	return created.ID, true, nil
}

// AddCard appends a card to an existing vaulted shopper
func (m *Manager) AddCard(ctx context.Context, shopperID string, card domain.CreditCardInfo) error {
	shopper, err := m.getShopper(ctx, shopperID)
	if err != nil {
		return err
	}

	shopper.PaymentSources.CreditCardInfo = append(shopper.PaymentSources.CreditCardInfo, card)

	if err := m.updateShopper(ctx, shopper); err != nil {
		// Adding a source runs card verification remotely, so a rejected
		// update is a verification failure, not an infrastructure error.
		m.logger.Warn("card rejected by vault update",
			zap.String("shopper_id", shopperID),
			zap.Error(err))
		return domain.WrapError(domain.ErrorCodeShopperFailure, domain.ErrShopperVerification.Message, err)
	}

	m.logger.Info("card added to vaulted shopper", zap.String("shopper_id", shopperID))
	return nil
}

// AddECP appends an electronic check source to an existing vaulted shopper
func (m *Manager) AddECP(ctx context.Context, shopperID string, ecp domain.ECPInfo) error {
	shopper, err := m.getShopper(ctx, shopperID)
	if err != nil {
		return err
	}

	shopper.PaymentSources.ECPInfo = append(shopper.PaymentSources.ECPInfo, ecp)

	if err := m.updateShopper(ctx, shopper); err != nil {
		m.logger.Warn("ecp rejected by vault update",
			zap.String("shopper_id", shopperID),
			zap.Error(err))
		return domain.WrapError(domain.ErrorCodeShopperFailure, domain.ErrShopperVerification.Message, err)
	}

	m.logger.Info("ecp added to vaulted shopper", zap.String("shopper_id", shopperID))
	return nil
}

// DeleteCard soft-deletes the stored card matching the fingerprint. No card ID
// comes back from the vault, so the card is located by its (last4, expiration)
// tuple. A fingerprint with no match is a no-op: the card is already gone and
// no remote call is made.
func (m *Manager) DeleteCard(ctx context.Context, shopperID string, fingerprint domain.CardFingerprint) error {
	shopper, err := m.getShopper(ctx, shopperID)
	if err != nil {
		return err
	}

	card := shopper.FindCard(fingerprint)
	if card == nil {
		m.logger.Info("card already absent from vaulted shopper",
			zap.String("shopper_id", shopperID),
			zap.String("last_four", fingerprint.LastFour))
		return nil
	}

	card.Status = "D"

	if err := m.updateShopper(ctx, shopper); err != nil {
		return domain.WrapError(domain.ErrorCodeGatewayError, "delete stored card", err).
			WithDetail("shopper_id", shopperID)
	}

	m.logger.Info("card removed from vaulted shopper",
		zap.String("shopper_id", shopperID),
		zap.String("last_four", fingerprint.LastFour))
	return nil
}

func (m *Manager) getShopper(ctx context.Context, shopperID string) (*domain.VaultedShopper, error) {
	shopper, err := m.client.GetVaultedShopper(ctx, shopperID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeShopperNotFound, "get vaulted shopper", err).
			WithDetail("shopper_id", shopperID)
	}
	return shopper, nil
}

func (m *Manager) updateShopper(ctx context.Context, shopper *domain.VaultedShopper) error {
	_, err := m.client.UpdateVaultedShopper(ctx, shopper.ID, shopper)
	return err
}
