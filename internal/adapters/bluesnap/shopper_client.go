package bluesnap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/commercekit/bluesnap-service/internal/domain"
)

// ShopperClient implements ports.VaultedShopperClient against BlueSnap's
// vaulted shopper API. Updates replace the whole remote shopper object.
type ShopperClient struct {
	client *Client
}

// NewShopperClient creates a new vaulted shopper client
func NewShopperClient(client *Client) *ShopperClient {
	return &ShopperClient{client: client}
}

// CreateVaultedShopper creates a remote shopper with its payment sources.
// BlueSnap verifies every submitted source during creation.
func (s *ShopperClient) CreateVaultedShopper(ctx context.Context, shopper *domain.VaultedShopper) (*domain.VaultedShopper, error) {
	var resp vaultedShopperWire
	if err := s.client.do(ctx, http.MethodPost, "/services/2/vaulted-shoppers", toShopperWire(shopper), &resp); err != nil {
		return nil, err
	}
	return fromShopperWire(&resp), nil
}

// GetVaultedShopper fetches the remote shopper by ID
func (s *ShopperClient) GetVaultedShopper(ctx context.Context, shopperID string) (*domain.VaultedShopper, error) {
	var resp vaultedShopperWire
	path := fmt.Sprintf("/services/2/vaulted-shoppers/%s", shopperID)
	if err := s.client.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return fromShopperWire(&resp), nil
}

// UpdateVaultedShopper pushes the whole shopper object back. Last writer wins;
// callers serialize concurrent updates of the same shopper.
func (s *ShopperClient) UpdateVaultedShopper(ctx context.Context, shopperID string, shopper *domain.VaultedShopper) (*domain.VaultedShopper, error) {
	var resp vaultedShopperWire
	path := fmt.Sprintf("/services/2/vaulted-shoppers/%s", shopperID)
	if err := s.client.do(ctx, http.MethodPut, path, toShopperWire(shopper), &resp); err != nil {
		return nil, err
	}
	return fromShopperWire(&resp), nil
}
