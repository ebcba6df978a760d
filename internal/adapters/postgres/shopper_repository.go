package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ShopperRepository implements ports.ShopperIDRepository. One row per
// authenticated owner; anonymous owners never reach this table.
type ShopperRepository struct {
	db *DB
}

// NewShopperRepository creates a new shopper ID repository
func NewShopperRepository(db *DB) *ShopperRepository {
	return &ShopperRepository{db: db}
}

// GetShopperID returns the stored vaulted shopper ID for an owner, or "" when
// the owner has none
func (r *ShopperRepository) GetShopperID(ctx context.Context, ownerID string) (string, error) {
	var shopperID string
	err := r.db.pool.QueryRow(ctx,
		"SELECT shopper_id FROM shopper_ids WHERE owner_id = $1", ownerID).Scan(&shopperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get shopper id: %w", err)
	}
	return shopperID, nil
}

// SetShopperID stores or replaces the owner's vaulted shopper ID
func (r *ShopperRepository) SetShopperID(ctx context.Context, ownerID, shopperID string) error {
	_, err := r.db.pool.Exec(ctx, `
INSERT INTO shopper_ids (owner_id, shopper_id, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (owner_id) DO UPDATE SET shopper_id = EXCLUDED.shopper_id, updated_at = now()`,
		ownerID, shopperID)
	if err != nil {
		return fmt.Errorf("set shopper id: %w", err)
	}
	return nil
}
