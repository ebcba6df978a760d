package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// SubscriptionRepository implements ports.SubscriptionRepository
type SubscriptionRepository struct {
	db *DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a new subscription record
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	_, err := r.db.pool.Exec(ctx, `
INSERT INTO subscriptions (id, shopper_id, remote_id, amount, currency, frequency, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sub.ID, sub.ShopperID, sub.RemoteID, sub.Amount.String(), sub.Currency,
		string(sub.Frequency), string(sub.Status), sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

const selectSubscription = `
SELECT id, shopper_id, remote_id, amount, currency, frequency, status, last_charged_at, created_at, updated_at
FROM subscriptions `

// GetByID retrieves a subscription by its local ID
func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, selectSubscription+"WHERE id = $1", id))
}

// GetByRemoteID retrieves a subscription by its BlueSnap subscription ID
func (r *SubscriptionRepository) GetByRemoteID(ctx context.Context, remoteID string) (*domain.Subscription, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, selectSubscription+"WHERE remote_id = $1", remoteID))
}

func (r *SubscriptionRepository) scanOne(row pgx.Row) (*domain.Subscription, error) {
	var (
		sub       domain.Subscription
		amount    string
		frequency string
		status    string
	)
	err := row.Scan(&sub.ID, &sub.ShopperID, &sub.RemoteID, &amount, &sub.Currency,
		&frequency, &status, &sub.LastChargedAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}

	sub.Frequency = domain.ChargeFrequency(frequency)
	sub.Status = domain.SubscriptionStatus(status)
	if sub.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	return &sub, nil
}

// UpdateStatus sets the subscription's lifecycle status
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	tag, err := r.db.pool.Exec(ctx,
		"UPDATE subscriptions SET status = $1, updated_at = now() WHERE id = $2",
		string(status), id)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound.WithDetail("subscription_id", id)
	}
	return nil
}

// RecordCharge stamps the subscription with the time of its latest recurring charge
func (r *SubscriptionRepository) RecordCharge(ctx context.Context, id string) error {
	_, err := r.db.pool.Exec(ctx,
		"UPDATE subscriptions SET last_charged_at = now(), updated_at = now() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("record subscription charge: %w", err)
	}
	return nil
}
