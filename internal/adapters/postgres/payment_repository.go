package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentRepository implements ports.PaymentRepository
type PaymentRepository struct {
	db *DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const insertPayment = `
INSERT INTO payments (id, order_id, store_id, method_type, state, amount, currency, remote_id, refunded_amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Create inserts a new payment record
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.pool.Exec(ctx, insertPayment,
		p.ID, p.OrderID, p.StoreID, string(p.MethodType), string(p.State),
		p.Amount.String(), p.Currency, p.RemoteID, p.RefundedAmount.String(),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

const selectPayment = `
SELECT id, order_id, store_id, method_type, state, amount, currency, remote_id, refunded_amount, created_at, updated_at
FROM payments `

// GetByID retrieves a payment by its local ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, selectPayment+"WHERE id = $1", id))
}

// GetByRemoteID retrieves the payment holding a BlueSnap transaction ID
func (r *PaymentRepository) GetByRemoteID(ctx context.Context, remoteID string) (*domain.Payment, error) {
	return r.scanOne(r.db.pool.QueryRow(ctx, selectPayment+"WHERE remote_id = $1", remoteID))
}

// ApplyTransition persists a state-machine transition intent. Only the fields
// the intent carries are written; everything else stays untouched.
func (r *PaymentRepository) ApplyTransition(ctx context.Context, intent domain.TransitionIntent) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := "UPDATE payments SET state = $1, updated_at = $2"
		args := []interface{}{string(intent.ToState), time.Now()}

		if intent.RemoteID != "" {
			args = append(args, intent.RemoteID)
			query += fmt.Sprintf(", remote_id = $%d", len(args))
		}
		if intent.Amount != nil {
			args = append(args, intent.Amount.String())
			query += fmt.Sprintf(", amount = $%d", len(args))
		}
		if intent.RefundedAmount != nil {
			args = append(args, intent.RefundedAmount.String())
			query += fmt.Sprintf(", refunded_amount = $%d", len(args))
		}

		args = append(args, intent.PaymentID)
		query += fmt.Sprintf(" WHERE id = $%d", len(args))

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("apply transition: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPaymentNotFound.WithDetail("payment_id", intent.PaymentID)
		}
		return nil
	})
}

func (r *PaymentRepository) scanOne(row pgx.Row) (*domain.Payment, error) {
	var (
		p              domain.Payment
		methodType     string
		state          string
		amount         string
		refundedAmount string
	)
	err := row.Scan(&p.ID, &p.OrderID, &p.StoreID, &methodType, &state,
		&amount, &p.Currency, &p.RemoteID, &refundedAmount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	p.MethodType = domain.PaymentMethodType(methodType)
	p.State = domain.PaymentState(state)
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if p.RefundedAmount, err = decimal.NewFromString(refundedAmount); err != nil {
		return nil, fmt.Errorf("parse refunded amount: %w", err)
	}
	return &p, nil
}
