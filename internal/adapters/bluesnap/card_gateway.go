package bluesnap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/commercekit/bluesnap-service/internal/domain/ports"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CardGateway implements ports.PaymentGateway for credit card transactions.
// Payment-method storage is delegated to the shopper vault: BlueSnap stores
// cards on the vaulted shopper, not on individual transactions.
type CardGateway struct {
	client *Client
	vault  ports.ShopperVault
	logger *zap.Logger
}

// NewCardGateway creates a new card gateway
func NewCardGateway(client *Client, vault ports.ShopperVault, logger *zap.Logger) *CardGateway {
	return &CardGateway{
		client: client,
		vault:  vault,
		logger: logger,
	}
}

// CreatePayment creates an AUTH_ONLY or AUTH_CAPTURE card transaction against
// the shopper's vaulted card
func (g *CardGateway) CreatePayment(ctx context.Context, req *ports.CreatePaymentRequest) (*ports.PaymentResult, error) {
	txType := txTypeAuthOnly
	if req.Capture {
		txType = txTypeAuthCapture
	}

	body := &cardTransactionRequest{
		CardTransactionType: txType,
		Amount:              json.Number(req.Amount.String()),
		Currency:            req.Currency,
		VaultedShopperID:    req.ShopperID,
	}
	// A typed nil in the interface field would serialize as an explicit null.
	if req.EnhancedData.Level2Data != nil {
		body.Level2Data = req.EnhancedData.Level2Data
	}
	if req.EnhancedData.Level3Data != nil {
		body.Level3Data = req.EnhancedData.Level3Data
	}
	if req.FraudSessionID != "" {
		body.TransactionFraud = &transactionFraudInfo{FraudSessionID: req.FraudSessionID}
	}
	if len(req.Metadata) > 0 {
		body.MetaData = metaDataFrom(req.Metadata)
	}

	var resp cardTransactionResponse
	if err := g.client.do(ctx, http.MethodPost, "/services/2/transactions", body, &resp); err != nil {
		return nil, err
	}

	g.logger.Info("card transaction created",
		zap.String("transaction_id", resp.TransactionID),
		zap.String("type", txType))

	return &ports.PaymentResult{
		RemoteID:     resp.TransactionID,
		ResponseCode: resp.ProcessingInfo.ProcessingStatus,
	}, nil
}

// CapturePayment captures a previously authorized transaction
func (g *CardGateway) CapturePayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*ports.PaymentResult, error) {
	body := &cardTransactionRequest{
		CardTransactionType: txTypeCapture,
		TransactionID:       remoteID,
		Amount:              json.Number(amount.String()),
	}

	var resp cardTransactionResponse
	if err := g.client.do(ctx, http.MethodPut, "/services/2/transactions", body, &resp); err != nil {
		return nil, err
	}

	return &ports.PaymentResult{
		RemoteID:     resp.TransactionID,
		ResponseCode: resp.ProcessingInfo.ProcessingStatus,
	}, nil
}

// VoidPayment reverses an authorization that has not been captured
func (g *CardGateway) VoidPayment(ctx context.Context, remoteID string) (*ports.PaymentResult, error) {
	body := &cardTransactionRequest{
		CardTransactionType: txTypeAuthReversal,
		TransactionID:       remoteID,
	}

	var resp cardTransactionResponse
	if err := g.client.do(ctx, http.MethodPut, "/services/2/transactions", body, &resp); err != nil {
		return nil, err
	}

	return &ports.PaymentResult{RemoteID: resp.TransactionID}, nil
}

// RefundPayment refunds a captured transaction, fully or partially
func (g *CardGateway) RefundPayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*ports.PaymentResult, error) {
	path := fmt.Sprintf("/services/2/transactions/%s/refund", remoteID)
	body := &refundRequest{Amount: json.Number(amount.String())}

	if err := g.client.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return nil, err
	}

	return &ports.PaymentResult{RemoteID: remoteID}, nil
}

// CreatePaymentMethod stores a card on the owner's vaulted shopper
func (g *CardGateway) CreatePaymentMethod(ctx context.Context, req *ports.CreatePaymentMethodRequest) (*ports.PaymentMethodResult, error) {
	if req.Card == nil {
		return nil, domain.ErrValidationFailed.WithDetail("field", "card")
	}

	shopper := shopperFromRequest(req)
	shopper.PaymentSources.CreditCardInfo = append(shopper.PaymentSources.CreditCardInfo, *req.Card)

	shopperID, created, err := g.vault.CreateOrGetShopper(ctx, req.Owner, shopper)
	if err != nil {
		return nil, err
	}

	// An existing shopper came back without the new card; attach it.
	if !created {
		if err := g.vault.AddCard(ctx, shopperID, *req.Card); err != nil {
			return nil, err
		}
	}

	return &ports.PaymentMethodResult{ShopperID: shopperID}, nil
}

// DeletePaymentMethod removes the stored card identified by the fingerprint
func (g *CardGateway) DeletePaymentMethod(ctx context.Context, shopperID string, fingerprint domain.CardFingerprint) error {
	return g.vault.DeleteCard(ctx, shopperID, fingerprint)
}

// shopperFromRequest seeds a new vaulted shopper from the billing contact and
// owner identity
func shopperFromRequest(req *ports.CreatePaymentMethodRequest) *domain.VaultedShopper {
	shopper := &domain.VaultedShopper{}
	if req.Contact != nil {
		shopper.FirstName = req.Contact.FirstName
		shopper.LastName = req.Contact.LastName
		shopper.Email = req.Contact.Email
	}
	if shopper.Email == "" && req.Owner != nil {
		shopper.Email = req.Owner.Email
	}
	return shopper
}

func metaDataFrom(metadata map[string]string) *transactionMetaData {
	wire := &transactionMetaData{}
	for key, value := range metadata {
		wire.MetaData = append(wire.MetaData, metaDataEntry{MetaKey: key, MetaValue: value})
	}
	return wire
}
