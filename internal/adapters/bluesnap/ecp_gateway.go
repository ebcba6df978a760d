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

// EcpGateway implements ports.PaymentGateway for ECP (ACH) transactions. ECP
// debits always settle asynchronously: the create call only submits the debit
// and the IPN round-trip confirms or returns it.
type EcpGateway struct {
	client *Client
	vault  ports.ShopperVault
	logger *zap.Logger
}

// NewEcpGateway creates a new ECP gateway
func NewEcpGateway(client *Client, vault ports.ShopperVault, logger *zap.Logger) *EcpGateway {
	return &EcpGateway{
		client: client,
		vault:  vault,
		logger: logger,
	}
}

// CreatePayment submits an ECP debit against the shopper's stored bank
// account. The result always reports Processing: settlement confirmation
// arrives via IPN.
func (g *EcpGateway) CreatePayment(ctx context.Context, req *ports.CreatePaymentRequest) (*ports.PaymentResult, error) {
	body := &altTransactionRequest{
		Amount:              json.Number(req.Amount.String()),
		Currency:            req.Currency,
		VaultedShopperID:    req.ShopperID,
		AuthorizedByShopper: true,
	}
	if len(req.Metadata) > 0 {
		body.MetaData = metaDataFrom(req.Metadata)
	}

	var resp altTransactionResponse
	if err := g.client.do(ctx, http.MethodPost, "/services/2/alt-transactions", body, &resp); err != nil {
		return nil, err
	}

	g.logger.Info("ecp transaction submitted",
		zap.String("transaction_id", resp.TransactionID),
		zap.String("processing_status", resp.ProcessingInfo.ProcessingStatus))

	return &ports.PaymentResult{
		RemoteID:     resp.TransactionID,
		Processing:   true,
		ResponseCode: resp.ProcessingInfo.ProcessingStatus,
	}, nil
}

// CapturePayment is a local acknowledgement for ECP. The debit was already
// submitted in full at creation; there is no remote capture call.
func (g *EcpGateway) CapturePayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*ports.PaymentResult, error) {
	return &ports.PaymentResult{RemoteID: remoteID}, nil
}

// VoidPayment cancels a submitted ECP debit before it settles
func (g *EcpGateway) VoidPayment(ctx context.Context, remoteID string) (*ports.PaymentResult, error) {
	path := fmt.Sprintf("/services/2/alt-transactions/%s/cancel", remoteID)
	if err := g.client.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return nil, err
	}
	return &ports.PaymentResult{RemoteID: remoteID}, nil
}

// RefundPayment refunds a settled ECP debit
func (g *EcpGateway) RefundPayment(ctx context.Context, remoteID string, amount decimal.Decimal) (*ports.PaymentResult, error) {
	path := fmt.Sprintf("/services/2/alt-transactions/%s/refund", remoteID)
	body := &refundRequest{Amount: json.Number(amount.String())}

	if err := g.client.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return nil, err
	}
	return &ports.PaymentResult{RemoteID: remoteID}, nil
}

// CreatePaymentMethod stores an ECP source on the owner's vaulted shopper
func (g *EcpGateway) CreatePaymentMethod(ctx context.Context, req *ports.CreatePaymentMethodRequest) (*ports.PaymentMethodResult, error) {
	if req.ECP == nil {
		return nil, domain.ErrValidationFailed.WithDetail("field", "ecp")
	}

	shopper := shopperFromRequest(req)
	shopper.PaymentSources.ECPInfo = append(shopper.PaymentSources.ECPInfo, *req.ECP)

	shopperID, created, err := g.vault.CreateOrGetShopper(ctx, req.Owner, shopper)
	if err != nil {
		return nil, err
	}

	if !created {
		if err := g.vault.AddECP(ctx, shopperID, *req.ECP); err != nil {
			return nil, err
		}
	}

	g.logger.Info("ecp source stored",
		zap.String("shopper_id", shopperID),
		zap.String("account", req.ECP.ECP.AccountLastFour()),
		zap.String("routing", req.ECP.ECP.RoutingLastFive()))

	return &ports.PaymentMethodResult{ShopperID: shopperID}, nil
}

// DeletePaymentMethod is not supported for ECP sources: BlueSnap exposes no
// per-source deletion for bank accounts, only card soft deletes
func (g *EcpGateway) DeletePaymentMethod(ctx context.Context, shopperID string, fingerprint domain.CardFingerprint) error {
	return domain.ErrValidationFailed.WithDetail("reason", "ecp sources cannot be deleted remotely")
}
