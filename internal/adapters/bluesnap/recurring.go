package bluesnap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/commercekit/bluesnap-service/internal/domain"
)

// RecurringClient implements ports.SubscriptionGateway against BlueSnap's
// recurring subscriptions API
type RecurringClient struct {
	client *Client
}

// NewRecurringClient creates a new recurring subscriptions client
func NewRecurringClient(client *Client) *RecurringClient {
	return &RecurringClient{client: client}
}

// CreateSubscription registers a recurring charge against a vaulted shopper
func (r *RecurringClient) CreateSubscription(ctx context.Context, sub *domain.Subscription) (string, error) {
	body := &subscriptionRequest{
		VaultedShopperID: sub.ShopperID,
		Amount:           json.Number(sub.Amount.String()),
		Currency:         sub.Currency,
		ChargeFrequency:  string(sub.Frequency),
	}

	var resp subscriptionResponse
	if err := r.client.do(ctx, http.MethodPost, "/services/2/recurring/subscriptions", body, &resp); err != nil {
		return "", err
	}
	return resp.SubscriptionID.String(), nil
}

// CancelSubscription cancels an active subscription
func (r *RecurringClient) CancelSubscription(ctx context.Context, remoteID string) error {
	path := fmt.Sprintf("/services/2/recurring/subscriptions/%s", remoteID)
	body := &subscriptionRequest{Status: "CANCELED"}
	return r.client.do(ctx, http.MethodPut, path, body, nil)
}
