// Package subscription exposes the recurring subscription operations as a
// JSON HTTP API
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the subscription operations contract the handler fronts
type Service interface {
	Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	Cancel(ctx context.Context, id string) error
}

// Handler terminates the subscription API
type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new subscription API handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes mounts the subscription endpoints on a chi router
func (h *Handler) Routes(r chi.Router) {
	r.Post("/subscriptions", h.createSubscription)
	r.Post("/subscriptions/{id}/cancel", h.cancelSubscription)
}

type createSubscriptionPayload struct {
	ShopperID string `json:"shopperId" validate:"required"`
	Amount    string `json:"amount" validate:"required"`
	Currency  string `json:"currency" validate:"required,len=3"`
	Frequency string `json:"frequency" validate:"required,oneof=MONTHLY QUARTERLY ANNUALLY"`
}

type subscriptionResponse struct {
	ID        string `json:"id"`
	ShopperID string `json:"shopperId"`
	RemoteID  string `json:"remoteId"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Frequency string `json:"frequency"`
	Status    string `json:"status"`
}

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	var payload createSubscriptionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, domain.WrapError(domain.ErrorCodeValidationFailed, "invalid request body", err))
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.writeError(w, domain.WrapError(domain.ErrorCodeValidationFailed, "request validation failed", err))
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		h.writeError(w, domain.ErrValidationFailed.WithDetail("field", "amount"))
		return
	}

	sub, err := h.service.Create(r.Context(), &domain.Subscription{
		ShopperID: payload.ShopperID,
		Amount:    amount,
		Currency:  payload.Currency,
		Frequency: domain.ChargeFrequency(payload.Frequency),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, subscriptionResponse{
		ID:        sub.ID,
		ShopperID: sub.ShopperID,
		RemoteID:  sub.RemoteID,
		Amount:    sub.Amount.String(),
		Currency:  sub.Currency,
		Frequency: string(sub.Frequency),
		Status:    string(sub.Status),
	})
}

func (h *Handler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response failed", zap.Error(err))
	}
}

type errorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := domain.GetErrorCode(err)
	message := "internal server error"
	var details map[string]interface{}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		details = domainErr.Details
	}
	if code == "" {
		code = domain.ErrorCodeInternalError
	}

	h.writeJSON(w, statusForCode(code), errorResponse{
		Code:    string(code),
		Message: message,
		Details: details,
	})
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.ErrorCodeValidationFailed:
		return http.StatusBadRequest
	case domain.ErrorCodeSubscriptionNotFound:
		return http.StatusNotFound
	case domain.ErrorCodePaymentInvalidState:
		return http.StatusConflict
	case domain.ErrorCodeGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
