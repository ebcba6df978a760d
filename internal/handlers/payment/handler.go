// Package payment exposes the payment and payment-method operations as a JSON
// HTTP API
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/commercekit/bluesnap-service/internal/domain/ports"
	paymentsvc "github.com/commercekit/bluesnap-service/internal/services/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the payment operations contract the handler fronts
type Service interface {
	CreatePayment(ctx context.Context, req *paymentsvc.CreateRequest) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	CapturePayment(ctx context.Context, paymentID string, amount *decimal.Decimal) (*domain.Payment, error)
	VoidPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	RefundPayment(ctx context.Context, paymentID string, amount *decimal.Decimal) (*paymentsvc.RefundResult, error)
	CreatePaymentMethod(ctx context.Context, methodType domain.PaymentMethodType, req *ports.CreatePaymentMethodRequest) (*ports.PaymentMethodResult, error)
	DeletePaymentMethod(ctx context.Context, methodType domain.PaymentMethodType, shopperID string, fingerprint domain.CardFingerprint) error
}

// Handler terminates the payment API
type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new payment API handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes mounts the payment endpoints on a chi router
func (h *Handler) Routes(r chi.Router) {
	r.Post("/payments", h.createPayment)
	r.Get("/payments/{id}", h.getPayment)
	r.Post("/payments/{id}/capture", h.capturePayment)
	r.Post("/payments/{id}/void", h.voidPayment)
	r.Post("/payments/{id}/refund", h.refundPayment)
	r.Post("/payment-methods", h.createPaymentMethod)
	r.Delete("/payment-methods", h.deletePaymentMethod)
}

type adjustmentPayload struct {
	Type       string  `json:"type" validate:"required,oneof=tax promotion shipping"`
	Amount     string  `json:"amount" validate:"required"`
	Percentage *string `json:"percentage,omitempty"`
	Included   bool    `json:"included"`
}

type orderItemPayload struct {
	ID          string              `json:"id" validate:"required"`
	Title       string              `json:"title"`
	Quantity    string              `json:"quantity" validate:"required"`
	UnitPrice   string              `json:"unitPrice" validate:"required"`
	TotalPrice  string              `json:"totalPrice" validate:"required"`
	SKU         string              `json:"sku"`
	DataLevel   *dataLevelPayload   `json:"dataLevel,omitempty"`
	Adjustments []adjustmentPayload `json:"adjustments,omitempty"`
}

type dataLevelPayload struct {
	Enabled bool   `json:"enabled"`
	Level   string `json:"level" validate:"omitempty,oneof=2 3"`
}

type shipmentPayload struct {
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}

type orderPayload struct {
	ID          string              `json:"id" validate:"required"`
	StoreID     string              `json:"storeId" validate:"required"`
	Currency    string              `json:"currency" validate:"required,len=3"`
	StoreData   *dataLevelPayload   `json:"storeData,omitempty"`
	Items       []orderItemPayload  `json:"items" validate:"required,min=1,dive"`
	Adjustments []adjustmentPayload `json:"adjustments,omitempty"`
	Shipments   []shipmentPayload   `json:"shipments,omitempty"`
}

type createPaymentPayload struct {
	Order      orderPayload `json:"order" validate:"required"`
	MethodType string       `json:"methodType" validate:"required,oneof=card ach"`
	CardType   string       `json:"cardType" validate:"omitempty,oneof=mastercard visa amex discover"`
	ShopperID  string       `json:"shopperId" validate:"required"`
	Amount     string       `json:"amount" validate:"required"`
	Capture    bool         `json:"capture"`
}

type amountPayload struct {
	Amount *string `json:"amount,omitempty"`
}

type paymentResponse struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	MethodType     string `json:"methodType"`
	State          string `json:"state"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	RemoteID       string `json:"remoteId,omitempty"`
	RefundedAmount string `json:"refundedAmount"`
	Message        string `json:"message,omitempty"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var payload createPaymentPayload
	if !h.decode(w, r, &payload) {
		return
	}

	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		h.writeError(w, domain.ErrValidationFailed.WithDetail("field", "amount"))
		return
	}
	order, err := toOrder(&payload.Order)
	if err != nil {
		h.writeError(w, err)
		return
	}

	p, err := h.service.CreatePayment(r.Context(), &paymentsvc.CreateRequest{
		Order:      order,
		MethodType: domain.PaymentMethodType(payload.MethodType),
		CardType:   domain.CardType(payload.CardType),
		ShopperID:  payload.ShopperID,
		Amount:     amount,
		Capture:    payload.Capture,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toPaymentResponse(p, ""))
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(p, ""))
}

func (h *Handler) capturePayment(w http.ResponseWriter, r *http.Request) {
	amount, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}

	p, err := h.service.CapturePayment(r.Context(), chi.URLParam(r, "id"), amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(p, ""))
}

func (h *Handler) voidPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.VoidPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(p, ""))
}

func (h *Handler) refundPayment(w http.ResponseWriter, r *http.Request) {
	amount, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}

	result, err := h.service.RefundPayment(r.Context(), chi.URLParam(r, "id"), amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(result.Payment, result.Message))
}

type billingContactPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

type cardPayload struct {
	LastFour        string `json:"lastFour" validate:"required,len=4,numeric"`
	CardType        string `json:"cardType" validate:"required,oneof=mastercard visa amex discover"`
	ExpirationMonth int    `json:"expirationMonth" validate:"required,min=1,max=12"`
	ExpirationYear  int    `json:"expirationYear" validate:"required,min=2000"`
}

type ecpPayload struct {
	RoutingNumber string `json:"routingNumber" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
	AccountType   string `json:"accountType" validate:"required,oneof=CONSUMER_CHECKING CONSUMER_SAVINGS CORPORATE_CHECKING CORPORATE_SAVINGS"`
}

type createMethodPayload struct {
	MethodType    string                 `json:"methodType" validate:"required,oneof=card ach"`
	OwnerID       string                 `json:"ownerId" validate:"required"`
	OwnerEmail    string                 `json:"ownerEmail" validate:"omitempty,email"`
	Authenticated bool                   `json:"authenticated"`
	Contact       *billingContactPayload `json:"billingContact,omitempty"`
	Card          *cardPayload           `json:"card,omitempty"`
	ECP           *ecpPayload            `json:"ecp,omitempty"`
}

type deleteMethodPayload struct {
	ShopperID       string `json:"shopperId" validate:"required"`
	LastFour        string `json:"lastFour" validate:"required,len=4,numeric"`
	ExpirationMonth int    `json:"expirationMonth" validate:"required,min=1,max=12"`
	ExpirationYear  int    `json:"expirationYear" validate:"required,min=2000"`
}

func (h *Handler) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var payload createMethodPayload
	if !h.decode(w, r, &payload) {
		return
	}

	req := &ports.CreatePaymentMethodRequest{
		Owner: &domain.Owner{
			ID:            payload.OwnerID,
			Email:         payload.OwnerEmail,
			Authenticated: payload.Authenticated,
		},
	}
	if payload.Contact != nil {
		req.Contact = &domain.BillingContact{
			FirstName: payload.Contact.FirstName,
			LastName:  payload.Contact.LastName,
			Email:     payload.Contact.Email,
			Zip:       payload.Contact.Zip,
			Country:   payload.Contact.Country,
		}
	}
	if payload.Card != nil {
		req.Card = &domain.CreditCardInfo{
			CreditCard: domain.CreditCard{
				CardLastFourDigits: payload.Card.LastFour,
				CardType:           domain.CardType(payload.Card.CardType),
				ExpirationMonth:    payload.Card.ExpirationMonth,
				ExpirationYear:     payload.Card.ExpirationYear,
			},
			BillingContact: req.Contact,
		}
	}
	if payload.ECP != nil {
		req.ECP = &domain.ECPInfo{
			ECP: domain.ECPDetails{
				RoutingNumber: payload.ECP.RoutingNumber,
				AccountNumber: payload.ECP.AccountNumber,
				AccountType:   domain.ECPAccountType(payload.ECP.AccountType),
			},
			BillingContact: req.Contact,
		}
	}

	result, err := h.service.CreatePaymentMethod(r.Context(), domain.PaymentMethodType(payload.MethodType), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"shopperId": result.ShopperID})
}

func (h *Handler) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var payload deleteMethodPayload
	if !h.decode(w, r, &payload) {
		return
	}

	err := h.service.DeletePaymentMethod(r.Context(), domain.PaymentMethodCard, payload.ShopperID, domain.CardFingerprint{
		LastFour:        payload.LastFour,
		ExpirationMonth: payload.ExpirationMonth,
		ExpirationYear:  payload.ExpirationYear,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode parses and validates a JSON request body, answering 400 on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		h.writeError(w, domain.WrapError(domain.ErrorCodeValidationFailed, "invalid request body", err))
		return false
	}
	if err := h.validate.Struct(payload); err != nil {
		h.writeError(w, domain.WrapError(domain.ErrorCodeValidationFailed, "request validation failed", err))
		return false
	}
	return true
}

func (h *Handler) decodeAmount(w http.ResponseWriter, r *http.Request) (*decimal.Decimal, bool) {
	var payload amountPayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			h.writeError(w, domain.WrapError(domain.ErrorCodeValidationFailed, "invalid request body", err))
			return nil, false
		}
	}
	if payload.Amount == nil {
		return nil, true
	}

	amount, err := decimal.NewFromString(*payload.Amount)
	if err != nil {
		h.writeError(w, domain.ErrValidationFailed.WithDetail("field", "amount"))
		return nil, false
	}
	return &amount, true
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
	case domain.ErrorCodePaymentNotFound, domain.ErrorCodeShopperNotFound:
		return http.StatusNotFound
	case domain.ErrorCodePaymentInvalidState, domain.ErrorCodePaymentRefundExcess:
		return http.StatusConflict
	case domain.ErrorCodeHardDecline, domain.ErrorCodeShopperFailure:
		return http.StatusPaymentRequired
	case domain.ErrorCodeGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toOrder(payload *orderPayload) (*domain.Order, error) {
	order := &domain.Order{
		ID:       payload.ID,
		StoreID:  payload.StoreID,
		Currency: payload.Currency,
	}
	if payload.StoreData != nil {
		order.StoreData = &domain.DataLevelSettings{
			Enabled: payload.StoreData.Enabled,
			Level:   domain.DataLevel(payload.StoreData.Level),
		}
	}

	for _, item := range payload.Items {
		converted, err := toOrderItem(&item)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, converted)
	}

	adjustments, err := toAdjustments(payload.Adjustments, payload.Currency)
	if err != nil {
		return nil, err
	}
	order.Adjustments = adjustments

	for _, shipment := range payload.Shipments {
		order.Shipments = append(order.Shipments, domain.Shipment{
			ShippingAddress: domain.Address{
				PostalCode:  shipment.PostalCode,
				CountryCode: shipment.CountryCode,
			},
		})
	}
	return order, nil
}

func toOrderItem(payload *orderItemPayload) (*domain.OrderItem, error) {
	quantity, err := decimal.NewFromString(payload.Quantity)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithDetail("field", "quantity")
	}
	unitPrice, err := decimal.NewFromString(payload.UnitPrice)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithDetail("field", "unitPrice")
	}
	totalPrice, err := decimal.NewFromString(payload.TotalPrice)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithDetail("field", "totalPrice")
	}

	item := &domain.OrderItem{
		ID:         payload.ID,
		Title:      payload.Title,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: totalPrice,
	}
	if payload.SKU != "" || payload.DataLevel != nil {
		item.PurchasedEntity = &domain.PurchasedEntity{SKU: payload.SKU}
		if payload.DataLevel != nil {
			item.PurchasedEntity.DataLevel = &domain.DataLevelSettings{
				Enabled: payload.DataLevel.Enabled,
				Level:   domain.DataLevel(payload.DataLevel.Level),
			}
		}
	}

	adjustments, err := toAdjustments(payload.Adjustments, "")
	if err != nil {
		return nil, err
	}
	item.Adjustments = adjustments
	return item, nil
}

func toAdjustments(payloads []adjustmentPayload, currency string) ([]domain.Adjustment, error) {
	var adjustments []domain.Adjustment
	for _, payload := range payloads {
		amount, err := decimal.NewFromString(payload.Amount)
		if err != nil {
			return nil, domain.ErrValidationFailed.WithDetail("field", "adjustments.amount")
		}
		adjustment := domain.Adjustment{
			Type:     domain.AdjustmentType(payload.Type),
			Amount:   amount,
			Currency: currency,
			Included: payload.Included,
		}
		if payload.Percentage != nil {
			percentage, err := decimal.NewFromString(*payload.Percentage)
			if err != nil {
				return nil, domain.ErrValidationFailed.WithDetail("field", "adjustments.percentage")
			}
			adjustment.Percentage = &percentage
		}
		adjustments = append(adjustments, adjustment)
	}
	return adjustments, nil
}

func toPaymentResponse(p *domain.Payment, message string) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		MethodType:     string(p.MethodType),
		State:          string(p.State),
		Amount:         p.Amount.String(),
		Currency:       p.Currency,
		RemoteID:       p.RemoteID,
		RefundedAmount: p.RefundedAmount.String(),
		Message:        message,
	}
}
