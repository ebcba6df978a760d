package bluesnap

import (
	"encoding/json"

	"github.com/commercekit/bluesnap-service/internal/domain"
)

// Card transaction types accepted by POST/PUT /services/2/transactions
const (
	txTypeAuthOnly     = "AUTH_ONLY"
	txTypeAuthCapture  = "AUTH_CAPTURE"
	txTypeCapture      = "CAPTURE"
	txTypeAuthReversal = "AUTH_REVERSAL"
)

type metaDataEntry struct {
	MetaKey   string `json:"metaKey"`
	MetaValue string `json:"metaValue"`
}

type transactionMetaData struct {
	MetaData []metaDataEntry `json:"metaData"`
}

type transactionFraudInfo struct {
	FraudSessionID string `json:"fraudSessionId,omitempty"`
}

// cardTransactionRequest is the request body for card transactions. The
// enhanced data levels are flattened into the transaction object, matching
// BlueSnap's schema.
type cardTransactionRequest struct {
	CardTransactionType string                `json:"cardTransactionType"`
	TransactionID       string                `json:"transactionId,omitempty"`
	Amount              json.Number           `json:"amount,omitempty"`
	Currency            string                `json:"currency,omitempty"`
	VaultedShopperID    string                `json:"vaultedShopperId,omitempty"`
	TransactionFraud    *transactionFraudInfo `json:"transactionFraudInfo,omitempty"`
	MetaData            *transactionMetaData  `json:"transactionMetaData,omitempty"`

	Level2Data interface{} `json:"level2Data,omitempty"`
	Level3Data interface{} `json:"level3Data,omitempty"`
}

type processingInfo struct {
	ProcessingStatus string `json:"processingStatus"`
}

type cardTransactionResponse struct {
	TransactionID  string         `json:"transactionId"`
	Amount         json.Number    `json:"amount"`
	Currency       string         `json:"currency"`
	ProcessingInfo processingInfo `json:"processingInfo"`
}

type refundRequest struct {
	Amount json.Number `json:"amount,omitempty"`
}

// ecpWire mirrors BlueSnap's ecpTransaction object
type ecpWire struct {
	RoutingNumber string `json:"routingNumber,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountType   string `json:"accountType,omitempty"`
}

// altTransactionRequest is the request body for ECP (ACH) transactions posted
// to /services/2/alt-transactions
type altTransactionRequest struct {
	Amount              json.Number          `json:"amount,omitempty"`
	Currency            string               `json:"currency,omitempty"`
	VaultedShopperID    string               `json:"vaultedShopperId,omitempty"`
	ECPTransaction      *ecpWire             `json:"ecpTransaction,omitempty"`
	AuthorizedByShopper bool                 `json:"authorizedByShopper"`
	MetaData            *transactionMetaData `json:"transactionMetaData,omitempty"`
}

type altTransactionResponse struct {
	TransactionID  string         `json:"transactionId"`
	Amount         json.Number    `json:"amount"`
	Currency       string         `json:"currency"`
	ProcessingInfo processingInfo `json:"processingInfo"`
}

// Vaulted shopper wire types

type creditCardWire struct {
	CardLastFourDigits string `json:"cardLastFourDigits,omitempty"`
	CardType           string `json:"cardType,omitempty"`
	ExpirationMonth    int    `json:"expirationMonth,omitempty"`
	ExpirationYear     int    `json:"expirationYear,omitempty"`
	Status             string `json:"status,omitempty"`
}

type billingContactWire struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
}

type creditCardInfoWire struct {
	CreditCard     creditCardWire      `json:"creditCard"`
	BillingContact *billingContactWire `json:"billingContactInfo,omitempty"`
}

type ecpDetailsWire struct {
	RoutingNumber string `json:"routingNumber,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountType   string `json:"accountType,omitempty"`
}

type ecpInfoWire struct {
	ECP            ecpDetailsWire      `json:"ecp"`
	BillingContact *billingContactWire `json:"billingContactInfo,omitempty"`
}

type paymentSourcesWire struct {
	CreditCardInfo []creditCardInfoWire `json:"creditCardInfo,omitempty"`
	ECPInfo        []ecpInfoWire        `json:"ecpInfo,omitempty"`
}

type vaultedShopperWire struct {
	VaultedShopperID json.Number         `json:"vaultedShopperId,omitempty"`
	FirstName        string              `json:"firstName,omitempty"`
	LastName         string              `json:"lastName,omitempty"`
	Email            string              `json:"email,omitempty"`
	PaymentSources   *paymentSourcesWire `json:"paymentSources,omitempty"`
}

func toShopperWire(s *domain.VaultedShopper) *vaultedShopperWire {
	wire := &vaultedShopperWire{
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
	}

	sources := &paymentSourcesWire{}
	for _, info := range s.PaymentSources.CreditCardInfo {
		sources.CreditCardInfo = append(sources.CreditCardInfo, creditCardInfoWire{
			CreditCard: creditCardWire{
				CardLastFourDigits: info.CreditCard.CardLastFourDigits,
				CardType:           string(info.CreditCard.CardType),
				ExpirationMonth:    info.CreditCard.ExpirationMonth,
				ExpirationYear:     info.CreditCard.ExpirationYear,
				Status:             info.CreditCard.Status,
			},
			BillingContact: toContactWire(info.BillingContact),
		})
	}
	for _, info := range s.PaymentSources.ECPInfo {
		sources.ECPInfo = append(sources.ECPInfo, ecpInfoWire{
			ECP: ecpDetailsWire{
				RoutingNumber: info.ECP.RoutingNumber,
				AccountNumber: info.ECP.AccountNumber,
				AccountType:   string(info.ECP.AccountType),
			},
			BillingContact: toContactWire(info.BillingContact),
		})
	}
	if len(sources.CreditCardInfo) > 0 || len(sources.ECPInfo) > 0 {
		wire.PaymentSources = sources
	}

	return wire
}

func toContactWire(c *domain.BillingContact) *billingContactWire {
	if c == nil {
		return nil
	}
	return &billingContactWire{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Zip:       c.Zip,
		Country:   c.Country,
	}
}

func fromShopperWire(wire *vaultedShopperWire) *domain.VaultedShopper {
	shopper := &domain.VaultedShopper{
		ID:        wire.VaultedShopperID.String(),
		FirstName: wire.FirstName,
		LastName:  wire.LastName,
		Email:     wire.Email,
	}

	if wire.PaymentSources == nil {
		return shopper
	}
	for _, info := range wire.PaymentSources.CreditCardInfo {
		shopper.PaymentSources.CreditCardInfo = append(shopper.PaymentSources.CreditCardInfo, domain.CreditCardInfo{
			CreditCard: domain.CreditCard{
				CardLastFourDigits: info.CreditCard.CardLastFourDigits,
				CardType:           domain.CardType(info.CreditCard.CardType),
				ExpirationMonth:    info.CreditCard.ExpirationMonth,
				ExpirationYear:     info.CreditCard.ExpirationYear,
				Status:             info.CreditCard.Status,
			},
			BillingContact: fromContactWire(info.BillingContact),
		})
	}
	for _, info := range wire.PaymentSources.ECPInfo {
		shopper.PaymentSources.ECPInfo = append(shopper.PaymentSources.ECPInfo, domain.ECPInfo{
			ECP: domain.ECPDetails{
				RoutingNumber: info.ECP.RoutingNumber,
				AccountNumber: info.ECP.AccountNumber,
				AccountType:   domain.ECPAccountType(info.ECP.AccountType),
			},
			BillingContact: fromContactWire(info.BillingContact),
		})
	}

	return shopper
}

func fromContactWire(c *billingContactWire) *domain.BillingContact {
	if c == nil {
		return nil
	}
	return &domain.BillingContact{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Zip:       c.Zip,
		Country:   c.Country,
	}
}

// Recurring subscription wire types

type subscriptionRequest struct {
	PlanID           string      `json:"planId,omitempty"`
	VaultedShopperID string      `json:"vaultedShopperId,omitempty"`
	Amount           json.Number `json:"amount,omitempty"`
	Currency         string      `json:"currency,omitempty"`
	ChargeFrequency  string      `json:"chargeFrequency,omitempty"`
	Status           string      `json:"status,omitempty"`
}

type subscriptionResponse struct {
	SubscriptionID json.Number `json:"subscriptionId"`
	Status         string      `json:"status"`
}
