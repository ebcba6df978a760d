package domain

// CreditCard is a card entry inside a vaulted shopper's payment sources
type CreditCard struct {
	CardLastFourDigits string
	CardType           CardType
	ExpirationMonth    int
	ExpirationYear     int
	// Status is set to "D" to soft-delete the card on the next shopper update
	Status string
}

// CreditCardInfo pairs a stored card with the billing contact BlueSnap expects
type CreditCardInfo struct {
	CreditCard     CreditCard
	BillingContact *BillingContact
}

// ECPDetails is an electronic check entry inside a vaulted shopper
type ECPDetails struct {
	RoutingNumber string
	AccountNumber string
	AccountType   ECPAccountType
}

// AccountLastFour returns the last four digits of the account number, the
// only part of it that may leave the gateway boundary
func (e *ECPDetails) AccountLastFour() string {
	return TruncateAccountNumber(e.AccountNumber, 4)
}

// RoutingLastFive returns the last five digits of the routing number
func (e *ECPDetails) RoutingLastFive() string {
	return TruncateAccountNumber(e.RoutingNumber, 5)
}

// ECPInfo pairs ECP details with the billing contact
type ECPInfo struct {
	ECP            ECPDetails
	BillingContact *BillingContact
}

// BillingContact is the minimal billing identity attached to a payment source
type BillingContact struct {
	FirstName string
	LastName  string
	Email     string
	Zip       string
	Country   string
}

// PaymentSources is a vaulted shopper's stored payment sources
type PaymentSources struct {
	CreditCardInfo []CreditCardInfo
	ECPInfo        []ECPInfo
}

// VaultedShopper is the remote customer record held by BlueSnap, keyed by an
// opaque shopper ID
type VaultedShopper struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	PaymentSources PaymentSources
}

// FindCard returns the first active stored card matching the fingerprint, or
// nil when no card matches
func (v *VaultedShopper) FindCard(fp CardFingerprint) *CreditCard {
	for i := range v.PaymentSources.CreditCardInfo {
		card := &v.PaymentSources.CreditCardInfo[i].CreditCard
		if card.Status != "D" && fp.Matches(card) {
			return card
		}
	}
	return nil
}
