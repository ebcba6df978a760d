package domain

// Owner is the principal a payment method belongs to. Anonymous checkouts have
// Authenticated=false; their remote shopper IDs are never persisted across
// sessions.
type Owner struct {
	ID            string
	Email         string
	Authenticated bool
}

// ECPAccountType is the BlueSnap ECP account classification
type ECPAccountType string

const (
	ECPAccountConsumerChecking  ECPAccountType = "CONSUMER_CHECKING"
	ECPAccountConsumerSavings   ECPAccountType = "CONSUMER_SAVINGS"
	ECPAccountCorporateChecking ECPAccountType = "CORPORATE_CHECKING"
	ECPAccountCorporateSavings  ECPAccountType = "CORPORATE_SAVINGS"
)

// CardFingerprint identifies a stored card for deletion. BlueSnap does not
// return a remote card ID, so identity is the (last4, expMonth, expYear) tuple.
type CardFingerprint struct {
	LastFour        string
	ExpirationMonth int
	ExpirationYear  int
}

// Matches reports whether the fingerprint identifies the given stored card
func (f CardFingerprint) Matches(card *CreditCard) bool {
	return card != nil &&
		card.CardLastFourDigits == f.LastFour &&
		card.ExpirationMonth == f.ExpirationMonth &&
		card.ExpirationYear == f.ExpirationYear
}

// TruncateAccountNumber keeps the trailing digits of a bank account or routing
// number for display and matching. Full numbers are never persisted.
func TruncateAccountNumber(number string, keep int) string {
	if len(number) <= keep {
		return number
	}
	return number[len(number)-keep:]
}
