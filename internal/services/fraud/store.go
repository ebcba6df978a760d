// Package fraud issues the per-checkout session IDs BlueSnap's fraud
// prevention iframe and transaction payloads share. Sessions are keyed by
// order so the server-side transaction carries the same ID the shopper's
// browser reported to the fraud service.
package fraud

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long an unused checkout session stays resolvable
const DefaultTTL = 30 * time.Minute

type entry struct {
	sessionID string
	expiresAt time.Time
}

// Store is an in-memory per-checkout session store with a TTL and an explicit
// removal point on successful payment completion
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a session store. A non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SessionID returns the fraud session ID for a checkout, creating one when the
// checkout has none or its previous session expired
func (s *Store) SessionID(orderID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[orderID]; ok && s.now().Before(e.expiresAt) {
		return e.sessionID
	}

	// BlueSnap requires up to 32 characters; a dash-free UUID fits exactly.
	id := uuid.NewString()
	id = id[0:8] + id[9:13] + id[14:18] + id[19:23] + id[24:]
	s.entries[orderID] = entry{
		sessionID: id,
		expiresAt: s.now().Add(s.ttl),
	}
	return id
}

// Clear removes the checkout's session. Called on successful payment
// completion so the ID is never reused for another transaction.
func (s *Store) Clear(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, orderID)
}

// Sweep drops expired sessions and reports how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
