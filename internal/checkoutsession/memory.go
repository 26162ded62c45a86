package checkoutsession

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

// MemoryStore is an in-process Store used by tests and local tooling.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]*Session)}
}

// Get returns a copy of the buyer's session, or a fresh idle one.
func (m *MemoryStore) Get(ctx context.Context, buyerID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[buyerID]
	if !ok {
		return NewSession(), nil
	}
	copied := *stored
	return &copied, nil
}

// SetAddress stores the chosen shipping address id.
func (m *MemoryStore) SetAddress(ctx context.Context, buyerID uuid.UUID, addressID uuid.UUID) error {
	m.update(buyerID, func(s *Session) {
		s.AddressID = &addressID
	})
	return nil
}

// SetShippingMethod snapshots the chosen shipping method.
func (m *MemoryStore) SetShippingMethod(ctx context.Context, buyerID uuid.UUID, method ShippingMethod) error {
	m.update(buyerID, func(s *Session) {
		s.ShippingMethod = &method
	})
	return nil
}

// SetPaymentMethod stores the selected method id and its cached card.
func (m *MemoryStore) SetPaymentMethod(ctx context.Context, buyerID uuid.UUID, paymentMethodID string, card *SavedCard) error {
	m.update(buyerID, func(s *Session) {
		s.PaymentMethodID = &paymentMethodID
		s.SavedCard = card
	})
	return nil
}

// ClearSavedCard drops the payment selection entirely.
func (m *MemoryStore) ClearSavedCard(ctx context.Context, buyerID uuid.UUID) error {
	m.update(buyerID, func(s *Session) {
		s.PaymentMethodID = nil
		s.SavedCard = nil
	})
	return nil
}

// SetStatus moves the submission state machine.
func (m *MemoryStore) SetStatus(ctx context.Context, buyerID uuid.UUID, status enums.SubmissionStatus) error {
	m.update(buyerID, func(s *Session) {
		s.Status = status
	})
	return nil
}

// Clear resets the session to empty idle state.
func (m *MemoryStore) Clear(ctx context.Context, buyerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, buyerID)
	return nil
}

func (m *MemoryStore) update(buyerID uuid.UUID, mutate func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[buyerID]
	if !ok {
		session = NewSession()
		m.sessions[buyerID] = session
	}
	mutate(session)
}
