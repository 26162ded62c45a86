// Package checkoutsession holds the per-buyer checkout state that the
// address, payment, and confirmation steps read and write. The store is a
// plain container with no validation of its own; steps decide what a
// complete session looks like.
package checkoutsession

import (
	"context"

	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

// Store persists checkout sessions keyed by buyer.
type Store interface {
	// Get returns the buyer's session, or a fresh idle session when none
	// exists yet.
	Get(ctx context.Context, buyerID uuid.UUID) (*Session, error)
	SetAddress(ctx context.Context, buyerID uuid.UUID, addressID uuid.UUID) error
	SetShippingMethod(ctx context.Context, buyerID uuid.UUID, method ShippingMethod) error
	SetPaymentMethod(ctx context.Context, buyerID uuid.UUID, paymentMethodID string, card *SavedCard) error
	// ClearSavedCard drops both the selected payment method id and the
	// cached card so the payment step starts from nothing.
	ClearSavedCard(ctx context.Context, buyerID uuid.UUID) error
	SetStatus(ctx context.Context, buyerID uuid.UUID, status enums.SubmissionStatus) error
	// Clear resets the whole session back to empty idle state.
	Clear(ctx context.Context, buyerID uuid.UUID) error
}
