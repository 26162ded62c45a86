package checkoutsession

import (
	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

// ShippingMethod is the snapshot of the shipping choice taken at selection
// time. Cost changes in the catalog do not retroactively reprice a session.
type ShippingMethod struct {
	MethodID  string `json:"method_id"`
	Name      string `json:"name"`
	CostCents int64  `json:"cost_cents"`
}

// SavedCard caches the gateway's view of the selected card for display and
// duplicate detection. It is advisory only; the gateway list is authoritative.
type SavedCard struct {
	ID    string `json:"id"`
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// Session is the per-buyer checkout state accumulated across steps. It is a
// dumb container: no field implies another, and validation happens at the
// confirmation gate, not here.
type Session struct {
	AddressID       *uuid.UUID             `json:"address_id,omitempty"`
	ShippingMethod  *ShippingMethod        `json:"shipping_method,omitempty"`
	PaymentMethodID *string                `json:"payment_method_id,omitempty"`
	SavedCard       *SavedCard             `json:"saved_card,omitempty"`
	Status          enums.SubmissionStatus `json:"status"`
}

// NewSession returns an empty idle session.
func NewSession() *Session {
	return &Session{Status: enums.SubmissionStatusIdle}
}

// HasPreconditions reports whether every field required to confirm an order
// is present.
func (s *Session) HasPreconditions() bool {
	if s == nil {
		return false
	}
	return s.AddressID != nil &&
		s.ShippingMethod != nil &&
		s.PaymentMethodID != nil && *s.PaymentMethodID != "" &&
		s.SavedCard != nil
}
