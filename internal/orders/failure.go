package orders

// FailureKind is the closed set of order submission failures surfaced to
// the confirmation step. Gateway and validation error shapes are folded
// into these three cases at this boundary; anything unrecognized is
// generic.
type FailureKind string

const (
	// FailurePaymentMethodBurned means the stored payment method can never
	// be charged again and must be dropped.
	FailurePaymentMethodBurned FailureKind = "payment_method_burned"
	// FailureAmountTooSmall means the total is below the gateway's
	// processing minimum. Nothing was charged.
	FailureAmountTooSmall FailureKind = "amount_too_small"
	// FailureGeneric covers every other failed attempt; retrying with the
	// same inputs is allowed.
	FailureGeneric FailureKind = "generic"
)

// SubmitFailure describes a failed submission attempt.
type SubmitFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`

	// PaymentMethodID names the burned method for payment_method_burned so
	// the client can drop it from any local cache.
	PaymentMethodID string `json:"payment_method_id,omitempty"`

	// MinimumCents and CurrentCents are set only for amount_too_small.
	MinimumCents int64 `json:"minimum_cents,omitempty"`
	CurrentCents int64 `json:"current_cents,omitempty"`
}
