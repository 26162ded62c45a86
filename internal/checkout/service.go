// Package checkout drives the confirmation step: the precondition gate and
// the submission state machine wrapped around the order service.
package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/internal/orders"
	"github.com/wastetotreasure/w2t-backend/internal/shipping"
	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
	"github.com/wastetotreasure/w2t-backend/pkg/metrics"
)

// Step names the checkout step a client should navigate to next.
type Step string

const (
	StepNone    Step = ""
	StepAddress Step = "address"
	StepPayment Step = "payment"
)

// GateResult reports whether the confirmation step may render.
type GateResult struct {
	Ready    bool                     `json:"ready"`
	NextStep Step                     `json:"next_step,omitempty"`
	Session  *checkoutsession.Session `json:"session"`
}

// SelectAddressInput confirms the address step: a shipping address plus a
// shipping method, snapshotted together.
type SelectAddressInput struct {
	AddressID        uuid.UUID
	ShippingMethodID string
}

// SubmitResult is the outcome of one submission attempt. Exactly one of
// Order and Failure is set unless the gate bounced the attempt, in which
// case only NextStep is populated.
type SubmitResult struct {
	Order    *models.Order         `json:"order,omitempty"`
	Failure  *orders.SubmitFailure `json:"failure,omitempty"`
	NextStep Step                  `json:"next_step,omitempty"`
}

// Service is the confirmation step orchestrator.
type Service interface {
	Gate(ctx context.Context, buyerID uuid.UUID) (*GateResult, error)
	SelectAddress(ctx context.Context, buyerID uuid.UUID, input SelectAddressInput) (*checkoutsession.Session, error)
	Submit(ctx context.Context, buyerID uuid.UUID, idempotencyKey string) (*SubmitResult, error)
}

type orderSubmitter interface {
	Submit(ctx context.Context, buyerID uuid.UUID, input orders.SubmitInput) (*models.Order, *orders.SubmitFailure, error)
}

type cartClearer interface {
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type addressVerifier interface {
	Belongs(ctx context.Context, buyerID, addressID uuid.UUID) (bool, error)
}

// ServiceParams groups dependencies for the confirmation service.
type ServiceParams struct {
	Sessions  checkoutsession.Store
	Orders    orderSubmitter
	Cart      cartClearer
	Addresses addressVerifier
	Metrics   *metrics.CheckoutMetrics
	Now       func() time.Time
}

type service struct {
	sessions  checkoutsession.Store
	orders    orderSubmitter
	cart      cartClearer
	addresses addressVerifier
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewService constructs the confirmation step service.
func NewService(params ServiceParams) (*service, error) {
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order submitter required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart clearer required")
	}
	if params.Addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address verifier required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		sessions:  params.Sessions,
		orders:    params.Orders,
		cart:      params.Cart,
		addresses: params.Addresses,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

// Gate checks the confirmation preconditions. Any missing field routes the
// buyer back to the address step, the start of the flow. While a submission
// is in flight or already succeeded the gate stands down so it cannot
// redirect mid-settlement.
func (s *service) Gate(ctx context.Context, buyerID uuid.UUID) (*GateResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	session, err := s.sessions.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	if session.Status == enums.SubmissionStatusSubmitting || session.Status == enums.SubmissionStatusSucceeded {
		return &GateResult{Ready: true, Session: session}, nil
	}
	if !session.HasPreconditions() {
		return &GateResult{Ready: false, NextStep: StepAddress, Session: session}, nil
	}
	return &GateResult{Ready: true, Session: session}, nil
}

// SelectAddress stores the buyer's shipping address and snapshots the
// chosen shipping method into the session.
func (s *service) SelectAddress(ctx context.Context, buyerID uuid.UUID, input SelectAddressInput) (*checkoutsession.Session, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if strings.TrimSpace(input.ShippingMethodID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping method id is required")
	}

	owned, err := s.addresses.Belongs(ctx, buyerID, input.AddressID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	method, err := shipping.Find(input.ShippingMethodID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SetAddress(ctx, buyerID, input.AddressID); err != nil {
		return nil, err
	}
	if err := s.sessions.SetShippingMethod(ctx, buyerID, checkoutsession.ShippingMethod{
		MethodID:  method.ID,
		Name:      method.Name,
		CostCents: method.CostCents,
	}); err != nil {
		return nil, err
	}

	return s.sessions.Get(ctx, buyerID)
}

// Submit runs one submission attempt through the state machine:
// idle/failed -> submitting -> succeeded or failed. Concurrent attempts are
// rejected while submitting, and a session that already succeeded cannot be
// submitted again.
func (s *service) Submit(ctx context.Context, buyerID uuid.UUID, idempotencyKey string) (*SubmitResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	session, err := s.sessions.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanSubmit() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a submission is already in progress")
	}
	if !session.HasPreconditions() {
		return &SubmitResult{NextStep: StepAddress}, nil
	}

	if err := s.sessions.SetStatus(ctx, buyerID, enums.SubmissionStatusSubmitting); err != nil {
		return nil, err
	}

	start := s.now()
	order, failure, err := s.orders.Submit(ctx, buyerID, orders.SubmitInput{
		PaymentMethodID:   *session.PaymentMethodID,
		ShippingAddressID: *session.AddressID,
		ShippingMethodID:  session.ShippingMethod.MethodID,
		ShippingName:      session.ShippingMethod.Name,
		ShippingCostCents: session.ShippingMethod.CostCents,
		IdempotencyKey:    idempotencyKey,
	})
	elapsed := s.now().Sub(start)

	if err != nil {
		if statusErr := s.sessions.SetStatus(ctx, buyerID, enums.SubmissionStatusFailed); statusErr != nil {
			return nil, statusErr
		}
		s.metrics.ObserveSubmission("error", elapsed)
		return nil, err
	}

	if failure != nil {
		if statusErr := s.sessions.SetStatus(ctx, buyerID, enums.SubmissionStatusFailed); statusErr != nil {
			return nil, statusErr
		}
		result := &SubmitResult{Failure: failure}
		if failure.Kind == orders.FailurePaymentMethodBurned {
			// The burned method must not be retried; drop it and send the
			// buyer back to pick a new one.
			if clearErr := s.sessions.ClearSavedCard(ctx, buyerID); clearErr != nil {
				return nil, clearErr
			}
			result.NextStep = StepPayment
		}
		s.metrics.ObserveSubmission(string(failure.Kind), elapsed)
		return result, nil
	}

	// Clear first, then mark succeeded: the marker must outlive the reset so
	// the gate keeps standing down until the session ages out.
	if err := s.sessions.Clear(ctx, buyerID); err != nil {
		return nil, err
	}
	if err := s.sessions.SetStatus(ctx, buyerID, enums.SubmissionStatusSucceeded); err != nil {
		return nil, err
	}
	if err := s.cart.Clear(ctx, buyerID); err != nil {
		return nil, err
	}
	s.metrics.ObserveSubmission("succeeded", elapsed)

	return &SubmitResult{Order: order}, nil
}
