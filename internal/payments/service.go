package payments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"

	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
	"github.com/wastetotreasure/w2t-backend/pkg/square"
)

// Card is the gateway card shape exposed to controllers.
type Card struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month,omitempty"`
	ExpYear  int    `json:"exp_year,omitempty"`
}

// ReconcileResult is the payment step entry state: the gateway's current
// method list plus the selection derived from it.
type ReconcileResult struct {
	Methods        []Card `json:"methods"`
	Selected       *Card  `json:"selected,omitempty"`
	NeedsNewMethod bool   `json:"needs_new_method"`
}

// AddMethodInput captures the payload required to vault a card.
type AddMethodInput struct {
	SourceID          string
	CardholderName    string
	VerificationToken string
	IdempotencyKey    string
}

// AddMethodResult reports the vaulting outcome. Reused is true when the new
// card matched an already-saved method and the existing one was selected
// instead.
type AddMethodResult struct {
	Card    Card   `json:"card"`
	Reused  bool   `json:"reused"`
	Methods []Card `json:"methods"`
}

// DeleteMethodResult reports the selection left after a delete.
type DeleteMethodResult struct {
	Methods  []Card `json:"methods"`
	Selected *Card  `json:"selected,omitempty"`
}

// Service orchestrates the payment step against the gateway's saved-method
// list. The gateway is authoritative; the checkout session only caches the
// buyer's selection.
type Service interface {
	Reconcile(ctx context.Context, buyerID uuid.UUID) (*ReconcileResult, error)
	AddMethod(ctx context.Context, buyerID uuid.UUID, input AddMethodInput) (*AddMethodResult, error)
	DeleteMethod(ctx context.Context, buyerID uuid.UUID, methodID string) (*DeleteMethodResult, error)
}

type customerProvider interface {
	EnsureSquareCustomer(ctx context.Context, userID uuid.UUID) (string, error)
}

type cardLister interface {
	ListCards(ctx context.Context, customerID string) ([]*sq.Card, error)
}

type cardCreator interface {
	CreateCard(ctx context.Context, params square.CardCreateParams) (*sq.Card, error)
}

type cardDisabler interface {
	DisableCard(ctx context.Context, cardID string) (*sq.Card, error)
}

type gateway interface {
	cardLister
	cardCreator
	cardDisabler
}

// ServiceParams groups dependencies for the payment step service.
type ServiceParams struct {
	Sessions  checkoutsession.Store
	Customers customerProvider
	Gateway   gateway

	// MinOperationDuration pads add/delete so their perceived latency never
	// drops below the floor. Zero disables padding.
	MinOperationDuration time.Duration
	Now                  func() time.Time
	Sleep                func(time.Duration)
}

type service struct {
	sessions    checkoutsession.Store
	customers   customerProvider
	gateway     gateway
	minDuration time.Duration
	now         func() time.Time
	sleep       func(time.Duration)
}

// NewService constructs the payment step service.
func NewService(params ServiceParams) (*service, error) {
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer provider required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway client required")
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}
	sleep := params.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &service{
		sessions:    params.Sessions,
		customers:   params.Customers,
		gateway:     params.Gateway,
		minDuration: params.MinOperationDuration,
		now:         now,
		sleep:       sleep,
	}, nil
}

// Reconcile refreshes the session's payment selection from the gateway list.
// A cached card that still exists stays selected; a stale one falls back to
// the first listed method; an empty list clears the selection and signals
// that a new method is needed.
func (s *service) Reconcile(ctx context.Context, buyerID uuid.UUID) (*ReconcileResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	customerID, err := s.customers.EnsureSquareCustomer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	listed, err := s.gateway.ListCards(ctx, customerID)
	if err != nil {
		return nil, err
	}
	methods := mapCards(listed)

	if len(methods) == 0 {
		if err := s.sessions.ClearSavedCard(ctx, buyerID); err != nil {
			return nil, err
		}
		return &ReconcileResult{Methods: []Card{}, NeedsNewMethod: true}, nil
	}

	session, err := s.sessions.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	selected := methods[0]
	if session.SavedCard != nil {
		for _, m := range methods {
			if m.ID == session.SavedCard.ID {
				selected = m
				break
			}
		}
	}

	if err := s.selectCard(ctx, buyerID, selected); err != nil {
		return nil, err
	}

	return &ReconcileResult{Methods: methods, Selected: &selected}, nil
}

// AddMethod vaults a card with the gateway and selects it. When the vaulted
// card carries the same brand and last4 as an already-saved method, the
// existing method is selected instead. That heuristic is a convenience
// match, not a uniqueness guarantee.
func (s *service) AddMethod(ctx context.Context, buyerID uuid.UUID, input AddMethodInput) (*AddMethodResult, error) {
	start := s.now()
	defer s.padTo(start)

	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	sourceID := strings.TrimSpace(input.SourceID)
	if sourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source_id is required")
	}

	customerID, err := s.customers.EnsureSquareCustomer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	params := square.CardCreateParams{
		CustomerID:     customerID,
		SourceID:       sourceID,
		ReferenceID:    buyerID.String(),
		IdempotencyKey: strings.TrimSpace(input.IdempotencyKey),
	}
	if cardholder := strings.TrimSpace(input.CardholderName); cardholder != "" {
		params.CardholderName = cardholder
	}
	if token := strings.TrimSpace(input.VerificationToken); token != "" {
		params.VerificationToken = token
	}

	created, err := s.gateway.CreateCard(ctx, params)
	if err != nil {
		return nil, err
	}
	card := mapCard(created)
	if card.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway card missing id")
	}

	listed, err := s.gateway.ListCards(ctx, customerID)
	if err != nil {
		return nil, err
	}
	methods := mapCards(listed)

	// Brand and last4 are unknown until the gateway responds, so the
	// duplicate check runs after vaulting.
	selected := card
	reused := false
	for _, m := range methods {
		if m.ID != card.ID && m.Brand == card.Brand && m.Last4 == card.Last4 {
			selected = m
			reused = true
			break
		}
	}

	if err := s.selectCard(ctx, buyerID, selected); err != nil {
		return nil, err
	}

	return &AddMethodResult{Card: selected, Reused: reused, Methods: methods}, nil
}

// DeleteMethod disables the card at the gateway. When the deleted card was
// the session's selection, the first remaining method takes its place, or
// the selection clears when nothing remains.
func (s *service) DeleteMethod(ctx context.Context, buyerID uuid.UUID, methodID string) (*DeleteMethodResult, error) {
	start := s.now()
	defer s.padTo(start)

	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	methodID = strings.TrimSpace(methodID)
	if methodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method id is required")
	}

	customerID, err := s.customers.EnsureSquareCustomer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.gateway.DisableCard(ctx, methodID); err != nil {
		return nil, err
	}

	listed, err := s.gateway.ListCards(ctx, customerID)
	if err != nil {
		return nil, err
	}
	methods := make([]Card, 0, len(listed))
	for _, m := range mapCards(listed) {
		if m.ID == methodID {
			continue
		}
		methods = append(methods, m)
	}

	session, err := s.sessions.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	result := &DeleteMethodResult{Methods: methods}
	deletedWasSelected := session.SavedCard != nil && session.SavedCard.ID == methodID

	switch {
	case deletedWasSelected && len(methods) > 0:
		fallback := methods[0]
		if err := s.selectCard(ctx, buyerID, fallback); err != nil {
			return nil, err
		}
		result.Selected = &fallback
	case deletedWasSelected:
		if err := s.sessions.ClearSavedCard(ctx, buyerID); err != nil {
			return nil, err
		}
	case session.SavedCard != nil:
		selected := *cardFromSaved(session.SavedCard)
		result.Selected = &selected
	}

	return result, nil
}

func (s *service) selectCard(ctx context.Context, buyerID uuid.UUID, card Card) error {
	return s.sessions.SetPaymentMethod(ctx, buyerID, card.ID, &checkoutsession.SavedCard{
		ID:    card.ID,
		Brand: card.Brand,
		Last4: card.Last4,
	})
}

func (s *service) padTo(start time.Time) {
	if s.minDuration <= 0 {
		return
	}
	if elapsed := s.now().Sub(start); elapsed < s.minDuration {
		s.sleep(s.minDuration - elapsed)
	}
}

func cardFromSaved(saved *checkoutsession.SavedCard) *Card {
	return &Card{ID: saved.ID, Brand: saved.Brand, Last4: saved.Last4}
}

func mapCards(cards []*sq.Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if c == nil {
			continue
		}
		mapped := mapCard(c)
		if mapped.ID == "" {
			continue
		}
		out = append(out, mapped)
	}
	return out
}

func mapCard(card *sq.Card) Card {
	if card == nil {
		return Card{}
	}
	out := Card{}
	if id := card.GetID(); id != nil {
		out.ID = strings.TrimSpace(*id)
	}
	if brand := card.GetCardBrand(); brand != nil {
		out.Brand = string(*brand)
	}
	if last4 := card.GetLast4(); last4 != nil {
		out.Last4 = *last4
	}
	if month := card.GetExpMonth(); month != nil {
		out.ExpMonth = int(*month)
	}
	if year := card.GetExpYear(); year != nil {
		out.ExpYear = int(*year)
	}
	return out
}
