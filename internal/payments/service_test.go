package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"

	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/pkg/square"
)

type stubCustomers struct {
	customerID string
	err        error
}

func (s *stubCustomers) EnsureSquareCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.customerID, nil
}

type stubGateway struct {
	cards      []*sq.Card
	created    *sq.Card
	listErr    error
	createErr  error
	disableErr error

	disabled []string
}

func (s *stubGateway) ListCards(ctx context.Context, customerID string) ([]*sq.Card, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.cards, nil
}

func (s *stubGateway) CreateCard(ctx context.Context, params square.CardCreateParams) (*sq.Card, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.created != nil {
		s.cards = append(s.cards, s.created)
	}
	return s.created, nil
}

func (s *stubGateway) DisableCard(ctx context.Context, cardID string) (*sq.Card, error) {
	if s.disableErr != nil {
		return nil, s.disableErr
	}
	s.disabled = append(s.disabled, cardID)
	remaining := make([]*sq.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if c.GetID() != nil && *c.GetID() == cardID {
			continue
		}
		remaining = append(remaining, c)
	}
	s.cards = remaining
	return &sq.Card{ID: &cardID}, nil
}

func sqCard(id, brand, last4 string) *sq.Card {
	b := sq.CardBrand(brand)
	return &sq.Card{ID: &id, CardBrand: &b, Last4: &last4}
}

func newTestService(t *testing.T, gw *stubGateway, sessions checkoutsession.Store) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Sessions:  sessions,
		Customers: &stubCustomers{customerID: "cust-1"},
		Gateway:   gw,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestReconcileEmptyListNeedsNewMethod(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()

	// Stale selection from an earlier visit.
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-old", &checkoutsession.SavedCard{ID: "card-old", Brand: "VISA", Last4: "4242"})

	svc := newTestService(t, &stubGateway{}, sessions)
	result, err := svc.Reconcile(ctx, buyerID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if !result.NeedsNewMethod {
		t.Fatal("empty gateway list should signal needs_new_method")
	}
	if result.Selected != nil {
		t.Fatal("no selection possible with empty list")
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard != nil || session.PaymentMethodID != nil {
		t.Fatal("stale selection should be cleared")
	}
}

func TestReconcileKeepsCachedCardWhenStillListed(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-2", &checkoutsession.SavedCard{ID: "card-2", Brand: "MASTERCARD", Last4: "1111"})

	gw := &stubGateway{cards: []*sq.Card{
		sqCard("card-1", "VISA", "4242"),
		sqCard("card-2", "MASTERCARD", "1111"),
	}}

	result, err := newTestService(t, gw, sessions).Reconcile(ctx, buyerID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Selected == nil || result.Selected.ID != "card-2" {
		t.Fatalf("cached card should stay selected, got %+v", result.Selected)
	}
	if result.NeedsNewMethod {
		t.Fatal("methods exist, needs_new_method must be false")
	}
}

func TestReconcileStaleCachedCardFallsBackToFirst(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-gone", &checkoutsession.SavedCard{ID: "card-gone", Brand: "VISA", Last4: "9999"})

	gw := &stubGateway{cards: []*sq.Card{
		sqCard("card-1", "VISA", "4242"),
		sqCard("card-2", "MASTERCARD", "1111"),
	}}

	result, err := newTestService(t, gw, sessions).Reconcile(ctx, buyerID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Selected == nil || result.Selected.ID != "card-1" {
		t.Fatalf("expected first listed card selected, got %+v", result.Selected)
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard == nil || session.SavedCard.ID != "card-1" {
		t.Fatal("session should cache the fallback selection")
	}
}

func TestReconcileGatewayErrorLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-1", &checkoutsession.SavedCard{ID: "card-1", Brand: "VISA", Last4: "4242"})

	gw := &stubGateway{listErr: errors.New("gateway down")}
	if _, err := newTestService(t, gw, sessions).Reconcile(ctx, buyerID); err == nil {
		t.Fatal("expected gateway error to surface")
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard == nil || session.SavedCard.ID != "card-1" {
		t.Fatal("session must not change when the gateway fails")
	}
}

func TestAddMethodSelectsNewCard(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()

	gw := &stubGateway{
		cards:   []*sq.Card{sqCard("card-1", "VISA", "4242")},
		created: sqCard("card-2", "MASTERCARD", "1111"),
	}

	result, err := newTestService(t, gw, sessions).AddMethod(ctx, buyerID, AddMethodInput{SourceID: "cnon:ok"})
	if err != nil {
		t.Fatalf("add method: %v", err)
	}
	if result.Reused {
		t.Fatal("distinct card should not report reuse")
	}
	if result.Card.ID != "card-2" {
		t.Fatalf("expected new card selected, got %s", result.Card.ID)
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard == nil || session.SavedCard.Last4 != "1111" {
		t.Fatal("session should cache the new card")
	}
}

func TestAddMethodDuplicateSelectsExisting(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()

	// Same brand+last4 as an already-saved method.
	gw := &stubGateway{
		cards:   []*sq.Card{sqCard("card-1", "VISA", "4242")},
		created: sqCard("card-dup", "VISA", "4242"),
	}

	result, err := newTestService(t, gw, sessions).AddMethod(ctx, buyerID, AddMethodInput{SourceID: "cnon:dup"})
	if err != nil {
		t.Fatalf("add method: %v", err)
	}
	if !result.Reused {
		t.Fatal("matching brand+last4 should report reuse")
	}
	if result.Card.ID != "card-1" {
		t.Fatalf("expected existing card selected, got %s", result.Card.ID)
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.PaymentMethodID == nil || *session.PaymentMethodID != "card-1" {
		t.Fatal("session should point at the existing method")
	}
}

func TestAddMethodGatewayErrorLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-1", &checkoutsession.SavedCard{ID: "card-1", Brand: "VISA", Last4: "4242"})

	gw := &stubGateway{createErr: errors.New("declined at vaulting")}
	if _, err := newTestService(t, gw, sessions).AddMethod(ctx, buyerID, AddMethodInput{SourceID: "cnon:bad"}); err == nil {
		t.Fatal("expected create error to surface")
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard == nil || session.SavedCard.ID != "card-1" {
		t.Fatal("failed add must not mutate the session")
	}
}

func TestAddMethodValidation(t *testing.T) {
	svc := newTestService(t, &stubGateway{}, checkoutsession.NewMemoryStore())
	if _, err := svc.AddMethod(context.Background(), uuid.New(), AddMethodInput{}); err == nil {
		t.Fatal("expected source_id validation error")
	}
	if _, err := svc.AddMethod(context.Background(), uuid.Nil, AddMethodInput{SourceID: "cnon:ok"}); err == nil {
		t.Fatal("expected buyer id validation error")
	}
}

func TestAddMethodPadsToMinimumDuration(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()

	var slept time.Duration
	base := time.Now()
	clock := []time.Time{base, base.Add(300 * time.Millisecond)}
	calls := 0

	svc, err := NewService(ServiceParams{
		Sessions:             sessions,
		Customers:            &stubCustomers{customerID: "cust-1"},
		Gateway:              &stubGateway{created: sqCard("card-1", "VISA", "4242")},
		MinOperationDuration: 2 * time.Second,
		Now: func() time.Time {
			if calls < len(clock) {
				ts := clock[calls]
				calls++
				return ts
			}
			return clock[len(clock)-1]
		},
		Sleep: func(d time.Duration) { slept = d },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.AddMethod(ctx, buyerID, AddMethodInput{SourceID: "cnon:ok"}); err != nil {
		t.Fatalf("add method: %v", err)
	}
	if slept != 1700*time.Millisecond {
		t.Fatalf("expected 1.7s of padding, got %s", slept)
	}
}

func TestDeleteMethodFallsBackToFirstRemaining(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-2", &checkoutsession.SavedCard{ID: "card-2", Brand: "MASTERCARD", Last4: "1111"})

	gw := &stubGateway{cards: []*sq.Card{
		sqCard("card-1", "VISA", "4242"),
		sqCard("card-2", "MASTERCARD", "1111"),
	}}

	result, err := newTestService(t, gw, sessions).DeleteMethod(ctx, buyerID, "card-2")
	if err != nil {
		t.Fatalf("delete method: %v", err)
	}
	if len(gw.disabled) != 1 || gw.disabled[0] != "card-2" {
		t.Fatalf("expected card-2 disabled, got %v", gw.disabled)
	}
	if result.Selected == nil || result.Selected.ID != "card-1" {
		t.Fatalf("expected fallback to card-1, got %+v", result.Selected)
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard == nil || session.SavedCard.ID != "card-1" {
		t.Fatal("session should cache the fallback selection")
	}
}

func TestDeleteLastMethodClearsSelection(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-1", &checkoutsession.SavedCard{ID: "card-1", Brand: "VISA", Last4: "4242"})

	gw := &stubGateway{cards: []*sq.Card{sqCard("card-1", "VISA", "4242")}}

	result, err := newTestService(t, gw, sessions).DeleteMethod(ctx, buyerID, "card-1")
	if err != nil {
		t.Fatalf("delete method: %v", err)
	}
	if result.Selected != nil {
		t.Fatal("no methods remain, selection must be empty")
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard != nil || session.PaymentMethodID != nil {
		t.Fatal("session selection should be cleared")
	}
}

func TestDeleteMethodGatewayErrorLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	sessions := checkoutsession.NewMemoryStore()
	buyerID := uuid.New()
	_ = sessions.SetPaymentMethod(ctx, buyerID, "card-1", &checkoutsession.SavedCard{ID: "card-1", Brand: "VISA", Last4: "4242"})

	gw := &stubGateway{disableErr: errors.New("gateway down")}
	if _, err := newTestService(t, gw, sessions).DeleteMethod(ctx, buyerID, "card-1"); err == nil {
		t.Fatal("expected disable error to surface")
	}

	session, _ := sessions.Get(ctx, buyerID)
	if session.SavedCard == nil || session.SavedCard.ID != "card-1" {
		t.Fatal("failed delete must not mutate the session")
	}
}
