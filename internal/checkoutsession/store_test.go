package checkoutsession

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

type fakeKV struct {
	values map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeKV) CheckoutSessionKey(buyerID string) string {
	return "w2t:checkout:session:" + buyerID
}

func TestRedisStoreGetMissingReturnsIdle(t *testing.T) {
	store, err := NewRedisStore(newFakeKV(), time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	session, err := store.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.Status != enums.SubmissionStatusIdle {
		t.Fatalf("expected idle status, got %s", session.Status)
	}
	if session.HasPreconditions() {
		t.Fatal("empty session should not satisfy preconditions")
	}
}

func TestRedisStoreAccumulatesFields(t *testing.T) {
	ctx := context.Background()
	store, _ := NewRedisStore(newFakeKV(), time.Hour)
	buyerID := uuid.New()
	addressID := uuid.New()

	if err := store.SetAddress(ctx, buyerID, addressID); err != nil {
		t.Fatalf("set address: %v", err)
	}
	if err := store.SetShippingMethod(ctx, buyerID, ShippingMethod{MethodID: "standard", Name: "Standard", CostCents: 799}); err != nil {
		t.Fatalf("set shipping: %v", err)
	}
	if err := store.SetPaymentMethod(ctx, buyerID, "card-1", &SavedCard{ID: "card-1", Brand: "VISA", Last4: "4242"}); err != nil {
		t.Fatalf("set payment: %v", err)
	}

	session, err := store.Get(ctx, buyerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.AddressID == nil || *session.AddressID != addressID {
		t.Fatal("address not persisted")
	}
	if session.ShippingMethod == nil || session.ShippingMethod.CostCents != 799 {
		t.Fatal("shipping method not persisted")
	}
	if !session.HasPreconditions() {
		t.Fatal("expected all preconditions satisfied")
	}
}

func TestRedisStoreClearSavedCardDropsSelection(t *testing.T) {
	ctx := context.Background()
	store, _ := NewRedisStore(newFakeKV(), time.Hour)
	buyerID := uuid.New()

	if err := store.SetAddress(ctx, buyerID, uuid.New()); err != nil {
		t.Fatalf("set address: %v", err)
	}
	if err := store.SetPaymentMethod(ctx, buyerID, "card-1", &SavedCard{ID: "card-1", Brand: "VISA", Last4: "4242"}); err != nil {
		t.Fatalf("set payment: %v", err)
	}

	if err := store.ClearSavedCard(ctx, buyerID); err != nil {
		t.Fatalf("clear saved card: %v", err)
	}

	session, _ := store.Get(ctx, buyerID)
	if session.PaymentMethodID != nil || session.SavedCard != nil {
		t.Fatal("payment selection should be fully cleared")
	}
	if session.AddressID == nil {
		t.Fatal("address must survive a payment-method clear")
	}
}

func TestRedisStoreClearResetsEverything(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, _ := NewRedisStore(kv, time.Hour)
	buyerID := uuid.New()

	_ = store.SetAddress(ctx, buyerID, uuid.New())
	_ = store.SetStatus(ctx, buyerID, enums.SubmissionStatusSucceeded)

	if err := store.Clear(ctx, buyerID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	session, _ := store.Get(ctx, buyerID)
	if session.AddressID != nil || session.Status != enums.SubmissionStatusIdle {
		t.Fatalf("expected empty idle session, got %+v", session)
	}
}

func TestRedisStoreRejectsInvalidStatus(t *testing.T) {
	store, _ := NewRedisStore(newFakeKV(), time.Hour)
	if err := store.SetStatus(context.Background(), uuid.New(), enums.SubmissionStatus("exploded")); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	kv := newFakeKV()
	store, _ := NewRedisStore(kv, time.Hour)
	buyerID := uuid.New()
	kv.values[kv.CheckoutSessionKey(buyerID.String())] = "{not json"

	if _, err := store.Get(context.Background(), buyerID); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRedisStoreStoredShapeIsStable(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, _ := NewRedisStore(kv, time.Hour)
	buyerID := uuid.New()

	_ = store.SetPaymentMethod(ctx, buyerID, "card-9", &SavedCard{ID: "card-9", Brand: "MASTERCARD", Last4: "1111"})

	raw := kv.values[kv.CheckoutSessionKey(buyerID.String())]
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("stored payload not json: %v", err)
	}
	if decoded["payment_method_id"] != "card-9" {
		t.Fatalf("unexpected stored payload: %s", raw)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	buyerID := uuid.New()

	_ = store.SetAddress(ctx, buyerID, uuid.New())

	// Mutating a returned session must not leak into the store.
	session, _ := store.Get(ctx, buyerID)
	session.AddressID = nil

	again, _ := store.Get(ctx, buyerID)
	if again.AddressID == nil {
		t.Fatal("store state leaked through returned copy")
	}

	other, _ := store.Get(ctx, uuid.New())
	if other.AddressID != nil {
		t.Fatal("sessions must be isolated per buyer")
	}
}

func TestNewRedisStoreValidation(t *testing.T) {
	if _, err := NewRedisStore(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil kv")
	}
	if _, err := NewRedisStore(newFakeKV(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
