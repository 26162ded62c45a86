package checkoutsession

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
)

type sessionKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(buyerID string) string
}

// RedisStore keeps checkout sessions as JSON values with a TTL so abandoned
// sessions age out on their own.
type RedisStore struct {
	kv  sessionKV
	ttl time.Duration
}

// NewRedisStore builds a redis-backed session store.
func NewRedisStore(kv sessionKV, ttl time.Duration) (*RedisStore, error) {
	if kv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redis client required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session ttl must be positive")
	}
	return &RedisStore{kv: kv, ttl: ttl}, nil
}

// Get returns the stored session or a fresh idle one.
func (r *RedisStore) Get(ctx context.Context, buyerID uuid.UUID) (*Session, error) {
	raw, err := r.kv.Get(ctx, r.kv.CheckoutSessionKey(buyerID.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return NewSession(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	if session.Status == "" {
		session.Status = enums.SubmissionStatusIdle
	}
	return &session, nil
}

// SetAddress stores the chosen shipping address id.
func (r *RedisStore) SetAddress(ctx context.Context, buyerID uuid.UUID, addressID uuid.UUID) error {
	return r.update(ctx, buyerID, func(s *Session) {
		s.AddressID = &addressID
	})
}

// SetShippingMethod snapshots the chosen shipping method.
func (r *RedisStore) SetShippingMethod(ctx context.Context, buyerID uuid.UUID, method ShippingMethod) error {
	return r.update(ctx, buyerID, func(s *Session) {
		s.ShippingMethod = &method
	})
}

// SetPaymentMethod stores the selected method id and its cached card.
func (r *RedisStore) SetPaymentMethod(ctx context.Context, buyerID uuid.UUID, paymentMethodID string, card *SavedCard) error {
	return r.update(ctx, buyerID, func(s *Session) {
		s.PaymentMethodID = &paymentMethodID
		s.SavedCard = card
	})
}

// ClearSavedCard drops the payment selection entirely.
func (r *RedisStore) ClearSavedCard(ctx context.Context, buyerID uuid.UUID) error {
	return r.update(ctx, buyerID, func(s *Session) {
		s.PaymentMethodID = nil
		s.SavedCard = nil
	})
}

// SetStatus moves the submission state machine.
func (r *RedisStore) SetStatus(ctx context.Context, buyerID uuid.UUID, status enums.SubmissionStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, "invalid submission status")
	}
	return r.update(ctx, buyerID, func(s *Session) {
		s.Status = status
	})
}

// Clear deletes the stored session; the next Get starts idle and empty.
func (r *RedisStore) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if err := r.kv.Del(ctx, r.kv.CheckoutSessionKey(buyerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear checkout session")
	}
	return nil
}

func (r *RedisStore) update(ctx context.Context, buyerID uuid.UUID, mutate func(*Session)) error {
	session, err := r.Get(ctx, buyerID)
	if err != nil {
		return err
	}
	mutate(session)

	data, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	if err := r.kv.Set(ctx, r.kv.CheckoutSessionKey(buyerID.String()), string(data), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout session")
	}
	return nil
}
