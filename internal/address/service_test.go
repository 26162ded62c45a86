package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
)

type stubRepo struct {
	rows []models.Address

	clearedDefault int
	created        []*models.Address
	deleteAffected int64
	deleteErr      error
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.rows, nil
}

func (s *stubRepo) FindByID(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	for i := range s.rows {
		if s.rows[i].ID == addressID && s.rows[i].UserID == userID {
			return &s.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) Create(ctx context.Context, address *models.Address) error {
	address.ID = uuid.New()
	s.created = append(s.created, address)
	return nil
}

func (s *stubRepo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	s.clearedDefault++
	for i := range s.rows {
		s.rows[i].IsDefault = false
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, userID, addressID uuid.UUID) (int64, error) {
	return s.deleteAffected, s.deleteErr
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubRepo) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, TransactionRunner: stubTx{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateDefaultClearsPreviousDefault(t *testing.T) {
	userID := uuid.New()
	repo := &stubRepo{rows: []models.Address{{ID: uuid.New(), UserID: userID, IsDefault: true}}}
	svc := newTestService(t, repo)

	created, err := svc.Create(context.Background(), userID, CreateInput{
		Street: "1 Salvage Way", City: "Portland", State: "OR", PostalCode: "97201", IsDefault: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.clearedDefault != 1 {
		t.Fatalf("expected previous default to be cleared once, got %d", repo.clearedDefault)
	}
	if !created.IsDefault {
		t.Fatal("new address should be the default")
	}
	if created.Country != "US" {
		t.Fatalf("expected country fallback US, got %q", created.Country)
	}
}

func TestCreateNonDefaultLeavesDefaultAlone(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Street: "2 Reclaim Rd", City: "Austin", State: "TX", PostalCode: "78701", Country: "us",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.clearedDefault != 0 {
		t.Fatal("non-default create must not touch the existing default")
	}
	if repo.created[0].Country != "US" {
		t.Fatalf("country should be uppercased, got %q", repo.created[0].Country)
	}
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	if _, err := svc.Create(context.Background(), uuid.New(), CreateInput{City: "Austin"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBelongs(t *testing.T) {
	userID := uuid.New()
	mine := models.Address{ID: uuid.New(), UserID: userID}
	repo := &stubRepo{rows: []models.Address{mine}}
	svc := newTestService(t, repo)

	owned, err := svc.Belongs(context.Background(), userID, mine.ID)
	if err != nil {
		t.Fatalf("belongs: %v", err)
	}
	if !owned {
		t.Fatal("expected owned address")
	}

	owned, err = svc.Belongs(context.Background(), uuid.New(), mine.ID)
	if err != nil {
		t.Fatalf("belongs: %v", err)
	}
	if owned {
		t.Fatal("foreign address must not be owned")
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{deleteAffected: 0})
	if err := svc.Delete(context.Background(), uuid.New(), uuid.New()); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestChooseSelectedPrefersSessionThenDefaultThenFirst(t *testing.T) {
	userID := uuid.New()
	first := models.Address{ID: uuid.New(), UserID: userID}
	def := models.Address{ID: uuid.New(), UserID: userID, IsDefault: true}
	sessionPick := models.Address{ID: uuid.New(), UserID: userID}
	addresses := []models.Address{first, def, sessionPick}

	svc := newTestService(t, &stubRepo{})

	session := &checkoutsession.Session{AddressID: &sessionPick.ID}
	if got := svc.ChooseSelected(addresses, session); got == nil || got.ID != sessionPick.ID {
		t.Fatal("session selection must win")
	}

	// Session points at a deleted address: fall through to the default.
	gone := uuid.New()
	session = &checkoutsession.Session{AddressID: &gone}
	if got := svc.ChooseSelected(addresses, session); got == nil || got.ID != def.ID {
		t.Fatal("default must win when the session pick is gone")
	}

	if got := svc.ChooseSelected([]models.Address{first, sessionPick}, nil); got == nil || got.ID != first.ID {
		t.Fatal("first address must win when nothing else applies")
	}

	if got := svc.ChooseSelected(nil, nil); got != nil {
		t.Fatal("empty address book selects nothing")
	}
}
