// Package address manages the buyer's shipping address book and the
// selection logic the address step builds on.
package address

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
)

// CreateInput is a new address book entry.
type CreateInput struct {
	Label      *string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// Service manages the buyer address book.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	Belongs(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
	ChooseSelected(addresses []models.Address, session *checkoutsession.Session) *models.Address
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the address service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
}

type service struct {
	repo     Repository
	txRunner txRunner
}

// NewService constructs the address service.
func NewService(params ServiceParams) (*service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: params.Repo, txRunner: params.TransactionRunner}, nil
}

// List returns the buyer's addresses, default first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

// Create stores a new address. When the new entry is marked default, the
// previous default is cleared in the same transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.Street) == "" || strings.TrimSpace(input.City) == "" ||
		strings.TrimSpace(input.State) == "" || strings.TrimSpace(input.PostalCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street, city, state, and postal code are required")
	}

	country := strings.ToUpper(strings.TrimSpace(input.Country))
	if country == "" {
		country = "US"
	}

	address := &models.Address{
		UserID:     userID,
		Label:      input.Label,
		Street:     strings.TrimSpace(input.Street),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    country,
		IsDefault:  input.IsDefault,
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, address)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return address, nil
}

// Delete removes an address owned by the buyer.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	affected, err := s.repo.Delete(ctx, userID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

// Belongs reports whether the address exists and is owned by the buyer.
func (s *service) Belongs(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return false, nil
	}
	_, err := s.repo.FindByID(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return true, nil
}

// ChooseSelected picks the address the address step should pre-select:
// the session's choice when it still exists, otherwise the default entry,
// otherwise the first address in the list.
func (s *service) ChooseSelected(addresses []models.Address, session *checkoutsession.Session) *models.Address {
	if len(addresses) == 0 {
		return nil
	}
	if session != nil && session.AddressID != nil {
		for i := range addresses {
			if addresses[i].ID == *session.AddressID {
				return &addresses[i]
			}
		}
	}
	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	return &addresses[0]
}
