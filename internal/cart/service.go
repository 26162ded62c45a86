// Package cart holds the buyer's pending order: listing snapshots with
// quantity, priced at add time.
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
)

// Summary is the cart with its computed subtotal.
type Summary struct {
	Items         []models.CartItem `json:"items"`
	SubtotalCents int64             `json:"subtotal_cents"`
}

// Service manages the buyer's cart.
type Service interface {
	Summarize(ctx context.Context, buyerID uuid.UUID) (*Summary, error)
	Items(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error)
	AddItem(ctx context.Context, buyerID, listingID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, buyerID, listingID uuid.UUID) error
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type listingReader interface {
	FindByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo     Repository
	Listings listingReader
}

type service struct {
	repo     Repository
	listings listingReader
}

// NewService constructs the cart service.
func NewService(params ServiceParams) (*service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repo required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listing reader required")
	}
	return &service{repo: params.Repo, listings: params.Listings}, nil
}

// Items returns the raw cart rows for the buyer.
func (s *service) Items(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	rows, err := s.repo.ListByUser(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	return rows, nil
}

// Summarize returns the cart with its subtotal.
func (s *service) Summarize(ctx context.Context, buyerID uuid.UUID) (*Summary, error) {
	items, err := s.Items(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	var subtotal int64
	for _, item := range items {
		subtotal += item.SubtotalCents()
	}
	return &Summary{Items: items, SubtotalCents: subtotal}, nil
}

// AddItem puts an approved listing into the cart, snapshotting its title
// and price. Adding a listing already in the cart replaces the quantity.
func (s *service) AddItem(ctx context.Context, buyerID, listingID uuid.UUID, quantity int) (*models.CartItem, error) {
	if buyerID == uuid.Nil || listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and listing id are required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.Status != enums.ListingStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if listing.SellerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot buy your own listing")
	}
	if quantity > listing.QuantityOnHand {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds availability")
	}

	item := &models.CartItem{
		UserID:         buyerID,
		ListingID:      listing.ID,
		Title:          listing.Title,
		UnitPriceCents: listing.UnitPriceCents,
		Quantity:       quantity,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return item, nil
}

// RemoveItem drops a single listing from the cart.
func (s *service) RemoveItem(ctx context.Context, buyerID, listingID uuid.UUID) error {
	if buyerID == uuid.Nil || listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id and listing id are required")
	}
	affected, err := s.repo.Delete(ctx, buyerID, listingID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// Clear empties the buyer's cart.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if err := s.repo.DeleteAll(ctx, buyerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
