package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
	"github.com/wastetotreasure/w2t-backend/pkg/square"
)

type customerEnsurer interface {
	EnsureCustomer(ctx context.Context, params square.CustomerCreateParams) (*sq.Customer, error)
}

// SquareCustomers links local users to gateway customer records, creating
// the remote customer lazily on first use and caching the id on the user
// row afterwards.
type SquareCustomers struct {
	repo   *Repository
	square customerEnsurer
}

// NewSquareCustomers builds the linking service.
func NewSquareCustomers(repo *Repository, client customerEnsurer) (*SquareCustomers, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo required")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "square client required")
	}
	return &SquareCustomers{repo: repo, square: client}, nil
}

// EnsureSquareCustomer returns the user's gateway customer id, creating and
// persisting it when missing.
func (s *SquareCustomers) EnsureSquareCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.SquareCustomerID != nil && strings.TrimSpace(*user.SquareCustomerID) != "" {
		return strings.TrimSpace(*user.SquareCustomerID), nil
	}

	customer, err := s.square.EnsureCustomer(ctx, square.CustomerCreateParams{
		Email:       user.Email,
		GivenName:   user.FirstName,
		FamilyName:  user.LastName,
		ReferenceID: "w2t:user:" + user.ID.String(),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure square customer")
	}
	if customer == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square customer missing")
	}
	id := customer.GetID()
	if id == nil || strings.TrimSpace(*id) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square customer id missing")
	}

	customerID := strings.TrimSpace(*id)
	if err := s.repo.SetSquareCustomerID(ctx, user.ID, customerID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist square customer id")
	}
	return customerID, nil
}
